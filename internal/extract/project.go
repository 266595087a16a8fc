package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/matheuskafuri/dropwatch/internal/annotate"
)

// ResolveProject names the project a post is about and the sentence that
// describes it. The first organization-like span in document order wins;
// the annotator's own confidence is not consulted.
//
// A nil name with a nil error means the annotator ran and found nothing.
// Annotator failures are returned as errors so callers can tell the two apart.
func ResolveProject(ctx context.Context, text string, a annotate.Annotator) (name, description *string, err error) {
	doc, err := a.Annotate(ctx, text)
	if err != nil {
		return nil, nil, fmt.Errorf("annotating text: %w", err)
	}

	var project string
	for _, span := range doc.Entities() {
		if annotate.IsProjectLabel(span.Label) && strings.TrimSpace(span.Text) != "" {
			project = strings.TrimSpace(span.Text)
			break
		}
	}
	if project == "" {
		return nil, nil, nil
	}

	for _, sent := range doc.Sentences() {
		if strings.Contains(sent, project) {
			d := strings.TrimSpace(sent)
			return &project, &d, nil
		}
	}
	return &project, nil, nil
}
