package annotate

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/jdkato/prose/v2"
)

// ProseAnnotator runs the prose NER model and adds spans for a gazetteer
// of known project names. The stock model tags people and places but not
// organizations, so on lower-cased social text the gazetteer carries most
// of the project signal.
type ProseAnnotator struct {
	projects []string

	once    sync.Once
	model   *prose.Model
	loadErr error
}

// NewProseAnnotator returns an annotator that labels each of projects as ORG.
func NewProseAnnotator(projects []string) *ProseAnnotator {
	var clean []string
	for _, p := range projects {
		if p = strings.TrimSpace(p); p != "" {
			clean = append(clean, p)
		}
	}
	return &ProseAnnotator{projects: clean}
}

// loadModel decodes the stock model on first use and shares it across calls.
func (p *ProseAnnotator) loadModel() (*prose.Model, error) {
	p.once.Do(func() {
		doc, err := prose.NewDocument("", prose.WithSegmentation(false))
		if err != nil {
			p.loadErr = err
			return
		}
		p.model = doc.Model
	})
	return p.model, p.loadErr
}

type positionedSpan struct {
	Span
	start int
}

func (p *ProseAnnotator) Annotate(ctx context.Context, text string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	model, err := p.loadModel()
	if err != nil {
		return nil, fmt.Errorf("%w: prose: %v", ErrUnavailable, err)
	}
	doc, err := prose.NewDocument(text, prose.UsingModel(model))
	if err != nil {
		return nil, fmt.Errorf("%w: prose: %v", ErrUnavailable, err)
	}

	var spans []positionedSpan
	cursor := 0
	for _, ent := range doc.Entities() {
		start := len(text)
		if idx := strings.Index(text[cursor:], ent.Text); idx >= 0 {
			start = cursor + idx
			cursor = start + len(ent.Text)
		}
		spans = append(spans, positionedSpan{Span{Text: ent.Text, Label: ent.Label}, start})
	}
	spans = append(spans, p.gazetteerSpans(text)...)

	// Gazetteer spans were appended last, so a stable sort keeps the model's
	// span first when both start at the same offset.
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	out := make([]Span, len(spans))
	for i, s := range spans {
		out[i] = s.Span
	}

	sents := doc.Sentences()
	sentences := make([]string, 0, len(sents))
	for _, s := range sents {
		sentences = append(sentences, s.Text)
	}
	return NewDocument(out, sentences), nil
}

// gazetteerSpans finds whole-word, case-insensitive occurrences of the
// configured project names.
func (p *ProseAnnotator) gazetteerSpans(text string) []positionedSpan {
	lower := strings.ToLower(text)
	source := text
	if len(lower) != len(text) {
		source = lower
	}

	var spans []positionedSpan
	for _, name := range p.projects {
		needle := strings.ToLower(name)
		for off := 0; off < len(lower); {
			idx := strings.Index(lower[off:], needle)
			if idx < 0 {
				break
			}
			start := off + idx
			end := start + len(needle)
			if isWordBoundary(lower, start, end) {
				spans = append(spans, positionedSpan{Span{Text: source[start:end], Label: LabelOrg}, start})
			}
			off = end
		}
	}
	return spans
}

func isWordBoundary(s string, start, end int) bool {
	isWord := func(b byte) bool {
		r := rune(b)
		return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
	}
	if start > 0 && isWord(s[start-1]) {
		return false
	}
	if end < len(s) && isWord(s[end]) {
		return false
	}
	return true
}
