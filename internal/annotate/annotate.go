// Package annotate provides entity-annotation backends: something that
// labels spans of text and splits it into sentences. Backends are
// expensive to build and safe to share, so callers construct one and
// inject it wherever annotation is needed.
package annotate

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/matheuskafuri/dropwatch/internal/config"
)

// ErrUnavailable reports that a backend could not run at all, as opposed
// to running and finding nothing.
var ErrUnavailable = errors.New("annotator unavailable")

// Entity labels.
const (
	LabelOrg     = "ORG"
	LabelProject = "PROJECT"
	LabelPerson  = "PERSON"
	LabelPlace   = "GPE"
)

// IsProjectLabel reports whether label denotes an organization or project.
func IsProjectLabel(label string) bool {
	return label == LabelOrg || label == LabelProject
}

// Span is a labelled piece of the annotated text.
type Span struct {
	Text  string
	Label string
}

// Document is the result of annotating one text.
type Document interface {
	// Entities returns labelled spans in document order.
	Entities() []Span
	// Sentences returns the text's sentences in document order.
	Sentences() []string
}

// Annotator labels entities and segments sentences.
type Annotator interface {
	Annotate(ctx context.Context, text string) (Document, error)
}

// NewDocument returns a Document backed by the given slices.
func NewDocument(spans []Span, sentences []string) Document {
	return staticDocument{spans: spans, sentences: sentences}
}

type staticDocument struct {
	spans     []Span
	sentences []string
}

func (d staticDocument) Entities() []Span    { return d.spans }
func (d staticDocument) Sentences() []string { return d.sentences }

// New builds the backend selected in cfg. apiKey is only used by the LLM
// providers.
func New(cfg config.AnnotatorConfig, apiKey string) (Annotator, error) {
	switch cfg.Provider {
	case "", "prose":
		return NewProseAnnotator(cfg.Projects), nil
	case "claude", "openai":
		return NewLLMAnnotator(cfg.Provider, cfg.Model, apiKey, cfg.Projects)
	default:
		return nil, fmt.Errorf("unknown annotator provider: %q (valid: prose, claude, openai)", cfg.Provider)
	}
}

// Close releases any resources held by a.
func Close(a Annotator) error {
	if c, ok := a.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
