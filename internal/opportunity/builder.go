// Package opportunity assembles scored opportunity candidates from posts.
package opportunity

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/matheuskafuri/dropwatch/internal/annotate"
	"github.com/matheuskafuri/dropwatch/internal/domain"
	"github.com/matheuskafuri/dropwatch/internal/extract"
	"github.com/matheuskafuri/dropwatch/internal/signal"
)

// PostError ties a build failure to the post that caused it.
type PostError struct {
	ID  string
	Err error
}

func (e *PostError) Error() string { return fmt.Sprintf("post %s: %v", e.ID, e.Err) }
func (e *PostError) Unwrap() error { return e.Err }

// Builder turns posts into candidates. It holds no per-post state and is
// safe for concurrent use as long as its annotator is.
type Builder struct {
	annotator annotate.Annotator
}

// NewBuilder returns a Builder that resolves projects with a.
func NewBuilder(a annotate.Annotator) *Builder {
	return &Builder{annotator: a}
}

// Extract runs every field extractor over the post text.
func (b *Builder) Extract(ctx context.Context, post domain.RawPost) (domain.Fields, error) {
	var f domain.Fields

	if sym, ok := extract.TokenSymbol(post.Text); ok {
		f.TokenSymbol = &sym
	}
	if d, ok := extract.Deadline(post.Text); ok {
		f.Deadline = &d
	}
	if steps, ok := extract.ParticipationSteps(post.Text); ok {
		f.ParticipationSteps = &steps
	}

	name, desc, err := extract.ResolveProject(ctx, post.Text, b.annotator)
	if err != nil {
		return domain.Fields{}, err
	}
	f.ProjectName = name
	f.Description = desc

	return f, nil
}

// Build extracts, gates and scores one post. It returns nil and no error
// when the post names neither a project nor a token. No confidence
// threshold is applied here.
func (b *Builder) Build(ctx context.Context, post domain.RawPost) (*domain.Candidate, error) {
	fields, err := b.Extract(ctx, post)
	if err != nil {
		return nil, &PostError{ID: post.ID, Err: err}
	}
	if !fields.HasIdentity() {
		return nil, nil
	}

	return &domain.Candidate{
		SourceID:           post.ID,
		ProjectName:        fields.ProjectName,
		TokenSymbol:        fields.TokenSymbol,
		Description:        fields.Description,
		Deadline:           fields.Deadline,
		ParticipationSteps: fields.ParticipationSteps,
		SourceURL:          domain.StatusURL(post.ID),
		ConfidenceScore:    signal.Score(fields, post.Text),
	}, nil
}

// BatchResult collects the outcome of BuildAll. Candidates keep input
// order; posts with insufficient signal are counted in Skipped. Every entry
// in Errors is a *PostError.
type BatchResult struct {
	Candidates []domain.Candidate
	Skipped    int
	Errors     []error
}

// BuildAll builds candidates for posts using up to workers goroutines.
// A failing post is recorded in Errors and does not stop the others.
// Once ctx is cancelled, posts not yet started are skipped with ctx's error.
func (b *Builder) BuildAll(ctx context.Context, posts []domain.RawPost, workers int) BatchResult {
	if workers <= 0 {
		workers = 1
	}

	var (
		mu      sync.Mutex
		results = make([]*domain.Candidate, len(posts))
		result  BatchResult
		g       errgroup.Group
	)
	g.SetLimit(workers)

	for i, post := range posts {
		i, post := i, post
		if err := ctx.Err(); err != nil {
			mu.Lock()
			result.Errors = append(result.Errors, &PostError{ID: post.ID, Err: err})
			mu.Unlock()
			continue
		}
		g.Go(func() error {
			c, err := b.Build(ctx, post)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				result.Errors = append(result.Errors, err)
			case c == nil:
				result.Skipped++
			default:
				results[i] = c
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, c := range results {
		if c != nil {
			result.Candidates = append(result.Candidates, *c)
		}
	}
	return result
}
