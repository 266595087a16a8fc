// Package feed fetches social posts from RSS and Atom sources.
package feed

import (
	"context"
	"crypto/sha256"
	"fmt"
	"html"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/matheuskafuri/dropwatch/internal/config"
	"github.com/matheuskafuri/dropwatch/internal/store"
)

type Fetcher interface {
	Fetch(ctx context.Context, source config.Source) ([]store.Post, error)
}

type RSSFetcher struct {
	parser *gofeed.Parser
	maxAge time.Duration
	now    func() time.Time
}

// NewRSSFetcher returns a fetcher that skips posts older than maxAge.
// A zero maxAge keeps everything.
func NewRSSFetcher(maxAge time.Duration) *RSSFetcher {
	return &RSSFetcher{parser: gofeed.NewParser(), maxAge: maxAge, now: time.Now}
}

func (f *RSSFetcher) Fetch(ctx context.Context, source config.Source) ([]store.Post, error) {
	feed, err := f.parser.ParseURLWithContext(source.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", source.Name, err)
	}

	now := f.now()
	posts := make([]store.Post, 0, len(feed.Items))
	for _, item := range feed.Items {
		pub := now
		if item.PublishedParsed != nil {
			pub = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			pub = *item.UpdatedParsed
		}

		if f.maxAge > 0 && pub.Before(now.Add(-f.maxAge)) {
			continue
		}

		text := stripHTML(item.Description)
		if text == "" {
			text = stripHTML(item.Content)
		}
		if text == "" {
			text = item.Title
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		posts = append(posts, store.Post{
			ID:        postID(item.Link),
			Source:    source.Name,
			Author:    author(item),
			Text:      text,
			Link:      item.Link,
			Published: pub,
			FetchedAt: now,
			Retweet:   isRetweet(item.Title, text),
			Reply:     isReply(item.Title, text),
		})
	}
	return posts, nil
}

var statusIDRe = regexp.MustCompile(`/status(?:es)?/(\d+)`)

// postID returns the numeric status ID from a post link, falling back to a
// hash of the link for sources that do not expose one.
func postID(link string) string {
	if m := statusIDRe.FindStringSubmatch(link); m != nil {
		return m[1]
	}
	h := sha256.Sum256([]byte(link))
	return fmt.Sprintf("%x", h[:16])
}

func author(item *gofeed.Item) string {
	if item.Author != nil && item.Author.Name != "" {
		return strings.TrimPrefix(item.Author.Name, "@")
	}
	if len(item.Authors) > 0 && item.Authors[0] != nil {
		return strings.TrimPrefix(item.Authors[0].Name, "@")
	}
	return ""
}

func isRetweet(title, text string) bool {
	return strings.HasPrefix(title, "RT by ") || strings.HasPrefix(text, "RT @")
}

func isReply(title, text string) bool {
	return strings.HasPrefix(title, "R to ") || strings.HasPrefix(text, "@")
}

func stripHTML(s string) string {
	s = strings.NewReplacer("<br>", "\n", "<br/>", "\n", "<br />", "\n", "</p>", "\n").Replace(s)

	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}

	lines := strings.Split(html.UnescapeString(b.String()), "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// SourceError ties a fetch failure to its source.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string { return e.Err.Error() }
func (e *SourceError) Unwrap() error { return e.Err }

type FetchResult struct {
	Posts  []store.Post
	Errors []error
}

// FetchAll fetches every source concurrently. A failing source is reported
// in Errors as a *SourceError and does not affect the others.
func FetchAll(ctx context.Context, fetcher Fetcher, sources []config.Source) FetchResult {
	var (
		mu     sync.Mutex
		result FetchResult
		wg     sync.WaitGroup
	)

	for _, src := range sources {
		wg.Add(1)
		go func(s config.Source) {
			defer wg.Done()
			posts, err := fetcher.Fetch(ctx, s)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Errors = append(result.Errors, &SourceError{Source: s.Name, Err: err})
				return
			}
			result.Posts = append(result.Posts, posts...)
		}(src)
	}

	wg.Wait()
	return result
}
