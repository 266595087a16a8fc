package store

import (
	"time"

	"github.com/matheuskafuri/dropwatch/internal/domain"
)

// Post is a fetched social post. Text is the normalized form handed to the
// extraction engine.
type Post struct {
	ID        string
	Source    string
	Author    string
	Text      string
	Link      string
	Published time.Time
	FetchedAt time.Time
	Retweet   bool
	Reply     bool
}

// RawPost returns the engine input for p.
func (p Post) RawPost() domain.RawPost {
	return domain.RawPost{ID: p.ID, Text: p.Text}
}

// Opportunity is a persisted candidate together with where it came from.
type Opportunity struct {
	domain.Candidate
	Kind      string    `json:"kind"`
	Source    string    `json:"source"`
	Author    string    `json:"author,omitempty"`
	Text      string    `json:"text"`
	Published time.Time `json:"published"`
	CreatedAt time.Time `json:"created_at"`
	Notified  bool      `json:"notified"`
}

// Title is a one-line label for lists and alerts.
func (o Opportunity) Title() string {
	switch {
	case o.ProjectName != nil && o.TokenSymbol != nil:
		return *o.ProjectName + " ($" + *o.TokenSymbol + ")"
	case o.ProjectName != nil:
		return *o.ProjectName
	case o.TokenSymbol != nil:
		return "$" + *o.TokenSymbol
	default:
		return o.SourceID
	}
}

type QueryOpts struct {
	Since      time.Time
	MinScore   float64
	Sources    []string
	Kind       string
	Search     string
	Unnotified bool
	Limit      int
}

type Stats struct {
	Posts         int
	Opportunities int
	Notified      int
	Size          int64
}
