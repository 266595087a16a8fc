// Package domain holds the record types passed between the extraction
// engine, storage and notification layers.
package domain

import (
	"fmt"
	"time"
)

// StatusURLTemplate builds the public link for a post from its ID.
const StatusURLTemplate = "https://twitter.com/i/web/status/%s"

// RawPost is a normalized post handed to the engine.
type RawPost struct {
	ID   string
	Text string
}

// Fields holds the independently extracted attributes of a post.
// A nil field means the extractor found nothing.
type Fields struct {
	ProjectName        *string
	TokenSymbol        *string
	Description        *string
	Deadline           *time.Time
	ParticipationSteps *string
}

// HasIdentity reports whether the fields name a project or a token.
func (f Fields) HasIdentity() bool {
	return f.ProjectName != nil || f.TokenSymbol != nil
}

// Candidate is a scored opportunity extracted from a single post.
type Candidate struct {
	SourceID           string     `json:"source_id"`
	ProjectName        *string    `json:"project_name,omitempty"`
	TokenSymbol        *string    `json:"token_symbol,omitempty"`
	Description        *string    `json:"description,omitempty"`
	Deadline           *time.Time `json:"deadline,omitempty"`
	ParticipationSteps *string    `json:"participation_steps,omitempty"`
	SourceURL          string     `json:"source_url"`
	ConfidenceScore    float64    `json:"confidence_score"`
}

// StatusURL returns the public URL of the post with the given ID.
func StatusURL(id string) string {
	return fmt.Sprintf(StatusURLTemplate, id)
}

// Fields returns the extracted attributes carried by the candidate.
func (c Candidate) Fields() Fields {
	return Fields{
		ProjectName:        c.ProjectName,
		TokenSymbol:        c.TokenSymbol,
		Description:        c.Description,
		Deadline:           c.Deadline,
		ParticipationSteps: c.ParticipationSteps,
	}
}

// Deref returns the pointed-to string, or "" for nil. Intended for display only.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
