// Package signal scores extracted opportunity fields. The score is an
// additive, hand-weighted sum meant to be read by a human, not a probability.
package signal

import (
	"strings"

	"github.com/matheuskafuri/dropwatch/internal/domain"
)

// SpamKeywords lowers the score once per keyword present in the text.
var SpamKeywords = []string{"fake", "scam", "hurry", "100x", "guaranteed"}

const (
	weightProject  = 20.0
	weightToken    = 20.0
	weightDeadline = 15.0
	weightSteps    = 15.0
	spamPenalty    = 5.0

	minScore = 0.0
	maxScore = 100.0
)

// Breakdown shows how each component contributed to the final score.
type Breakdown struct {
	Project     float64  `json:"project"`
	Token       float64  `json:"token"`
	Deadline    float64  `json:"deadline"`
	Steps       float64  `json:"steps"`
	SpamHits    []string `json:"spam_hits,omitempty"`
	SpamPenalty float64  `json:"spam_penalty"`
	Raw         float64  `json:"raw"`
	Final       float64  `json:"final"`
}

// Score computes a confidence score (0–100) for the fields extracted from text.
func Score(fields domain.Fields, text string) float64 {
	return ScoreWithBreakdown(fields, text).Final
}

// ScoreWithBreakdown computes a confidence score with component details.
func ScoreWithBreakdown(fields domain.Fields, text string) Breakdown {
	var b Breakdown
	if fields.ProjectName != nil {
		b.Project = weightProject
	}
	if fields.TokenSymbol != nil {
		b.Token = weightToken
	}
	if fields.Deadline != nil {
		b.Deadline = weightDeadline
	}
	if fields.ParticipationSteps != nil {
		b.Steps = weightSteps
	}

	b.SpamHits = SpamHits(text)
	b.SpamPenalty = float64(len(b.SpamHits)) * spamPenalty

	b.Raw = b.Project + b.Token + b.Deadline + b.Steps - b.SpamPenalty
	b.Final = clamp(b.Raw)
	return b
}

// SpamHits lists the spam keywords found in text, in lexicon order.
// Repeats of a keyword count once.
func SpamHits(text string) []string {
	lower := strings.ToLower(text)
	var hits []string
	for _, kw := range SpamKeywords {
		if strings.Contains(lower, kw) {
			hits = append(hits, kw)
		}
	}
	return hits
}

func clamp(v float64) float64 {
	if v < minScore {
		return minScore
	}
	if v > maxScore {
		return maxScore
	}
	return v
}
