package signal

import (
	"testing"
	"time"

	"github.com/matheuskafuri/dropwatch/internal/domain"
)

func str(s string) *string { return &s }

func fullFields() domain.Fields {
	d := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return domain.Fields{
		ProjectName:        str("newproject"),
		TokenSymbol:        str("NEWP"),
		Deadline:           &d,
		ParticipationSteps: str("follow and retweet."),
	}
}

func TestScoreFullFieldsNoSpam(t *testing.T) {
	score := Score(fullFields(), "newproject announces a giveaway")
	if score != 70 {
		t.Errorf("expected 70 for all fields and no spam, got %.1f", score)
	}
}

func TestScoreSpamPenalty(t *testing.T) {
	score := Score(fullFields(), "guaranteed 100x returns")
	if score != 60 {
		t.Errorf("expected 60 with two spam hits, got %.1f", score)
	}
}

func TestScoreRepeatedKeywordCountsOnce(t *testing.T) {
	score := Score(fullFields(), "scam scam scam SCAM")
	if score != 65 {
		t.Errorf("expected 65 with one distinct spam hit, got %.1f", score)
	}
}

func TestScoreClampsAtZero(t *testing.T) {
	fields := domain.Fields{TokenSymbol: str("RUG")}
	score := Score(fields, "fake scam hurry 100x guaranteed")
	if score != 0 {
		t.Errorf("expected score clamped to 0, got %.1f", score)
	}

	b := ScoreWithBreakdown(fields, "fake scam hurry 100x guaranteed")
	if b.Raw != -5 {
		t.Errorf("expected raw -5 before clamping, got %.1f", b.Raw)
	}
}

func TestScoreComponents(t *testing.T) {
	d := time.Now()
	tests := []struct {
		name   string
		fields domain.Fields
		want   float64
	}{
		{"empty", domain.Fields{}, 0},
		{"project only", domain.Fields{ProjectName: str("p")}, 20},
		{"token only", domain.Fields{TokenSymbol: str("T")}, 20},
		{"deadline only", domain.Fields{Deadline: &d}, 15},
		{"steps only", domain.Fields{ParticipationSteps: str("s")}, 15},
		{"project and token", domain.Fields{ProjectName: str("p"), TokenSymbol: str("T")}, 40},
	}
	for _, tt := range tests {
		got := Score(tt.fields, "")
		if got != tt.want {
			t.Errorf("%s: Score = %.1f, want %.1f", tt.name, got, tt.want)
		}
	}
}

func TestBreakdownComponents(t *testing.T) {
	b := ScoreWithBreakdown(fullFields(), "hurry! guaranteed airdrop")
	if b.Project != 20 || b.Token != 20 || b.Deadline != 15 || b.Steps != 15 {
		t.Errorf("unexpected structural components: %+v", b)
	}
	if len(b.SpamHits) != 2 || b.SpamHits[0] != "hurry" || b.SpamHits[1] != "guaranteed" {
		t.Errorf("expected spam hits [hurry guaranteed] in lexicon order, got %v", b.SpamHits)
	}
	if b.SpamPenalty != 10 {
		t.Errorf("expected penalty 10, got %.1f", b.SpamPenalty)
	}
	if b.Final != 60 {
		t.Errorf("expected final 60, got %.1f", b.Final)
	}
}

func TestScoreDeterministic(t *testing.T) {
	f := fullFields()
	first := ScoreWithBreakdown(f, "fake airdrop")
	for i := 0; i < 10; i++ {
		if got := ScoreWithBreakdown(f, "fake airdrop"); got.Final != first.Final {
			t.Fatalf("score changed between runs: %.1f vs %.1f", got.Final, first.Final)
		}
	}
}

func TestSpamHitsCaseInsensitive(t *testing.T) {
	hits := SpamHits("This is NOT a SCAM")
	if len(hits) != 1 || hits[0] != "scam" {
		t.Errorf("expected [scam], got %v", hits)
	}
}
