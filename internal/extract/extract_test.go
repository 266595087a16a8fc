package extract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matheuskafuri/dropwatch/internal/annotate"
)

func TestTokenSymbol(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   string
		wantOK bool
	}{
		{"dollar symbol", "claim your $ABCD now", "ABCD", true},
		{"suffix token", "the XYZQ token launches", "XYZQ", true},
		{"suffix coin", "grab some ZETA2 coin", "ZETA2", true},
		{"suffix case-insensitive", "the XYZQ TOKEN launches", "XYZQ", true},
		{"lower-case symbol ignored", "the xyzq token launches", "", false},
		{"mixed-case symbol ignored", "the Abcde token launches", "", false},
		{"dollar beats earlier suffix", "the XYZQ token and $ABCD", "ABCD", true},
		{"first dollar wins", "$AAA then $BBB", "AAA", true},
		{"lower-case dollar ignored", "$abcd airdrop", "", false},
		{"single letter dollar ignored", "$A airdrop", "", false},
		{"dollar capped at ten", "$ABCDEFGHIJKL", "ABCDEFGHIJ", true},
		{"suffix keeps last ten letters", "ABCDEFGHIJKLMN token", "EFGHIJKLMN", true},
		{"nothing", "no symbols here", "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := TokenSymbol(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeadline(t *testing.T) {
	got, ok := Deadline("Deadline: March 3, 2025.")
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), got)
	assert.Equal(t, time.UTC, got.Location())
}

func TestDeadlineISO(t *testing.T) {
	got, ok := Deadline("giveaway. deadline: 2025-01-01. follow us")
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), got)
}

func TestDeadlineUnparseableFallsThrough(t *testing.T) {
	_, ok := Deadline("Deadline: blah blah not a date.")
	assert.False(t, ok)
}

func TestDeadlineFallsBackToNextRule(t *testing.T) {
	// "deadline" matches but does not parse; "until" is the next rule that does.
	got, rule, ok := DeadlineRule("deadline: soon. open until 2025-06-30.")
	require.True(t, ok)
	assert.Equal(t, "until", rule)
	assert.Equal(t, time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC), got)
}

func TestDeadlineRuleOrder(t *testing.T) {
	// Both labels parse; the deadline label is tried first.
	_, rule, ok := DeadlineRule("closes 2025-02-01. deadline: 2025-03-01.")
	require.True(t, ok)
	assert.Equal(t, "deadline", rule)
}

func TestDeadlineEndsOn(t *testing.T) {
	got, rule, ok := DeadlineRule("the campaign ends on 2025-04-15.")
	require.True(t, ok)
	assert.Equal(t, "ends", rule)
	assert.Equal(t, time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC), got)
}

func TestDeadlineAbsent(t *testing.T) {
	_, ok := Deadline("join the testnet today")
	assert.False(t, ok)
}

func TestFuzzyDate(t *testing.T) {
	tests := []struct {
		fragment string
		want     time.Time
	}{
		{"2025-01-01", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"March 3, 2025", time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)},
		{"around 2025-05-04", time.Date(2025, 5, 4, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := FuzzyDate(tt.fragment)
		require.NoError(t, err, tt.fragment)
		assert.Equal(t, tt.want, got, tt.fragment)
	}
}

func TestFuzzyDateRejects(t *testing.T) {
	for _, fragment := range []string{"", "   ", "soon"} {
		_, err := FuzzyDate(fragment)
		assert.Error(t, err, "fragment %q", fragment)
	}
}

func TestParticipationSteps(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   string
		wantOK bool
	}{
		{"how to participate", "how to participate: follow and retweet.", "follow and retweet.", true},
		{"steps label", "Steps: join discord\nthen wait", "join discord", true},
		{"to participate", "to participate: bridge to the testnet", "bridge to the testnet", true},
		{"numbered list", "airdrop live\n1. follow us\n2. retweet", "follow us", true},
		{"bullet list", "airdrop live\n* join the discord\n* claim", "join the discord", true},
		{"label beats list", "1. follow\nsteps: claim on site", "claim on site", true},
		{"inline version number is not a list", "version 1.5 released", "", false},
		{"empty capture", "steps:   ", "", false},
		{"nothing", "just a post", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParticipationSteps(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

type stubAnnotator struct {
	doc annotate.Document
	err error
}

func (s stubAnnotator) Annotate(context.Context, string) (annotate.Document, error) {
	return s.doc, s.err
}

func TestResolveProject(t *testing.T) {
	a := stubAnnotator{doc: annotate.NewDocument(
		[]annotate.Span{
			{Text: "alice", Label: annotate.LabelPerson},
			{Text: "newproject", Label: annotate.LabelOrg},
			{Text: "otherproject", Label: annotate.LabelOrg},
		},
		[]string{"alice says hi.", " newproject announces $NEWP giveaway. ", "otherproject too."},
	)}

	name, desc, err := ResolveProject(context.Background(), "ignored", a)
	require.NoError(t, err)
	require.NotNil(t, name)
	require.NotNil(t, desc)
	assert.Equal(t, "newproject", *name)
	assert.Equal(t, "newproject announces $NEWP giveaway.", *desc)
}

func TestResolveProjectAcceptsProjectLabel(t *testing.T) {
	a := stubAnnotator{doc: annotate.NewDocument(
		[]annotate.Span{{Text: "zkchain", Label: annotate.LabelProject}},
		[]string{"zkchain testnet is live."},
	)}
	name, _, err := ResolveProject(context.Background(), "", a)
	require.NoError(t, err)
	require.NotNil(t, name)
	assert.Equal(t, "zkchain", *name)
}

func TestResolveProjectNoEntity(t *testing.T) {
	a := stubAnnotator{doc: annotate.NewDocument(
		[]annotate.Span{{Text: "paris", Label: annotate.LabelPlace}},
		[]string{"see you in paris."},
	)}
	name, desc, err := ResolveProject(context.Background(), "", a)
	require.NoError(t, err)
	assert.Nil(t, name)
	assert.Nil(t, desc)
}

func TestResolveProjectNoMatchingSentence(t *testing.T) {
	a := stubAnnotator{doc: annotate.NewDocument(
		[]annotate.Span{{Text: "newproject", Label: annotate.LabelOrg}},
		[]string{"new project announces."},
	)}
	name, desc, err := ResolveProject(context.Background(), "", a)
	require.NoError(t, err)
	require.NotNil(t, name)
	assert.Nil(t, desc)
}

func TestResolveProjectAnnotatorFailure(t *testing.T) {
	a := stubAnnotator{err: annotate.ErrUnavailable}
	name, desc, err := ResolveProject(context.Background(), "text", a)
	require.Error(t, err)
	assert.True(t, errors.Is(err, annotate.ErrUnavailable))
	assert.Nil(t, name)
	assert.Nil(t, desc)
}
