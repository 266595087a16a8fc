// Package digest summarises stored opportunities over a time window.
package digest

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/matheuskafuri/dropwatch/internal/store"
)

// Digest is a ranked summary of the opportunities seen in a window.
type Digest struct {
	Greeting      string
	DateLabel     string
	Scanned       int
	Selected      int
	Cards         []Card
	Tokens        []Count
	Projects      []Count
	ActiveSources string
	Themes        []string
	Upcoming      []store.Opportunity
}

// Card is one ranked opportunity.
type Card struct {
	Opportunity store.Opportunity
	Index       int
	DaysLeft    int // -1 when no deadline is known
}

// Count is a name and how many opportunities mention it.
type Count struct {
	Name  string
	Count int
}

// Querier is the part of the store the digest reads from.
type Querier interface {
	GetOpportunities(opts store.QueryOpts) ([]store.Opportunity, error)
}

type GenerateOpts struct {
	DB       Querier
	Since    time.Time
	Size     int
	Kind     string
	MinScore float64
	Now      time.Time
}

// Generate ranks opportunities published since opts.Since by score and
// collects trending tokens, projects and upcoming deadlines.
func Generate(opts GenerateOpts) (*Digest, error) {
	if opts.Size <= 0 {
		opts.Size = 5
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	ops, err := opts.DB.GetOpportunities(store.QueryOpts{
		Since:    opts.Since,
		Kind:     opts.Kind,
		MinScore: opts.MinScore,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching opportunities: %w", err)
	}

	d := &Digest{
		Greeting:  greeting(opts.Now),
		DateLabel: opts.Now.Format("Jan 2"),
		Scanned:   len(ops),
	}
	if len(ops) == 0 {
		return d, nil
	}

	d.Tokens = countBy(ops, func(o store.Opportunity) *string { return o.TokenSymbol })
	d.Projects = countBy(ops, func(o store.Opportunity) *string { return o.ProjectName })
	d.ActiveSources = activeSources(ops)
	d.Upcoming = upcoming(ops, opts.Now, 5)

	all, _ := opts.DB.GetOpportunities(store.QueryOpts{})
	if t := trending(ops, all); t != "" {
		d.Themes = strings.Split(t, ", ")
	}

	// Store order is score then recency already.
	top := ops
	if len(top) > opts.Size {
		top = top[:opts.Size]
	}
	d.Selected = len(top)
	for i, o := range top {
		d.Cards = append(d.Cards, Card{Opportunity: o, Index: i + 1, DaysLeft: daysLeft(o, opts.Now)})
	}
	return d, nil
}

func daysLeft(o store.Opportunity, now time.Time) int {
	if o.Deadline == nil {
		return -1
	}
	left := o.Deadline.Sub(now)
	if left < 0 {
		return 0
	}
	return int(math.Ceil(left.Hours() / 24))
}

func upcoming(ops []store.Opportunity, now time.Time, limit int) []store.Opportunity {
	var out []store.Opportunity
	for _, o := range ops {
		if o.Deadline != nil && o.Deadline.After(now) {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Deadline.Before(*out[j].Deadline)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// countBy tallies non-nil keys, most frequent first, ties by name. At most
// five entries are returned.
func countBy(ops []store.Opportunity, key func(store.Opportunity) *string) []Count {
	counts := map[string]int{}
	for _, o := range ops {
		if k := key(o); k != nil {
			counts[*k]++
		}
	}
	out := make([]Count, 0, len(counts))
	for name, n := range counts {
		out = append(out, Count{name, n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > 5 {
		out = out[:5]
	}
	return out
}

func greeting(now time.Time) string {
	hour := now.Hour()
	switch {
	case hour < 12:
		return "Good morning"
	case hour < 17:
		return "Good afternoon"
	default:
		return "Good evening"
	}
}

func activeSources(ops []store.Opportunity) string {
	counts := map[string]int{}
	for _, o := range ops {
		counts[o.Source]++
	}

	type sc struct {
		name  string
		count int
	}
	var sorted []sc
	for name, count := range counts {
		sorted = append(sorted, sc{name, count})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].count != sorted[j].count {
			return sorted[i].count > sorted[j].count
		}
		return sorted[i].name < sorted[j].name
	})

	limit := min(3, len(sorted))
	parts := make([]string, limit)
	for i := 0; i < limit; i++ {
		parts[i] = fmt.Sprintf("%s (%d)", sorted[i].name, sorted[i].count)
	}
	return strings.Join(parts, ", ")
}

// trending extracts top keywords from recent post texts using TF-IDF over
// every stored opportunity.
func trending(recent, all []store.Opportunity) string {
	df := map[string]int{}
	for _, o := range all {
		seen := map[string]bool{}
		for _, w := range tokenize(o.Text) {
			if !seen[w] {
				df[w]++
				seen[w] = true
			}
		}
	}

	tf := map[string]int{}
	for _, o := range recent {
		for _, w := range tokenize(o.Text) {
			tf[w]++
		}
	}

	totalDocs := max(len(all), 1)

	type scored struct {
		term  string
		score float64
	}
	var terms []scored
	for term, freq := range tf {
		if freq < 2 {
			continue
		}
		docFreq := max(df[term], 1)
		idf := math.Log(float64(totalDocs) / float64(docFreq))
		terms = append(terms, scored{term, float64(freq) * idf})
	}

	sort.Slice(terms, func(i, j int) bool {
		if terms[i].score != terms[j].score {
			return terms[i].score > terms[j].score
		}
		return terms[i].term < terms[j].term
	})

	limit := min(3, len(terms))
	parts := make([]string, limit)
	for i := 0; i < limit; i++ {
		parts[i] = terms[i].term
	}
	return strings.Join(parts, ", ")
}

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "from": true, "this": true,
	"that": true, "are": true, "was": true, "were": true, "been": true, "have": true,
	"has": true, "will": true, "would": true, "could": true, "should": true, "not": true,
	"how": true, "what": true, "when": true, "where": true, "who": true, "which": true,
	"your": true, "our": true, "you": true, "they": true, "their": true, "just": true,
	"about": true, "into": true, "over": true, "after": true, "before": true, "more": true,
	"airdrop": true, "testnet": true, "token": true, "tokens": true, "join": true,
	"follow": true, "retweet": true, "deadline": true, "participate": true,
}

func tokenize(s string) []string {
	var tokens []string
	for _, word := range strings.Fields(strings.ToLower(s)) {
		word = strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if len(word) < 4 || stopWords[word] {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// Render writes d as plain text.
func Render(w io.Writer, d *Digest) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s. Digest for %s: %d opportunities scanned", d.Greeting, d.DateLabel, d.Scanned)
	if d.ActiveSources != "" {
		fmt.Fprintf(&b, " (most active: %s)", d.ActiveSources)
	}
	b.WriteString("\n")

	if len(d.Cards) == 0 {
		b.WriteString("\nNothing new.\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	b.WriteString("\nTop opportunities\n")
	for _, c := range d.Cards {
		o := c.Opportunity
		fmt.Fprintf(&b, "%2d. [%3.0f] %-30s %s", c.Index, o.ConfidenceScore, o.Title(), o.Kind)
		if c.DaysLeft >= 0 {
			fmt.Fprintf(&b, "  %dd left", c.DaysLeft)
		}
		fmt.Fprintf(&b, "\n    %s\n", o.SourceURL)
	}

	if len(d.Upcoming) > 0 {
		b.WriteString("\nUpcoming deadlines\n")
		for _, o := range d.Upcoming {
			fmt.Fprintf(&b, "  %s  %s\n", o.Deadline.UTC().Format("2006-01-02"), o.Title())
		}
	}
	if len(d.Tokens) > 0 {
		fmt.Fprintf(&b, "\nTrending tokens: %s\n", joinCounts(d.Tokens, "$"))
	}
	if len(d.Projects) > 0 {
		fmt.Fprintf(&b, "Trending projects: %s\n", joinCounts(d.Projects, ""))
	}
	if len(d.Themes) > 0 {
		fmt.Fprintf(&b, "Themes: %s\n", strings.Join(d.Themes, ", "))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func joinCounts(cs []Count, prefix string) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = fmt.Sprintf("%s%s (%d)", prefix, c.Name, c.Count)
	}
	return strings.Join(parts, ", ")
}
