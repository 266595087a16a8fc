package extract

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var errNoDate = errors.New("no date in fragment")

var ordinalRe = regexp.MustCompile(`(\d+)(?:st|nd|rd|th)\b`)

// deadlineRules capture the rest of the sentence after a deadline label.
// Order matters: an explicit "deadline:" beats "ends", "until" and "closes".
var deadlineRules = []rule[time.Time]{
	{name: "deadline", re: regexp.MustCompile(`(?im)deadline:?\s*(.+?)(?:\.|$)`), parse: FuzzyDate},
	{name: "ends", re: regexp.MustCompile(`(?im)ends?(?:\son)?:?\s*(.+?)(?:\.|$)`), parse: FuzzyDate},
	{name: "until", re: regexp.MustCompile(`(?im)until:?\s*(.+?)(?:\.|$)`), parse: FuzzyDate},
	{name: "closes", re: regexp.MustCompile(`(?im)closes?(?:\son)?:?\s*(.+?)(?:\.|$)`), parse: FuzzyDate},
}

// Deadline returns the participation deadline announced in text, in UTC.
func Deadline(text string) (time.Time, bool) {
	t, _, ok := firstMatch(deadlineRules, text)
	return t, ok
}

// DeadlineRule is like Deadline but also names the label rule that produced
// the date, for explaining results.
func DeadlineRule(text string) (time.Time, string, bool) {
	return firstMatch(deadlineRules, text)
}

// FuzzyDate parses a date out of a free-text fragment. It first tries the
// whole fragment, then every contiguous run of words from longest to
// shortest, left to right, returning the first that parses. Dates without a
// zone are read as UTC.
//
// Short runs can parse to a date the author never meant (a bare day number,
// for example). That loss of precision is accepted policy.
func FuzzyDate(fragment string) (time.Time, error) {
	fragment = ordinalRe.ReplaceAllString(strings.TrimSpace(fragment), "$1")
	words := strings.Fields(fragment)
	if len(words) == 0 {
		return time.Time{}, errNoDate
	}

	for n := len(words); n > 0; n-- {
		for i := 0; i+n <= len(words); i++ {
			candidate := strings.Trim(strings.Join(words[i:i+n], " "), ",;:()")
			if candidate == "" {
				continue
			}
			t, err := dateparse.ParseIn(candidate, time.UTC)
			if err == nil {
				return t.UTC(), nil
			}
		}
	}
	return time.Time{}, errNoDate
}
