package extract

import (
	"errors"
	"regexp"
	"strings"
)

var errEmptyCapture = errors.New("empty capture")

// rule pairs a matcher with the parser that validates its capture.
// Rules are evaluated in slice order; see firstMatch.
type rule[T any] struct {
	name  string
	re    *regexp.Regexp
	parse func(capture string) (T, error)
}

// firstMatch returns the result of the first rule whose regex matches and
// whose parser accepts the first capture group. A rule that matches but
// fails to parse is skipped in favour of the next rule; later matches of
// the same rule are never tried.
func firstMatch[T any](rules []rule[T], text string) (T, string, bool) {
	var zero T
	for _, r := range rules {
		m := r.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		v, err := r.parse(m[1])
		if err != nil {
			continue
		}
		return v, r.name, true
	}
	return zero, "", false
}

// trimmed is the parser for rules whose capture is kept as raw text.
func trimmed(capture string) (string, error) {
	s := strings.TrimSpace(capture)
	if s == "" {
		return "", errEmptyCapture
	}
	return s, nil
}
