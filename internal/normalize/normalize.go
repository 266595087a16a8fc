// Package normalize cleans raw post text before extraction.
package normalize

import (
	"regexp"
	"strings"
)

var (
	urlRe     = regexp.MustCompile(`(?:https?://|www\.)\S+`)
	mentionRe = regexp.MustCompile(`@(\w+)`)
	hashtagRe = regexp.MustCompile(`#(\w+)`)
)

// Normalize strips URLs, drops @ and # markers, collapses runs of
// whitespace and lower-cases the result unless preserveCase is set.
// Line breaks between non-empty lines survive so list items stay at the
// start of a line.
func Normalize(text string, preserveCase bool) string {
	text = urlRe.ReplaceAllString(text, "")
	text = mentionRe.ReplaceAllString(text, "$1")
	text = hashtagRe.ReplaceAllString(text, "$1")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	text = strings.Join(lines, "\n")

	if !preserveCase {
		text = strings.ToLower(text)
	}
	return text
}
