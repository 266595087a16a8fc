package extract

import "regexp"

var stepRules = []rule[string]{
	{
		name:  "labelled",
		re:    regexp.MustCompile(`(?im)(?:how to participate|steps?|to participate):\s*(.+?)(?:\n|$)`),
		parse: trimmed,
	},
	{
		name:  "list",
		re:    regexp.MustCompile(`(?m)^[ \t]*(?:1\.|\*)(.+?)(?:\n|$)`),
		parse: trimmed,
	},
}

// ParticipationSteps returns the first line of participation instructions.
// Only one line is kept; numbered lists are not split into steps.
func ParticipationSteps(text string) (string, bool) {
	s, _, ok := firstMatch(stepRules, text)
	return s, ok
}
