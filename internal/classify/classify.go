package classify

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/matheuskafuri/dropwatch/internal/config"
)

// Kind labels what a post announces.
type Kind string

const (
	Airdrop Kind = "airdrop"
	Testnet Kind = "testnet"
	Other   Kind = "other"
)

// AllKinds returns all kinds in canonical order. Earlier kinds win ties.
func AllKinds() []Kind {
	return []Kind{Airdrop, Testnet, Other}
}

// ParseKind maps a CLI value to a Kind.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, k := range AllKinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown kind %q (valid: airdrop, testnet, other)", s)
}

// Classifier scores text against per-kind keyword lists.
type Classifier struct {
	keywords map[Kind][]string
}

func New(kw config.Keywords) *Classifier {
	return &Classifier{keywords: map[Kind][]string{
		Airdrop: lowerAll(kw.Airdrop),
		Testnet: lowerAll(kw.Testnet),
	}}
}

// Classify returns the kind whose keywords occur most often in text, or
// Other when none occur.
func (c *Classifier) Classify(text string) Kind {
	tokens := tokenize(text)
	lower := strings.ToLower(text)

	best, bestScore := Other, 0
	for _, kind := range AllKinds() {
		score := 0
		for _, kw := range c.keywords[kind] {
			if strings.Contains(kw, " ") {
				score += strings.Count(lower, kw)
				continue
			}
			for _, t := range tokens {
				if t == kw || strings.HasPrefix(t, kw) {
					score++
				}
			}
		}
		if score > bestScore {
			best, bestScore = kind, score
		}
	}
	return best
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimLeft(strings.TrimSpace(s), "#$"))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func tokenize(s string) []string {
	var tokens []string
	for _, word := range strings.Fields(strings.ToLower(s)) {
		word = strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if word != "" {
			tokens = append(tokens, word)
		}
	}
	return tokens
}
