// Package extract pulls individual opportunity fields out of normalized
// post text. Every extractor is independent and safe for concurrent use.
package extract

import "regexp"

var (
	// $ABCD, case-sensitive.
	dollarSymbolRe = regexp.MustCompile(`\$([A-Z]{2,10})`)
	// "ABCD token" / "ABCD coin"; only the suffix word ignores case.
	suffixSymbolRe = regexp.MustCompile(`([A-Z][A-Z0-9]{2,9})\s+(?i:token|coin)`)
)

// TokenSymbol returns the token ticker mentioned in text.
// An explicit $SYMBOL always wins over a "SYMBOL token" phrase, even when
// the phrase appears earlier in the text. A run of more than ten capitals
// before "token" yields its last ten.
func TokenSymbol(text string) (string, bool) {
	for _, re := range []*regexp.Regexp{dollarSymbolRe, suffixSymbolRe} {
		if m := re.FindStringSubmatch(text); m != nil {
			return m[1], true
		}
	}
	return "", false
}
