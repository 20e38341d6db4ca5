package textsim

import (
	"regexp"
	"strings"
	"unicode"
)

// punctuation lists the characters removed before comparison.
const punctuation = ".,/#!$%^&*;:{}=-_`~()"

// whitespaceRun matches runs of ASCII whitespace, vertical tab, Unicode space
// separators, line/paragraph separators and the BOM.
var whitespaceRun = regexp.MustCompile(`[\t\n\v\f\r\p{Zs}\x{2028}\x{2029}\x{FEFF}]{2,}`)

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}

// Normalize lowercases text, strips punctuation, collapses whitespace runs
// and trims the result. It is total and idempotent.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	stripped := strings.Map(func(r rune) rune {
		if strings.ContainsRune(punctuation, r) {
			return -1
		}
		return r
	}, strings.ToLower(text))

	return strings.TrimFunc(whitespaceRun.ReplaceAllString(stripped, " "), isSpace)
}
