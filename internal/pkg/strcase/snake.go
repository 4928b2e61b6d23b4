// Package strcase converts Go identifiers for use as JSON-style field names.
package strcase

import (
	"strings"
	"unicode"
)

// ToLowerSnake converts a Go identifier to snake_case. Initialisms stay in
// one word: HTTPServer becomes http_server and clientID becomes client_id.
func ToLowerSnake(s string) string {
	runes := []rune(s)

	var b strings.Builder
	b.Grow(len(s) + 4)

	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && startsWord(runes, i) {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToLower(r))
	}

	return b.String()
}

// startsWord reports whether the upper-case rune at i opens a new word.
func startsWord(runes []rune, i int) bool {
	prev := runes[i-1]
	if !unicode.IsUpper(prev) {
		return unicode.IsLetter(prev) || unicode.IsDigit(prev)
	}

	return i+1 < len(runes) && unicode.IsLower(runes[i+1])
}
