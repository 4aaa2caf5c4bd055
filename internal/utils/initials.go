package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Initials derives an avatar string from a display name: the upper-cased
// first letter of every whitespace-separated word.
func Initials(name string) string {
	var b strings.Builder
	for _, word := range strings.Fields(name) {
		r, _ := utf8.DecodeRuneInString(word)
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}
