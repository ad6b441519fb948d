package model

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// TitleCase trims s, collapses runs of whitespace and capitalizes the first
// letter of every word while lower-casing the rest: "  green   APPLES" -> "Green Apples".
func TitleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}
