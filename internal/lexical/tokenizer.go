package lexical

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// minTokenLength is the shortest token that gets indexed.
const minTokenLength = 3

// Tokenize lowercases s, strips non-alphanumeric characters, and drops tokens
// shorter than three characters. The same rules apply to documents and queries.
func Tokenize(s string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	fields := strings.Fields(cleaned)
	tokens := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) >= minTokenLength {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// UniqueTerms returns the distinct tokens of s in first-seen order.
func UniqueTerms(s string) []string {
	tokens := Tokenize(s)
	seen := make(map[string]bool, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if !seen[tok] {
			seen[tok] = true
			out = append(out, tok)
		}
	}
	return out
}
