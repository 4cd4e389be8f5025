// Package utils provides shared utilities for text, math, and logging.
package utils

// Truncate returns s truncated to maxLen characters, with "..." appended if truncated.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// CharsPerToken is the heuristic used for token accounting (roughly one token
// per 4 characters of English text).
const CharsPerToken = 4

// EstimateTokens estimates the token count of s using the chars/4 heuristic.
// Never returns a negative value; non-empty text counts as at least one token.
func EstimateTokens(s string) int {
	if len(s) == 0 {
		return 0
	}
	n := len(s) / CharsPerToken
	if n == 0 {
		n = 1
	}
	return n
}
