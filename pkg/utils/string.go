package utils

// Truncate shortens s to at most maxLen characters, marking the cut with an
// ellipsis. It never splits a multi-byte character.
func Truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
