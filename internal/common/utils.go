package common

import "strings"

// hasAny returns true if s contains any of the substrings.
func HasAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Truncate shortens message to at most limit runes, appending an ellipsis
// when anything was cut.
func Truncate(message string, limit int) string {
	runes := []rune(message)
	if limit <= 0 || len(runes) <= limit {
		return message
	}
	return strings.TrimRight(string(runes[:limit-1]), " \t") + "…"
}
