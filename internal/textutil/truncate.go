package textutil

import "unicode/utf8"

// Truncate cuts s to at most max bytes on a rune boundary and marks the cut with "…".
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 0 {
		return "…"
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}
