package utils

import "strings"

// Truncate returns s cut to maxLen runes, ending in "..." when shortened.
func Truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// OneLine collapses newlines and whitespace runs so s fits on a log line.
func OneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
