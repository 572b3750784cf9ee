package tui

import "github.com/mattn/go-runewidth"

// RuneLen returns display width in columns
func RuneLen(s string) int {
	return runewidth.StringWidth(s)
}

// Truncate shortens s to maxLen columns, marking the cut with an ellipsis
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if RuneLen(s) <= maxLen {
		return s
	}
	if maxLen <= 1 {
		return "…"
	}
	return runewidth.Truncate(s, maxLen, "…")
}
