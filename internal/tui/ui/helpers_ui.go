package ui

import "github.com/mattn/go-runewidth"

// truncateString truncates a string to the given display width, appending
// "…" if truncated. Wide characters count as two cells.
func truncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxLen {
		return s
	}

	w := 0
	for i, r := range s {
		rw := runewidth.RuneWidth(r)
		if w+rw > maxLen-1 { // -1 for ellipsis
			return s[:i] + "…"
		}
		w += rw
	}
	return s
}

// padRight truncates or pads s with spaces to exactly width display cells.
func padRight(s string, width int) string {
	s = truncateString(s, width)
	return runewidth.FillRight(s, width)
}
