package styles

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

// TruncateString truncates s to maxWidth cells, ending in "..." when cut.
// ANSI sequences in s are preserved.
func TruncateString(s string, maxWidth int) string {
	if maxWidth < 1 {
		return ""
	}
	if ansi.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return strings.Repeat(".", maxWidth)
	}
	return ansi.Truncate(s, maxWidth, "...")
}

// PadLabel right-pads a plain label with spaces to width cells.
func PadLabel(label string, width int) string {
	return runewidth.FillRight(label, width)
}

// LabelWidth returns the widest of labels in terminal cells.
func LabelWidth(labels ...string) int {
	w := 0
	for _, l := range labels {
		w = max(w, runewidth.StringWidth(l))
	}
	return w
}
