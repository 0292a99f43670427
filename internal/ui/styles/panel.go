package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RenderPanel draws content inside a rounded border with title set into the
// top edge: ╭─ Title ─────╮. width is the outer width; the height follows the
// content. The border takes borderColor.
func RenderPanel(content, title string, width int, borderColor lipgloss.TerminalColor) string {
	border := lipgloss.RoundedBorder()
	inner := max(width-2, 1)

	body := lipgloss.NewStyle().
		Width(inner).
		Border(border, false, true, true, true).
		BorderForeground(borderColor).
		Render(content)

	return topEdge(border, title, inner, borderColor) + "\n" + body
}

func topEdge(b lipgloss.Border, title string, inner int, color lipgloss.TerminalColor) string {
	edge := lipgloss.NewStyle().Foreground(color)

	// "─ " + title + " " needs at least one cell of title.
	room := inner - 4
	if title == "" || room < 1 {
		return edge.Render(b.TopLeft + strings.Repeat(b.Top, inner) + b.TopRight)
	}

	title = TruncateString(title, room)
	rest := max(inner-3-lipgloss.Width(title), 0)
	return edge.Render(b.TopLeft+b.Top+" ") +
		TitleStyle.Render(title) +
		edge.Render(" "+strings.Repeat(b.Top, rest)+b.TopRight)
}
