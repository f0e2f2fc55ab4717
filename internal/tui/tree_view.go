package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/reedfield/strata/internal/task"
	"github.com/reedfield/strata/internal/walker"
)

// renderTreePanel draws the delegation tree with one line per walker,
// indented by ladder depth.
func (a *App) renderTreePanel(width int) string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render(fmt.Sprintf("Delegation Tree · %.0f%%", a.snapshot.Percent))
	body := renderProgressNode(a.snapshot, 0, width)
	if strings.TrimSpace(body) == "" {
		body = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Render("No delegation yet.")
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, body)
}

func renderProgressNode(node walker.Progress, depth, width int) string {
	lines := []string{renderProgressLine(node, depth, width)}
	for _, child := range node.Children {
		lines = append(lines, renderProgressNode(child, depth+1, width))
	}
	return strings.Join(lines, "\n")
}

func renderProgressLine(node walker.Progress, depth, width int) string {
	indent := strings.Repeat("  ", depth)
	objective := node.What
	if objective == "" {
		objective = "(awaiting objective)"
	}
	line := fmt.Sprintf("%s%s %s %s", indent, statusGlyph(node.Status), node.Level, objective)
	if node.Status == task.StatusRunning || node.Status == task.StatusPaused {
		line += fmt.Sprintf(" · %.0f%%", node.Percent)
	}
	line = truncate(line, width)
	return lipgloss.NewStyle().Foreground(statusColor(node.Status)).Render(line)
}

// truncate bounds a line to width terminal cells without splitting a rune.
// The status glyphs are multibyte, so byte slicing would corrupt them.
func truncate(line string, width int) string {
	if width <= 8 {
		return line
	}
	runes := []rune(line)
	if len(runes) <= width {
		return line
	}
	return string(runes[:width-1]) + "…"
}

func statusGlyph(status task.Status) string {
	switch status {
	case task.StatusRunning:
		return "●"
	case task.StatusPaused:
		return "◌"
	case task.StatusCompleted:
		return "✓"
	case task.StatusFailed:
		return "✗"
	default:
		return "○"
	}
}

func statusColor(status task.Status) lipgloss.Color {
	switch status {
	case task.StatusRunning:
		return lipgloss.Color("#5B8DEF")
	case task.StatusPaused:
		return lipgloss.Color("#E5C07B")
	case task.StatusCompleted:
		return lipgloss.Color("#98C379")
	case task.StatusFailed:
		return lipgloss.Color("#FF6B6B")
	default:
		return lipgloss.Color("#888888")
	}
}
