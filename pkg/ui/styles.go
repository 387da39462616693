package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ══════════════════════════════════════════════════════════════════════════════
// COLOR PALETTE - Adaptive colors for light and dark terminals
// Light mode colors tuned for WCAG AA compliance (contrast ratio >= 4.5:1)
// ══════════════════════════════════════════════════════════════════════════════

var (
	ColorBgHighlight = lipgloss.AdaptiveColor{Light: "#D0D0D0", Dark: "#44475A"}
	ColorText        = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#F8F8F2"}
	ColorSubtext     = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BFBFBF"}
	ColorMuted       = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#6272A4"}

	ColorPrimary   = lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}
	ColorSecondary = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"}
	ColorInfo      = lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"}
	ColorSuccess   = lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}
	ColorWarning   = lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}
	ColorDanger    = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}

	// Priority colors
	ColorPrioCritical = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}
	ColorPrioHigh     = lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}
	ColorPrioMedium   = lipgloss.AdaptiveColor{Light: "#808000", Dark: "#F1FA8C"}
	ColorPrioLow      = lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}
)

// ══════════════════════════════════════════════════════════════════════════════
// BADGES AND BARS
// ══════════════════════════════════════════════════════════════════════════════

// RenderPriorityBadge returns a fixed-width priority badge.
// Priority values: 0=Critical, 1=High, 2=Medium, 3=Low, 4=Backlog
func RenderPriorityBadge(t Theme, priority int) string {
	var fg lipgloss.AdaptiveColor
	switch priority {
	case 0:
		fg = ColorPrioCritical
	case 1:
		fg = ColorPrioHigh
	case 2:
		fg = ColorPrioMedium
	case 3:
		fg = ColorPrioLow
	default:
		fg = ColorMuted
	}
	label := "P?"
	if priority >= 0 && priority <= 4 {
		label = fmt.Sprintf("P%d", priority)
	}
	return t.Renderer.NewStyle().Foreground(fg).Bold(true).Render(label)
}

// RenderProgress renders "[step/total] ███░░░" with at least one filled
// cell on any step.
func RenderProgress(t Theme, step, total, barWidth int) string {
	text := t.ProgressText.Render(fmt.Sprintf("[%d/%d]", step, total))
	if barWidth <= 0 {
		return text
	}
	filled := 0
	if total > 0 {
		filled = (step * barWidth) / total
		if filled < 1 && step > 0 {
			filled = 1
		}
	}
	if filled > barWidth {
		filled = barWidth
	}
	bar := t.ProgressFill.Render(strings.Repeat("█", filled)) +
		t.ProgressRest.Render(strings.Repeat("░", barWidth-filled))
	return text + " " + bar
}

// RenderDivider renders a horizontal divider line
func RenderDivider(t Theme, width int) string {
	if width <= 0 {
		return ""
	}
	return t.Renderer.NewStyle().
		Foreground(ColorBgHighlight).
		Render(strings.Repeat("─", width))
}
