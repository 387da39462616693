package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const sgrReset = "\x1b[0m"

// Splice replaces a rectangular region of a rendered view with overlay
// lines placed at (x, y) in screen coordinates. Truncation is ANSI-aware,
// so styling on both sides of the overlay survives. Overlay cells that
// fall left of column 0 are clipped.
func Splice(view string, overlay []string, x, y int) string {
	if len(overlay) == 0 {
		return view
	}
	viewLines := strings.Split(view, "\n")
	for i, line := range overlay {
		row := y + i
		if row < 0 || row >= len(viewLines) {
			continue
		}
		viewLines[row] = spliceLine(viewLines[row], line, x)
	}
	return strings.Join(viewLines, "\n")
}

func spliceLine(viewLine, overlay string, x int) string {
	if x < 0 {
		overlay = ansi.TruncateLeft(overlay, -x, "")
		x = 0
	}
	width := ansi.StringWidth(overlay)
	if width == 0 {
		return viewLine
	}
	viewWidth := ansi.StringWidth(viewLine)

	var b strings.Builder
	if x > 0 {
		prefix := ansi.Truncate(viewLine, x, "")
		b.WriteString(prefix)
		if w := ansi.StringWidth(prefix); w < x {
			b.WriteString(strings.Repeat(" ", x-w))
		}
	}
	b.WriteString(sgrReset)
	b.WriteString(overlay)
	b.WriteString(sgrReset)
	if end := x + width; end < viewWidth {
		b.WriteString(ansi.TruncateLeft(viewLine, end, ""))
	}
	return b.String()
}

// Dim restyles every line of view with style after stripping its own
// colors. Used for the backdrop behind a tooltip.
func Dim(view string, style lipgloss.Style) string {
	lines := strings.Split(view, "\n")
	for i, l := range lines {
		plain := ansi.Strip(l)
		if plain == "" {
			continue
		}
		lines[i] = style.Render(plain)
	}
	return strings.Join(lines, "\n")
}

// Cut returns the cells [left, right) of each line in rows [top, bottom)
// of view, styling intact. Rows outside the view come back empty.
func Cut(view string, left, top, right, bottom int) []string {
	if right <= left || bottom <= top {
		return nil
	}
	lines := strings.Split(view, "\n")
	out := make([]string, 0, bottom-top)
	for row := top; row < bottom; row++ {
		if row < 0 || row >= len(lines) {
			out = append(out, "")
			continue
		}
		out = append(out, ansi.Cut(lines[row], max(left, 0), right))
	}
	return out
}
