package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/vanderheijden86/guidepost/pkg/debug"
	"github.com/vanderheijden86/guidepost/pkg/tour"
)

// progressBarWidth is the width of the bar next to "[n/N]" in the footer.
const progressBarWidth = 10

// OverlayOptions configures an Overlay.
type OverlayOptions struct {
	// Backdrop dims everything except the target while a tip is shown.
	Backdrop bool
	// Markdown renders tip content through glamour. Off renders it as
	// wrapped plain text.
	Markdown bool
	// MarkdownStyle is a glamour standard style name, "dark" or "light".
	MarkdownStyle string
}

// Overlay draws the tour on top of a rendered host view: the backdrop,
// the highlighted target, the tooltip box with its arrow, and the
// "show more?" prompt. It holds no tour state of its own.
type Overlay struct {
	theme   Theme
	metrics tour.Metrics
	opts    OverlayOptions
	keys    keyMap
	help    help.Model

	md    *glamour.TermRenderer
	cache map[string][]string
}

// NewOverlay prepares an overlay for tooltips of m's size.
func NewOverlay(theme Theme, m tour.Metrics, opts OverlayOptions) *Overlay {
	o := &Overlay{
		theme:   theme,
		metrics: m,
		opts:    opts,
		keys:    defaultKeyMap(),
		help:    help.New(),
		cache:   make(map[string][]string),
	}
	o.help.Width = o.innerWidth()
	o.help.Styles.ShortKey = theme.Renderer.NewStyle().Foreground(theme.Primary).Bold(true)
	o.help.Styles.ShortDesc = theme.Renderer.NewStyle().Foreground(theme.Subtext)
	o.help.Styles.ShortSeparator = theme.Renderer.NewStyle().Foreground(theme.Muted)

	if opts.Markdown {
		style := opts.MarkdownStyle
		if style == "" {
			style = "dark"
		}
		md, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(o.innerWidth()),
		)
		if err != nil {
			debug.Log("overlay: markdown renderer unavailable, using plain text: %v", err)
		} else {
			o.md = md
		}
	}
	return o
}

// Metrics returns the tooltip geometry the overlay draws with.
func (o *Overlay) Metrics() tour.Metrics { return o.metrics }

// innerWidth is the text width inside border and padding.
func (o *Overlay) innerWidth() int {
	return max(o.metrics.TooltipWidth-4, 1)
}

func (o *Overlay) innerHeight() int {
	return max(o.metrics.TooltipHeight-2, 1)
}

// Forget drops cached tip bodies, e.g. after a catalog reload.
func (o *Overlay) Forget() {
	clear(o.cache)
}

// Render composes the tour view over base. more is the number of advanced
// tips offered by the prompt. When the view is not visible and not
// prompting, base is returned unchanged.
func (o *Overlay) Render(base string, vp tour.Size, v tour.View, more int) string {
	switch {
	case v.Prompting:
		return o.renderPrompt(base, vp, v, more)
	case !v.Visible:
		return base
	}

	out := base
	if o.opts.Backdrop {
		out = Dim(base, o.theme.Backdrop)
		out = o.highlight(out, base, v.Rect)
	}

	box := o.tooltipLines(v)
	p := v.Placement
	out = Splice(out, box, p.Left, p.Top)

	col, row, glyph := o.arrow(p)
	out = Splice(out, []string{o.theme.Arrow.Render(glyph)}, col, row)
	return out
}

// TooltipRect returns the screen rect of the visible tooltip.
func (o *Overlay) TooltipRect(v tour.View) (tour.Rect, bool) {
	if !v.Visible {
		return tour.Rect{}, false
	}
	return tour.Rect{
		Top:    v.Placement.Top,
		Left:   v.Placement.Left,
		Width:  o.metrics.TooltipWidth,
		Height: o.metrics.TooltipHeight,
	}, true
}

// highlight copies the target's cells from base back over the dimmed
// view.
func (o *Overlay) highlight(dimmed, base string, r tour.Rect) string {
	if r.Width <= 0 || r.Height <= 0 {
		return dimmed
	}
	cells := Cut(base, r.Left, r.Top, r.Right(), r.Bottom())
	return Splice(dimmed, cells, max(r.Left, 0), r.Top)
}

// arrow returns the screen cell and glyph of the arrow. The arrow sits in
// the gap between tooltip and target, on the tooltip edge facing it.
func (o *Overlay) arrow(p tour.Placement) (col, row int, glyph string) {
	m := o.metrics
	switch p.ArrowSide {
	case tour.SideTop:
		return p.Left + p.ArrowOffset, p.Top + m.TooltipHeight, "▼"
	case tour.SideRight:
		return p.Left - 1, p.Top + p.ArrowOffset, "◀"
	case tour.SideLeft:
		return p.Left + m.TooltipWidth, p.Top + p.ArrowOffset, "▶"
	default:
		return p.Left + p.ArrowOffset, p.Top - 1, "▲"
	}
}

// tooltipLines renders the box at exactly TooltipWidth x TooltipHeight.
func (o *Overlay) tooltipLines(v tour.View) []string {
	w, h := o.innerWidth(), o.innerHeight()

	rows := make([]string, 0, h)
	rows = append(rows, o.theme.TooltipTitle.Render(truncate(v.Tip.Title, w)))

	bodyRows := max(h-3, 0)
	body := o.body(v.Tip, w)
	if len(body) > bodyRows && bodyRows > 0 {
		body = append(body[:bodyRows-1:bodyRows-1], o.theme.ProgressText.Render("…"))
	}
	for i := 0; i < bodyRows; i++ {
		if i < len(body) {
			rows = append(rows, body[i])
		} else {
			rows = append(rows, "")
		}
	}

	progress := RenderProgress(o.theme, v.Progress.Step, v.Progress.Total, progressBarWidth)
	if v.Progress.Advanced {
		progress += o.theme.ProgressText.Render("  advanced")
	}
	rows = append(rows, progress)
	rows = append(rows, o.help.ShortHelpView(o.keys.tour.bindings()))

	rows = rows[:min(len(rows), h)]
	for i := range rows {
		rows[i] = padStyled(rows[i], w)
	}
	return strings.Split(o.theme.Tooltip.Render(strings.Join(rows, "\n")), "\n")
}

// body returns the tip content as styled lines of at most width cells.
func (o *Overlay) body(tip tour.Tip, width int) []string {
	if lines, ok := o.cache[tip.ID]; ok && tip.ID != "" {
		return lines
	}
	var lines []string
	if o.md != nil {
		rendered, err := o.md.Render(tip.Content)
		if err == nil {
			for _, l := range compactLines(strings.Split(rendered, "\n")) {
				lines = append(lines, ansi.Truncate(strings.TrimRight(l, " "), width, ""))
			}
		} else {
			debug.Log("overlay: markdown render of %s failed: %v", tip.ID, err)
		}
	}
	if lines == nil {
		for _, l := range wrapText(tip.Content, width) {
			lines = append(lines, o.theme.TooltipBody.Render(l))
		}
	}
	if tip.ID != "" {
		o.cache[tip.ID] = lines
	}
	return lines
}

// renderPrompt draws the "show more?" question centered on a dimmed view.
func (o *Overlay) renderPrompt(base string, vp tour.Size, v tour.View, more int) string {
	out := base
	if o.opts.Backdrop {
		out = Dim(base, o.theme.Backdrop)
	}
	box := o.promptLines(v, more)
	r := promptRect(vp, box)
	return Splice(out, box, r.Left, r.Top)
}

// PromptRect returns the screen rect of the "show more?" box.
func (o *Overlay) PromptRect(vp tour.Size, v tour.View, more int) (tour.Rect, bool) {
	if !v.Prompting {
		return tour.Rect{}, false
	}
	return promptRect(vp, o.promptLines(v, more)), true
}

func promptRect(vp tour.Size, box []string) tour.Rect {
	w := 0
	for _, l := range box {
		w = max(w, ansi.StringWidth(l))
	}
	return tour.Rect{
		Top:    max((vp.Height-len(box))/2, 0),
		Left:   max((vp.Width-w)/2, 0),
		Width:  w,
		Height: len(box),
	}
}

func (o *Overlay) promptLines(v tour.View, more int) []string {
	name := v.Progress.PageName
	if name == "" {
		name = v.Progress.PageKey
	}
	tips := "tips"
	if more == 1 {
		tips = "tip"
	}
	lines := []string{
		o.theme.TooltipTitle.Render(fmt.Sprintf("That's the basics of %s.", name)),
		"",
		o.theme.TooltipBody.Render(fmt.Sprintf("Show %d more advanced %s?", more, tips)),
		"",
		o.help.ShortHelpView(o.keys.prompt.bindings()),
	}
	box := o.theme.Prompt.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
	return strings.Split(box, "\n")
}
