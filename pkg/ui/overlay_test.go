package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"

	"github.com/vanderheijden86/guidepost/pkg/tour"
)

func blankView(w, h int) string {
	lines := make([]string, h)
	for i := range lines {
		lines[i] = strings.Repeat(".", w)
	}
	return strings.Join(lines, "\n")
}

func visibleView(target tour.Rect, vp tour.Size, m tour.Metrics) tour.View {
	return tour.View{
		Tip: tour.Tip{
			ID:      "t1",
			Title:   "Filter as you type",
			Content: "Press / and start typing. The list narrows on every keystroke.",
		},
		Rect:      target,
		Placement: tour.Solve(target, vp, m, ""),
		Progress:  tour.Progress{PageKey: "list", PageName: "Issue list", Step: 2, Total: 4, Phase: tour.PhaseShowingTip},
		Visible:   true,
	}
}

func TestOverlay_TooltipGeometry(t *testing.T) {
	m := tour.CellMetrics
	vp := tour.Size{Width: 100, Height: 30}
	o := NewOverlay(TestTheme(), m, OverlayOptions{})
	target := tour.Rect{Top: 3, Left: 10, Width: 20, Height: 1}
	v := visibleView(target, vp, m)

	box := o.tooltipLines(v)
	if len(box) != m.TooltipHeight {
		t.Fatalf("expected %d tooltip rows, got %d", m.TooltipHeight, len(box))
	}
	for i, l := range box {
		if w := ansi.StringWidth(l); w != m.TooltipWidth {
			t.Errorf("row %d is %d cells wide, want %d: %q", i, w, m.TooltipWidth, ansi.Strip(l))
		}
	}
	text := ansi.Strip(strings.Join(box, "\n"))
	for _, want := range []string{"Filter as you type", "[2/4]", "narrows", "next"} {
		if !strings.Contains(text, want) {
			t.Errorf("tooltip missing %q:\n%s", want, text)
		}
	}
}

func TestOverlay_RenderPlacesBoxAndArrow(t *testing.T) {
	m := tour.CellMetrics
	vp := tour.Size{Width: 100, Height: 30}
	o := NewOverlay(TestTheme(), m, OverlayOptions{})
	target := tour.Rect{Top: 3, Left: 10, Width: 20, Height: 1}
	v := visibleView(target, vp, m)
	if v.Placement.ArrowSide != tour.SideBottom {
		t.Fatalf("expected tooltip below target, got %s", v.Placement.ArrowSide)
	}

	out := strings.Split(ansi.Strip(o.Render(blankView(100, 30), vp, v, 0)), "\n")
	if len(out) != 30 {
		t.Fatalf("expected 30 rows, got %d", len(out))
	}
	p := v.Placement
	arrowRow := []rune(out[p.Top-1])
	if got := string(arrowRow[p.Left+p.ArrowOffset]); got != "▲" {
		t.Errorf("expected arrow above the box at column %d, got %q in %q", p.Left+p.ArrowOffset, got, out[p.Top-1])
	}
	top := []rune(out[p.Top])
	if string(top[p.Left]) != "╭" || string(top[p.Left+m.TooltipWidth-1]) != "╮" {
		t.Errorf("expected rounded box corners at %d..%d: %q", p.Left, p.Left+m.TooltipWidth-1, out[p.Top])
	}
	if !strings.HasPrefix(out[0], "....") {
		t.Errorf("expected untouched rows outside the box: %q", out[0])
	}
}

func TestOverlay_ArrowCells(t *testing.T) {
	m := tour.CellMetrics
	o := NewOverlay(TestTheme(), m, OverlayOptions{})
	p := tour.Placement{Top: 10, Left: 20, ArrowOffset: 3}
	tests := []struct {
		side     tour.Side
		col, row int
		glyph    string
	}{
		{tour.SideBottom, 23, 9, "▲"},
		{tour.SideTop, 23, 10 + m.TooltipHeight, "▼"},
		{tour.SideRight, 19, 13, "◀"},
		{tour.SideLeft, 20 + m.TooltipWidth, 13, "▶"},
	}
	for _, tt := range tests {
		p.ArrowSide = tt.side
		col, row, glyph := o.arrow(p)
		if col != tt.col || row != tt.row || glyph != tt.glyph {
			t.Errorf("%s: got (%d,%d,%s), want (%d,%d,%s)", tt.side, col, row, glyph, tt.col, tt.row, tt.glyph)
		}
	}
}

func TestOverlay_HiddenViewLeavesBase(t *testing.T) {
	o := NewOverlay(TestTheme(), tour.CellMetrics, OverlayOptions{Backdrop: true})
	base := blankView(60, 20)
	for name, v := range map[string]tour.View{
		"scrolling": {Progress: tour.Progress{Phase: tour.PhaseScrolling}},
		"missing":   {TargetMissing: true, Progress: tour.Progress{Phase: tour.PhaseShowingTip}},
	} {
		if got := o.Render(base, tour.Size{Width: 60, Height: 20}, v, 0); got != base {
			t.Errorf("%s: expected base unchanged", name)
		}
	}
}

func TestOverlay_BackdropKeepsTargetText(t *testing.T) {
	m := tour.CellMetrics
	vp := tour.Size{Width: 80, Height: 24}
	o := NewOverlay(TestTheme(), m, OverlayOptions{Backdrop: true})
	lines := strings.Split(blankView(80, 24), "\n")
	lines[2] = "..TARGET" + strings.Repeat(".", 72)
	target := tour.Rect{Top: 2, Left: 2, Width: 6, Height: 1}
	v := visibleView(target, vp, m)

	out := strings.Split(ansi.Strip(o.Render(strings.Join(lines, "\n"), vp, v, 0)), "\n")
	if !strings.HasPrefix(out[2], "..TARGET") {
		t.Errorf("expected target text to survive the backdrop: %q", out[2])
	}
}

func TestOverlay_Prompt(t *testing.T) {
	o := NewOverlay(TestTheme(), tour.CellMetrics, OverlayOptions{Backdrop: true})
	v := tour.View{
		Prompting: true,
		Progress:  tour.Progress{PageKey: "list", PageName: "Issue list", Step: 4, Total: 4, Phase: tour.PhasePromptingMore},
	}
	out := ansi.Strip(o.Render(blankView(80, 24), tour.Size{Width: 80, Height: 24}, v, 3))
	for _, want := range []string{"basics of Issue list", "Show 3 more advanced tips?", "show more"} {
		if !strings.Contains(out, want) {
			t.Errorf("prompt missing %q:\n%s", want, out)
		}
	}
	if len(strings.Split(out, "\n")) != 24 {
		t.Error("prompt changed the number of rows")
	}

	one := ansi.Strip(o.Render(blankView(80, 24), tour.Size{Width: 80, Height: 24}, v, 1))
	if !strings.Contains(one, "Show 1 more advanced tip?") {
		t.Errorf("expected singular wording:\n%s", one)
	}
}

func TestOverlay_LongContentIsElided(t *testing.T) {
	m := tour.CellMetrics
	o := NewOverlay(TestTheme(), m, OverlayOptions{})
	v := visibleView(tour.Rect{Top: 3, Left: 10, Width: 20, Height: 1}, tour.Size{Width: 100, Height: 30}, m)
	v.Tip.ID = "long"
	v.Tip.Content = strings.Repeat("word ", 200)

	box := o.tooltipLines(v)
	if len(box) != m.TooltipHeight {
		t.Fatalf("expected fixed height %d, got %d", m.TooltipHeight, len(box))
	}
	if !strings.Contains(ansi.Strip(strings.Join(box, "\n")), "…") {
		t.Error("expected overflowing content to end in an ellipsis")
	}
	if cached := o.cache["long"]; len(cached) <= m.TooltipHeight {
		t.Errorf("expected full body to be cached, got %d lines", len(cached))
	}
	o.Forget()
	if len(o.cache) != 0 {
		t.Error("expected Forget to clear the cache")
	}
}

func TestOverlay_TooltipRect(t *testing.T) {
	m := tour.CellMetrics
	o := NewOverlay(TestTheme(), m, OverlayOptions{})
	v := tour.View{Visible: true, Placement: tour.Placement{Top: 5, Left: 7}}
	r, ok := o.TooltipRect(v)
	if !ok || r != (tour.Rect{Top: 5, Left: 7, Width: m.TooltipWidth, Height: m.TooltipHeight}) {
		t.Errorf("unexpected tooltip rect %v %v", r, ok)
	}
	if _, ok := o.TooltipRect(tour.View{}); ok {
		t.Error("expected no rect for hidden view")
	}
}
