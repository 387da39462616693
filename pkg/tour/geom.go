package tour

import (
	"fmt"
	"strings"
)

// Side is the edge of a target a tooltip is placed against.
// The arrow glyph is drawn on the tooltip edge facing the target.
type Side string

const (
	SideTop    Side = "top"
	SideBottom Side = "bottom"
	SideLeft   Side = "left"
	SideRight  Side = "right"
)

// ParseSide converts a catalog string into a Side. Empty input yields
// SideBottom, the default preferred side.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "bottom":
		return SideBottom, nil
	case "top":
		return SideTop, nil
	case "left":
		return SideLeft, nil
	case "right":
		return SideRight, nil
	}
	return "", fmt.Errorf("unknown side %q", s)
}

// Vertical reports whether the tooltip sits above or below the target.
func (s Side) Vertical() bool {
	return s == SideTop || s == SideBottom
}

// Rect is an axis-aligned bounding box in viewport coordinates.
type Rect struct {
	Top    int
	Left   int
	Width  int
	Height int
}

// Bottom returns the exclusive bottom edge.
func (r Rect) Bottom() int { return r.Top + r.Height }

// Right returns the exclusive right edge.
func (r Rect) Right() int { return r.Left + r.Width }

// CenterX returns the horizontal center, rounded down.
func (r Rect) CenterX() int { return r.Left + r.Width/2 }

// CenterY returns the vertical center, rounded down.
func (r Rect) CenterY() int { return r.Top + r.Height/2 }

// Offset returns r translated by (dy, dx).
func (r Rect) Offset(dy, dx int) Rect {
	r.Top += dy
	r.Left += dx
	return r
}

// Inset shrinks r by m on every edge. The result may have a negative size.
func (r Rect) Inset(m int) Rect {
	return Rect{Top: r.Top + m, Left: r.Left + m, Width: r.Width - 2*m, Height: r.Height - 2*m}
}

// Contains reports whether o lies entirely inside r.
func (r Rect) Contains(o Rect) bool {
	return o.Top >= r.Top && o.Left >= r.Left && o.Bottom() <= r.Bottom() && o.Right() <= r.Right()
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", r.Left, r.Top, r.Width, r.Height)
}

// Size is a viewport or box extent.
type Size struct {
	Width  int
	Height int
}

// Metrics holds the geometric constants used by the solver and scroller.
// The unit is whatever the host measures in: pixels or terminal cells.
type Metrics struct {
	TooltipWidth  int
	TooltipHeight int
	ArrowSize     int
	Padding       int
	// Gap is the extra main-axis distance between arrow tip and target.
	Gap int
	// Margin is the visibility inset used by the scroller.
	Margin int
	// ArrowMinInset and ArrowMaxInset bound the arrow offset inside the
	// tooltip so it never runs past rounded corners.
	ArrowMinInset int
	ArrowMaxInset int
}

// PixelMetrics are the constants a browser-sized host would use.
var PixelMetrics = Metrics{
	TooltipWidth:  340,
	TooltipHeight: 200,
	ArrowSize:     12,
	Padding:       16,
	Gap:           8,
	Margin:        100,
	ArrowMinInset: 20,
	ArrowMaxInset: 40,
}

// CellMetrics are the constants the terminal host uses.
var CellMetrics = Metrics{
	TooltipWidth:  44,
	TooltipHeight: 9,
	ArrowSize:     1,
	Padding:       1,
	Gap:           0,
	Margin:        2,
	ArrowMinInset: 2,
	ArrowMaxInset: 3,
}

// Tooltip returns the tooltip box size.
func (m Metrics) Tooltip() Size {
	return Size{Width: m.TooltipWidth, Height: m.TooltipHeight}
}
