package tour

import (
	"time"

	"github.com/vanderheijden86/guidepost/pkg/metrics"
)

// Placement is where to draw a tooltip for a target. It is derived on
// every layout-relevant event and never stored.
type Placement struct {
	Top       int
	Left      int
	ArrowSide Side
	// ArrowOffset is the arrow position along the tooltip edge that faces
	// the target, measured from the tooltip's own origin.
	ArrowOffset int
}

// Solve computes the tooltip position for target r inside a viewport of
// size vp. It is deterministic and total: it always returns a placement,
// clamping into the viewport even when no side has enough room.
//
// Fallback rules are checked once each, in the order bottom, top, right,
// left. There is no second pass, so a hop to the right may land on a side
// that is also too narrow; the clamp keeps that case on screen.
func Solve(r Rect, vp Size, m Metrics, pref Side) Placement {
	start := time.Now()
	defer func() { metrics.PlacementSolve.Record(time.Since(start)) }()

	above := r.Top
	below := vp.Height - r.Bottom()
	left := r.Left
	right := vp.Width - r.Right()

	side := pref
	if side == "" {
		side = SideBottom
	}

	vNeed := m.TooltipHeight + m.ArrowSize + m.Padding
	hNeed := m.TooltipWidth + m.ArrowSize + m.Padding

	if side == SideBottom && below < vNeed {
		if above > below {
			side = SideTop
		} else {
			side = SideRight
		}
	}
	if side == SideTop && above < vNeed {
		if below > above {
			side = SideBottom
		} else {
			side = SideRight
		}
	}
	if side == SideRight && right < hNeed {
		if left > right {
			side = SideLeft
		} else {
			side = SideBottom
		}
	}
	if side == SideLeft && left < hNeed {
		if right > left {
			side = SideRight
		} else {
			side = SideBottom
		}
	}

	offset := m.ArrowSize + m.Gap
	var p Placement
	p.ArrowSide = side
	switch side {
	case SideTop:
		p.Top = r.Top - m.TooltipHeight - offset
		p.Left = clamp(r.CenterX()-m.TooltipWidth/2, m.Padding, vp.Width-m.TooltipWidth-m.Padding)
	case SideBottom:
		p.Top = r.Bottom() + offset
		p.Left = clamp(r.CenterX()-m.TooltipWidth/2, m.Padding, vp.Width-m.TooltipWidth-m.Padding)
	case SideLeft:
		p.Left = r.Left - m.TooltipWidth - offset
		p.Top = clamp(r.CenterY()-m.TooltipHeight/2, m.Padding, vp.Height-m.TooltipHeight-m.Padding)
	case SideRight:
		p.Left = r.Right() + offset
		p.Top = clamp(r.CenterY()-m.TooltipHeight/2, m.Padding, vp.Height-m.TooltipHeight-m.Padding)
	}
	p.ArrowOffset = ArrowOffset(r, p, m)
	return p
}

// ArrowOffset positions the arrow glyph inside the tooltip so that it
// points at the target's center along the cross axis. The result is
// clamped to [ArrowMinInset, crossDim-ArrowMaxInset].
func ArrowOffset(r Rect, p Placement, m Metrics) int {
	if p.ArrowSide.Vertical() {
		return clamp(r.CenterX()-p.Left-m.ArrowSize/2, m.ArrowMinInset, m.TooltipWidth-m.ArrowMaxInset)
	}
	return clamp(r.CenterY()-p.Top-m.ArrowSize/2, m.ArrowMinInset, m.TooltipHeight-m.ArrowMaxInset)
}

// clamp bounds v to [lo, hi]. When the range is empty lo wins, which keeps
// the tooltip's leading edge on screen in tiny viewports.
func clamp(v, lo, hi int) int {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
