package tour

import (
	"time"

	"github.com/vanderheijden86/guidepost/pkg/debug"
	"github.com/vanderheijden86/guidepost/pkg/metrics"
)

// DefaultScrollSettle is how long the scroller waits for a smooth scroll
// to finish before re-measuring. There is no uniform scroll-end event, so
// this is a timing assumption rather than a guarantee.
const DefaultScrollSettle = 400 * time.Millisecond

// Viewport is the host's scrollable view.
type Viewport interface {
	// Size returns the visible viewport extent.
	Size() Size
	// ScrollIntoView asks the host to bring el to the center of the
	// viewport on both axes. It may animate.
	ScrollIntoView(el Element)
}

// InView reports whether r lies inside the viewport shrunk by margin on
// every edge.
func InView(r Rect, vp Size, margin int) bool {
	safe := Rect{Width: vp.Width, Height: vp.Height}.Inset(margin)
	if safe.Width <= 0 || safe.Height <= 0 {
		return false
	}
	return safe.Contains(r)
}

// Scroller settles an element into view before it is measured for
// placement.
type Scroller struct {
	viewport Viewport
	margin   int
	settle   time.Duration
	slot     *pendingSlot
}

func newScroller(vp Viewport, margin int, settle time.Duration, slot *pendingSlot) *Scroller {
	if settle <= 0 {
		settle = DefaultScrollSettle
	}
	return &Scroller{viewport: vp, margin: margin, settle: settle, slot: slot}
}

// SettleState is the immediate outcome of Scroller.Settle.
type SettleState int

const (
	// Settled means the element is visible and its rect is final.
	Settled SettleState = iota
	// Settling means a scroll was requested and done will be called.
	Settling
	// Vanished means the element has no rect.
	Vanished
)

// Settle checks el's visibility. If it is already comfortably visible it
// returns its rect and Settled. Otherwise it requests a scroll, schedules
// done for after the settle delay and returns Settling. done receives the
// re-read rect, or ok=false if the element vanished while scrolling.
func (s *Scroller) Settle(el Element, done func(r Rect, ok bool)) (Rect, SettleState) {
	r, ok := el.Rect()
	if !ok {
		return Rect{}, Vanished
	}
	if InView(r, s.viewport.Size(), s.margin) {
		return r, Settled
	}

	debug.Log("scroll: %s at %s outside safe area, scrolling", el.ID(), r)
	s.viewport.ScrollIntoView(el)
	start := time.Now()
	s.slot.schedule("scroll-settle", s.settle, func() {
		metrics.SettleWait.Record(time.Since(start))
		r, ok := el.Rect()
		done(r, ok)
	})
	return Rect{}, Settling
}
