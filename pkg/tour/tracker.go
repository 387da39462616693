package tour

import (
	"github.com/vanderheijden86/guidepost/pkg/metrics"
)

// UpdateFunc receives a fresh measurement. ok is false when the element
// is no longer laid out; r and p are zero in that case.
type UpdateFunc func(r Rect, p Placement, ok bool)

// Tracker keeps a placement live while a step is shown. It is acquired on
// step enter and must be released with Dispose on step exit.
type Tracker struct {
	el       Element
	viewport Viewport
	metrics  Metrics
	pref     Side
	onUpdate UpdateFunc

	unsubs   []func()
	disposed bool
}

// Track subscribes to element-resize, scroll and window-resize events for
// el and calls onUpdate with a recomputed placement on each of them.
func Track(src EventSource, el Element, vp Viewport, m Metrics, pref Side, onUpdate UpdateFunc) *Tracker {
	t := &Tracker{el: el, viewport: vp, metrics: m, pref: pref, onUpdate: onUpdate}
	t.unsubs = []func(){
		src.Subscribe(EventElementResize, el.ID(), t.Recompute),
		src.Subscribe(EventScroll, "", t.Recompute),
		src.Subscribe(EventWindowResize, "", t.Recompute),
	}
	return t
}

// Recompute re-reads the element rect and re-solves the placement.
func (t *Tracker) Recompute() {
	if t.disposed {
		return
	}
	defer metrics.Timer(metrics.TrackerRecompute)()

	r, ok := t.el.Rect()
	if !ok {
		t.onUpdate(Rect{}, Placement{}, false)
		return
	}
	t.onUpdate(r, Solve(r, t.viewport.Size(), t.metrics, t.pref), true)
}

// Dispose detaches every subscription. It is safe to call more than once.
func (t *Tracker) Dispose() {
	if t == nil || t.disposed {
		return
	}
	t.disposed = true
	for _, unsub := range t.unsubs {
		unsub()
	}
	t.unsubs = nil
}

// Disposed reports whether Dispose has been called.
func (t *Tracker) Disposed() bool {
	return t == nil || t.disposed
}

