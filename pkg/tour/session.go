package tour

import (
	"context"
	"fmt"
	"time"

	"github.com/vanderheijden86/guidepost/pkg/debug"
)

// DefaultAutoStartDelay lets a destination screen finish its first render
// before an automatic tour measures anything on it.
const DefaultAutoStartDelay = 1000 * time.Millisecond

// SessionState is the process-wide tour state: the single active run and
// the set of page keys that already auto-triggered. Create one at program
// start and hand it to the Controller; it is only reset by a restart.
type SessionState struct {
	active    *Machine
	triggered map[string]bool
}

// NewSessionState returns an empty session.
func NewSessionState() *SessionState {
	return &SessionState{triggered: make(map[string]bool)}
}

// Triggered reports whether pageKey already auto-started a tour.
func (s *SessionState) Triggered(pageKey string) bool {
	return s.triggered[pageKey]
}

// ControllerConfig tunes the Controller.
type ControllerConfig struct {
	// AutoStart enables the first-visit tour.
	AutoStart bool
	// AutoStartDelay overrides DefaultAutoStartDelay when positive.
	AutoStartDelay time.Duration
}

// Controller coordinates tours for the whole program. It is the only
// writer of SessionState and guarantees that at most one run is active.
type Controller struct {
	ctx     context.Context
	session *SessionState
	catalog Catalog
	deps    Deps
	cfg     ControllerConfig

	slot    pendingSlot
	route   string
	pageKey string
}

// NewController wires a controller. deps is used for every Machine it
// starts; deps.Store also drives the first-visit check.
func NewController(ctx context.Context, session *SessionState, catalog Catalog, deps Deps, cfg ControllerConfig) *Controller {
	if ctx == nil {
		ctx = context.Background()
	}
	if session == nil {
		session = NewSessionState()
	}
	if cfg.AutoStartDelay <= 0 {
		cfg.AutoStartDelay = DefaultAutoStartDelay
	}
	c := &Controller{ctx: ctx, session: session, catalog: catalog, deps: deps, cfg: cfg}
	c.slot.sched = deps.Scheduler
	return c
}

// SetCatalog swaps the catalog, e.g. after a hot reload. A running tour
// keeps the tip set it started with.
func (c *Controller) SetCatalog(catalog Catalog) {
	c.catalog = catalog
}

// SetAutoStart turns first-visit tours on or off for later navigations.
// Turning it off cancels a pending auto-start.
func (c *Controller) SetAutoStart(on bool) {
	c.cfg.AutoStart = on
	if !on {
		c.slot.cancel()
	}
}

// AutoStart reports whether first-visit tours are enabled.
func (c *Controller) AutoStart() bool { return c.cfg.AutoStart }

// Navigate tells the controller the host moved to route. Any pending
// auto-start is cancelled; a tour for another page is abandoned without
// recording an outcome; a qualifying first visit schedules an auto-start.
func (c *Controller) Navigate(route string) {
	c.route = route
	key, ok := c.catalog.PageKeyForRoute(route)
	if !ok {
		key = ""
	}
	c.slot.cancel()

	if a := c.session.active; a != nil && a.set.PageKey != key {
		debug.Log("session: route %q left page %s, abandoning tour", route, a.set.PageKey)
		a.Abandon()
	}
	c.pageKey = key

	if key == "" || !c.cfg.AutoStart || c.session.active != nil {
		return
	}
	if c.session.triggered[key] {
		return
	}
	if _, ok := c.catalog.TipSet(key); !ok {
		return
	}
	if c.deps.Store != nil {
		done, err := c.deps.Store.HasCompleted(c.ctx, key)
		if err != nil {
			debug.Log("session: completion check for %s failed, not auto-starting: %v", key, err)
			return
		}
		if done {
			return
		}
	}

	debug.Log("session: scheduling auto-start for %s in %v", key, c.cfg.AutoStartDelay)
	c.slot.schedule("auto-start", c.cfg.AutoStartDelay, func() {
		c.session.triggered[key] = true
		if err := c.StartTour(key); err != nil {
			debug.Log("session: auto-start for %s failed: %v", key, err)
		}
	})
}

// StartTour starts the tour for pageKey, or for the current page when
// pageKey is empty. Any active tour is abandoned first.
func (c *Controller) StartTour(pageKey string) error {
	if pageKey == "" {
		pageKey = c.pageKey
	}
	if pageKey == "" {
		return fmt.Errorf("%w: no current page", ErrUnknownPage)
	}
	set, ok := c.catalog.TipSet(pageKey)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPage, pageKey)
	}

	c.slot.cancel()
	if a := c.session.active; a != nil {
		a.Abandon()
	}

	m, err := NewMachine(set, c.deps)
	if err != nil {
		return err
	}
	m.onEnd = c.release
	c.session.active = m
	return m.Start(c.ctx)
}

func (c *Controller) release(m *Machine) {
	if c.session.active == m {
		c.session.active = nil
	}
}

// Close is the unmount path: it cancels pending work and abandons the
// active tour.
func (c *Controller) Close() {
	c.slot.cancel()
	if a := c.session.active; a != nil {
		a.Abandon()
	}
}

// IsTourActive reports whether a tour is running.
func (c *Controller) IsTourActive() bool {
	return c.session.active != nil
}

// ActivePageKey returns the running tour's page key, or "".
func (c *Controller) ActivePageKey() string {
	if a := c.session.active; a != nil {
		return a.set.PageKey
	}
	return ""
}

// CurrentPageKey returns the page key of the last navigated route.
func (c *Controller) CurrentPageKey() string { return c.pageKey }

// Route returns the last navigated route.
func (c *Controller) Route() string { return c.route }

// AutoStartPending reports whether an auto-start is scheduled.
func (c *Controller) AutoStartPending() bool { return c.slot.pending() }

// Progress returns the running tour's progress.
func (c *Controller) Progress() (Progress, bool) {
	if a := c.session.active; a != nil {
		return a.Progress(), true
	}
	return Progress{}, false
}

// View returns the running tour's drawable snapshot.
func (c *Controller) View() (View, bool) {
	if a := c.session.active; a != nil {
		return a.View(), true
	}
	return View{}, false
}

// Active returns the running machine, or nil.
func (c *Controller) Active() *Machine { return c.session.active }

func (c *Controller) forward(fn func(*Machine) error) error {
	a := c.session.active
	if a == nil {
		return ErrNoActiveTour
	}
	return fn(a)
}

// Next forwards to the active tour.
func (c *Controller) Next() error { return c.forward((*Machine).Next) }

// Prev forwards to the active tour.
func (c *Controller) Prev() error { return c.forward((*Machine).Prev) }

// Skip forwards to the active tour.
func (c *Controller) Skip() error { return c.forward((*Machine).Skip) }

// Dismiss forwards a backdrop click to the active tour.
func (c *Controller) Dismiss() error { return c.forward((*Machine).Dismiss) }

// AcceptMore forwards to the active tour.
func (c *Controller) AcceptMore() error { return c.forward((*Machine).AcceptMore) }

// DeclineMore forwards to the active tour.
func (c *Controller) DeclineMore() error { return c.forward((*Machine).DeclineMore) }
