package tour

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vanderheijden86/guidepost/pkg/debug"
	"github.com/vanderheijden86/guidepost/pkg/metrics"
)

// Phase is the state of a tour run.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseScrolling
	PhaseShowingTip
	PhasePromptingMore
	PhaseCompleted
	PhaseSkipped
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseScrolling:
		return "scrolling"
	case PhaseShowingTip:
		return "showing-tip"
	case PhasePromptingMore:
		return "prompting-more"
	case PhaseCompleted:
		return "completed"
	case PhaseSkipped:
		return "skipped"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Terminal reports whether the phase ends the run.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseSkipped
}

// RunState is the mutable state of one tour run. Only the Machine writes it.
type RunState struct {
	RunID        string
	PageKey      string
	StepIndex    int
	AdvancedMode bool
	Phase        Phase
}

// Progress is the read-only step progress exposed to the host.
type Progress struct {
	PageKey  string
	PageName string
	Step     int // 1-based
	Total    int
	Advanced bool
	Phase    Phase
}

// View is everything the overlay needs to draw the current step.
type View struct {
	Tip       Tip
	Rect      Rect
	Placement Placement
	Progress  Progress
	// Visible is false while scrolling, when the target is missing, and
	// while prompting for more tips.
	Visible bool
	// Prompting is true while the "show more?" question is pending.
	Prompting bool
	// TargetMissing is true when the step's selector matched nothing.
	TargetMissing bool
}

// ErrInvalidTransition is returned when a transition does not apply to
// the current phase.
var ErrInvalidTransition = errors.New("invalid tour transition")

// Deps are the collaborators a Machine needs.
type Deps struct {
	Resolver  TargetResolver
	Viewport  Viewport
	Events    EventSource
	Scheduler Scheduler
	Store     ProgressStore
	Notifier  Notifier
	Metrics   Metrics
	// ScrollSettle overrides DefaultScrollSettle when positive.
	ScrollSettle time.Duration
	// OnChange, if set, is called after every visible state change so the
	// host can redraw.
	OnChange func()
}

// Machine sequences one tour run: primary tips, the optional "show more"
// branch, advanced tips, and the terminal outcome.
type Machine struct {
	deps  Deps
	set   TipSet
	state RunState

	// ctx is the context of the Start call, reused for store writes made
	// by later transitions.
	ctx context.Context

	slot     pendingSlot
	scroller *Scroller
	tracker  *Tracker

	rect          Rect
	hasRect       bool
	placement     Placement
	targetMissing bool

	ended bool
	onEnd func(*Machine)
}

// NewMachine prepares an idle run for set.
func NewMachine(set TipSet, deps Deps) (*Machine, error) {
	if len(set.Primary) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyTour, set.PageKey)
	}
	if deps.Resolver == nil || deps.Viewport == nil || deps.Events == nil || deps.Scheduler == nil {
		return nil, errors.New("tour: resolver, viewport, events and scheduler are required")
	}
	if deps.Metrics == (Metrics{}) {
		deps.Metrics = CellMetrics
	}
	m := &Machine{
		deps:  deps,
		set:   set,
		state: RunState{PageKey: set.PageKey, Phase: PhaseIdle},
		ctx:   context.Background(),
	}
	m.slot.sched = deps.Scheduler
	m.scroller = newScroller(deps.Viewport, deps.Metrics.Margin, deps.ScrollSettle, &m.slot)
	return m, nil
}

// Start resets persisted progress for the page and shows the first tip.
// A reset failure is logged and does not stop the tour.
func (m *Machine) Start(ctx context.Context) error {
	if m.state.Phase != PhaseIdle || m.ended {
		return ErrInvalidTransition
	}
	if ctx != nil {
		m.ctx = ctx
	}
	m.state.RunID = uuid.NewString()
	if m.deps.Store != nil {
		if err := m.deps.Store.ResetProgress(m.ctx, m.set.PageKey); err != nil {
			debug.Log("tour %s: reset progress for %s failed: %v", m.state.RunID, m.set.PageKey, err)
		}
	}
	metrics.ToursStarted.Inc()
	debug.Log("tour %s: start %s (%d primary, %d advanced)", m.state.RunID, m.set.PageKey, len(m.set.Primary), len(m.set.Advanced))
	m.enterStep(0)
	return nil
}

// State returns a copy of the run state.
func (m *Machine) State() RunState { return m.state }

// TipSet returns the tip set the run was started with.
func (m *Machine) TipSet() TipSet { return m.set }

// Ended reports whether the run reached a terminal outcome or was abandoned.
func (m *Machine) Ended() bool { return m.ended }

func (m *Machine) steps() []Tip {
	return m.set.Steps(m.state.AdvancedMode)
}

// CurrentTip returns the tip at the current step.
func (m *Machine) CurrentTip() (Tip, bool) {
	steps := m.steps()
	if m.ended || m.state.StepIndex < 0 || m.state.StepIndex >= len(steps) {
		return Tip{}, false
	}
	return steps[m.state.StepIndex], true
}

// Progress returns step progress for "tour in progress" affordances.
func (m *Machine) Progress() Progress {
	total := len(m.set.Primary)
	if m.state.AdvancedMode {
		total += len(m.set.Advanced)
	}
	return Progress{
		PageKey:  m.set.PageKey,
		PageName: m.set.PageName,
		Step:     m.state.StepIndex + 1,
		Total:    total,
		Advanced: m.state.AdvancedMode,
		Phase:    m.state.Phase,
	}
}

// View returns the drawable snapshot of the current step.
func (m *Machine) View() View {
	v := View{Progress: m.Progress(), TargetMissing: m.targetMissing}
	tip, ok := m.CurrentTip()
	if !ok {
		return v
	}
	v.Tip = tip
	v.Prompting = m.state.Phase == PhasePromptingMore
	if m.state.Phase == PhaseShowingTip && m.hasRect {
		v.Rect = m.rect
		v.Placement = m.placement
		v.Visible = true
	}
	return v
}

// Next advances one step. At the last primary tip of a set with advanced
// tips it asks whether to show more; at the last tip of the active list it
// completes the tour. While the current tip's target is missing, Next is
// refused and Skip is the only way forward.
func (m *Machine) Next() error {
	if !m.showing() || m.targetMissing {
		return ErrInvalidTransition
	}
	lastPrimary := len(m.set.Primary) - 1
	if !m.state.AdvancedMode && m.state.StepIndex == lastPrimary && m.set.HasAdvanced() {
		m.leaveStep()
		m.state.Phase = PhasePromptingMore
		debug.Log("tour %s: prompting for advanced tips", m.state.RunID)
		m.changed()
		return nil
	}
	if m.state.StepIndex >= len(m.steps())-1 {
		m.finish(PhaseCompleted, len(m.steps()))
		return nil
	}
	m.enterStep(m.state.StepIndex + 1)
	return nil
}

// Prev goes back one step. It is a no-op on the first tip. From the
// "show more?" prompt it returns to the last primary tip.
func (m *Machine) Prev() error {
	switch {
	case m.state.Phase == PhasePromptingMore:
		m.enterStep(len(m.set.Primary) - 1)
		return nil
	case !m.showing():
		return ErrInvalidTransition
	case m.state.StepIndex == 0:
		return nil
	}
	m.enterStep(m.state.StepIndex - 1)
	return nil
}

// AcceptMore switches to advanced mode and shows the first advanced tip.
func (m *Machine) AcceptMore() error {
	if m.state.Phase != PhasePromptingMore {
		return ErrInvalidTransition
	}
	m.state.AdvancedMode = true
	m.enterStep(len(m.set.Primary))
	return nil
}

// DeclineMore completes the tour after the primary tips.
func (m *Machine) DeclineMore() error {
	if m.state.Phase != PhasePromptingMore {
		return ErrInvalidTransition
	}
	m.finish(PhaseCompleted, len(m.set.Primary))
	return nil
}

// Skip ends the tour from any live phase and records StepIndex+1 steps.
func (m *Machine) Skip() error {
	if m.ended || m.state.Phase == PhaseIdle {
		return ErrInvalidTransition
	}
	m.finish(PhaseSkipped, m.state.StepIndex+1)
	return nil
}

// Dismiss is a backdrop click. It behaves like Skip.
func (m *Machine) Dismiss() error {
	return m.Skip()
}

// Abandon ends the run silently: timers and observers are released but no
// outcome is recorded.
func (m *Machine) Abandon() {
	if m.ended {
		return
	}
	m.leaveStep()
	m.ended = true
	metrics.ToursAbandoned.Inc()
	debug.Log("tour %s: abandoned %s at step %d", m.state.RunID, m.set.PageKey, m.state.StepIndex)
	m.state.Phase = PhaseIdle
	m.end()
}

func (m *Machine) showing() bool {
	return !m.ended && (m.state.Phase == PhaseShowingTip || m.state.Phase == PhaseScrolling)
}

// enterStep releases the previous step's resources and acquires them for
// step i: resolve, settle into view, solve, track.
func (m *Machine) enterStep(i int) {
	m.leaveStep()
	m.state.StepIndex = i
	m.state.Phase = PhaseShowingTip

	tip := m.steps()[i]
	el, ok := m.deps.Resolver.Resolve(tip.Target)
	if !ok {
		m.missing(tip)
		return
	}

	r, st := m.scroller.Settle(el, func(r Rect, ok bool) {
		m.state.Phase = PhaseShowingTip
		if !ok {
			m.missing(tip)
			return
		}
		m.attach(el, tip, r)
	})
	switch st {
	case Settled:
		m.attach(el, tip, r)
	case Settling:
		m.state.Phase = PhaseScrolling
		m.changed()
	case Vanished:
		m.missing(tip)
	}
}

func (m *Machine) missing(tip Tip) {
	m.targetMissing = true
	metrics.TargetsNotFound.Inc()
	debug.Log("tour %s: target %q for tip %s not found, overlay suppressed", m.state.RunID, tip.Target, tip.ID)
	m.changed()
}

func (m *Machine) attach(el Element, tip Tip, r Rect) {
	m.rect = r
	m.hasRect = true
	m.placement = Solve(r, m.deps.Viewport.Size(), m.deps.Metrics, tip.PreferredSide)
	m.tracker = Track(m.deps.Events, el, m.deps.Viewport, m.deps.Metrics, tip.PreferredSide, m.onTrack)
	m.changed()
}

func (m *Machine) onTrack(r Rect, p Placement, ok bool) {
	if !ok {
		m.hasRect = false
		m.targetMissing = true
	} else {
		m.rect = r
		m.placement = p
		m.hasRect = true
		m.targetMissing = false
	}
	m.changed()
}

func (m *Machine) leaveStep() {
	m.slot.cancel()
	m.tracker.Dispose()
	m.tracker = nil
	m.hasRect = false
	m.rect = Rect{}
	m.placement = Placement{}
	m.targetMissing = false
}

func (m *Machine) finish(phase Phase, stepsViewed int) {
	m.leaveStep()
	m.state.Phase = phase
	m.ended = true

	outcome := OutcomeSkipped
	if phase == PhaseCompleted {
		outcome = OutcomeCompleted
	}
	debug.Log("tour %s: %s %s after %d steps", m.state.RunID, outcome, m.set.PageKey, stepsViewed)

	if m.deps.Store != nil {
		start := time.Now()
		if err := m.deps.Store.RecordOutcome(WithRunID(m.ctx, m.state.RunID), m.set.PageKey, stepsViewed, outcome); err != nil {
			debug.Log("tour %s: record outcome failed: %v", m.state.RunID, err)
		}
		metrics.StoreWrite.Record(time.Since(start))
	}
	if phase == PhaseCompleted && m.deps.Notifier != nil {
		m.deps.Notifier.TourCompleted(m.set.PageKey, m.set.PageName)
	}
	m.end()
}

func (m *Machine) end() {
	m.changed()
	if m.onEnd != nil {
		m.onEnd(m)
	}
}

func (m *Machine) changed() {
	if m.deps.OnChange != nil {
		m.deps.OnChange()
	}
}

// Tracking reports whether a position tracker is attached.
func (m *Machine) Tracking() bool {
	return m.tracker != nil && !m.tracker.Disposed()
}

// SettlePending reports whether a scroll-settle task is outstanding.
func (m *Machine) SettlePending() bool {
	return m.slot.pending()
}
