package tour_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vanderheijden86/guidepost/pkg/testutil"
	"github.com/vanderheijden86/guidepost/pkg/tour"
)

type sessionHarness struct {
	*harness
	session *tour.SessionState
	ctrl    *tour.Controller
}

func newSession(t *testing.T, autoStart bool) *sessionHarness {
	t.Helper()
	list := testutil.GenerateTipSet("list", 3, 2)
	board := testutil.GenerateTipSet("board", 2, 0)
	h := newHarness(t, list, board)
	session := tour.NewSessionState()
	ctrl := tour.NewController(context.Background(), session, testutil.NewMapCatalog(list, board), h.deps,
		tour.ControllerConfig{AutoStart: autoStart})
	t.Cleanup(ctrl.Close)
	return &sessionHarness{harness: h, session: session, ctrl: ctrl}
}

func TestController_AutoStartAfterDelay(t *testing.T) {
	s := newSession(t, true)
	s.ctrl.Navigate("/list")

	if !s.ctrl.AutoStartPending() {
		t.Fatal("expected auto-start to be scheduled")
	}
	s.sched.Advance(tour.DefaultAutoStartDelay - time.Millisecond)
	if s.ctrl.IsTourActive() {
		t.Fatal("tour started before the delay elapsed")
	}

	s.sched.Advance(time.Millisecond)
	if !s.ctrl.IsTourActive() || s.ctrl.ActivePageKey() != "list" {
		t.Fatalf("expected list tour active, got %q", s.ctrl.ActivePageKey())
	}
	if !s.session.Triggered("list") {
		t.Error("expected list to be marked as triggered")
	}
	v, ok := s.ctrl.View()
	if !ok || !v.Visible || v.Tip.ID != "list-p0" {
		t.Errorf("expected first tip visible, got %+v", v)
	}
}

func TestController_NavigateAwayCancelsAutoStart(t *testing.T) {
	s := newSession(t, true)
	s.ctrl.Navigate("/list")
	s.sched.Advance(500 * time.Millisecond)
	s.ctrl.Navigate("/settings")

	if s.ctrl.AutoStartPending() {
		t.Fatal("expected pending auto-start to be cancelled")
	}
	s.sched.Advance(2 * time.Second)
	if s.ctrl.IsTourActive() {
		t.Errorf("expected no tour after navigating away, got %s", s.ctrl.ActivePageKey())
	}
	if s.session.Triggered("list") {
		t.Error("a cancelled auto-start must not mark the page as triggered")
	}
}

func TestController_RapidNavigationStartsOnlyLastPage(t *testing.T) {
	s := newSession(t, true)
	s.ctrl.Navigate("/list")
	s.sched.Advance(300 * time.Millisecond)
	s.ctrl.Navigate("/board")
	s.sched.Advance(tour.DefaultAutoStartDelay)

	if s.ctrl.ActivePageKey() != "board" {
		t.Fatalf("expected board tour, got %q", s.ctrl.ActivePageKey())
	}
	if s.sched.Pending() != 0 {
		t.Errorf("expected no leftover timers, got %d", s.sched.Pending())
	}
}

func TestController_AutoStartsOncePerSession(t *testing.T) {
	s := newSession(t, true)
	s.store.Sticky = false

	s.ctrl.Navigate("/list")
	s.sched.Advance(tour.DefaultAutoStartDelay)
	if err := s.ctrl.Skip(); err != nil {
		t.Fatalf("Skip: %v", err)
	}

	s.ctrl.Navigate("/settings")
	s.ctrl.Navigate("/list")
	if s.ctrl.AutoStartPending() {
		t.Error("expected no second auto-start in the same session")
	}
}

func TestController_NoAutoStartWhenCompleted(t *testing.T) {
	s := newSession(t, true)
	s.store.Completed["list"] = true

	s.ctrl.Navigate("/list")
	if s.ctrl.AutoStartPending() {
		t.Error("expected completed page not to auto-start")
	}
	if len(s.store.Checks) != 1 {
		t.Errorf("expected one completion check, got %v", s.store.Checks)
	}
}

func TestController_NoAutoStartWhenCheckFails(t *testing.T) {
	s := newSession(t, true)
	s.store.Err = errors.New("database locked")

	s.ctrl.Navigate("/list")
	if s.ctrl.AutoStartPending() {
		t.Error("expected a failed completion check to suppress auto-start")
	}
}

func TestController_AutoStartDisabled(t *testing.T) {
	s := newSession(t, false)
	s.ctrl.Navigate("/list")
	if s.ctrl.AutoStartPending() {
		t.Error("expected nothing scheduled with auto-start disabled")
	}
	if s.ctrl.CurrentPageKey() != "list" {
		t.Errorf("expected current page list, got %q", s.ctrl.CurrentPageKey())
	}
}

func TestController_SetAutoStartOffCancelsPending(t *testing.T) {
	s := newSession(t, true)
	s.ctrl.Navigate("/list")
	s.ctrl.SetAutoStart(false)
	if s.ctrl.AutoStartPending() || s.ctrl.AutoStart() {
		t.Fatal("expected pending auto-start to be cancelled")
	}
	s.sched.Advance(2 * tour.DefaultAutoStartDelay)
	if s.ctrl.IsTourActive() {
		t.Error("expected no tour after turning auto-start off")
	}

	s.ctrl.SetAutoStart(true)
	s.ctrl.Navigate("/board")
	if !s.ctrl.AutoStartPending() {
		t.Error("expected auto-start to be scheduled again once re-enabled")
	}
}

func TestController_RouteChangeAbandonsSilently(t *testing.T) {
	s := newSession(t, false)
	s.ctrl.Navigate("/list")
	if err := s.ctrl.StartTour(""); err != nil {
		t.Fatalf("StartTour: %v", err)
	}
	_ = s.ctrl.Next()
	m := s.ctrl.Active()

	s.ctrl.Navigate("/board")
	if s.ctrl.IsTourActive() {
		t.Fatal("expected tour to end on route change")
	}
	if !m.Ended() {
		t.Error("expected old machine to be ended")
	}
	if len(s.store.Outcomes) != 0 {
		t.Errorf("expected no outcome for abandonment, got %v", s.store.Outcomes)
	}
	if n := s.vp.Bus.Subscribers(); n != 0 {
		t.Errorf("expected observers released, %d left", n)
	}
}

func TestController_SamePageNavigationKeepsTour(t *testing.T) {
	s := newSession(t, false)
	s.ctrl.Navigate("/list")
	_ = s.ctrl.StartTour("list")

	s.ctrl.Navigate("list")
	if s.ctrl.ActivePageKey() != "list" {
		t.Errorf("expected list tour to survive, got %q", s.ctrl.ActivePageKey())
	}
}

func TestController_SingleFlight(t *testing.T) {
	s := newSession(t, false)
	s.ctrl.Navigate("/list")
	_ = s.ctrl.StartTour("list")
	first := s.ctrl.Active()

	if err := s.ctrl.StartTour("board"); err != nil {
		t.Fatalf("StartTour(board): %v", err)
	}
	if !first.Ended() {
		t.Error("expected the first run to be abandoned")
	}
	if s.ctrl.ActivePageKey() != "board" {
		t.Errorf("expected board active, got %q", s.ctrl.ActivePageKey())
	}
	if n := s.vp.Bus.Subscribers(); n != 3 {
		t.Errorf("expected exactly one tracker (3 subscriptions), got %d", n)
	}
	if len(s.store.Outcomes) != 0 {
		t.Errorf("expected replacement not to record an outcome, got %v", s.store.Outcomes)
	}
}

func TestController_StartTourErrors(t *testing.T) {
	s := newSession(t, false)
	if err := s.ctrl.StartTour(""); !errors.Is(err, tour.ErrUnknownPage) {
		t.Errorf("expected ErrUnknownPage without a current page, got %v", err)
	}
	if err := s.ctrl.StartTour("reports"); !errors.Is(err, tour.ErrUnknownPage) {
		t.Errorf("expected ErrUnknownPage for unknown key, got %v", err)
	}
	for name, fn := range map[string]func() error{
		"next": s.ctrl.Next, "prev": s.ctrl.Prev, "skip": s.ctrl.Skip,
		"dismiss": s.ctrl.Dismiss, "accept": s.ctrl.AcceptMore, "decline": s.ctrl.DeclineMore,
	} {
		if err := fn(); !errors.Is(err, tour.ErrNoActiveTour) {
			t.Errorf("%s: expected ErrNoActiveTour, got %v", name, err)
		}
	}
}

func TestController_ManualStartResetsProgress(t *testing.T) {
	s := newSession(t, true)
	s.store.Completed["list"] = true
	s.ctrl.Navigate("/list")

	if err := s.ctrl.StartTour(""); err != nil {
		t.Fatalf("StartTour: %v", err)
	}
	if len(s.store.Resets) != 1 || s.store.Resets[0] != "list" {
		t.Errorf("expected reset for list, got %v", s.store.Resets)
	}
	if s.store.Completed["list"] {
		t.Error("expected completion flag cleared by the reset")
	}
}

func TestController_CompletionReleasesSession(t *testing.T) {
	s := newSession(t, false)
	s.ctrl.Navigate("/board")
	_ = s.ctrl.StartTour("")
	_ = s.ctrl.Next()
	_ = s.ctrl.Next()

	if s.ctrl.IsTourActive() {
		t.Fatal("expected session to be free after completion")
	}
	if got, _ := s.store.LastOutcome(); got.PageKey != "board" || got.StepsViewed != 2 || got.Outcome != tour.OutcomeCompleted {
		t.Errorf("expected board completed with 2 steps, got %+v", got)
	}
	if len(s.notes.Completed) != 1 || s.notes.Completed[0] != "board" {
		t.Errorf("expected board completion notice, got %v", s.notes.Completed)
	}
}

func TestController_CloseCancelsEverything(t *testing.T) {
	s := newSession(t, true)
	s.ctrl.Navigate("/list")
	s.ctrl.Close()
	s.sched.Advance(2 * time.Second)
	if s.ctrl.IsTourActive() {
		t.Error("expected no tour after Close")
	}

	_ = s.ctrl.StartTour("list")
	s.ctrl.Close()
	if s.ctrl.IsTourActive() || s.vp.Bus.Subscribers() != 0 {
		t.Error("expected Close to abandon the running tour")
	}
}
