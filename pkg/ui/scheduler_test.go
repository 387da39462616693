package ui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func recvTask(t *testing.T, ch <-chan tea.Msg) TaskFiredMsg {
	t.Helper()
	select {
	case msg := <-ch:
		fired, ok := msg.(TaskFiredMsg)
		if !ok {
			t.Fatalf("expected TaskFiredMsg, got %T", msg)
		}
		return fired
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for task")
	}
	return TaskFiredMsg{}
}

func TestProgramScheduler_RunsInUpdate(t *testing.T) {
	ch := make(chan tea.Msg, 4)
	s := NewProgramScheduler(func(m tea.Msg) { ch <- m })
	defer s.Stop()

	ran := 0
	task := s.Schedule(5*time.Millisecond, func() { ran++ })
	msg := recvTask(t, ch)
	if ran != 0 {
		t.Fatal("task body must not run on the timer goroutine")
	}
	s.Run(msg)
	if ran != 1 {
		t.Fatalf("expected task to run once, ran %d", ran)
	}
	s.Run(msg)
	if ran != 1 {
		t.Error("expected a delivered task to run only once")
	}
	if task.Cancel() {
		t.Error("expected Cancel after running to report not pending")
	}
}

func TestProgramScheduler_CancelBeforeExpiry(t *testing.T) {
	ch := make(chan tea.Msg, 4)
	s := NewProgramScheduler(func(m tea.Msg) { ch <- m })
	defer s.Stop()

	task := s.Schedule(20*time.Millisecond, func() { t.Error("cancelled task ran") })
	if !task.Cancel() {
		t.Fatal("expected Cancel to report pending")
	}
	if task.Cancel() {
		t.Error("expected second Cancel to report not pending")
	}
	if s.Pending() != 0 {
		t.Errorf("expected no pending timers, got %d", s.Pending())
	}
	select {
	case msg := <-ch:
		t.Fatalf("unexpected delivery %T", msg)
	case <-time.After(60 * time.Millisecond):
	}
}

// A timer that already expired has its message in flight; cancelling from
// Update before the message is handled must still win.
func TestProgramScheduler_CancelAfterExpiryWins(t *testing.T) {
	ch := make(chan tea.Msg, 4)
	s := NewProgramScheduler(func(m tea.Msg) { ch <- m })
	defer s.Stop()

	ran := false
	task := s.Schedule(time.Millisecond, func() { ran = true })
	msg := recvTask(t, ch)
	if !task.Cancel() {
		t.Error("expected an undelivered task to count as pending")
	}
	s.Run(msg)
	if ran {
		t.Error("cancelled task ran after its timer expired")
	}
}

func TestProgramScheduler_UnboundDrops(t *testing.T) {
	s := NewProgramScheduler(nil)
	defer s.Stop()
	s.Schedule(time.Millisecond, func() { t.Error("unbound task ran") })
	time.Sleep(20 * time.Millisecond)

	ch := make(chan tea.Msg, 1)
	s.Bind(func(m tea.Msg) { ch <- m })
	s.Schedule(time.Millisecond, func() {})
	recvTask(t, ch)
}

func TestProgramScheduler_StopCancelsTimers(t *testing.T) {
	ch := make(chan tea.Msg, 4)
	s := NewProgramScheduler(func(m tea.Msg) { ch <- m })
	for i := 0; i < 3; i++ {
		s.Schedule(50*time.Millisecond, func() {})
	}
	if s.Pending() != 3 {
		t.Fatalf("expected 3 pending timers, got %d", s.Pending())
	}
	s.Stop()
	if s.Pending() != 0 {
		t.Errorf("expected Stop to clear timers, got %d", s.Pending())
	}
	task := s.Schedule(time.Millisecond, func() { t.Error("task scheduled after Stop ran") })
	if task.Cancel() {
		t.Error("expected task scheduled after Stop to be inert")
	}
	select {
	case msg := <-ch:
		t.Fatalf("unexpected delivery after Stop: %T", msg)
	case <-time.After(80 * time.Millisecond):
	}
}

func TestProgramScheduler_IgnoresForeignTasks(t *testing.T) {
	ch := make(chan tea.Msg, 1)
	a := NewProgramScheduler(func(m tea.Msg) { ch <- m })
	b := NewProgramScheduler(nil)
	defer a.Stop()
	defer b.Stop()

	ran := false
	a.Schedule(time.Millisecond, func() { ran = true })
	msg := recvTask(t, ch)
	b.Run(msg)
	if ran {
		t.Error("expected another scheduler to ignore the task")
	}
	a.Run(msg)
	if !ran {
		t.Error("expected owning scheduler to run the task")
	}
}
