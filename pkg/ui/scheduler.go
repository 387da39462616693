package ui

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/guidepost/pkg/debug"
	"github.com/vanderheijden86/guidepost/pkg/tour"
)

// TaskFiredMsg is posted into the program when a scheduled task's timer
// expires. The host must pass it to ProgramScheduler.Run from Update.
type TaskFiredMsg struct {
	task *programTask
}

// ProgramScheduler is a tour.Scheduler for bubbletea programs. Timers run
// on their own goroutines, but task bodies only ever run inside Update, so
// a Cancel issued from Update always wins against a timer that already
// expired.
type ProgramScheduler struct {
	mu      sync.Mutex
	send    func(tea.Msg)
	pending map[*programTask]struct{}
	stopped bool
}

type programTask struct {
	s     *ProgramScheduler
	timer *time.Timer
	fn    func()

	// Only touched from Update.
	cancelled bool
	fired     bool
}

// NewProgramScheduler returns a scheduler that delivers TaskFiredMsg via
// send. send may be nil and bound later with Bind, typically to
// (*tea.Program).Send.
func NewProgramScheduler(send func(tea.Msg)) *ProgramScheduler {
	return &ProgramScheduler{send: send, pending: make(map[*programTask]struct{})}
}

// Bind sets the message sink.
func (s *ProgramScheduler) Bind(send func(tea.Msg)) {
	s.mu.Lock()
	s.send = send
	s.mu.Unlock()
}

// Schedule implements tour.Scheduler.
func (s *ProgramScheduler) Schedule(d time.Duration, fn func()) tour.Task {
	t := &programTask{s: s, fn: fn}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		t.cancelled = true
		return t
	}
	s.pending[t] = struct{}{}
	t.timer = time.AfterFunc(d, func() { s.deliver(t) })
	return t
}

func (s *ProgramScheduler) deliver(t *programTask) {
	s.mu.Lock()
	if _, ok := s.pending[t]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.pending, t)
	send := s.send
	s.mu.Unlock()

	if send == nil {
		debug.Log("scheduler: task fired with no program bound, dropped")
		return
	}
	send(TaskFiredMsg{task: t})
}

// Run executes the task carried by msg unless it was cancelled. Call it
// from Update.
func (s *ProgramScheduler) Run(msg TaskFiredMsg) {
	t := msg.task
	if t == nil || t.s != s || t.cancelled || t.fired {
		return
	}
	t.fired = true
	t.fn()
}

// Pending returns the number of timers that have not yet expired.
func (s *ProgramScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Stop cancels every outstanding timer. Later Schedule calls return tasks
// that never fire.
func (s *ProgramScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for t := range s.pending {
		t.timer.Stop()
		delete(s.pending, t)
	}
}

// Cancel implements tour.Task.
func (t *programTask) Cancel() bool {
	if t.cancelled || t.fired {
		return false
	}
	t.cancelled = true
	t.s.mu.Lock()
	if _, ok := t.s.pending[t]; ok {
		t.timer.Stop()
		delete(t.s.pending, t)
	}
	t.s.mu.Unlock()
	return true
}
