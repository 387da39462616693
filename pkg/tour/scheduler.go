package tour

import (
	"time"

	"github.com/vanderheijden86/guidepost/pkg/metrics"
)

// Task is a handle to a scheduled function.
type Task interface {
	// Cancel prevents the function from running. It reports whether the
	// task was still pending.
	Cancel() bool
}

// Scheduler runs fn after d on the host's event loop. Implementations must
// guarantee that fn never runs after Cancel returned, provided Cancel is
// called from the event loop.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) Task
}

// pendingSlot owns at most one scheduled task. Scheduling into the slot
// cancels whatever was there, so a superseded timer can never fire.
type pendingSlot struct {
	sched Scheduler
	task  Task
	label string
}

func (s *pendingSlot) schedule(label string, d time.Duration, fn func()) {
	s.cancel()
	var t Task
	t = s.sched.Schedule(d, func() {
		if s.task != t {
			return
		}
		s.task = nil
		s.label = ""
		fn()
	})
	s.task = t
	s.label = label
}

// cancel clears the slot and reports whether a task was pending.
func (s *pendingSlot) cancel() bool {
	if s.task == nil {
		return false
	}
	pending := s.task.Cancel()
	if pending {
		metrics.TasksCancelled.Inc()
	}
	s.task = nil
	s.label = ""
	return pending
}

func (s *pendingSlot) pending() bool {
	return s.task != nil
}
