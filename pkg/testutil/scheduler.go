// Package testutil provides fakes and fixtures for exercising the tour
// engine without a terminal: a manual scheduler, a fake viewport, a
// recording progress store, and deterministic tip-set generators.
package testutil

import (
	"sort"
	"time"

	"github.com/vanderheijden86/guidepost/pkg/tour"
)

// ManualScheduler is a tour.Scheduler driven by Advance. Tasks fire in
// due-time order, ties in scheduling order.
type ManualScheduler struct {
	now   time.Duration
	seq   int
	tasks []*manualTask
}

type manualTask struct {
	s         *ManualScheduler
	due       time.Duration
	seq       int
	fn        func()
	cancelled bool
	fired     bool
}

func (t *manualTask) Cancel() bool {
	if t.cancelled || t.fired {
		return false
	}
	t.cancelled = true
	return true
}

// NewManualScheduler returns a scheduler at time zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// Schedule implements tour.Scheduler.
func (s *ManualScheduler) Schedule(d time.Duration, fn func()) tour.Task {
	s.seq++
	t := &manualTask{s: s, due: s.now + d, seq: s.seq, fn: fn}
	s.tasks = append(s.tasks, t)
	return t
}

// Advance moves time forward by d and runs every task that became due,
// including tasks scheduled by tasks that ran.
func (s *ManualScheduler) Advance(d time.Duration) {
	target := s.now + d
	for {
		next := s.nextDue(target)
		if next == nil {
			break
		}
		s.now = next.due
		next.fired = true
		next.fn()
	}
	s.now = target
	s.compact()
}

func (s *ManualScheduler) nextDue(limit time.Duration) *manualTask {
	var due []*manualTask
	for _, t := range s.tasks {
		if !t.cancelled && !t.fired && t.due <= limit {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].due != due[j].due {
			return due[i].due < due[j].due
		}
		return due[i].seq < due[j].seq
	})
	return due[0]
}

func (s *ManualScheduler) compact() {
	live := s.tasks[:0]
	for _, t := range s.tasks {
		if !t.cancelled && !t.fired {
			live = append(live, t)
		}
	}
	s.tasks = live
}

// Pending returns the number of tasks that have neither fired nor been
// cancelled.
func (s *ManualScheduler) Pending() int {
	n := 0
	for _, t := range s.tasks {
		if !t.cancelled && !t.fired {
			n++
		}
	}
	return n
}

// Now returns the scheduler's current time offset.
func (s *ManualScheduler) Now() time.Duration { return s.now }
