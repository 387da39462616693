package testutil

import (
	"context"
	"sync"

	"github.com/vanderheijden86/guidepost/pkg/tour"
)

// FakeViewport is a tour.Viewport over a Registry. ScrollIntoView shifts
// every published region so the requested one is centered, the way a
// scroll container moves its children.
type FakeViewport struct {
	Viewport tour.Size
	Registry *tour.Registry
	Bus      *tour.EventBus
	Regions  []tour.Region

	// Scrolls records the element ids passed to ScrollIntoView.
	Scrolls []string
	// Frozen makes ScrollIntoView a no-op apart from recording.
	Frozen bool
}

// NewFakeViewport publishes regions into a fresh registry and bus.
func NewFakeViewport(size tour.Size, regions []tour.Region) *FakeViewport {
	bus := tour.NewEventBus()
	v := &FakeViewport{
		Viewport: size,
		Bus:      bus,
		Registry: tour.NewRegistry(bus),
		Regions:  append([]tour.Region(nil), regions...),
	}
	v.Registry.Publish(v.Regions)
	return v
}

// Size implements tour.Viewport.
func (v *FakeViewport) Size() tour.Size { return v.Viewport }

// ScrollIntoView implements tour.Viewport.
func (v *FakeViewport) ScrollIntoView(el tour.Element) {
	v.Scrolls = append(v.Scrolls, el.ID())
	if v.Frozen {
		return
	}
	r, ok := el.Rect()
	if !ok {
		return
	}
	dy := (v.Viewport.Height/2 - r.Height/2) - r.Top
	dx := 0
	if r.Right() > v.Viewport.Width || r.Left < 0 {
		dx = (v.Viewport.Width/2 - r.Width/2) - r.Left
	}
	v.Shift(dy, dx)
}

// Shift moves every region by (dy, dx), republishes and emits a scroll.
func (v *FakeViewport) Shift(dy, dx int) {
	for i := range v.Regions {
		v.Regions[i].Rect = v.Regions[i].Rect.Offset(dy, dx)
	}
	v.Registry.Publish(v.Regions)
	v.Bus.Emit(tour.Event{Kind: tour.EventScroll})
}

// Resize changes the viewport and emits a window-resize.
func (v *FakeViewport) Resize(size tour.Size) {
	v.Viewport = size
	v.Bus.Emit(tour.Event{Kind: tour.EventWindowResize})
}

// Remove drops a region from the layout.
func (v *FakeViewport) Remove(id string) {
	kept := v.Regions[:0]
	for _, r := range v.Regions {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	v.Regions = kept
	v.Registry.Publish(v.Regions)
}

// OutcomeRecord is one RecordOutcome call.
type OutcomeRecord struct {
	PageKey     string
	StepsViewed int
	Outcome     tour.Outcome
	RunID       string
}

// RecordingStore is an in-memory tour.ProgressStore that records calls.
type RecordingStore struct {
	mu        sync.Mutex
	Completed map[string]bool
	Resets    []string
	Outcomes  []OutcomeRecord
	Checks    []string

	// Err, if set, is returned from every call after recording it.
	Err error
	// Sticky makes RecordOutcome mark the page completed.
	Sticky bool
}

// NewRecordingStore returns a store that remembers outcomes.
func NewRecordingStore() *RecordingStore {
	return &RecordingStore{Completed: make(map[string]bool), Sticky: true}
}

func (s *RecordingStore) HasCompleted(_ context.Context, pageKey string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Checks = append(s.Checks, pageKey)
	if s.Err != nil {
		return false, s.Err
	}
	return s.Completed[pageKey], nil
}

func (s *RecordingStore) ResetProgress(_ context.Context, pageKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Resets = append(s.Resets, pageKey)
	if s.Err != nil {
		return s.Err
	}
	delete(s.Completed, pageKey)
	return nil
}

func (s *RecordingStore) RecordOutcome(ctx context.Context, pageKey string, steps int, outcome tour.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	runID, _ := tour.RunIDFromContext(ctx)
	s.Outcomes = append(s.Outcomes, OutcomeRecord{PageKey: pageKey, StepsViewed: steps, Outcome: outcome, RunID: runID})
	if s.Err != nil {
		return s.Err
	}
	if s.Sticky {
		s.Completed[pageKey] = true
	}
	return nil
}

// LastOutcome returns the most recent outcome and whether there was one.
func (s *RecordingStore) LastOutcome() (OutcomeRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Outcomes) == 0 {
		return OutcomeRecord{}, false
	}
	return s.Outcomes[len(s.Outcomes)-1], true
}

// RecordingNotifier records TourCompleted calls.
type RecordingNotifier struct {
	Completed []string
}

// TourCompleted implements tour.Notifier.
func (n *RecordingNotifier) TourCompleted(pageKey, _ string) {
	n.Completed = append(n.Completed, pageKey)
}
