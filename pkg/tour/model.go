package tour

import (
	"context"
	"errors"
)

// Tip is one anchored instruction: a target selector plus the text shown
// next to it. Tips are authored in the catalog and never mutated here.
type Tip struct {
	ID            string
	Target        string
	Title         string
	Content       string
	PreferredSide Side
}

// TipSet is the ordered tour for one screen.
type TipSet struct {
	PageKey  string
	PageName string
	Primary  []Tip
	Advanced []Tip
}

// HasAdvanced reports whether the set offers a "show more" branch.
func (ts TipSet) HasAdvanced() bool {
	return len(ts.Advanced) > 0
}

// Steps returns the active tip list for the given mode.
func (ts TipSet) Steps(advanced bool) []Tip {
	if !advanced {
		return ts.Primary
	}
	all := make([]Tip, 0, len(ts.Primary)+len(ts.Advanced))
	all = append(all, ts.Primary...)
	return append(all, ts.Advanced...)
}

// Catalog looks up authored tip sets.
type Catalog interface {
	TipSet(pageKey string) (TipSet, bool)
	PageKeyForRoute(route string) (string, bool)
}

// Outcome is the terminal result of a tour run.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeSkipped   Outcome = "skipped"
)

type runIDKey struct{}

// WithRunID returns a context carrying the id of the tour run a store
// call belongs to.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunIDFromContext returns the run id set by WithRunID.
func RunIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(runIDKey{}).(string)
	return id, ok && id != ""
}

// ProgressStore persists per-page tour progress. All calls are best
// effort from the engine's point of view: failures are logged and the
// tour carries on. RecordOutcome's context carries the run id, see
// RunIDFromContext.
type ProgressStore interface {
	HasCompleted(ctx context.Context, pageKey string) (bool, error)
	ResetProgress(ctx context.Context, pageKey string) error
	RecordOutcome(ctx context.Context, pageKey string, stepsViewed int, outcome Outcome) error
}

// Notifier is the host's notification surface. Calls are fire and forget.
type Notifier interface {
	TourCompleted(pageKey, pageName string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(pageKey, pageName string)

// TourCompleted implements Notifier.
func (f NotifierFunc) TourCompleted(pageKey, pageName string) { f(pageKey, pageName) }

var (
	// ErrUnknownPage is returned when no tip set exists for a page key.
	ErrUnknownPage = errors.New("no tour for page")
	// ErrNoActiveTour is returned by transitions when nothing is running.
	ErrNoActiveTour = errors.New("no active tour")
	// ErrEmptyTour is returned when a tip set has no primary tips.
	ErrEmptyTour = errors.New("tour has no tips")
)
