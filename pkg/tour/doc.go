// Package tour is the anchored placement and tour state-machine engine.
//
// A tour walks the user through the tips authored for one screen. For each
// step the engine resolves the tip's target selector to a live element,
// settles it into view, computes where the tooltip and its arrow go, and
// keeps that placement current while the host scrolls or resizes:
//
//	Controller.Navigate ──► Machine.Start ──► TargetResolver.Resolve
//	                                       └► Scroller.Settle ──► Solve ──► Tracker
//
// Everything runs on the host's event loop. The only suspension points are
// the scroll-settle and auto-start delays, both held in an owned pending
// slot so that any superseding transition cancels them.
//
// The host supplies the collaborators: a TargetResolver (usually a
// Registry fed from its layout pass), a Viewport, an EventSource (usually
// an EventBus), a Scheduler, and optionally a ProgressStore and Notifier.
package tour
