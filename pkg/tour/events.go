package tour

// EventKind identifies a layout-relevant host event.
type EventKind int

const (
	// EventElementResize fires when a specific element moved or resized.
	EventElementResize EventKind = iota
	// EventScroll fires when any scroll container scrolled.
	EventScroll
	// EventWindowResize fires when the terminal or window was resized.
	EventWindowResize
)

func (k EventKind) String() string {
	switch k {
	case EventElementResize:
		return "element-resize"
	case EventScroll:
		return "scroll"
	case EventWindowResize:
		return "window-resize"
	}
	return "unknown"
}

// Event is a single layout notification.
type Event struct {
	Kind      EventKind
	ElementID string // set for EventElementResize only
}

// EventSource delivers layout events to subscribers. Subscribe returns a
// function that removes the subscription; calling it twice is harmless.
type EventSource interface {
	Subscribe(kind EventKind, elementID string, fn func()) (unsubscribe func())
}

type subscription struct {
	id        uint64
	kind      EventKind
	elementID string
	fn        func()
}

// EventBus is an in-process EventSource. The host emits events from its
// update loop; handlers run synchronously in that loop.
type EventBus struct {
	nextID uint64
	subs   []subscription
}

// NewEventBus returns an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{}
}

// Subscribe implements EventSource. elementID filters element-resize
// events and is ignored for other kinds.
func (b *EventBus) Subscribe(kind EventKind, elementID string, fn func()) func() {
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, kind: kind, elementID: elementID, fn: fn})
	return func() { b.remove(id) }
}

func (b *EventBus) remove(id uint64) {
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// Emit delivers ev to matching subscribers. Handlers may unsubscribe
// while being called.
func (b *EventBus) Emit(ev Event) {
	snapshot := make([]subscription, len(b.subs))
	copy(snapshot, b.subs)
	for _, s := range snapshot {
		if s.kind != ev.Kind {
			continue
		}
		if ev.Kind == EventElementResize && s.elementID != ev.ElementID {
			continue
		}
		if !b.live(s.id) {
			continue
		}
		s.fn()
	}
}

func (b *EventBus) live(id uint64) bool {
	for _, s := range b.subs {
		if s.id == id {
			return true
		}
	}
	return false
}

// Subscribers returns the number of active subscriptions.
func (b *EventBus) Subscribers() int {
	return len(b.subs)
}
