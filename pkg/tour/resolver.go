package tour

import (
	"path"
	"strings"
)

// Element is a live, measurable region of the host UI.
type Element interface {
	// ID is the element's stable identifier.
	ID() string
	// Rect returns the current bounding box in viewport coordinates and
	// false if the element is no longer laid out.
	Rect() (Rect, bool)
}

// TargetResolver maps a tip target selector to a live element.
// Not found is not an error: callers suppress the step's visuals.
type TargetResolver interface {
	Resolve(target string) (Element, bool)
}

// Region describes an element registered by the host's layout pass.
type Region struct {
	ID      string
	Name    string
	Classes []string
	Rect    Rect
}

// Registry is a TargetResolver backed by regions the host publishes on
// every layout pass. Regions keep their registration order, which is the
// "first match" order for selectors that match more than one region.
//
// The returned Elements are handles: their Rect follows later Publish
// calls and reports false once the region is no longer published.
type Registry struct {
	order   []string
	regions map[string]Region
	events  *EventBus
}

// NewRegistry returns an empty registry. If bus is non-nil, publishing a
// region whose rect changed emits an element-resize event for it.
func NewRegistry(bus *EventBus) *Registry {
	return &Registry{regions: make(map[string]Region), events: bus}
}

// Publish replaces the registered regions with the given layout.
func (r *Registry) Publish(regions []Region) {
	next := make(map[string]Region, len(regions))
	order := make([]string, 0, len(regions))
	for _, reg := range regions {
		if _, dup := next[reg.ID]; dup {
			continue
		}
		next[reg.ID] = reg
		order = append(order, reg.ID)
	}

	var changed []string
	for id, old := range r.regions {
		reg, ok := next[id]
		if !ok || reg.Rect != old.Rect {
			changed = append(changed, id)
		}
	}

	r.regions = next
	r.order = order

	if r.events != nil {
		for _, id := range changed {
			r.events.Emit(Event{Kind: EventElementResize, ElementID: id})
		}
	}
}

// Len returns the number of registered regions.
func (r *Registry) Len() int { return len(r.order) }

// Resolve implements TargetResolver.
func (r *Registry) Resolve(target string) (Element, bool) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, false
	}
	for _, id := range r.order {
		if matchSelector(target, r.regions[id]) {
			return &registryElement{reg: r, id: id}, true
		}
	}
	return nil, false
}

func matchSelector(sel string, reg Region) bool {
	switch sel[0] {
	case '#':
		return globMatch(sel[1:], reg.ID)
	case '.':
		for _, c := range reg.Classes {
			if globMatch(sel[1:], c) {
				return true
			}
		}
		return false
	}
	return globMatch(sel, reg.ID) || (reg.Name != "" && globMatch(sel, reg.Name))
}

func globMatch(pattern, s string) bool {
	if !strings.ContainsAny(pattern, "*?[") {
		return pattern == s
	}
	ok, err := path.Match(pattern, s)
	return err == nil && ok
}

type registryElement struct {
	reg *Registry
	id  string
}

func (e *registryElement) ID() string { return e.id }

func (e *registryElement) Rect() (Rect, bool) {
	reg, ok := e.reg.regions[e.id]
	if !ok {
		return Rect{}, false
	}
	return reg.Rect, true
}
