package subscription

import (
	"fmt"
	"slices"

	"github.com/allworlds/engine/internal/core/ecs"
	"github.com/google/uuid"
)

// ErrSubscriptionNotFound is returned when unsubscribing a handle the
// descriptor does not hold.
var ErrSubscriptionNotFound = fmt.Errorf("%w: subscription not found", ecs.ErrInvalidOperation)

// Callback observes a component kind on one entity. prev or next is nil when
// the component was absent.
type Callback func(e *ecs.Entity, prev, next ecs.Component)

// Handle identifies one subscribed callback.
type Handle struct {
	id   string
	kind ecs.Kind
}

func (h Handle) ID() string     { return h.id }
func (h Handle) Kind() ecs.Kind { return h.kind }

type entry struct {
	id string
	cb Callback
}

// Component is the subscription descriptor attached to an observed entity.
// It maps observed kinds to callbacks, both kept in subscription order.
// Adding a second descriptor to an entity merges the two.
type Component struct {
	kinds []ecs.Kind
	subs  map[ecs.Kind][]entry
}

var _ ecs.Component = (*Component)(nil)

// Subscribe creates a descriptor observing kind with cb.
func Subscribe(kind ecs.Kind, cb Callback) (*Component, Handle) {
	h := Handle{id: uuid.NewString(), kind: kind}
	return withEntry(h, cb), h
}

// SubscribeTo is Subscribe for the component type T.
func SubscribeTo[T ecs.Component](cb Callback) (*Component, Handle) {
	return Subscribe(ecs.KindOf[T](), cb)
}

func withEntry(h Handle, cb Callback) *Component {
	return &Component{
		kinds: []ecs.Kind{h.kind},
		subs:  map[ecs.Kind][]entry{h.kind: {{id: h.id, cb: cb}}},
	}
}

// ResolveDuplicate merges next into a new descriptor. Callbacks already
// present (same subscription) are kept once.
func (c *Component) ResolveDuplicate(next ecs.Component) (ecs.Component, error) {
	other, ok := next.(*Component)
	if !ok || other == nil {
		return nil, fmt.Errorf("%w: duplicate must be a subscription descriptor, got %s",
			ecs.ErrInvalidArgument, ecs.KindOfValue(next))
	}
	return c.merge(other), nil
}

func (c *Component) merge(other *Component) *Component {
	out := c.clone()
	for _, kind := range other.kinds {
		if _, ok := out.subs[kind]; !ok {
			out.kinds = append(out.kinds, kind)
		}
		for _, en := range other.subs[kind] {
			if !slices.ContainsFunc(out.subs[kind], func(x entry) bool { return x.id == en.id }) {
				out.subs[kind] = append(out.subs[kind], en)
			}
		}
	}
	return out
}

// Unsubscribe returns a descriptor without the callback of h. A kind left
// without callbacks is no longer observed.
func (c *Component) Unsubscribe(h Handle) (*Component, error) {
	entries := c.subs[h.kind]
	i := slices.IndexFunc(entries, func(x entry) bool { return x.id == h.id })
	if i < 0 {
		return nil, fmt.Errorf("%w: kind %s, id %s", ErrSubscriptionNotFound, h.kind, h.id)
	}
	out := c.clone()
	out.subs[h.kind] = slices.Delete(slices.Clone(entries), i, i+1)
	if len(out.subs[h.kind]) == 0 {
		delete(out.subs, h.kind)
		out.kinds = slices.DeleteFunc(out.kinds, func(k ecs.Kind) bool { return k == h.kind })
	}
	return out, nil
}

// Has reports whether h is subscribed on this descriptor.
func (c *Component) Has(h Handle) bool {
	return slices.ContainsFunc(c.subs[h.kind], func(x entry) bool { return x.id == h.id })
}

// Kinds lists the observed kinds in subscription order.
func (c *Component) Kinds() []ecs.Kind {
	return slices.Clone(c.kinds)
}

func (c *Component) Observes(kind ecs.Kind) bool {
	_, ok := c.subs[kind]
	return ok
}

// Callbacks lists the callbacks for kind in subscription order.
func (c *Component) Callbacks(kind ecs.Kind) []Callback {
	entries := c.subs[kind]
	out := make([]Callback, len(entries))
	for i, en := range entries {
		out[i] = en.cb
	}
	return out
}

func (c *Component) clone() *Component {
	out := &Component{
		kinds: slices.Clone(c.kinds),
		subs:  make(map[ecs.Kind][]entry, len(c.subs)),
	}
	for k, v := range c.subs {
		out.subs[k] = slices.Clone(v)
	}
	return out
}
