package ecs

import (
	"fmt"
	"io"
	"sort"

	"github.com/allworlds/engine/pkg/sequence"
	"github.com/google/uuid"
)

// Entity is an identity with a set of components. Structural changes are
// staged with QueueAdd and QueueRemove and become visible only after the
// owning Engine commits them on its next Update.
type Entity struct {
	id         string
	components map[Kind]Component
	toAdd      *sequence.Ordered[Kind, Component]
	toRemove   *sequence.Ordered[Kind, struct{}]
}

// NewEntity creates an entity whose initial components are committed
// immediately, without staging.
func NewEntity(components ...Component) (*Entity, error) {
	e := &Entity{
		id:         uuid.NewString(),
		components: make(map[Kind]Component, len(components)),
		toAdd:      sequence.NewOrdered[Kind, Component](),
		toRemove:   sequence.NewOrdered[Kind, struct{}](),
	}
	for _, c := range components {
		if c == nil {
			return nil, ErrNilComponent
		}
		kind := KindOfValue(c)
		if _, exists := e.components[kind]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateKind, kind)
		}
		e.components[kind] = c
	}
	return e, nil
}

func (e *Entity) ID() string {
	return e.id
}

func (e *Entity) String() string {
	return "entity(" + e.id + ")"
}

// QueueAdd stages c for the next commit. A component of the same kind that is
// already staged, or failing that already committed, resolves the duplicate.
// On error nothing is staged.
func (e *Entity) QueueAdd(c Component) error {
	if c == nil {
		return ErrNilComponent
	}
	kind := KindOfValue(c)

	existing, staged := e.toAdd.Get(kind)
	if !staged {
		existing = e.components[kind]
	}
	if existing != nil {
		resolved, err := existing.ResolveDuplicate(c)
		if err != nil {
			return fmt.Errorf("queue %s on %s: %w", kind, e, err)
		}
		if KindOfValue(resolved) != kind {
			return fmt.Errorf("queue %s on %s: %w", kind, e, ErrKindChanged)
		}
		c = resolved
	}

	e.toAdd.Set(kind, c)
	return nil
}

// QueueRemove stages the removal of kind. The kind must be committed and not
// already staged for removal.
func (e *Entity) QueueRemove(kind Kind) error {
	if e.toRemove.Has(kind) {
		return fmt.Errorf("remove %s from %s: %w", kind, e, ErrDuplicateRemoval)
	}
	if _, ok := e.components[kind]; !ok {
		return fmt.Errorf("remove %s from %s: %w", kind, e, ErrComponentNotFound)
	}
	e.toRemove.Set(kind, struct{}{})
	return nil
}

// commit applies staged removals, then staged additions, and clears both
// queues. It reports whether anything was staged.
func (e *Entity) commit() bool {
	changed := e.toAdd.Len()+e.toRemove.Len() > 0

	for kind := range e.toRemove.All() {
		delete(e.components, kind)
	}
	for kind, c := range e.toAdd.All() {
		e.components[kind] = c
	}

	e.discardStaged()
	return changed
}

// discardStaged drops staged changes that were never committed, e.g. on
// deletion from the engine.
func (e *Entity) discardStaged() {
	e.toAdd.Clear()
	e.toRemove.Clear()
}

// Get returns the committed component of the given kind.
func (e *Entity) Get(kind Kind) (Component, error) {
	c, ok := e.components[kind]
	if !ok {
		return nil, fmt.Errorf("get %s from %s: %w", kind, e, ErrComponentNotFound)
	}
	return c, nil
}

// Has reports whether kind is committed. Staged changes are not visible.
func (e *Entity) Has(kind Kind) bool {
	_, ok := e.components[kind]
	return ok
}

// Update replaces the committed component of kind with fn(old) right away,
// bypassing the staging queues.
func (e *Entity) Update(kind Kind, fn func(Component) Component) error {
	old, ok := e.components[kind]
	if !ok {
		return fmt.Errorf("update %s on %s: %w", kind, e, ErrComponentNotFound)
	}
	next := fn(old)
	if next == nil {
		return fmt.Errorf("update %s on %s: %w", kind, e, ErrNilComponent)
	}
	if KindOfValue(next) != kind {
		return fmt.Errorf("update %s on %s: %w", kind, e, ErrKindChanged)
	}
	e.components[kind] = next
	return nil
}

// Len is the number of committed components.
func (e *Entity) Len() int {
	return len(e.components)
}

// Kinds lists the committed kinds sorted by name.
func (e *Entity) Kinds() []Kind {
	kinds := make([]Kind, 0, len(e.components))
	for k := range e.components {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i].Name() < kinds[j].Name() })
	return kinds
}

func (e *Entity) writeDigest(w io.Writer) {
	_, _ = io.WriteString(w, e.id)
	for _, k := range e.Kinds() {
		_, _ = fmt.Fprintf(w, "|%s=%#v", k.Name(), e.components[k])
	}
	_, _ = io.WriteString(w, ";")
}

// Get returns the committed component of type T.
func Get[T Component](e *Entity) (T, error) {
	var zero T
	c, err := e.Get(KindOf[T]())
	if err != nil {
		return zero, err
	}
	return c.(T), nil
}

func Has[T Component](e *Entity) bool {
	return e.Has(KindOf[T]())
}

// Update replaces the committed component of type T with fn(old) immediately.
func Update[T Component](e *Entity, fn func(T) T) error {
	return e.Update(KindOf[T](), func(c Component) Component {
		return fn(c.(T))
	})
}

func QueueRemove[T Component](e *Entity) error {
	return e.QueueRemove(KindOf[T]())
}
