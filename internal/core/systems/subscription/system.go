package subscription

import (
	"fmt"
	"reflect"

	"github.com/allworlds/engine/internal/core/ecs"
	"github.com/allworlds/engine/internal/core/observability/log"
	"github.com/google/uuid"
)

var descriptorKind = ecs.KindOf[*Component]()

// System fires descriptor callbacks when an observed component changes
// between two runs. A change is a change of identity: the values are compared
// with ==, so pointer components compare by address and replacing a
// component with an equal copy still counts as a change. Value components of
// a non-comparable type are reported as changed on every run.
//
// The first run after registration never fires for comparable values that
// were already present.
type System struct {
	ecs.Base

	logger log.Log
	// injected into every registered descriptor, stable for the system's lifetime
	internal Handle
	// entity id -> observed kind -> last seen value (nil when absent)
	lastKnown map[string]map[ecs.Kind]ecs.Component
}

var _ ecs.System = (*System)(nil)

func New(logger log.Log) *System {
	if logger == nil {
		logger = log.Provide()
	}
	return &System{
		logger:    logger.Named("subscription"),
		internal:  Handle{id: uuid.NewString(), kind: descriptorKind},
		lastKnown: make(map[string]map[ecs.Kind]ecs.Component),
	}
}

func (*System) RequiredComponents() []ecs.Kind {
	return []ecs.Kind{descriptorKind}
}

func (s *System) OnRegistered(e *ecs.Entity) error {
	s.lastKnown[e.ID()] = make(map[ecs.Kind]ecs.Component)

	desc, err := s.inject(e)
	if err != nil {
		delete(s.lastKnown, e.ID())
		return err
	}
	s.onDescriptorChanged(e, nil, desc)

	s.logger.Debug("entity observed",
		log.String("entity", e.ID()),
		log.Int("kinds", len(desc.kinds)))
	return nil
}

// inject merges the internal callback into the descriptor of e and returns
// the resulting descriptor.
func (s *System) inject(e *ecs.Entity) (*Component, error) {
	err := ecs.Update(e, func(c *Component) *Component {
		return c.merge(withEntry(s.internal, s.onDescriptorChanged))
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe to %s: %w", e, err)
	}
	return ecs.Get[*Component](e)
}

func (s *System) OnUnregistered(e *ecs.Entity) error {
	delete(s.lastKnown, e.ID())
	s.logger.Debug("entity no longer observed", log.String("entity", e.ID()))
	return nil
}

// onDescriptorChanged seeds the snapshot of every newly observed kind with
// its current value, without firing, and forgets kinds no longer observed.
func (s *System) onDescriptorChanged(e *ecs.Entity, prev, next ecs.Component) {
	desc, ok := next.(*Component)
	if !ok || desc == nil {
		return
	}
	known := s.lastKnown[e.ID()]
	if known == nil {
		return
	}
	old, _ := prev.(*Component)

	for _, kind := range desc.kinds {
		if old != nil && old.Observes(kind) {
			continue
		}
		known[kind] = current(e, kind)
	}
	if old != nil {
		for _, kind := range old.kinds {
			if !desc.Observes(kind) && kind != descriptorKind {
				delete(known, kind)
			}
		}
	}
}

func (s *System) OnUpdate() error {
	for _, e := range s.Registered() {
		desc, err := ecs.Get[*Component](e)
		if err != nil {
			return err
		}
		known := s.lastKnown[e.ID()]

		if prev := known[descriptorKind]; !same(prev, desc) {
			// a descriptor replaced wholesale has lost the internal callback
			if !desc.Has(s.internal) {
				if desc, err = s.inject(e); err != nil {
					return err
				}
			}
			known[descriptorKind] = desc
			for _, cb := range desc.Callbacks(descriptorKind) {
				cb(e, prev, desc)
			}
		}

		for _, kind := range desc.kinds {
			if kind == descriptorKind {
				continue
			}
			value := current(e, kind)
			prev := known[kind]
			if same(prev, value) {
				continue
			}
			known[kind] = value
			for _, cb := range desc.Callbacks(kind) {
				cb(e, prev, value)
			}
		}
	}
	return nil
}

// Snapshot returns the last value seen for kind on e and whether e is observed.
func (s *System) Snapshot(e *ecs.Entity, kind ecs.Kind) (ecs.Component, bool) {
	known, ok := s.lastKnown[e.ID()]
	if !ok {
		return nil, false
	}
	return known[kind], true
}

func current(e *ecs.Entity, kind ecs.Kind) ecs.Component {
	c, err := e.Get(kind)
	if err != nil {
		return nil
	}
	return c
}

func same(a, b ecs.Component) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	// checks dynamic values too, e.g. a slice held in an interface field
	if !reflect.ValueOf(a).Comparable() || !reflect.ValueOf(b).Comparable() {
		return false
	}
	return a == b
}
