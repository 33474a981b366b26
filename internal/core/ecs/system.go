package ecs

import (
	"fmt"

	"github.com/allworlds/engine/pkg/sequence"
)

// System runs once per frame over the entities that hold every kind listed
// by RequiredComponents. Implementations embed Base, which carries the
// registration table and no-op hooks:
//
//	type Movement struct {
//		ecs.Base
//	}
//
//	func (*Movement) RequiredComponents() []ecs.Kind {
//		return []ecs.Kind{ecs.KindOf[*Position](), ecs.KindOf[*Velocity]()}
//	}
//
//	func (m *Movement) OnUpdate() error {
//		for _, e := range m.Registered() {
//			...
//		}
//		return nil
//	}
type System interface {
	RequiredComponents() []Kind

	// OnRegistered runs before the entity enters the registration table.
	// An error keeps the entity unregistered.
	OnRegistered(e *Entity) error
	// OnUnregistered runs after the entity left the registration table.
	OnUnregistered(e *Entity) error
	OnUpdate() error

	base() *Base
}

// Base is the embeddable part of every System.
type Base struct {
	pool       EntityPool
	registered *sequence.Ordered[string, *Entity]
}

func (b *Base) base() *Base {
	if b.registered == nil {
		b.registered = sequence.NewOrdered[string, *Entity]()
	}
	return b
}

func (*Base) OnRegistered(*Entity) error   { return nil }
func (*Base) OnUnregistered(*Entity) error { return nil }
func (*Base) OnUpdate() error              { return nil }

// Pool is the bound entity pool, nil until the system is added to an Engine.
func (b *Base) Pool() EntityPool {
	return b.pool
}

func (b *Base) IsRegistered(e *Entity) bool {
	return e != nil && b.registered != nil && b.registered.Has(e.ID())
}

// Registered returns the registered entities in registration order.
func (b *Base) Registered() []*Entity {
	if b.registered == nil {
		return nil
	}
	return b.registered.Values()
}

func (b *Base) RegisteredCount() int {
	if b.registered == nil {
		return 0
	}
	return b.registered.Len()
}

// RequestCreate queues e for creation on the bound pool's next Update.
func (b *Base) RequestCreate(e *Entity) error {
	if b.pool == nil {
		return ErrUnbound
	}
	return b.pool.QueueCreate(e)
}

// RequestDelete queues e for deletion on the bound pool's next Update.
func (b *Base) RequestDelete(e *Entity) error {
	if b.pool == nil {
		return ErrUnbound
	}
	return b.pool.QueueDelete(e)
}

// Bind wires s to pool. Rebinding is not guarded.
func Bind(s System, pool EntityPool) {
	s.base().pool = pool
}

// UpdateRegistration re-evaluates whether e belongs to s and runs the
// matching hook on a transition. Repeated calls without a state change do
// nothing.
func UpdateRegistration(s System, e *Entity) error {
	b := s.base()
	registered := b.registered.Has(e.ID())
	present := b.pool != nil && b.pool.Has(e)
	qualifies := present && hasAll(e, s.RequiredComponents())

	switch {
	case !registered && qualifies:
		if err := s.OnRegistered(e); err != nil {
			return fmt.Errorf("register %s: %w", e, err)
		}
		b.registered.Set(e.ID(), e)
	case registered && !qualifies:
		b.registered.Delete(e.ID())
		if err := s.OnUnregistered(e); err != nil {
			return fmt.Errorf("unregister %s: %w", e, err)
		}
	}
	return nil
}

// Run invokes the system's per-frame hook.
func Run(s System) error {
	return s.OnUpdate()
}

func hasAll(e *Entity, kinds []Kind) bool {
	for _, k := range kinds {
		if !e.Has(k) {
			return false
		}
	}
	return true
}
