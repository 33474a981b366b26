package ecs

import (
	"fmt"
	"reflect"
	"time"

	"github.com/allworlds/engine/internal/core/events/bus"
	"github.com/allworlds/engine/internal/core/observability/log"
	"github.com/allworlds/engine/pkg/sequence"
	"github.com/cespare/xxhash/v2"
)

// Lifecycle event types published on the engine's bus.
const (
	EventEntityCreated  = "entity.created"
	EventEntityDeleted  = "entity.deleted"
	EventFrameCompleted = "frame.completed"

	eventSource = "engine"
)

// FrameStats is the payload of EventFrameCompleted.
type FrameStats struct {
	Frame    uint64
	Created  int
	Deleted  int
	Changed  int
	Entities int
	Elapsed  time.Duration
}

var _ EntityPool = (*Engine)(nil)

// Engine owns the entity set and the systems and drives the frame pipeline.
// It is not safe for concurrent use: Update and every queue operation must
// be called from one goroutine.
type Engine struct {
	logger log.Log
	events bus.EventBus

	entities *sequence.Ordered[string, *Entity]
	toCreate *sequence.Ordered[string, *Entity]
	toDelete *sequence.Ordered[string, *Entity]
	dirty    *sequence.Ordered[string, *Entity]

	// system type -> instances, in first-registration order of the type
	systems *sequence.Ordered[reflect.Type, []System]

	frame uint64
}

type options struct {
	logger   log.Log
	events   bus.EventBus
	systems  []System
	entities []*Entity
}

type Option func(*options)

func WithLogger(logger log.Log) Option {
	return func(o *options) { o.logger = logger }
}

// WithEventBus publishes lifecycle events on b.
func WithEventBus(b bus.EventBus) Option {
	return func(o *options) { o.events = b }
}

func WithSystems(systems ...System) Option {
	return func(o *options) { o.systems = append(o.systems, systems...) }
}

// WithEntities queues entities for creation by the initial Update.
func WithEntities(entities ...*Entity) Option {
	return func(o *options) { o.entities = append(o.entities, entities...) }
}

// NewEngine builds an empty engine. Nothing runs until Update is called.
func NewEngine(opts ...Option) *Engine {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.Provide().Named("engine")
	}
	return &Engine{
		logger:   o.logger,
		events:   o.events,
		entities: sequence.NewOrdered[string, *Entity](),
		toCreate: sequence.NewOrdered[string, *Entity](),
		toDelete: sequence.NewOrdered[string, *Entity](),
		dirty:    sequence.NewOrdered[string, *Entity](),
		systems:  sequence.NewOrdered[reflect.Type, []System](),
	}
}

// New builds an engine with the systems and entities given as options and
// runs the first Update so that the entities are created and registered.
func New(opts ...Option) (*Engine, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	en := NewEngine(opts...)
	if err := en.AddSystems(o.systems...); err != nil {
		return nil, err
	}
	if err := en.QueueCreateMany(o.entities...); err != nil {
		return nil, err
	}
	if err := en.Update(); err != nil {
		return nil, err
	}
	return en, nil
}

// AddSystem binds s to the engine and appends it after the instances of the
// same system type. Committed entities are re-evaluated for s on the next
// Update.
func (en *Engine) AddSystem(s System) error {
	if s == nil {
		return ErrNilSystem
	}
	t := reflect.TypeOf(s)
	instances, _ := en.systems.Get(t)
	for _, existing := range instances {
		if existing == s {
			return fmt.Errorf("%w: system %s added twice", ErrInvalidOperation, t)
		}
	}
	en.systems.Set(t, append(instances, s))
	Bind(s, en)

	for id, e := range en.entities.All() {
		en.dirty.Set(id, e)
	}
	en.logger.Info("system added",
		log.Stringer("system", t),
		log.Int("instances", len(instances)+1))
	return nil
}

func (en *Engine) AddSystems(systems ...System) error {
	for _, s := range systems {
		if err := en.AddSystem(s); err != nil {
			return err
		}
	}
	return nil
}

// HasSystem reports whether an instance of the same system type as s was added.
func (en *Engine) HasSystem(s System) bool {
	return s != nil && en.systems.Has(reflect.TypeOf(s))
}

// HasSystemOf reports whether an instance of the system type T was added.
func HasSystemOf[T System](en *Engine) bool {
	return en.systems.Has(reflect.TypeFor[T]())
}

// Systems lists every system instance in run order.
func (en *Engine) Systems() []System {
	var out []System
	for _, instances := range en.systems.All() {
		out = append(out, instances...)
	}
	return out
}

func (en *Engine) Has(e *Entity) bool {
	return e != nil && en.entities.Has(e.ID())
}

// Entities lists the committed entities in creation order.
func (en *Engine) Entities() []*Entity {
	return en.entities.Values()
}

func (en *Engine) Len() int {
	return en.entities.Len()
}

// Frame is the number of completed updates.
func (en *Engine) Frame() uint64 {
	return en.frame
}

// QueueCreate adds e to the engine on the next Update.
func (en *Engine) QueueCreate(e *Entity) error {
	if e == nil {
		return ErrNilEntity
	}
	if en.Has(e) {
		return fmt.Errorf("create %s: %w", e, ErrEntityExists)
	}
	if en.toCreate.Has(e.ID()) {
		return fmt.Errorf("create %s: %w", e, ErrEntityQueued)
	}
	en.toCreate.Set(e.ID(), e)
	return nil
}

func (en *Engine) QueueCreateMany(entities ...*Entity) error {
	for _, e := range entities {
		if err := en.QueueCreate(e); err != nil {
			return err
		}
	}
	return nil
}

// QueueDelete removes e from the engine on the next Update. An entity that is
// only queued for creation cannot be queued for deletion in the same frame.
func (en *Engine) QueueDelete(e *Entity) error {
	if e == nil {
		return ErrNilEntity
	}
	if !en.Has(e) {
		if en.toCreate.Has(e.ID()) {
			return fmt.Errorf("delete %s: %w", e, ErrEntityNotCreated)
		}
		return fmt.Errorf("delete %s: %w", e, ErrEntityNotFound)
	}
	if en.toDelete.Has(e.ID()) {
		return fmt.Errorf("delete %s: %w", e, ErrEntityDeleteQueued)
	}
	en.toDelete.Set(e.ID(), e)
	return nil
}

func (en *Engine) QueueDeleteMany(entities ...*Entity) error {
	for _, e := range entities {
		if err := en.QueueDelete(e); err != nil {
			return err
		}
	}
	return nil
}

// Update runs one frame:
//  1. queued creations enter the entity set
//  2. queued deletions leave it
//  3. every committed entity commits its component queues
//  4. systems re-evaluate registration of every changed entity
//  5. systems run, in the order they were added
//
// A failure aborts the remaining phases and is returned. Entities still
// marked dirty are re-evaluated on the next Update. Errors of event bus
// subscribers are logged, not returned.
func (en *Engine) Update() error {
	started := time.Now()

	created := en.applyCreations()
	deleted := en.applyDeletions()
	en.publishLifecycle(created, deleted)
	changed := en.commitComponents()

	if err := en.updateRegistrations(); err != nil {
		return fmt.Errorf("engine: registration: %w", err)
	}
	if err := en.runSystems(); err != nil {
		return fmt.Errorf("engine: run systems: %w", err)
	}

	en.frame++
	stats := FrameStats{
		Frame:    en.frame,
		Created:  len(created),
		Deleted:  len(deleted),
		Changed:  changed,
		Entities: en.entities.Len(),
		Elapsed:  time.Since(started),
	}
	en.logger.Debug("frame completed",
		log.Uint64("frame", stats.Frame),
		log.Int("created", stats.Created),
		log.Int("deleted", stats.Deleted),
		log.Int("changed", stats.Changed),
		log.Int("entities", stats.Entities),
		log.Duration("elapsed", stats.Elapsed))

	if en.events != nil {
		en.warnSubscribers(EventFrameCompleted,
			en.events.Publish(bus.NewEvent(EventFrameCompleted, eventSource, stats)))
	}
	return nil
}

func (en *Engine) applyCreations() []*Entity {
	created := en.toCreate.Values()
	for _, e := range created {
		en.entities.Set(e.ID(), e)
		en.dirty.Set(e.ID(), e)
	}
	en.toCreate.Clear()
	return created
}

func (en *Engine) applyDeletions() []*Entity {
	deleted := en.toDelete.Values()
	for _, e := range deleted {
		en.entities.Delete(e.ID())
		en.dirty.Set(e.ID(), e)
		e.discardStaged()
	}
	en.toDelete.Clear()
	return deleted
}

func (en *Engine) commitComponents() int {
	changed := 0
	for id, e := range en.entities.All() {
		if e.commit() {
			en.dirty.Set(id, e)
			changed++
		}
	}
	return changed
}

func (en *Engine) updateRegistrations() error {
	systems := en.Systems()
	for _, e := range en.dirty.All() {
		for _, s := range systems {
			if err := UpdateRegistration(s, e); err != nil {
				return fmt.Errorf("%T: %w", s, err)
			}
		}
	}
	en.dirty.Clear()
	return nil
}

func (en *Engine) runSystems() error {
	for _, s := range en.Systems() {
		if err := Run(s); err != nil {
			return fmt.Errorf("%T: %w", s, err)
		}
	}
	return nil
}

func (en *Engine) publishLifecycle(created, deleted []*Entity) {
	if en.events == nil || len(created)+len(deleted) == 0 {
		return
	}
	events := make([]bus.Event, 0, len(created)+len(deleted))
	for _, e := range created {
		events = append(events, bus.NewEvent(EventEntityCreated, eventSource, e))
	}
	for _, e := range deleted {
		events = append(events, bus.NewEvent(EventEntityDeleted, eventSource, e))
	}
	en.warnSubscribers("lifecycle", en.events.PublishBatch(events...))
}

// Subscribers are observers only: their errors never fail a frame.
func (en *Engine) warnSubscribers(event string, err error) {
	if err != nil {
		en.logger.Warn("event subscriber failed",
			log.String("event", event),
			log.Uint64("frame", en.frame),
			log.Error(err))
	}
}

// Digest hashes the committed entity set, every committed component and the
// registration table of every system. It changes only when observable state
// changes.
func (en *Engine) Digest() uint64 {
	h := xxhash.New()
	for _, e := range en.entities.All() {
		e.writeDigest(h)
	}
	for t, instances := range en.systems.All() {
		for i, s := range instances {
			_, _ = fmt.Fprintf(h, "#%s/%d:", t, i)
			for _, e := range s.base().Registered() {
				_, _ = h.WriteString(e.ID())
				_, _ = h.WriteString(",")
			}
		}
	}
	return h.Sum64()
}
