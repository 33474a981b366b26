package bus

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/allworlds/engine/pkg/sequence"
	"github.com/google/uuid"
)

// simpleEvent is a basic implementation of Event.
type simpleEvent struct {
	typeStr string
	source  string
	ts      time.Time
	data    any
}

func (e simpleEvent) Type() string         { return e.typeStr }
func (e simpleEvent) Source() string       { return e.source }
func (e simpleEvent) Timestamp() time.Time { return e.ts }
func (e simpleEvent) Data() any            { return e.data }

// NewEvent creates a simple Event stamped with the current time.
func NewEvent(typ, src string, data any) Event {
	return simpleEvent{typeStr: typ, source: src, ts: time.Now(), data: data}
}

type subscription struct {
	id        string
	eventType string
	handler   EventHandler
	active    atomic.Bool
	cancel    func()
}

func (s *subscription) ID() string        { return s.id }
func (s *subscription) EventType() string { return s.eventType }
func (s *subscription) IsActive() bool    { return s.active.Load() }
func (s *subscription) Cancel() error {
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

type inMemoryBus struct {
	mu sync.RWMutex
	// handlers: eventType -> subID -> subscription, in subscription order
	handlers  map[string]*sequence.Ordered[string, *subscription]
	metrics   EventBusMetrics
	observers map[EventBusObserver]struct{}
}

// New creates a new EventBus instance.
func New() EventBus {
	return &inMemoryBus{
		handlers:  make(map[string]*sequence.Ordered[string, *subscription]),
		observers: make(map[EventBusObserver]struct{}),
	}
}

func (b *inMemoryBus) Subscribe(eventType string, handler EventHandler) (Subscription, error) {
	if handler == nil {
		return nil, errors.New("bus: nil handler")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.handlers[eventType]
	if subs == nil {
		subs = sequence.NewOrdered[string, *subscription]()
		b.handlers[eventType] = subs
	}
	id := uuid.NewString()
	s := &subscription{id: id, eventType: eventType, handler: handler}
	s.active.Store(true)
	s.cancel = func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs.Delete(id)
		s.active.Store(false)
	}
	subs.Set(id, s)
	return s, nil
}

func (b *inMemoryBus) Unsubscribe(sub Subscription) error {
	if sub == nil {
		return nil
	}
	return sub.Cancel()
}

func (b *inMemoryBus) Publish(event Event) error {
	b.mu.RLock()
	etype := event.Type()
	var subs []*subscription
	if m := b.handlers[etype]; m != nil {
		subs = m.Values()
	}
	observers := make([]EventBusObserver, 0, len(b.observers))
	for obs := range b.observers {
		observers = append(observers, obs)
	}
	b.mu.RUnlock()

	var all error
	for _, s := range subs {
		if !s.active.Load() {
			continue
		}
		if err := s.handler(event); err != nil {
			all = errors.Join(all, err)
		}
	}

	if len(observers) > 0 {
		for _, obs := range observers {
			obs.OnDelivered(etype, len(subs), all)
		}
		b.mu.Lock()
		b.metrics.Published++
		b.metrics.DeliveredHandlers += uint64(len(subs))
		if all != nil {
			b.metrics.Errors++
		}
		var active uint64
		for _, m := range b.handlers {
			active += uint64(m.Len())
		}
		b.metrics.SubscribersActive = active
		b.mu.Unlock()
	}
	return all
}

func (b *inMemoryBus) PublishBatch(events ...Event) error {
	var all error
	for _, e := range events {
		if err := b.Publish(e); err != nil {
			all = errors.Join(all, err)
		}
	}
	return all
}

func (b *inMemoryBus) AddObserver(obs EventBusObserver) {
	b.mu.Lock()
	b.observers[obs] = struct{}{}
	b.mu.Unlock()
}

func (b *inMemoryBus) RemoveObserver(obs EventBusObserver) {
	b.mu.Lock()
	delete(b.observers, obs)
	b.mu.Unlock()
}

func (b *inMemoryBus) GetMetrics() EventBusMetrics {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.metrics
}
