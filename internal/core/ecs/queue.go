package ecs

import (
	"fmt"
	"iter"
)

// Queue is a component that accumulates same-kind values within a frame.
// Queuing a second Queue[T] on an entity links it after the existing chain
// instead of overwriting it. Nodes are immutable.
//
//	type Damage struct{ Amount int }
//	q, _ := ecs.NewQueue(Damage{Amount: 3}, nil)
//	_ = entity.QueueAdd(q)
type Queue[T any] struct {
	value T
	next  *Queue[T]
}

// NewQueue builds a node holding value and followed by next. next may be nil;
// otherwise it must be a *Queue[T], anything else fails with
// ErrUnsupportedOperation.
func NewQueue[T any](value T, next Component) (*Queue[T], error) {
	q := &Queue[T]{value: value}
	if next == nil {
		return q, nil
	}
	n, ok := next.(*Queue[T])
	if !ok {
		return nil, fmt.Errorf("%w: %s after %s", ErrMismatchedQueueNode, KindOfValue(next), KindOf[*Queue[T]]())
	}
	q.next = n
	return q, nil
}

// QueueOf chains values in order.
func QueueOf[T any](first T, rest ...T) *Queue[T] {
	var next *Queue[T]
	for i := len(rest) - 1; i >= 0; i-- {
		next = &Queue[T]{value: rest[i], next: next}
	}
	return &Queue[T]{value: first, next: next}
}

// ResolveDuplicate appends next, which must be of exactly the same kind, at
// the tail of the chain and returns the new head.
func (q *Queue[T]) ResolveDuplicate(next Component) (Component, error) {
	if KindOfValue(next) != KindOfValue(q) {
		return nil, fmt.Errorf("%w: duplicate of %s must be the same kind, got %s",
			ErrInvalidArgument, KindOfValue(q), KindOfValue(next))
	}
	return q.appendTail(next.(*Queue[T])), nil
}

func (q *Queue[T]) appendTail(tail *Queue[T]) *Queue[T] {
	if q.next == nil {
		return &Queue[T]{value: q.value, next: tail}
	}
	return &Queue[T]{value: q.value, next: q.next.appendTail(tail)}
}

func (q *Queue[T]) Value() T {
	return q.value
}

// Next is the following node or nil at the tail.
func (q *Queue[T]) Next() *Queue[T] {
	return q.next
}

func (q *Queue[T]) Len() int {
	n := 0
	for node := q; node != nil; node = node.next {
		n++
	}
	return n
}

// All yields the payloads in insertion order.
func (q *Queue[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for node := q; node != nil; node = node.next {
			if !yield(node.value) {
				return
			}
		}
	}
}

func (q *Queue[T]) Values() []T {
	out := make([]T, 0, q.Len())
	for v := range q.All() {
		out = append(out, v)
	}
	return out
}
