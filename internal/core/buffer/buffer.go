package buffer

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/allworlds/engine/pkg/sequence"
)

var (
	ErrUnsupportedType = errors.New("buffer: type must be a value type or string")
	ErrNilManager      = errors.New("buffer: nil manager")
)

// Swapper is anything the Manager flips at the end of a frame.
type Swapper interface {
	Swap()
}

// Handle identifies a registration in a Manager.
type Handle uint64

// Manager owns a set of double buffers and swaps them together.
type Manager struct {
	mu      sync.Mutex
	handles *sequence.Ordered[Handle, Swapper]
	next    Handle
}

func NewManager() *Manager {
	return &Manager{handles: sequence.NewOrdered[Handle, Swapper]()}
}

// Register adds s to the set swapped by SwapAll.
func (m *Manager) Register(s Swapper) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	m.handles.Set(m.next, s)
	return m.next
}

// Release removes the registration and reports whether it existed.
func (m *Manager) Release(h Handle) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handles.Delete(h)
}

// SwapAll swaps every registered buffer in registration order and returns how many were swapped.
func (m *Manager) SwapAll() int {
	m.mu.Lock()
	swappers := m.handles.Values()
	m.mu.Unlock()
	for _, s := range swappers {
		s.Swap()
	}
	return len(swappers)
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handles.Len()
}

// Buffer holds a value visible now (Current) and the value that becomes
// visible after the next swap (Next).
type Buffer[T any] struct {
	current T
	next    T
	handle  Handle
	manager *Manager
}

// New creates a buffer initialised to value on both sides and registers it in m.
func New[T any](m *Manager, value T) (*Buffer[T], error) {
	if m == nil {
		return nil, ErrNilManager
	}
	if t := reflect.TypeFor[T](); !valueKind(t) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}
	b := &Buffer[T]{current: value, next: value, manager: m}
	b.handle = m.Register(b)
	return b, nil
}

func (b *Buffer[T]) Current() T {
	return b.current
}

// SetNext sets the value that becomes current after the next swap.
func (b *Buffer[T]) SetNext(v T) {
	b.next = v
}

// PeekNext is meant for computing the next value only; decisions should use Current.
func (b *Buffer[T]) PeekNext() T {
	return b.next
}

func (b *Buffer[T]) Swap() {
	b.current = b.next
}

// Release stops the manager from swapping this buffer.
func (b *Buffer[T]) Release() {
	b.manager.Release(b.handle)
}

func valueKind(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan,
		reflect.Func, reflect.Interface, reflect.UnsafePointer:
		return false
	default:
		return true
	}
}
