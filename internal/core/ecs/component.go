package ecs

import (
	"reflect"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Component is an immutable piece of data attached to an Entity. An entity
// holds at most one component per Kind.
//
// ResolveDuplicate is called on the already staged (or committed) component
// when another component of the same kind is queued for the same entity
// before the next commit. The returned component replaces the staged one.
type Component interface {
	ResolveDuplicate(next Component) (Component, error)
}

// Unique can be embedded by components that do not support duplicates.
type Unique struct{}

func (Unique) ResolveDuplicate(Component) (Component, error) {
	return nil, ErrUnsupportedDuplicate
}

// Kind identifies the concrete Go type of a component. Pointer and value
// forms of the same struct are different kinds.
type Kind struct {
	typ reflect.Type
}

// KindOf returns the kind of the component type T.
func KindOf[T Component]() Kind {
	return Kind{typ: reflect.TypeFor[T]()}
}

// KindOfValue returns the kind of c, or the zero Kind for a nil component.
func KindOfValue(c Component) Kind {
	if c == nil {
		return Kind{}
	}
	return Kind{typ: reflect.TypeOf(c)}
}

func (k Kind) IsZero() bool {
	return k.typ == nil
}

// Type exposes the underlying reflect type.
func (k Kind) Type() reflect.Type {
	return k.typ
}

// Name is the fully qualified type name, e.g. "*github.com/acme/game.Health".
func (k Kind) Name() string {
	if k.typ == nil {
		return "<nil>"
	}
	t := k.typ
	var prefix strings.Builder
	for t.Kind() == reflect.Pointer {
		prefix.WriteByte('*')
		t = t.Elem()
	}
	if t.PkgPath() == "" || t.Name() == "" {
		return prefix.String() + t.String()
	}
	return prefix.String() + t.PkgPath() + "." + t.Name()
}

func (k Kind) String() string {
	if k.typ == nil {
		return "<nil>"
	}
	return k.typ.String()
}

// ID is a stable 64-bit hash of Name. It does not change between processes
// as long as the type keeps its name and package path.
func (k Kind) ID() uint64 {
	return xxhash.Sum64String(k.Name())
}
