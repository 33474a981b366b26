package ecs

import "fmt"

// Builder collects the initial components of an entity. It is single use:
// Build may be called once.
type Builder struct {
	components []Component
	kinds      map[Kind]struct{}
	err        error
}

func NewBuilder() *Builder {
	return &Builder{kinds: make(map[Kind]struct{})}
}

// With adds c. The first invalid component is reported by Build.
func (b *Builder) With(c Component) *Builder {
	if b.err != nil {
		return b
	}
	if c == nil {
		b.err = ErrNilComponent
		return b
	}
	kind := KindOfValue(c)
	if _, dup := b.kinds[kind]; dup {
		b.err = fmt.Errorf("builder: %w: %s", ErrDuplicateKind, kind)
		return b
	}
	b.kinds[kind] = struct{}{}
	b.components = append(b.components, c)
	return b
}

func (b *Builder) WithAll(components ...Component) *Builder {
	for _, c := range components {
		b.With(c)
	}
	return b
}

func (b *Builder) Build() (*Entity, error) {
	if b.err != nil {
		return nil, b.err
	}
	return NewEntity(b.components...)
}

// MustBuild is Build for fixtures and tests where an error is a bug.
func (b *Builder) MustBuild() *Entity {
	e, err := b.Build()
	if err != nil {
		panic(err)
	}
	return e
}
