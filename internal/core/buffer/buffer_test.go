package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInitialisesBothSides(t *testing.T) {
	b, err := New(NewManager(), 123)
	require.NoError(t, err)
	assert.Equal(t, 123, b.Current())
	assert.Equal(t, 123, b.PeekNext())
}

func TestNewRejectsReferenceTypes(t *testing.T) {
	m := NewManager()
	_, err := New(m, &struct{}{})
	assert.ErrorIs(t, err, ErrUnsupportedType)
	_, err = New(m, []int{1})
	assert.ErrorIs(t, err, ErrUnsupportedType)
	_, err = New[any](m, 1)
	assert.ErrorIs(t, err, ErrUnsupportedType)
	assert.Zero(t, m.Len())

	_, err = New(m, "")
	assert.NoError(t, err)
	_, err = New(m, struct{ X, Y int }{1, 2})
	assert.NoError(t, err)

	_, err = New(nil, 1)
	assert.ErrorIs(t, err, ErrNilManager)
}

func TestSwapAll(t *testing.T) {
	m := NewManager()
	a, _ := New(m, 1)
	b, _ := New(m, "x")

	assert.Equal(t, 2, m.SwapAll())
	assert.Equal(t, 1, a.Current(), "swap without a new value keeps current")

	a.SetNext(2)
	b.SetNext("y")
	assert.Equal(t, 1, a.Current())
	m.SwapAll()
	assert.Equal(t, 2, a.Current())
	assert.Equal(t, "y", b.Current())

	m.SwapAll()
	assert.Equal(t, 2, a.Current(), "value is retained across swaps")
}

func TestRelease(t *testing.T) {
	m := NewManager()
	a, _ := New(m, 1)
	other := NewManager()
	b, _ := New(other, 1)

	a.Release()
	a.SetNext(5)
	assert.Zero(t, m.SwapAll())
	assert.Equal(t, 1, a.Current())

	b.SetNext(7)
	other.SwapAll()
	assert.Equal(t, 7, b.Current())
	assert.Equal(t, 1, a.Current(), "managers are independent")
}
