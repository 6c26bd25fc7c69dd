package rtti

import (
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shape interface {
	Identified
	Area() float64
}

type square struct {
	side float64
	typ  *Type
}

func (s *square) Type() *Type { return s.typ }
func (s *square) Area() float64 { return s.side * s.side }
func (s *square) Perimeter() float64 { return 4 * s.side }

type circle struct{ typ *Type }

func (c *circle) Type() *Type { return c.typ }
func (c *circle) Area() float64 { return 3 }

func TestRegistryAssignsSequentialIDs(t *testing.T) {
	r := NewRegistry()

	a, err := r.Register("A", nil)
	require.NoError(t, err)
	b, err := r.Register("B", a)
	require.NoError(t, err)

	assert.Equal(t, TypeID(1), a.ID())
	assert.Equal(t, TypeID(2), b.ID())
	assert.Same(t, a, b.Parent())
	assert.Equal(t, xxhash.Sum64String("B"), b.Fingerprint())
	assert.Equal(t, "B#2", b.String())
	assert.Equal(t, 2, r.Len())

	found, ok := r.Lookup("A")
	assert.True(t, ok)
	assert.Same(t, a, found)

	found, ok = r.ByID(2)
	assert.True(t, ok)
	assert.Same(t, b, found)

	_, ok = r.Lookup("missing")
	assert.False(t, ok)

	assert.Equal(t, []*Type{a, b}, r.Types())
}

func TestRegistryRejectsBadNames(t *testing.T) {
	r := NewRegistry()
	_, err := r.Register("", nil)
	assert.ErrorIs(t, err, ErrEmptyTypeName)

	_, err = r.Register("A", nil)
	require.NoError(t, err)
	_, err = r.Register("A", nil)
	assert.ErrorIs(t, err, ErrDuplicateType)

	other := NewRegistry()
	foreign := other.MustRegister("X", nil)
	_, err = r.Register("Y", foreign)
	assert.ErrorIs(t, err, ErrForeignType)

	assert.Panics(t, func() { r.MustRegister("A", nil) })
}

func TestIsAFollowsParentChain(t *testing.T) {
	r := NewRegistry()
	base := r.MustRegister("Component", nil)
	mid := r.MustRegister("Collider", base)
	leaf := r.MustRegister("BoxCollider", mid)
	other := r.MustRegister("Light", base)

	assert.True(t, leaf.IsA(leaf))
	assert.True(t, leaf.IsA(mid))
	assert.True(t, leaf.IsA(base))
	assert.False(t, leaf.IsA(other))
	assert.False(t, base.IsA(leaf))
	assert.False(t, leaf.IsA(nil))
}

func TestSecureCast(t *testing.T) {
	r := NewRegistry()
	shapes, err := DefineIn[shape](r, "Shape", nil)
	require.NoError(t, err)
	squares, err := DefineIn[*square](r, "Square", shapes.Type())
	require.NoError(t, err)
	circles, err := DefineIn[*circle](r, "Circle", shapes.Type())
	require.NoError(t, err)

	sq := &square{side: 2, typ: squares.Type()}
	ci := &circle{typ: circles.Type()}

	got, ok := SecureCast(sq, squares)
	assert.True(t, ok)
	assert.Same(t, sq, got)

	asShape, ok := SecureCast(sq, shapes)
	assert.True(t, ok)
	assert.Equal(t, 4.0, asShape.Area())

	_, ok = SecureCast(ci, squares)
	assert.False(t, ok, "identity mismatch must be absent")

	// identity claims Square but the dynamic type is not *square
	liar := &circle{typ: squares.Type()}
	_, ok = SecureCast(liar, squares)
	assert.False(t, ok)

	_, ok = SecureCast[*square](nil, squares)
	assert.False(t, ok)
}

func TestDirectCast(t *testing.T) {
	r := NewRegistry()
	squares, err := DefineIn[*square](r, "Square", nil)
	require.NoError(t, err)

	sq := &square{side: 3, typ: squares.Type()}
	assert.Equal(t, 12.0, DirectCast[*square](sq).Perimeter())

	assert.Panics(t, func() {
		_ = DirectCast[*square](&circle{})
	})
}

func TestKindAccessors(t *testing.T) {
	r := NewRegistry()
	k, err := DefineIn[*square](r, "Square", nil)
	require.NoError(t, err)
	assert.Equal(t, "Square", k.Name())
	assert.Equal(t, k.Type().ID(), k.ID())

	_, err = DefineIn[*square](r, "Square", nil)
	assert.ErrorIs(t, err, ErrDuplicateType)
}
