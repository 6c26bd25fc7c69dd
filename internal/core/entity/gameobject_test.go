package entity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/scenery/internal/core/rtti"
)

var (
	healthKind = rtti.Define[*health]("entity.health", ComponentType)
	armorKind  = rtti.Define[*armor]("entity.armor", healthKind.Type())
)

type health struct {
	Base
	points   int
	disposed bool
}

func (h *health) Type() *rtti.Type { return healthKind.Type() }
func (h *health) Dispose() { h.disposed = true }

type armor struct{ Base }

func (a *armor) Type() *rtti.Type { return armorKind.Type() }

type untyped struct{ Base }

func (u *untyped) Type() *rtti.Type { return nil }

func requireViolation(t *testing.T, reason error, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected panic")
		err, ok := r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
		assert.True(t, errors.Is(err, ErrContractViolation), err.Error())
		assert.True(t, errors.Is(err, reason), err.Error())
	}()
	fn()
}

func TestNewGameObjectOwnsTransform(t *testing.T) {
	g := New("")
	assert.Equal(t, DefaultName, g.Name())
	require.NotNil(t, g.Transform())
	assert.Same(t, g, g.Transform().GameObject())
	assert.Equal(t, 1, g.ComponentsNum(TransformKind.Type()))
	assert.Same(t, g.Transform(), GetComponent(g, TransformKind))

	other := New("other")
	assert.NotEqual(t, g.ID(), other.ID())
}

func TestAddComponentBucketsInInsertionOrder(t *testing.T) {
	g := New("A")
	first := Attach(g, &health{points: 1})
	second := Attach(g, &health{points: 2})
	Create[armor](g)

	assert.Same(t, g, first.GameObject())
	assert.Equal(t, 2, g.ComponentsNum(healthKind.Type()))
	assert.Same(t, first, GetComponent(g, healthKind))

	all := GetComponents(g, healthKind)
	require.Len(t, all, 2)
	assert.Same(t, second, all[1])

	assert.Equal(t,
		[]*rtti.Type{TransformKind.Type(), healthKind.Type(), armorKind.Type()},
		g.ComponentTypes())
}

func TestRemoveComponentErasesEmptyBucket(t *testing.T) {
	g := New("A")
	first := Attach(g, &health{})
	second := Attach(g, &health{})

	removed, ok := g.RemoveComponent(healthKind.Type())
	require.True(t, ok)
	assert.Same(t, first, removed)
	assert.True(t, first.disposed)
	assert.False(t, first.Attached())
	assert.Nil(t, first.Transform())
	assert.Same(t, g, first.GameObject())
	assert.True(t, second.Attached())
	assert.Same(t, second, GetComponent(g, healthKind))

	_, ok = g.RemoveComponent(healthKind.Type())
	require.True(t, ok)
	assert.Equal(t, 0, g.ComponentsNum(healthKind.Type()))
	assert.False(t, g.HasComponent(healthKind.Type()))
	for typ := range g.All() {
		assert.NotEqual(t, healthKind.Type(), typ)
	}

	_, ok = g.RemoveComponent(healthKind.Type())
	assert.False(t, ok)
}

func TestComponentContractViolations(t *testing.T) {
	g := New("A")

	requireViolation(t, ErrNilComponent, func() { g.AddComponent(nil) })
	requireViolation(t, ErrUntypedComponent, func() { g.AddComponent(&untyped{}) })
	requireViolation(t, ErrComponentNotFound, func() { GetComponent(g, healthKind) })
	requireViolation(t, ErrTransformRemoval, func() { g.RemoveComponent(TransformKind.Type()) })

	h := Attach(g, &health{})
	requireViolation(t, ErrAlreadyAttached, func() { New("B").AddComponent(h) })
}

func TestTryGetComponent(t *testing.T) {
	g := New("A")
	_, ok := TryGetComponent(g, healthKind)
	assert.False(t, ok)

	h := Attach(g, &health{points: 3})
	got, ok := TryGetComponent(g, healthKind)
	require.True(t, ok)
	assert.Equal(t, 3, got.points)
	assert.Same(t, h, got)
}

func TestComponentsReturnsCopy(t *testing.T) {
	g := New("A")
	Attach(g, &health{})
	list := g.Components(healthKind.Type())
	list[0] = nil
	assert.NotNil(t, GetComponent(g, healthKind))
	assert.Empty(t, g.Components(armorKind.Type()))
}

func TestGameObjectFindChild(t *testing.T) {
	root := New("root")
	mid := New("mid")
	leaf := New("leaf")
	root.Transform().Add(mid.Transform())
	mid.Transform().Add(leaf.Transform())

	found, ok := root.FindChild("leaf")
	require.True(t, ok)
	assert.Same(t, leaf, found)
	assert.True(t, root.HasChild("mid"))
	assert.False(t, root.HasChild("root"))
	assert.Equal(t, []*GameObject{mid}, root.Children())

	_, ok = leaf.FindChild("root")
	assert.False(t, ok)
}

func TestDestroyDisposesAndDetaches(t *testing.T) {
	parent := New("parent")
	g := New("g")
	child := New("child")
	parent.Transform().Add(g.Transform())
	g.Transform().Add(child.Transform())
	h := Attach(g, &health{})

	g.Destroy()

	assert.True(t, g.IsDestroyed())
	assert.True(t, h.disposed)
	assert.False(t, h.Attached())
	assert.Nil(t, g.Transform())
	assert.Nil(t, g.Children())
	assert.False(t, parent.Transform().HasChildren())
	assert.False(t, child.Transform().HasParent())
	assert.Same(t, child.Transform(), child.Transform().Root())

	requireViolation(t, ErrDestroyed, func() { g.AddComponent(&armor{}) })
	g.Destroy()
}
