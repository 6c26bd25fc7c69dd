package entity

import (
	"iter"
	"slices"

	"github.com/google/uuid"
	"github.com/zeusync/scenery/internal/core/rtti"
	"github.com/zeusync/scenery/pkg/sequence"
)

// DefaultName is given to game objects created without a name.
const DefaultName = "GameObject"

// GameObject is a named container of components. It always owns one
// Transform. Components are bucketed by type id in insertion order; the first
// component of a bucket is the primary instance returned by single lookups.
// A bucket that becomes empty is removed from the table.
type GameObject struct {
	id         uuid.UUID
	name       string
	transform  *Transform
	components *sequence.OrderedMap[rtti.TypeID, []Component]
	destroyed  bool
}

// New creates a standalone game object with its Transform attached.
func New(name string) *GameObject {
	if name == "" {
		name = DefaultName
	}
	g := &GameObject{
		id:         uuid.New(),
		name:       name,
		components: sequence.NewOrderedMap[rtti.TypeID, []Component](),
	}
	g.transform = Attach(g, newTransform())
	return g
}

func (g *GameObject) ID() uuid.UUID { return g.id }
func (g *GameObject) Name() string { return g.name }
func (g *GameObject) SetName(name string) { g.name = name }
func (g *GameObject) Transform() *Transform { return g.transform }
func (g *GameObject) IsDestroyed() bool { return g.destroyed }
func (g *GameObject) String() string { return g.name + "/" + g.id.String()[:8] }

// AddComponent attaches c to g and appends it to the bucket of its type.
func (g *GameObject) AddComponent(c Component) Component {
	g.mustBeAlive("AddComponent")
	if c == nil {
		violate(ErrNilComponent, "AddComponent on %q", g.name)
	}
	t := c.Type()
	if t == nil {
		violate(ErrUntypedComponent, "AddComponent %T on %q", c, g.name)
	}

	c.bind(g)
	list, _ := g.components.Get(t.ID())
	g.components.Set(t.ID(), append(list, c))
	return c
}

// Attach adds c to g and returns it with its concrete type.
func Attach[T Component](g *GameObject, c T) T {
	g.AddComponent(c)
	return c
}

// Create allocates a zero-valued component of type T and attaches it.
func Create[T any, PT interface {
	*T
	Component
}](g *GameObject) PT {
	c := PT(new(T))
	g.AddComponent(c)
	return c
}

// RemoveComponent removes the first component registered under t, detaches and
// disposes it. A detached component receives no further scene hooks. It
// reports false when g has no component of that type.
func (g *GameObject) RemoveComponent(t *rtti.Type) (Component, bool) {
	g.mustBeAlive("RemoveComponent")
	if t == TransformKind.Type() {
		violate(ErrTransformRemoval, "on %q", g.name)
	}

	list, ok := g.components.Get(t.ID())
	if !ok {
		return nil, false
	}
	c := list[0]
	list = slices.Delete(list, 0, 1)
	if len(list) == 0 {
		g.components.Delete(t.ID())
	} else {
		g.components.Set(t.ID(), list)
	}

	release(c)
	return c, true
}

// ComponentsNum returns the number of components of type t, zero when the
// type has no bucket.
func (g *GameObject) ComponentsNum(t *rtti.Type) int {
	list, _ := g.components.Get(t.ID())
	return len(list)
}

// HasComponent reports whether t has a bucket on g.
func (g *GameObject) HasComponent(t *rtti.Type) bool {
	return g.components.Has(t.ID())
}

// Components returns a copy of the bucket for t.
func (g *GameObject) Components(t *rtti.Type) []Component {
	list, _ := g.components.Get(t.ID())
	return slices.Clone(list)
}

// ComponentTypes lists the types present on g in first-insertion order.
func (g *GameObject) ComponentTypes() []*rtti.Type {
	types := make([]*rtti.Type, 0, g.components.Len())
	for _, list := range g.components.All() {
		types = append(types, list[0].Type())
	}
	return types
}

// All iterates the component table bucket by bucket. The yielded slices are
// owned by g and must not be modified.
func (g *GameObject) All() iter.Seq2[*rtti.Type, []Component] {
	return func(yield func(*rtti.Type, []Component) bool) {
		for _, list := range g.components.All() {
			if !yield(list[0].Type(), list) {
				return
			}
		}
	}
}

// GetComponent returns the primary component of kind k. Asking for a kind g
// does not carry is a contract violation; see TryGetComponent.
func GetComponent[T Component](g *GameObject, k *rtti.Kind[T]) T {
	list, ok := g.components.Get(k.ID())
	if !ok {
		violate(ErrComponentNotFound, "%s on %q", k.Name(), g.name)
	}
	return rtti.DirectCast[T](list[0])
}

// GetComponents returns every component of kind k in insertion order.
func GetComponents[T Component](g *GameObject, k *rtti.Kind[T]) []T {
	list, ok := g.components.Get(k.ID())
	if !ok {
		violate(ErrComponentNotFound, "%s on %q", k.Name(), g.name)
	}
	out := make([]T, len(list))
	for i, c := range list {
		out[i] = rtti.DirectCast[T](c)
	}
	return out
}

// TryGetComponent is the checked form of GetComponent.
func TryGetComponent[T Component](g *GameObject, k *rtti.Kind[T]) (T, bool) {
	list, ok := g.components.Get(k.ID())
	if !ok {
		var zero T
		return zero, false
	}
	return rtti.SecureCast(list[0], k)
}

// FindChild searches the transform subtree depth-first for an object named name.
func (g *GameObject) FindChild(name string) (*GameObject, bool) {
	g.mustBeAlive("FindChild")
	t, ok := g.transform.FindChild(name)
	if !ok {
		return nil, false
	}
	return t.owner, true
}

func (g *GameObject) HasChild(name string) bool {
	_, ok := g.FindChild(name)
	return ok
}

// Children returns the owners of the direct child transforms.
func (g *GameObject) Children() []*GameObject {
	if g.transform == nil {
		return nil
	}
	out := make([]*GameObject, 0, len(g.transform.children))
	for _, child := range g.transform.children {
		out = append(out, child.owner)
	}
	return out
}

// Destroy detaches g from the hierarchy, disposes every component including
// the Transform and clears the table. Child objects become roots.
func (g *GameObject) Destroy() {
	if g.destroyed {
		return
	}
	g.transform.Reset()

	for _, list := range g.components.All() {
		for _, c := range list {
			release(c)
		}
	}
	g.components.Clear()
	g.transform = nil
	g.destroyed = true
}

func (g *GameObject) mustBeAlive(op string) {
	if g.destroyed {
		violate(ErrDestroyed, "%s on %q", op, g.name)
	}
}
