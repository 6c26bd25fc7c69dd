package entity

import (
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/zeusync/scenery/internal/core/rtti"
)

// TransformKind identifies the Transform component.
var TransformKind = rtti.Define[*Transform]("Transform", ComponentType)

// Transform places its GameObject in the scene hierarchy. It caches the local
// matrix composed from position, rotation and scale, and the world matrix
// parent.world * local. Every mutation recomputes the whole subtree eagerly.
//
// Parent, root and children are non-owning: each child transform belongs to
// its own GameObject.
type Transform struct {
	Base

	local mgl64.Mat4
	world mgl64.Mat4

	position mgl64.Vec3
	rotation mgl64.Quat
	scale    mgl64.Vec3

	parent   *Transform
	root     *Transform // nil while parentless; Root() then returns the transform itself
	children []*Transform
}

func newTransform() *Transform {
	t := &Transform{}
	t.resetLocal()
	return t
}

func (t *Transform) Type() *rtti.Type { return TransformKind.Type() }

func (t *Transform) LocalMatrix() mgl64.Mat4 { return t.local }
func (t *Transform) WorldMatrix() mgl64.Mat4 { return t.world }

// SetLocalMatrix replaces the local matrix and resynchronises the cached
// position, rotation and scale from it. The matrix is kept as given.
func (t *Transform) SetLocalMatrix(m mgl64.Mat4) {
	t.local = m
	t.position, t.rotation, t.scale = decompose(m)
	t.refreshWorld()
}

func (t *Transform) LocalPosition() mgl64.Vec3 { return t.position }
func (t *Transform) LocalRotation() mgl64.Quat { return t.rotation }
func (t *Transform) LocalScale() mgl64.Vec3 { return t.scale }

func (t *Transform) SetLocalPosition(p mgl64.Vec3) {
	t.position = p
	t.calculateTransforms()
}

func (t *Transform) SetLocalRotation(q mgl64.Quat) {
	t.rotation = q
	t.calculateTransforms()
}

func (t *Transform) SetLocalScale(s mgl64.Vec3) {
	t.scale = s
	t.calculateTransforms()
}

// Position is the world-space position.
func (t *Transform) Position() mgl64.Vec3 {
	return t.world.Col(3).Vec3()
}

// TransformPosition applies the local matrix to point.
func (t *Transform) TransformPosition(point mgl64.Vec3) mgl64.Vec3 {
	return mgl64.TransformCoordinate(point, t.local)
}

func (t *Transform) Parent() *Transform { return t.parent }
func (t *Transform) HasParent() bool { return t.parent != nil }

// Root returns the topmost ancestor, or t itself when it has no parent.
func (t *Transform) Root() *Transform {
	if t.root == nil {
		return t
	}
	return t.root
}

func (t *Transform) HasChildren() bool { return len(t.children) > 0 }
func (t *Transform) ChildCount() int { return len(t.children) }

// Children returns a copy of the ordered child list.
func (t *Transform) Children() []*Transform {
	return slices.Clone(t.children)
}

func (t *Transform) HasChild(child *Transform) bool {
	return slices.Contains(t.children, child)
}

// SetParent re-parents t under p. It is a no-op when p already is the parent.
// A nil p, or a p inside t's own subtree, is a contract violation; use
// Unparent to detach.
func (t *Transform) SetParent(p *Transform) {
	if p == nil {
		violate(ErrNilTransform, "SetParent(nil) on %s; use Unparent", t.ownerName())
	}
	if t.parent == p {
		return
	}
	if p == t || p.descendsFrom(t) {
		violate(ErrHierarchyCycle, "%s under %s", t.ownerName(), p.ownerName())
	}

	if t.parent != nil {
		t.parent.removeChild(t)
	}
	t.parent = p
	if !p.HasChild(t) {
		p.children = append(p.children, t)
	}

	t.setRoot(p.Root())
	t.refreshWorld()
}

// Unparent detaches t from its parent. t becomes the root of its subtree and
// its world matrix equals its local matrix.
func (t *Transform) Unparent() {
	if t.parent == nil {
		return
	}
	t.parent.removeChild(t)
	t.parent = nil
	t.root = nil
	for _, child := range t.children {
		child.setRoot(t)
	}
	t.refreshWorld()
}

// Add makes child a direct child of t. Adding an existing child does nothing.
func (t *Transform) Add(child *Transform) {
	if child == nil {
		violate(ErrNilTransform, "Add(nil) on %s", t.ownerName())
	}
	child.SetParent(t)
}

// Remove detaches child if it is a direct child of t.
func (t *Transform) Remove(child *Transform) {
	if child == nil {
		violate(ErrNilTransform, "Remove(nil) on %s", t.ownerName())
	}
	if child.parent == t {
		child.Unparent()
	}
}

// FindChild searches the subtree depth-first for a transform whose owner has
// the given name.
func (t *Transform) FindChild(name string) (*Transform, bool) {
	for _, child := range t.children {
		if child.owner != nil && child.owner.name == name {
			return child, true
		}
		if found, ok := child.FindChild(name); ok {
			return found, true
		}
	}
	return nil, false
}

// Reset restores identity local state and detaches t from its parent and
// from its children.
func (t *Transform) Reset() {
	t.Unparent()
	for _, child := range slices.Clone(t.children) {
		child.Unparent()
	}
	t.resetLocal()
}

func (t *Transform) resetLocal() {
	t.position = mgl64.Vec3{}
	t.rotation = mgl64.QuatIdent()
	t.scale = mgl64.Vec3{1, 1, 1}
	t.local = mgl64.Ident4()
	t.world = mgl64.Ident4()
}

func (t *Transform) removeChild(child *Transform) {
	if i := slices.Index(t.children, child); i >= 0 {
		t.children = slices.Delete(t.children, i, i+1)
	}
}

func (t *Transform) descendsFrom(ancestor *Transform) bool {
	for cur := t.parent; cur != nil; cur = cur.parent {
		if cur == ancestor {
			return true
		}
	}
	return false
}

func (t *Transform) setRoot(root *Transform) {
	t.root = root
	for _, child := range t.children {
		child.setRoot(root)
	}
}

func (t *Transform) calculateTransforms() {
	t.local = compose(t.position, t.rotation, t.scale)
	t.refreshWorld()
}

// refreshWorld recomputes t.world from the parent's cached world matrix and
// recurses into the subtree.
func (t *Transform) refreshWorld() {
	if t.parent != nil {
		t.world = t.parent.world.Mul4(t.local)
	} else {
		t.world = t.local
	}
	for _, child := range t.children {
		child.refreshWorld()
	}
}

func (t *Transform) ownerName() string {
	if t.owner == nil {
		return "<detached transform>"
	}
	return t.owner.name
}

func compose(position mgl64.Vec3, rotation mgl64.Quat, scale mgl64.Vec3) mgl64.Mat4 {
	return mgl64.Translate3D(position.X(), position.Y(), position.Z()).
		Mul4(rotation.Normalize().Mat4()).
		Mul4(mgl64.Scale3D(scale.X(), scale.Y(), scale.Z()))
}

// decompose splits an affine T*R*S matrix. A negative determinant is folded
// into the x scale.
func decompose(m mgl64.Mat4) (mgl64.Vec3, mgl64.Quat, mgl64.Vec3) {
	position := m.Col(3).Vec3()

	c0, c1, c2 := m.Col(0).Vec3(), m.Col(1).Vec3(), m.Col(2).Vec3()
	scale := mgl64.Vec3{c0.Len(), c1.Len(), c2.Len()}
	if c0.Dot(c1.Cross(c2)) < 0 {
		scale[0] = -scale[0]
	}
	if scale[0] == 0 || scale[1] == 0 || scale[2] == 0 {
		return position, mgl64.QuatIdent(), scale
	}

	c0, c1, c2 = c0.Mul(1/scale[0]), c1.Mul(1/scale[1]), c2.Mul(1/scale[2])
	basis := mgl64.Mat4{
		c0[0], c0[1], c0[2], 0,
		c1[0], c1[1], c1[2], 0,
		c2[0], c2[1], c2[2], 0,
		0, 0, 0, 1,
	}
	return position, mgl64.Mat4ToQuat(basis).Normalize(), scale
}
