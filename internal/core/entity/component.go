package entity

import "github.com/zeusync/scenery/internal/core/rtti"

// ComponentType is the root of every component kind's is-a chain.
var ComponentType = rtti.Default().MustRegister("Component", nil)

// Component is an attachable unit of behaviour or data owned by exactly one
// GameObject. Concrete kinds embed Base and implement Type, returning the
// identity of their package-level rtti.Kind.
type Component interface {
	rtti.Identified

	GameObject() *GameObject
	// Attached reports whether the component is still part of its owner. It
	// turns false for good once the component is removed or the owner destroyed.
	Attached() bool

	// Awake runs when the owning object is queued into a scene.
	Awake()
	// Start runs when the object becomes live, before its first Update.
	Start()
	Update()
	// Finish runs when the object leaves the live set.
	Finish()
	// Sleep runs when the object is queued for removal.
	Sleep()

	bind(owner *GameObject)
	detach()
}

// Disposer is implemented by components holding resources that must be
// released when the component is removed or its object destroyed.
type Disposer interface {
	Dispose()
}

// Base provides the owner back-reference and no-op lifecycle hooks.
// A Base must not be copied after it has been attached.
type Base struct {
	owner    *GameObject
	detached bool
}

func (b *Base) GameObject() *GameObject { return b.owner }
func (b *Base) Attached() bool { return b.owner != nil && !b.detached }

// Transform returns the owner's transform, or nil while unattached.
func (b *Base) Transform() *Transform {
	if !b.Attached() {
		return nil
	}
	return b.owner.transform
}

func (b *Base) Awake() {}
func (b *Base) Start() {}
func (b *Base) Update() {}
func (b *Base) Finish() {}
func (b *Base) Sleep() {}

func (b *Base) bind(owner *GameObject) {
	if b.owner != nil {
		violate(ErrAlreadyAttached, "owned by %q", b.owner.name)
	}
	b.owner = owner
}

func (b *Base) detach() { b.detached = true }

// release detaches c from its owner and disposes it.
func release(c Component) {
	c.detach()
	if d, ok := c.(Disposer); ok {
		d.Dispose()
	}
}
