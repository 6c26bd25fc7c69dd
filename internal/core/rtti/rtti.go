// Package rtti gives every component kind an explicit run-time identity.
//
// Identity is a registered name plus a numeric id that is unique per registry
// (and therefore per process run for the default registry). Kinds may declare a
// parent type, forming an is-a chain used by checked downcasts. Lookup and
// grouping of components are driven by this identity rather than by Go's
// dynamic type inspection.
package rtti

import (
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// TypeID is the numeric identity of a registered type.
type TypeID uint32

// Type describes one registered kind.
type Type struct {
	name        string
	id          TypeID
	parent      *Type
	fingerprint uint64
}

func (t *Type) Name() string { return t.name }
func (t *Type) ID() TypeID { return t.id }
func (t *Type) Parent() *Type { return t.parent }

// Fingerprint is a hash of the type name. Unlike ID it is stable across runs.
func (t *Type) Fingerprint() uint64 { return t.fingerprint }

// IsA reports whether t is other or derives from it.
func (t *Type) IsA(other *Type) bool {
	if other == nil {
		return false
	}
	for cur := t; cur != nil; cur = cur.parent {
		if cur == other {
			return true
		}
	}
	return false
}

func (t *Type) String() string {
	return fmt.Sprintf("%s#%d", t.name, t.id)
}

// Identified is implemented by every value carrying a registered identity.
type Identified interface {
	Type() *Type
}

// Registry assigns ids to type names. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*Type
	byID   map[TypeID]*Type
	order  []*Type
	nextID TypeID
}

// NewRegistry creates an empty registry. Ids start at 1; 0 is never assigned.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*Type),
		byID:   make(map[TypeID]*Type),
		nextID: 1,
	}
}

// Register adds a new type name under an optional parent.
func (r *Registry) Register(name string, parent *Type) (*Type, error) {
	if name == "" {
		return nil, ErrEmptyTypeName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[name]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateType, name)
	}
	if parent != nil {
		if owned, ok := r.byID[parent.id]; !ok || owned != parent {
			return nil, fmt.Errorf("%w: parent %s of %s", ErrForeignType, parent.name, name)
		}
	}

	t := &Type{
		name:        name,
		id:          r.nextID,
		parent:      parent,
		fingerprint: xxhash.Sum64String(name),
	}
	r.nextID++
	r.byName[name] = t
	r.byID[t.id] = t
	r.order = append(r.order, t)
	return t, nil
}

// MustRegister is Register that panics on error. Meant for package-level vars.
func (r *Registry) MustRegister(name string, parent *Type) *Type {
	t, err := r.Register(name, parent)
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup finds a type by name.
func (r *Registry) Lookup(name string) (*Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byName[name]
	return t, ok
}

// ByID finds a type by numeric id.
func (r *Registry) ByID(id TypeID) (*Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byID[id]
	return t, ok
}

// Types returns all registered types in registration order.
func (r *Registry) Types() []*Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Type, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry used by Define.
func Default() *Registry { return defaultRegistry }
