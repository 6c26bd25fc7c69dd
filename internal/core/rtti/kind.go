package rtti

// Kind binds a Go type T to its registered Type. Component kinds declare one
// package-level Kind and return Kind.Type() from their Type method.
type Kind[T any] struct {
	typ *Type
}

// Define registers name in the default registry and returns a typed handle.
// It panics on a duplicate name; kinds are defined once, at package init.
func Define[T any](name string, parent *Type) *Kind[T] {
	k, err := DefineIn[T](defaultRegistry, name, parent)
	if err != nil {
		panic(err)
	}
	return k
}

// DefineIn registers name in r and returns a typed handle.
func DefineIn[T any](r *Registry, name string, parent *Type) (*Kind[T], error) {
	t, err := r.Register(name, parent)
	if err != nil {
		return nil, err
	}
	return &Kind[T]{typ: t}, nil
}

func (k *Kind[T]) Type() *Type { return k.typ }
func (k *Kind[T]) Name() string { return k.typ.name }
func (k *Kind[T]) ID() TypeID { return k.typ.id }

// SecureCast is the checked downcast. It returns false when v is nil, when its
// registered identity is not-a k, or when its dynamic type is not T.
func SecureCast[T any](v Identified, k *Kind[T]) (T, bool) {
	var zero T
	if v == nil || k == nil {
		return zero, false
	}
	if t := v.Type(); t == nil || !t.IsA(k.typ) {
		return zero, false
	}
	out, ok := v.(T)
	if !ok {
		return zero, false
	}
	return out, true
}

// DirectCast is the unchecked downcast for hot paths. It never consults the
// registry: the caller asserts that v is a T, and a wrong assertion panics.
func DirectCast[T any](v Identified) T {
	return v.(T)
}
