package gfx

import "strconv"

type registryEntry[T any] struct {
	value T
	refs  int
}

// Registry maps resource names to reference counted values. Backends use it
// so that creating an existing name hands out the same resource and the
// resource is released only when the last holder drops it.
//
// Registry is not safe for concurrent use; resources are created and dropped
// on the rendering thread.
type Registry[T any] struct {
	entries   map[string]*registryEntry[T]
	anonymous int
}

// NewRegistry creates an empty registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{entries: make(map[string]*registryEntry[T])}
}

// Acquire returns the value registered under name and takes a reference. If
// the name is unknown, create is called and its result registered with one
// reference. The empty name always creates a new anonymous entry; the key it
// was stored under is returned.
func (r *Registry[T]) Acquire(name string, create func(key string) T) (value T, key string, created bool) {
	if name == "" {
		r.anonymous++
		name = "#" + strconv.Itoa(r.anonymous)
	}

	if e, ok := r.entries[name]; ok {
		e.refs++
		return e.value, name, false
	}

	v := create(name)
	r.entries[name] = &registryEntry[T]{value: v, refs: 1}

	return v, name, true
}

// Release drops one reference to key. It returns the value and true when that
// was the last reference and the caller must free the resource. Releasing an
// unknown key reports ok == false.
func (r *Registry[T]) Release(key string) (value T, last bool, ok bool) {
	e, ok := r.entries[key]
	if !ok {
		return value, false, false
	}

	e.refs--
	if e.refs > 0 {
		return e.value, false, true
	}

	delete(r.entries, key)
	return e.value, true, true
}

// Lookup returns the value registered under key without taking a reference.
func (r *Registry[T]) Lookup(key string) (T, bool) {
	e, ok := r.entries[key]
	if !ok {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Refs returns the reference count of key, zero if unknown.
func (r *Registry[T]) Refs(key string) int {
	if e, ok := r.entries[key]; ok {
		return e.refs
	}
	return 0
}

// Len returns the number of live entries.
func (r *Registry[T]) Len() int {
	return len(r.entries)
}
