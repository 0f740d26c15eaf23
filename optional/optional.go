// Package optional implements a value which may or may not be present.
package optional

// Optional holds a value of type T which may be unset. The zero value is an
// unset Optional.
type Optional[T any] struct {
	value T
	set   bool
}

// Of returns an Optional which holds v.
func Of[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// Set stores v and marks the optional as having a value.
func (o *Optional[T]) Set(v T) {
	o.value = v
	o.set = true
}

// Clear removes the stored value.
func (o *Optional[T]) Clear() {
	var zero T
	o.value = zero
	o.set = false
}

// HasValue returns true if a value has been set.
func (o Optional[T]) HasValue() bool {
	return o.set
}

// Get returns the stored value. It returns the zero value of T when nothing has
// been set, so callers are expected to check HasValue first.
func (o Optional[T]) Get() T {
	return o.value
}

// GetOr returns the stored value or def when nothing has been set.
func (o Optional[T]) GetOr(def T) T {
	if !o.set {
		return def
	}
	return o.value
}
