// Package option carries values that may legitimately be absent, keeping
// absence distinct from failure. Lookups that can miss return an Option;
// operations that can fail return an error.
package option

// Option holds either a value or nothing. The zero value is None.
type Option[T any] struct {
	value T
	some  bool
}

// Some wraps a present value.
func Some[T any](v T) Option[T] {
	return Option[T]{value: v, some: true}
}

// None is the absent value.
func None[T any]() Option[T] {
	return Option[T]{}
}

func (o Option[T]) IsSome() bool { return o.some }

func (o Option[T]) IsNone() bool { return !o.some }

// Get returns the contained value and whether it is present. The value is
// the zero value when absent.
func (o Option[T]) Get() (T, bool) {
	return o.value, o.some
}

// GetOr returns the contained value, or fallback when absent.
func (o Option[T]) GetOr(fallback T) T {
	if o.some {
		return o.value
	}
	return fallback
}
