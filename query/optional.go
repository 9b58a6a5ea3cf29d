package query

// Optional is a value that may still be loading. The zero value is pending.
type Optional[T any] struct {
	Value    T
	Resolved bool
}

func Resolved[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Resolved: true}
}

func Pending[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is resolved.
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Resolved
}
