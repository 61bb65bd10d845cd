package reuse

// Arena stores values behind stable 1-based uint32 handles. Handle 0 is
// reserved for "no value".
type Arena[T any] struct {
	data []T
}

// NewArena creates an arena whose storage is preallocated for capHint values.
func NewArena[T any](capHint uint) *Arena[T] {
	return &Arena[T]{
		data: make([]T, 0, capHint),
	}
}

// Allocate appends value and returns its handle.
func (a *Arena[T]) Allocate(value T) uint32 {
	a.data = append(a.data, value)
	return uint32(len(a.data))
}

// Get returns a pointer to the value behind index, or nil for handle 0 and
// out-of-range handles.
func (a *Arena[T]) Get(index uint32) *T {
	if index == 0 || int(index) > len(a.data) {
		return nil
	}
	return &a.data[index-1]
}

// Slice exposes the backing storage; READONLY.
func (a *Arena[T]) Slice() []T {
	return a.data
}

// Len returns the number of stored values.
func (a *Arena[T]) Len() uint32 {
	return uint32(len(a.data))
}

// Reset drops all values while keeping the allocated storage.
func (a *Arena[T]) Reset() {
	clear(a.data)
	a.data = a.data[:0]
}
