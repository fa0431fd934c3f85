package resource

// Typed provides type-safe access to single-owner values of one Go type.
type Typed[T any] struct {
	table  *Table
	typeID uint32
}

// NewTyped creates a typed table whose entries are tagged with typeID.
func NewTyped[T any](typeID uint32) *Typed[T] {
	return &Typed[T]{
		table:  NewTable(),
		typeID: typeID,
	}
}

// Insert adds a value and returns its handle.
func (t *Typed[T]) Insert(value T) Handle {
	return t.table.Insert(t.typeID, value)
}

// Get retrieves a value by handle.
func (t *Typed[T]) Get(handle Handle) (T, bool) {
	var zero T
	v, ok := t.table.GetTyped(handle, t.typeID)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	return typed, ok
}

// Remove frees the slot and returns (value, true) if it was live.
func (t *Typed[T]) Remove(handle Handle) (T, bool) {
	var zero T
	v, ok := t.table.Remove(handle)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	return typed, ok
}

// Len returns the number of live values.
func (t *Typed[T]) Len() int {
	return t.table.Len()
}

// Close drops every remaining value.
func (t *Typed[T]) Close() error {
	return t.table.Close()
}
