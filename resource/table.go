package resource

import (
	"sync"
)

// Table manages reference-counted values with type information and observer
// support.
type Table struct {
	backend   *LocalBackend
	observers []Observer
	obsMu     sync.RWMutex
	closed    bool
	closeMu   sync.RWMutex
}

// NewTable creates a new table with a LocalBackend.
func NewTable() *Table {
	return &Table{
		backend: NewLocalBackend(),
	}
}

// Insert adds a value with a reference count of one and returns its handle.
// It returns 0 once the table is closed.
func (t *Table) Insert(typeID uint32, value any) Handle {
	t.closeMu.RLock()
	if t.closed {
		t.closeMu.RUnlock()
		return 0
	}
	t.closeMu.RUnlock()

	handle, err := t.backend.Create(typeID, value)
	if err != nil {
		return 0
	}

	t.notify(Event{
		Type:     EventCreated,
		Handle:   handle,
		TypeID:   typeID,
		Value:    value,
		RefCount: 1,
	})

	return handle
}

// Get retrieves a value by handle.
func (t *Table) Get(handle Handle) (any, bool) {
	return t.backend.Get(handle)
}

// GetTyped retrieves a value only if it matches the expected type.
func (t *Table) GetTyped(handle Handle, typeID uint32) (any, bool) {
	actualTypeID, ok := t.backend.TypeID(handle)
	if !ok || actualTypeID != typeID {
		return nil, false
	}
	return t.backend.Get(handle)
}

// RefCount returns the reference count of a live handle.
func (t *Table) RefCount(handle Handle) (uint32, bool) {
	return t.backend.RefCount(handle)
}

// Retain adds a reference to handle.
func (t *Table) Retain(handle Handle) error {
	refs, err := t.backend.Retain(handle)
	if err != nil {
		return err
	}
	typeID, _ := t.backend.TypeID(handle)
	t.notify(Event{
		Type:     EventRetained,
		Handle:   handle,
		TypeID:   typeID,
		RefCount: refs,
	})
	return nil
}

// Release drops one reference to handle. When the last reference goes the
// slot is freed, Dropper values are notified and freed is true.
func (t *Table) Release(handle Handle) (freed bool, err error) {
	typeID, _ := t.backend.TypeID(handle)
	value, freed, err := t.backend.Release(handle)
	if err != nil {
		return false, err
	}

	if !freed {
		refs, _ := t.backend.RefCount(handle)
		t.notify(Event{
			Type:     EventReleased,
			Handle:   handle,
			TypeID:   typeID,
			RefCount: refs,
		})
		return false, nil
	}

	if d, ok := value.(Dropper); ok {
		d.Drop()
	}
	t.notify(Event{
		Type:   EventDropped,
		Handle: handle,
		TypeID: typeID,
		Value:  value,
	})
	return true, nil
}

// Remove frees a slot regardless of its reference count and returns
// (value, true) if it was live.
func (t *Table) Remove(handle Handle) (any, bool) {
	typeID, _ := t.backend.TypeID(handle)
	value, ok := t.backend.Drop(handle)
	if !ok {
		return nil, false
	}

	if d, ok := value.(Dropper); ok {
		d.Drop()
	}

	t.notify(Event{
		Type:   EventDropped,
		Handle: handle,
		TypeID: typeID,
		Value:  value,
	})

	return value, true
}

// Subscribe adds an observer for lifecycle events.
func (t *Table) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Len returns the number of live values.
func (t *Table) Len() int {
	return t.backend.Len()
}

// Close releases all values and stops accepting operations.
func (t *Table) Close() error {
	t.closeMu.Lock()
	t.closed = true
	t.closeMu.Unlock()

	return t.backend.Close()
}

func (t *Table) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnResourceEvent(e)
	}
}
