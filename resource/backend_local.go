package resource

import (
	"errors"
	"sync"
)

var (
	ErrClosed      = errors.New("resource backend closed")
	ErrStaleHandle = errors.New("stale or invalid resource handle")
	ErrOverflow    = errors.New("resource reference count overflow")
)

// LocalBackend is an in-memory, reference-counted slot arena.
type LocalBackend struct {
	entries  []entry
	freeList []uint32
	live     int
	mu       sync.RWMutex
	closed   bool
}

type entry struct {
	value      any
	typeID     uint32
	refs       uint32
	generation uint32
	valid      bool
}

// NewLocalBackend creates a new in-memory backend.
func NewLocalBackend() *LocalBackend {
	return &LocalBackend{
		entries:  make([]entry, 0, 64),
		freeList: make([]uint32, 0, 16),
	}
}

// Create stores a value with a reference count of one and returns a handle.
func (b *LocalBackend) Create(typeID uint32, value any) (Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrClosed
	}

	b.live++

	if n := len(b.freeList); n > 0 {
		idx := b.freeList[n-1]
		b.freeList = b.freeList[:n-1]
		e := &b.entries[idx]
		e.value = value
		e.typeID = typeID
		e.refs = 1
		e.valid = true
		return makeHandle(idx, e.generation), nil
	}

	b.entries = append(b.entries, entry{
		value:  value,
		typeID: typeID,
		refs:   1,
		valid:  true,
	})
	return makeHandle(uint32(len(b.entries)-1), 0), nil
}

// lookup returns the live entry for handle. Caller holds the lock.
func (b *LocalBackend) lookup(handle Handle) *entry {
	idx, gen, ok := handle.slot()
	if !ok || int(idx) >= len(b.entries) {
		return nil
	}
	e := &b.entries[idx]
	if !e.valid || e.generation != gen {
		return nil
	}
	return e
}

// Get retrieves a value by handle.
func (b *LocalBackend) Get(handle Handle) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e := b.lookup(handle)
	if e == nil {
		return nil, false
	}
	return e.value, true
}

// TypeID returns the type ID for a handle.
func (b *LocalBackend) TypeID(handle Handle) (uint32, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e := b.lookup(handle)
	if e == nil {
		return 0, false
	}
	return e.typeID, true
}

// RefCount returns the current reference count for a handle.
func (b *LocalBackend) RefCount(handle Handle) (uint32, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e := b.lookup(handle)
	if e == nil {
		return 0, false
	}
	return e.refs, true
}

// Retain increments the reference count for a handle.
func (b *LocalBackend) Retain(handle Handle) (uint32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e := b.lookup(handle)
	if e == nil {
		return 0, ErrStaleHandle
	}
	if e.refs == ^uint32(0) {
		return e.refs, ErrOverflow
	}
	e.refs++
	return e.refs, nil
}

// Release decrements the reference count and frees the slot at zero.
func (b *LocalBackend) Release(handle Handle) (any, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e := b.lookup(handle)
	if e == nil {
		return nil, false, ErrStaleHandle
	}
	e.refs--
	if e.refs > 0 {
		return e.value, false, nil
	}
	idx, _, _ := handle.slot()
	return b.free(idx), true, nil
}

// Drop frees a slot regardless of its reference count.
func (b *LocalBackend) Drop(handle Handle) (any, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.lookup(handle) == nil {
		return nil, false
	}
	idx, _, _ := handle.slot()
	return b.free(idx), true
}

// free invalidates a slot and bumps its generation. Caller holds the lock.
func (b *LocalBackend) free(idx uint32) any {
	e := &b.entries[idx]
	value := e.value
	e.value = nil
	e.refs = 0
	e.valid = false
	e.generation++
	b.freeList = append(b.freeList, idx)
	b.live--
	return value
}

// Close releases all resources.
func (b *LocalBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for i := range b.entries {
		if b.entries[i].valid {
			if d, ok := b.entries[i].value.(Dropper); ok {
				d.Drop()
			}
			b.entries[i].valid = false
			b.entries[i].value = nil
		}
	}

	b.entries = nil
	b.freeList = nil
	b.live = 0
	return nil
}

// Len returns the number of live slots.
func (b *LocalBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.live
}
