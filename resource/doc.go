// Package resource provides the reference-counted handle tables that back
// native engine values, atoms and adapter side tables.
//
// Values are stored in slots and addressed by a Handle. A handle packs the
// slot index together with a generation counter, so a handle that outlives its
// slot never aliases whatever value later reuses that slot.
//
// # Reference Counting
//
// Every slot starts with a reference count of one:
//
//	table := resource.NewTable()
//
//	h := table.Insert(typeID, value) // refs = 1
//	table.Retain(h)                  // refs = 2
//	table.Release(h)                 // refs = 1
//	table.Release(h)                 // refs = 0, slot freed
//	table.Release(h)                 // ErrStaleHandle, nothing else touched
//
// Remove frees a slot regardless of its reference count; it is used at
// teardown and for single-owner side tables.
//
// # Typed Tables
//
// Typed wraps a Table for single-owner values of one Go type:
//
//	procs := resource.NewTyped[*proxy](typeID)
//	h := procs.Insert(p)
//	p, ok := procs.Get(h)
//	p, ok = procs.Remove(h)
//
// # Observers
//
// Register observers to track lifecycle events:
//
//	table.Subscribe(observer)
//
// Events are emitted for creation, retain, release and drop.
//
// # Memory Management
//
// Values are not garbage collected by the table. Whoever holds a reference
// must release it exactly once. Values implementing Dropper are notified when
// their slot is freed, and Close drops everything that is still alive.
package resource
