// Package engine provides the native script engine used by the adapter.
//
// The API follows the QuickJS embedding model on top of the goja ECMAScript
// interpreter: tagged values with explicit reference counting, interned
// atoms, classes with exotic property hooks and finalizers, a single pending
// exception per context and a deferred job queue.
//
// # Values
//
// Immediate values (int, float64, bool, null, undefined) carry their payload
// in place. Strings, symbols, objects and bigints live in the runtime's value
// table and are addressed by a generation-checked handle:
//
//	v := ctx.Eval("({a: 1})", "<input>")
//	if v.IsException() {
//	    exc := ctx.GetException()
//	    defer ctx.FreeValue(exc)
//	}
//	defer ctx.FreeValue(v)
//
// Every owner calls FreeValue exactly once; DupValue adds an owner. Objects
// are interned, so all live references to one object share a count.
// Freeing a dead handle is logged and never touches a reused slot.
//
// # Ownership Conventions
//
//	Eval, Get*, Call*, New*      return owned values
//	SetProperty*, Define*, Throw take ownership of the value argument
//	everything else              borrows its arguments
//
// Class hooks receive borrowed values and return owned values.
//
// # Classes
//
// NewClassID allocates a process-wide id; NewClass registers a ClassDef with
// one runtime. Instances with ExoticMethods are goja dynamic objects; instances
// with a Call hook are native functions. Finalizers are queued by the Go
// collector and run on the owning goroutine from RunGC, ExecutePendingJob and
// Context.Free, each exactly once.
//
// # Jobs
//
// EnqueueJob and the queueMicrotask global feed a FIFO queue drained by
// ExecutePendingJob. Promise reactions never enter that queue: goja runs them
// when the outermost Eval or Call returns, including when it threw.
//
// # Thread Safety
//
// Runtime and Context are NOT thread-safe and must be used by one goroutine.
package engine
