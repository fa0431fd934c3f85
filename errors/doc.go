// Package errors provides structured error types for the quickjs-jsi adapter.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: property path, Go/JS type names, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseMarshal, errors.KindTypeMismatch).
//		Path("config", "retries").
//		GoType("string").
//		JSType("number").
//		Detail("cannot convert string to number").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.ArgumentCount(errors.PhaseHost, 33, 32)
//	err := errors.Unsupported(errors.PhaseRuntime, "weak objects")
//
// Script exceptions are not represented here; they surface as *jsi.JSError.
// All errors implement the standard error interface and support errors.Is/As.
package errors
