// Package jsi defines the engine-neutral interface used to embed a
// JavaScript engine in Go applications.
//
// A Runtime evaluates scripts and manipulates values through handles.
// Symbol, String, Object (and its Array and Function views), PropNameID and
// WeakObject are pointer handles: each owns one engine reference and must be
// released exactly once. Value holds either an immediate (undefined, null,
// boolean, number) or one pointer handle.
//
//	v, err := rt.EvaluateJavaScript(jsi.StringBuffer("1 + 2"), "sum.js")
//	if err != nil {
//	    var jsErr *jsi.JSError
//	    if errors.As(err, &jsErr) {
//	        log.Println(jsErr.Message, jsErr.Stack)
//	    }
//	    return err
//	}
//	defer v.Release()
//
// Handles are cheap values; copies share the reference, so release only one
// of them. Clone (or Runtime.Clone*) creates an independently owned copy.
//
// # Extension Points
//
// HostObject implements property access of a JS object in Go and
// HostFunction implements a JS function. Both receive borrowed arguments and
// return owned results. Errors returned from them are thrown into
// JavaScript; *JSError keeps its message and stack.
package jsi
