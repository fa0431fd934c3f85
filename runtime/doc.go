// Package runtime implements jsi.Runtime on the engine package.
//
// # Quick Start
//
//	rt, err := runtime.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close()
//
//	v, err := rt.EvaluateJavaScript(jsi.StringBuffer("`result is ${2 + 2}`"), "main.js")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer v.Release()
//
//	s, _ := rt.StringUTF8(v.AsString())
//	fmt.Println(s) // "result is 4"
//
// # Handles
//
// Every jsi handle returned by a Runtime owns one reference in the engine's
// value or atom table. Release drops it; releasing twice is a no-op. Clone
// adds a reference. Close reports handles that were never released.
//
// # Host Objects and Host Functions
//
// CreateHostObject and CreateFunctionFromHostFunction back engine objects
// with Go code. Both share one process-wide class id each, registered with
// every engine runtime before its first use. The Go side lives in a side
// table; the engine object only stores the table handle. When the engine
// finalizes the object the entry is removed, and a HostObject implementing
// jsi.Disposer is notified exactly once.
//
// Errors returned from host code, including recovered panics, are thrown
// into script as Error objects:
//
//	*jsi.JSError           message and stack kept
//	other error            "Exception in HostFunction: " + err.Error() for functions
//	panic                  "Unexpected error" or "Exception in HostFunction: <unknown>"
//
// Host functions accept at most MaxCallArgCount arguments.
//
// # Pending Jobs
//
// EvaluateJavaScript, Call and CallAsConstructor drain the engine job queue
// before returning, unless they run inside another of these calls or failed
// themselves. A job failure is returned as the call's error.
//
// # Unsupported Features
//
// Prepared scripts, weak objects and array buffers return an error of kind
// errors.KindUnsupported.
package runtime
