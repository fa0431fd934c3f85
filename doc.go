// Package quickjsjsi binds a QuickJS-style script engine to the jsi
// embedding interface.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	quickjsjsi/          Root package with MakeRuntime
//	├── jsi/             Engine-neutral embedding interface (Runtime, Value, handles)
//	├── runtime/         jsi.Runtime implementation: handles, marshaling, host proxies
//	├── engine/          QuickJS-shaped engine over goja: tagged values, atoms, classes, jobs
//	├── resource/        Generation-checked reference-counted handle table
//	├── errors/          Structured error types
//	└── cmd/run          Script runner and REPL
//
// # Quick Start
//
//	rt, err := quickjsjsi.MakeRuntime()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close()
//
//	v, err := rt.EvaluateJavaScript(jsi.StringBuffer("6 * 7"), "main.js")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(v.Number()) // 42
//
// # Ownership
//
// Engine values are reference counted. A jsi handle owns one reference and
// is released with Release; Clone creates another owner. Host objects and
// host functions live in side tables and are removed when the engine
// finalizes the object they back.
//
// # Host Functions
//
//	name, _ := rt.CreatePropNameIDFromUTF8([]byte("greet"))
//	fn, _ := rt.CreateFunctionFromHostFunction(name, 1,
//	    func(rt jsi.Runtime, this jsi.Value, args []jsi.Value) (jsi.Value, error) {
//	        who, err := jsi.ToString(rt, args[0])
//	        if err != nil {
//	            return jsi.Undefined(), err
//	        }
//	        return jsi.NewString(rt, "Hello, "+who)
//	    })
//
// # Error Handling
//
// Script exceptions surface as *jsi.JSError with message and stack. Adapter
// failures use *errors.Error with a Phase and a Kind, matched by both:
//
//	unsupported := &errors.Error{Phase: errors.PhaseRuntime, Kind: errors.KindUnsupported}
//	if stderrors.Is(err, unsupported) { ... }
//
// # Thread Safety
//
// A runtime is NOT safe for concurrent use. Use one runtime per goroutine.
package quickjsjsi
