package main

import (
	"io"
	"strconv"
	"strings"

	"github.com/wxiaoguang/quickjs-jsi/jsi"
)

// console backs the global console object. Methods are created on access.
type console struct {
	jsi.BaseHostObject
	out    io.Writer
	errOut io.Writer
}

var consoleMethods = []string{"log", "info", "warn", "error"}

func (c *console) Get(rt jsi.Runtime, name jsi.PropNameID) (jsi.Value, error) {
	key, err := rt.PropNameIDUTF8(name)
	if err != nil {
		return jsi.Undefined(), err
	}

	var w io.Writer
	switch key {
	case "log", "info":
		w = c.out
	case "warn", "error":
		w = c.errOut
	default:
		return jsi.Undefined(), nil
	}

	fn, err := rt.CreateFunctionFromHostFunction(name, 0, printTo(w))
	if err != nil {
		return jsi.Undefined(), err
	}
	return jsi.ObjectValue(fn.Object), nil
}

func (c *console) GetPropertyNames(rt jsi.Runtime) ([]jsi.PropNameID, error) {
	names := make([]jsi.PropNameID, 0, len(consoleMethods))
	for _, m := range consoleMethods {
		n, err := rt.CreatePropNameIDFromASCII(m)
		if err != nil {
			for _, prev := range names {
				prev.Release()
			}
			return nil, err
		}
		names = append(names, n)
	}
	return names, nil
}

// printTo writes its arguments separated by spaces, then a newline.
func printTo(w io.Writer) jsi.HostFunction {
	return func(rt jsi.Runtime, this jsi.Value, args []jsi.Value) (jsi.Value, error) {
		parts := make([]string, 0, len(args))
		for _, arg := range args {
			s, err := describe(rt, arg, false)
			if err != nil {
				return jsi.Undefined(), err
			}
			parts = append(parts, s)
		}
		if _, err := io.WriteString(w, strings.Join(parts, " ")+"\n"); err != nil {
			return jsi.Undefined(), err
		}
		return jsi.Undefined(), nil
	}
}

// installGlobals defines print and console on the global object.
func installGlobals(rt jsi.Runtime, out, errOut io.Writer) error {
	global := rt.Global()
	defer global.Release()

	name, err := rt.CreatePropNameIDFromASCII("print")
	if err != nil {
		return err
	}
	defer name.Release()
	printFn, err := rt.CreateFunctionFromHostFunction(name, 0, printTo(out))
	if err != nil {
		return err
	}
	defer printFn.Release()
	if err := rt.SetProperty(global, name, jsi.ObjectValue(printFn.Object)); err != nil {
		return err
	}

	obj, err := rt.CreateHostObject(&console{out: out, errOut: errOut})
	if err != nil {
		return err
	}
	defer obj.Release()
	return jsi.SetPropertyString(rt, global, "console", jsi.ObjectValue(obj))
}

// describe renders v for display. Plain objects and arrays go through
// JSON.stringify; quote selects the REPL rendering of strings.
func describe(rt jsi.Runtime, v jsi.Value, quote bool) (string, error) {
	switch v.Kind() {
	case jsi.KindString:
		s, err := rt.StringUTF8(v.AsString())
		if err != nil {
			return "", err
		}
		if quote {
			return strconv.Quote(s), nil
		}
		return s, nil
	case jsi.KindObject:
		if rt.IsFunction(v.AsObject()) {
			break
		}
		if s, ok := stringify(rt, v); ok {
			return s, nil
		}
	}
	return jsi.ToString(rt, v)
}

func stringify(rt jsi.Runtime, v jsi.Value) (string, bool) {
	global := rt.Global()
	defer global.Release()
	json, err := jsi.GetPropertyString(rt, global, "JSON")
	if err != nil {
		return "", false
	}
	defer json.Release()
	fnVal, err := jsi.GetPropertyString(rt, json.AsObject(), "stringify")
	if err != nil {
		return "", false
	}
	defer fnVal.Release()
	fn, ok := fnVal.AsObject().AsFunction(rt)
	if !ok {
		return "", false
	}

	res, err := rt.Call(fn, json, v)
	if err != nil {
		return "", false
	}
	defer res.Release()
	if !res.IsString() {
		return "", false
	}
	s, err := rt.StringUTF8(res.AsString())
	return s, err == nil
}
