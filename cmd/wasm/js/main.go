//go:build js && wasm

// Command gospel-wasm-js is the WebAssembly entrypoint for browser and Node.js.
//
// It exposes a global `gospel` object with the following API:
//
//	gospel.version()                          → string
//	gospel.eval(expr, rootJSON[, varsJSON])   → resultJSON  (throws on error)
//	gospel.parse(expr)                        → astJSON     (throws on error)
//	gospel.format(expr)                       → string      (throws on error)
//	gospel.compile(expr)                      → { eval(rootJSON[, varsJSON]) → resultJSON }
//
// Build:
//
//	GOOS=js GOARCH=wasm go build -o gospel.wasm ./cmd/wasm/js/
//
// Usage in Node.js:
//
//	const result = gospel.eval('items.![name]', JSON.stringify({items: [{name: 'a'}]}))
//	console.log(JSON.parse(result)) // ['a']
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"syscall/js"

	"github.com/sandrolain/gospel"
	"github.com/sandrolain/gospel/pkg/evaluator"
	"github.com/sandrolain/gospel/pkg/types"
)

// jsThrow panics with a JS Error so the caller receives a thrown exception.
func jsThrow(msg string) {
	js.Global().Get("Error").New(msg)
	panic(msg)
}

// decodeInputs reads the root and optional variables arguments.
func decodeInputs(fn string, args []js.Value) (any, map[string]any) {
	var root any
	if err := json.Unmarshal([]byte(args[0].String()), &root); err != nil {
		jsThrow(fmt.Sprintf("%s: invalid root JSON: %v", fn, err))
	}
	var vars map[string]any
	if len(args) > 1 && args[1].Type() == js.TypeString {
		if err := json.Unmarshal([]byte(args[1].String()), &vars); err != nil {
			jsThrow(fmt.Sprintf("%s: invalid variables JSON: %v", fn, err))
		}
	}
	return root, vars
}

func marshal(fn string, v any) string {
	out, err := json.Marshal(v)
	if err != nil {
		jsThrow(fmt.Sprintf("%s: marshal result: %v", fn, err))
	}
	return string(out)
}

// jsEval implements gospel.eval(expr, rootJSON[, varsJSON]) → resultJSON.
func jsEval(_ js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		jsThrow("gospel.eval requires at least 2 arguments: expression (string) and root (JSON string)")
	}
	root, vars := decodeInputs("gospel.eval", args[1:])
	result, err := gospel.EvalWithContext(context.Background(), args[0].String(), root, vars,
		gospel.WithConcurrency(false),
	)
	if err != nil {
		jsThrow(fmt.Sprintf("gospel.eval: %v", err))
	}
	return marshal("gospel.eval", result)
}

// jsParse implements gospel.parse(expr) → astJSON.
func jsParse(_ js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		jsThrow("gospel.parse requires 1 argument: expression (string)")
	}
	node, err := gospel.Parse(args[0].String())
	if err != nil {
		jsThrow(fmt.Sprintf("gospel.parse: %v", err))
	}
	out, err := types.MarshalNode(node)
	if err != nil {
		jsThrow(fmt.Sprintf("gospel.parse: %v", err))
	}
	return string(out)
}

// jsFormat implements gospel.format(expr) → canonical source.
func jsFormat(_ js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		jsThrow("gospel.format requires 1 argument: expression (string)")
	}
	expr, err := gospel.Compile(args[0].String())
	if err != nil {
		jsThrow(fmt.Sprintf("gospel.format: %v", err))
	}
	return expr.Canonical()
}

// jsCompile implements gospel.compile(expr) → { eval(rootJSON[, varsJSON]) → resultJSON }.
func jsCompile(_ js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		jsThrow("gospel.compile requires 1 argument: expression (string)")
	}
	expr, err := gospel.Compile(args[0].String())
	if err != nil {
		jsThrow(fmt.Sprintf("gospel.compile: %v", err))
	}

	ev := evaluator.New(gospel.WithConcurrency(false))

	evalFn := js.FuncOf(func(_ js.Value, innerArgs []js.Value) interface{} {
		if len(innerArgs) < 1 {
			jsThrow("compiled.eval requires 1 argument: root (JSON string)")
		}
		root, vars := decodeInputs("compiled.eval", innerArgs)
		r, e := ev.Eval(context.Background(), expr, root, vars)
		if e != nil {
			jsThrow(fmt.Sprintf("compiled.eval: %v", e))
		}
		return marshal("compiled.eval", r)
	})

	return js.ValueOf(map[string]interface{}{"eval": evalFn})
}

func main() {
	api := map[string]interface{}{
		"eval":    js.FuncOf(jsEval),
		"parse":   js.FuncOf(jsParse),
		"format":  js.FuncOf(jsFormat),
		"compile": js.FuncOf(jsCompile),
		"version": js.FuncOf(func(_ js.Value, _ []js.Value) interface{} {
			return gospel.Version()
		}),
	}
	js.Global().Set("gospel", js.ValueOf(api))

	// Block forever; the JS event loop owns execution from here.
	select {}
}
