//go:build wasip1

// Command gospel-wasm-wasi is the WASI (wasip1) entrypoint for use from any
// language that supports the WebAssembly System Interface.
//
// Protocol: single JSON object on stdin → single JSON object on stdout.
//
//	stdin:  { "expression": "<gospel>", "root": <any JSON value>, "variables": {...} }
//	stdout: { "result": <any JSON value> }           on success
//	        { "error": "<message>", "code": "T1001" } on failure (exit code 1)
//
// Setting "action" to "parse" returns the AST instead of evaluating, and
// "format" returns the canonical source.
//
// Build:
//
//	GOOS=wasip1 GOARCH=wasm go build -o gospel.wasm ./cmd/wasm/wasi/
//
// Usage with wasmtime CLI:
//
//	echo '{"expression":"name","root":{"name":"Alice"}}' | wasmtime gospel.wasm
package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/sandrolain/gospel"
	"github.com/sandrolain/gospel/pkg/types"
)

type request struct {
	Action     string         `json:"action,omitempty"`
	Expression string         `json:"expression"`
	Root       any            `json:"root"`
	Variables  map[string]any `json:"variables,omitempty"`
}

type response struct {
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
	Code   string `json:"code,omitempty"`
}

func writeResponse(r response, exitCode int) {
	_ = json.NewEncoder(os.Stdout).Encode(r)
	os.Exit(exitCode)
}

func fail(err error) {
	r := response{Error: err.Error()}
	if code, ok := types.Code(err); ok {
		r.Code = string(code)
	}
	writeResponse(r, 1)
}

func main() {
	var req request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(response{Error: "invalid request JSON: " + err.Error()}, 1)
	}

	switch req.Action {
	case "parse":
		node, err := gospel.Parse(req.Expression)
		if err != nil {
			fail(err)
		}
		raw, err := types.MarshalNode(node)
		if err != nil {
			fail(err)
		}
		writeResponse(response{Result: json.RawMessage(raw)}, 0)
	case "format":
		expr, err := gospel.Compile(req.Expression)
		if err != nil {
			fail(err)
		}
		writeResponse(response{Result: expr.Canonical()}, 0)
	}

	result, err := gospel.EvalWithContext(context.Background(), req.Expression, req.Root, req.Variables,
		gospel.WithConcurrency(false),
	)
	if err != nil {
		fail(err)
	}
	writeResponse(response{Result: result}, 0)
}
