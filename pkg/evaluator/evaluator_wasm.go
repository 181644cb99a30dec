//go:build (js && wasm) || wasip1

package evaluator

// init turns off concurrency for Evaluators built in WebAssembly processes.
// The only goroutines an Evaluator starts are the EvalMany workers; on
// js/wasm they share the single JavaScript thread and on wasip1 the Go
// runtime has no threads at all, so a batch is evaluated sequentially
// instead. WithConcurrency(true) still overrides this default.
func init() {
	defaultConcurrency = false
}
