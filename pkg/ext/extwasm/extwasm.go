// Package extwasm exposes the numeric exports of a WebAssembly module as
// gospel host functions, using the wazero runtime.
//
// Every exported function whose parameters and single result are numeric
// (i32, i64, f32 or f64) becomes callable as #name(args). Other exports
// are ignored.
//
// # Example
//
//	mod, err := extwasm.LoadFile(ctx, "math.wasm")
//	if err != nil { ... }
//	defer mod.Close(ctx)
//	result, err := gospel.Eval("#add(1, 2)", nil, gospel.WithFunctions(mod.Functions()...))
package extwasm

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/sandrolain/gospel/pkg/ext/extutil"
	"github.com/sandrolain/gospel/pkg/functions"
	"github.com/sandrolain/gospel/pkg/types"
)

// Module is an instantiated WebAssembly module. Calls into the module are
// serialized; a Module is safe for concurrent use.
type Module struct {
	name    string
	runtime wazero.Runtime
	mod     api.Module
	mu      sync.Mutex
}

// Option configures a Module.
type Option func(*options)

type options struct {
	prefix string
}

// WithPrefix prefixes every function name, e.g. "m_" turns export add
// into #m_add.
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// Load compiles and instantiates a WebAssembly binary. The module may not
// import host functions.
func Load(ctx context.Context, name string, wasm []byte) (*Module, error) {
	cfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	rt := wazero.NewRuntimeWithConfig(ctx, cfg)
	mod, err := rt.InstantiateWithConfig(ctx, wasm, wazero.NewModuleConfig().WithName(name))
	if err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("instantiate wasm module %s: %w", name, err)
	}
	return &Module{name: name, runtime: rt, mod: mod}, nil
}

// LoadFile reads and instantiates the WebAssembly binary at path.
func LoadFile(ctx context.Context, path string) (*Module, error) {
	wasm, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read wasm module: %w", err)
	}
	return Load(ctx, path, wasm)
}

// Close releases the runtime and the module.
func (m *Module) Close(ctx context.Context) error {
	return m.runtime.Close(ctx)
}

// Functions returns a definition for every numeric export, sorted by name.
func (m *Module) Functions(opts ...Option) []functions.CustomFunctionDef {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	defs := m.mod.ExportedFunctionDefinitions()
	names := make([]string, 0, len(defs))
	for name, def := range defs {
		if numericSignature(def) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	out := make([]functions.CustomFunctionDef, 0, len(names))
	for _, name := range names {
		out = append(out, m.function(o.prefix+name, name, defs[name]))
	}
	return out
}

func numericSignature(def api.FunctionDefinition) bool {
	if len(def.ResultTypes()) > 1 {
		return false
	}
	for _, t := range append(def.ParamTypes(), def.ResultTypes()...) {
		switch t {
		case api.ValueTypeI32, api.ValueTypeI64, api.ValueTypeF32, api.ValueTypeF64:
		default:
			return false
		}
	}
	return true
}

func (m *Module) function(name, export string, def api.FunctionDefinition) functions.CustomFunctionDef {
	params := def.ParamTypes()
	results := def.ResultTypes()
	return functions.CustomFunctionDef{
		Name:    name,
		MinArgs: len(params),
		MaxArgs: len(params),
		Fn: func(ctx context.Context, args ...any) (any, error) {
			stack := make([]uint64, len(params))
			for i, t := range params {
				f, err := extutil.Number(name, args, i)
				if err != nil {
					return nil, err
				}
				if stack[i], err = encode(t, f); err != nil {
					return nil, types.Errorf(types.ErrInvalidArgument, "#%s: argument %d: %v", name, i+1, err)
				}
			}

			m.mu.Lock()
			defer m.mu.Unlock()
			fn := m.mod.ExportedFunction(export)
			if fn == nil {
				return nil, types.Errorf(types.ErrUndefinedFunction, "#%s: export %s not found in %s", name, export, m.name)
			}
			out, err := fn.Call(ctx, stack...)
			if err != nil {
				return nil, types.Errorf(types.ErrCallFailed, "#%s: %v", name, err).WithCause(err)
			}
			if len(results) == 0 {
				return nil, nil
			}
			return decode(results[0], out[0]), nil
		},
	}
}

func encode(t api.ValueType, f float64) (uint64, error) {
	switch t {
	case api.ValueTypeF64:
		return api.EncodeF64(f), nil
	case api.ValueTypeF32:
		return api.EncodeF32(float32(f)), nil
	}
	if math.Trunc(f) != f {
		return 0, fmt.Errorf("%v is not an integer", f)
	}
	if t == api.ValueTypeI32 {
		if f < math.MinInt32 || f > math.MaxUint32 {
			return 0, fmt.Errorf("%v overflows i32", f)
		}
		if f > math.MaxInt32 {
			return uint64(uint32(f)), nil
		}
		return api.EncodeI32(int32(f)), nil
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("%v overflows i64", f)
	}
	return api.EncodeI64(int64(f)), nil
}

func decode(t api.ValueType, v uint64) float64 {
	switch t {
	case api.ValueTypeF64:
		return api.DecodeF64(v)
	case api.ValueTypeF32:
		return float64(api.DecodeF32(v))
	case api.ValueTypeI32:
		return float64(api.DecodeI32(v))
	}
	return float64(int64(v))
}
