// Package functions provides types for registering host functions with the
// gospel evaluator.
//
// Functions live in the same table as variables and are called with the
// "#" prefix: #name(args). Register them with [evaluator.WithFunctions] or
// place them directly in the variables table passed to Bind.
//
// # Example
//
//	greet := functions.CustomFunctionDef{
//	    Name:    "greet",
//	    MinArgs: 1,
//	    MaxArgs: 1,
//	    Fn: func(ctx context.Context, args ...any) (any, error) {
//	        return "Hello, " + args[0].(string) + "!", nil
//	    },
//	}
//	result, err := gospel.Eval("#greet(name)", map[string]any{"name": "World"},
//	    gospel.WithFunctions(greet))
//	// result == "Hello, World!"
package functions

import (
	"context"
	"fmt"

	"github.com/sandrolain/gospel/pkg/types"
)

// CustomFunc is the signature for host functions.
// args contains the evaluated arguments in order.
type CustomFunc func(ctx context.Context, args ...any) (any, error)

// CustomFunctionDef describes a host function and its accepted arity.
type CustomFunctionDef struct {
	// Name is the function name as written after "#" in expressions.
	Name string
	// MinArgs is the minimum number of arguments.
	MinArgs int
	// MaxArgs is the maximum number of arguments; negative means unbounded.
	// When MinArgs and MaxArgs are both zero the arity is not checked.
	MaxArgs int
	// Fn is the implementation.
	Fn CustomFunc
}

// CheckArity reports an ErrArgumentCountMismatch error when n arguments are
// not acceptable.
func (d CustomFunctionDef) CheckArity(n int) error {
	if d.MinArgs == 0 && d.MaxArgs == 0 {
		return nil
	}
	if n < d.MinArgs || (d.MaxArgs >= 0 && n > d.MaxArgs) {
		var want string
		switch {
		case d.MaxArgs < 0:
			want = fmt.Sprintf("at least %d", d.MinArgs)
		case d.MinArgs == d.MaxArgs:
			want = fmt.Sprintf("%d", d.MinArgs)
		default:
			want = fmt.Sprintf("%d to %d", d.MinArgs, d.MaxArgs)
		}
		return types.Errorf(types.ErrArgumentCountMismatch,
			"function %s expects %s arguments, got %d", d.Name, want, n)
	}
	return nil
}

// Call checks the arity and invokes Fn.
func (d CustomFunctionDef) Call(ctx context.Context, args ...any) (any, error) {
	if err := d.CheckArity(len(args)); err != nil {
		return nil, err
	}
	if d.Fn == nil {
		return nil, types.Errorf(types.ErrNotAFunction, "function %s has no implementation", d.Name)
	}
	return d.Fn(ctx, args...)
}

// Table builds a function table keyed by name, suitable as (part of) the
// variables table of an evaluation session.
func Table(defs ...CustomFunctionDef) map[string]any {
	t := make(map[string]any, len(defs))
	for _, d := range defs {
		t[d.Name] = d
	}
	return t
}

// Merge combines tables; later tables win on duplicate names.
func Merge(tables ...map[string]any) map[string]any {
	n := 0
	for _, t := range tables {
		n += len(t)
	}
	out := make(map[string]any, n)
	for _, t := range tables {
		for k, v := range t {
			out[k] = v
		}
	}
	return out
}
