// Package extutil provides shared argument helpers for the ext sub-packages.
package extutil

import (
	"math"

	"github.com/sandrolain/gospel/pkg/types"
)

// ArgError reports an invalid argument to the named function.
func ArgError(fn string, i int, want string, got any) error {
	return types.Errorf(types.ErrInvalidArgument,
		"#%s: argument %d must be %s, got %s", fn, i+1, want, types.TypeName(got))
}

// String returns args[i] as a string.
func String(fn string, args []any, i int) (string, error) {
	s, ok := args[i].(string)
	if !ok {
		return "", ArgError(fn, i, "a string", args[i])
	}
	return s, nil
}

// Number returns args[i] as a float64.
func Number(fn string, args []any, i int) (float64, error) {
	f, ok := types.ToNumber(args[i])
	if !ok {
		return 0, ArgError(fn, i, "a number", args[i])
	}
	return f, nil
}

// Int returns args[i] as an int. The value must be integral.
func Int(fn string, args []any, i int) (int, error) {
	f, ok := types.ToNumber(args[i])
	if !ok || math.Trunc(f) != f || math.IsInf(f, 0) {
		return 0, ArgError(fn, i, "an integer", args[i])
	}
	return int(f), nil
}

// OptionalInt returns args[i] as an int, or def when the argument is absent
// or null.
func OptionalInt(fn string, args []any, i, def int) (int, error) {
	if i >= len(args) || args[i] == nil {
		return def, nil
	}
	return Int(fn, args, i)
}

// List returns args[i] as a list.
func List(fn string, args []any, i int) ([]any, error) {
	l, ok := types.AsList(args[i])
	if !ok {
		return nil, ArgError(fn, i, "a list", args[i])
	}
	return l, nil
}

// Map returns args[i] as a map view.
func Map(fn string, args []any, i int) (types.MapView, error) {
	m, ok := types.AsMap(args[i])
	if !ok {
		return nil, ArgError(fn, i, "a map", args[i])
	}
	return m, nil
}

// Numbers converts every element of list to float64.
func Numbers(fn string, list []any) ([]float64, error) {
	out := make([]float64, len(list))
	for i, v := range list {
		f, ok := types.ToNumber(v)
		if !ok {
			return nil, types.Errorf(types.ErrInvalidArgument,
				"#%s: element %d is not a number: %s", fn, i, types.Describe(v))
		}
		out[i] = f
	}
	return out, nil
}
