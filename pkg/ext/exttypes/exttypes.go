// Package exttypes provides type predicate and conversion functions for
// gospel expressions.
package exttypes

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/sandrolain/gospel/pkg/ext/extutil"
	"github.com/sandrolain/gospel/pkg/functions"
	"github.com/sandrolain/gospel/pkg/types"
)

// All returns all type function definitions.
func All() []functions.CustomFunctionDef {
	return []functions.CustomFunctionDef{
		TypeOf(),
		IsString(),
		IsNumber(),
		IsBoolean(),
		IsList(),
		IsMap(),
		IsNull(),
		IsEmpty(),
		ToNumber(),
		ToString(),
		ToBoolean(),
		Default(),
	}
}

func oneArg(name string, fn func(v any) (any, error)) functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    name,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(_ context.Context, args ...any) (any, error) {
			return fn(args[0])
		},
	}
}

func predicate(name, typeName string) functions.CustomFunctionDef {
	return oneArg(name, func(v any) (any, error) {
		return types.TypeName(v) == typeName, nil
	})
}

// TypeOf returns the definition for #typeOf(v): one of null, boolean,
// number, string, list, map, function or object.
func TypeOf() functions.CustomFunctionDef {
	return oneArg("typeOf", func(v any) (any, error) {
		return types.TypeName(v), nil
	})
}

// IsString returns the definition for #isString(v).
func IsString() functions.CustomFunctionDef { return predicate("isString", "string") }

// IsNumber returns the definition for #isNumber(v). NaN and infinities
// are numbers.
func IsNumber() functions.CustomFunctionDef { return predicate("isNumber", "number") }

// IsBoolean returns the definition for #isBoolean(v).
func IsBoolean() functions.CustomFunctionDef { return predicate("isBoolean", "boolean") }

// IsList returns the definition for #isList(v).
func IsList() functions.CustomFunctionDef { return predicate("isList", "list") }

// IsMap returns the definition for #isMap(v).
func IsMap() functions.CustomFunctionDef { return predicate("isMap", "map") }

// IsNull returns the definition for #isNull(v).
func IsNull() functions.CustomFunctionDef { return predicate("isNull", "null") }

// IsEmpty returns the definition for #isEmpty(v).
// Returns true for null, "", empty lists and empty maps.
func IsEmpty() functions.CustomFunctionDef {
	return oneArg("isEmpty", func(v any) (any, error) {
		if v == nil {
			return true, nil
		}
		if s, ok := v.(string); ok {
			return s == "", nil
		}
		if l, ok := types.AsList(v); ok {
			return len(l) == 0, nil
		}
		if m, ok := types.AsMap(v); ok {
			return m.Len() == 0, nil
		}
		return false, nil
	})
}

// ToNumber returns the definition for #toNumber(v). Strings are parsed;
// booleans map to 0 and 1.
func ToNumber() functions.CustomFunctionDef {
	return oneArg("toNumber", func(v any) (any, error) {
		switch x := v.(type) {
		case nil:
			return nil, nil
		case bool:
			if x {
				return 1.0, nil
			}
			return 0.0, nil
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
			if err != nil {
				return nil, types.Errorf(types.ErrInvalidArgument,
					"#toNumber: cannot convert %s to a number", types.QuoteString(x)).WithCause(err)
			}
			return f, nil
		}
		if f, ok := types.ToNumber(v); ok {
			return f, nil
		}
		return nil, extutil.ArgError("toNumber", 0, "a string, number or boolean", v)
	})
}

// ToString returns the definition for #toString(v). Numbers use the
// shortest representation; lists and maps are rendered as JSON.
func ToString() functions.CustomFunctionDef {
	return oneArg("toString", func(v any) (any, error) {
		switch x := v.(type) {
		case nil:
			return "null", nil
		case string:
			return x, nil
		case bool:
			return strconv.FormatBool(x), nil
		}
		if f, ok := types.ToNumber(v); ok {
			switch {
			case math.IsNaN(f):
				return "NaN", nil
			case math.IsInf(f, 1):
				return "Infinity", nil
			case math.IsInf(f, -1):
				return "-Infinity", nil
			}
			return strconv.FormatFloat(f, 'f', -1, 64), nil
		}
		return types.Describe(v), nil
	})
}

// ToBoolean returns the definition for #toBoolean(v), using the same
// truthiness as the ! operator.
func ToBoolean() functions.CustomFunctionDef {
	return oneArg("toBoolean", func(v any) (any, error) {
		return types.Truthy(v), nil
	})
}

// Default returns the definition for #default(value, fallback).
// Returns value unless it is null.
func Default() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "default",
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...any) (any, error) {
			if args[0] != nil {
				return args[0], nil
			}
			return args[1], nil
		},
	}
}
