package evaluator

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/sandrolain/gospel/pkg/functions"
	"github.com/sandrolain/gospel/pkg/types"
)

// callable is the uniform calling convention for host functions.
type callable func(ctx context.Context, args []any) (any, error)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// asCallable adapts v to a callable. It reports false when v is not a
// function value.
func asCallable(v any) (callable, bool) {
	switch fn := v.(type) {
	case nil:
		return nil, false
	case functions.CustomFunctionDef:
		return func(ctx context.Context, args []any) (any, error) {
			return fn.Call(ctx, args...)
		}, true
	case *functions.CustomFunctionDef:
		if fn == nil {
			return nil, false
		}
		return func(ctx context.Context, args []any) (any, error) {
			return fn.Call(ctx, args...)
		}, true
	case functions.CustomFunc:
		return func(ctx context.Context, args []any) (any, error) {
			return fn(ctx, args...)
		}, true
	case func(context.Context, ...any) (any, error):
		return func(ctx context.Context, args []any) (any, error) {
			return fn(ctx, args...)
		}, true
	case func(...any) (any, error):
		return func(_ context.Context, args []any) (any, error) {
			return fn(args...)
		}, true
	case func(...any) any:
		return func(_ context.Context, args []any) (any, error) {
			return fn(args...), nil
		}, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Func || rv.IsNil() {
		return nil, false
	}
	return reflectCallable(rv), true
}

// reflectCallable calls an arbitrary Go function. A leading
// context.Context parameter receives the evaluation context. Arguments are
// converted to the parameter types, and a trailing error result is returned
// as the call error.
func reflectCallable(fn reflect.Value) callable {
	t := fn.Type()
	return func(ctx context.Context, args []any) (any, error) {
		in := make([]reflect.Value, 0, len(args)+1)
		first := 0
		if t.NumIn() > 0 && t.In(0) == contextType {
			in = append(in, reflect.ValueOf(ctx))
			first = 1
		}

		fixed := t.NumIn() - first
		if t.IsVariadic() {
			fixed--
			if len(args) < fixed {
				return nil, types.Errorf(types.ErrArgumentCountMismatch,
					"function expects at least %d arguments, got %d", fixed, len(args))
			}
		} else if len(args) != fixed {
			return nil, types.Errorf(types.ErrArgumentCountMismatch,
				"function expects %d arguments, got %d", fixed, len(args))
		}

		for i, arg := range args {
			var pt reflect.Type
			if t.IsVariadic() && i >= fixed {
				pt = t.In(t.NumIn() - 1).Elem()
			} else {
				pt = t.In(first + i)
			}
			av, err := convertArg(arg, pt)
			if err != nil {
				return nil, types.Errorf(types.ErrInvalidArgument, "argument %d: %v", i+1, err)
			}
			in = append(in, av)
		}

		return unpackResults(fn.Call(in))
	}
}

// convertArg converts an evaluated argument to parameter type t.
func convertArg(arg any, t reflect.Type) (reflect.Value, error) {
	if arg == nil {
		switch t.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, fmt.Errorf("cannot use null as %s", t)
	}

	av := reflect.ValueOf(arg)
	if av.Type().AssignableTo(t) {
		return av, nil
	}

	if f, ok := types.ToNumber(arg); ok {
		switch t.Kind() {
		case reflect.Float32, reflect.Float64:
			return reflect.ValueOf(f).Convert(t), nil
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			if f != float64(int64(f)) {
				return reflect.Value{}, fmt.Errorf("%v is not an integer", f)
			}
			if f < 0 && t.Kind() >= reflect.Uint && t.Kind() <= reflect.Uint64 {
				return reflect.Value{}, fmt.Errorf("%v is negative", f)
			}
			return reflect.ValueOf(int64(f)).Convert(t), nil
		}
	}

	if t.Kind() == reflect.Slice {
		if list, ok := types.AsList(arg); ok {
			out := reflect.MakeSlice(t, len(list), len(list))
			for i, e := range list {
				ev, err := convertArg(e, t.Elem())
				if err != nil {
					return reflect.Value{}, fmt.Errorf("element %d: %w", i, err)
				}
				out.Index(i).Set(ev)
			}
			return out, nil
		}
	}

	if t.Kind() == reflect.Map && t.Key().Kind() == reflect.String {
		if m, ok := types.AsMap(arg); ok {
			out := reflect.MakeMapWithSize(t, m.Len())
			for _, k := range m.Keys() {
				v, _ := m.Get(k)
				ev, err := convertArg(v, t.Elem())
				if err != nil {
					return reflect.Value{}, fmt.Errorf("key %q: %w", k, err)
				}
				out.SetMapIndex(reflect.ValueOf(k).Convert(t.Key()), ev)
			}
			return out, nil
		}
	}

	if av.Kind() == t.Kind() && av.CanConvert(t) {
		return av.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %s as %s", types.TypeName(arg), t)
}

// unpackResults maps function results to (value, error). Functions may
// return nothing, a value, an error, or a value and an error.
func unpackResults(out []reflect.Value) (any, error) {
	if n := len(out); n > 0 && out[n-1].Type() == errorType {
		if !out[n-1].IsNil() {
			return nil, out[n-1].Interface().(error)
		}
		out = out[:n-1]
	}
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		return types.Normalize(out[0].Interface()), nil
	}
	vals := make([]any, len(out))
	for i, o := range out {
		vals[i] = types.Normalize(o.Interface())
	}
	return vals, nil
}

// call invokes fn, turning panics and foreign errors into ErrCallFailed.
func call(ctx context.Context, name string, fn callable, args []any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = types.Errorf(types.ErrCallFailed, "function %s panicked: %v", name, r)
		}
	}()

	result, err = fn(ctx, args)
	if err != nil {
		var te *types.Error
		if errors.As(err, &te) {
			return nil, err
		}
		return nil, types.Errorf(types.ErrCallFailed, "function %s failed: %v", name, err).WithCause(err)
	}
	return types.Normalize(result), nil
}

func (s *Session) evalArgs(ctx context.Context, nodes []types.Node) ([]any, error) {
	args := make([]any, len(nodes))
	for i, n := range nodes {
		v, err := s.eval(ctx, n)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

// evalFunctionReference calls #name(args). The name is resolved in the
// variables table, then among registered host functions.
func (s *Session) evalFunctionReference(ctx context.Context, n *types.FunctionReference) (any, error) {
	args, err := s.evalArgs(ctx, n.Args)
	if err != nil {
		return nil, err
	}

	m := s.lookupName(n.FunctionName)
	if m.isNone() {
		if n.NullSafeNavigation {
			return nil, nil
		}
		return nil, types.Errorf(types.ErrUndefinedFunction,
			"Null Pointer Exception: function %q not found", n.FunctionName)
	}

	fn, ok := asCallable(m.value())
	if !ok {
		return nil, types.Errorf(types.ErrNotAFunction,
			"%s is not a function: %s", n.FunctionName, types.Describe(m.value()))
	}
	return call(ctx, n.FunctionName, fn, args)
}

// evalMethodReference calls name(args) on the navigation context. The
// name is resolved like a property. Lists without such a member support
// size() and contains(x).
func (s *Session) evalMethodReference(ctx context.Context, n *types.MethodReference) (any, error) {
	m := s.propertyInContext(n.MethodName)
	if !m.isNone() {
		args, err := s.evalArgs(ctx, n.Args)
		if err != nil {
			return nil, err
		}
		fn, ok := asCallable(m.value())
		if !ok {
			if n.NullSafeNavigation {
				return nil, nil
			}
			return nil, types.Errorf(types.ErrNotAFunction,
				"method %s is not callable: %s", n.MethodName, types.Describe(m.value()))
		}
		return call(ctx, n.MethodName, fn, args)
	}

	if list, ok := types.AsList(s.stack.head()); ok {
		switch n.MethodName {
		case "size":
			return float64(len(list)), nil
		case "contains":
			if len(n.Args) != 1 {
				return nil, types.Errorf(types.ErrArgumentCountMismatch,
					"method contains expects 1 argument, got %d", len(n.Args))
			}
			needle, err := s.eval(ctx, n.Args[0])
			if err != nil {
				return nil, err
			}
			for _, e := range list {
				if equalValues(e, needle) {
					return true, nil
				}
			}
			return false, nil
		}
	}

	if n.NullSafeNavigation {
		return nil, nil
	}
	return nil, types.Errorf(types.ErrUndefinedMethod, "method %s not found", n.MethodName)
}
