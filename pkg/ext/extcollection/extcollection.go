// Package extcollection provides list and map functions for gospel
// expressions: #first, #take, #flatten, #chunk, set operations, #range,
// #keys, #values, #pick, #omit, #merge and friends.
//
// Functions returning maps return an ordered *types.Map.
package extcollection

import (
	"context"
	"fmt"
	"sort"

	"github.com/sandrolain/gospel/pkg/ext/extutil"
	"github.com/sandrolain/gospel/pkg/functions"
	"github.com/sandrolain/gospel/pkg/types"
)

// All returns all collection function definitions.
func All() []functions.CustomFunctionDef {
	return []functions.CustomFunctionDef{
		First(),
		Last(),
		Take(),
		Skip(),
		Reverse(),
		Sort(),
		Distinct(),
		Flatten(),
		Chunk(),
		Union(),
		Intersection(),
		Difference(),
		Range(),
		Keys(),
		Values(),
		Entries(),
		Pick(),
		Omit(),
		Merge(),
	}
}

func listFunc(name string, fn func(list []any) (any, error)) functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    name,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(_ context.Context, args ...any) (any, error) {
			list, err := extutil.List(name, args, 0)
			if err != nil {
				return nil, err
			}
			return fn(list)
		},
	}
}

// First returns the definition for #first(list). An empty list yields null.
func First() functions.CustomFunctionDef {
	return listFunc("first", func(list []any) (any, error) {
		if len(list) == 0 {
			return nil, nil
		}
		return list[0], nil
	})
}

// Last returns the definition for #last(list). An empty list yields null.
func Last() functions.CustomFunctionDef {
	return listFunc("last", func(list []any) (any, error) {
		if len(list) == 0 {
			return nil, nil
		}
		return list[len(list)-1], nil
	})
}

func window(name string, head bool) functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    name,
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...any) (any, error) {
			list, err := extutil.List(name, args, 0)
			if err != nil {
				return nil, err
			}
			n, err := extutil.Int(name, args, 1)
			if err != nil {
				return nil, err
			}
			n = max(0, min(n, len(list)))
			var part []any
			if head {
				part = list[:n]
			} else {
				part = list[n:]
			}
			return append([]any{}, part...), nil
		},
	}
}

// Take returns the definition for #take(list, n): the first n elements.
func Take() functions.CustomFunctionDef { return window("take", true) }

// Skip returns the definition for #skip(list, n): all but the first n elements.
func Skip() functions.CustomFunctionDef { return window("skip", false) }

// Reverse returns the definition for #reverse(list). The input is not modified.
func Reverse() functions.CustomFunctionDef {
	return listFunc("reverse", func(list []any) (any, error) {
		out := make([]any, len(list))
		for i, v := range list {
			out[len(list)-1-i] = v
		}
		return out, nil
	})
}

// Sort returns the definition for #sort(list). The list must hold only
// numbers or only strings. The input is not modified.
func Sort() functions.CustomFunctionDef {
	return listFunc("sort", func(list []any) (any, error) {
		out := append([]any{}, list...)
		if len(out) == 0 {
			return out, nil
		}
		if _, ok := out[0].(string); ok {
			for i, v := range out {
				if _, ok := v.(string); !ok {
					return nil, types.Errorf(types.ErrInvalidArgument,
						"#sort: element %d is not a string: %s", i, types.Describe(v))
				}
			}
			sort.SliceStable(out, func(i, j int) bool { return out[i].(string) < out[j].(string) })
			return out, nil
		}
		nums, err := extutil.Numbers("sort", out)
		if err != nil {
			return nil, err
		}
		sort.Float64s(nums)
		for i, n := range nums {
			out[i] = n
		}
		return out, nil
	})
}

// identity returns a comparable key for set operations. Scalars compare by
// value; other values by their JSON rendering.
func identity(v any) any {
	switch x := types.Normalize(v).(type) {
	case nil:
		return nil
	case string, float64, bool:
		return x
	}
	return "\x00" + types.Describe(v)
}

func distinct(list []any) []any {
	seen := make(map[any]bool, len(list))
	out := make([]any, 0, len(list))
	for _, v := range list {
		k := identity(v)
		if !seen[k] {
			seen[k] = true
			out = append(out, v)
		}
	}
	return out
}

// Distinct returns the definition for #distinct(list), keeping the first
// occurrence of each value.
func Distinct() functions.CustomFunctionDef {
	return listFunc("distinct", func(list []any) (any, error) {
		return distinct(list), nil
	})
}

// Flatten returns the definition for #flatten(list [, depth]).
// Without depth (or with a negative depth), flattens completely.
func Flatten() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "flatten",
		MinArgs: 1,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...any) (any, error) {
			list, err := extutil.List("flatten", args, 0)
			if err != nil {
				return nil, err
			}
			depth, err := extutil.OptionalInt("flatten", args, 1, -1)
			if err != nil {
				return nil, err
			}
			return flatten(list, depth), nil
		},
	}
}

func flatten(list []any, depth int) []any {
	out := make([]any, 0, len(list))
	for _, item := range list {
		if inner, ok := types.AsList(item); ok && depth != 0 {
			out = append(out, flatten(inner, depth-1)...)
			continue
		}
		out = append(out, item)
	}
	return out
}

// Chunk returns the definition for #chunk(list, size).
func Chunk() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "chunk",
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...any) (any, error) {
			list, err := extutil.List("chunk", args, 0)
			if err != nil {
				return nil, err
			}
			size, err := extutil.Int("chunk", args, 1)
			if err != nil || size <= 0 {
				return nil, extutil.ArgError("chunk", 1, "a positive integer", args[1])
			}
			chunks := make([]any, 0, (len(list)+size-1)/size)
			for i := 0; i < len(list); i += size {
				end := min(i+size, len(list))
				chunks = append(chunks, append([]any{}, list[i:end]...))
			}
			return chunks, nil
		},
	}
}

func setFunc(name string, keep func(inA, inB bool) bool) functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    name,
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...any) (any, error) {
			a, err := extutil.List(name, args, 0)
			if err != nil {
				return nil, err
			}
			b, err := extutil.List(name, args, 1)
			if err != nil {
				return nil, err
			}
			inA := make(map[any]bool, len(a))
			for _, v := range a {
				inA[identity(v)] = true
			}
			inB := make(map[any]bool, len(b))
			for _, v := range b {
				inB[identity(v)] = true
			}
			var out []any
			for _, v := range distinct(append(append([]any{}, a...), b...)) {
				k := identity(v)
				if keep(inA[k], inB[k]) {
					out = append(out, v)
				}
			}
			if out == nil {
				out = []any{}
			}
			return out, nil
		},
	}
}

// Union returns the definition for #union(a, b).
func Union() functions.CustomFunctionDef {
	return setFunc("union", func(inA, inB bool) bool { return inA || inB })
}

// Intersection returns the definition for #intersection(a, b).
func Intersection() functions.CustomFunctionDef {
	return setFunc("intersection", func(inA, inB bool) bool { return inA && inB })
}

// Difference returns the definition for #difference(a, b): elements of a
// not in b.
func Difference() functions.CustomFunctionDef {
	return setFunc("difference", func(inA, inB bool) bool { return inA && !inB })
}

// maxRange bounds the size of lists built by #range.
const maxRange = 10_000_000

// Range returns the definition for #range(start, end [, step]); end is
// exclusive.
func Range() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "range",
		MinArgs: 2,
		MaxArgs: 3,
		Fn: func(_ context.Context, args ...any) (any, error) {
			start, err := extutil.Number("range", args, 0)
			if err != nil {
				return nil, err
			}
			end, err := extutil.Number("range", args, 1)
			if err != nil {
				return nil, err
			}
			step := 1.0
			if len(args) > 2 {
				if step, err = extutil.Number("range", args, 2); err != nil {
					return nil, err
				}
			}
			if step == 0 {
				return nil, types.Errorf(types.ErrInvalidArgument, "#range: step must not be zero")
			}
			if n := (end - start) / step; n > maxRange {
				return nil, types.Errorf(types.ErrInvalidArgument, "#range: too many elements (%v)", n)
			}
			out := []any{}
			for v := start; (step > 0 && v < end) || (step < 0 && v > end); v += step {
				out = append(out, v)
			}
			return out, nil
		},
	}
}

func mapFunc(name string, fn func(m types.MapView) any) functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    name,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(_ context.Context, args ...any) (any, error) {
			m, err := extutil.Map(name, args, 0)
			if err != nil {
				return nil, err
			}
			return fn(m), nil
		},
	}
}

// Keys returns the definition for #keys(map).
func Keys() functions.CustomFunctionDef {
	return mapFunc("keys", func(m types.MapView) any {
		keys := m.Keys()
		out := make([]any, len(keys))
		for i, k := range keys {
			out[i] = k
		}
		return out
	})
}

// Values returns the definition for #values(map).
func Values() functions.CustomFunctionDef {
	return mapFunc("values", func(m types.MapView) any {
		keys := m.Keys()
		out := make([]any, len(keys))
		for i, k := range keys {
			out[i], _ = m.Get(k)
		}
		return out
	})
}

// Entries returns the definition for #entries(map): a list of {key, value}
// maps, the same shape map selections expose.
func Entries() functions.CustomFunctionDef {
	return mapFunc("entries", func(m types.MapView) any {
		keys := m.Keys()
		out := make([]any, len(keys))
		for i, k := range keys {
			v, _ := m.Get(k)
			out[i] = types.MapOf("key", k, "value", v)
		}
		return out
	})
}

func keySet(fn string, args []any) (map[string]bool, error) {
	set := make(map[string]bool, len(args))
	for i := 1; i < len(args); i++ {
		if list, ok := types.AsList(args[i]); ok {
			for _, v := range list {
				set[fmt.Sprint(v)] = true
			}
			continue
		}
		k, err := extutil.String(fn, args, i)
		if err != nil {
			return nil, err
		}
		set[k] = true
	}
	return set, nil
}

func filterKeys(name string, keep bool) functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    name,
		MinArgs: 2,
		MaxArgs: -1,
		Fn: func(_ context.Context, args ...any) (any, error) {
			m, err := extutil.Map(name, args, 0)
			if err != nil {
				return nil, err
			}
			set, err := keySet(name, args)
			if err != nil {
				return nil, err
			}
			out := types.NewMap(0)
			for _, k := range m.Keys() {
				if set[k] == keep {
					v, _ := m.Get(k)
					out.Set(k, v)
				}
			}
			return out, nil
		},
	}
}

// Pick returns the definition for #pick(map, keys...). Keys may be given as
// separate arguments or as one list.
func Pick() functions.CustomFunctionDef { return filterKeys("pick", true) }

// Omit returns the definition for #omit(map, keys...).
func Omit() functions.CustomFunctionDef { return filterKeys("omit", false) }

// Merge returns the definition for #merge(maps...). Later maps win on
// duplicate keys; a key keeps the position of its first occurrence.
func Merge() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "merge",
		MinArgs: 1,
		MaxArgs: -1,
		Fn: func(_ context.Context, args ...any) (any, error) {
			out := types.NewMap(0)
			for i := range args {
				m, err := extutil.Map("merge", args, i)
				if err != nil {
					return nil, err
				}
				for _, k := range m.Keys() {
					v, _ := m.Get(k)
					out.Set(k, v)
				}
			}
			return out, nil
		},
	}
}
