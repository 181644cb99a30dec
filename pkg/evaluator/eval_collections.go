package evaluator

import (
	"context"
	"math"
	"reflect"
	"strconv"

	"github.com/sandrolain/gospel/pkg/types"
)

// evalIndexer indexes the innermost context with the evaluated index.
func (s *Session) evalIndexer(ctx context.Context, n *types.Indexer) (any, error) {
	head := s.stack.head()
	if head == nil && n.NullSafeNavigation {
		return nil, nil
	}
	index, err := s.eval(ctx, n.Index)
	if err != nil {
		return nil, err
	}

	if str, ok := head.(string); ok {
		if i, ok := intIndex(index); ok {
			runes := []rune(str)
			if i >= 0 && i < len(runes) {
				return string(runes[i]), nil
			}
			return nil, types.Errorf(types.ErrIndexOutOfRange,
				"index %s is out of range on string %s", types.Describe(index), types.Describe(str))
		}
		return nil, unsupportedIndex(head, index)
	}

	if list, ok := types.AsList(head); ok {
		if i, ok := intIndex(index); ok {
			if i >= 0 && i < len(list) {
				return types.Normalize(list[i]), nil
			}
			return nil, types.Errorf(types.ErrIndexOutOfRange,
				"index %s is out of range on list %s", types.Describe(index), types.Describe(list))
		}
		return nil, unsupportedIndex(head, index)
	}

	key, ok := mapKey(index)
	if !ok {
		return nil, unsupportedIndex(head, index)
	}
	if m, ok := types.AsMap(head); ok {
		if v, found := m.Get(key); found {
			return types.Normalize(v), nil
		}
		return nil, types.Errorf(types.ErrKeyNotFound,
			"key %s not found in map %s", key, types.Describe(head))
	}
	if head != nil && isStruct(head) {
		if v, found := structField(reflect.ValueOf(head), key); found {
			return types.Normalize(v), nil
		}
		return nil, types.Errorf(types.ErrKeyNotFound,
			"key %s not found in object %s", key, types.Describe(head))
	}
	return nil, unsupportedIndex(head, index)
}

func unsupportedIndex(head, index any) error {
	return types.Errorf(types.ErrUnsupportedIndex,
		"not supported: indexing into %s with %s", types.Describe(head), types.Describe(index))
}

// intIndex returns index as an int when it is an integral number.
func intIndex(index any) (int, bool) {
	f, ok := types.ToNumber(index)
	if !ok || math.Trunc(f) != f || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func mapKey(index any) (string, bool) {
	if s, ok := index.(string); ok {
		return s, true
	}
	if f, ok := types.ToNumber(index); ok {
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}
	return "", false
}

func isStruct(v any) bool {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}

// collection classifies the subject of a projection or selection. Exactly
// one of list and m is set when ok is true.
func collection(head any) (list []any, m types.MapView, ok bool) {
	if l, ok := types.AsList(head); ok {
		return l, nil, true
	}
	if mv, ok := types.AsMap(head); ok {
		return nil, mv, true
	}
	return nil, nil, false
}

func notACollection(op string, head any) error {
	return types.Errorf(types.ErrNotACollection,
		"cannot run %s on non-collection %s", op, types.Describe(head))
}

// evalProjection maps the body over list elements or map values.
func (s *Session) evalProjection(ctx context.Context, n *types.Projection) (any, error) {
	head := s.stack.head()
	if head == nil && n.NullSafeNavigation {
		return nil, nil
	}
	list, m, ok := collection(head)
	if !ok {
		return nil, notACollection("projection", head)
	}
	if m != nil {
		list = make([]any, 0, m.Len())
		for _, k := range m.Keys() {
			v, _ := m.Get(k)
			list = append(list, v)
		}
	}

	out := make([]any, len(list))
	for i, e := range list {
		v, err := s.within(ctx, types.Normalize(e), n.Expression)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// predicate evaluates a selection body against subject. The body must
// produce a boolean.
func (s *Session) predicate(ctx context.Context, subject any, body types.Node, at int) (bool, error) {
	v, err := s.within(ctx, subject, body)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, types.Errorf(types.ErrPredicateNotBoolean,
			"result %s at index %d of selection expression is not boolean", types.Describe(v), at)
	}
	return b, nil
}

func entry(k string, v any) *types.Map {
	return types.MapOf("key", k, "value", types.Normalize(v))
}

// evalSelectionAll keeps the list elements or map entries that satisfy the
// body. Map entries are visible to the body as {key, value}.
func (s *Session) evalSelectionAll(ctx context.Context, n *types.SelectionAll) (any, error) {
	head := s.stack.head()
	if head == nil && n.NullSafeNavigation {
		return nil, nil
	}
	list, m, ok := collection(head)
	if !ok {
		return nil, notACollection("selection", head)
	}

	if m != nil {
		out := types.NewMap(0)
		for i, k := range m.Keys() {
			v, _ := m.Get(k)
			keep, err := s.predicate(ctx, entry(k, v), n.Expression, i)
			if err != nil {
				return nil, err
			}
			if keep {
				out.Set(k, types.Normalize(v))
			}
		}
		return out, nil
	}

	out := make([]any, 0, len(list))
	for i, e := range list {
		e = types.Normalize(e)
		keep, err := s.predicate(ctx, e, n.Expression, i)
		if err != nil {
			return nil, err
		}
		if keep {
			out = append(out, e)
		}
	}
	return out, nil
}

// evalSelectionFind returns the first (or, with last set, the last) list
// element or map entry satisfying the body, or nil. A matching map entry
// is returned as a single-entry map. The subject is never reordered.
func (s *Session) evalSelectionFind(ctx context.Context, body types.Node, nullSafe, last bool) (any, error) {
	head := s.stack.head()
	if head == nil && nullSafe {
		return nil, nil
	}
	list, m, ok := collection(head)
	if !ok {
		return nil, notACollection("selection", head)
	}

	var keys []string
	size := len(list)
	if m != nil {
		keys = m.Keys()
		size = len(keys)
	}

	for step := 0; step < size; step++ {
		i := step
		if last {
			i = size - 1 - step
		}
		if m != nil {
			v, _ := m.Get(keys[i])
			match, err := s.predicate(ctx, entry(keys[i], v), body, step)
			if err != nil {
				return nil, err
			}
			if match {
				return types.MapOf(keys[i], types.Normalize(v)), nil
			}
			continue
		}
		e := types.Normalize(list[i])
		match, err := s.predicate(ctx, e, body, step)
		if err != nil {
			return nil, err
		}
		if match {
			return e, nil
		}
	}
	return nil, nil
}
