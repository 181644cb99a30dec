package evaluator

import (
	"reflect"

	"github.com/sandrolain/gospel/pkg/types"
)

// lookupProperty resolves name on a single navigation entry. Map-shaped
// values are looked up by key; structs (and pointers to structs) by field
// and then by method. A method is returned as a callable bound to its
// receiver.
//
// A present key or field holding nil is Some(nil), distinct from None.
func lookupProperty(entry any, name string) maybe {
	if entry == nil {
		return none()
	}
	if m, ok := types.AsMap(entry); ok {
		if v, found := m.Get(name); found {
			return some(v)
		}
		return none()
	}

	rv := reflect.ValueOf(entry)
	if v, ok := structField(rv, name); ok {
		return some(v)
	}
	if fn, ok := boundMethod(rv, name); ok {
		return some(fn)
	}
	return none()
}

func structField(rv reflect.Value, name string) (any, bool) {
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, false
	}
	index, ok := structFields(rv.Type())[name]
	if !ok {
		return nil, false
	}
	f, err := rv.FieldByIndexErr(index)
	if err != nil {
		// nil embedded pointer on the path
		return nil, false
	}
	return f.Interface(), true
}

// boundMethod finds an exported method named name, or with the first letter
// of name upper-cased.
func boundMethod(rv reflect.Value, name string) (any, bool) {
	if !rv.IsValid() {
		return nil, false
	}
	candidates := []string{name}
	if up := upperFirst(name); up != name {
		candidates = append(candidates, up)
	}
	for _, n := range candidates {
		if m := rv.MethodByName(n); m.IsValid() {
			return m.Interface(), true
		}
	}
	return nil, false
}
