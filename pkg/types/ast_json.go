package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MarshalNode encodes n in the AST wire format: a JSON object whose "type"
// field names the node kind, followed by the kind-specific fields.
func MarshalNode(n Node) ([]byte, error) {
	w, err := toWire(n)
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

func toWire(n Node) (*Map, error) {
	if n == nil {
		return nil, fmt.Errorf("cannot encode nil node")
	}
	m := MapOf("type", string(n.Kind()))
	child := func(key string, c Node) error {
		w, err := toWire(c)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", n.Kind(), key, err)
		}
		m.Set(key, w)
		return nil
	}
	children := func(key string, cs []Node) error {
		out := make([]any, len(cs))
		for i, c := range cs {
			w, err := toWire(c)
			if err != nil {
				return fmt.Errorf("%s.%s[%d]: %w", n.Kind(), key, i, err)
			}
			out[i] = w
		}
		m.Set(key, out)
		return nil
	}

	var err error
	switch n := n.(type) {
	case *BooleanLiteral:
		m.Set("value", n.Value)
	case *NumberLiteral:
		m.Set("value", n.Value)
	case *StringLiteral:
		m.Set("value", n.Value)
	case *NullLiteral:
	case *VariableReference:
		m.Set("variableName", n.VariableName)
	case *FunctionReference:
		m.Set("functionName", n.FunctionName)
		err = children("args", n.Args)
		m.Set("nullSafeNavigation", n.NullSafeNavigation)
	case *PropertyReference:
		m.Set("propertyName", n.PropertyName)
		m.Set("nullSafeNavigation", n.NullSafeNavigation)
	case *MethodReference:
		m.Set("methodName", n.MethodName)
		err = children("args", n.Args)
		m.Set("nullSafeNavigation", n.NullSafeNavigation)
	case *Indexer:
		err = child("index", n.Index)
		m.Set("nullSafeNavigation", n.NullSafeNavigation)
	case CollectionNode:
		err = child("expression", n.Body())
		m.Set("nullSafeNavigation", n.NullSafe())
	case *CompoundExpression:
		err = children("expressionComponents", n.ExpressionComponents)
	case *InlineList:
		err = children("elements", n.Elements)
	case *InlineMap:
		elems := NewMap(len(n.Elements))
		for _, e := range n.Elements {
			w, werr := toWire(e.Value)
			if werr != nil {
				return nil, fmt.Errorf("InlineMap.elements.%s: %w", e.Key, werr)
			}
			elems.Set(e.Key, w)
		}
		m.Set("elements", elems)
	case *Negative:
		err = child("value", n.Value)
	case *OpNot:
		err = child("expression", n.Expression)
	case *Elvis:
		if err = child("expression", n.Expression); err == nil {
			err = child("ifFalse", n.IfFalse)
		}
	case *Ternary:
		if err = child("expression", n.Expression); err == nil {
			if err = child("ifTrue", n.IfTrue); err == nil {
				err = child("ifFalse", n.IfFalse)
			}
		}
	case *OpPower:
		if err = child("base", n.Base); err == nil {
			err = child("expression", n.Expression)
		}
	case BinaryNode:
		l, r := n.Operands()
		if err = child("left", l); err == nil {
			err = child("right", r)
		}
	default:
		return nil, fmt.Errorf("unknown node type %T", n)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// UnmarshalNode decodes a node from its wire format. Unknown kinds and
// missing required children are reported as ErrInvalidSerializedAST errors.
func UnmarshalNode(data []byte) (Node, error) {
	n, err := fromWire(data, "$")
	if err != nil {
		return nil, NewError(ErrInvalidSerializedAST, err.Error(), -1).WithCause(err)
	}
	return n, nil
}

type wireFields map[string]json.RawMessage

func (f wireFields) str(key string) (string, error) {
	var s string
	raw, ok := f[key]
	if !ok {
		return "", fmt.Errorf("missing field %q", key)
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("field %q: %w", key, err)
	}
	return s, nil
}

// flag reads an optional boolean field; absent means false.
func (f wireFields) flag(key string) (bool, error) {
	var b bool
	raw, ok := f[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, &b); err != nil {
		return false, fmt.Errorf("field %q: %w", key, err)
	}
	return b, nil
}

func fromWire(data []byte, path string) (Node, error) {
	var f wireFields
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if f == nil {
		return nil, fmt.Errorf("%s: node is null", path)
	}
	kindName, err := f.str("type")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	kind := Kind(kindName)
	path = path + "(" + kindName + ")"

	child := func(key string) (Node, error) {
		raw, ok := f[key]
		if !ok {
			return nil, fmt.Errorf("%s: missing field %q", path, key)
		}
		return fromWire(raw, path+"."+key)
	}
	list := func(key string) ([]Node, error) {
		raw, ok := f[key]
		if !ok {
			return nil, fmt.Errorf("%s: missing field %q", path, key)
		}
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("%s.%s: %w", path, key, err)
		}
		out := make([]Node, len(items))
		for i, it := range items {
			n, err := fromWire(it, fmt.Sprintf("%s.%s[%d]", path, key, i))
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	}
	fail := func(err error) (Node, error) {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	switch kind {
	case KindBooleanLiteral:
		var v struct{ Value *bool }
		if err := json.Unmarshal(data, &v); err != nil || v.Value == nil {
			return fail(fmt.Errorf("missing boolean value"))
		}
		return &BooleanLiteral{Value: *v.Value}, nil
	case KindNumberLiteral:
		var v struct{ Value *float64 }
		if err := json.Unmarshal(data, &v); err != nil || v.Value == nil {
			return fail(fmt.Errorf("missing number value"))
		}
		return &NumberLiteral{Value: *v.Value}, nil
	case KindStringLiteral:
		s, err := f.str("value")
		if err != nil {
			return fail(err)
		}
		return &StringLiteral{Value: s}, nil
	case KindNullLiteral:
		return &NullLiteral{}, nil
	case KindVariableReference:
		name, err := f.str("variableName")
		if err != nil {
			return fail(err)
		}
		return &VariableReference{VariableName: name}, nil
	case KindFunctionReference, KindMethodReference:
		nameKey := "functionName"
		if kind == KindMethodReference {
			nameKey = "methodName"
		}
		name, err := f.str(nameKey)
		if err != nil {
			return fail(err)
		}
		args, err := list("args")
		if err != nil {
			return nil, err
		}
		ns, err := f.flag("nullSafeNavigation")
		if err != nil {
			return fail(err)
		}
		if kind == KindMethodReference {
			return &MethodReference{MethodName: name, Args: args, NullSafeNavigation: ns}, nil
		}
		return &FunctionReference{FunctionName: name, Args: args, NullSafeNavigation: ns}, nil
	case KindPropertyReference:
		name, err := f.str("propertyName")
		if err != nil {
			return fail(err)
		}
		ns, err := f.flag("nullSafeNavigation")
		if err != nil {
			return fail(err)
		}
		return &PropertyReference{PropertyName: name, NullSafeNavigation: ns}, nil
	case KindIndexer:
		idx, err := child("index")
		if err != nil {
			return nil, err
		}
		ns, err := f.flag("nullSafeNavigation")
		if err != nil {
			return fail(err)
		}
		return &Indexer{Index: idx, NullSafeNavigation: ns}, nil
	case KindProjection, KindSelectionAll, KindSelectionFirst, KindSelectionLast:
		body, err := child("expression")
		if err != nil {
			return nil, err
		}
		ns, err := f.flag("nullSafeNavigation")
		if err != nil {
			return fail(err)
		}
		n, _ := NewCollection(kind, body, ns)
		return n, nil
	case KindCompoundExpression:
		comps, err := list("expressionComponents")
		if err != nil {
			return nil, err
		}
		if len(comps) == 0 {
			return fail(fmt.Errorf("empty expressionComponents"))
		}
		return &CompoundExpression{ExpressionComponents: comps}, nil
	case KindInlineList:
		elems, err := list("elements")
		if err != nil {
			return nil, err
		}
		return &InlineList{Elements: elems}, nil
	case KindInlineMap:
		raw, ok := f["elements"]
		if !ok {
			return fail(fmt.Errorf("missing field %q", "elements"))
		}
		keys, values, err := decodeOrderedObject(raw)
		if err != nil {
			return fail(err)
		}
		m := &InlineMap{Elements: make([]MapEntry, 0, len(keys))}
		for _, k := range keys {
			v, err := fromWire(values[k], path+".elements."+k)
			if err != nil {
				return nil, err
			}
			m.Elements = append(m.Elements, MapEntry{Key: k, Value: v})
		}
		return m, nil
	case KindNegative:
		v, err := child("value")
		if err != nil {
			return nil, err
		}
		return &Negative{Value: v}, nil
	case KindOpNot:
		v, err := child("expression")
		if err != nil {
			return nil, err
		}
		return &OpNot{Expression: v}, nil
	case KindElvis:
		e, err := child("expression")
		if err != nil {
			return nil, err
		}
		ifFalse, err := child("ifFalse")
		if err != nil {
			return nil, err
		}
		return &Elvis{Expression: e, IfFalse: ifFalse}, nil
	case KindTernary:
		e, err := child("expression")
		if err != nil {
			return nil, err
		}
		ifTrue, err := child("ifTrue")
		if err != nil {
			return nil, err
		}
		ifFalse, err := child("ifFalse")
		if err != nil {
			return nil, err
		}
		return &Ternary{Expression: e, IfTrue: ifTrue, IfFalse: ifFalse}, nil
	case KindOpPower:
		base, err := child("base")
		if err != nil {
			return nil, err
		}
		exp, err := child("expression")
		if err != nil {
			return nil, err
		}
		return &OpPower{Base: base, Expression: exp}, nil
	}

	if kind.Operator() != "" {
		l, err := child("left")
		if err != nil {
			return nil, err
		}
		r, err := child("right")
		if err != nil {
			return nil, err
		}
		n, _ := NewBinary(kind, l, r)
		return n, nil
	}
	return fail(fmt.Errorf("unknown node type %q", kindName))
}

// decodeOrderedObject splits a JSON object into its keys, in document order,
// and their raw values.
func decodeOrderedObject(raw []byte) ([]string, map[string]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("expected object, got %v", tok)
	}
	var keys []string
	values := make(map[string]json.RawMessage)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("expected object key, got %v", tok)
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, nil, err
		}
		if _, dup := values[key]; !dup {
			keys = append(keys, key)
		}
		values[key] = v
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	return keys, values, nil
}
