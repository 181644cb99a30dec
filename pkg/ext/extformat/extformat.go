// Package extformat provides data-format functions for gospel expressions:
// CSV, JSON and YAML encoding and decoding.
//
// Decoded documents use the evaluator's value model: maps keep their
// document key order, numbers are float64.
package extformat

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sandrolain/gospel/pkg/ext/extutil"
	"github.com/sandrolain/gospel/pkg/functions"
	"github.com/sandrolain/gospel/pkg/types"
)

// All returns all format function definitions.
func All() []functions.CustomFunctionDef {
	return []functions.CustomFunctionDef{
		ParseCSV(),
		ToCSV(),
		ParseJSON(),
		ToJSON(),
		ParseYAML(),
		ToYAML(),
	}
}

// ParseCSV returns the definition for #parseCSV(str [, separator]). The
// first row holds the headers; every other row becomes a map. Missing
// trailing fields are empty strings.
func ParseCSV() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "parseCSV",
		MinArgs: 1,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...any) (any, error) {
			src, err := extutil.String("parseCSV", args, 0)
			if err != nil {
				return nil, err
			}
			r := csv.NewReader(strings.NewReader(src))
			r.TrimLeadingSpace = true
			r.FieldsPerRecord = -1
			if len(args) > 1 && args[1] != nil {
				sep, err := extutil.String("parseCSV", args, 1)
				if err != nil {
					return nil, err
				}
				runes := []rune(sep)
				if len(runes) != 1 {
					return nil, types.Errorf(types.ErrInvalidArgument,
						"#parseCSV: separator must be a single character, got %s", types.QuoteString(sep))
				}
				r.Comma = runes[0]
			}

			records, err := r.ReadAll()
			if err != nil {
				return nil, types.Errorf(types.ErrInvalidArgument, "#parseCSV: %v", err).WithCause(err)
			}
			out := make([]any, 0, len(records))
			if len(records) == 0 {
				return out, nil
			}
			headers := records[0]
			for _, row := range records[1:] {
				m := types.NewMap(len(headers))
				for i, h := range headers {
					v := ""
					if i < len(row) {
						v = row[i]
					}
					m.Set(h, v)
				}
				out = append(out, m)
			}
			return out, nil
		},
	}
}

// ToCSV returns the definition for #toCSV(rows [, columns]). Without
// columns the keys of the first row are used, in order. Values are
// rendered as in string concatenation; null is an empty field.
func ToCSV() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "toCSV",
		MinArgs: 1,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...any) (any, error) {
			rows, err := extutil.List("toCSV", args, 0)
			if err != nil {
				return nil, err
			}
			maps := make([]types.MapView, len(rows))
			for i, row := range rows {
				m, ok := types.AsMap(row)
				if !ok {
					return nil, types.Errorf(types.ErrInvalidArgument,
						"#toCSV: row %d is not a map: %s", i, types.Describe(row))
				}
				maps[i] = m
			}

			var columns []string
			if len(args) > 1 && args[1] != nil {
				cols, err := extutil.List("toCSV", args, 1)
				if err != nil {
					return nil, err
				}
				for i, c := range cols {
					s, ok := c.(string)
					if !ok {
						return nil, types.Errorf(types.ErrInvalidArgument,
							"#toCSV: column %d is not a string: %s", i, types.Describe(c))
					}
					columns = append(columns, s)
				}
			} else if len(maps) > 0 {
				columns = maps[0].Keys()
			}
			if len(columns) == 0 {
				return "", nil
			}

			var buf bytes.Buffer
			w := csv.NewWriter(&buf)
			_ = w.Write(columns)
			for _, m := range maps {
				record := make([]string, len(columns))
				for i, col := range columns {
					if v, ok := m.Get(col); ok && v != nil {
						record[i] = field(v)
					}
				}
				_ = w.Write(record)
			}
			w.Flush()
			if err := w.Error(); err != nil {
				return nil, types.Errorf(types.ErrCallFailed, "#toCSV: %v", err).WithCause(err)
			}
			return buf.String(), nil
		},
	}
}

func field(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if n, ok := types.ToNumber(v); ok {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return types.Describe(v)
	}
	return string(b)
}

// ParseJSON returns the definition for #parseJSON(str).
func ParseJSON() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "parseJSON",
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(_ context.Context, args ...any) (any, error) {
			src, err := extutil.String("parseJSON", args, 0)
			if err != nil {
				return nil, err
			}
			dec := json.NewDecoder(strings.NewReader(src))
			dec.UseNumber()
			v, err := decodeJSON(dec)
			if err != nil {
				return nil, types.Errorf(types.ErrInvalidArgument, "#parseJSON: %v", err).WithCause(err)
			}
			if dec.More() {
				return nil, types.Errorf(types.ErrInvalidArgument, "#parseJSON: trailing data after document")
			}
			return v, nil
		},
	}
}

// decodeJSON reads one JSON value token by token so that object keys keep
// their order.
func decodeJSON(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		if t == '[' {
			list := []any{}
			for dec.More() {
				v, err := decodeJSON(dec)
				if err != nil {
					return nil, err
				}
				list = append(list, v)
			}
			_, err := dec.Token()
			return list, err
		}
		m := types.NewMap(0)
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			v, err := decodeJSON(dec)
			if err != nil {
				return nil, err
			}
			m.Set(keyTok.(string), v)
		}
		_, err := dec.Token()
		return m, err
	case json.Number:
		return t.Float64()
	}
	return tok, nil
}

// ToJSON returns the definition for #toJSON(value [, indent]). A positive
// indent pretty-prints with that many spaces.
func ToJSON() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "toJSON",
		MinArgs: 1,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...any) (any, error) {
			indent, err := extutil.OptionalInt("toJSON", args, 1, 0)
			if err != nil {
				return nil, err
			}
			var b []byte
			if indent > 0 {
				b, err = json.MarshalIndent(args[0], "", strings.Repeat(" ", indent))
			} else {
				b, err = json.Marshal(args[0])
			}
			if err != nil {
				return nil, types.Errorf(types.ErrInvalidArgument, "#toJSON: %v", err).WithCause(err)
			}
			return string(b), nil
		},
	}
}

// ParseYAML returns the definition for #parseYAML(str). Only the first
// document of a stream is read; an empty input yields null.
func ParseYAML() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "parseYAML",
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(_ context.Context, args ...any) (any, error) {
			src, err := extutil.String("parseYAML", args, 0)
			if err != nil {
				return nil, err
			}
			var doc yaml.Node
			if err := yaml.Unmarshal([]byte(src), &doc); err != nil {
				return nil, types.Errorf(types.ErrInvalidArgument, "#parseYAML: %v", err).WithCause(err)
			}
			if doc.Kind == 0 || len(doc.Content) == 0 {
				return nil, nil
			}
			// Decoding runs yaml.v3's alias expansion limits, which fromYAML
			// does not repeat.
			var plain any
			if err := doc.Decode(&plain); err != nil {
				return nil, types.Errorf(types.ErrInvalidArgument, "#parseYAML: %v", err).WithCause(err)
			}
			return fromYAML(doc.Content[0])
		},
	}
}

// fromYAML converts a node tree, keeping mapping key order. Aliases are
// resolved; mapping keys must be scalars.
func fromYAML(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return fromYAML(n.Alias)
	case yaml.SequenceNode:
		list := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := fromYAML(c)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, nil
	case yaml.MappingNode:
		m := types.NewMap(len(n.Content) / 2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			if k.Kind != yaml.ScalarNode {
				return nil, types.Errorf(types.ErrInvalidArgument,
					"#parseYAML: line %d: mapping keys must be scalars", k.Line)
			}
			v, err := fromYAML(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			m.Set(k.Value, v)
		}
		return m, nil
	}
	var v any
	if err := n.Decode(&v); err != nil {
		return nil, types.Errorf(types.ErrInvalidArgument, "#parseYAML: line %d: %v", n.Line, err).WithCause(err)
	}
	return types.Normalize(v), nil
}

// ToYAML returns the definition for #toYAML(value).
func ToYAML() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "toYAML",
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(_ context.Context, args ...any) (any, error) {
			n, err := toYAML(args[0])
			if err != nil {
				return nil, err
			}
			b, err := yaml.Marshal(n)
			if err != nil {
				return nil, types.Errorf(types.ErrInvalidArgument, "#toYAML: %v", err).WithCause(err)
			}
			return string(b), nil
		},
	}
}

// toYAML builds a node tree so that *types.Map entries keep their order.
func toYAML(v any) (*yaml.Node, error) {
	if m, ok := types.AsMap(v); ok {
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range m.Keys() {
			val, _ := m.Get(k)
			vn, err := toYAML(val)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, vn)
		}
		return n, nil
	}
	if _, isString := v.(string); !isString {
		if l, ok := types.AsList(v); ok {
			n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
			for _, e := range l {
				en, err := toYAML(e)
				if err != nil {
					return nil, err
				}
				n.Content = append(n.Content, en)
			}
			return n, nil
		}
	}
	n := &yaml.Node{}
	if f, ok := types.ToNumber(v); ok {
		v = f
		if math.Trunc(f) == f && math.Abs(f) < 1<<53 {
			v = int64(f)
		}
	}
	if err := n.Encode(v); err != nil {
		return nil, types.Errorf(types.ErrInvalidArgument, "#toYAML: %v", err).WithCause(err)
	}
	return n, nil
}
