package exttypes_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/gospel/pkg/ext/exttypes"
	"github.com/sandrolain/gospel/pkg/functions"
	"github.com/sandrolain/gospel/pkg/types"
)

func call(t *testing.T, def functions.CustomFunctionDef, args ...any) any {
	t.Helper()
	v, err := def.Call(context.Background(), args...)
	require.NoError(t, err, "#%s", def.Name)
	return v
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, "null"},
		{true, "boolean"},
		{int8(3), "number"},
		{"s", "string"},
		{[]any{}, "list"},
		{[2]int{}, "list"},
		{types.MapOf(), "map"},
		{map[string]int{}, "map"},
		{func() {}, "function"},
		{struct{}{}, "object"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, call(t, exttypes.TypeOf(), tt.in))
		})
	}
}

func TestPredicates(t *testing.T) {
	assert.Equal(t, true, call(t, exttypes.IsString(), "x"))
	assert.Equal(t, false, call(t, exttypes.IsString(), 1.0))
	assert.Equal(t, true, call(t, exttypes.IsNumber(), math.NaN()))
	assert.Equal(t, true, call(t, exttypes.IsBoolean(), false))
	assert.Equal(t, true, call(t, exttypes.IsList(), []string{"a"}))
	assert.Equal(t, false, call(t, exttypes.IsList(), "abc"))
	assert.Equal(t, true, call(t, exttypes.IsMap(), map[string]any{}))
	assert.Equal(t, true, call(t, exttypes.IsNull(), nil))
	assert.Equal(t, false, call(t, exttypes.IsNull(), 0.0))
}

func TestIsEmpty(t *testing.T) {
	for _, v := range []any{nil, "", []any{}, types.MapOf(), map[string]int{}} {
		assert.Equal(t, true, call(t, exttypes.IsEmpty(), v), "%#v", v)
	}
	for _, v := range []any{" ", 0.0, false, []any{nil}, types.MapOf("a", nil)} {
		assert.Equal(t, false, call(t, exttypes.IsEmpty(), v), "%#v", v)
	}
}

func TestConversions(t *testing.T) {
	tests := []struct {
		name string
		def  functions.CustomFunctionDef
		in   any
		want any
	}{
		{"number from string", exttypes.ToNumber(), " 2.5 ", 2.5},
		{"number from bool", exttypes.ToNumber(), true, 1.0},
		{"number from int", exttypes.ToNumber(), uint16(7), 7.0},
		{"number from null", exttypes.ToNumber(), nil, nil},
		{"string from integer", exttypes.ToString(), 42.0, "42"},
		{"string from decimal", exttypes.ToString(), 0.1, "0.1"},
		{"string from large", exttypes.ToString(), 1e21, "1000000000000000000000"},
		{"string from infinity", exttypes.ToString(), math.Inf(-1), "-Infinity"},
		{"string from null", exttypes.ToString(), nil, "null"},
		{"string from list", exttypes.ToString(), []any{1.0, "a"}, `[1,"a"]`},
		{"boolean from string", exttypes.ToBoolean(), "", false},
		{"boolean from number", exttypes.ToBoolean(), 2.0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, call(t, tt.def, tt.in))
		})
	}
}

func TestDefault(t *testing.T) {
	assert.Equal(t, "fallback", call(t, exttypes.Default(), nil, "fallback"))
	assert.Equal(t, 0.0, call(t, exttypes.Default(), 0.0, "fallback"))
}

func TestConversionErrors(t *testing.T) {
	_, err := exttypes.ToNumber().Call(context.Background(), "abc")
	require.Error(t, err)
	code, _ := types.Code(err)
	assert.Equal(t, types.ErrInvalidArgument, code)
	assert.Contains(t, err.Error(), "'abc'")

	_, err = exttypes.ToNumber().Call(context.Background(), []any{})
	require.Error(t, err)
	code, _ = types.Code(err)
	assert.Equal(t, types.ErrInvalidArgument, code)
}
