package extnumeric_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/gospel/pkg/ext/extnumeric"
	"github.com/sandrolain/gospel/pkg/functions"
	"github.com/sandrolain/gospel/pkg/types"
)

func call(t *testing.T, def functions.CustomFunctionDef, args ...any) any {
	t.Helper()
	v, err := def.Call(context.Background(), args...)
	require.NoError(t, err, "#%s", def.Name)
	return v
}

func TestNumericFunctions(t *testing.T) {
	tests := []struct {
		name string
		def  functions.CustomFunctionDef
		args []any
		want any
	}{
		{"abs", extnumeric.Abs(), []any{-2.5}, 2.5},
		{"abs int", extnumeric.Abs(), []any{-3}, 3.0},
		{"floor", extnumeric.Floor(), []any{2.7}, 2.0},
		{"ceil", extnumeric.Ceil(), []any{2.1}, 3.0},
		{"sqrt", extnumeric.Sqrt(), []any{16.0}, 4.0},
		{"trunc", extnumeric.Trunc(), []any{-2.7}, -2.0},
		{"sign", extnumeric.Sign(), []any{-0.1}, -1.0},
		{"sign zero", extnumeric.Sign(), []any{0.0}, 0.0},
		{"round half away", extnumeric.Round(), []any{2.5}, 3.0},
		{"round negative half", extnumeric.Round(), []any{-2.5}, -3.0},
		{"round precision", extnumeric.Round(), []any{3.14159, 2.0}, 3.14},
		{"round tens", extnumeric.Round(), []any{1234.0, -2.0}, 1200.0},
		{"log base", extnumeric.Log(), []any{8.0, 2.0}, 3.0},
		{"log natural", extnumeric.Log(), []any{1.0}, 0.0},
		{"clamp low", extnumeric.Clamp(), []any{-5.0, 0.0, 10.0}, 0.0},
		{"clamp high", extnumeric.Clamp(), []any{50.0, 0.0, 10.0}, 10.0},
		{"clamp inside", extnumeric.Clamp(), []any{5, 0, 10}, 5.0},
		{"sum", extnumeric.Sum(), []any{[]any{1.0, 2, 3.5}}, 6.5},
		{"sum empty", extnumeric.Sum(), []any{[]any{}}, 0.0},
		{"avg", extnumeric.Avg(), []any{[]any{1.0, 2.0, 6.0}}, 3.0},
		{"avg empty", extnumeric.Avg(), []any{[]any{}}, nil},
		{"min", extnumeric.Min(), []any{[]int{4, -1, 7}}, -1.0},
		{"max", extnumeric.Max(), []any{[]any{4.0, -1.0, 7.0}}, 7.0},
		{"median odd", extnumeric.Median(), []any{[]any{3.0, 1.0, 2.0}}, 2.0},
		{"median even", extnumeric.Median(), []any{[]any{4.0, 1.0, 3.0, 2.0}}, 2.5},
		{"variance", extnumeric.Variance(), []any{[]any{2.0, 4.0, 4.0, 4.0, 5.0, 5.0, 7.0, 9.0}}, 4.0},
		{"stddev", extnumeric.Stddev(), []any{[]any{2.0, 4.0, 4.0, 4.0, 5.0, 5.0, 7.0, 9.0}}, 2.0},
		{"percentile", extnumeric.Percentile(), []any{[]any{10.0, 20.0, 30.0, 40.0, 50.0}, 25.0}, 20.0},
		{"percentile interpolated", extnumeric.Percentile(), []any{[]any{10.0, 20.0}, 50.0}, 15.0},
		{"percentile empty", extnumeric.Percentile(), []any{[]any{}, 50.0}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := call(t, tt.def, tt.args...)
			if want, ok := tt.want.(float64); ok {
				require.IsType(t, 0.0, got)
				assert.InDelta(t, want, got.(float64), 1e-9)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNumericNaN(t *testing.T) {
	got := call(t, extnumeric.Sqrt(), -1.0)
	assert.True(t, math.IsNaN(got.(float64)))
}

func TestNumericErrors(t *testing.T) {
	tests := []struct {
		name string
		def  functions.CustomFunctionDef
		args []any
		code types.ErrorCode
	}{
		{"not a number", extnumeric.Abs(), []any{"1"}, types.ErrInvalidArgument},
		{"log non-positive", extnumeric.Log(), []any{0.0}, types.ErrInvalidArgument},
		{"log base one", extnumeric.Log(), []any{8.0, 1.0}, types.ErrInvalidArgument},
		{"sum element", extnumeric.Sum(), []any{[]any{1.0, "x"}}, types.ErrInvalidArgument},
		{"sum not a list", extnumeric.Sum(), []any{1.0}, types.ErrInvalidArgument},
		{"percentile range", extnumeric.Percentile(), []any{[]any{1.0}, 101.0}, types.ErrInvalidArgument},
		{"round precision", extnumeric.Round(), []any{1.0, 0.5}, types.ErrInvalidArgument},
		{"clamp arity", extnumeric.Clamp(), []any{1.0, 2.0}, types.ErrArgumentCountMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.def.Call(context.Background(), tt.args...)
			require.Error(t, err)
			code, _ := types.Code(err)
			assert.Equal(t, tt.code, code, err.Error())
		})
	}
}
