package evaluator_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/gospel/pkg/evaluator"
	"github.com/sandrolain/gospel/pkg/parser"
	"github.com/sandrolain/gospel/pkg/types"
)

// Helper functions

func eval(t *testing.T, src string, root any, vars map[string]any, opts ...evaluator.EvalOption) any {
	t.Helper()

	expr, err := parser.Compile(src)
	require.NoError(t, err, "compile %q", src)

	result, err := evaluator.New(opts...).Eval(context.Background(), expr, root, vars)
	require.NoError(t, err, "eval %q", src)
	return result
}

func evalExpectError(t *testing.T, src string, root any, vars map[string]any, opts ...evaluator.EvalOption) error {
	t.Helper()

	expr, err := parser.Compile(src)
	require.NoError(t, err, "compile %q", src)

	_, err = evaluator.New(opts...).Eval(context.Background(), expr, root, vars)
	require.Error(t, err, "eval %q", src)
	return err
}

func requireCode(t *testing.T, err error, want types.ErrorCode) {
	t.Helper()
	code, ok := types.Code(err)
	require.True(t, ok, "not a gospel error: %v", err)
	assert.Equal(t, want, code, err.Error())
}

func toJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

// store has no top-level "name" key, so element names are not shadowed by
// the root during property lookup.
func store() map[string]any {
	return map[string]any{
		"title": "store",
		"products": []any{
			map[string]any{"name": "Widget", "price": 25.0, "tags": []any{"a", "b"}},
			map[string]any{"name": "Gadget", "price": 150.0, "supplier": map[string]any{"company": "Acme"}},
			map[string]any{"name": "Gizmo", "price": 75, "supplier": nil},
		},
		"stock": map[string]any{"Widget": 10, "Gadget": 0, "Gizmo": 4},
	}
}

// Scalar tests

func TestEvalScalars(t *testing.T) {
	tests := []struct {
		src  string
		want any
	}{
		{"42", 42.0},
		{"'it''s'", "it's"},
		{"true", true},
		{"null", nil},
		{"1 + 2 * 3", 7.0},
		{"(1 + 2) * 3", 9.0},
		{"10 - 4 - 3", 3.0},
		{"7 / 2", 3.5},
		{"7 % 4", 3.0},
		{"2 ** 10", 1024.0},
		{"-(3)", -3.0},
		{"--3", 3.0},
		{"1 < 2", true},
		{"2 <= 2", true},
		{"3 > 4", false},
		{"3 >= 4", false},
		{"1 == 1.0", true},
		{"'a' == 'a'", true},
		{"'a' == 'b'", false},
		{"null == null", true},
		{"null == 0", false},
		{"1 != 'x'", true},
		{"true == 1", false},
		{"{1} == {1}", false},
		{"true && false", false},
		{"true && true", true},
		{"null && true", nil},
		{"false && null", false},
		{"false || true", true},
		{"null || null", false},
		{"!true", false},
		{"!0", true},
		{"!''", true},
		{"!'x'", false},
		{"!null", true},
		{"true ? 1 : 2", 1.0},
		{"false ? 1 : 2", 2.0},
		{"null ? 1 : 2", 2.0},
		{"null ?: 'd'", "d"},
		{"0 ?: 'd'", 0.0},
		{"'' ?: 'd'", ""},
		{"'abc' matches 'b'", true},
		{"'abc' matches '^b'", false},
		{"'abc' matches '^[a-c]+$'", true},
		{"3 between {1, 5}", true},
		{"5 between {1, 5}", true},
		{"6 between {1, 5}", false},
		{"'b' between {'a', 'c'}", true},
		{"'b' between {1, 5}", false},
		{"{1, 2, 3}.size()", 3.0},
		{"{}.size()", 0.0},
		{"{1, 2, 3}.contains(2)", true},
		{"{1, 2, 3}.contains('2')", false},
		{"'hello'[1]", "e"},
		{"'héllo'[1]", "é"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			assert.Equal(t, tt.want, eval(t, tt.src, nil, nil))
		})
	}
}

func TestEvalDivisionByZero(t *testing.T) {
	assert.True(t, math.IsInf(eval(t, "1 / 0", nil, nil).(float64), 1))
	assert.True(t, math.IsInf(eval(t, "-1 / 0", nil, nil).(float64), -1))
	assert.True(t, math.IsNaN(eval(t, "0 / 0", nil, nil).(float64)))
	assert.True(t, math.IsNaN(eval(t, "1 % 0", nil, nil).(float64)))
}

func TestEvalInlineCollections(t *testing.T) {
	assert.Equal(t, []any{1.0, "a", nil, true}, eval(t, "{1, 'a', null, true}", nil, nil))
	assert.Equal(t, []any{}, eval(t, "{}", nil, nil))

	m := eval(t, "{b: 1, a: {2, 3}, 'c d': {:}}", nil, nil)
	require.IsType(t, &types.Map{}, m)
	assert.Equal(t, []string{"b", "a", "c d"}, m.(*types.Map).Keys())
	assert.JSONEq(t, `{"b":1,"a":[2,3],"c d":{}}`, toJSON(t, m))
}

// Navigation tests

func TestEvalNavigation(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"title", `"store"`},
		{"products[1].name", `"Gadget"`},
		{"products[0].tags[1]", `"b"`},
		{"products[2].price", `75`},
		{"products[1].supplier.company", `"Acme"`},
		{"products[2].supplier?.company", `null`},
		{"products[2].supplier?.company ?: 'unknown'", `"unknown"`},
		{"products[2]?.supplier?['company']", `null`},
		{"stock['Gizmo']", `4`},
		{"stock.Widget", `10`},
		{"#this.title", `"store"`},
		{"#root.title", `"store"`},
		{"#root?.missing", `null`},
		{"products.![name]", `["Widget","Gadget","Gizmo"]`},
		{"products.![price > 50]", `[false,true,true]`},
		{"products.?[price > 50].![name]", `["Gadget","Gizmo"]`},
		{"products.^[price > 50].name", `"Gadget"`},
		{"products.$[price > 50].name", `"Gizmo"`},
		{"products.?[price > 1000]", `[]`},
		{"products.^[price > 1000]", `null`},
		{"products.?[price > 50].size()", `2`},
		{"products.![#root.title]", `["store","store","store"]`},
		{"stock.![#this * 2]", `[0,8,20]`},
		{"stock.?[value > 0]", `{"Gizmo":4,"Widget":10}`},
		{"stock.^[value == 0]", `{"Gadget":0}`},
		{"stock.$[value > 0]", `{"Widget":10}`},
		{"stock.?[key matches '^G'].![#this]", `[0,4]`},
		{"{1, 2, 3}.![#this * 10]", `[10,20,30]`},
		{"{1, 2, 3}.?[#this > 1]", `[2,3]`},
		{"{{1, 2}, {3}}.![#this.size()]", `[2,1]`},
		{"null?.![#this]", `null`},
		{"null?.?[true]", `null`},
		{"null?.size()", `null`},
		{"null?[0]", `null`},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			assert.JSONEq(t, tt.want, toJSON(t, eval(t, tt.src, store(), nil)))
		})
	}
}

// Property lookup scans the navigation stack from the root upwards, so a
// name defined by an outer context wins over the same name in an inner one.
func TestEvalOuterContextWins(t *testing.T) {
	root := map[string]any{
		"name":  "outer",
		"inner": map[string]any{"name": "inner", "only": "here"},
	}
	assert.Equal(t, "outer", eval(t, "inner.name", root, nil))
	assert.Equal(t, "here", eval(t, "inner.only", root, nil))
	assert.Equal(t, "inner", eval(t, "inner['name']", root, nil))
	assert.Equal(t, "inner", eval(t, "inner.#this['name']", root, nil))
}

func TestEvalSelectionLastDoesNotReorder(t *testing.T) {
	xs := []any{1.0, 2.0, 3.0}
	root := map[string]any{"xs": xs}

	assert.Equal(t, 3.0, eval(t, "xs.$[#this > 1]", root, nil))
	assert.Equal(t, 4.0, eval(t, "xs.$[#this > 1] + xs[0]", root, nil))
	assert.Equal(t, 1.0, eval(t, "xs.$[true] - xs.$[true] + xs.^[true]", root, nil))
	assert.Equal(t, []any{1.0, 2.0, 3.0}, xs)
}

func TestEvalGoValues(t *testing.T) {
	root := map[string]any{
		"ints":   []int{3, 1, 2},
		"counts": map[string]int{"b": 2, "a": 1},
		"arr":    [2]string{"x", "y"},
		"num":    json.Number("2.5"),
		"u8":     uint8(7),
	}
	assert.Equal(t, 1.0, eval(t, "ints[1]", root, nil))
	assert.Equal(t, []any{6.0, 2.0, 4.0}, eval(t, "ints.![#this * 2]", root, nil))
	assert.Equal(t, []any{1.0, 2.0}, eval(t, "counts.![#this]", root, nil))
	assert.Equal(t, 2.0, eval(t, "counts.b", root, nil))
	assert.Equal(t, "y", eval(t, "arr[1]", root, nil))
	assert.Equal(t, 5.0, eval(t, "num * 2", root, nil))
	assert.Equal(t, 8.0, eval(t, "u8 + 1", root, nil))
	assert.Equal(t, true, eval(t, "u8 == 7", root, nil))
}

// Error tests

func TestEvalErrors(t *testing.T) {
	tests := []struct {
		src  string
		code types.ErrorCode
	}{
		{"1 + 'a'", types.ErrNotANumber},
		{"'a' + 'b'", types.ErrNotANumber},
		{"-'a'", types.ErrNotANumber},
		{"{1} * 2", types.ErrNotANumber},
		{"null < 1", types.ErrNotANumber},
		{"'a' matches 1", types.ErrNotAString},
		{"1 matches 'a'", types.ErrNotAString},
		{"1 && true", types.ErrNotABoolean},
		{"true || 'x'", types.ErrNotABoolean},
		{"false && 'x'", types.ErrNotABoolean},
		{"{1}.?[1]", types.ErrPredicateNotBoolean},
		{"products.?[name]", types.ErrPredicateNotBoolean},
		{"stock.^[value]", types.ErrPredicateNotBoolean},
		{"1 ? 2 : 3", types.ErrConditionNotBoolean},
		{"'yes' ? 2 : 3", types.ErrConditionNotBoolean},
		{"1 between 2", types.ErrBetweenOperand},
		{"3 between {1}", types.ErrBetweenOperand},
		{"3 between {1, 2, 3}", types.ErrBetweenOperand},
		{"5.![#this]", types.ErrNotACollection},
		{"title.?[true]", types.ErrNotACollection},
		{"null.![#this]", types.ErrNotACollection},
		{"{1}[true]", types.ErrUnsupportedIndex},
		{"{1}[0.5]", types.ErrUnsupportedIndex},
		{"products['x']", types.ErrUnsupportedIndex},
		{"5[0]", types.ErrUnsupportedIndex},
		{"null[0]", types.ErrUnsupportedIndex},
		{"products[5]", types.ErrIndexOutOfRange},
		{"products[-1]", types.ErrIndexOutOfRange},
		{"title[10]", types.ErrIndexOutOfRange},
		{"stock['Nope']", types.ErrKeyNotFound},
		{"stock[0]", types.ErrKeyNotFound},
		{"'x' matches '['", types.ErrInvalidRegex},
		{"#nov", types.ErrUndefinedVariable},
		{"#nofn()", types.ErrUndefinedFunction},
		{"missing", types.ErrUndefinedProperty},
		{"missing?.x", types.ErrUndefinedProperty},
		{"products[2].supplier.company", types.ErrUndefinedProperty},
		{"nomethod()", types.ErrUndefinedMethod},
		{"title.size()", types.ErrUndefinedMethod},
		{"{1}.contains(1, 2)", types.ErrArgumentCountMismatch},
		{"title()", types.ErrNotAFunction},
		{"#root()", types.ErrNotAFunction},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			requireCode(t, evalExpectError(t, tt.src, store(), nil), tt.code)
		})
	}
}

func TestEvalErrorMessages(t *testing.T) {
	err := evalExpectError(t, "products[5]", store(), nil)
	assert.Contains(t, err.Error(), "index 5 is out of range")

	err = evalExpectError(t, "missing", store(), nil)
	assert.Contains(t, err.Error(), `property "missing" not found`)

	err = evalExpectError(t, "{1, 'x'}.?[#this > 0]", nil, nil)
	requireCode(t, err, types.ErrNotANumber)

	err = evalExpectError(t, "{true, 1}.?[#this]", nil, nil)
	assert.Contains(t, err.Error(), "at index 1")
}

func TestEvalNullSafeMethodOnValue(t *testing.T) {
	assert.Nil(t, eval(t, "title?.nomethod()", store(), nil))
	assert.Nil(t, eval(t, "title?.title()", store(), nil))
}

func TestEvalMaxDepth(t *testing.T) {
	err := evalExpectError(t, "1 + (2 + (3 + 4))", nil, nil, evaluator.WithMaxDepth(3))
	requireCode(t, err, types.ErrStackOverflow)

	assert.Equal(t, 10.0, eval(t, "1 + (2 + (3 + 4))", nil, nil, evaluator.WithMaxDepth(4)))
	assert.Equal(t, 10.0, eval(t, "1 + (2 + (3 + 4))", nil, nil, evaluator.WithMaxDepth(0)))
}

func TestEvalCanceled(t *testing.T) {
	expr, err := parser.Compile("1 + 1")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = evaluator.New().Eval(ctx, expr, nil, nil)
	requireCode(t, err, types.ErrCanceled)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEvalTimeout(t *testing.T) {
	slow := func() float64 {
		time.Sleep(50 * time.Millisecond)
		return 1
	}
	err := evalExpectError(t, "#slow() + 1", nil, map[string]any{"slow": slow},
		evaluator.WithTimeout(10*time.Millisecond))
	requireCode(t, err, types.ErrCanceled)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEvalNilExpression(t *testing.T) {
	_, err := evaluator.New().Eval(context.Background(), nil, nil, nil)
	requireCode(t, err, types.ErrInvalidArgument)
}

func TestEvalDebugLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	eval(t, "1 + 2", nil, nil, evaluator.WithDebug(true), evaluator.WithLogger(logger))
	assert.Contains(t, buf.String(), "evaluating node")
	assert.Contains(t, buf.String(), "kind=OpPlus")
	assert.Contains(t, buf.String(), "kind=NumberLiteral")

	buf.Reset()
	eval(t, "1 + 2", nil, nil, evaluator.WithLogger(logger))
	assert.NotContains(t, buf.String(), "evaluating node")
}
