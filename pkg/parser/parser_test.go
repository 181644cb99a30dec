package parser_test

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/gospel/internal/astgen"
	"github.com/sandrolain/gospel/pkg/parser"
	"github.com/sandrolain/gospel/pkg/types"
)

func num(v float64) types.Node { return &types.NumberLiteral{Value: v} }
func str(s string) types.Node { return &types.StringLiteral{Value: s} }
func boolean(b bool) types.Node { return &types.BooleanLiteral{Value: b} }
func prop(name string) types.Node { return &types.PropertyReference{PropertyName: name} }

func safeProp(name string) types.Node {
	return &types.PropertyReference{PropertyName: name, NullSafeNavigation: true}
}

func compound(components ...types.Node) types.Node {
	return &types.CompoundExpression{ExpressionComponents: components}
}

func list(elements ...types.Node) types.Node {
	if elements == nil {
		elements = []types.Node{}
	}
	return &types.InlineList{Elements: elements}
}

func noArgs() []types.Node { return []types.Node{} }

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  types.Node
	}{
		{"integer", "42", num(42)},
		{"decimal", "3.25", num(3.25)},
		{"whitespace", " \t42\n ", num(42)},
		{"single quoted", "'it''s'", str("it's")},
		{"double quoted", `"say ""hi"""`, str(`say "hi"`)},
		{"no backslash escapes", `'a\n'`, str(`a\n`)},
		{"true", "true", boolean(true)},
		{"null", "null", &types.NullLiteral{}},
		{"keyword prefix", "true_x", prop("true_x")},
		{"variable", "#v", &types.VariableReference{VariableName: "v"}},
		{"function", "#f(1, 'x',)", &types.FunctionReference{FunctionName: "f", Args: []types.Node{num(1), str("x")}}},
		{"function no args", "#f()", &types.FunctionReference{FunctionName: "f", Args: noArgs()}},
		{"method", "m()", &types.MethodReference{MethodName: "m", Args: noArgs()}},
		{"property chain", "a.b.c", compound(prop("a"), prop("b"), prop("c"))},
		{"null-safe property", "a?.b", compound(prop("a"), safeProp("b"))},
		{"spaced navigation", "a ?. b", compound(prop("a"), safeProp("b"))},
		{"null-safe method", "a?.m(1)", compound(prop("a"), &types.MethodReference{
			MethodName: "m", Args: []types.Node{num(1)}, NullSafeNavigation: true,
		})},
		{"indexers", "xs[0]?['k']", compound(prop("xs"),
			&types.Indexer{Index: num(0)},
			&types.Indexer{Index: str("k"), NullSafeNavigation: true})},
		{"projection", "xs.![x * 2]", compound(prop("xs"),
			&types.Projection{Expression: &types.OpMultiply{Left: prop("x"), Right: num(2)}})},
		{"null-safe selection", "xs?.?[ ok ]", compound(prop("xs"),
			&types.SelectionAll{Expression: prop("ok"), NullSafeNavigation: true})},
		{"first and last", "xs.^[a].$[b]", compound(prop("xs"),
			&types.SelectionFirst{Expression: prop("a")},
			&types.SelectionLast{Expression: prop("b")})},
		{"dollar property", "a.$ [0]", compound(prop("a"), prop("$"), &types.Indexer{Index: num(0)})},
		{"last selection", "a.$[0]", compound(prop("a"), &types.SelectionLast{Expression: num(0)})},
		{"this", "#this.x", compound(&types.VariableReference{VariableName: "this"}, prop("x"))},
		{"function continuation", "a#f()", compound(prop("a"), &types.FunctionReference{FunctionName: "f", Args: noArgs()})},
		{"paren start", "(a.b).c", compound(compound(prop("a"), prop("b")), prop("c"))},
		{"number start", "1.5.x", compound(num(1.5), prop("x"))},
		{"list", "{1, 2}", list(num(1), num(2))},
		{"empty list", "{}", list()},
		{"empty map", "{ : }", &types.InlineMap{Elements: []types.MapEntry{}}},
		{"map", "{a: 1, 'b c': 2,}", &types.InlineMap{Elements: []types.MapEntry{
			{Key: "a", Value: num(1)},
			{Key: "b c", Value: num(2)},
		}}},
		{"list of elvis", "{a ?: b}", list(&types.Elvis{Expression: prop("a"), IfFalse: prop("b")})},
		{"nested list", "{{:}}", list(&types.InlineMap{Elements: []types.MapEntry{}})},
		{"precedence", "1 + 2 * 3", &types.OpPlus{Left: num(1), Right: &types.OpMultiply{Left: num(2), Right: num(3)}}},
		{"left assoc", "1 - 2 - 3", &types.OpMinus{Left: &types.OpMinus{Left: num(1), Right: num(2)}, Right: num(3)}},
		{"parens", "(1 + 2) * 3", &types.OpMultiply{Left: &types.OpPlus{Left: num(1), Right: num(2)}, Right: num(3)}},
		{"power", "2 ** 3", &types.OpPower{Base: num(2), Expression: num(3)}},
		{"modulus", "7 % 2", &types.OpModulus{Left: num(7), Right: num(2)}},
		{"logical", "a && b || c", &types.OpOr{Left: &types.OpAnd{Left: prop("a"), Right: prop("b")}, Right: prop("c")}},
		{"relational", "a >= 1", &types.OpGE{Left: prop("a"), Right: num(1)}},
		{"not equal", "a != b", &types.OpNE{Left: prop("a"), Right: prop("b")}},
		{"matches", "'abc' matches '^a'", &types.OpMatches{Left: str("abc"), Right: str("^a")}},
		{"between", "x between {1, 2}", &types.OpBetween{Left: prop("x"), Right: list(num(1), num(2))}},
		{"negative", "-a", &types.Negative{Value: prop("a")}},
		{"negative compound", "-5.x", &types.Negative{Value: compound(num(5), prop("x"))}},
		{"double not", "!!true", &types.OpNot{Expression: &types.OpNot{Expression: boolean(true)}}},
		{"elvis", "a ?: b", &types.Elvis{Expression: prop("a"), IfFalse: prop("b")}},
		{"ternary", "a?b:c", &types.Ternary{Expression: prop("a"), IfTrue: prop("b"), IfFalse: prop("c")}},
		{"nested ternary", "a ? b ? c : d : e", &types.Ternary{
			Expression: prop("a"),
			IfTrue:     &types.Ternary{Expression: prop("b"), IfTrue: prop("c"), IfFalse: prop("d")},
			IfFalse:    prop("e"),
		}},
		{"ternary in elvis", "a ?: b ? 1 : 2", &types.Elvis{
			Expression: prop("a"),
			IfFalse:    &types.Ternary{Expression: prop("b"), IfTrue: num(1), IfFalse: num(2)},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parser.Parse(tt.input)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("Parse(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input string
		code  types.ErrorCode
		pos   int
	}{
		{"", types.ErrEmptyExpression, 0},
		{"   ", types.ErrEmptyExpression, 3},
		{"'abc", types.ErrStringNotClosed, 0},
		{"a + 'x", types.ErrStringNotClosed, 4},
		{"(1 + 2", types.ErrUnterminatedGroup, 6},
		{"xs[1", types.ErrUnterminatedGroup, 4},
		{"{1, 2", types.ErrUnterminatedGroup, 5},
		{"xs[]", types.ErrSyntaxError, 3},
		{"{a: }", types.ErrSyntaxError, 4},
		{")", types.ErrSyntaxError, 0},
		{"a ? b", types.ErrIncompleteTernary, 5},
		{"a ?:", types.ErrIncompleteTernary, 4},
		{"1 +", types.ErrMissingOperand, 3},
		{"1 <", types.ErrMissingOperand, 3},
		{"-", types.ErrMissingOperand, 1},
		{"a = 1", types.ErrUnknownOperator, 3},
		{"1 < 2 < 3", types.ErrTrailingInput, 6},
		{"1+2)", types.ErrTrailingInput, 3},
		{"a >= 1 == b", types.ErrTrailingInput, 7},
		{"1 ** 2 ** 3", types.ErrTrailingInput, 7},
		{"m(1", types.ErrTrailingInput, 1},
		{"1.", types.ErrTrailingInput, 1},
		{"#f (1)", types.ErrTrailingInput, 3},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := parser.Parse(tt.input)
			require.Error(t, err)
			var perr *types.Error
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.code, perr.Code, perr.Error())
			assert.Equal(t, tt.pos, perr.Position, perr.Error())
		})
	}
}

func TestTrailingInputToken(t *testing.T) {
	_, err := parser.Parse("1 < 2 < 3")
	var perr *types.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "< 3", perr.Token)
	assert.Contains(t, perr.Message, `"< 3"`)
}

func TestMaxDepth(t *testing.T) {
	deep := strings.Repeat("(", 300) + "1" + strings.Repeat(")", 300)

	_, err := parser.Parse(deep)
	code, ok := types.Code(err)
	require.True(t, ok)
	assert.Equal(t, types.ErrMaxNestingExceeded, code)

	n, err := parser.NewParser(deep, parser.WithMaxDepth(0)).Parse()
	require.NoError(t, err)
	assert.Equal(t, num(1), n.AST())

	_, err = parser.Compile("-(-(-1))", parser.WithMaxDepth(4))
	code, _ = types.Code(err)
	assert.Equal(t, types.ErrMaxNestingExceeded, code)

	// One level per group: the top expression plus 255 groups fit the default.
	nested := func(n int) string {
		return strings.Repeat("(", n) + "1" + strings.Repeat(")", n)
	}
	_, err = parser.Parse(nested(parser.DefaultMaxDepth - 1))
	require.NoError(t, err)
	_, err = parser.Parse(nested(parser.DefaultMaxDepth))
	require.Error(t, err)
	assert.Contains(t, err.Error(), fmt.Sprintf("maximum nesting depth %d exceeded", parser.DefaultMaxDepth))

	_, err = parser.Compile("--1", parser.WithMaxDepth(3))
	require.NoError(t, err)
	_, err = parser.Compile("---1", parser.WithMaxDepth(3))
	code, _ = types.Code(err)
	assert.Equal(t, types.ErrMaxNestingExceeded, code)
}

func TestCompileKeepsSource(t *testing.T) {
	expr, err := parser.Compile("1+2*3")
	require.NoError(t, err)
	assert.Equal(t, "1+2*3", expr.Source())
	assert.Equal(t, "1 + (2 * 3)", expr.Canonical())
}

func TestDebugTrace(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	_, err := parser.Compile("a + 1", parser.WithDebug(true), parser.WithLogger(logger))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "parser rule")
	assert.Contains(t, buf.String(), "rule=primary")

	buf.Reset()
	_, err = parser.Compile("a + 1", parser.WithLogger(logger))
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}

func TestParserReuse(t *testing.T) {
	p := parser.NewParser("a.b")
	first, err := p.Parse()
	require.NoError(t, err)
	second, err := p.Parse()
	require.NoError(t, err)
	if diff := cmp.Diff(first.AST(), second.AST()); diff != "" {
		t.Fatalf("second parse differs (-first +second):\n%s", diff)
	}
}

// Printing a tree and parsing the text gives the tree back.
func TestPrintParseRoundTrip(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		g := astgen.New(seed)
		for i := 0; i < 200; i++ {
			want := g.Node()
			src := types.Print(want)
			got, err := parser.Parse(src)
			require.NoError(t, err, "seed %d: %s", seed, src)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("seed %d: %s did not round trip (-want +got):\n%s", seed, src, diff)
			}
		}
	}
}

// Canonical text is a fixed point of parse and print.
func TestCanonicalIsStable(t *testing.T) {
	inputs := []string{
		"a.b?.c[0].![x ** 2]",
		"{a: {1, 2}, 'k k': null} ?: #f(-1, !true)",
		"x > 1 ? 'big' : x between {0, 1} ? 'unit' : 'small'",
		"xs.?[#this matches '^a'].$[true]",
	}
	for _, in := range inputs {
		first, err := parser.Compile(in)
		require.NoError(t, err)
		second, err := parser.Compile(first.Canonical())
		require.NoError(t, err, first.Canonical())
		assert.Equal(t, first.Canonical(), second.Canonical())
	}
}
