package evaluator_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/gospel/pkg/evaluator"
	"github.com/sandrolain/gospel/pkg/parser"
	"github.com/sandrolain/gospel/pkg/types"
)

func mustParse(t *testing.T, src string) types.Node {
	t.Helper()
	n, err := parser.Parse(src)
	require.NoError(t, err)
	return n
}

func TestSessionReuse(t *testing.T) {
	ctx := context.Background()
	root := store()
	s := evaluator.New().Bind(root, map[string]any{"limit": 50})

	got, err := s.Evaluate(ctx, mustParse(t, "products.?[price > #limit].size()"))
	require.NoError(t, err)
	assert.Equal(t, 2.0, got)

	got, err = s.Evaluate(ctx, mustParse(t, "title"))
	require.NoError(t, err)
	assert.Equal(t, "store", got)
	assert.Equal(t, root, s.Root())
}

func TestSessionRestoresStackAfterError(t *testing.T) {
	ctx := context.Background()
	root := store()
	s := evaluator.New().Bind(root, nil)

	_, err := s.Evaluate(ctx, mustParse(t, "products.![supplier.missing]"))
	require.Error(t, err)

	got, err := s.Evaluate(ctx, mustParse(t, "#this"))
	require.NoError(t, err)
	assert.Equal(t, root, got)
}

func TestSessionRejectsReentrantUse(t *testing.T) {
	ctx := context.Background()
	var s *evaluator.Session
	s = evaluator.New().Bind(nil, map[string]any{
		"reenter": func(ctx context.Context) (any, error) {
			return s.Evaluate(ctx, &types.NumberLiteral{Value: 1})
		},
	})

	_, err := s.Evaluate(ctx, mustParse(t, "#reenter()"))
	requireCode(t, err, types.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "already evaluating")

	got, err := s.Evaluate(ctx, mustParse(t, "1 + 1"))
	require.NoError(t, err)
	assert.Equal(t, 2.0, got)
}

func TestSessionNilNode(t *testing.T) {
	_, err := evaluator.New().Bind(nil, nil).Evaluate(context.Background(), nil)
	requireCode(t, err, types.ErrInvalidArgument)
}

func TestSessionThisAndRoot(t *testing.T) {
	s := evaluator.New().Bind(5.0, nil)
	got, err := s.Evaluate(context.Background(), mustParse(t, "{1, 2}.![#this + #root]"))
	require.NoError(t, err)
	assert.Equal(t, []any{6.0, 7.0}, got)
}

func TestMakeEvaluator(t *testing.T) {
	f := evaluator.MakeEvaluator(store(), map[string]any{"n": 1}, evaluator.WithMaxDepth(100))

	got, err := f(mustParse(t, "products[#n].name"))
	require.NoError(t, err)
	assert.Equal(t, "Gadget", got)

	_, err = f(mustParse(t, "nope"))
	requireCode(t, err, types.ErrUndefinedProperty)
}
