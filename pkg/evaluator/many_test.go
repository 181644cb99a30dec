package evaluator_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/gospel/pkg/cache"
	"github.com/sandrolain/gospel/pkg/evaluator"
	"github.com/sandrolain/gospel/pkg/parser"
	"github.com/sandrolain/gospel/pkg/types"
)

func compileAll(t *testing.T, sources ...string) []*types.Expression {
	t.Helper()
	out := make([]*types.Expression, len(sources))
	for i, src := range sources {
		expr, err := parser.Compile(src)
		require.NoError(t, err)
		out[i] = expr
	}
	return out
}

func TestEvalMany(t *testing.T) {
	exprs := compileAll(t, "1 + 1", "title", "products.size()", "products.![name][2]")
	want := []any{2.0, "store", 3.0, "Gizmo"}

	for _, concurrent := range []bool{true, false} {
		ev := evaluator.New(evaluator.WithConcurrency(concurrent), evaluator.WithMaxConcurrency(2))
		got, err := ev.EvalMany(context.Background(), exprs, store(), nil)
		require.NoError(t, err)
		assert.Equal(t, want, got, "concurrent=%v", concurrent)
	}
}

func TestEvalManyError(t *testing.T) {
	exprs := compileAll(t, "1", "missing", "2")
	for _, concurrent := range []bool{true, false} {
		ev := evaluator.New(evaluator.WithConcurrency(concurrent))
		got, err := ev.EvalMany(context.Background(), exprs, store(), nil)
		requireCode(t, err, types.ErrUndefinedProperty)
		assert.Nil(t, got)
	}
}

func TestEvalManyEmpty(t *testing.T) {
	got, err := evaluator.New().EvalMany(context.Background(), nil, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEvalStringCaching(t *testing.T) {
	ctx := context.Background()
	ev := evaluator.New(evaluator.WithCaching(true))
	require.NotNil(t, ev.Cache())
	assert.Equal(t, cache.DefaultCapacity, ev.Cache().Capacity())

	for i := 0; i < 3; i++ {
		got, err := ev.EvalString(ctx, "title + ''", store(), nil)
		requireCode(t, err, types.ErrNotANumber)
		assert.Nil(t, got)
	}
	got, err := ev.EvalString(ctx, "products[0].price * 2", store(), nil)
	require.NoError(t, err)
	assert.Equal(t, 50.0, got)

	stats := ev.Cache().Stats()
	assert.Equal(t, uint64(2), stats.Hits)
	assert.Equal(t, uint64(2), stats.Misses)
	assert.Equal(t, 2, ev.Cache().Len())

	_, err = ev.EvalString(ctx, "1 +", nil, nil)
	requireCode(t, err, types.ErrMissingOperand)
	assert.Equal(t, 2, ev.Cache().Len())
}

func TestEvalStringSharedCache(t *testing.T) {
	c := cache.New(1)
	ev := evaluator.New(evaluator.WithCache(c))
	assert.Same(t, c, ev.Cache())

	_, err := ev.EvalString(context.Background(), "1", nil, nil)
	require.NoError(t, err)
	_, err = ev.EvalString(context.Background(), "2", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), c.Stats().Evictions)
}

func TestEvalStringWithoutCache(t *testing.T) {
	ev := evaluator.New(evaluator.WithCaching(false), evaluator.WithCacheSize(10))
	assert.Nil(t, ev.Cache())

	got, err := ev.EvalString(context.Background(), "'a' matches 'a'", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, true, got)
}

func TestEvalStringCompileOptions(t *testing.T) {
	ev := evaluator.New(evaluator.WithCompileOptions(parser.WithMaxDepth(2)))
	_, err := ev.EvalString(context.Background(), "((1))", nil, nil)
	requireCode(t, err, types.ErrMaxNestingExceeded)
}
