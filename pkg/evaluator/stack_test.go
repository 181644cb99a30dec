package evaluator

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNavStack(t *testing.T) {
	s := newNavStack("root")
	assert.Equal(t, "root", s.head())
	assert.Equal(t, 1, s.depth())

	s.push(1.0)
	s.push(nil)
	assert.Nil(t, s.head())
	assert.Equal(t, "root", s.root())
	assert.Equal(t, []any{"root", 1.0, nil}, s.bottomUp())

	s.pop()
	s.pop()
	assert.Equal(t, "root", s.head())
	assert.Panics(t, s.pop)
}

func TestStructFieldNames(t *testing.T) {
	type sample struct {
		Plain  string
		Tagged string `spel:"t" json:"tj"`
		JSON   string `json:"j,omitempty"`
		Skip   string `json:"-"`
		hidden string
	}
	fields := structFields(reflect.TypeOf(sample{}))

	for name, index := range map[string]int{
		"Plain": 0, "plain": 0,
		"t": 1, "tj": 1, "Tagged": 1, "tagged": 1,
		"j": 2, "JSON": 2, "jSON": 2,
		"Skip": 3, "skip": 3,
	} {
		assert.Equal(t, []int{index}, fields[name], name)
	}
	assert.NotContains(t, fields, "-")
	assert.NotContains(t, fields, "hidden")
}

func TestCaseHelpers(t *testing.T) {
	assert.Equal(t, "name", lowerFirst("Name"))
	assert.Equal(t, "Name", upperFirst("name"))
	assert.Equal(t, "", upperFirst(""))
	assert.Equal(t, "Élan", upperFirst("élan"))
}

func TestLookupPropertyDistinguishesNil(t *testing.T) {
	m := lookupProperty(map[string]any{"k": nil}, "k")
	assert.False(t, m.isNone())
	assert.Nil(t, m.value())

	assert.True(t, lookupProperty(map[string]any{}, "k").isNone())
	assert.True(t, lookupProperty(nil, "k").isNone())
	assert.True(t, lookupProperty(42.0, "k").isNone())
}

func TestRegexCache(t *testing.T) {
	a, err := getOrCompileRegex("^a+$")
	assert.NoError(t, err)
	b, err := getOrCompileRegex("^a+$")
	assert.NoError(t, err)
	assert.Same(t, a, b)

	_, err = getOrCompileRegex("(")
	assert.Error(t, err)
}

func TestRegexCacheEvicts(t *testing.T) {
	first := "^evict-first$"
	_, err := getOrCompileRegex(first)
	require.NoError(t, err)

	for i := 0; i < regexCacheSize+50; i++ {
		_, err := getOrCompileRegex(fmt.Sprintf("^evict-%d$", i))
		require.NoError(t, err)
	}

	assert.Equal(t, regexCacheSize, regexCache.Len())
	assert.False(t, regexCache.Contains(first))
}
