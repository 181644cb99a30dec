// Package astgen generates random gospel syntax trees for property and
// fuzz tests.
//
// Trees from Node cover every node kind and are shaped like parser output:
// printing one and parsing the text yields an equal tree. Trees from Typed
// are also well typed, so they evaluate without error against a null root
// and an empty variables table.
package astgen

import (
	"math/rand"

	"github.com/sandrolain/gospel/pkg/types"
)

// Type is the result type requested from Typed.
type Type int

// Result types.
const (
	Any Type = iota
	Boolean
	Number
	String
)

// DefaultMaxDepth bounds the nesting of generated trees.
const DefaultMaxDepth = 6

var keywords = map[string]bool{
	"true":    true,
	"false":   true,
	"null":    true,
	"matches": true,
	"between": true,
}

var binaryKinds = []types.Kind{
	types.KindOpAnd, types.KindOpOr,
	types.KindOpEQ, types.KindOpNE,
	types.KindOpGE, types.KindOpGT, types.KindOpLE, types.KindOpLT,
	types.KindOpPlus, types.KindOpMinus,
	types.KindOpMultiply, types.KindOpDivide, types.KindOpModulus,
	types.KindOpMatches, types.KindOpBetween, types.KindOpPower,
}

var collectionKinds = []types.Kind{
	types.KindProjection,
	types.KindSelectionAll,
	types.KindSelectionFirst,
	types.KindSelectionLast,
}

const (
	identStart = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ_"
	identPart  = identStart + "0123456789$"
	alnum      = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// textRunes feeds free-form string literals: quotes, whitespace and
// multi-byte runes included.
var textRunes = []rune("ab z'\"\t\n.#?[]{}:,-éß日本🙂")

// Option configures a Generator.
type Option func(*Generator)

// WithMaxDepth sets the nesting bound. Values below 1 are raised to 1.
func WithMaxDepth(depth int) Option {
	return func(g *Generator) {
		g.maxDepth = depth
	}
}

// Generator produces random trees from a seeded source. The same seed and
// options give the same sequence of trees. A Generator is not safe for
// concurrent use.
type Generator struct {
	rnd      *rand.Rand
	maxDepth int
}

// New creates a Generator seeded with seed.
func New(seed int64, opts ...Option) *Generator {
	g := &Generator{
		rnd:      rand.New(rand.NewSource(seed)),
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.maxDepth < 1 {
		g.maxDepth = 1
	}
	return g
}

// Node returns a syntactically arbitrary tree.
func (g *Generator) Node() types.Node {
	return g.node(g.maxDepth)
}

// Typed returns a tree that evaluates to a value of type t.
func (g *Generator) Typed(t Type) types.Node {
	return g.typed(t, g.maxDepth)
}

func (g *Generator) chance(n int) bool {
	return g.rnd.Intn(n) == 0
}

func (g *Generator) node(depth int) types.Node {
	if depth <= 1 || g.chance(4) {
		return g.leaf()
	}
	d := depth - 1
	switch g.rnd.Intn(12) {
	case 0, 1:
		return g.compound(d)
	case 2:
		return g.inlineList(d, g.node)
	case 3:
		return g.inlineMap(d, g.node)
	case 4:
		return &types.FunctionReference{FunctionName: g.identifier(), Args: g.args(d)}
	case 5:
		return &types.MethodReference{MethodName: g.identifier(), Args: g.args(d)}
	case 6:
		return &types.Negative{Value: g.node(d)}
	case 7:
		return &types.OpNot{Expression: g.node(d)}
	case 8:
		if g.chance(2) {
			return &types.Elvis{Expression: g.node(d), IfFalse: g.node(d)}
		}
		return &types.Ternary{Expression: g.node(d), IfTrue: g.node(d), IfFalse: g.node(d)}
	}
	kind := binaryKinds[g.rnd.Intn(len(binaryKinds))]
	n, _ := types.NewBinary(kind, g.node(d), g.node(d))
	return n
}

func (g *Generator) leaf() types.Node {
	switch g.rnd.Intn(7) {
	case 0:
		return &types.BooleanLiteral{Value: g.chance(2)}
	case 1:
		return &types.NullLiteral{}
	case 2:
		return g.number()
	case 3:
		return &types.StringLiteral{Value: g.text(textRunes)}
	case 4:
		return &types.VariableReference{VariableName: g.identifier()}
	case 5:
		return &types.PropertyReference{PropertyName: g.identifier()}
	}
	return &types.FunctionReference{FunctionName: g.identifier(), Args: []types.Node{}}
}

// compound builds a start node followed by one to three continuations.
// Start nodes are never null-safe, as in parser output.
func (g *Generator) compound(depth int) types.Node {
	n := 1 + g.rnd.Intn(3)
	components := make([]types.Node, 0, n+1)
	components = append(components, g.node(depth))
	for i := 0; i < n; i++ {
		components = append(components, g.continuation(depth))
	}
	return &types.CompoundExpression{ExpressionComponents: components}
}

func (g *Generator) continuation(depth int) types.Node {
	nullSafe := g.chance(3)
	switch g.rnd.Intn(9) {
	case 0:
		return &types.PropertyReference{PropertyName: g.identifier(), NullSafeNavigation: nullSafe}
	case 1:
		return &types.MethodReference{MethodName: g.identifier(), Args: g.args(depth), NullSafeNavigation: nullSafe}
	case 2:
		return &types.Indexer{Index: g.node(depth), NullSafeNavigation: nullSafe}
	case 3, 4, 5, 6:
		kind := collectionKinds[g.rnd.Intn(len(collectionKinds))]
		n, _ := types.NewCollection(kind, g.node(depth), nullSafe)
		return n
	case 7:
		return &types.VariableReference{VariableName: g.identifier()}
	}
	return &types.FunctionReference{FunctionName: g.identifier(), Args: g.args(depth)}
}

func (g *Generator) args(depth int) []types.Node {
	args := make([]types.Node, g.rnd.Intn(3))
	for i := range args {
		args[i] = g.node(depth)
	}
	return args
}

func (g *Generator) inlineList(depth int, elem func(int) types.Node) types.Node {
	elements := make([]types.Node, g.rnd.Intn(4))
	for i := range elements {
		elements[i] = elem(depth)
	}
	return &types.InlineList{Elements: elements}
}

// inlineMap uses distinct keys, mostly identifiers and sometimes quoted.
func (g *Generator) inlineMap(depth int, value func(int) types.Node) types.Node {
	n := g.rnd.Intn(4)
	seen := make(map[string]bool, n)
	entries := make([]types.MapEntry, 0, n)
	for len(entries) < n {
		key := g.identifier()
		if g.chance(4) {
			key = g.text(textRunes)
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		entries = append(entries, types.MapEntry{Key: key, Value: value(depth)})
	}
	return &types.InlineMap{Elements: entries}
}

func (g *Generator) typed(t Type, depth int) types.Node {
	if depth <= 1 || g.chance(4) {
		return g.literal(t)
	}
	d := depth - 1

	switch g.rnd.Intn(4) {
	case 0:
		return &types.Ternary{Expression: g.typed(Boolean, d), IfTrue: g.typed(t, d), IfFalse: g.typed(t, d)}
	case 1:
		return &types.Elvis{Expression: g.typed(t, d), IfFalse: g.typed(t, d)}
	}

	switch t {
	case Boolean:
		return g.boolean(d)
	case Number:
		return g.arithmetic(d)
	case String:
		return g.literal(String)
	}
	switch g.rnd.Intn(5) {
	case 0:
		return g.inlineList(d, func(d int) types.Node { return g.typed(Any, d) })
	case 1:
		return g.inlineMap(d, func(d int) types.Node { return g.typed(Any, d) })
	}
	return g.typed(Type(1+g.rnd.Intn(3)), d)
}

func (g *Generator) boolean(d int) types.Node {
	var kind types.Kind
	var left, right types.Node
	switch g.rnd.Intn(6) {
	case 0:
		return &types.OpNot{Expression: g.typed(Boolean, d)}
	case 1:
		kind = g.pick(types.KindOpAnd, types.KindOpOr)
		left, right = g.typed(Boolean, d), g.typed(Boolean, d)
	case 2:
		kind = g.pick(types.KindOpEQ, types.KindOpNE)
		left, right = g.typed(Any, d), g.typed(Any, d)
	case 3:
		kind = types.KindOpMatches
		left, right = g.typed(String, d), &types.StringLiteral{Value: g.text([]rune(alnum))}
	case 4:
		kind = types.KindOpBetween
		left = g.typed(Number, d)
		right = &types.InlineList{Elements: []types.Node{g.typed(Number, d), g.typed(Number, d)}}
	default:
		kind = g.pick(types.KindOpGE, types.KindOpGT, types.KindOpLE, types.KindOpLT)
		left, right = g.typed(Number, d), g.typed(Number, d)
	}
	n, _ := types.NewBinary(kind, left, right)
	return n
}

func (g *Generator) arithmetic(d int) types.Node {
	switch g.rnd.Intn(5) {
	case 0:
		return &types.Negative{Value: g.typed(Number, d)}
	case 1:
		// {...}.size()
		return &types.CompoundExpression{ExpressionComponents: []types.Node{
			g.inlineList(d, func(d int) types.Node { return g.typed(Any, d) }),
			&types.MethodReference{MethodName: "size", Args: []types.Node{}},
		}}
	}
	kind := g.pick(types.KindOpPlus, types.KindOpMinus, types.KindOpMultiply,
		types.KindOpDivide, types.KindOpModulus, types.KindOpPower)
	n, _ := types.NewBinary(kind, g.typed(Number, d), g.typed(Number, d))
	return n
}

func (g *Generator) literal(t Type) types.Node {
	if t == Any {
		if g.chance(5) {
			return &types.NullLiteral{}
		}
		t = Type(1 + g.rnd.Intn(3))
	}
	switch t {
	case Boolean:
		return &types.BooleanLiteral{Value: g.chance(2)}
	case Number:
		return g.number()
	}
	return &types.StringLiteral{Value: g.text([]rune(alnum))}
}

func (g *Generator) pick(kinds ...types.Kind) types.Kind {
	return kinds[g.rnd.Intn(len(kinds))]
}

// number returns a non-negative literal, an integer or a value with two
// decimals.
func (g *Generator) number() *types.NumberLiteral {
	v := float64(g.rnd.Intn(1000))
	if g.chance(4) {
		v += float64(g.rnd.Intn(100)) / 100
	}
	return &types.NumberLiteral{Value: v}
}

func (g *Generator) identifier() string {
	for {
		n := 1 + g.rnd.Intn(6)
		b := make([]byte, n)
		b[0] = identStart[g.rnd.Intn(len(identStart))]
		for i := 1; i < n; i++ {
			b[i] = identPart[g.rnd.Intn(len(identPart))]
		}
		if s := string(b); !keywords[s] {
			return s
		}
	}
}

func (g *Generator) text(alphabet []rune) string {
	r := make([]rune, g.rnd.Intn(8))
	for i := range r {
		r[i] = alphabet[g.rnd.Intn(len(alphabet))]
	}
	return string(r)
}
