package types

// Kind is the discriminant of an AST node. Its string value is the "type"
// field of the node's wire representation.
type Kind string

// AST node kinds.
const (
	// Literals
	KindBooleanLiteral Kind = "BooleanLiteral"
	KindNumberLiteral  Kind = "NumberLiteral"
	KindStringLiteral  Kind = "StringLiteral"
	KindNullLiteral    Kind = "NullLiteral"

	// References
	KindVariableReference Kind = "VariableReference" // #name
	KindFunctionReference Kind = "FunctionReference" // #name(args)
	KindPropertyReference Kind = "PropertyReference" // name
	KindMethodReference   Kind = "MethodReference"   // name(args)

	// Navigation
	KindIndexer            Kind = "Indexer"        // [index]
	KindProjection         Kind = "Projection"     // .![expr]
	KindSelectionAll       Kind = "SelectionAll"   // .?[expr]
	KindSelectionFirst     Kind = "SelectionFirst" // .^[expr]
	KindSelectionLast      Kind = "SelectionLast"  // .$[expr]
	KindCompoundExpression Kind = "CompoundExpression"

	// Constructors
	KindInlineList Kind = "InlineList" // {a, b}
	KindInlineMap  Kind = "InlineMap"  // {k: v}

	// Unary and conditional
	KindNegative Kind = "Negative"
	KindOpNot    Kind = "OpNot"
	KindElvis    Kind = "Elvis"
	KindTernary  Kind = "Ternary"

	// Binary operators
	KindOpAnd      Kind = "OpAnd"
	KindOpOr       Kind = "OpOr"
	KindOpEQ       Kind = "OpEQ"
	KindOpNE       Kind = "OpNE"
	KindOpGE       Kind = "OpGE"
	KindOpGT       Kind = "OpGT"
	KindOpLE       Kind = "OpLE"
	KindOpLT       Kind = "OpLT"
	KindOpPlus     Kind = "OpPlus"
	KindOpMinus    Kind = "OpMinus"
	KindOpMultiply Kind = "OpMultiply"
	KindOpDivide   Kind = "OpDivide"
	KindOpModulus  Kind = "OpModulus"
	KindOpMatches  Kind = "OpMatches"
	KindOpBetween  Kind = "OpBetween"
	KindOpPower    Kind = "OpPower"
)

var operatorSymbols = map[Kind]string{
	KindOpAnd:      "&&",
	KindOpOr:       "||",
	KindOpEQ:       "==",
	KindOpNE:       "!=",
	KindOpGE:       ">=",
	KindOpGT:       ">",
	KindOpLE:       "<=",
	KindOpLT:       "<",
	KindOpPlus:     "+",
	KindOpMinus:    "-",
	KindOpMultiply: "*",
	KindOpDivide:   "/",
	KindOpModulus:  "%",
	KindOpMatches:  "matches",
	KindOpBetween:  "between",
	KindOpPower:    "**",
}

// Operator returns the source symbol of a binary operator kind, or "" for
// any other kind.
func (k Kind) Operator() string {
	return operatorSymbols[k]
}

// Node is an AST node. The set of implementations is closed: every node is
// one of the pointer types declared in this file.
type Node interface {
	Kind() Kind
	node()
}

// BinaryNode is implemented by all two-operand operator nodes, OpPower
// included (Base is its left operand).
type BinaryNode interface {
	Node
	Operands() (left, right Node)
}

// CollectionNode is implemented by Projection and the three selections.
type CollectionNode interface {
	Node
	Body() Node
	NullSafe() bool
}

type (
	// BooleanLiteral is true or false.
	BooleanLiteral struct{ Value bool }
	// NumberLiteral is a non-negative decimal number. Negative numbers are
	// expressed with Negative.
	NumberLiteral struct{ Value float64 }
	// StringLiteral is a quoted string.
	StringLiteral struct{ Value string }
	// NullLiteral is null.
	NullLiteral struct{}
)

// VariableReference looks a name up in the caller-supplied function and
// variable table, or yields the navigation context for this and root.
type VariableReference struct {
	VariableName string
}

// FunctionReference calls a function from the caller-supplied table.
type FunctionReference struct {
	FunctionName       string
	Args               []Node
	NullSafeNavigation bool
}

// PropertyReference resolves a property on the navigation stack.
type PropertyReference struct {
	PropertyName       string
	NullSafeNavigation bool
}

// MethodReference resolves a property on the navigation stack and calls it.
type MethodReference struct {
	MethodName         string
	Args               []Node
	NullSafeNavigation bool
}

// Indexer indexes into the current navigation context.
type Indexer struct {
	Index              Node
	NullSafeNavigation bool
}

type (
	// Projection maps Expression over a list or over the values of a map.
	Projection struct {
		Expression         Node
		NullSafeNavigation bool
	}
	// SelectionAll keeps the elements or entries matching Expression.
	SelectionAll struct {
		Expression         Node
		NullSafeNavigation bool
	}
	// SelectionFirst finds the first element or entry matching Expression.
	SelectionFirst struct {
		Expression         Node
		NullSafeNavigation bool
	}
	// SelectionLast finds the last element or entry matching Expression.
	SelectionLast struct {
		Expression         Node
		NullSafeNavigation bool
	}
)

// CompoundExpression is a start node followed by navigation continuations.
// Each component is evaluated with the previous component's result as the
// navigation context.
type CompoundExpression struct {
	ExpressionComponents []Node
}

// InlineList is a list literal.
type InlineList struct {
	Elements []Node
}

// MapEntry is a key and value expression of an InlineMap.
type MapEntry struct {
	Key   string
	Value Node
}

// InlineMap is a map literal. Entries keep source order.
type InlineMap struct {
	Elements []MapEntry
}

// Negative is unary minus.
type Negative struct {
	Value Node
}

// OpNot is logical negation.
type OpNot struct {
	Expression Node
}

// Elvis yields Expression unless it evaluates to null, then IfFalse.
type Elvis struct {
	Expression Node
	IfFalse    Node
}

// Ternary is the conditional operator.
type Ternary struct {
	Expression Node
	IfTrue     Node
	IfFalse    Node
}

type (
	OpAnd      struct{ Left, Right Node }
	OpOr       struct{ Left, Right Node }
	OpEQ       struct{ Left, Right Node }
	OpNE       struct{ Left, Right Node }
	OpGE       struct{ Left, Right Node }
	OpGT       struct{ Left, Right Node }
	OpLE       struct{ Left, Right Node }
	OpLT       struct{ Left, Right Node }
	OpPlus     struct{ Left, Right Node }
	OpMinus    struct{ Left, Right Node }
	OpMultiply struct{ Left, Right Node }
	OpDivide   struct{ Left, Right Node }
	OpModulus  struct{ Left, Right Node }
	OpMatches  struct{ Left, Right Node }
	OpBetween  struct{ Left, Right Node }
)

// OpPower raises Base to Expression.
type OpPower struct {
	Base       Node
	Expression Node
}

func (*BooleanLiteral) Kind() Kind     { return KindBooleanLiteral }
func (*NumberLiteral) Kind() Kind      { return KindNumberLiteral }
func (*StringLiteral) Kind() Kind      { return KindStringLiteral }
func (*NullLiteral) Kind() Kind        { return KindNullLiteral }
func (*VariableReference) Kind() Kind  { return KindVariableReference }
func (*FunctionReference) Kind() Kind  { return KindFunctionReference }
func (*PropertyReference) Kind() Kind  { return KindPropertyReference }
func (*MethodReference) Kind() Kind    { return KindMethodReference }
func (*Indexer) Kind() Kind            { return KindIndexer }
func (*Projection) Kind() Kind         { return KindProjection }
func (*SelectionAll) Kind() Kind       { return KindSelectionAll }
func (*SelectionFirst) Kind() Kind     { return KindSelectionFirst }
func (*SelectionLast) Kind() Kind      { return KindSelectionLast }
func (*CompoundExpression) Kind() Kind { return KindCompoundExpression }
func (*InlineList) Kind() Kind         { return KindInlineList }
func (*InlineMap) Kind() Kind          { return KindInlineMap }
func (*Negative) Kind() Kind           { return KindNegative }
func (*OpNot) Kind() Kind              { return KindOpNot }
func (*Elvis) Kind() Kind              { return KindElvis }
func (*Ternary) Kind() Kind            { return KindTernary }
func (*OpAnd) Kind() Kind              { return KindOpAnd }
func (*OpOr) Kind() Kind               { return KindOpOr }
func (*OpEQ) Kind() Kind               { return KindOpEQ }
func (*OpNE) Kind() Kind               { return KindOpNE }
func (*OpGE) Kind() Kind               { return KindOpGE }
func (*OpGT) Kind() Kind               { return KindOpGT }
func (*OpLE) Kind() Kind               { return KindOpLE }
func (*OpLT) Kind() Kind               { return KindOpLT }
func (*OpPlus) Kind() Kind             { return KindOpPlus }
func (*OpMinus) Kind() Kind            { return KindOpMinus }
func (*OpMultiply) Kind() Kind         { return KindOpMultiply }
func (*OpDivide) Kind() Kind           { return KindOpDivide }
func (*OpModulus) Kind() Kind          { return KindOpModulus }
func (*OpMatches) Kind() Kind          { return KindOpMatches }
func (*OpBetween) Kind() Kind          { return KindOpBetween }
func (*OpPower) Kind() Kind            { return KindOpPower }

func (*BooleanLiteral) node()     {}
func (*NumberLiteral) node()      {}
func (*StringLiteral) node()      {}
func (*NullLiteral) node()        {}
func (*VariableReference) node()  {}
func (*FunctionReference) node()  {}
func (*PropertyReference) node()  {}
func (*MethodReference) node()    {}
func (*Indexer) node()            {}
func (*Projection) node()         {}
func (*SelectionAll) node()       {}
func (*SelectionFirst) node()     {}
func (*SelectionLast) node()      {}
func (*CompoundExpression) node() {}
func (*InlineList) node()         {}
func (*InlineMap) node()          {}
func (*Negative) node()           {}
func (*OpNot) node()              {}
func (*Elvis) node()              {}
func (*Ternary) node()            {}
func (*OpAnd) node()              {}
func (*OpOr) node()               {}
func (*OpEQ) node()               {}
func (*OpNE) node()               {}
func (*OpGE) node()               {}
func (*OpGT) node()               {}
func (*OpLE) node()               {}
func (*OpLT) node()               {}
func (*OpPlus) node()             {}
func (*OpMinus) node()            {}
func (*OpMultiply) node()         {}
func (*OpDivide) node()           {}
func (*OpModulus) node()          {}
func (*OpMatches) node()          {}
func (*OpBetween) node()          {}
func (*OpPower) node()            {}

func (n *OpAnd) Operands() (Node, Node)      { return n.Left, n.Right }
func (n *OpOr) Operands() (Node, Node)       { return n.Left, n.Right }
func (n *OpEQ) Operands() (Node, Node)       { return n.Left, n.Right }
func (n *OpNE) Operands() (Node, Node)       { return n.Left, n.Right }
func (n *OpGE) Operands() (Node, Node)       { return n.Left, n.Right }
func (n *OpGT) Operands() (Node, Node)       { return n.Left, n.Right }
func (n *OpLE) Operands() (Node, Node)       { return n.Left, n.Right }
func (n *OpLT) Operands() (Node, Node)       { return n.Left, n.Right }
func (n *OpPlus) Operands() (Node, Node)     { return n.Left, n.Right }
func (n *OpMinus) Operands() (Node, Node)    { return n.Left, n.Right }
func (n *OpMultiply) Operands() (Node, Node) { return n.Left, n.Right }
func (n *OpDivide) Operands() (Node, Node)   { return n.Left, n.Right }
func (n *OpModulus) Operands() (Node, Node)  { return n.Left, n.Right }
func (n *OpMatches) Operands() (Node, Node)  { return n.Left, n.Right }
func (n *OpBetween) Operands() (Node, Node)  { return n.Left, n.Right }
func (n *OpPower) Operands() (Node, Node)    { return n.Base, n.Expression }

func (n *Projection) Body() Node     { return n.Expression }
func (n *SelectionAll) Body() Node   { return n.Expression }
func (n *SelectionFirst) Body() Node { return n.Expression }
func (n *SelectionLast) Body() Node  { return n.Expression }

func (n *Projection) NullSafe() bool     { return n.NullSafeNavigation }
func (n *SelectionAll) NullSafe() bool   { return n.NullSafeNavigation }
func (n *SelectionFirst) NullSafe() bool { return n.NullSafeNavigation }
func (n *SelectionLast) NullSafe() bool  { return n.NullSafeNavigation }

// NewBinary builds the binary operator node of the given kind. It returns
// false if kind is not a binary operator.
func NewBinary(kind Kind, left, right Node) (Node, bool) {
	switch kind {
	case KindOpAnd:
		return &OpAnd{left, right}, true
	case KindOpOr:
		return &OpOr{left, right}, true
	case KindOpEQ:
		return &OpEQ{left, right}, true
	case KindOpNE:
		return &OpNE{left, right}, true
	case KindOpGE:
		return &OpGE{left, right}, true
	case KindOpGT:
		return &OpGT{left, right}, true
	case KindOpLE:
		return &OpLE{left, right}, true
	case KindOpLT:
		return &OpLT{left, right}, true
	case KindOpPlus:
		return &OpPlus{left, right}, true
	case KindOpMinus:
		return &OpMinus{left, right}, true
	case KindOpMultiply:
		return &OpMultiply{left, right}, true
	case KindOpDivide:
		return &OpDivide{left, right}, true
	case KindOpModulus:
		return &OpModulus{left, right}, true
	case KindOpMatches:
		return &OpMatches{left, right}, true
	case KindOpBetween:
		return &OpBetween{left, right}, true
	case KindOpPower:
		return &OpPower{Base: left, Expression: right}, true
	}
	return nil, false
}

// NewCollection builds a Projection or selection node of the given kind.
// It returns false for any other kind.
func NewCollection(kind Kind, expr Node, nullSafe bool) (Node, bool) {
	switch kind {
	case KindProjection:
		return &Projection{Expression: expr, NullSafeNavigation: nullSafe}, true
	case KindSelectionAll:
		return &SelectionAll{Expression: expr, NullSafeNavigation: nullSafe}, true
	case KindSelectionFirst:
		return &SelectionFirst{Expression: expr, NullSafeNavigation: nullSafe}, true
	case KindSelectionLast:
		return &SelectionLast{Expression: expr, NullSafeNavigation: nullSafe}, true
	}
	return nil, false
}

// Children returns the direct sub-expressions of n in evaluation order.
func Children(n Node) []Node {
	switch n := n.(type) {
	case *FunctionReference:
		return n.Args
	case *MethodReference:
		return n.Args
	case *Indexer:
		return []Node{n.Index}
	case CollectionNode:
		return []Node{n.Body()}
	case *CompoundExpression:
		return n.ExpressionComponents
	case *InlineList:
		return n.Elements
	case *InlineMap:
		out := make([]Node, len(n.Elements))
		for i, e := range n.Elements {
			out[i] = e.Value
		}
		return out
	case *Negative:
		return []Node{n.Value}
	case *OpNot:
		return []Node{n.Expression}
	case *Elvis:
		return []Node{n.Expression, n.IfFalse}
	case *Ternary:
		return []Node{n.Expression, n.IfTrue, n.IfFalse}
	case BinaryNode:
		l, r := n.Operands()
		return []Node{l, r}
	}
	return nil
}

// Walk calls fn for n and every descendant in depth-first pre-order. If fn
// returns false the children of that node are skipped.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range Children(n) {
		Walk(c, fn)
	}
}

// Depth returns the height of the tree rooted at n; a leaf has depth 1.
func Depth(n Node) int {
	if n == nil {
		return 0
	}
	deepest := 0
	for _, c := range Children(n) {
		if d := Depth(c); d > deepest {
			deepest = d
		}
	}
	return deepest + 1
}
