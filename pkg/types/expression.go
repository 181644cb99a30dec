// Package types defines the data model shared by the gospel parser and
// evaluator.
//
// This package contains:
//   - Node: the closed set of AST node types and their wire (JSON) codec
//   - Print: the canonical pretty-printer for AST nodes
//   - Expression: a parsed expression together with its source
//   - Map: the insertion-ordered map runtime value
//   - Error: structured errors with codes
package types

// Expression represents a parsed expression.
//
// An Expression can be evaluated multiple times against different data by
// passing it to [evaluator.Evaluator.Eval]. It is immutable and safe for
// concurrent use by multiple goroutines.
type Expression struct {
	ast    Node
	source string
}

// NewExpression creates a new Expression from an AST.
func NewExpression(ast Node, source string) *Expression {
	return &Expression{
		ast:    ast,
		source: source,
	}
}

// AST returns the root node of the expression.
func (e *Expression) AST() Node {
	return e.ast
}

// Source returns the original source text of the expression.
func (e *Expression) Source() string {
	return e.source
}

// Canonical returns the expression rendered by the pretty-printer.
func (e *Expression) Canonical() string {
	return Print(e.ast)
}

// MarshalJSON encodes the AST in its wire format.
func (e *Expression) MarshalJSON() ([]byte, error) {
	return MarshalNode(e.ast)
}

// String returns the source text of the expression.
func (e *Expression) String() string {
	return e.source
}
