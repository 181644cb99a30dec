// Package parser implements the gospel expression parser.
//
// The parser is a hand-written backtracking recursive descent parser over an
// explicit cursor. Each precedence tier of the grammar is one rule:
//
//	expression := logicalOr ('?' ':' expression | '?' expression ':' expression)?
//	logicalOr  := logicalAnd ('||' logicalAnd)*
//	logicalAnd := relational ('&&' relational)*
//	relational := sum (relop sum)?          // at most one comparison
//	sum        := product (('+' | '-') product)*
//	product    := power (('*' | '/' | '%') power)*
//	power      := unary ('**' unary)?       // at most one application
//	unary      := '-' unary | '!' unary | primary
//	primary    := startNode node*
//
// There is no error recovery: the first structural failure aborts the parse
// with a *types.Error carrying the cursor position.
//
// # Example
//
//	expr, err := parser.Compile("items.?[price > 100].![name]")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	root := expr.AST()
package parser

import (
	"log/slog"

	"github.com/sandrolain/gospel/pkg/types"
)

// DefaultMaxDepth is the default limit on syntactic nesting: nested
// expressions plus prefix operators.
const DefaultMaxDepth = 256

// Parse parses source and returns the root AST node.
//
// Example:
//
//	node, err := parser.Parse("1 + 2 * 3")
//	if err != nil {
//	    var perr *types.Error
//	    if errors.As(err, &perr) {
//	        fmt.Printf("parse error at position %d\n", perr.Position)
//	    }
//	}
func Parse(source string) (types.Node, error) {
	expr, err := NewParser(source).Parse()
	if err != nil {
		return nil, err
	}
	return expr.AST(), nil
}

// Compile parses source into an Expression.
func Compile(source string, opts ...CompileOption) (*types.Expression, error) {
	return NewParser(source, opts...).Parse()
}

// CompileOption configures parsing behavior.
type CompileOption func(*CompileOptions)

// CompileOptions holds parser configuration.
type CompileOptions struct {
	// MaxDepth limits rule nesting to prevent stack exhaustion on
	// pathological input. Zero or negative disables the limit.
	MaxDepth int
	// Debug traces rule entry at debug level.
	Debug bool
	// Logger receives debug traces. Defaults to slog.Default().
	Logger *slog.Logger
}

// WithMaxDepth sets the maximum nesting depth.
func WithMaxDepth(depth int) CompileOption {
	return func(opts *CompileOptions) {
		opts.MaxDepth = depth
	}
}

// WithDebug enables or disables rule tracing.
func WithDebug(enabled bool) CompileOption {
	return func(opts *CompileOptions) {
		opts.Debug = enabled
	}
}

// WithLogger sets the logger used for rule tracing.
func WithLogger(logger *slog.Logger) CompileOption {
	return func(opts *CompileOptions) {
		opts.Logger = logger
	}
}
