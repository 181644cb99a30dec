// Package gospel implements an embeddable expression language in the SpEL
// family: arithmetic, logical and relational operators, ternary and Elvis
// conditionals, property and method navigation with null-safe variants,
// indexing, inline lists and maps, and collection projection and selection.
//
// # Quick Start
//
//	// Simple evaluation
//	result, err := gospel.Eval("items.?[price > 100].![name]", data)
//
//	// Compile once, evaluate many times
//	expr, err := gospel.Compile("#discount(price) * quantity")
//	ev := gospel.MakeEvaluator(order, vars)
//	total, err := ev(expr.AST())
//
//	// With options
//	result, err := gospel.Eval("#upper(name)", data,
//	    ext.WithString(),
//	    gospel.WithTimeout(5*time.Second),
//	)
//
// # Language
//
// Names resolve two ways. #name is looked up in the variables table (with
// #this and #root naming the innermost and outermost navigation context);
// a bare name is a property of the navigation context. Inside a compound
// such as a.b.c every component is evaluated with the previous result as
// its context.
//
// # More Information
//
// For detailed documentation, see:
//   - Parser: github.com/sandrolain/gospel/pkg/parser
//   - Evaluator: github.com/sandrolain/gospel/pkg/evaluator
//   - Functions: github.com/sandrolain/gospel/pkg/functions
//   - Types: github.com/sandrolain/gospel/pkg/types
package gospel

import (
	"context"
	"fmt"
	"time"

	"github.com/sandrolain/gospel/pkg/evaluator"
	"github.com/sandrolain/gospel/pkg/functions"
	"github.com/sandrolain/gospel/pkg/parser"
	"github.com/sandrolain/gospel/pkg/types"
)

// version is overridden at build time with -ldflags "-X".
var version = "v0.1.0-dev"

// Version returns the current version of gospel.
func Version() string {
	return version
}

// DefaultTimeout bounds Eval when the caller sets no timeout.
const DefaultTimeout = 30 * time.Second

// EvalOption configures evaluation behavior.
type EvalOption = evaluator.EvalOption

// CompileOption configures compilation behavior.
type CompileOption = parser.CompileOption

// Option re-exports.
var (
	WithCaching        = evaluator.WithCaching
	WithCacheSize      = evaluator.WithCacheSize
	WithCache          = evaluator.WithCache
	WithConcurrency    = evaluator.WithConcurrency
	WithMaxConcurrency = evaluator.WithMaxConcurrency
	WithTimeout        = evaluator.WithTimeout
	WithDebug          = evaluator.WithDebug
	WithLogger         = evaluator.WithLogger
	WithMaxDepth       = evaluator.WithMaxDepth
	WithCustomFunction = evaluator.WithCustomFunction
	WithFunctions      = evaluator.WithFunctions
	WithTracerProvider = evaluator.WithTracerProvider
	WithMeterProvider  = evaluator.WithMeterProvider
)

// Parse parses an expression into its AST.
func Parse(source string) (types.Node, error) {
	return parser.Parse(source)
}

// Compile compiles an expression for repeated evaluation.
//
// The compiled expression is immutable and can be evaluated concurrently
// against different roots.
//
// Example:
//
//	expr, err := gospel.Compile("items.?[price > 100]")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, _ := evaluator.New().Eval(ctx, expr, data, nil)
func Compile(source string, opts ...CompileOption) (*types.Expression, error) {
	return parser.Compile(source, opts...)
}

// MustCompile is like Compile but panics if the expression cannot be compiled.
// It simplifies safe initialization of global variables.
func MustCompile(source string) *types.Expression {
	expr, err := Compile(source)
	if err != nil {
		panic(fmt.Sprintf("gospel: Compile(%q): %v", source, err))
	}
	return expr
}

// Eval is a convenience function that compiles and evaluates an expression
// against root in a single call, with no variables. It is bounded by
// DefaultTimeout.
//
// For repeated evaluations of the same expression, use Compile instead.
//
// Example:
//
//	result, err := gospel.Eval("name", data)
func Eval(source string, root any, opts ...EvalOption) (any, error) {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()
	return EvalWithContext(ctx, source, root, nil, opts...)
}

// EvalWithContext compiles and evaluates source against root and vars.
func EvalWithContext(ctx context.Context, source string, root any, vars map[string]any, opts ...EvalOption) (any, error) {
	expr, err := Compile(source)
	if err != nil {
		return nil, err
	}
	return evaluator.New(opts...).Eval(ctx, expr, root, vars)
}

// MakeEvaluator returns an evaluation function for root and vars. It owns
// one navigation stack and must not be called concurrently; create one per
// goroutine.
func MakeEvaluator(root any, vars map[string]any, opts ...EvalOption) func(types.Node) (any, error) {
	return evaluator.MakeEvaluator(root, vars, opts...)
}

// Functions builds a variables table from host function definitions.
func Functions(defs ...functions.CustomFunctionDef) map[string]any {
	return functions.Table(defs...)
}
