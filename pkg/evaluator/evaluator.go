// Package evaluator implements the gospel tree-walking interpreter.
//
// An Evaluator holds immutable configuration and is safe for concurrent use.
// Each evaluation runs in a Session that owns a private navigation stack:
// the root context at the bottom, and the subject of every enclosing
// compound, projection or selection scope above it.
//
// # Example
//
//	ev := evaluator.New(evaluator.WithTimeout(time.Second))
//	expr, _ := parser.Compile("items.?[price > 100].![name]")
//	result, err := ev.Eval(ctx, expr, data, nil)
//
// A Session can be kept to evaluate several trees against the same root
// and variables. Sessions are not safe for concurrent use:
//
//	s := ev.Bind(data, map[string]any{"limit": 100})
//	v1, _ := s.Evaluate(ctx, expr1.AST())
//	v2, _ := s.Evaluate(ctx, expr2.AST())
package evaluator

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/sandrolain/gospel/pkg/cache"
	"github.com/sandrolain/gospel/pkg/functions"
	"github.com/sandrolain/gospel/pkg/parser"
	"github.com/sandrolain/gospel/pkg/types"
)

// Evaluator evaluates gospel expressions against data.
type Evaluator struct {
	opts      EvalOptions
	logger    *slog.Logger
	cache     *cache.Cache   // non-nil when Caching is enabled
	customFns map[string]any // registered host functions
	tel       *telemetry
}

// EvalOptions configures evaluator behavior.
type EvalOptions struct {
	// Caching enables caching of compiled expressions in EvalString.
	// The default cache holds up to 256 entries with LRU eviction.
	Caching bool
	// CacheSize sets the maximum number of cached expressions.
	// Only used when Caching is true and no explicit Cache is provided.
	CacheSize int
	// Cache is a custom expression cache. If non-nil, Caching is implicitly enabled.
	Cache *cache.Cache
	// Concurrency lets EvalMany evaluate expressions in parallel.
	Concurrency bool
	// MaxConcurrency bounds parallel evaluations in EvalMany.
	// Defaults to GOMAXPROCS.
	MaxConcurrency int
	// MaxDepth limits AST nesting during evaluation. Zero disables the limit.
	MaxDepth int
	// Timeout bounds each Eval call. Zero means no timeout.
	Timeout time.Duration
	// Debug logs every evaluated node at debug level.
	Debug bool
	// Logger for structured logging.
	Logger *slog.Logger
	// CustomFunctions are host functions available to every session.
	// Session variables with the same name take precedence.
	CustomFunctions []functions.CustomFunctionDef
	// CompileOptions are used when EvalString compiles source text.
	CompileOptions []parser.CompileOption
	// TracerProvider creates the evaluation tracer. Defaults to the global provider.
	TracerProvider trace.TracerProvider
	// MeterProvider creates evaluation metrics. Defaults to the global provider.
	MeterProvider metric.MeterProvider
}

// defaultConcurrency is the default of EvalOptions.Concurrency. It is
// switched off on WebAssembly targets by evaluator_wasm.go.
var defaultConcurrency = true

// DefaultMaxDepth is the default evaluation nesting limit.
const DefaultMaxDepth = 10000

// New creates a new Evaluator.
func New(opts ...EvalOption) *Evaluator {
	options := EvalOptions{
		Concurrency: defaultConcurrency,
		MaxDepth:    DefaultMaxDepth,
	}

	for _, opt := range opts {
		opt(&options)
	}

	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.MaxConcurrency <= 0 {
		options.MaxConcurrency = runtime.GOMAXPROCS(0)
	}

	var c *cache.Cache
	if options.Cache != nil {
		c = options.Cache
	} else if options.Caching {
		c = cache.New(options.CacheSize)
	}

	customFns := make(map[string]any, len(options.CustomFunctions))
	for _, def := range options.CustomFunctions {
		customFns[def.Name] = def
	}

	return &Evaluator{
		opts:      options,
		logger:    options.Logger,
		cache:     c,
		customFns: customFns,
		tel:       newTelemetry(options.TracerProvider, options.MeterProvider, options.Logger),
	}
}

// Cache returns the expression cache, or nil if caching is disabled.
func (e *Evaluator) Cache() *cache.Cache {
	return e.cache
}

// Bind creates an evaluation session over root and vars. The session's
// navigation stack starts with root as its only entry.
func (e *Evaluator) Bind(root any, vars map[string]any) *Session {
	return newSession(e, root, vars)
}

// Eval evaluates expr against root in a fresh session.
func (e *Evaluator) Eval(ctx context.Context, expr *types.Expression, root any, vars map[string]any) (any, error) {
	if expr == nil || expr.AST() == nil {
		return nil, types.Errorf(types.ErrInvalidArgument, "invalid expression")
	}

	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	ctx, span := e.tel.start(ctx, expr.Source())
	start := time.Now()
	result, err := e.Bind(root, vars).Evaluate(ctx, expr.AST())
	e.tel.end(ctx, span, start, result, err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Compile compiles source, going through the expression cache when one is
// configured.
func (e *Evaluator) Compile(source string) (*types.Expression, error) {
	if e.cache == nil {
		return parser.Compile(source, e.opts.CompileOptions...)
	}
	hit := true
	expr, err := e.cache.GetOrCompile(source, func() (*types.Expression, error) {
		hit = false
		return parser.Compile(source, e.opts.CompileOptions...)
	})
	if e.opts.Debug {
		e.logger.Debug("expression cache lookup", "source", source, "hit", hit)
	}
	return expr, err
}

// EvalString compiles and evaluates source against root.
func (e *Evaluator) EvalString(ctx context.Context, source string, root any, vars map[string]any) (any, error) {
	expr, err := e.Compile(source)
	if err != nil {
		return nil, err
	}
	return e.Eval(ctx, expr, root, vars)
}

// EvalMany evaluates several expressions against the same root and returns
// the results in order. Every expression gets its own session; with
// Concurrency enabled they run in parallel. The first error cancels the rest.
func (e *Evaluator) EvalMany(ctx context.Context, exprs []*types.Expression, root any, vars map[string]any) ([]any, error) {
	results := make([]any, len(exprs))
	if !e.opts.Concurrency || len(exprs) < 2 {
		for i, expr := range exprs {
			r, err := e.Eval(ctx, expr, root, vars)
			if err != nil {
				return nil, err
			}
			results[i] = r
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.MaxConcurrency)
	for i, expr := range exprs {
		g.Go(func() error {
			r, err := e.Eval(gctx, expr, root, vars)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// MakeEvaluator returns an evaluation function bound to root and vars. The
// returned function owns one session and must not be called concurrently.
func MakeEvaluator(root any, vars map[string]any, opts ...EvalOption) func(types.Node) (any, error) {
	s := New(opts...).Bind(root, vars)
	return func(n types.Node) (any, error) {
		return s.Evaluate(context.Background(), n)
	}
}

// EvalOption configures evaluation behavior.
type EvalOption func(*EvalOptions)

// WithCaching enables or disables expression compilation caching.
func WithCaching(enabled bool) EvalOption {
	return func(opts *EvalOptions) {
		opts.Caching = enabled
	}
}

// WithCacheSize sets the maximum number of cached expressions.
// Only effective when combined with WithCaching(true).
func WithCacheSize(size int) EvalOption {
	return func(opts *EvalOptions) {
		opts.CacheSize = size
	}
}

// WithCache attaches an external expression cache.
func WithCache(c *cache.Cache) EvalOption {
	return func(opts *EvalOptions) {
		opts.Cache = c
	}
}

// WithConcurrency enables or disables parallel evaluation in EvalMany.
func WithConcurrency(enabled bool) EvalOption {
	return func(opts *EvalOptions) {
		opts.Concurrency = enabled
	}
}

// WithMaxConcurrency bounds parallel evaluations in EvalMany.
func WithMaxConcurrency(n int) EvalOption {
	return func(opts *EvalOptions) {
		opts.MaxConcurrency = n
	}
}

// WithTimeout sets the evaluation timeout.
func WithTimeout(timeout time.Duration) EvalOption {
	return func(opts *EvalOptions) {
		opts.Timeout = timeout
	}
}

// WithDebug enables or disables debug logging.
func WithDebug(enabled bool) EvalOption {
	return func(opts *EvalOptions) {
		opts.Debug = enabled
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) EvalOption {
	return func(opts *EvalOptions) {
		opts.Logger = logger
	}
}

// WithMaxDepth sets the maximum evaluation nesting depth.
func WithMaxDepth(depth int) EvalOption {
	return func(opts *EvalOptions) {
		opts.MaxDepth = depth
	}
}

// WithCompileOptions sets the parser options used by EvalString.
func WithCompileOptions(copts ...parser.CompileOption) EvalOption {
	return func(opts *EvalOptions) {
		opts.CompileOptions = append(opts.CompileOptions, copts...)
	}
}

// WithCustomFunction registers a variadic host function without arity
// checking. The expression calls it as #name(args).
//
// Example:
//
//	gospel.Eval("#greet(name)", data, gospel.WithCustomFunction("greet",
//	    func(ctx context.Context, args ...any) (any, error) {
//	        return "Hello, " + args[0].(string) + "!", nil
//	    }))
func WithCustomFunction(name string, fn functions.CustomFunc) EvalOption {
	return func(opts *EvalOptions) {
		opts.CustomFunctions = append(opts.CustomFunctions, functions.CustomFunctionDef{
			Name: name,
			Fn:   fn,
		})
	}
}

// WithFunctions registers host function definitions.
func WithFunctions(defs ...functions.CustomFunctionDef) EvalOption {
	return func(opts *EvalOptions) {
		opts.CustomFunctions = append(opts.CustomFunctions, defs...)
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider.
func WithTracerProvider(tp trace.TracerProvider) EvalOption {
	return func(opts *EvalOptions) {
		opts.TracerProvider = tp
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider.
func WithMeterProvider(mp metric.MeterProvider) EvalOption {
	return func(opts *EvalOptions) {
		opts.MeterProvider = mp
	}
}
