package parser

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/sandrolain/gospel/pkg/types"
)

// Parser parses one source string. The cursor is private to the Parser, so
// a Parser must not be shared between goroutines.
type Parser struct {
	input  string
	pos    int
	depth  int
	opts   CompileOptions
	logger *slog.Logger
}

// NewParser creates a new parser for the given input string.
func NewParser(input string, opts ...CompileOption) *Parser {
	options := CompileOptions{
		MaxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	return &Parser{
		input:  input,
		opts:   options,
		logger: options.Logger,
	}
}

// Parse parses the entire input and returns the compiled expression.
func (p *Parser) Parse() (*types.Expression, error) {
	p.pos = 0
	p.depth = 0

	p.whitespace()
	if p.atEnd() {
		return nil, p.error(types.ErrEmptyExpression, "empty expression")
	}

	node, err := p.expression()
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, p.errorf(types.ErrSyntaxError, "expression %q could not be parsed", p.input)
	}

	p.whitespace()
	if !p.atEnd() {
		rest := p.input[p.pos:]
		return nil, p.errorf(types.ErrTrailingInput, "parsing incomplete, expression remaining: %q", rest).WithToken(rest)
	}

	return types.NewExpression(node, p.input), nil
}

// error creates a parse error at the current cursor position.
func (p *Parser) error(code types.ErrorCode, message string) *types.Error {
	return types.NewError(code, message, p.pos)
}

func (p *Parser) errorf(code types.ErrorCode, format string, args ...any) *types.Error {
	return p.error(code, fmt.Sprintf(format, args...))
}

func (p *Parser) trace(rule string) {
	if p.opts.Debug {
		p.logger.Debug("parser rule", "rule", rule, "position", p.pos)
	}
}

// enter guards nesting depth. Each nested expression (group, argument,
// bracket or collection body, ternary branch) and each prefix operator
// takes one level; every successful enter needs a leave.
func (p *Parser) enter() error {
	p.depth++
	if p.opts.MaxDepth > 0 && p.depth > p.opts.MaxDepth {
		p.depth--
		return p.errorf(types.ErrMaxNestingExceeded, "maximum nesting depth %d exceeded", p.opts.MaxDepth)
	}
	return nil
}

func (p *Parser) leave() {
	p.depth--
}

// expression parses a full expression, including Elvis and ternary.
func (p *Parser) expression() (types.Node, error) {
	p.trace("expression")
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	p.whitespace()
	cond, err := p.logicalOr()
	if err != nil || cond == nil {
		return cond, err
	}

	start := p.pos
	p.whitespace()
	if !p.char('?') {
		p.pos = start
		return cond, nil
	}
	p.whitespace()

	if p.char(':') {
		ifFalse, err := p.expression()
		if err != nil {
			return nil, err
		}
		if ifFalse == nil {
			return nil, p.error(types.ErrIncompleteTernary, "expected expression after elvis operator (?:)")
		}
		return &types.Elvis{Expression: cond, IfFalse: ifFalse}, nil
	}

	ifTrue, err := p.expression()
	if err != nil {
		return nil, err
	}
	if ifTrue == nil {
		return nil, p.error(types.ErrIncompleteTernary, "incomplete ternary expression")
	}
	p.whitespace()
	if !p.char(':') {
		return nil, p.error(types.ErrIncompleteTernary, "incomplete ternary expression")
	}
	ifFalse, err := p.expression()
	if err != nil {
		return nil, err
	}
	if ifFalse == nil {
		return nil, p.error(types.ErrIncompleteTernary, "incomplete ternary expression")
	}
	return &types.Ternary{Expression: cond, IfTrue: ifTrue, IfFalse: ifFalse}, nil
}

// binaryLoop parses operand (op operand)* for a left-associative tier.
// match consumes an operator and returns its kind, or "" when none follows.
func (p *Parser) binaryLoop(operand rule, match func() types.Kind) (types.Node, error) {
	left, err := operand()
	if err != nil || left == nil {
		return left, err
	}
	for {
		start := p.pos
		p.whitespace()
		kind := match()
		if kind == "" {
			p.pos = start
			return left, nil
		}
		right, err := operand()
		if err != nil {
			return nil, err
		}
		if right == nil {
			return nil, p.errorf(types.ErrMissingOperand, "no right operand for %s", kind.Operator())
		}
		left, _ = types.NewBinary(kind, left, right)
	}
}

func (p *Parser) logicalOr() (types.Node, error) {
	return p.binaryLoop(p.logicalAnd, func() types.Kind {
		if p.chars("||") {
			return types.KindOpOr
		}
		return ""
	})
}

func (p *Parser) logicalAnd() (types.Node, error) {
	return p.binaryLoop(p.relational, func() types.Kind {
		if p.chars("&&") {
			return types.KindOpAnd
		}
		return ""
	})
}

// relational applies at most one comparison, so comparisons do not chain.
func (p *Parser) relational() (types.Node, error) {
	p.trace("relational")
	left, err := p.sum()
	if err != nil || left == nil {
		return left, err
	}

	start := p.pos
	p.whitespace()
	var kind types.Kind
	switch {
	case p.chars(">="):
		kind = types.KindOpGE
	case p.char('>'):
		kind = types.KindOpGT
	case p.chars("<="):
		kind = types.KindOpLE
	case p.char('<'):
		kind = types.KindOpLT
	case p.chars("!="):
		kind = types.KindOpNE
	case p.chars("=="):
		kind = types.KindOpEQ
	case p.char('='):
		return nil, p.error(types.ErrUnknownOperator, "= is not an operator")
	case p.keyword("matches"):
		kind = types.KindOpMatches
	case p.keyword("between"):
		kind = types.KindOpBetween
	default:
		p.pos = start
		return left, nil
	}

	right, err := p.sum()
	if err != nil {
		return nil, err
	}
	if right == nil {
		return nil, p.errorf(types.ErrMissingOperand, "no right operand for %s", kind.Operator())
	}
	n, _ := types.NewBinary(kind, left, right)
	return n, nil
}

func (p *Parser) sum() (types.Node, error) {
	return p.binaryLoop(p.product, func() types.Kind {
		switch {
		case p.char('+'):
			return types.KindOpPlus
		case p.char('-'):
			return types.KindOpMinus
		}
		return ""
	})
}

func (p *Parser) product() (types.Node, error) {
	return p.binaryLoop(p.power, func() types.Kind {
		switch {
		case p.peekAt(0) == '*' && p.peekAt(1) == '*':
			// A second ** is not an operator; leave it as trailing input.
			return ""
		case p.char('*'):
			return types.KindOpMultiply
		case p.char('/'):
			return types.KindOpDivide
		case p.char('%'):
			return types.KindOpModulus
		}
		return ""
	})
}

// power applies ** at most once.
func (p *Parser) power() (types.Node, error) {
	base, err := p.unary()
	if err != nil || base == nil {
		return base, err
	}
	start := p.pos
	p.whitespace()
	if !p.chars("**") {
		p.pos = start
		return base, nil
	}
	exp, err := p.unary()
	if err != nil {
		return nil, err
	}
	if exp == nil {
		return nil, p.error(types.ErrMissingOperand, "no right operand for **")
	}
	return &types.OpPower{Base: base, Expression: exp}, nil
}

func (p *Parser) unary() (types.Node, error) {
	p.whitespace()
	switch {
	case p.char('-'):
		operand, err := p.prefixOperand("-")
		if err != nil {
			return nil, err
		}
		return &types.Negative{Value: operand}, nil
	case p.char('!'):
		operand, err := p.prefixOperand("!")
		if err != nil {
			return nil, err
		}
		return &types.OpNot{Expression: operand}, nil
	}
	return p.primary()
}

// prefixOperand parses the operand of a prefix operator one nesting level
// down.
func (p *Parser) prefixOperand(op string) (types.Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	operand, err := p.unary()
	if err != nil {
		return nil, err
	}
	if operand == nil {
		return nil, p.errorf(types.ErrMissingOperand, "no operand for unary %s", op)
	}
	return operand, nil
}

// primary parses a start node and its navigation continuations. More than
// one component is wrapped in a CompoundExpression.
func (p *Parser) primary() (types.Node, error) {
	p.trace("primary")
	p.whitespace()
	start, err := p.startNode()
	if err != nil || start == nil {
		return start, err
	}
	continuations, err := p.zeroOrMore(p.continuation)
	if err != nil {
		return nil, err
	}
	if len(continuations) == 0 {
		return start, nil
	}
	components := make([]types.Node, 0, len(continuations)+1)
	components = append(components, start)
	components = append(components, continuations...)
	return &types.CompoundExpression{ExpressionComponents: components}, nil
}

func (p *Parser) startNode() (types.Node, error) {
	return p.firstOf(
		p.parenExpression,
		p.literal,
		p.functionOrVar,
		func() (types.Node, error) { return p.methodOrProperty(false) },
		p.inlineCollection,
	)
}

func (p *Parser) continuation() (types.Node, error) {
	p.whitespace()
	return p.firstOf(
		p.projection,
		p.selection,
		p.navProperty,
		p.indexer,
		p.functionOrVar,
	)
}

func (p *Parser) parenExpression() (types.Node, error) {
	if !p.char('(') {
		return nil, nil
	}
	open := p.pos - 1
	exp, err := p.expression()
	if err != nil {
		return nil, err
	}
	p.whitespace()
	if exp == nil || !p.char(')') {
		return nil, p.errorf(types.ErrUnterminatedGroup, "incomplete paren expression opened at position %d", open)
	}
	return exp, nil
}

func (p *Parser) literal() (types.Node, error) {
	return p.firstOf(
		p.stringLiteral,
		p.number,
		func() (types.Node, error) {
			if p.keyword("true") {
				return &types.BooleanLiteral{Value: true}, nil
			}
			return nil, nil
		},
		func() (types.Node, error) {
			if p.keyword("false") {
				return &types.BooleanLiteral{Value: false}, nil
			}
			return nil, nil
		},
		func() (types.Node, error) {
			if p.keyword("null") {
				return &types.NullLiteral{}, nil
			}
			return nil, nil
		},
	)
}

// lexString runs the string-literal sub-lexer at the cursor. An opening
// quote without its closing quote is a parse error.
func (p *Parser) lexString() (string, bool, error) {
	value, n, ok := LexString(p.input[p.pos:])
	if !ok {
		if c := p.peekAt(0); c == '\'' || c == '"' {
			return "", false, p.error(types.ErrStringNotClosed, "unterminated string literal")
		}
		return "", false, nil
	}
	p.pos += n
	return value, true, nil
}

func (p *Parser) stringLiteral() (types.Node, error) {
	value, ok, err := p.lexString()
	if err != nil || !ok {
		return nil, err
	}
	return &types.StringLiteral{Value: value}, nil
}

func (p *Parser) number() (types.Node, error) {
	text, ok := p.regex(numberPattern)
	if !ok {
		return nil, nil
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, p.errorf(types.ErrSyntaxError, "invalid number %q", text).WithCause(err)
	}
	return &types.NumberLiteral{Value: v}, nil
}

// arguments parses a parenthesized, comma separated argument list. A
// trailing comma is accepted. When the list is not well formed the cursor is
// restored and ok is false, so the caller can fall back to a reference.
func (p *Parser) arguments() (args []types.Node, ok bool, err error) {
	start := p.pos
	if !p.char('(') {
		return nil, false, nil
	}
	args = []types.Node{}
	for {
		p.whitespace()
		if p.char(')') {
			return args, true, nil
		}
		arg, err := p.expression()
		if err != nil {
			return nil, false, err
		}
		if arg == nil {
			p.pos = start
			return nil, false, nil
		}
		args = append(args, arg)
		p.whitespace()
		if p.char(',') {
			continue
		}
		if p.char(')') {
			return args, true, nil
		}
		p.pos = start
		return nil, false, nil
	}
}

// functionOrVar parses #name(args) or #name.
func (p *Parser) functionOrVar() (types.Node, error) {
	start := p.pos
	if !p.char('#') {
		return nil, nil
	}
	name, ok := p.identifier()
	if !ok {
		p.pos = start
		return nil, nil
	}
	args, ok, err := p.arguments()
	if err != nil {
		return nil, err
	}
	if ok {
		return &types.FunctionReference{FunctionName: name, Args: args}, nil
	}
	return &types.VariableReference{VariableName: name}, nil
}

// methodOrProperty parses name(args) or name.
func (p *Parser) methodOrProperty(nullSafe bool) (types.Node, error) {
	p.whitespace()
	name, ok := p.identifier()
	if !ok {
		return nil, nil
	}
	args, ok, err := p.arguments()
	if err != nil {
		return nil, err
	}
	if ok {
		return &types.MethodReference{MethodName: name, Args: args, NullSafeNavigation: nullSafe}, nil
	}
	return &types.PropertyReference{PropertyName: name, NullSafeNavigation: nullSafe}, nil
}

// navPrefix consumes "?." (null-safe) or ".". ok is false when neither is
// present.
func (p *Parser) navPrefix() (nullSafe, ok bool) {
	if p.chars("?.") {
		return true, true
	}
	if p.char('.') {
		return false, true
	}
	return false, false
}

func (p *Parser) navProperty() (types.Node, error) {
	nullSafe, ok := p.navPrefix()
	if !ok {
		return nil, nil
	}
	return p.methodOrProperty(nullSafe)
}

// bracketBody parses expression ']' after an opening bracket.
func (p *Parser) bracketBody(open int) (types.Node, error) {
	exp, err := p.expression()
	if err != nil {
		return nil, err
	}
	if exp == nil {
		return nil, p.errorf(types.ErrSyntaxError, "expected expression after bracket at position %d", open)
	}
	p.whitespace()
	if !p.char(']') {
		return nil, p.errorf(types.ErrUnterminatedGroup, "unterminated bracket opened at position %d", open)
	}
	return exp, nil
}

func (p *Parser) indexer() (types.Node, error) {
	nullSafe := false
	switch {
	case p.chars("?["):
		nullSafe = true
	case p.char('['):
	default:
		return nil, nil
	}
	idx, err := p.bracketBody(p.pos - 1)
	if err != nil {
		return nil, err
	}
	return &types.Indexer{Index: idx, NullSafeNavigation: nullSafe}, nil
}

func (p *Parser) projection() (types.Node, error) {
	nullSafe, ok := p.navPrefix()
	if !ok || !p.chars("![") {
		return nil, nil
	}
	exp, err := p.bracketBody(p.pos - 1)
	if err != nil {
		return nil, err
	}
	return &types.Projection{Expression: exp, NullSafeNavigation: nullSafe}, nil
}

func (p *Parser) selection() (types.Node, error) {
	nullSafe, ok := p.navPrefix()
	if !ok {
		return nil, nil
	}
	var kind types.Kind
	switch {
	case p.chars("?["):
		kind = types.KindSelectionAll
	case p.chars("^["):
		kind = types.KindSelectionFirst
	case p.chars("$["):
		kind = types.KindSelectionLast
	default:
		return nil, nil
	}
	exp, err := p.bracketBody(p.pos - 1)
	if err != nil {
		return nil, err
	}
	n, _ := types.NewCollection(kind, exp, nullSafe)
	return n, nil
}

// inlineCollection parses {:}, a map literal, or a list literal. The map
// form is committed only once a key and ':' have been read; otherwise the
// braces are parsed again as a list.
func (p *Parser) inlineCollection() (types.Node, error) {
	if !p.char('{') {
		return nil, nil
	}
	open := p.pos - 1
	body := p.pos

	p.whitespace()
	if p.char(':') {
		p.whitespace()
		if p.char('}') {
			return &types.InlineMap{Elements: []types.MapEntry{}}, nil
		}
	}
	p.pos = body

	m, err := p.inlineMap(open)
	if err != nil || m != nil {
		return m, err
	}
	p.pos = body
	return p.inlineList(open)
}

// mapKey parses an identifier or string literal followed by ':'.
func (p *Parser) mapKey() (string, bool, error) {
	start := p.pos
	p.whitespace()
	key, ok := p.identifier()
	if !ok {
		var err error
		key, ok, err = p.lexString()
		if err != nil {
			return "", false, err
		}
	}
	if ok {
		p.whitespace()
		if p.char(':') {
			return key, true, nil
		}
	}
	p.pos = start
	return "", false, nil
}

func (p *Parser) inlineMap(open int) (types.Node, error) {
	var entries []types.MapEntry
	for {
		key, ok, err := p.mapKey()
		if err != nil {
			return nil, err
		}
		if !ok {
			if len(entries) == 0 {
				return nil, nil
			}
			return nil, p.errorf(types.ErrSyntaxError, "expected map key in brace opened at position %d", open)
		}
		value, err := p.expression()
		if err != nil {
			return nil, err
		}
		if value == nil {
			return nil, p.errorf(types.ErrSyntaxError, "expected value for map key %q", key)
		}
		entries = append(entries, types.MapEntry{Key: key, Value: value})

		p.whitespace()
		if p.char(',') {
			p.whitespace()
			if p.char('}') {
				break
			}
			continue
		}
		if p.char('}') {
			break
		}
		return nil, p.errorf(types.ErrUnterminatedGroup, "unterminated brace opened at position %d", open)
	}
	return &types.InlineMap{Elements: entries}, nil
}

func (p *Parser) inlineList(open int) (types.Node, error) {
	elements := []types.Node{}
	for {
		p.whitespace()
		if p.char('}') {
			return &types.InlineList{Elements: elements}, nil
		}
		elem, err := p.expression()
		if err != nil {
			return nil, err
		}
		if elem == nil {
			return nil, p.errorf(types.ErrUnterminatedGroup, "unterminated brace opened at position %d", open)
		}
		elements = append(elements, elem)
		p.whitespace()
		if p.char(',') {
			continue
		}
		if p.char('}') {
			return &types.InlineList{Elements: elements}, nil
		}
		return nil, p.errorf(types.ErrUnterminatedGroup, "unterminated brace opened at position %d", open)
	}
}
