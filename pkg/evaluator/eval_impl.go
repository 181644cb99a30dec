package evaluator

import (
	"context"
	"fmt"

	"github.com/sandrolain/gospel/pkg/types"
)

// eval evaluates one node. Every node kind is handled explicitly; the
// default branch only fires for a node type added without an evaluator.
func (s *Session) eval(ctx context.Context, node types.Node) (any, error) {
	select {
	case <-ctx.Done():
		return nil, types.Errorf(types.ErrCanceled, "evaluation canceled: %v", ctx.Err()).WithCause(ctx.Err())
	default:
	}

	s.depth++
	defer func() { s.depth-- }()
	if limit := s.ev.opts.MaxDepth; limit > 0 && s.depth > limit {
		return nil, types.Errorf(types.ErrStackOverflow, "maximum evaluation depth %d exceeded", limit)
	}

	if node == nil {
		return nil, types.Errorf(types.ErrInvalidArgument, "missing sub-expression")
	}

	if s.ev.opts.Debug {
		s.ev.logger.Debug("evaluating node",
			"kind", node.Kind(),
			"depth", s.depth,
			"stack", s.stack.depth())
	}

	switch n := node.(type) {
	case *types.BooleanLiteral:
		return n.Value, nil
	case *types.NumberLiteral:
		return n.Value, nil
	case *types.StringLiteral:
		return n.Value, nil
	case *types.NullLiteral:
		return nil, nil

	case *types.VariableReference:
		m := s.lookupName(n.VariableName)
		if m.isNone() {
			return nil, types.Errorf(types.ErrUndefinedVariable,
				"Null Pointer Exception: variable %q not found", n.VariableName)
		}
		return types.Normalize(m.value()), nil
	case *types.FunctionReference:
		return s.evalFunctionReference(ctx, n)
	case *types.PropertyReference:
		return s.evalPropertyReference(n)
	case *types.MethodReference:
		return s.evalMethodReference(ctx, n)

	case *types.Indexer:
		return s.evalIndexer(ctx, n)
	case *types.Projection:
		return s.evalProjection(ctx, n)
	case *types.SelectionAll:
		return s.evalSelectionAll(ctx, n)
	case *types.SelectionFirst:
		return s.evalSelectionFind(ctx, n.Expression, n.NullSafeNavigation, false)
	case *types.SelectionLast:
		return s.evalSelectionFind(ctx, n.Expression, n.NullSafeNavigation, true)
	case *types.CompoundExpression:
		return s.evalCompound(ctx, n)

	case *types.InlineList:
		out := make([]any, len(n.Elements))
		for i, e := range n.Elements {
			v, err := s.eval(ctx, e)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case *types.InlineMap:
		out := types.NewMap(len(n.Elements))
		for _, e := range n.Elements {
			v, err := s.eval(ctx, e.Value)
			if err != nil {
				return nil, err
			}
			out.Set(e.Key, v)
		}
		return out, nil

	case *types.Negative:
		v, err := s.eval(ctx, n.Value)
		if err != nil {
			return nil, err
		}
		f, ok := types.ToNumber(v)
		if !ok {
			return nil, types.Errorf(types.ErrNotANumber, "unary (-) operator applied to %s", types.Describe(v))
		}
		return -f, nil
	case *types.OpNot:
		v, err := s.eval(ctx, n.Expression)
		if err != nil {
			return nil, err
		}
		return !types.Truthy(v), nil
	case *types.Elvis:
		v, err := s.eval(ctx, n.Expression)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return s.eval(ctx, n.IfFalse)
		}
		return v, nil
	case *types.Ternary:
		cond, err := s.eval(ctx, n.Expression)
		if err != nil {
			return nil, err
		}
		switch cond {
		case true:
			return s.eval(ctx, n.IfTrue)
		case false, nil:
			return s.eval(ctx, n.IfFalse)
		}
		return nil, types.Errorf(types.ErrConditionNotBoolean,
			"unexpected non boolean/null in ternary condition: %s", types.Describe(cond))

	case types.BinaryNode:
		return s.evalBinary(ctx, n)
	}

	return nil, types.Errorf(types.ErrInvalidArgument, "unsupported node type %s", fmt.Sprintf("%T", node))
}

// evalCompound evaluates the components left to right, each one with the
// previous result as the innermost context. All pushes are undone on return.
func (s *Session) evalCompound(ctx context.Context, n *types.CompoundExpression) (any, error) {
	pushed := 0
	defer func() {
		for ; pushed > 0; pushed-- {
			s.stack.pop()
		}
	}()

	var result any
	for _, c := range n.ExpressionComponents {
		v, err := s.eval(ctx, c)
		if err != nil {
			return nil, err
		}
		s.stack.push(v)
		pushed++
		result = v
	}
	return result, nil
}

func (s *Session) evalPropertyReference(n *types.PropertyReference) (any, error) {
	m := s.propertyInContext(n.PropertyName)
	if m.isNone() {
		if n.NullSafeNavigation {
			return nil, nil
		}
		return nil, types.Errorf(types.ErrUndefinedProperty,
			"Null Pointer Exception: property %q not found in context %s",
			n.PropertyName, types.Describe(s.stack.head()))
	}
	return types.Normalize(m.value()), nil
}
