package evaluator

import (
	"context"
	"math"
	"reflect"
	"strings"

	"github.com/sandrolain/gospel/pkg/types"
)

func (s *Session) evalBinary(ctx context.Context, node types.BinaryNode) (any, error) {
	l, r := node.Operands()

	left, err := s.eval(ctx, l)
	if err != nil {
		return nil, err
	}
	right, err := s.eval(ctx, r)
	if err != nil {
		return nil, err
	}

	kind := node.Kind()
	switch kind {
	case types.KindOpAnd, types.KindOpOr:
		return opLogical(kind, left, right)
	case types.KindOpEQ:
		return equalValues(left, right), nil
	case types.KindOpNE:
		return !equalValues(left, right), nil
	case types.KindOpMatches:
		return opMatches(left, right)
	case types.KindOpBetween:
		return opBetween(left, right)
	}

	// Fast path: both operands already float64.
	lf, lok := left.(float64)
	rf, rok := right.(float64)
	if !lok || !rok {
		if lf, lok = types.ToNumber(left); !lok {
			return nil, notANumber(kind, left)
		}
		if rf, rok = types.ToNumber(right); !rok {
			return nil, notANumber(kind, right)
		}
	}
	return arithmetic(kind, lf, rf), nil
}

// arithmetic applies a numeric operator. Division and modulus follow
// IEEE 754: dividing by zero yields an infinity or NaN, not an error.
func arithmetic(kind types.Kind, a, b float64) any {
	switch kind {
	case types.KindOpPlus:
		return a + b
	case types.KindOpMinus:
		return a - b
	case types.KindOpMultiply:
		return a * b
	case types.KindOpDivide:
		return a / b
	case types.KindOpModulus:
		return math.Mod(a, b)
	case types.KindOpPower:
		return math.Pow(a, b)
	case types.KindOpGT:
		return a > b
	case types.KindOpGE:
		return a >= b
	case types.KindOpLT:
		return a < b
	case types.KindOpLE:
		return a <= b
	}
	return nil
}

func notANumber(kind types.Kind, v any) error {
	return types.Errorf(types.ErrNotANumber,
		"operator %s: %s is not a number", kind.Operator(), types.Describe(v))
}

// opLogical implements && and ||. Both operands must be boolean or null.
// && yields null when its left operand is null, false when it is false and
// the right operand otherwise. || yields true when either side is true.
func opLogical(kind types.Kind, left, right any) (any, error) {
	for _, v := range [2]any{left, right} {
		if _, ok := v.(bool); !ok && v != nil {
			return nil, types.Errorf(types.ErrNotABoolean,
				"operator %s: %s is not a null/boolean", kind.Operator(), types.Describe(v))
		}
	}
	if kind == types.KindOpOr {
		return types.Truthy(left) || types.Truthy(right), nil
	}
	if left == nil || left == false {
		return left, nil
	}
	return right, nil
}

// equalValues compares scalars by value. Numbers of any Go numeric type
// compare numerically. Lists and maps are equal only to themselves.
func equalValues(left, right any) bool {
	if left == nil || right == nil {
		return left == nil && right == nil
	}
	switch l := left.(type) {
	case string:
		r, ok := right.(string)
		return ok && l == r
	case bool:
		r, ok := right.(bool)
		return ok && l == r
	}
	if lf, ok := types.ToNumber(left); ok {
		rf, ok := types.ToNumber(right)
		return ok && lf == rf
	}
	return sameReference(left, right)
}

func sameReference(left, right any) bool {
	lv, rv := reflect.ValueOf(left), reflect.ValueOf(right)
	if lv.Type() != rv.Type() {
		return false
	}
	switch lv.Kind() {
	case reflect.Slice:
		return lv.Len() == rv.Len() && lv.Pointer() == rv.Pointer()
	case reflect.Map, reflect.Pointer, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return lv.Pointer() == rv.Pointer()
	}
	if lv.Comparable() {
		return left == right
	}
	return false
}

// opMatches reports whether the right operand, as a regular expression,
// matches anywhere in the left operand.
func opMatches(left, right any) (any, error) {
	l, ok := left.(string)
	if !ok {
		return nil, types.Errorf(types.ErrNotAString,
			"operator matches: %s is not a string", types.Describe(left))
	}
	r, ok := right.(string)
	if !ok {
		return nil, types.Errorf(types.ErrNotAString,
			"operator matches: %s is not a string", types.Describe(right))
	}
	re, err := getOrCompileRegex(r)
	if err != nil {
		return nil, types.Errorf(types.ErrInvalidRegex,
			"invalid regular expression %s", types.QuoteString(r)).WithCause(err)
	}
	return re.FindStringIndex(l) != nil, nil
}

// opBetween tests lo <= left <= hi for a two-element list [lo, hi] of
// numbers or strings. Mixed or unordered types are never between.
func opBetween(left, right any) (any, error) {
	bounds, ok := types.AsList(right)
	if !ok || len(bounds) != 2 {
		return nil, types.Errorf(types.ErrBetweenOperand,
			"right operand for the between operator has to be a two-element list, got %s", types.Describe(right))
	}
	lo, hi := bounds[0], bounds[1]
	return lessOrEqual(lo, left) && lessOrEqual(left, hi), nil
}

func lessOrEqual(a, b any) bool {
	if as, ok := a.(string); ok {
		bs, ok := b.(string)
		return ok && strings.Compare(as, bs) <= 0
	}
	af, ok := types.ToNumber(a)
	if !ok {
		return false
	}
	bf, ok := types.ToNumber(b)
	return ok && af <= bf
}
