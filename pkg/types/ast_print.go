package types

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var identifierPattern = regexp.MustCompile(`^[a-zA-Z_$][a-zA-Z0-9_$]*$`)

// IsIdentifier reports whether s can be written as a bare identifier.
func IsIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}

// Print renders n as canonical source text.
//
// Operands that are not primaries are always parenthesized, so the output
// does not depend on operator precedence. For every tree produced by the
// parser, parsing the printed text yields a structurally equal tree.
func Print(n Node) string {
	var b strings.Builder
	p := printer{b: &b}
	p.node(n)
	return b.String()
}

type printer struct {
	b *strings.Builder
}

func (p printer) write(s ...string) {
	for _, x := range s {
		p.b.WriteString(x)
	}
}

// isPrimary reports whether n prints as a primary expression, i.e. needs no
// parentheses as an operand.
func isPrimary(n Node) bool {
	if _, ok := n.(*CompoundExpression); ok {
		return true
	}
	return isStartNode(n)
}

// isStartNode reports whether n can open a navigation chain.
func isStartNode(n Node) bool {
	switch n := n.(type) {
	case *NumberLiteral:
		return n.Value >= 0 && !math.IsInf(n.Value, 0)
	case *BooleanLiteral, *StringLiteral, *NullLiteral,
		*VariableReference, *FunctionReference, *PropertyReference, *MethodReference,
		*InlineList, *InlineMap:
		return true
	}
	return false
}

func isDollar(n Node) bool {
	ref, ok := n.(*PropertyReference)
	return ok && ref.PropertyName == "$"
}

func (p printer) operand(n Node) {
	if isPrimary(n) {
		p.node(n)
		return
	}
	p.write("(")
	p.node(n)
	p.write(")")
}

func (p printer) args(args []Node) {
	p.write("(")
	for i, a := range args {
		if i > 0 {
			p.write(", ")
		}
		p.node(a)
	}
	p.write(")")
}

func (p printer) node(n Node) {
	switch n := n.(type) {
	case nil:
		p.write("null")
	case *BooleanLiteral:
		p.write(strconv.FormatBool(n.Value))
	case *NumberLiteral:
		p.number(n.Value)
	case *StringLiteral:
		p.write(QuoteString(n.Value))
	case *NullLiteral:
		p.write("null")
	case *VariableReference:
		p.write("#", n.VariableName)
	case *FunctionReference:
		p.write("#", n.FunctionName)
		p.args(n.Args)
	case *PropertyReference:
		p.write(n.PropertyName)
	case *MethodReference:
		p.write(n.MethodName)
		p.args(n.Args)
	case *Indexer, CollectionNode:
		p.continuation(n)
	case *CompoundExpression:
		for i, c := range n.ExpressionComponents {
			if i == 0 {
				if isStartNode(c) {
					p.node(c)
				} else {
					p.write("(")
					p.node(c)
					p.write(")")
				}
				continue
			}
			if ix, ok := c.(*Indexer); ok && !ix.NullSafeNavigation && isDollar(n.ExpressionComponents[i-1]) {
				// ".$[" would read as a last-match selection
				p.write(" ")
			}
			p.continuation(c)
		}
	case *InlineList:
		p.write("{")
		for i, e := range n.Elements {
			if i > 0 {
				p.write(", ")
			}
			p.node(e)
		}
		p.write("}")
	case *InlineMap:
		if len(n.Elements) == 0 {
			p.write("{:}")
			return
		}
		p.write("{")
		for i, e := range n.Elements {
			if i > 0 {
				p.write(", ")
			}
			if IsIdentifier(e.Key) {
				p.write(e.Key)
			} else {
				p.write(QuoteString(e.Key))
			}
			p.write(": ")
			p.node(e.Value)
		}
		p.write("}")
	case *Negative:
		p.write("-")
		p.operand(n.Value)
	case *OpNot:
		p.write("!")
		p.operand(n.Expression)
	case *Elvis:
		p.operand(n.Expression)
		p.write(" ?: ")
		p.operand(n.IfFalse)
	case *Ternary:
		p.operand(n.Expression)
		p.write(" ? ")
		p.operand(n.IfTrue)
		p.write(" : ")
		p.operand(n.IfFalse)
	case BinaryNode:
		l, r := n.Operands()
		p.operand(l)
		p.write(" ", n.Kind().Operator(), " ")
		p.operand(r)
	}
}

// continuation prints n as a navigation step following a previous component.
func (p printer) continuation(n Node) {
	dot := func(nullSafe bool) string {
		if nullSafe {
			return "?."
		}
		return "."
	}
	switch n := n.(type) {
	case *PropertyReference:
		p.write(dot(n.NullSafeNavigation), n.PropertyName)
	case *MethodReference:
		p.write(dot(n.NullSafeNavigation), n.MethodName)
		p.args(n.Args)
	case *Indexer:
		if n.NullSafeNavigation {
			p.write("?")
		}
		p.write("[")
		p.node(n.Index)
		p.write("]")
	case *Projection:
		p.write(dot(n.NullSafeNavigation), "![")
		p.node(n.Expression)
		p.write("]")
	case *SelectionAll:
		p.write(dot(n.NullSafeNavigation), "?[")
		p.node(n.Expression)
		p.write("]")
	case *SelectionFirst:
		p.write(dot(n.NullSafeNavigation), "^[")
		p.node(n.Expression)
		p.write("]")
	case *SelectionLast:
		p.write(dot(n.NullSafeNavigation), "$[")
		p.node(n.Expression)
		p.write("]")
	case *VariableReference, *FunctionReference:
		p.node(n)
	default:
		p.write(".(")
		p.node(n)
		p.write(")")
	}
}

func (p printer) number(v float64) {
	switch {
	case math.IsNaN(v):
		p.write("(0 / 0)")
	case math.IsInf(v, 1):
		p.write("(1 / 0)")
	case math.IsInf(v, -1):
		p.write("(-1 / 0)")
	case v < 0:
		p.write("(-", strconv.FormatFloat(-v, 'f', -1, 64), ")")
	default:
		p.write(strconv.FormatFloat(v, 'f', -1, 64))
	}
}

// QuoteString renders s as a single-quoted string literal, doubling any
// embedded single quote.
func QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
