package evaluator

import (
	"context"
	"sync/atomic"

	"github.com/sandrolain/gospel/pkg/types"
)

// Session is one evaluation session: a root context, a variables table and
// the navigation stack they seed. It is created by [Evaluator.Bind].
//
// A Session must not be used by several goroutines at once; concurrent
// evaluations each need their own Session.
type Session struct {
	ev    *Evaluator
	stack *navStack
	vars  map[string]any
	depth int
	busy  atomic.Bool
}

func newSession(ev *Evaluator, root any, vars map[string]any) *Session {
	return &Session{
		ev:    ev,
		stack: newNavStack(root),
		vars:  vars,
	}
}

// Root returns the root context.
func (s *Session) Root() any {
	return s.stack.root()
}

// Evaluate evaluates node against the session's navigation stack. The stack
// is back at its root-only state when Evaluate returns, whether or not the
// evaluation failed.
func (s *Session) Evaluate(ctx context.Context, node types.Node) (any, error) {
	if node == nil {
		return nil, types.Errorf(types.ErrInvalidArgument, "invalid expression: nil node")
	}
	if !s.busy.CompareAndSwap(false, true) {
		return nil, types.Errorf(types.ErrInvalidArgument, "session is already evaluating; use one session per goroutine")
	}
	defer s.busy.Store(false)

	s.depth = 0
	return s.eval(ctx, node)
}

// lookupName resolves this, root and the variables table. Session variables
// shadow registered host functions.
func (s *Session) lookupName(name string) maybe {
	switch name {
	case "this":
		return some(s.stack.head())
	case "root":
		return some(s.stack.root())
	}
	if v, ok := s.vars[name]; ok {
		return some(v)
	}
	if v, ok := s.ev.customFns[name]; ok {
		return some(v)
	}
	return none()
}

// propertyInContext scans the navigation stack from the root upwards and
// returns the first entry that defines name. An outer scope therefore wins
// over an inner one. The bare name this is the innermost entry.
func (s *Session) propertyInContext(name string) maybe {
	if name == "this" {
		return some(s.stack.head())
	}
	for _, entry := range s.stack.bottomUp() {
		if m := lookupProperty(entry, name); !m.isNone() {
			return m
		}
	}
	return none()
}

// within evaluates node with subject pushed as the innermost context.
func (s *Session) within(ctx context.Context, subject any, node types.Node) (any, error) {
	s.stack.push(subject)
	defer s.stack.pop()
	return s.eval(ctx, node)
}
