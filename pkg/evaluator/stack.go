package evaluator

// navStack is the navigation stack of one evaluation session. The bottom
// entry is always the root context; entries above it are the subjects of
// the enclosing compound, projection and selection scopes.
type navStack struct {
	entries []any
}

func newNavStack(root any) *navStack {
	s := &navStack{entries: make([]any, 1, 8)}
	s.entries[0] = root
	return s
}

func (s *navStack) push(v any) {
	s.entries = append(s.entries, v)
}

// pop removes the top entry. Removing the root is a broken invariant of the
// evaluator itself, not a user error, so it panics.
func (s *navStack) pop() {
	if len(s.entries) <= 1 {
		panic("evaluator: pop would remove the root navigation context")
	}
	s.entries[len(s.entries)-1] = nil
	s.entries = s.entries[:len(s.entries)-1]
}

// head returns the innermost context.
func (s *navStack) head() any {
	return s.entries[len(s.entries)-1]
}

// root returns the bottom entry.
func (s *navStack) root() any {
	return s.entries[0]
}

func (s *navStack) depth() int {
	return len(s.entries)
}

// bottomUp returns the entries from root to head. The slice is shared with
// the stack and must not be retained.
func (s *navStack) bottomUp() []any {
	return s.entries
}
