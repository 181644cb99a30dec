package evaluator

// maybe distinguishes "not defined" from "defined, possibly as nil" in name
// lookups.
type maybe struct {
	v  any
	ok bool
}

func some(v any) maybe { return maybe{v: v, ok: true} }

func none() maybe { return maybe{} }

func (m maybe) isNone() bool { return !m.ok }

func (m maybe) value() any { return m.v }
