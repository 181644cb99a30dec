package parser

import "strings"

// LexString recognizes a quoted string literal at the start of suffix.
//
// Literals are delimited by ' or ". Inside, the delimiter is written twice to
// stand for itself ('it''s' is it's); no other escapes exist. On success it
// returns the decoded value and the number of bytes consumed. It returns
// ok == false when suffix does not start with a quote or the literal is not
// closed; callers tell the two apart by inspecting the first byte.
func LexString(suffix string) (value string, consumed int, ok bool) {
	if suffix == "" || (suffix[0] != '\'' && suffix[0] != '"') {
		return "", 0, false
	}
	quote := suffix[0]
	var b strings.Builder
	i := 1
	for i < len(suffix) {
		c := suffix[i]
		if c != quote {
			b.WriteByte(c)
			i++
			continue
		}
		if i+1 < len(suffix) && suffix[i+1] == quote {
			b.WriteByte(quote)
			i += 2
			continue
		}
		return b.String(), i + 1, true
	}
	return "", 0, false
}
