package parser

import (
	"regexp"

	"github.com/sandrolain/gospel/pkg/types"
)

// rule is a grammar rule. It returns (nil, nil) when it does not match, in
// which case the caller restores the cursor; a non-nil error aborts the parse.
type rule func() (types.Node, error)

// numberPattern matches a decimal number without sign or exponent.
var numberPattern = regexp.MustCompile(`^\d+(?:\.\d+)?`)

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func (p *Parser) atEnd() bool {
	return p.pos >= len(p.input)
}

// peekAt returns the byte offset bytes ahead of the cursor, or 0 past the end.
func (p *Parser) peekAt(offset int) byte {
	if p.pos+offset >= len(p.input) {
		return 0
	}
	return p.input[p.pos+offset]
}

// char consumes c if it is the next character.
func (p *Parser) char(c byte) bool {
	if p.atEnd() || p.input[p.pos] != c {
		return false
	}
	p.pos++
	return true
}

// chars consumes the literal sequence s. On a partial match the cursor is
// left where it was.
func (p *Parser) chars(s string) bool {
	start := p.pos
	for i := 0; i < len(s); i++ {
		if !p.char(s[i]) {
			p.pos = start
			return false
		}
	}
	return true
}

// keyword consumes the word w only if it is not immediately followed by an
// identifier character.
func (p *Parser) keyword(w string) bool {
	start := p.pos
	if !p.chars(w) {
		return false
	}
	if !p.atEnd() && isIdentPart(p.input[p.pos]) {
		p.pos = start
		return false
	}
	return true
}

// regex consumes the longest match of re anchored at the cursor. re must
// begin with ^.
func (p *Parser) regex(re *regexp.Regexp) (string, bool) {
	m := re.FindString(p.input[p.pos:])
	if m == "" {
		return "", false
	}
	p.pos += len(m)
	return m, true
}

// whitespace consumes any run of whitespace. It always succeeds.
func (p *Parser) whitespace() bool {
	for !p.atEnd() && isSpace(p.input[p.pos]) {
		p.pos++
	}
	return true
}

// identifier consumes [a-zA-Z_$][a-zA-Z0-9_$]*.
func (p *Parser) identifier() (string, bool) {
	if p.atEnd() || !isIdentStart(p.input[p.pos]) {
		return "", false
	}
	start := p.pos
	p.pos++
	for !p.atEnd() && isIdentPart(p.input[p.pos]) {
		p.pos++
	}
	return p.input[start:p.pos], true
}

// firstOf tries each rule in order from the same cursor position and returns
// the first match. Order encodes precedence; it is not longest-match.
func (p *Parser) firstOf(rules ...rule) (types.Node, error) {
	start := p.pos
	for _, r := range rules {
		p.pos = start
		n, err := r()
		if err != nil {
			return nil, err
		}
		if n != nil {
			return n, nil
		}
	}
	p.pos = start
	return nil, nil
}

// zeroOrMore applies r until it stops matching and returns the matches. The
// cursor movement of the final failing attempt is discarded.
func (p *Parser) zeroOrMore(r rule) ([]types.Node, error) {
	var out []types.Node
	for {
		start := p.pos
		n, err := r()
		if err != nil {
			return nil, err
		}
		if n == nil {
			p.pos = start
			return out, nil
		}
		out = append(out, n)
	}
}
