// Package parser implements the minimal front-end named in SPEC_FULL.md
// §12: a recursive-descent reader for the parenthesized prefix form of the
// AST shapes the lowerer consumes (lang/ast.Atom and lang/ast.Compound). It
// is deliberately thin — the real surface syntax of the contract language is
// an external collaborator per the specification; this exists only so the
// CLI has something to feed the compiler with.
package parser

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/mna/cllc/lang/ast"
)

// Parse reads a single top-level node from src. Trailing whitespace and
// comments are allowed after the node; anything else is an error.
func Parse(src string) (ast.Node, error) {
	p := &parser{src: []rune(src)}
	p.skipSpace()
	if p.pos >= len(p.src) {
		return nil, fmt.Errorf("unexpected end of input")
	}
	n, err := p.node()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return nil, fmt.Errorf("unexpected trailing input at offset %d: %q", p.pos, string(p.src[p.pos:]))
	}
	return n, nil
}

type parser struct {
	src []rune
	pos int
}

// node ::= atom | "(" head node* ")"
func (p *parser) node() (ast.Node, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return nil, fmt.Errorf("unexpected end of input")
	}
	if p.src[p.pos] == '(' {
		return p.compound()
	}
	return p.atom()
}

func (p *parser) compound() (ast.Node, error) {
	p.pos++ // consume '('
	p.skipSpace()

	head, err := p.token()
	if err != nil {
		return nil, err
	}
	c := &ast.Compound{Head: head}

	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, fmt.Errorf("unexpected end of input in %q: missing closing ')'", head)
		}
		if p.src[p.pos] == ')' {
			p.pos++
			return c, nil
		}
		child, err := p.node()
		if err != nil {
			return nil, err
		}
		c.Children = append(c.Children, child)
	}
}

func (p *parser) atom() (ast.Node, error) {
	tok, err := p.token()
	if err != nil {
		return nil, err
	}
	return &ast.Atom{Text: tok}, nil
}

// token reads one unparenthesized run of non-space, non-paren characters:
// identifiers, dotted pseudo-names (tx.sender), numeric literals (including
// a leading '-'), and operator symbols (+, ==, <=, #/, !, etc).
func (p *parser) token() (string, error) {
	start := p.pos
	for p.pos < len(p.src) {
		r := p.src[p.pos]
		if unicode.IsSpace(r) || r == '(' || r == ')' {
			break
		}
		p.pos++
	}
	if p.pos == start {
		return "", fmt.Errorf("expected a token at offset %d, found %q", start, string(p.src[start:min(start+1, len(p.src))]))
	}
	return string(p.src[start:p.pos]), nil
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) {
		r := p.src[p.pos]
		if unicode.IsSpace(r) {
			p.pos++
			continue
		}
		if r == '#' && !p.isHashOperator() {
			// line comment: skip to end of line
			for p.pos < len(p.src) && p.src[p.pos] != '\n' {
				p.pos++
			}
			continue
		}
		break
	}
}

// isHashOperator reports whether the '#' at the current position starts one
// of the signed operators "#/" or "#%" rather than a line comment.
func (p *parser) isHashOperator() bool {
	if p.pos+1 >= len(p.src) {
		return false
	}
	next := p.src[p.pos+1]
	return next == '/' || next == '%'
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// MustParse is a test/tooling convenience that panics on error.
func MustParse(src string) ast.Node {
	n, err := Parse(src)
	if err != nil {
		panic(fmt.Sprintf("parser.MustParse(%q): %s", src, strings.TrimSpace(err.Error())))
	}
	return n
}
