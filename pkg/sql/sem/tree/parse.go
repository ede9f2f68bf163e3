// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package tree

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/streamdb/streamdb/pkg/sql/types"
)

// ParseScalar parses a scalar expression in the syntax produced by
// ScalarExpr.String:
//
//	#3                 column reference
//	5, -2, 1.5         numeric literals
//	'it''s'            string literal
//	true, false, null  other literals; null may be typed as null::int
//	eq(#0, 5)          function call
func ParseScalar(s string) (ScalarExpr, error) {
	p := scalarParser{s: s}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.s) {
		return nil, p.errorf("unexpected trailing input")
	}
	return e, nil
}

// ParseScalarList parses a bracketed, comma-separated list of expressions,
// as produced by FormatList.
func ParseScalarList(s string) ([]ScalarExpr, error) {
	p := scalarParser{s: s}
	p.skipSpace()
	if !p.consume('[') {
		return nil, p.errorf("expected '['")
	}
	var exprs []ScalarExpr
	p.skipSpace()
	if !p.consume(']') {
		for {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, e)
			p.skipSpace()
			if p.consume(']') {
				break
			}
			if !p.consume(',') {
				return nil, p.errorf("expected ',' or ']'")
			}
		}
	}
	p.skipSpace()
	if p.pos != len(p.s) {
		return nil, p.errorf("unexpected trailing input")
	}
	return exprs, nil
}

// MustParseScalar is like ParseScalar but panics on error. It is intended for
// tests and static initializers.
func MustParseScalar(s string) ScalarExpr {
	e, err := ParseScalar(s)
	if err != nil {
		panic(err)
	}
	return e
}

type scalarParser struct {
	s   string
	pos int
}

func (p *scalarParser) errorf(format string, args ...interface{}) error {
	return errors.Wrapf(errors.Newf(format, args...), "at offset %d in %q", p.pos, p.s)
}

func (p *scalarParser) skipSpace() {
	for p.pos < len(p.s) && (p.s[p.pos] == ' ' || p.s[p.pos] == '\t' || p.s[p.pos] == '\n') {
		p.pos++
	}
}

func (p *scalarParser) peek() byte {
	if p.pos < len(p.s) {
		return p.s[p.pos]
	}
	return 0
}

func (p *scalarParser) consume(c byte) bool {
	if p.peek() == c {
		p.pos++
		return true
	}
	return false
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || isDigit(c)
}

func (p *scalarParser) parseExpr() (ScalarExpr, error) {
	p.skipSpace()
	c := p.peek()
	switch {
	case c == '#':
		p.pos++
		start := p.pos
		for isDigit(p.peek()) {
			p.pos++
		}
		idx, err := strconv.Atoi(p.s[start:p.pos])
		if err != nil {
			return nil, p.errorf("invalid column reference")
		}
		return NewColumn(idx), nil

	case c == '\'':
		return p.parseString()

	case c == '-' || isDigit(c):
		return p.parseNumber()

	case isIdentChar(c):
		start := p.pos
		for isIdentChar(p.peek()) {
			p.pos++
		}
		name := p.s[start:p.pos]
		switch name {
		case "true":
			return True, nil
		case "false":
			return False, nil
		case "null":
			if strings.HasPrefix(p.s[p.pos:], "::") {
				p.pos += 2
				tStart := p.pos
				for isIdentChar(p.peek()) {
					p.pos++
				}
				typ, err := types.ParseT(p.s[tStart:p.pos])
				if err != nil {
					return nil, err
				}
				return NewNullLiteral(typ), nil
			}
			return NewNullLiteral(types.Unknown), nil
		}
		return p.parseCall(name)
	}
	return nil, p.errorf("unexpected character %q", c)
}

func (p *scalarParser) parseString() (ScalarExpr, error) {
	p.pos++
	var b strings.Builder
	for {
		if p.pos >= len(p.s) {
			return nil, p.errorf("unterminated string literal")
		}
		c := p.s[p.pos]
		p.pos++
		if c == '\'' {
			if p.peek() != '\'' {
				break
			}
			p.pos++
		}
		b.WriteByte(c)
	}
	return NewStringLiteral(b.String()), nil
}

func (p *scalarParser) parseNumber() (ScalarExpr, error) {
	start := p.pos
	p.consume('-')
	isFloat := false
	for {
		c := p.peek()
		if isDigit(c) {
			p.pos++
			continue
		}
		if c == '.' || c == 'e' || c == 'E' || ((c == '+' || c == '-') && isFloat) {
			isFloat = true
			p.pos++
			continue
		}
		break
	}
	text := p.s[start:p.pos]
	if isFloat {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, p.errorf("invalid float %q", text)
		}
		return NewLiteral(DFloat(f)), nil
	}
	i, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, p.errorf("invalid integer %q", text)
	}
	return NewIntLiteral(i), nil
}

func (p *scalarParser) parseCall(name string) (ScalarExpr, error) {
	u, b, v, arity, ok := lookupFunc(name)
	if !ok {
		return nil, p.errorf("unknown function %q", name)
	}
	p.skipSpace()
	if !p.consume('(') {
		return nil, p.errorf("expected '(' after %s", name)
	}
	var args []ScalarExpr
	p.skipSpace()
	if !p.consume(')') {
		for {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			p.skipSpace()
			if p.consume(')') {
				break
			}
			if !p.consume(',') {
				return nil, p.errorf("expected ',' or ')'")
			}
		}
	}
	if arity >= 0 && len(args) != arity {
		return nil, p.errorf("%s expects %d arguments, got %d", name, arity, len(args))
	}
	switch arity {
	case 1:
		return NewUnary(u, args[0]), nil
	case 2:
		return NewBinary(b, args[0], args[1]), nil
	}
	return NewVariadic(v, args...), nil
}
