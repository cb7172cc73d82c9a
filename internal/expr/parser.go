package expr

import (
	"fmt"
	"math"
	"strconv"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

type lexer struct {
	s string
	i int
}

func (l *lexer) peek() (token, error) {
	pos := l.i
	tok, err := l.next()
	l.i = pos
	return tok, err
}

func (l *lexer) next() (token, error) {
	for l.i < len(l.s) && isSpace(l.s[l.i]) {
		l.i++
	}
	if l.i >= len(l.s) {
		return token{kind: tokEOF, pos: l.i}, nil
	}

	start := l.i
	ch := l.s[l.i]
	switch ch {
	case '+':
		l.i++
		return token{kind: tokPlus, text: "+", pos: start}, nil
	case '-':
		l.i++
		return token{kind: tokMinus, text: "-", pos: start}, nil
	case '*':
		l.i++
		return token{kind: tokStar, text: "*", pos: start}, nil
	case '/':
		l.i++
		return token{kind: tokSlash, text: "/", pos: start}, nil
	case '(':
		l.i++
		return token{kind: tokLParen, text: "(", pos: start}, nil
	case ')':
		l.i++
		return token{kind: tokRParen, text: ")", pos: start}, nil
	}

	if isDigit(ch) || (ch == '.' && l.i+1 < len(l.s) && isDigit(l.s[l.i+1])) {
		l.scanNumber()
		return token{kind: tokNumber, text: l.s[start:l.i], pos: start}, nil
	}

	return token{}, fmt.Errorf("%w: unexpected %q at offset %d", ErrMalformed, ch, start)
}

// scanNumber consumes digits, an optional fraction and an optional exponent.
func (l *lexer) scanNumber() {
	for l.i < len(l.s) && isDigit(l.s[l.i]) {
		l.i++
	}
	if l.i < len(l.s) && l.s[l.i] == '.' {
		l.i++
		for l.i < len(l.s) && isDigit(l.s[l.i]) {
			l.i++
		}
	}
	if l.i < len(l.s) && (l.s[l.i] == 'e' || l.s[l.i] == 'E') {
		j := l.i + 1
		if j < len(l.s) && (l.s[j] == '+' || l.s[j] == '-') {
			j++
		}
		if j < len(l.s) && isDigit(l.s[j]) {
			for j < len(l.s) && isDigit(l.s[j]) {
				j++
			}
			l.i = j
		}
	}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isSpace(b byte) bool { return b == ' ' || b == '\t' || b == '\n' || b == '\r' }

// Arith evaluates a plain arithmetic expression: numbers, + - * / and
// parentheses. Prefix references must already have been substituted.
func Arith(s string) (float64, error) {
	p := &parser{lex: &lexer{s: s}}
	v, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	tok, err := p.lex.next()
	if err != nil {
		return 0, err
	}
	if tok.kind != tokEOF {
		return 0, fmt.Errorf("%w: unexpected %q at offset %d", ErrMalformed, tok.text, tok.pos)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: result is not finite", ErrMalformed)
	}
	return v, nil
}

type parser struct {
	lex *lexer
}

func (p *parser) parseExpr() (float64, error) {
	left, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		tok, err := p.lex.peek()
		if err != nil {
			return 0, err
		}
		if tok.kind != tokPlus && tok.kind != tokMinus {
			return left, nil
		}
		p.lex.next()
		right, err := p.parseTerm()
		if err != nil {
			return 0, err
		}
		if tok.kind == tokPlus {
			left += right
		} else {
			left -= right
		}
	}
}

func (p *parser) parseTerm() (float64, error) {
	left, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for {
		tok, err := p.lex.peek()
		if err != nil {
			return 0, err
		}
		if tok.kind != tokStar && tok.kind != tokSlash {
			return left, nil
		}
		p.lex.next()
		right, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		if tok.kind == tokStar {
			left *= right
			continue
		}
		if right == 0 {
			return 0, fmt.Errorf("%w: division by zero at offset %d", ErrMalformed, tok.pos)
		}
		left /= right
	}
}

func (p *parser) parseUnary() (float64, error) {
	tok, err := p.lex.peek()
	if err != nil {
		return 0, err
	}
	switch tok.kind {
	case tokMinus:
		p.lex.next()
		v, err := p.parseUnary()
		return -v, err
	case tokPlus:
		p.lex.next()
		return p.parseUnary()
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (float64, error) {
	tok, err := p.lex.next()
	if err != nil {
		return 0, err
	}
	switch tok.kind {
	case tokNumber:
		v, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: bad literal %q", ErrMalformed, tok.text)
		}
		return v, nil
	case tokLParen:
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		closing, err := p.lex.next()
		if err != nil {
			return 0, err
		}
		if closing.kind != tokRParen {
			return 0, fmt.Errorf("%w: expected ) at offset %d", ErrMalformed, closing.pos)
		}
		return v, nil
	case tokEOF:
		return 0, fmt.Errorf("%w: unexpected end of expression", ErrMalformed)
	default:
		return 0, fmt.Errorf("%w: unexpected %q at offset %d", ErrMalformed, tok.text, tok.pos)
	}
}
