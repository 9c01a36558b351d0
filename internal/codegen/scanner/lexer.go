package scanner

import (
	"fmt"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokChar
	tokPunct
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokIdent:
		return "identifier"
	case tokNumber:
		return "number"
	case tokString:
		return "string literal"
	case tokChar:
		return "character literal"
	default:
		return "punctuation"
	}
}

type token struct {
	kind tokenKind
	text string
	line int
	col  int
}

func (t token) String() string {
	if t.kind == tokEOF {
		return t.kind.String()
	}
	return fmt.Sprintf("%q", t.text)
}

// lexer splits header text into tokens. Comments and preprocessor lines are
// dropped; macros are not expanded.
type lexer struct {
	src  string
	pos  int
	line int
	col  int
	bol  bool
}

func newLexer(src string) *lexer {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	return &lexer{src: src, line: 1, col: 1, bol: true}
}

func (l *lexer) peekByte(off int) byte {
	if l.pos+off < len(l.src) {
		return l.src[l.pos+off]
	}
	return 0
}

func (l *lexer) advance() byte {
	c := l.src[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.col = 1
		l.bol = true
	} else {
		l.col++
	}
	return c
}

func (l *lexer) skipSpaceAndComments() error {
	for l.pos < len(l.src) {
		c := l.peekByte(0)
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v':
			l.advance()
		case c == '\\' && l.peekByte(1) == '\n':
			l.advance()
			l.advance()
		case c == '/' && l.peekByte(1) == '/':
			for l.pos < len(l.src) && l.peekByte(0) != '\n' {
				l.advance()
			}
		case c == '/' && l.peekByte(1) == '*':
			line, col := l.line, l.col
			l.advance()
			l.advance()
			for {
				if l.pos >= len(l.src) {
					return &SyntaxError{Line: line, Col: col, Msg: "unterminated comment"}
				}
				if l.peekByte(0) == '*' && l.peekByte(1) == '/' {
					l.advance()
					l.advance()
					break
				}
				l.advance()
			}
		case c == '#' && l.bol:
			l.skipDirective()
		default:
			return nil
		}
	}
	return nil
}

// skipDirective drops a preprocessor line including backslash continuations.
func (l *lexer) skipDirective() {
	for l.pos < len(l.src) {
		c := l.peekByte(0)
		if c == '\\' && l.peekByte(1) == '\n' {
			l.advance()
			l.advance()
			continue
		}
		if c == '\n' {
			return
		}
		l.advance()
	}
}

func (l *lexer) next() (token, error) {
	if err := l.skipSpaceAndComments(); err != nil {
		return token{}, err
	}
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, line: l.line, col: l.col}, nil
	}
	l.bol = false
	start, line, col := l.pos, l.line, l.col
	c := l.peekByte(0)
	switch {
	case isIdentStart(c):
		for l.pos < len(l.src) && isIdentPart(l.peekByte(0)) {
			l.advance()
		}
		return token{kind: tokIdent, text: l.src[start:l.pos], line: line, col: col}, nil
	case isDigit(c) || (c == '.' && isDigit(l.peekByte(1))):
		for l.pos < len(l.src) {
			d := l.peekByte(0)
			if isIdentPart(d) || d == '.' {
				l.advance()
				continue
			}
			if (d == '+' || d == '-') && (l.src[l.pos-1] == 'e' || l.src[l.pos-1] == 'E' || l.src[l.pos-1] == 'p' || l.src[l.pos-1] == 'P') {
				l.advance()
				continue
			}
			break
		}
		return token{kind: tokNumber, text: l.src[start:l.pos], line: line, col: col}, nil
	case c == '"' || c == '\'':
		quote := c
		l.advance()
		for {
			if l.pos >= len(l.src) || l.peekByte(0) == '\n' {
				return token{}, &SyntaxError{Line: line, Col: col, Msg: "unterminated literal"}
			}
			d := l.advance()
			if d == '\\' && l.pos < len(l.src) {
				l.advance()
				continue
			}
			if d == quote {
				break
			}
		}
		kind := tokString
		if quote == '\'' {
			kind = tokChar
		}
		return token{kind: kind, text: l.src[start:l.pos], line: line, col: col}, nil
	case c == '.' && l.peekByte(1) == '.' && l.peekByte(2) == '.':
		l.advance()
		l.advance()
		l.advance()
		return token{kind: tokPunct, text: "...", line: line, col: col}, nil
	default:
		l.advance()
		return token{kind: tokPunct, text: string(c), line: line, col: col}, nil
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// tokenize lexes the whole input.
func tokenize(src string) ([]token, error) {
	l := newLexer(src)
	var toks []token
	for {
		t, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, t)
		if t.kind == tokEOF {
			return toks, nil
		}
	}
}
