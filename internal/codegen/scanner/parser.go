package scanner

import (
	"fmt"
	"strings"

	"github.com/Alia5/cborgen/internal/codegen/ctype"
)

// SyntaxError is a header parse failure at a source position.
type SyntaxError struct {
	Line int
	Col  int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d, col %d: %s", e.Line, e.Col, e.Msg)
}

var (
	typeKeywords = set("void", "char", "short", "int", "long", "float", "double",
		"signed", "unsigned", "_Bool", "bool", "_Complex", "__int128", "__signed__")
	qualifiers = set("const", "volatile", "restrict", "__restrict", "__restrict__",
		"_Atomic", "__const", "__volatile__")
	storageClass = set("static", "extern", "inline", "__inline", "__inline__",
		"register", "auto", "_Noreturn", "_Thread_local", "__extension__")
	attributeLike = set("__attribute__", "__attribute", "__declspec", "_Alignas",
		"alignas", "__asm__", "__asm", "asm")
	staticAssert = set("_Static_assert", "static_assert")
)

func set(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

func isKeyword(s string) bool {
	switch s {
	case "struct", "union", "enum", "typedef":
		return true
	}
	return typeKeywords[s] || qualifiers[s] || storageClass[s] || attributeLike[s] || staticAssert[s]
}

type parser struct {
	toks        []token
	pos         int
	externDepth int
	file        *ctype.File
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) peekAt(off int) token {
	if p.pos+off < len(p.toks) {
		return p.toks[p.pos+off]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) advance() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) eof() bool { return p.peek().kind == tokEOF }

func (p *parser) is(punct string) bool {
	t := p.peek()
	return t.kind == tokPunct && t.text == punct
}

func (p *parser) isWord(word string) bool {
	t := p.peek()
	return t.kind == tokIdent && t.text == word
}

func (p *parser) errorf(format string, args ...any) error {
	t := p.peek()
	return &SyntaxError{Line: t.line, Col: t.col, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) expect(punct string) error {
	if !p.is(punct) {
		return p.errorf("expected %q, found %s", punct, p.peek())
	}
	p.advance()
	return nil
}

// skipBalanced consumes an open token and everything up to its matching close.
func (p *parser) skipBalanced(open, closing string) error {
	if err := p.expect(open); err != nil {
		return err
	}
	depth := 1
	for depth > 0 {
		if p.eof() {
			return p.errorf("unbalanced %q", open)
		}
		t := p.advance()
		if t.kind != tokPunct {
			continue
		}
		switch t.text {
		case open:
			depth++
		case closing:
			depth--
		}
	}
	return nil
}

// skipAttributes drops GNU/MSVC attributes, alignment specifiers and asm labels.
func (p *parser) skipAttributes() error {
	for p.peek().kind == tokIdent && attributeLike[p.peek().text] {
		p.advance()
		if p.is("(") {
			if err := p.skipBalanced("(", ")"); err != nil {
				return err
			}
		}
	}
	return nil
}

// collect gathers raw token text up to (not including) one of the stop
// tokens at nesting depth zero.
func (p *parser) collect(stops ...string) (string, error) {
	var parts []token
	depth := 0
	for {
		t := p.peek()
		if t.kind == tokEOF {
			return "", p.errorf("unexpected end of input")
		}
		if t.kind == tokPunct {
			if depth == 0 {
				for _, s := range stops {
					if t.text == s {
						return joinTokens(parts), nil
					}
				}
			}
			switch t.text {
			case "(", "[", "{":
				depth++
			case ")", "]", "}":
				depth--
				if depth < 0 {
					return "", p.errorf("unbalanced %s", t)
				}
			}
		}
		parts = append(parts, p.advance())
	}
}

func joinTokens(toks []token) string {
	var b strings.Builder
	for i, t := range toks {
		if i > 0 && wordLike(toks[i-1]) && wordLike(t) {
			b.WriteByte(' ')
		}
		b.WriteString(t.text)
	}
	return b.String()
}

func wordLike(t token) bool {
	return t.kind == tokIdent || t.kind == tokNumber
}

func (p *parser) parseFile() error {
	for !p.eof() {
		switch {
		case p.is(";"):
			p.advance()
		case p.is("}"):
			if p.externDepth == 0 {
				return p.errorf("unexpected %s", p.peek())
			}
			p.externDepth--
			p.advance()
		case p.isWord("extern") && p.peekAt(1).kind == tokString:
			p.advance()
			p.advance()
			if p.is("{") {
				p.advance()
				p.externDepth++
			}
		case p.peek().kind == tokIdent && staticAssert[p.peek().text]:
			if err := p.skipStaticAssert(); err != nil {
				return err
			}
		default:
			if err := p.parseExternal(); err != nil {
				return err
			}
		}
	}
	if p.externDepth > 0 {
		return p.errorf("unterminated extern block")
	}
	return nil
}

func (p *parser) skipStaticAssert() error {
	p.advance()
	if err := p.skipBalanced("(", ")"); err != nil {
		return err
	}
	return p.expect(";")
}

func (p *parser) parseExternal() error {
	line := p.peek().line
	specs, err := p.parseDeclSpecs()
	if err != nil {
		return err
	}
	base := specs.base()
	if p.is(";") {
		p.advance()
		if !specs.typedef {
			p.file.Items = append(p.file.Items, &ctype.Decl{Type: base, Line: line})
		}
		return nil
	}
	for {
		line = p.peek().line
		name, wrap, err := p.parseDeclarator(false)
		if err != nil {
			return err
		}
		typ := wrap(base)
		if err := p.skipAttributes(); err != nil {
			return err
		}
		if p.is("{") {
			// function definition
			return p.skipBalanced("{", "}")
		}
		if p.is("=") {
			p.advance()
			if _, err := p.collect(",", ";"); err != nil {
				return err
			}
		}
		switch {
		case specs.typedef:
			p.file.Items = append(p.file.Items, &ctype.Typedef{Name: name, Type: typ, Line: line})
		case isFunc(typ):
		default:
			p.file.Items = append(p.file.Items, &ctype.Decl{Name: name, Type: typ, Line: line})
		}
		if p.is(",") {
			p.advance()
			continue
		}
		return p.expect(";")
	}
}

func isFunc(n ctype.Node) bool {
	_, ok := n.(*ctype.Func)
	return ok
}

type declSpecs struct {
	names   []string
	quals   []string
	tagged  ctype.Node
	typedef bool
}

func (s *declSpecs) hasType() bool {
	return len(s.names) > 0 || s.tagged != nil
}

func (s *declSpecs) base() ctype.Node {
	switch t := s.tagged.(type) {
	case *ctype.Struct:
		t.Quals = s.quals
		return t
	case *ctype.Union:
		t.Quals = s.quals
		return t
	case *ctype.Enum:
		t.Quals = s.quals
		return t
	}
	names := s.names
	if len(names) == 0 {
		names = []string{"int"}
	}
	return &ctype.Ident{Names: names, Quals: s.quals}
}

func (p *parser) parseDeclSpecs() (*declSpecs, error) {
	specs := &declSpecs{}
	start := p.peek()
	seen := false
loop:
	for {
		t := p.peek()
		if t.kind != tokIdent {
			break
		}
		switch {
		case t.text == "typedef":
			specs.typedef = true
			p.advance()
		case storageClass[t.text]:
			p.advance()
		case qualifiers[t.text]:
			specs.quals = append(specs.quals, normalizeQual(t.text))
			p.advance()
		case attributeLike[t.text]:
			if err := p.skipAttributes(); err != nil {
				return nil, err
			}
		case typeKeywords[t.text]:
			if specs.tagged != nil {
				return nil, p.errorf("unexpected %s after %s", t, ctype.Format(specs.tagged))
			}
			specs.names = append(specs.names, t.text)
			p.advance()
		case t.text == "struct" || t.text == "union" || t.text == "enum":
			if specs.hasType() {
				return nil, p.errorf("unexpected %s", t)
			}
			n, err := p.parseTagged()
			if err != nil {
				return nil, err
			}
			specs.tagged = n
		default:
			if specs.hasType() {
				break loop
			}
			specs.names = []string{t.text}
			p.advance()
		}
		seen = true
	}
	if !seen || (!specs.hasType() && len(specs.quals) == 0) {
		return nil, &SyntaxError{Line: start.line, Col: start.col, Msg: fmt.Sprintf("expected declaration, found %s", start)}
	}
	return specs, nil
}

func normalizeQual(q string) string {
	switch q {
	case "__const":
		return "const"
	case "__volatile__":
		return "volatile"
	case "__restrict", "__restrict__":
		return "restrict"
	}
	return q
}

func (p *parser) parseTagged() (ctype.Node, error) {
	kw := p.advance().text
	if err := p.skipAttributes(); err != nil {
		return nil, err
	}
	var name string
	if t := p.peek(); t.kind == tokIdent && !isKeyword(t.text) {
		name = t.text
		p.advance()
	}
	if err := p.skipAttributes(); err != nil {
		return nil, err
	}
	if !p.is("{") {
		if name == "" {
			return nil, p.errorf("expected %s name or body", kw)
		}
		switch kw {
		case "struct":
			return &ctype.Struct{Name: name}, nil
		case "union":
			return &ctype.Union{Name: name}, nil
		default:
			return &ctype.Enum{Name: name}, nil
		}
	}
	if kw == "enum" {
		if err := p.skipBalanced("{", "}"); err != nil {
			return nil, err
		}
		return &ctype.Enum{Name: name}, nil
	}
	p.advance()
	members, err := p.parseMembers()
	if err != nil {
		return nil, err
	}
	if err := p.skipAttributes(); err != nil {
		return nil, err
	}
	if kw == "union" {
		return &ctype.Union{Name: name, Members: members}, nil
	}
	return &ctype.Struct{Name: name, Members: members}, nil
}

// parseMembers parses a struct or union body after its opening brace and
// consumes the closing brace. The result is never nil.
func (p *parser) parseMembers() ([]*ctype.Decl, error) {
	members := []*ctype.Decl{}
	for !p.is("}") {
		if p.eof() {
			return nil, p.errorf("unterminated struct body")
		}
		if p.is(";") {
			p.advance()
			continue
		}
		if t := p.peek(); t.kind == tokIdent && staticAssert[t.text] {
			if err := p.skipStaticAssert(); err != nil {
				return nil, err
			}
			continue
		}
		line := p.peek().line
		specs, err := p.parseDeclSpecs()
		if err != nil {
			return nil, err
		}
		base := specs.base()
		if p.is(";") {
			p.advance()
			members = append(members, &ctype.Decl{Type: base, Line: line})
			continue
		}
		for {
			d := &ctype.Decl{Line: p.peek().line}
			if !p.is(":") {
				name, wrap, err := p.parseDeclarator(false)
				if err != nil {
					return nil, err
				}
				d.Name, d.Type = name, wrap(base)
				if err := p.skipAttributes(); err != nil {
					return nil, err
				}
			} else {
				d.Type = base
			}
			if p.is(":") {
				p.advance()
				width, err := p.collect(",", ";")
				if err != nil {
					return nil, err
				}
				d.BitWidth = width
			}
			members = append(members, d)
			if p.is(",") {
				p.advance()
				continue
			}
			break
		}
		if err := p.expect(";"); err != nil {
			return nil, err
		}
	}
	p.advance()
	return members, nil
}

type wrapper func(ctype.Node) ctype.Node

func identity(n ctype.Node) ctype.Node { return n }

// parseDeclarator parses a (possibly abstract) declarator and returns the
// declared name plus a function that builds the declared type around a base
// type.
func (p *parser) parseDeclarator(abstract bool) (string, wrapper, error) {
	var ptrs [][]string
	for p.is("*") {
		p.advance()
		var quals []string
		for {
			t := p.peek()
			if t.kind == tokIdent && qualifiers[t.text] {
				quals = append(quals, normalizeQual(t.text))
				p.advance()
				continue
			}
			if t.kind == tokIdent && attributeLike[t.text] {
				if err := p.skipAttributes(); err != nil {
					return "", nil, err
				}
				continue
			}
			break
		}
		ptrs = append(ptrs, quals)
	}

	var name string
	inner := wrapper(identity)
	switch t := p.peek(); {
	case t.kind == tokIdent && !isKeyword(t.text):
		name = t.text
		p.advance()
	case p.is("(") && (p.peekAt(1).text == "*" || p.peekAt(1).text == "(" || p.peekAt(1).text == "^"):
		p.advance()
		var err error
		name, inner, err = p.parseDeclarator(abstract)
		if err != nil {
			return "", nil, err
		}
		if err := p.expect(")"); err != nil {
			return "", nil, err
		}
	case !abstract:
		return "", nil, p.errorf("expected declarator, found %s", t)
	}

	var suffixes []wrapper
	for {
		if err := p.skipAttributes(); err != nil {
			return "", nil, err
		}
		switch {
		case p.is("["):
			p.advance()
			dim, err := p.collect("]")
			if err != nil {
				return "", nil, err
			}
			p.advance()
			suffixes = append(suffixes, func(n ctype.Node) ctype.Node {
				return &ctype.Array{Dim: dim, Elem: n}
			})
			continue
		case p.is("("):
			p.advance()
			params, err := p.parseParams()
			if err != nil {
				return "", nil, err
			}
			suffixes = append(suffixes, func(n ctype.Node) ctype.Node {
				return &ctype.Func{Result: n, Params: params}
			})
			continue
		}
		break
	}

	wrap := func(base ctype.Node) ctype.Node {
		t := base
		for _, q := range ptrs {
			t = &ctype.Ptr{Quals: q, Elem: t}
		}
		for i := len(suffixes) - 1; i >= 0; i-- {
			t = suffixes[i](t)
		}
		return inner(t)
	}
	return name, wrap, nil
}

// parseParams parses a parameter list after its opening parenthesis and
// consumes the closing one.
func (p *parser) parseParams() ([]*ctype.Decl, error) {
	var params []*ctype.Decl
	if p.is(")") {
		p.advance()
		return params, nil
	}
	if p.isWord("void") && p.peekAt(1).text == ")" {
		p.advance()
		p.advance()
		return params, nil
	}
	for {
		if p.is("...") {
			p.advance()
		} else {
			line := p.peek().line
			specs, err := p.parseDeclSpecs()
			if err != nil {
				return nil, err
			}
			name, wrap, err := p.parseDeclarator(true)
			if err != nil {
				return nil, err
			}
			params = append(params, &ctype.Decl{Name: name, Type: wrap(specs.base()), Line: line})
		}
		if p.is(",") {
			p.advance()
			continue
		}
		return params, p.expect(")")
	}
}
