// Package registry indexes the struct definitions and typedef bindings of one
// parsed header. A Registry is built once and is read-only afterwards.
package registry

import (
	"fmt"

	"github.com/Alia5/cborgen/internal/codegen/ctype"
	"github.com/Alia5/cborgen/internal/codegen/meta"
)

// Options tune registry construction.
type Options struct {
	// Strict turns name-collision ambiguities into configuration errors.
	Strict bool
}

// Entry is one registered struct definition.
type Entry struct {
	Name string
	Node *ctype.Struct
	// Typedef is set when the struct is anonymous and known only through a
	// typedef name.
	Typedef bool
	// ViaPointer is set when that typedef names a pointer to the struct.
	ViaPointer bool
	Line       int
}

// Members returns the raw member declarations in source order.
func (e *Entry) Members() []*ctype.Decl {
	return e.Node.Members
}

type Registry struct {
	structs   map[string]*Entry
	order     []string
	typedefs  map[string]ctype.Node
	tdOrder   []string
	canonical map[*ctype.Struct]string
}

// Struct returns the struct registered under name.
func (r *Registry) Struct(name string) (*Entry, bool) {
	e, ok := r.structs[name]
	return e, ok
}

// Typedef returns the unresolved target of the typedef name.
func (r *Registry) Typedef(name string) (ctype.Node, bool) {
	n, ok := r.typedefs[name]
	return n, ok
}

// CanonicalName returns the registered name of a struct definition node.
func (r *Registry) CanonicalName(s *ctype.Struct) (string, bool) {
	name, ok := r.canonical[s]
	return name, ok
}

// StructNames returns all registered struct names in declaration order.
func (r *Registry) StructNames() []string {
	return append([]string(nil), r.order...)
}

// TypedefNames returns all typedef names in declaration order.
func (r *Registry) TypedefNames() []string {
	return append([]string(nil), r.tdOrder...)
}

type candidate struct {
	name    string
	node    *ctype.Struct
	typedef bool
	viaPtr  bool
	line    int
}

type builder struct {
	reg        *Registry
	opts       Options
	candidates []candidate
	seen       map[*ctype.Struct]bool
	diags      []meta.Diagnostic
}

// Build indexes every struct definition and typedef in f.
//
// Named struct definitions are registered by tag, including definitions
// nested inside other struct or union bodies. An anonymous struct bound by a
// typedef, directly or through one pointer, is registered under the typedef
// name. A struct tag always wins over a typedef of the same name.
func Build(f *ctype.File, opts Options) (*Registry, []meta.Diagnostic, error) {
	b := &builder{
		reg: &Registry{
			structs:   make(map[string]*Entry),
			typedefs:  make(map[string]ctype.Node),
			canonical: make(map[*ctype.Struct]string),
		},
		opts: opts,
		seen: make(map[*ctype.Struct]bool),
	}

	for _, it := range f.Items {
		switch it := it.(type) {
		case *ctype.Decl:
			if err := b.walk(it.Type, it.Line); err != nil {
				return nil, nil, err
			}
		case *ctype.Typedef:
			if err := b.typedef(it); err != nil {
				return nil, nil, err
			}
		}
	}
	if err := b.bindAnonymous(); err != nil {
		return nil, nil, err
	}
	if err := b.checkCollisions(); err != nil {
		return nil, nil, err
	}

	for _, c := range b.candidates {
		if e, ok := b.reg.structs[c.name]; ok && e.Node == c.node {
			b.reg.order = append(b.reg.order, c.name)
		}
	}
	return b.reg, b.diags, nil
}

func (b *builder) typedef(td *ctype.Typedef) error {
	if prev, ok := b.reg.typedefs[td.Name]; ok {
		if !ctype.SameShape(prev, td.Type) {
			return &meta.ConfigError{
				Kind:   meta.TypedefRedefined,
				Struct: td.Name,
				Detail: fmt.Sprintf("was %q, now %q (line %d)", ctype.Format(prev), ctype.Format(td.Type), td.Line),
			}
		}
		return nil
	}
	b.reg.typedefs[td.Name] = td.Type
	b.reg.tdOrder = append(b.reg.tdOrder, td.Name)

	if s := anonymousTarget(td.Type); s != nil && !b.seen[s] {
		_, viaPtr := td.Type.(*ctype.Ptr)
		b.candidates = append(b.candidates, candidate{name: td.Name, node: s, typedef: true, viaPtr: viaPtr, line: td.Line})
	}
	return b.walk(td.Type, td.Line)
}

// anonymousTarget returns the anonymous struct definition a typedef binds,
// directly or through one pointer.
func anonymousTarget(n ctype.Node) *ctype.Struct {
	if p, ok := n.(*ctype.Ptr); ok {
		n = p.Elem
	}
	if s, ok := n.(*ctype.Struct); ok && s.Name == "" && s.Members != nil {
		return s
	}
	return nil
}

// walk registers every named struct definition reachable from n.
func (b *builder) walk(n ctype.Node, line int) error {
	switch t := n.(type) {
	case *ctype.Ptr:
		return b.walk(t.Elem, line)
	case *ctype.Array:
		return b.walk(t.Elem, line)
	case *ctype.Func:
		if err := b.walk(t.Result, line); err != nil {
			return err
		}
		return b.walkDecls(t.Params)
	case *ctype.Union:
		return b.walkDecls(t.Members)
	case *ctype.Struct:
		if t.Members == nil || b.seen[t] {
			return nil
		}
		b.seen[t] = true
		if t.Name != "" {
			if err := b.register(candidate{name: t.Name, node: t, line: line}); err != nil {
				return err
			}
		}
		return b.walkDecls(t.Members)
	case *ctype.Ident, *ctype.Enum, nil:
		return nil
	default:
		return fmt.Errorf("registry: unhandled node %T", n)
	}
}

func (b *builder) walkDecls(decls []*ctype.Decl) error {
	for _, d := range decls {
		if err := b.walk(d.Type, d.Line); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) register(c candidate) error {
	if prev, ok := b.reg.structs[c.name]; ok && prev.Node != c.node {
		return &meta.ConfigError{
			Kind:   meta.StructRedefined,
			Struct: c.name,
			Detail: fmt.Sprintf("first defined on line %d, again on line %d", prev.Line, c.line),
		}
	}
	b.reg.structs[c.name] = &Entry{Name: c.name, Node: c.node, Typedef: c.typedef, Line: c.line}
	b.reg.canonical[c.node] = c.name
	b.candidates = append(b.candidates, c)
	return nil
}

// bindAnonymous registers typedef-bound anonymous structs once all tags are
// known, so that a tag of the same name takes priority regardless of order.
func (b *builder) bindAnonymous() error {
	for _, c := range b.candidates {
		if !c.typedef {
			continue
		}
		if _, done := b.reg.canonical[c.node]; done {
			continue
		}
		if prev, ok := b.reg.structs[c.name]; ok {
			if err := b.ambiguity(c.name, fmt.Sprintf(
				"typedef %s (line %d) binds an anonymous struct but struct tag %s (line %d) exists; the tag takes priority",
				c.name, c.line, c.name, prev.Line)); err != nil {
				return err
			}
			continue
		}
		b.reg.structs[c.name] = &Entry{Name: c.name, Node: c.node, Typedef: true, ViaPointer: c.viaPtr, Line: c.line}
		b.reg.canonical[c.node] = c.name
	}
	return nil
}

// checkCollisions reports typedef names that shadow an unrelated struct tag.
func (b *builder) checkCollisions() error {
	for _, name := range b.reg.tdOrder {
		e, ok := b.reg.structs[name]
		if !ok || e.Typedef {
			continue
		}
		target := b.reg.typedefs[name]
		if s, ok := target.(*ctype.Struct); ok && (s.Name == name || s == e.Node) {
			continue
		}
		if anonymousTarget(target) != nil {
			// already reported by bindAnonymous
			continue
		}
		if err := b.ambiguity(name, fmt.Sprintf(
			"typedef %s aliases %q and collides with struct tag %s; the tag takes priority",
			name, ctype.Format(target), name)); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) ambiguity(name, detail string) error {
	if b.opts.Strict {
		return &meta.ConfigError{Kind: meta.NameCollision, Struct: name, Detail: detail}
	}
	b.diags = append(b.diags, meta.Diagnostic{Severity: meta.SeverityAmbiguity, Struct: name, Reason: detail})
	return nil
}
