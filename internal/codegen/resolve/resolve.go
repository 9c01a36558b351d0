// Package resolve maps raw member type nodes to canonical type descriptors.
package resolve

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/Alia5/cborgen/internal/codegen/ctype"
	"github.com/Alia5/cborgen/internal/codegen/meta"
	"github.com/Alia5/cborgen/internal/codegen/registry"
)

// MaxTypedefDepth bounds typedef substitution. Exceeding it is reported as a
// typedef cycle.
const MaxTypedefDepth = 32

// Resolver resolves member types against one registry. It is safe for
// concurrent use; results are memoized by node identity.
type Resolver struct {
	reg *registry.Registry

	mu    sync.Mutex
	cache map[ctype.Node]result
}

type result struct {
	td  meta.TypeDescriptor
	err error
}

func New(reg *registry.Registry) *Resolver {
	return &Resolver{reg: reg, cache: make(map[ctype.Node]result)}
}

// Resolve returns the descriptor of a member type. Unsupported shapes are
// reported as meta.CategoryUnsupported; the error return is reserved for
// configuration errors such as a struct tag that is never defined.
func (r *Resolver) Resolve(n ctype.Node) (meta.TypeDescriptor, error) {
	r.mu.Lock()
	res, ok := r.cache[n]
	r.mu.Unlock()
	if ok {
		return res.td, res.err
	}

	td, err := r.resolve(n)

	r.mu.Lock()
	r.cache[n] = result{td: td, err: err}
	r.mu.Unlock()
	return td, err
}

// shape accumulates declarator decorations while walking from the member
// toward its base type.
type shape struct {
	ptrs     int
	hasDim   bool
	dim      string
	constRef bool
	// spelled is the C name of the element type as written, reset whenever
	// a typedef contributes a pointer or array decoration.
	spelled string
}

func (r *Resolver) resolve(n ctype.Node) (meta.TypeDescriptor, error) {
	var s shape
	subs := 0
	for {
		switch t := n.(type) {
		case *ctype.Ptr:
			if s.hasDim {
				return meta.Unsupported("array of pointers"), nil
			}
			s.ptrs++
			s.spelled = ""
			n = t.Elem
		case *ctype.Array:
			if s.hasDim {
				return meta.Unsupported("multi-dimensional array"), nil
			}
			if s.ptrs > 0 {
				return meta.Unsupported("pointer to array"), nil
			}
			s.hasDim, s.dim = true, t.Dim
			s.spelled = ""
			n = t.Elem
		case *ctype.Func:
			if s.ptrs > 0 {
				return meta.Unsupported("function pointer"), nil
			}
			return meta.Unsupported("function type"), nil
		case *ctype.Union:
			return meta.Unsupported("union"), nil
		case *ctype.Enum:
			return meta.Unsupported("enum"), nil
		case *ctype.Struct:
			if ctype.HasQual(t.Quals, "const") {
				s.constRef = true
			}
			return r.classifyStruct(t, s)
		case *ctype.Ident:
			if ctype.HasQual(t.Quals, "const") {
				s.constRef = true
			}
			name := strings.Join(t.Names, " ")
			if s.spelled == "" {
				s.spelled = name
			}
			if len(t.Names) == 1 {
				if target, ok := r.reg.Typedef(t.Names[0]); ok {
					subs++
					if subs > MaxTypedefDepth {
						return meta.Unsupported("typedef cycle"), nil
					}
					n = target
					continue
				}
			}
			b, reason := builtin(t.Names)
			if reason != "" {
				return meta.Unsupported(reason), nil
			}
			return classifyBuiltin(b, s), nil
		case nil:
			return meta.Unsupported("void"), nil
		default:
			return meta.TypeDescriptor{}, fmt.Errorf("resolve: unhandled node %T", n)
		}
	}
}

func (r *Resolver) classifyStruct(t *ctype.Struct, s shape) (meta.TypeDescriptor, error) {
	if s.ptrs > 1 {
		return meta.Unsupported("pointer depth > 1"), nil
	}
	if s.constRef {
		if s.ptrs == 1 {
			return meta.Unsupported("const struct pointer not decodable"), nil
		}
		return meta.Unsupported("const member not decodable"), nil
	}

	var name string
	if t.Name == "" {
		canonical, ok := r.reg.CanonicalName(t)
		if !ok {
			return meta.Unsupported("anonymous struct"), nil
		}
		name = canonical
	} else {
		if _, ok := r.reg.Struct(t.Name); !ok {
			return meta.TypeDescriptor{}, &meta.ConfigError{
				Kind:   meta.UndefinedStruct,
				Detail: fmt.Sprintf("struct %s is referenced but never defined", t.Name),
			}
		}
		name = t.Name
	}

	switch {
	case s.hasDim:
		n, reason := dimension(s.dim)
		if reason != "" {
			return meta.Unsupported(reason), nil
		}
		return meta.StructArray(name, n), nil
	case s.ptrs == 1:
		return meta.StructPointer(name), nil
	default:
		return meta.StructInline(name), nil
	}
}

// classifyBuiltin rejects const-qualified values: decode writes every
// member it accepts, including the characters behind a string pointer.
func classifyBuiltin(b base, s shape) meta.TypeDescriptor {
	str := b.plainChar && (s.hasDim || s.ptrs == 1)
	if !str && s.ptrs > 1 {
		return meta.Unsupported("pointer depth > 1")
	}
	if !str && s.ptrs == 1 {
		return meta.Unsupported("pointer to primitive")
	}
	if s.constRef {
		return meta.Unsupported("const member not decodable")
	}
	if str {
		if s.ptrs == 1 {
			return meta.StringPointer()
		}
		n, reason := dimension(s.dim)
		if reason != "" {
			return meta.Unsupported(reason)
		}
		return meta.StringFixed(n)
	}
	spelled := s.spelled
	if spelled == "" {
		spelled = b.spelling
	}
	if s.hasDim {
		n, reason := dimension(s.dim)
		if reason != "" {
			return meta.Unsupported(reason)
		}
		return meta.PrimitiveArray(b.kind, spelled, b.bits, n)
	}
	return meta.Primitive(b.kind, spelled, b.bits)
}

// dimension parses a literal array dimension.
func dimension(dim string) (int, string) {
	text := strings.TrimRight(strings.TrimSpace(dim), "uUlL")
	if text == "" {
		return 0, "indefinite length"
	}
	n, err := strconv.ParseUint(text, 0, 31)
	if err != nil {
		return 0, "indefinite length"
	}
	if n == 0 {
		return 0, "zero-length array"
	}
	return int(n), ""
}
