// Package codec turns struct descriptors into abstract encode and decode
// operation lists. Language backends and the reference machine consume the
// same Program.
package codec

import (
	"fmt"

	"github.com/Alia5/cborgen/internal/codegen/meta"
)

type OpCode int

const (
	// OpNullGuard: encode writes a wire null for a nil struct; decode
	// consumes a wire null and returns without touching the destination.
	OpNullGuard OpCode = iota
	OpMapOpen
	OpMapClose
	OpKey
	// OpMatchKey starts the decode case for one member. The value ops that
	// follow, up to the next OpMatchKey or OpSkipUnknown, belong to it.
	OpMatchKey
	// OpSkipUnknown skips the value of any key that matched no member.
	OpSkipUnknown
	OpPrimitive
	OpString
	OpNestedCall
	// OpNullCheck guards exactly the next value op: a nil pointer encodes as
	// wire null, a wire null decodes as "leave untouched".
	OpNullCheck
	// OpArrayOpen and OpArrayClose bracket ops applied to every element.
	OpArrayOpen
	OpArrayClose
)

var opNames = [...]string{
	OpNullGuard:   "null-guard",
	OpMapOpen:     "map-open",
	OpMapClose:    "map-close",
	OpKey:         "key",
	OpMatchKey:    "match-key",
	OpSkipUnknown: "skip-unknown",
	OpPrimitive:   "primitive",
	OpString:      "string",
	OpNestedCall:  "nested-call",
	OpNullCheck:   "null-check",
	OpArrayOpen:   "array-open",
	OpArrayClose:  "array-close",
}

func (c OpCode) String() string {
	if int(c) >= 0 && int(c) < len(opNames) {
		return opNames[c]
	}
	return fmt.Sprintf("op(%d)", int(c))
}

func (c OpCode) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// Op is one abstract codec step. Member names the struct member the op works
// on; Type is the member's descriptor, or the element descriptor for ops
// inside an array bracket. Count is the entry count of OpMapOpen and the
// element count of OpArrayOpen.
type Op struct {
	Code   OpCode              `json:"op" yaml:"op" toml:"op"`
	Member string              `json:"member,omitempty" yaml:"member,omitempty" toml:"member,omitempty"`
	Type   meta.TypeDescriptor `json:"type" yaml:"type" toml:"type"`
	Count  int                 `json:"count,omitempty" yaml:"count,omitempty" toml:"count,omitempty"`
}

func (o Op) String() string {
	switch o.Code {
	case OpMapOpen, OpArrayOpen:
		return fmt.Sprintf("%s %d", o.Code, o.Count)
	case OpKey, OpMatchKey, OpNullCheck:
		return fmt.Sprintf("%s %q", o.Code, o.Member)
	case OpPrimitive, OpString, OpNestedCall:
		return fmt.Sprintf("%s %q %s", o.Code, o.Member, o.Type)
	default:
		return o.Code.String()
	}
}

// Program is the codec of one struct.
type Program struct {
	Struct string `json:"struct" yaml:"struct" toml:"struct"`
	CName  string `json:"cName" yaml:"cName" toml:"cName"`
	Encode []Op   `json:"encode" yaml:"encode" toml:"encode"`
	Decode []Op   `json:"decode" yaml:"decode" toml:"decode"`
}

// Deps returns the structs whose codecs p calls, in first-use order.
func (p *Program) Deps() []string {
	var deps []string
	seen := make(map[string]bool)
	for _, op := range p.Encode {
		if op.Code == OpNestedCall && !seen[op.Type.Struct] {
			seen[op.Type.Struct] = true
			deps = append(deps, op.Type.Struct)
		}
	}
	return deps
}

// Generate builds the encode and decode op lists of sd.
func Generate(sd *meta.StructDescriptor) *Program {
	p := &Program{Struct: sd.Name, CName: sd.CName}

	p.Encode = append(p.Encode,
		Op{Code: OpNullGuard},
		Op{Code: OpMapOpen, Count: len(sd.Members)},
	)
	for _, m := range sd.Members {
		p.Encode = append(p.Encode, Op{Code: OpKey, Member: m.Name, Type: m.Type})
		p.Encode = append(p.Encode, valueOps(m)...)
	}
	p.Encode = append(p.Encode, Op{Code: OpMapClose})

	p.Decode = append(p.Decode,
		Op{Code: OpNullGuard},
		Op{Code: OpMapOpen, Count: len(sd.Members)},
	)
	for _, m := range sd.Members {
		p.Decode = append(p.Decode, Op{Code: OpMatchKey, Member: m.Name, Type: m.Type})
		p.Decode = append(p.Decode, valueOps(m)...)
	}
	p.Decode = append(p.Decode, Op{Code: OpSkipUnknown}, Op{Code: OpMapClose})
	return p
}

// GenerateAll builds a Program per struct of md, in model order.
func GenerateAll(md *meta.Metadata) []*Program {
	progs := make([]*Program, 0, len(md.Structs))
	for i := range md.Structs {
		progs = append(progs, Generate(&md.Structs[i]))
	}
	return progs
}

func valueOps(m meta.MemberDescriptor) []Op {
	t := m.Type
	switch t.Category {
	case meta.CategoryPrimitive:
		return []Op{{Code: OpPrimitive, Member: m.Name, Type: t}}
	case meta.CategoryStringFixed:
		return []Op{{Code: OpString, Member: m.Name, Type: t}}
	case meta.CategoryStringPointer:
		return []Op{
			{Code: OpNullCheck, Member: m.Name, Type: t},
			{Code: OpString, Member: m.Name, Type: t},
		}
	case meta.CategoryStructInline:
		return []Op{{Code: OpNestedCall, Member: m.Name, Type: t}}
	case meta.CategoryStructPointer:
		return []Op{
			{Code: OpNullCheck, Member: m.Name, Type: t},
			{Code: OpNestedCall, Member: m.Name, Type: t},
		}
	case meta.CategoryPrimitiveArray:
		return []Op{
			{Code: OpArrayOpen, Member: m.Name, Type: t, Count: t.Length},
			{Code: OpPrimitive, Member: m.Name, Type: t.Element()},
			{Code: OpArrayClose, Member: m.Name, Type: t},
		}
	case meta.CategoryStructArray:
		return []Op{
			{Code: OpArrayOpen, Member: m.Name, Type: t, Count: t.Length},
			{Code: OpNestedCall, Member: m.Name, Type: t.Element()},
			{Code: OpArrayClose, Member: m.Name, Type: t},
		}
	default:
		// the model never contains unsupported members
		return nil
	}
}

// Cases splits a decode op list into the per-member value ops keyed by
// member name, in declaration order.
func Cases(decode []Op) (names []string, cases map[string][]Op) {
	cases = make(map[string][]Op)
	current := ""
	for _, op := range decode {
		switch op.Code {
		case OpMatchKey:
			current = op.Member
			names = append(names, current)
			cases[current] = nil
		case OpSkipUnknown, OpMapClose:
			current = ""
		default:
			if current != "" {
				cases[current] = append(cases[current], op)
			}
		}
	}
	return names, cases
}
