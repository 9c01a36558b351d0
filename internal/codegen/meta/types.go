package meta

import (
	"fmt"
	"strings"
)

// Category selects the encode/decode rule of a member.
type Category int

const (
	CategoryUnsupported Category = iota
	CategoryPrimitive
	CategoryStringFixed
	CategoryStringPointer
	CategoryStructInline
	CategoryStructPointer
	CategoryPrimitiveArray
	CategoryStructArray
)

var categoryNames = [...]string{
	CategoryUnsupported:    "unsupported",
	CategoryPrimitive:      "primitive",
	CategoryStringFixed:    "string-fixed",
	CategoryStringPointer:  "string-pointer",
	CategoryStructInline:   "struct-inline",
	CategoryStructPointer:  "struct-pointer",
	CategoryPrimitiveArray: "primitive-array",
	CategoryStructArray:    "struct-array",
}

func (c Category) String() string {
	if int(c) >= 0 && int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return fmt.Sprintf("category(%d)", int(c))
}

func (c Category) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Category) UnmarshalText(b []byte) error {
	for i, n := range categoryNames {
		if n == string(b) {
			*c = Category(i)
			return nil
		}
	}
	return fmt.Errorf("unknown category %q", string(b))
}

// Kind is the wire kind of a primitive.
type Kind int

const (
	KindNone Kind = iota
	KindSignedInt
	KindUnsignedInt
	KindFloat32
	KindFloat64
	KindBool
)

var kindNames = [...]string{
	KindNone:        "",
	KindSignedInt:   "signed-int",
	KindUnsignedInt: "unsigned-int",
	KindFloat32:     "float32",
	KindFloat64:     "float64",
	KindBool:        "bool",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	for i, n := range kindNames {
		if n == string(b) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown kind %q", string(b))
}

// IsInteger reports whether k is one of the integer kinds.
func (k Kind) IsInteger() bool {
	return k == KindSignedInt || k == KindUnsignedInt
}

// TypeDescriptor is the canonical, fully resolved type of a member.
//
// Field use by category:
//
//	Primitive       Kind, CType, Bits
//	StringFixed     Length (buffer capacity)
//	StringPointer   -
//	StructInline    Struct
//	StructPointer   Struct
//	PrimitiveArray  Kind, CType, Bits, Length
//	StructArray     Struct, Length
//	Unsupported     Reason
//
// CType is the C spelling used to cast a decoded value back to the member's
// declared type, e.g. "uint8_t" or "unsigned int".
type TypeDescriptor struct {
	Category Category `json:"category" yaml:"category" toml:"category"`
	Kind     Kind     `json:"kind,omitempty" yaml:"kind,omitempty" toml:"kind,omitempty"`
	CType    string   `json:"cType,omitempty" yaml:"cType,omitempty" toml:"cType,omitempty"`
	Bits     int      `json:"bits,omitempty" yaml:"bits,omitempty" toml:"bits,omitempty"`
	Struct   string   `json:"struct,omitempty" yaml:"struct,omitempty" toml:"struct,omitempty"`
	Length   int      `json:"length,omitempty" yaml:"length,omitempty" toml:"length,omitempty"`
	Reason   string   `json:"reason,omitempty" yaml:"reason,omitempty" toml:"reason,omitempty"`
}

func Primitive(kind Kind, ctype string, bits int) TypeDescriptor {
	return TypeDescriptor{Category: CategoryPrimitive, Kind: kind, CType: ctype, Bits: bits}
}

func StringFixed(capacity int) TypeDescriptor {
	return TypeDescriptor{Category: CategoryStringFixed, Length: capacity}
}

func StringPointer() TypeDescriptor {
	return TypeDescriptor{Category: CategoryStringPointer}
}

func StructInline(name string) TypeDescriptor {
	return TypeDescriptor{Category: CategoryStructInline, Struct: name}
}

func StructPointer(name string) TypeDescriptor {
	return TypeDescriptor{Category: CategoryStructPointer, Struct: name}
}

func PrimitiveArray(kind Kind, ctype string, bits, length int) TypeDescriptor {
	return TypeDescriptor{Category: CategoryPrimitiveArray, Kind: kind, CType: ctype, Bits: bits, Length: length}
}

func StructArray(name string, length int) TypeDescriptor {
	return TypeDescriptor{Category: CategoryStructArray, Struct: name, Length: length}
}

func Unsupported(reason string) TypeDescriptor {
	return TypeDescriptor{Category: CategoryUnsupported, Reason: reason}
}

// IsUnsupported reports whether the member must be skipped.
func (t TypeDescriptor) IsUnsupported() bool {
	return t.Category == CategoryUnsupported
}

// Element returns the descriptor of one element of an array type. For
// non-array types it returns t unchanged.
func (t TypeDescriptor) Element() TypeDescriptor {
	switch t.Category {
	case CategoryPrimitiveArray:
		return Primitive(t.Kind, t.CType, t.Bits)
	case CategoryStructArray:
		return StructInline(t.Struct)
	default:
		return t
	}
}

func (t TypeDescriptor) String() string {
	switch t.Category {
	case CategoryPrimitive:
		return fmt.Sprintf("Primitive(%s %s)", t.Kind, t.CType)
	case CategoryStringFixed:
		return fmt.Sprintf("StringFixed(%d)", t.Length)
	case CategoryStringPointer:
		return "StringPointer"
	case CategoryStructInline:
		return fmt.Sprintf("StructInline(%s)", t.Struct)
	case CategoryStructPointer:
		return fmt.Sprintf("StructPointer(%s)", t.Struct)
	case CategoryPrimitiveArray:
		return fmt.Sprintf("PrimitiveArray(%s %s, %d)", t.Kind, t.CType, t.Length)
	case CategoryStructArray:
		return fmt.Sprintf("StructArray(%s, %d)", t.Struct, t.Length)
	case CategoryUnsupported:
		return fmt.Sprintf("Unsupported(%s)", strings.TrimSpace(t.Reason))
	default:
		return t.Category.String()
	}
}
