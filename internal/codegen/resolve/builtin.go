package resolve

import (
	"strings"

	"github.com/Alia5/cborgen/internal/codegen/meta"
)

type base struct {
	kind      meta.Kind
	bits      int
	spelling  string
	plainChar bool
}

// builtin classifies a C base type spelled with keywords. Widths follow LP64.
// A non-empty reason means the type is not encodable.
func builtin(names []string) (base, string) {
	var unsigned, signed, short, long, ints, chars, floats, doubles, bools int
	for _, n := range names {
		switch n {
		case "unsigned":
			unsigned++
		case "signed", "__signed__":
			signed++
		case "short":
			short++
		case "long":
			long++
		case "int":
			ints++
		case "char":
			chars++
		case "float":
			floats++
		case "double":
			doubles++
		case "_Bool", "bool":
			bools++
		case "void":
			return base{}, "void"
		case "_Complex":
			return base{}, "complex type"
		case "__int128":
			return base{}, "128-bit integer"
		default:
			return base{}, "unknown type name " + strings.Join(names, " ")
		}
	}
	spelling := strings.Join(names, " ")

	switch {
	case doubles > 0:
		if long > 0 {
			return base{}, "long double"
		}
		return base{kind: meta.KindFloat64, bits: 64, spelling: spelling}, ""
	case floats > 0:
		return base{kind: meta.KindFloat32, bits: 32, spelling: spelling}, ""
	case bools > 0:
		return base{kind: meta.KindBool, bits: 8, spelling: spelling}, ""
	}

	kind := meta.KindSignedInt
	if unsigned > 0 {
		kind = meta.KindUnsignedInt
	}
	bits := 32
	switch {
	case chars > 0:
		bits = 8
	case short > 0:
		bits = 16
	case long > 0:
		bits = 64
	}
	return base{
		kind:      kind,
		bits:      bits,
		spelling:  spelling,
		plainChar: chars > 0 && unsigned == 0 && signed == 0,
	}, ""
}
