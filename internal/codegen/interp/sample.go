package interp

import (
	"fmt"
	"math"

	"github.com/Alia5/cborgen/internal/codegen/codec"
	"github.com/Alia5/cborgen/internal/codegen/meta"
)

// Sample builds a deterministic, in-domain value of struct name. Struct
// pointers that would recurse into a struct already on the path are nil.
func (m *Machine) Sample(name string) (*Record, error) {
	return m.build(name, true, map[string]bool{})
}

// Zero builds a decode destination for struct name: every value is zero and
// every pointer that Sample would populate points at zeroed storage.
func (m *Machine) Zero(name string) (*Record, error) {
	return m.build(name, false, map[string]bool{})
}

func (m *Machine) build(name string, fill bool, path map[string]bool) (*Record, error) {
	p, err := m.lookup(name)
	if err != nil {
		return nil, err
	}
	path[name] = true
	defer delete(path, name)

	r := NewRecord()
	for i, op := range p.Encode {
		if op.Code != codec.OpKey {
			continue
		}
		v, err := m.value(op.Type, i, fill, path)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", name, op.Member, err)
		}
		r.Fields[op.Member] = v
	}
	return r, nil
}

func (m *Machine) value(t meta.TypeDescriptor, seed int, fill bool, path map[string]bool) (any, error) {
	switch t.Category {
	case meta.CategoryPrimitive:
		if !fill {
			return zeroPrimitive(t.Kind), nil
		}
		return samplePrimitive(t, seed), nil
	case meta.CategoryStringFixed:
		if !fill {
			return "", nil
		}
		return sampleString(seed, t.Length-1), nil
	case meta.CategoryStringPointer:
		if !fill {
			return Str(""), nil
		}
		return Str(sampleString(seed, 16)), nil
	case meta.CategoryStructInline:
		return m.build(t.Struct, fill, path)
	case meta.CategoryStructPointer:
		if path[t.Struct] {
			return (*Record)(nil), nil
		}
		return m.build(t.Struct, fill, path)
	case meta.CategoryPrimitiveArray, meta.CategoryStructArray:
		elems := make([]any, t.Length)
		for i := range elems {
			e, err := m.value(t.Element(), seed+i, fill, path)
			if err != nil {
				return nil, err
			}
			elems[i] = e
		}
		return elems, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrValueType, t)
}

func zeroPrimitive(k meta.Kind) any {
	switch k {
	case meta.KindSignedInt:
		return int64(0)
	case meta.KindUnsignedInt:
		return uint64(0)
	case meta.KindFloat32:
		return float32(0)
	case meta.KindFloat64:
		return float64(0)
	default:
		return false
	}
}

// samplePrimitive picks a value near the top of the type's range so that
// width handling is exercised.
func samplePrimitive(t meta.TypeDescriptor, seed int) any {
	switch t.Kind {
	case meta.KindSignedInt:
		lim := int64(math.MaxInt64)
		if t.Bits < 64 {
			lim = int64(1)<<(t.Bits-1) - 1
		}
		v := lim - int64(seed%7)
		if seed%2 == 1 {
			v = -v - 1
		}
		return v
	case meta.KindUnsignedInt:
		lim := uint64(math.MaxUint64)
		if t.Bits < 64 {
			lim = uint64(1)<<t.Bits - 1
		}
		return lim - uint64(seed%5)
	case meta.KindFloat32:
		return float32(seed) + 0.5
	case meta.KindFloat64:
		return float64(seed) + 0.25
	default:
		return seed%2 == 0
	}
}

func sampleString(seed, limit int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz"
	if limit <= 0 {
		return ""
	}
	n := seed%limit + 1
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[(seed+i)%len(alphabet)]
	}
	return string(b)
}
