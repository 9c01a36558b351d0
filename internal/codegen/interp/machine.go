// Package interp executes codec programs over a real CBOR wire. It follows
// the semantics of the generated C: decode never allocates pointer targets,
// array and string capacities are enforced and unknown keys are skipped.
package interp

import (
	"errors"
	"fmt"

	"github.com/Alia5/cborgen/internal/codegen/codec"
	"github.com/Alia5/cborgen/internal/codegen/meta"
	"github.com/Alia5/cborgen/internal/wire"
)

var (
	ErrUnknownStruct    = errors.New("unknown struct")
	ErrNilDestination   = errors.New("nil destination pointer")
	ErrArrayOverflow    = errors.New("array exceeds destination length")
	ErrStringCapacity   = errors.New("string exceeds buffer capacity")
	ErrIntegerRange     = errors.New("integer out of range")
	ErrValueType        = errors.New("value does not match member type")
	ErrNestingTooDeep   = errors.New("nesting too deep")
	ErrMalformedProgram = errors.New("malformed program")
)

// MaxDepth bounds struct nesting during encode and decode.
const MaxDepth = 128

type program struct {
	*codec.Program
	cases map[string][]codec.Op
}

// Machine runs a set of programs that may call each other by struct name.
type Machine struct {
	progs map[string]*program
}

// New indexes progs and checks that every nested call has a target.
func New(progs []*codec.Program) (*Machine, error) {
	m := &Machine{progs: make(map[string]*program, len(progs))}
	for _, p := range progs {
		_, cases := codec.Cases(p.Decode)
		m.progs[p.Struct] = &program{Program: p, cases: cases}
	}
	for _, p := range progs {
		for _, dep := range p.Deps() {
			if _, ok := m.progs[dep]; !ok {
				return nil, fmt.Errorf("%s calls %s: %w", p.Struct, dep, ErrUnknownStruct)
			}
		}
	}
	return m, nil
}

func (m *Machine) lookup(name string) (*program, error) {
	p, ok := m.progs[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrUnknownStruct)
	}
	return p, nil
}

// Encode serializes r as struct name. A nil r encodes a single wire null.
func (m *Machine) Encode(name string, r *Record) ([]byte, error) {
	enc := wire.NewEncoder()
	if err := m.EncodeTo(enc, name, r); err != nil {
		return nil, err
	}
	return enc.Bytes(), nil
}

// EncodeTo appends the encoding of r to enc. On failure the encoder is left
// as it was before the call.
func (m *Machine) EncodeTo(enc *wire.Encoder, name string, r *Record) error {
	mark := enc.Len()
	if err := m.encodeStruct(enc, name, r, 0); err != nil {
		enc.Truncate(mark)
		return err
	}
	return nil
}

func (m *Machine) encodeStruct(enc *wire.Encoder, name string, r *Record, depth int) error {
	if depth > MaxDepth {
		return ErrNestingTooDeep
	}
	p, err := m.lookup(name)
	if err != nil {
		return err
	}
	ops := p.Encode
	for i := 0; i < len(ops); i++ {
		op := ops[i]
		switch op.Code {
		case codec.OpNullGuard:
			if r == nil {
				return enc.Null()
			}
		case codec.OpMapOpen:
			if err := enc.Map(op.Count); err != nil {
				return err
			}
		case codec.OpMapClose:
			return nil
		case codec.OpKey:
			if err := enc.Text(op.Member); err != nil {
				return err
			}
			j := i + 1
			for j < len(ops) && ops[j].Code != codec.OpKey && ops[j].Code != codec.OpMapClose {
				j++
			}
			v, _ := r.Get(op.Member)
			if err := m.encodeValue(enc, ops[i+1:j], v, depth); err != nil {
				return fmt.Errorf("%s.%s: %w", name, op.Member, err)
			}
			i = j - 1
		default:
			return fmt.Errorf("%s: unexpected %s: %w", name, op.Code, ErrMalformedProgram)
		}
	}
	return nil
}

// encodeValue runs the value ops of one member against v.
func (m *Machine) encodeValue(enc *wire.Encoder, ops []codec.Op, v any, depth int) error {
	for i := 0; i < len(ops); i++ {
		op := ops[i]
		switch op.Code {
		case codec.OpNullCheck:
			if isNil(v) {
				if err := enc.Null(); err != nil {
					return err
				}
				i++
			}
		case codec.OpPrimitive:
			if err := encodePrimitive(enc, op.Type, v); err != nil {
				return err
			}
		case codec.OpString:
			s, err := stringValue(op.Type, v)
			if err != nil {
				return err
			}
			if err := enc.Text(s); err != nil {
				return err
			}
		case codec.OpNestedCall:
			r, err := recordValue(v)
			if err != nil {
				return err
			}
			if r == nil {
				r = NewRecord()
			}
			if err := m.encodeStruct(enc, op.Type.Struct, r, depth+1); err != nil {
				return err
			}
		case codec.OpArrayOpen:
			j, err := arrayClose(ops, i)
			if err != nil {
				return err
			}
			elems, err := arrayValue(v, op.Count)
			if err != nil {
				return err
			}
			if err := enc.Array(op.Count); err != nil {
				return err
			}
			for k, e := range elems {
				if err := m.encodeValue(enc, ops[i+1:j], e, depth); err != nil {
					return fmt.Errorf("[%d]: %w", k, err)
				}
			}
			i = j
		default:
			return fmt.Errorf("unexpected %s: %w", op.Code, ErrMalformedProgram)
		}
	}
	return nil
}

// Decode reads one value of struct name from data into r and returns the
// bytes that follow it. A wire null leaves r untouched.
func (m *Machine) Decode(name string, data []byte, r *Record) ([]byte, error) {
	dec := wire.NewDecoder(data)
	if err := m.DecodeFrom(dec, name, r); err != nil {
		return nil, err
	}
	return dec.Rest(), nil
}

// DecodeFrom reads one value of struct name from dec into r.
func (m *Machine) DecodeFrom(dec *wire.Decoder, name string, r *Record) error {
	return m.decodeStruct(dec, name, r, 0)
}

func (m *Machine) decodeStruct(dec *wire.Decoder, name string, r *Record, depth int) error {
	if depth > MaxDepth {
		return ErrNestingTooDeep
	}
	p, err := m.lookup(name)
	if err != nil {
		return err
	}
	if dec.IsNull() {
		return dec.Null()
	}
	if r == nil {
		return fmt.Errorf("%s: %w", name, ErrNilDestination)
	}
	if r.Fields == nil {
		r.Fields = make(map[string]any)
	}
	n, err := dec.EnterMap()
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	for k := 0; k < n; k++ {
		key, err := dec.Text()
		if err != nil {
			return fmt.Errorf("%s: key: %w", name, err)
		}
		ops, ok := p.cases[key]
		if !ok {
			if err := dec.Skip(); err != nil {
				return fmt.Errorf("%s: skip %q: %w", name, key, err)
			}
			continue
		}
		cur, _ := r.Get(key)
		v, err := m.decodeValue(dec, ops, cur, depth)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", name, key, err)
		}
		r.Fields[key] = v
	}
	return nil
}

// decodeValue runs the value ops of one member and returns the new value.
// cur is the current destination value.
func (m *Machine) decodeValue(dec *wire.Decoder, ops []codec.Op, cur any, depth int) (any, error) {
	for i := 0; i < len(ops); i++ {
		op := ops[i]
		switch op.Code {
		case codec.OpNullCheck:
			if dec.IsNull() {
				return cur, dec.Null()
			}
		case codec.OpPrimitive:
			return decodePrimitive(dec, op.Type)
		case codec.OpString:
			return decodeString(dec, op.Type, cur)
		case codec.OpNestedCall:
			r, err := recordValue(cur)
			if err != nil {
				return nil, err
			}
			if r == nil {
				if op.Type.Category == meta.CategoryStructPointer {
					return nil, ErrNilDestination
				}
				r = NewRecord()
			}
			if err := m.decodeStruct(dec, op.Type.Struct, r, depth+1); err != nil {
				return nil, err
			}
			return r, nil
		case codec.OpArrayOpen:
			j, err := arrayClose(ops, i)
			if err != nil {
				return nil, err
			}
			n, err := dec.EnterArray()
			if err != nil {
				return nil, err
			}
			if n > op.Count {
				return nil, fmt.Errorf("%w: %d > %d", ErrArrayOverflow, n, op.Count)
			}
			elems, err := arrayValue(cur, op.Count)
			if err != nil {
				return nil, err
			}
			out := append([]any(nil), elems...)
			for k := 0; k < n; k++ {
				e, err := m.decodeValue(dec, ops[i+1:j], out[k], depth)
				if err != nil {
					return nil, fmt.Errorf("[%d]: %w", k, err)
				}
				out[k] = e
			}
			return out, nil
		default:
			return nil, fmt.Errorf("unexpected %s: %w", op.Code, ErrMalformedProgram)
		}
	}
	return cur, nil
}

func arrayClose(ops []codec.Op, open int) (int, error) {
	depth := 0
	for j := open; j < len(ops); j++ {
		switch ops[j].Code {
		case codec.OpArrayOpen:
			depth++
		case codec.OpArrayClose:
			depth--
			if depth == 0 {
				return j, nil
			}
		}
	}
	return 0, fmt.Errorf("unterminated array: %w", ErrMalformedProgram)
}

func isNil(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case *string:
		return t == nil
	case *Record:
		return t == nil
	}
	return false
}

func recordValue(v any) (*Record, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case *Record:
		return t, nil
	}
	return nil, fmt.Errorf("%w: want *Record, have %T", ErrValueType, v)
}

// arrayValue returns v as exactly n elements, padding with nil.
func arrayValue(v any, n int) ([]any, error) {
	var elems []any
	switch t := v.(type) {
	case nil:
	case []any:
		elems = t
	default:
		return nil, fmt.Errorf("%w: want []any, have %T", ErrValueType, v)
	}
	if len(elems) > n {
		return nil, fmt.Errorf("%w: %d > %d", ErrArrayOverflow, len(elems), n)
	}
	out := make([]any, n)
	copy(out, elems)
	return out, nil
}

func stringValue(t meta.TypeDescriptor, v any) (string, error) {
	var s string
	switch x := v.(type) {
	case nil:
	case string:
		s = x
	case *string:
		if x != nil {
			s = *x
		}
	default:
		return "", fmt.Errorf("%w: want string, have %T", ErrValueType, v)
	}
	if t.Category == meta.CategoryStringFixed && len(s)+1 > t.Length {
		return "", fmt.Errorf("%w: %d bytes in char[%d]", ErrStringCapacity, len(s), t.Length)
	}
	return s, nil
}

func decodeString(dec *wire.Decoder, t meta.TypeDescriptor, cur any) (any, error) {
	if t.Category == meta.CategoryStringPointer {
		p, ok := cur.(*string)
		if cur != nil && !ok {
			return nil, fmt.Errorf("%w: want *string, have %T", ErrValueType, cur)
		}
		if p == nil {
			return nil, ErrNilDestination
		}
		s, err := dec.Text()
		if err != nil {
			return nil, err
		}
		*p = s
		return p, nil
	}
	s, err := dec.Text()
	if err != nil {
		return nil, err
	}
	if len(s)+1 > t.Length {
		return nil, fmt.Errorf("%w: %d bytes in char[%d]", ErrStringCapacity, len(s), t.Length)
	}
	return s, nil
}

func encodePrimitive(enc *wire.Encoder, t meta.TypeDescriptor, v any) error {
	switch t.Kind {
	case meta.KindSignedInt:
		n, err := toInt64(v)
		if err != nil {
			return err
		}
		if !wire.FitsSigned(n, t.Bits) {
			return fmt.Errorf("%w: %d in %d-bit %s", ErrIntegerRange, n, t.Bits, t.CType)
		}
		return enc.Int(n)
	case meta.KindUnsignedInt:
		n, err := toUint64(v)
		if err != nil {
			return err
		}
		if !wire.FitsUnsigned(n, t.Bits) {
			return fmt.Errorf("%w: %d in %d-bit %s", ErrIntegerRange, n, t.Bits, t.CType)
		}
		return enc.Uint(n)
	case meta.KindFloat32:
		switch f := v.(type) {
		case nil:
			return enc.Float32(0)
		case float32:
			return enc.Float32(f)
		}
	case meta.KindFloat64:
		switch f := v.(type) {
		case nil:
			return enc.Float64(0)
		case float64:
			return enc.Float64(f)
		}
	case meta.KindBool:
		switch b := v.(type) {
		case nil:
			return enc.Bool(false)
		case bool:
			return enc.Bool(b)
		}
	}
	return fmt.Errorf("%w: %s member holds %T", ErrValueType, t.Kind, v)
}

func decodePrimitive(dec *wire.Decoder, t meta.TypeDescriptor) (any, error) {
	switch t.Kind {
	case meta.KindSignedInt:
		n, err := dec.Int()
		if err != nil {
			return nil, err
		}
		if !wire.FitsSigned(n, t.Bits) {
			return nil, fmt.Errorf("%w: %d in %d-bit %s", ErrIntegerRange, n, t.Bits, t.CType)
		}
		return n, nil
	case meta.KindUnsignedInt:
		n, err := dec.Uint()
		if err != nil {
			return nil, err
		}
		if !wire.FitsUnsigned(n, t.Bits) {
			return nil, fmt.Errorf("%w: %d in %d-bit %s", ErrIntegerRange, n, t.Bits, t.CType)
		}
		return n, nil
	case meta.KindFloat32:
		return dec.Float32()
	case meta.KindFloat64:
		return dec.Float64()
	case meta.KindBool:
		return dec.Bool()
	}
	return nil, fmt.Errorf("%w: kind %s", ErrMalformedProgram, t.Kind)
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	}
	return 0, fmt.Errorf("%w: signed integer member holds %T", ErrValueType, v)
}

func toUint64(v any) (uint64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case uint:
		return uint64(n), nil
	case uint8:
		return uint64(n), nil
	case uint16:
		return uint64(n), nil
	case uint32:
		return uint64(n), nil
	case uint64:
		return n, nil
	case int:
		if n < 0 {
			return 0, fmt.Errorf("%w: %d is negative", ErrIntegerRange, n)
		}
		return uint64(n), nil
	}
	return 0, fmt.Errorf("%w: unsigned integer member holds %T", ErrValueType, v)
}
