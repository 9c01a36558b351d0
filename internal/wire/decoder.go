package wire

import (
	"fmt"
	"math"

	"github.com/fxamacker/cbor/v2"
)

// Decoder is a forward-only cursor over CBOR data items.
type Decoder struct {
	data []byte
	off  int
}

func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data}
}

// Rest returns the bytes after the cursor.
func (d *Decoder) Rest() []byte { return d.data[d.off:] }

// Offset returns the number of bytes consumed.
func (d *Decoder) Offset() int { return d.off }

// Done reports whether the input is exhausted.
func (d *Decoder) Done() bool { return d.off >= len(d.data) }

// Kind returns the type of the next data item without consuming it.
func (d *Decoder) Kind() (Kind, error) {
	if d.Done() {
		return KindInvalid, ErrTruncated
	}
	return kindOf(d.data[d.off]), nil
}

// IsNull reports whether the next data item is null.
func (d *Decoder) IsNull() bool {
	return !d.Done() && d.data[d.off] == headNull
}

// Null consumes a null.
func (d *Decoder) Null() error {
	if err := d.expect(KindNull); err != nil {
		return err
	}
	d.off++
	return nil
}

// EnterMap consumes a definite-length map head and returns its entry count.
func (d *Decoder) EnterMap() (int, error) {
	return d.enter(majorMap, KindMap)
}

// EnterArray consumes a definite-length array head and returns its length.
func (d *Decoder) EnterArray() (int, error) {
	return d.enter(majorArray, KindArray)
}

func (d *Decoder) enter(major byte, kind Kind) (int, error) {
	if err := d.expect(kind); err != nil {
		return 0, err
	}
	m, n, size, err := readHead(d.Rest())
	if err != nil {
		return 0, err
	}
	if m != major {
		return 0, fmt.Errorf("%w: want %s", ErrTypeMismatch, kind)
	}
	// each entry needs at least one byte
	if n > uint64(len(d.data)-d.off-size) {
		return 0, fmt.Errorf("%w: %s of %d entries", ErrTruncated, kind, n)
	}
	d.off += size
	return int(n), nil
}

// Int reads a signed or unsigned integer that fits in int64.
func (d *Decoder) Int() (int64, error) {
	k, err := d.Kind()
	if err != nil {
		return 0, err
	}
	if k != KindUint && k != KindNegInt {
		return 0, fmt.Errorf("%w: want integer, have %s", ErrTypeMismatch, k)
	}
	var v int64
	if err := d.unmarshal(&v); err != nil {
		return 0, err
	}
	return v, nil
}

// Uint reads a non-negative integer.
func (d *Decoder) Uint() (uint64, error) {
	if err := d.expect(KindUint); err != nil {
		return 0, err
	}
	var v uint64
	if err := d.unmarshal(&v); err != nil {
		return 0, err
	}
	return v, nil
}

// Float32 reads a single-precision float. Other float widths are a type
// mismatch.
func (d *Decoder) Float32() (float32, error) {
	if err := d.expectHead(headFloat32, "float32"); err != nil {
		return 0, err
	}
	var v float32
	if err := d.unmarshal(&v); err != nil {
		return 0, err
	}
	return v, nil
}

// Float64 reads a double-precision float. Other float widths are a type
// mismatch.
func (d *Decoder) Float64() (float64, error) {
	if err := d.expectHead(headFloat64, "float64"); err != nil {
		return 0, err
	}
	var v float64
	if err := d.unmarshal(&v); err != nil {
		return 0, err
	}
	return v, nil
}

func (d *Decoder) Bool() (bool, error) {
	if err := d.expect(KindBool); err != nil {
		return false, err
	}
	var v bool
	if err := d.unmarshal(&v); err != nil {
		return false, err
	}
	return v, nil
}

// Text reads a definite-length UTF-8 text string.
func (d *Decoder) Text() (string, error) {
	if err := d.expect(KindText); err != nil {
		return "", err
	}
	var v string
	if err := d.unmarshal(&v); err != nil {
		return "", err
	}
	return v, nil
}

// Skip consumes one complete data item, including nested containers.
func (d *Decoder) Skip() error {
	if d.Done() {
		return ErrTruncated
	}
	var raw cbor.RawMessage
	return d.unmarshal(&raw)
}

func (d *Decoder) expect(kind Kind) error {
	k, err := d.Kind()
	if err != nil {
		return err
	}
	if k != kind {
		return fmt.Errorf("%w: want %s, have %s", ErrTypeMismatch, kind, k)
	}
	return nil
}

func (d *Decoder) expectHead(head byte, what string) error {
	k, err := d.Kind()
	if err != nil {
		return err
	}
	if d.data[d.off] != head {
		return fmt.Errorf("%w: want %s, have %s (0x%02x)", ErrTypeMismatch, what, k, d.data[d.off])
	}
	return nil
}

func (d *Decoder) unmarshal(v any) error {
	rest, err := decMode.UnmarshalFirst(d.Rest(), v)
	if err != nil {
		return wrapDecodeErr(err)
	}
	d.off = len(d.data) - len(rest)
	return nil
}

// FitsSigned reports whether v is representable in a two's complement
// integer of the given width.
func FitsSigned(v int64, bits int) bool {
	if bits >= 64 {
		return true
	}
	lim := int64(1) << (bits - 1)
	return v >= -lim && v < lim
}

// FitsUnsigned reports whether v is representable in an unsigned integer of
// the given width.
func FitsUnsigned(v uint64, bits int) bool {
	if bits >= 64 {
		return true
	}
	return v <= uint64(math.MaxUint64)>>(64-bits)
}
