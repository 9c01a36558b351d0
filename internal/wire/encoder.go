package wire

import "fmt"

// Encoder appends CBOR data items to an in-memory buffer.
type Encoder struct {
	buf []byte
}

func NewEncoder() *Encoder {
	return &Encoder{}
}

// Bytes returns the encoded data. The slice aliases the encoder buffer.
func (e *Encoder) Bytes() []byte { return e.buf }

// Len returns the number of bytes written so far.
func (e *Encoder) Len() int { return len(e.buf) }

// Truncate discards everything written after the first n bytes.
func (e *Encoder) Truncate(n int) { e.buf = e.buf[:n] }

func (e *Encoder) Null() error {
	e.buf = append(e.buf, headNull)
	return nil
}

// Map writes the head of a definite-length map with n entries.
func (e *Encoder) Map(n int) error {
	if n < 0 {
		return fmt.Errorf("wire: negative map size %d", n)
	}
	e.buf = appendHead(e.buf, majorMap, uint64(n))
	return nil
}

// Array writes the head of a definite-length array with n elements.
func (e *Encoder) Array(n int) error {
	if n < 0 {
		return fmt.Errorf("wire: negative array size %d", n)
	}
	e.buf = appendHead(e.buf, majorArray, uint64(n))
	return nil
}

func (e *Encoder) Int(v int64) error { return e.marshal(v) }
func (e *Encoder) Uint(v uint64) error { return e.marshal(v) }
func (e *Encoder) Float32(v float32) error { return e.marshal(v) }
func (e *Encoder) Float64(v float64) error { return e.marshal(v) }
func (e *Encoder) Bool(v bool) error { return e.marshal(v) }
func (e *Encoder) Text(v string) error { return e.marshal(v) }

func (e *Encoder) marshal(v any) error {
	b, err := encMode.Marshal(v)
	if err != nil {
		return fmt.Errorf("wire: encode %T: %w", v, err)
	}
	e.buf = append(e.buf, b...)
	return nil
}
