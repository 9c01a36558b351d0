// Package wire provides the CBOR primitives the reference machine runs on.
//
// Scalars are encoded and decoded through shared fxamacker/cbor modes.
// Container heads are written and read directly so that maps and arrays can
// be streamed entry by entry, as the generated C does with tinycbor. Only
// definite-length items are accepted.
package wire

import (
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

var (
	ErrTypeMismatch = errors.New("wire: type mismatch")
	ErrIndefinite   = errors.New("wire: indefinite length")
	ErrTruncated    = errors.New("wire: truncated input")
)

var (
	encMode = mustEncMode()
	decMode = mustDecMode()
)

func mustEncMode() cbor.EncMode {
	em, err := cbor.EncOptions{
		ShortestFloat: cbor.ShortestFloatNone,
		NaNConvert:    cbor.NaNConvertNone,
		InfConvert:    cbor.InfConvertNone,
		IndefLength:   cbor.IndefLengthForbidden,
	}.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}

func mustDecMode() cbor.DecMode {
	dm, err := cbor.DecOptions{
		IndefLength:     cbor.IndefLengthForbidden,
		MaxNestedLevels: 256,
		UTF8:            cbor.UTF8RejectInvalid,
	}.DecMode()
	if err != nil {
		panic(err)
	}
	return dm
}

// Kind is the type of the next data item.
type Kind int

const (
	KindInvalid Kind = iota
	KindUint
	KindNegInt
	KindBytes
	KindText
	KindArray
	KindMap
	KindTag
	KindBool
	KindNull
	KindUndefined
	KindFloat
	KindSimple
)

var kindNames = [...]string{
	KindInvalid:   "invalid",
	KindUint:      "unsigned integer",
	KindNegInt:    "negative integer",
	KindBytes:     "byte string",
	KindText:      "text string",
	KindArray:     "array",
	KindMap:       "map",
	KindTag:       "tag",
	KindBool:      "bool",
	KindNull:      "null",
	KindUndefined: "undefined",
	KindFloat:     "float",
	KindSimple:    "simple value",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

const (
	majorUint   = 0
	majorNegInt = 1
	majorBytes  = 2
	majorText   = 3
	majorArray  = 4
	majorMap    = 5
	majorTag    = 6
	majorSimple = 7

	aiIndefinite = 31

	headFalse   = 0xf4
	headTrue    = 0xf5
	headNull    = 0xf6
	headUndef   = 0xf7
	headFloat16 = 0xf9
	headFloat32 = 0xfa
	headFloat64 = 0xfb
)

func kindOf(initial byte) Kind {
	switch initial >> 5 {
	case majorUint:
		return KindUint
	case majorNegInt:
		return KindNegInt
	case majorBytes:
		return KindBytes
	case majorText:
		return KindText
	case majorArray:
		return KindArray
	case majorMap:
		return KindMap
	case majorTag:
		return KindTag
	}
	switch initial {
	case headFalse, headTrue:
		return KindBool
	case headNull:
		return KindNull
	case headUndef:
		return KindUndefined
	case headFloat16, headFloat32, headFloat64:
		return KindFloat
	}
	return KindSimple
}

// appendHead appends a definite-length head for major type major.
func appendHead(buf []byte, major byte, n uint64) []byte {
	m := major << 5
	switch {
	case n < 24:
		return append(buf, m|byte(n))
	case n <= 0xff:
		return append(buf, m|24, byte(n))
	case n <= 0xffff:
		return append(buf, m|25, byte(n>>8), byte(n))
	case n <= 0xffffffff:
		return append(buf, m|26, byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
	default:
		return append(buf, m|27,
			byte(n>>56), byte(n>>48), byte(n>>40), byte(n>>32),
			byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
	}
}

// readHead decodes a definite-length head and returns its major type,
// argument and encoded size.
func readHead(data []byte) (major byte, n uint64, size int, err error) {
	if len(data) == 0 {
		return 0, 0, 0, ErrTruncated
	}
	major, ai := data[0]>>5, data[0]&0x1f
	switch {
	case ai < 24:
		return major, uint64(ai), 1, nil
	case ai == aiIndefinite:
		return major, 0, 0, ErrIndefinite
	case ai > 27:
		return major, 0, 0, fmt.Errorf("wire: malformed head 0x%02x", data[0])
	}
	width := 1 << (ai - 24)
	if len(data) < 1+width {
		return 0, 0, 0, ErrTruncated
	}
	for _, b := range data[1 : 1+width] {
		n = n<<8 | uint64(b)
	}
	return major, n, 1 + width, nil
}

// wrapDecodeErr maps cbor decode failures onto the package sentinels.
func wrapDecodeErr(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	var ute *cbor.UnmarshalTypeError
	if errors.As(err, &ute) {
		return fmt.Errorf("%w: %v", ErrTypeMismatch, err)
	}
	var ide *cbor.IndefiniteLengthError
	if errors.As(err, &ide) {
		return fmt.Errorf("%w: %v", ErrIndefinite, err)
	}
	return fmt.Errorf("wire: %w", err)
}
