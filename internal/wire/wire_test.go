package wire

import (
	"encoding/hex"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestEncoderBytes(t *testing.T) {
	e := NewEncoder()
	require.NoError(t, e.Map(2))
	require.NoError(t, e.Text("x"))
	require.NoError(t, e.Int(1))
	require.NoError(t, e.Text("y"))
	require.NoError(t, e.Float32(2.5))
	assert.Equal(t, "a26178016179fa40200000", hex.EncodeToString(e.Bytes()))
}

func TestEncoderScalars(t *testing.T) {
	tests := []struct {
		name string
		fn   func(*Encoder) error
		want string
	}{
		{"null", (*Encoder).Null, "f6"},
		{"small uint", func(e *Encoder) error { return e.Uint(23) }, "17"},
		{"uint8 head", func(e *Encoder) error { return e.Uint(24) }, "1818"},
		{"max uint64", func(e *Encoder) error { return e.Uint(math.MaxUint64) }, "1bffffffffffffffff"},
		{"negative", func(e *Encoder) error { return e.Int(-1) }, "20"},
		{"min int64", func(e *Encoder) error { return e.Int(math.MinInt64) }, "3b7fffffffffffffff"},
		{"float32 keeps width", func(e *Encoder) error { return e.Float32(1) }, "fa3f800000"},
		{"float64 keeps width", func(e *Encoder) error { return e.Float64(1) }, "fb3ff0000000000000"},
		{"true", func(e *Encoder) error { return e.Bool(true) }, "f5"},
		{"text", func(e *Encoder) error { return e.Text("hi") }, "626869"},
		{"array head", func(e *Encoder) error { return e.Array(300) }, "99012c"},
		{"map head", func(e *Encoder) error { return e.Map(0) }, "a0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEncoder()
			require.NoError(t, tt.fn(e))
			assert.Equal(t, tt.want, hex.EncodeToString(e.Bytes()))
		})
	}
}

func TestEncoderTruncate(t *testing.T) {
	e := NewEncoder()
	require.NoError(t, e.Map(1))
	mark := e.Len()
	require.NoError(t, e.Text("abc"))
	e.Truncate(mark)
	assert.Equal(t, []byte{0xa1}, e.Bytes())
	assert.Error(t, e.Map(-1))
}

func TestDecoderRoundTrip(t *testing.T) {
	d := NewDecoder(mustHex(t, "a36178016179fa40200000617a83f5f4f6ff"))

	n, err := d.EnterMap()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	k, err := d.Text()
	require.NoError(t, err)
	assert.Equal(t, "x", k)
	i, err := d.Int()
	require.NoError(t, err)
	assert.Equal(t, int64(1), i)

	k, err = d.Text()
	require.NoError(t, err)
	assert.Equal(t, "y", k)
	f, err := d.Float32()
	require.NoError(t, err)
	assert.Equal(t, float32(2.5), f)

	k, err = d.Text()
	require.NoError(t, err)
	assert.Equal(t, "z", k)
	n, err = d.EnterArray()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	b, err := d.Bool()
	require.NoError(t, err)
	assert.True(t, b)
	b, err = d.Bool()
	require.NoError(t, err)
	assert.False(t, b)
	assert.True(t, d.IsNull())
	require.NoError(t, d.Null())

	assert.Equal(t, []byte{0xff}, d.Rest())
	assert.Equal(t, 17, d.Offset())
}

func TestDecoderSkip(t *testing.T) {
	// {"a": [1, {"b": "c"}]} followed by 0x07
	d := NewDecoder(mustHex(t, "a161618201a16162616307"))
	require.NoError(t, d.Skip())
	assert.Equal(t, []byte{0x07}, d.Rest())

	u, err := d.Uint()
	require.NoError(t, err)
	assert.Equal(t, uint64(7), u)
	assert.True(t, d.Done())
	assert.ErrorIs(t, d.Skip(), ErrTruncated)
}

func TestDecoderErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		fn   func(*Decoder) error
		want error
	}{
		{"float16 as float32", "f93c00", func(d *Decoder) error { _, err := d.Float32(); return err }, ErrTypeMismatch},
		{"float64 as float32", "fb3ff0000000000000", func(d *Decoder) error { _, err := d.Float32(); return err }, ErrTypeMismatch},
		{"float32 as float64", "fa3f800000", func(d *Decoder) error { _, err := d.Float64(); return err }, ErrTypeMismatch},
		{"text as int", "6161", func(d *Decoder) error { _, err := d.Int(); return err }, ErrTypeMismatch},
		{"negative as uint", "20", func(d *Decoder) error { _, err := d.Uint(); return err }, ErrTypeMismatch},
		{"int64 overflow", "1bffffffffffffffff", func(d *Decoder) error { _, err := d.Int(); return err }, ErrTypeMismatch},
		{"array as map", "80", func(d *Decoder) error { _, err := d.EnterMap(); return err }, ErrTypeMismatch},
		{"indefinite map", "bf616101ff", func(d *Decoder) error { _, err := d.EnterMap(); return err }, ErrIndefinite},
		{"indefinite skip", "9f01ff", (*Decoder).Skip, ErrIndefinite},
		{"truncated text", "6568", func(d *Decoder) error { _, err := d.Text(); return err }, ErrTruncated},
		{"truncated head", "19", func(d *Decoder) error { _, err := d.Int(); return err }, ErrTruncated},
		{"array longer than input", "9a00010000", func(d *Decoder) error { _, err := d.EnterArray(); return err }, ErrTruncated},
		{"empty input", "", func(d *Decoder) error { _, err := d.Bool(); return err }, ErrTruncated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDecoder(mustHex(t, tt.data))
			err := tt.fn(d)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, 0, d.Offset(), "failed reads must not advance")
		})
	}
}

func TestFits(t *testing.T) {
	assert.True(t, FitsSigned(127, 8))
	assert.True(t, FitsSigned(-128, 8))
	assert.False(t, FitsSigned(128, 8))
	assert.False(t, FitsSigned(-129, 8))
	assert.True(t, FitsSigned(math.MinInt64, 64))
	assert.True(t, FitsUnsigned(255, 8))
	assert.False(t, FitsUnsigned(256, 8))
	assert.True(t, FitsUnsigned(math.MaxUint32, 32))
	assert.False(t, FitsUnsigned(math.MaxUint32+1, 32))
	assert.True(t, FitsUnsigned(math.MaxUint64, 64))
}
