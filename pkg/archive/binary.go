package archive

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"

	"github.com/mvoltz/tether/pkg/errors"
)

// BinaryEncoder writes fields in a compact little-endian binary layout.
// Field names are not written; the reader must consume fields in the
// exact order they were emitted.
//
// Layout per field type:
//   - Bool: one byte, 0 or 1
//   - Uint32/Float32-sized scalars: fixed 4 bytes
//   - Uint64/Int64/Float64: fixed 8 bytes
//   - Len: unsigned varint
//   - String/Bytes: unsigned varint length followed by raw bytes
type BinaryEncoder struct {
	w   io.Writer
	tmp [8]byte
}

// NewBinaryEncoder creates an encoder writing to w.
// The encoder does not buffer; wrap w in a bufio.Writer for small writes.
func NewBinaryEncoder(w io.Writer) *BinaryEncoder {
	return &BinaryEncoder{w: w}
}

func (e *BinaryEncoder) write(name string, b []byte) error {
	if _, err := e.w.Write(b); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write field %q", name)
	}
	return nil
}

// Bool writes v as a single byte.
func (e *BinaryEncoder) Bool(name string, v bool) error {
	e.tmp[0] = 0
	if v {
		e.tmp[0] = 1
	}
	return e.write(name, e.tmp[:1])
}

// Uint32 writes v as 4 little-endian bytes.
func (e *BinaryEncoder) Uint32(name string, v uint32) error {
	binary.LittleEndian.PutUint32(e.tmp[:4], v)
	return e.write(name, e.tmp[:4])
}

// Uint64 writes v as 8 little-endian bytes.
func (e *BinaryEncoder) Uint64(name string, v uint64) error {
	binary.LittleEndian.PutUint64(e.tmp[:8], v)
	return e.write(name, e.tmp[:8])
}

// Int64 writes v as 8 little-endian bytes (two's complement).
func (e *BinaryEncoder) Int64(name string, v int64) error {
	return e.Uint64(name, uint64(v))
}

// Float64 writes the IEEE 754 bit pattern of v as 8 little-endian bytes.
func (e *BinaryEncoder) Float64(name string, v float64) error {
	return e.Uint64(name, math.Float64bits(v))
}

// String writes a varint length followed by the raw bytes of v.
func (e *BinaryEncoder) String(name string, v string) error {
	return e.Bytes(name, []byte(v))
}

// Bytes writes a varint length followed by v.
func (e *BinaryEncoder) Bytes(name string, v []byte) error {
	if err := e.Len(name, len(v)); err != nil {
		return err
	}
	if len(v) == 0 {
		return nil
	}
	return e.write(name, v)
}

// Len writes n as an unsigned varint.
func (e *BinaryEncoder) Len(name string, n int) error {
	if n < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "negative length %d for field %q", n, name)
	}
	var buf [binary.MaxVarintLen64]byte
	sz := binary.PutUvarint(buf[:], uint64(n))
	return e.write(name, buf[:sz])
}

// BinaryDecoder reads fields written by BinaryEncoder.
// Truncated input surfaces as a FORMAT_VIOLATION error naming the field
// that could not be read.
type BinaryDecoder struct {
	r   *bufio.Reader
	tmp [8]byte
}

// NewBinaryDecoder creates a decoder reading from r.
// r is wrapped in a bufio.Reader; do not read from r directly afterwards.
func NewBinaryDecoder(r io.Reader) *BinaryDecoder {
	return &BinaryDecoder{r: bufio.NewReader(r)}
}

func (d *BinaryDecoder) read(name string, n int) ([]byte, error) {
	b := d.tmp[:n]
	if _, err := io.ReadFull(d.r, b); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFormat, err, "truncated input reading field %q", name)
	}
	return b, nil
}

// Bool reads a single byte written by Encoder.Bool.
// Any value other than 0 or 1 is a format violation.
func (d *BinaryDecoder) Bool(name string) (bool, error) {
	b, err := d.read(name, 1)
	if err != nil {
		return false, err
	}
	switch b[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, errors.New(errors.ErrCodeFormat, "invalid bool byte 0x%02x in field %q", b[0], name)
	}
}

// Uint32 reads 4 little-endian bytes.
func (d *BinaryDecoder) Uint32(name string) (uint32, error) {
	b, err := d.read(name, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Uint64 reads 8 little-endian bytes.
func (d *BinaryDecoder) Uint64(name string) (uint64, error) {
	b, err := d.read(name, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// Int64 reads 8 little-endian bytes as a two's complement integer.
func (d *BinaryDecoder) Int64(name string) (int64, error) {
	v, err := d.Uint64(name)
	return int64(v), err
}

// Float64 reads an IEEE 754 bit pattern written by Encoder.Float64.
func (d *BinaryDecoder) Float64(name string) (float64, error) {
	v, err := d.Uint64(name)
	return math.Float64frombits(v), err
}

// String reads a length-prefixed string.
func (d *BinaryDecoder) String(name string) (string, error) {
	b, err := d.Bytes(name)
	return string(b), err
}

// Bytes reads a length-prefixed byte field.
// Returns nil for a zero-length field.
func (d *BinaryDecoder) Bytes(name string) ([]byte, error) {
	n, err := d.Len(name)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(d.r, b); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFormat, err, "truncated input reading field %q", name)
	}
	return b, nil
}

// Len reads an unsigned varint count.
// Counts above MaxFieldLen are rejected before any allocation.
func (d *BinaryDecoder) Len(name string) (int, error) {
	v, err := binary.ReadUvarint(d.r)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeFormat, err, "truncated input reading length of %q", name)
	}
	if v > MaxFieldLen {
		return 0, errors.New(errors.ErrCodeFormat, "length %d of field %q exceeds limit", v, name)
	}
	return int(v), nil
}

// Compile-time interface checks.
var (
	_ Encoder = (*BinaryEncoder)(nil)
	_ Decoder = (*BinaryDecoder)(nil)
)
