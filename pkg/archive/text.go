package archive

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mvoltz/tether/pkg/errors"
)

// TextEncoder writes fields as "name = value" lines.
// The format is meant for debugging, golden files, and diffs rather than
// throughput: one field per line, strings quoted, byte fields base64.
type TextEncoder struct {
	w io.Writer
}

// NewTextEncoder creates an encoder writing to w.
func NewTextEncoder(w io.Writer) *TextEncoder {
	return &TextEncoder{w: w}
}

func (e *TextEncoder) field(name, value string) error {
	if _, err := fmt.Fprintf(e.w, "%s = %s\n", name, value); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write field %q", name)
	}
	return nil
}

// Bool writes v as "true" or "false".
func (e *TextEncoder) Bool(name string, v bool) error {
	return e.field(name, strconv.FormatBool(v))
}

// Uint32 writes v in decimal.
func (e *TextEncoder) Uint32(name string, v uint32) error {
	return e.field(name, strconv.FormatUint(uint64(v), 10))
}

// Uint64 writes v in decimal.
func (e *TextEncoder) Uint64(name string, v uint64) error {
	return e.field(name, strconv.FormatUint(v, 10))
}

// Int64 writes v in decimal.
func (e *TextEncoder) Int64(name string, v int64) error {
	return e.field(name, strconv.FormatInt(v, 10))
}

// Float64 writes v in the shortest representation that round-trips.
func (e *TextEncoder) Float64(name string, v float64) error {
	return e.field(name, strconv.FormatFloat(v, 'g', -1, 64))
}

// String writes v quoted with Go escaping.
func (e *TextEncoder) String(name string, v string) error {
	return e.field(name, strconv.Quote(v))
}

// Bytes writes v base64-encoded.
func (e *TextEncoder) Bytes(name string, v []byte) error {
	return e.field(name, base64.StdEncoding.EncodeToString(v))
}

// Len writes n in decimal.
func (e *TextEncoder) Len(name string, n int) error {
	if n < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "negative length %d for field %q", n, name)
	}
	return e.field(name, strconv.Itoa(n))
}

// TextDecoder reads fields written by TextEncoder.
// Unlike the binary format, field names are present in the stream and are
// verified on every read: a mismatch between the expected and encoded
// name is a FORMAT_VIOLATION, catching desynchronized decode logic early.
type TextDecoder struct {
	s *bufio.Scanner
}

// NewTextDecoder creates a decoder reading from r.
func NewTextDecoder(r io.Reader) *TextDecoder {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &TextDecoder{s: s}
}

func (d *TextDecoder) field(name string) (string, error) {
	if !d.s.Scan() {
		if err := d.s.Err(); err != nil {
			return "", errors.Wrap(errors.ErrCodeFormat, err, "read field %q", name)
		}
		return "", errors.New(errors.ErrCodeFormat, "truncated input reading field %q", name)
	}
	line := d.s.Text()
	got, value, ok := strings.Cut(line, " = ")
	if !ok {
		return "", errors.New(errors.ErrCodeFormat, "malformed line %q reading field %q", line, name)
	}
	if got != name {
		return "", errors.New(errors.ErrCodeFormat, "field name mismatch: expected %q, stream has %q", name, got)
	}
	return value, nil
}

// Bool reads a "true"/"false" field.
func (d *TextDecoder) Bool(name string) (bool, error) {
	value, err := d.field(name)
	if err != nil {
		return false, err
	}
	v, err := strconv.ParseBool(value)
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeFormat, err, "parse bool field %q", name)
	}
	return v, nil
}

// Uint32 reads a decimal field.
func (d *TextDecoder) Uint32(name string) (uint32, error) {
	value, err := d.field(name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeFormat, err, "parse uint32 field %q", name)
	}
	return uint32(v), nil
}

// Uint64 reads a decimal field.
func (d *TextDecoder) Uint64(name string) (uint64, error) {
	value, err := d.field(name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeFormat, err, "parse uint64 field %q", name)
	}
	return v, nil
}

// Int64 reads a decimal field.
func (d *TextDecoder) Int64(name string) (int64, error) {
	value, err := d.field(name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeFormat, err, "parse int64 field %q", name)
	}
	return v, nil
}

// Float64 reads a floating-point field.
func (d *TextDecoder) Float64(name string) (float64, error) {
	value, err := d.field(name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeFormat, err, "parse float64 field %q", name)
	}
	return v, nil
}

// String reads a quoted string field.
func (d *TextDecoder) String(name string) (string, error) {
	value, err := d.field(name)
	if err != nil {
		return "", err
	}
	v, err := strconv.Unquote(value)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeFormat, err, "parse string field %q", name)
	}
	return v, nil
}

// Bytes reads a base64 field. Returns nil for an empty field.
func (d *TextDecoder) Bytes(name string) ([]byte, error) {
	value, err := d.field(name)
	if err != nil {
		return nil, err
	}
	if value == "" {
		return nil, nil
	}
	v, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFormat, err, "parse bytes field %q", name)
	}
	return v, nil
}

// Len reads a decimal count field.
// Counts above MaxFieldLen are rejected before any allocation.
func (d *TextDecoder) Len(name string) (int, error) {
	value, err := d.field(name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeFormat, err, "parse length field %q", name)
	}
	if v > MaxFieldLen {
		return 0, errors.New(errors.ErrCodeFormat, "length %d of field %q exceeds limit", v, name)
	}
	return int(v), nil
}

// Compile-time interface checks.
var (
	_ Encoder = (*TextEncoder)(nil)
	_ Decoder = (*TextDecoder)(nil)
)
