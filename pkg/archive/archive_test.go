package archive

import (
	"bytes"
	"testing"

	"github.com/mvoltz/tether/pkg/errors"
)

// writeSample emits one field of every type in a fixed order.
func writeSample(t *testing.T, e Encoder) {
	t.Helper()
	steps := []struct {
		name string
		emit func() error
	}{
		{"flag", func() error { return e.Bool("flag", true) }},
		{"id", func() error { return e.Uint32("id", 0x80000001) }},
		{"big", func() error { return e.Uint64("big", 1<<40 + 7) }},
		{"delta", func() error { return e.Int64("delta", -42) }},
		{"ratio", func() error { return e.Float64("ratio", 2.5) }},
		{"label", func() error { return e.String("label", "hello \"world\"\n") }},
		{"blob", func() error { return e.Bytes("blob", []byte{0, 1, 2, 255}) }},
		{"count", func() error { return e.Len("count", 3) }},
	}
	for _, s := range steps {
		if err := s.emit(); err != nil {
			t.Fatalf("emit %s: %v", s.name, err)
		}
	}
}

// readSample consumes the fields written by writeSample and checks values.
func readSample(t *testing.T, d Decoder) {
	t.Helper()

	if v, err := d.Bool("flag"); err != nil || v != true {
		t.Errorf("Bool() = %v, %v, want true", v, err)
	}
	if v, err := d.Uint32("id"); err != nil || v != 0x80000001 {
		t.Errorf("Uint32() = %#x, %v, want 0x80000001", v, err)
	}
	if v, err := d.Uint64("big"); err != nil || v != 1<<40+7 {
		t.Errorf("Uint64() = %d, %v", v, err)
	}
	if v, err := d.Int64("delta"); err != nil || v != -42 {
		t.Errorf("Int64() = %d, %v, want -42", v, err)
	}
	if v, err := d.Float64("ratio"); err != nil || v != 2.5 {
		t.Errorf("Float64() = %v, %v, want 2.5", v, err)
	}
	if v, err := d.String("label"); err != nil || v != "hello \"world\"\n" {
		t.Errorf("String() = %q, %v", v, err)
	}
	if v, err := d.Bytes("blob"); err != nil || !bytes.Equal(v, []byte{0, 1, 2, 255}) {
		t.Errorf("Bytes() = %v, %v", v, err)
	}
	if v, err := d.Len("count"); err != nil || v != 3 {
		t.Errorf("Len() = %d, %v, want 3", v, err)
	}
}

func TestBinaryRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	writeSample(t, NewBinaryEncoder(&buf))
	readSample(t, NewBinaryDecoder(&buf))
}

func TestTextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	writeSample(t, NewTextEncoder(&buf))
	readSample(t, NewTextDecoder(&buf))
}

func TestBinaryTruncated(t *testing.T) {
	var buf bytes.Buffer
	e := NewBinaryEncoder(&buf)
	if err := e.Uint32("id", 7); err != nil {
		t.Fatal(err)
	}

	// Drop the last byte of the encoded field.
	d := NewBinaryDecoder(bytes.NewReader(buf.Bytes()[:buf.Len()-1]))
	if _, err := d.Uint32("id"); !errors.Is(err, errors.ErrCodeFormat) {
		t.Errorf("Uint32() on truncated input = %v, want FORMAT_VIOLATION", err)
	}
}

func TestBinaryInvalidBool(t *testing.T) {
	d := NewBinaryDecoder(bytes.NewReader([]byte{7}))
	if _, err := d.Bool("flag"); !errors.Is(err, errors.ErrCodeFormat) {
		t.Errorf("Bool() = %v, want FORMAT_VIOLATION", err)
	}
}

func TestBinaryLenLimit(t *testing.T) {
	// A uvarint well past MaxFieldLen.
	var buf bytes.Buffer
	buf.Write([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x01})

	d := NewBinaryDecoder(&buf)
	if _, err := d.Len("n"); !errors.Is(err, errors.ErrCodeFormat) {
		t.Errorf("Len() = %v, want FORMAT_VIOLATION", err)
	}
}

func TestTextNameMismatch(t *testing.T) {
	var buf bytes.Buffer
	e := NewTextEncoder(&buf)
	if err := e.Uint32("id", 7); err != nil {
		t.Fatal(err)
	}

	d := NewTextDecoder(&buf)
	if _, err := d.Uint32("other"); !errors.Is(err, errors.ErrCodeFormat) {
		t.Errorf("Uint32(\"other\") = %v, want FORMAT_VIOLATION", err)
	}
}

func TestTextTruncated(t *testing.T) {
	d := NewTextDecoder(bytes.NewReader(nil))
	if _, err := d.String("label"); !errors.Is(err, errors.ErrCodeFormat) {
		t.Errorf("String() on empty input = %v, want FORMAT_VIOLATION", err)
	}
}

func TestEmptyBytes(t *testing.T) {
	for _, tc := range []struct {
		name string
		enc  func(*bytes.Buffer) Encoder
		dec  func(*bytes.Buffer) Decoder
	}{
		{"binary",
			func(b *bytes.Buffer) Encoder { return NewBinaryEncoder(b) },
			func(b *bytes.Buffer) Decoder { return NewBinaryDecoder(b) }},
		{"text",
			func(b *bytes.Buffer) Encoder { return NewTextEncoder(b) },
			func(b *bytes.Buffer) Decoder { return NewTextDecoder(b) }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := tc.enc(&buf).Bytes("blob", nil); err != nil {
				t.Fatal(err)
			}
			v, err := tc.dec(&buf).Bytes("blob")
			if err != nil || len(v) != 0 {
				t.Errorf("Bytes() = %v, %v, want empty", v, err)
			}
		})
	}
}

type color int32

const (
	colorRed color = iota
	colorGreen
)

func TestEnumRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	e := NewBinaryEncoder(&buf)
	if err := SaveEnum(e, "color", colorGreen); err != nil {
		t.Fatal(err)
	}

	got, err := LoadEnum[color](NewBinaryDecoder(&buf), "color")
	if err != nil {
		t.Fatal(err)
	}
	if got != colorGreen {
		t.Errorf("LoadEnum() = %v, want %v", got, colorGreen)
	}
}
