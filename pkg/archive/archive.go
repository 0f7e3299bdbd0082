// Package archive defines the field-level encoding surface that the codec
// layers (pkg/track, pkg/seq, pkg/graph) are written against.
//
// An archive is a flat, strictly ordered stream of named scalar fields.
// Producers and consumers must emit and read fields in exactly the same
// order; there is no random access and no schema. Field names exist for
// readability and cross-checking in self-describing formats - the binary
// archive ignores them, the text archive verifies them.
//
// Two implementations are provided:
//   - Binary: compact little-endian encoding with varint lengths
//   - Text: line-oriented "name = value" encoding for debugging and diffs
//
// Both implementations surface truncated or malformed input as
// FORMAT_VIOLATION errors from pkg/errors. Errors returned by the
// underlying reader or writer are wrapped, never swallowed.
package archive

// Encoder writes an ordered stream of named fields.
//
// Implementations are not safe for concurrent use. A failed write leaves
// the stream in an undefined state; callers must discard it.
type Encoder interface {
	Bool(name string, v bool) error
	Uint32(name string, v uint32) error
	Uint64(name string, v uint64) error
	Int64(name string, v int64) error
	Float64(name string, v float64) error
	String(name string, v string) error
	Bytes(name string, v []byte) error

	// Len emits an unsigned element count ahead of a repeated section.
	// There is no terminator after the section; the count alone frames it.
	Len(name string, n int) error
}

// Decoder reads an ordered stream of named fields previously written by
// the matching Encoder implementation.
//
// Implementations are not safe for concurrent use. Once any call returns
// an error the stream position is undefined and the decode session must
// be abandoned.
type Decoder interface {
	Bool(name string) (bool, error)
	Uint32(name string) (uint32, error)
	Uint64(name string) (uint64, error)
	Int64(name string) (int64, error)
	Float64(name string) (float64, error)
	String(name string) (string, error)
	Bytes(name string) ([]byte, error)

	// Len reads an unsigned element count written by Encoder.Len.
	// Counts larger than MaxFieldLen are rejected as a format violation
	// before any allocation happens.
	Len(name string) (int, error)
}

// MaxFieldLen bounds the length prefix accepted for counts, strings, and
// byte fields. A count above this limit cannot come from a well-formed
// stream and is rejected before allocating.
const MaxFieldLen = 1 << 30

// Integer covers every type whose underlying representation is a Go
// integer, which includes all enum-style defined types.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// SaveEnum writes an enum-style value as its underlying integer.
func SaveEnum[E Integer](e Encoder, name string, v E) error {
	return e.Int64(name, int64(v))
}

// LoadEnum reads an enum-style value written by SaveEnum.
// No range validation is performed; unknown values round-trip unchanged
// so newer writers stay readable by older readers.
func LoadEnum[E Integer](d Decoder, name string) (E, error) {
	v, err := d.Int64(name)
	return E(v), err
}
