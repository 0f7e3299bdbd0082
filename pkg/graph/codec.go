package graph

import (
	"bytes"
	"io"

	"github.com/mvoltz/tether/pkg/archive"
	"github.com/mvoltz/tether/pkg/errors"
	"github.com/mvoltz/tether/pkg/seq"
	"github.com/mvoltz/tether/pkg/track"
)

// Format selects the archive implementation a snapshot is written with.
type Format string

const (
	// FormatBinary is the compact little-endian archive.
	FormatBinary Format = "binary"
	// FormatText is the line-oriented debugging archive.
	FormatText Format = "text"
)

// snapshot framing, ahead of the document fields.
const (
	magic   = "TETH"
	version = uint32(1)
)

// ParseFormat converts a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatBinary, FormatText:
		return Format(s), nil
	default:
		return "", errors.New(errors.ErrCodeInvalidFormat, "unknown snapshot format %q (want binary or text)", s)
	}
}

// NewEncoder creates an archive encoder for the format writing to w.
func (f Format) NewEncoder(w io.Writer) (archive.Encoder, error) {
	switch f {
	case FormatBinary:
		return archive.NewBinaryEncoder(w), nil
	case FormatText:
		return archive.NewTextEncoder(w), nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown snapshot format %q", string(f))
	}
}

// NewDecoder creates an archive decoder for the format reading from r.
func (f Format) NewDecoder(r io.Reader) (archive.Decoder, error) {
	switch f {
	case FormatBinary:
		return archive.NewBinaryDecoder(r), nil
	case FormatText:
		return archive.NewTextDecoder(r), nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown snapshot format %q", string(f))
	}
}

func saveAsset(enc archive.Encoder, a *Asset) error {
	if err := enc.String("name", a.Name); err != nil {
		return err
	}
	if err := archive.SaveEnum(enc, "kind", a.Kind); err != nil {
		return err
	}
	return enc.Bytes("data", a.Data)
}

func loadAsset(dec archive.Decoder, a *Asset) error {
	var err error
	if a.Name, err = dec.String("name"); err != nil {
		return err
	}
	if a.Kind, err = archive.LoadEnum[AssetKind](dec, "kind"); err != nil {
		return err
	}
	a.Data, err = dec.Bytes("data")
	return err
}

// Encode writes doc as a framed snapshot: magic, format version, title,
// the shared assets (owners, written first), then the nodes whose asset
// pointers serialize as aliases. The owner-before-alias order is what
// makes the session's identity registry line up on load.
func Encode(enc archive.Encoder, doc *Doc) error {
	s := track.NewSession()

	if err := enc.String("magic", magic); err != nil {
		return err
	}
	if err := enc.Uint32("version", version); err != nil {
		return err
	}
	if err := enc.String("title", doc.Title); err != nil {
		return err
	}

	err := seq.Save(enc, doc.Assets, func(e archive.Encoder, sh **track.Shared[Asset]) error {
		return track.SaveShared(e, s, *sh, saveAsset)
	})
	if err != nil {
		return err
	}

	return seq.Save(enc, doc.Nodes, func(e archive.Encoder, n *Node) error {
		if err := e.String("label", n.Label); err != nil {
			return err
		}
		return track.SavePointer(e, s, n.Asset)
	})
}

// Decode reads a snapshot written by Encode. A wrong magic or an
// unsupported version fails with FORMAT_VIOLATION before any graph state
// is built.
func Decode(dec archive.Decoder) (*Doc, error) {
	s := track.NewSession()

	m, err := dec.String("magic")
	if err != nil {
		return nil, err
	}
	if m != magic {
		return nil, errors.New(errors.ErrCodeFormat, "bad snapshot magic %q", m)
	}
	v, err := dec.Uint32("version")
	if err != nil {
		return nil, err
	}
	if v != version {
		return nil, errors.New(errors.ErrCodeFormat, "unsupported snapshot version %d", v)
	}

	doc := &Doc{}
	if doc.Title, err = dec.String("title"); err != nil {
		return nil, err
	}

	assetMaker := seq.DefaultMaker(func(d archive.Decoder, sh **track.Shared[Asset]) error {
		loaded, err := track.LoadShared(d, s, loadAsset)
		*sh = loaded
		return err
	})
	if err := seq.LoadSlice(dec, &doc.Assets, assetMaker); err != nil {
		return nil, err
	}

	nodeMaker := seq.DefaultMaker(func(d archive.Decoder, n *Node) error {
		var err error
		if n.Label, err = d.String("label"); err != nil {
			return err
		}
		n.Asset, err = track.LoadPointer[Asset](d, s)
		return err
	})
	if err := seq.LoadSlice(dec, &doc.Nodes, nodeMaker); err != nil {
		return nil, err
	}

	return doc, nil
}

// Marshal encodes doc to bytes in the given format.
func Marshal(doc *Doc, f Format) ([]byte, error) {
	var buf bytes.Buffer
	enc, err := f.NewEncoder(&buf)
	if err != nil {
		return nil, err
	}
	if err := Encode(enc, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a snapshot produced by Marshal in the same format.
func Unmarshal(data []byte, f Format) (*Doc, error) {
	dec, err := f.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return Decode(dec)
}

// SniffFormat guesses the format of snapshot bytes from their framing:
// a text snapshot starts with the quoted magic field line.
func SniffFormat(data []byte) Format {
	if bytes.HasPrefix(data, []byte(`magic = "`)) {
		return FormatText
	}
	return FormatBinary
}
