package track

import (
	"github.com/mvoltz/tether/pkg/archive"
	"github.com/mvoltz/tether/pkg/errors"
)

// Shared is an owner box holding the canonical copy of a value that other
// parts of an object graph may alias. Exactly one physical copy of the
// value is ever written per session, no matter how many Shared handles or
// raw aliases point at it.
type Shared[T any] struct {
	Value T
}

// NewShared creates an owner box holding v.
func NewShared[T any](v T) *Shared[T] {
	return &Shared[T]{Value: v}
}

// SaveShared writes an owning occurrence of sh.
//
// A nil owner is written as identity 0. The first occurrence of an owner
// within the session is written as its identity with the Defining flag set,
// followed by the full payload emitted through save. Every later occurrence
// is written as the bare identity and save is not called again.
//
// The value codec receives a pointer to the boxed value so it can encode
// in place without copying.
func SaveShared[T any](enc archive.Encoder, s *Session, sh *Shared[T], save func(archive.Encoder, *T) error) error {
	if sh == nil {
		return enc.Uint32("id", 0)
	}
	id, first := s.Register(&sh.Value)
	wire := id
	if first {
		wire |= Defining
	}
	if err := enc.Uint32("id", uint32(wire)); err != nil {
		return err
	}
	if first {
		return save(enc, &sh.Value)
	}
	return nil
}

// LoadShared reads an occurrence written by SaveShared.
//
// A defining occurrence allocates a fresh owner box, records it in the
// session before decoding the payload (so cycles through the payload
// resolve), then decodes the payload in place through load. A non-defining
// occurrence binds to the box recorded earlier; if that box holds a
// different type the stream and the decode logic disagree and the load
// fails with FORMAT_VIOLATION.
func LoadShared[T any](dec archive.Decoder, s *Session, load func(archive.Decoder, *T) error) (*Shared[T], error) {
	raw, err := dec.Uint32("id")
	if err != nil {
		return nil, err
	}
	id := ID(raw)
	if id == 0 {
		return nil, nil
	}

	if id.IsDefining() {
		sh := new(Shared[T])
		if err := s.Record(id.Key(), &sh.Value, sh); err != nil {
			return nil, err
		}
		if err := load(dec, &sh.Value); err != nil {
			return nil, err
		}
		return sh, nil
	}

	box, err := s.ResolveBox(id)
	if err != nil {
		return nil, err
	}
	sh, ok := box.(*Shared[T])
	if !ok {
		return nil, errors.New(errors.ErrCodeFormat, "identity %d is bound to %T, not the requested owner type", id.Key(), box)
	}
	return sh, nil
}
