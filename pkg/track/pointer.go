package track

import (
	"github.com/mvoltz/tether/pkg/archive"
	"github.com/mvoltz/tether/pkg/errors"
)

// SavePointer writes a non-owning alias to a value owned elsewhere by a
// Shared box. Only the owner's identity is written, never the value.
//
// The aliased value must already have been saved through SaveShared in
// this session. If registration reports a first occurrence the traversal
// serialized the alias before its owner - an ordering bug in the caller,
// not a recoverable condition, because an alias has no payload to supply.
// The identity field is still written (matching the wire layout) and the
// save fails with POLICY_VIOLATION.
//
// A nil pointer is written as identity 0.
func SavePointer[T any](enc archive.Encoder, s *Session, p *T) error {
	if p == nil {
		return enc.Uint32("id", 0)
	}
	id, first := s.Register(p)
	wire := id
	if first {
		wire |= Defining
	}
	if err := enc.Uint32("id", uint32(wire)); err != nil {
		return err
	}
	if first {
		return errors.New(errors.ErrCodePolicy,
			"non-owning pointer aliases a value no shared owner has written; save the owning Shared value first")
	}
	return nil
}

// LoadPointer reads an alias written by SavePointer and binds it to the
// value of the owner decoded earlier in this session.
//
// A set Defining flag on an alias field is a hard decode error: an alias
// cannot claim to be the defining occurrence. This is FORMAT_VIOLATION,
// distinct from LOOKUP_FAILED which reports an identity that resolves to
// no recorded owner.
func LoadPointer[T any](dec archive.Decoder, s *Session) (*T, error) {
	raw, err := dec.Uint32("id")
	if err != nil {
		return nil, err
	}
	id := ID(raw)
	if id == 0 {
		return nil, nil
	}
	if id.IsDefining() {
		return nil, errors.New(errors.ErrCodeFormat,
			"non-owning pointer field carries a defining marker for identity %d", id.Key())
	}

	v, err := s.Resolve(id)
	if err != nil {
		return nil, err
	}
	p, ok := v.(*T)
	if !ok {
		return nil, errors.New(errors.ErrCodeFormat,
			"identity %d resolves to %T, not the requested pointer type", id.Key(), v)
	}
	return p, nil
}
