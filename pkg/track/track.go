// Package track preserves shared-ownership identity across a save/load
// round trip.
//
// When an object graph contains several references to one underlying value,
// serializing each reference independently would duplicate the value and
// silently break aliasing on reload. track assigns every shared owner a
// stable 32-bit identity within a session: the first occurrence is written
// in full, every later occurrence and every non-owning alias is written as
// the bare identity, and loading binds all of them back to a single
// reconstructed value.
//
// # Sessions
//
// A Session is the identity registry for exactly one save or one load
// operation. It is an explicit value threaded through every call - never a
// process-wide singleton - and must not be shared between concurrent
// operations; it contains no locking because it is not meant to be shared.
//
// The session keeps every owner it has recorded alive until the session
// itself is dropped. That is deliberate: an alias decoded late in the
// stream must still be able to bind to an owner decoded early, even if
// nothing else references that owner anymore.
//
// # Ordering contract
//
// The registry is a pure lookup table; it does not impose an order. The
// traversal driving it must write (and read) the owning occurrence of a
// value strictly before any alias to it. Violations surface as
// POLICY_VIOLATION on save and LOOKUP_FAILED or FORMAT_VIOLATION on load,
// all of which abort the session.
package track

import (
	"github.com/mvoltz/tether/pkg/errors"
	"github.com/mvoltz/tether/pkg/observability"
)

// ID is a 32-bit owner identity. The numeric identity occupies the low 31
// bits; the top bit is the defining-occurrence flag, not part of the number.
// Identity 0 is the nil sentinel and is never assigned to a real owner.
type ID uint32

// Defining marks an identity field as the first (defining) occurrence of
// its owner, meaning the full payload follows inline. Alias fields always
// have the flag clear.
const Defining ID = 1 << 31

// maxID is the largest assignable numeric identity.
const maxID = Defining - 1

// IsDefining reports whether the defining-occurrence flag is set.
func (id ID) IsDefining() bool { return id&Defining != 0 }

// Key returns the numeric identity with the defining flag stripped.
func (id ID) Key() ID { return id &^ Defining }

// entry is a load-side owner record: the canonical value pointer aliases
// bind to, and the owner box it lives in.
type entry struct {
	value any
	box   any
}

// Session is the identity registry for a single save or load operation.
//
// The zero value is not usable; create sessions with NewSession. A session
// must not outlive its operation and must never be reused for another one:
// identities are only meaningful within the stream they were written to.
type Session struct {
	next    ID
	byOwner map[any]ID // save side: canonical value pointer -> identity
	entries map[ID]entry
}

// NewSession creates an empty session. Identity allocation starts at 1;
// 0 remains the nil sentinel.
func NewSession() *Session {
	return &Session{
		next:    1,
		byOwner: make(map[any]ID),
		entries: make(map[ID]entry),
	}
}

// Register maps an owner's canonical value pointer to its identity,
// allocating the next free identity on first sight. Registration is
// idempotent: re-registering the same pointer returns the same identity
// with first == false, and the caller must not re-emit the payload.
//
// The pointer must be comparable (any Go pointer is). Register panics if
// the 31-bit identity space is exhausted, which cannot happen before the
// process runs out of memory for the owners themselves.
func (s *Session) Register(owner any) (id ID, first bool) {
	if id, ok := s.byOwner[owner]; ok {
		observability.Codec().OnRegister(uint32(id), false)
		return id, false
	}
	if s.next > maxID {
		panic("track: identity space exhausted")
	}
	id = s.next
	s.next++
	s.byOwner[owner] = id
	observability.Codec().OnRegister(uint32(id), true)
	return id, true
}

// Record registers a load-side owner under the given numeric identity.
// value is the canonical pointer aliases bind to; box is the owner wrapper
// it lives in. Record must be called before the owner's payload is decoded
// so that cyclic references inside the payload can already resolve.
//
// Recording the same identity twice means the stream carries two defining
// entries for one identity and fails with FORMAT_VIOLATION.
func (s *Session) Record(id ID, value, box any) error {
	id = id.Key()
	if id == 0 {
		return errors.New(errors.ErrCodeFormat, "defining entry carries reserved identity 0")
	}
	if _, ok := s.entries[id]; ok {
		return errors.New(errors.ErrCodeFormat, "identity %d defined twice in one stream", id)
	}
	s.entries[id] = entry{value: value, box: box}
	observability.Codec().OnRecord(uint32(id))
	return nil
}

// Resolve returns the canonical value pointer recorded for id.
// Fails with LOOKUP_FAILED if no defining entry for id has been decoded
// yet: the producer wrote an alias before its owner, or the stream is
// corrupt. This is never a transient condition.
func (s *Session) Resolve(id ID) (any, error) {
	e, ok := s.entries[id.Key()]
	if !ok {
		err := errors.New(errors.ErrCodeLookup, "identity %d has no registered owner", id.Key())
		observability.Codec().OnResolve(uint32(id.Key()), err)
		return nil, err
	}
	observability.Codec().OnResolve(uint32(id.Key()), nil)
	return e.value, nil
}

// ResolveBox returns the owner box recorded for id, for binding a later
// shared occurrence back to the owner decoded first. Same failure
// semantics as Resolve.
func (s *Session) ResolveBox(id ID) (any, error) {
	e, ok := s.entries[id.Key()]
	if !ok {
		err := errors.New(errors.ErrCodeLookup, "identity %d has no registered owner", id.Key())
		observability.Codec().OnResolve(uint32(id.Key()), err)
		return nil, err
	}
	observability.Codec().OnResolve(uint32(id.Key()), nil)
	return e.box, nil
}

// Registered returns the number of owners registered on the save side.
func (s *Session) Registered() int { return len(s.byOwner) }

// Recorded returns the number of owners recorded on the load side.
func (s *Session) Recorded() int { return len(s.entries) }
