// Package seq serializes ordered containers of arbitrary element type
// against a minimal capability set: clear existing contents, append one
// element at the end, and optionally pre-allocate capacity.
//
// A container snapshot is an unsigned element count followed by that many
// encoded elements, with no terminator. Element acquisition on load is a
// closed two-variant choice fixed per element type at configuration time:
// either the element is default-constructed (zero value) and decoded into,
// or a caller-supplied factory constructs and decodes it in one step for
// types with no usable zero state. Elements only need to be movable into
// the container; nothing is ever copied out again.
//
// The adapter performs no bounds pre-check of the declared count against
// the remaining stream: a corrupt count surfaces as a decode error on the
// first element the stream cannot supply, propagated unchanged.
package seq

import (
	"github.com/mvoltz/tether/pkg/archive"
	"github.com/mvoltz/tether/pkg/errors"
)

// Container is the minimal mutable-sequence capability Load requires.
type Container[E any] interface {
	// Clear removes all elements. Must be safe on an empty container.
	Clear()
	// Append adds one element at the end.
	Append(v E)
}

// Reserver is an optional capacity hint. Containers that can pre-allocate
// implement it; Load calls Reserve with the declared element count before
// inserting. Skipping the hint never changes the result.
type Reserver interface {
	Reserve(n int)
}

// Maker produces one decoded element per call. It is a closed variant:
// construct one with DefaultMaker or HookMaker and treat it as opaque.
type Maker[E any] struct {
	// Exactly one of decode and construct is set, fixed at creation.
	decode    func(archive.Decoder, *E) error
	construct func(archive.Decoder) (E, error)
}

// DefaultMaker returns a Maker for element types with a meaningful zero
// value: each element is zero-initialized and decode fills it in place.
func DefaultMaker[E any](decode func(archive.Decoder, *E) error) Maker[E] {
	return Maker[E]{decode: decode}
}

// HookMaker returns a Maker for element types that cannot be built from
// their zero value: construct both creates and decodes the element in a
// single step, and is invoked exactly once per element.
func HookMaker[E any](construct func(archive.Decoder) (E, error)) Maker[E] {
	return Maker[E]{construct: construct}
}

func (m Maker[E]) make(dec archive.Decoder) (E, error) {
	if m.construct != nil {
		return m.construct(dec)
	}
	var e E
	if m.decode == nil {
		return e, errors.New(errors.ErrCodeInternal, "seq: zero Maker used; build one with DefaultMaker or HookMaker")
	}
	err := m.decode(dec, &e)
	return e, err
}

// Save writes elems as a count-prefixed snapshot, encoding each element
// through save in order. Element encode errors abort and propagate
// unchanged.
func Save[E any](enc archive.Encoder, elems []E, save func(archive.Encoder, *E) error) error {
	if err := enc.Len("count", len(elems)); err != nil {
		return err
	}
	for i := range elems {
		if err := save(enc, &elems[i]); err != nil {
			return err
		}
	}
	return nil
}

// Load reconstructs a container from a count-prefixed snapshot.
//
// The destination is cleared first, reserved to the declared count when it
// implements Reserver, then filled by count calls to the maker, appending
// each element as it is produced. The first element error aborts the load;
// by the fatal-session contract the partially filled destination must be
// discarded by the caller.
func Load[E any](dec archive.Decoder, dst Container[E], m Maker[E]) error {
	n, err := dec.Len("count")
	if err != nil {
		return err
	}

	dst.Clear()
	if r, ok := dst.(Reserver); ok {
		r.Reserve(n)
	}

	for i := 0; i < n; i++ {
		e, err := m.make(dec)
		if err != nil {
			return err
		}
		dst.Append(e)
	}
	return nil
}

// Slice adapts a Go slice to the Container and Reserver capabilities.
// The pointed-to slice is modified in place.
type Slice[E any] struct {
	S *[]E
}

// Clear truncates the slice to length zero, keeping capacity.
func (s Slice[E]) Clear() { *s.S = (*s.S)[:0] }

// Append adds v at the end.
func (s Slice[E]) Append(v E) { *s.S = append(*s.S, v) }

// Reserve grows capacity to hold at least n elements.
func (s Slice[E]) Reserve(n int) {
	if cap(*s.S)-len(*s.S) < n {
		grown := make([]E, len(*s.S), len(*s.S)+n)
		copy(grown, *s.S)
		*s.S = grown
	}
}

// Len returns the current element count.
func (s Slice[E]) Len() int { return len(*s.S) }

// LoadSlice loads a snapshot into *dst, replacing its contents.
func LoadSlice[E any](dec archive.Decoder, dst *[]E, m Maker[E]) error {
	return Load[E](dec, Slice[E]{S: dst}, m)
}

// Compile-time capability checks.
var (
	_ Container[int] = Slice[int]{}
	_ Reserver       = Slice[int]{}
)
