package track_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/mvoltz/tether/pkg/archive"
	"github.com/mvoltz/tether/pkg/errors"
	"github.com/mvoltz/tether/pkg/track"
)

func saveInt64(e archive.Encoder, v *int64) error {
	return e.Int64("value", *v)
}

func loadInt64(d archive.Decoder, v *int64) error {
	got, err := d.Int64("value")
	*v = got
	return err
}

func TestRegisterIdempotent(t *testing.T) {
	s := track.NewSession()
	owner := track.NewShared[int64](7)

	id1, first1 := s.Register(&owner.Value)
	id2, first2 := s.Register(&owner.Value)

	if id1 != id2 {
		t.Errorf("Register() returned %d then %d, want identical identities", id1, id2)
	}
	if !first1 {
		t.Error("first registration: first = false, want true")
	}
	if first2 {
		t.Error("second registration: first = true, want false")
	}
}

func TestRegisterDistinctOwners(t *testing.T) {
	s := track.NewSession()
	a := track.NewShared[int64](1)
	b := track.NewShared[int64](1) // equal value, distinct owner

	idA, _ := s.Register(&a.Value)
	idB, _ := s.Register(&b.Value)

	if idA == idB {
		t.Errorf("distinct owners share identity %d", idA)
	}
	if idA == 0 || idB == 0 {
		t.Error("identity 0 assigned to a real owner")
	}
}

func TestResolveUnknownIdentity(t *testing.T) {
	s := track.NewSession()
	if _, err := s.Resolve(5); !errors.Is(err, errors.ErrCodeLookup) {
		t.Errorf("Resolve(5) = %v, want LOOKUP_FAILED", err)
	}
}

func TestRecordDuplicateIdentity(t *testing.T) {
	s := track.NewSession()
	v := int64(1)
	if err := s.Record(3, &v, nil); err != nil {
		t.Fatalf("first Record() = %v", err)
	}
	if err := s.Record(3, &v, nil); !errors.Is(err, errors.ErrCodeFormat) {
		t.Errorf("duplicate Record() = %v, want FORMAT_VIOLATION", err)
	}
}

// TestEncodedStreamShape pins the wire layout: one owner holding 42 followed
// by two aliases must encode as a defining entry for identity 1 (flag set,
// payload inline) and two bare identity-1 fields.
func TestEncodedStreamShape(t *testing.T) {
	var buf bytes.Buffer
	enc := archive.NewBinaryEncoder(&buf)
	s := track.NewSession()

	owner := track.NewShared[int64](42)
	r1 := &owner.Value
	r2 := &owner.Value

	if err := track.SaveShared(enc, s, owner, saveInt64); err != nil {
		t.Fatalf("SaveShared() = %v", err)
	}
	if err := track.SavePointer(enc, s, r1); err != nil {
		t.Fatalf("SavePointer(r1) = %v", err)
	}
	if err := track.SavePointer(enc, s, r2); err != nil {
		t.Fatalf("SavePointer(r2) = %v", err)
	}

	raw := buf.Bytes()
	// defining id: 1 | flag, payload: int64(42), two alias ids: 1
	if len(raw) != 4+8+4+4 {
		t.Fatalf("stream length = %d, want 20", len(raw))
	}
	if got := binary.LittleEndian.Uint32(raw[0:4]); got != 1|uint32(track.Defining) {
		t.Errorf("defining field = %#x, want %#x", got, 1|uint32(track.Defining))
	}
	if got := int64(binary.LittleEndian.Uint64(raw[4:12])); got != 42 {
		t.Errorf("payload = %d, want 42", got)
	}
	for i, off := range []int{12, 16} {
		if got := binary.LittleEndian.Uint32(raw[off : off+4]); got != 1 {
			t.Errorf("alias %d = %#x, want 1 with flag clear", i+1, got)
		}
	}
}

// TestRoundTripAliasing checks the central property: two aliases to one
// owner reload as two pointers to the same reconstructed value.
func TestRoundTripAliasing(t *testing.T) {
	var buf bytes.Buffer
	enc := archive.NewBinaryEncoder(&buf)
	save := track.NewSession()

	owner := track.NewShared[int64](42)
	if err := track.SaveShared(enc, save, owner, saveInt64); err != nil {
		t.Fatal(err)
	}
	if err := track.SavePointer(enc, save, &owner.Value); err != nil {
		t.Fatal(err)
	}
	if err := track.SavePointer(enc, save, &owner.Value); err != nil {
		t.Fatal(err)
	}

	dec := archive.NewBinaryDecoder(&buf)
	load := track.NewSession()

	gotOwner, err := track.LoadShared(dec, load, loadInt64)
	if err != nil {
		t.Fatalf("LoadShared() = %v", err)
	}
	r1, err := track.LoadPointer[int64](dec, load)
	if err != nil {
		t.Fatalf("LoadPointer(r1) = %v", err)
	}
	r2, err := track.LoadPointer[int64](dec, load)
	if err != nil {
		t.Fatalf("LoadPointer(r2) = %v", err)
	}

	if gotOwner == nil || gotOwner.Value != 42 {
		t.Fatalf("owner = %+v, want value 42", gotOwner)
	}
	if r1 != &gotOwner.Value || r2 != &gotOwner.Value {
		t.Error("aliases do not point at the reconstructed owner value")
	}
	if load.Recorded() != 1 {
		t.Errorf("Recorded() = %d, want exactly one owner instance", load.Recorded())
	}
}

// TestSharedReoccurrence checks that saving the same owner box twice emits
// the payload once and reloads as one box.
func TestSharedReoccurrence(t *testing.T) {
	var buf bytes.Buffer
	enc := archive.NewBinaryEncoder(&buf)
	save := track.NewSession()

	owner := track.NewShared[int64](9)
	if err := track.SaveShared(enc, save, owner, saveInt64); err != nil {
		t.Fatal(err)
	}
	firstLen := buf.Len()
	if err := track.SaveShared(enc, save, owner, saveInt64); err != nil {
		t.Fatal(err)
	}
	if buf.Len()-firstLen != 4 {
		t.Errorf("second occurrence wrote %d bytes, want bare 4-byte identity", buf.Len()-firstLen)
	}

	dec := archive.NewBinaryDecoder(&buf)
	load := track.NewSession()
	a, err := track.LoadShared(dec, load, loadInt64)
	if err != nil {
		t.Fatal(err)
	}
	b, err := track.LoadShared(dec, load, loadInt64)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("re-occurrence loaded as a distinct owner box")
	}
}

func TestAliasBeforeOwnerIsPolicyError(t *testing.T) {
	var buf bytes.Buffer
	enc := archive.NewBinaryEncoder(&buf)
	s := track.NewSession()

	stray := int64(13)
	err := track.SavePointer(enc, s, &stray)
	if !errors.Is(err, errors.ErrCodePolicy) {
		t.Errorf("SavePointer() before owner = %v, want POLICY_VIOLATION", err)
	}
}

func TestTamperedFlagIsFormatError(t *testing.T) {
	// An alias field whose defining flag is set, referencing an identity
	// that would otherwise resolve.
	load := track.NewSession()
	v := int64(42)
	if err := load.Record(1, &v, nil); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := archive.NewBinaryEncoder(&buf).Uint32("id", 1|uint32(track.Defining)); err != nil {
		t.Fatal(err)
	}

	_, err := track.LoadPointer[int64](archive.NewBinaryDecoder(&buf), load)
	if !errors.Is(err, errors.ErrCodeFormat) {
		t.Errorf("LoadPointer() with defining flag = %v, want FORMAT_VIOLATION", err)
	}
}

func TestAliasUnresolvedIsLookupError(t *testing.T) {
	var buf bytes.Buffer
	if err := archive.NewBinaryEncoder(&buf).Uint32("id", 1); err != nil {
		t.Fatal(err)
	}

	_, err := track.LoadPointer[int64](archive.NewBinaryDecoder(&buf), track.NewSession())
	if !errors.Is(err, errors.ErrCodeLookup) {
		t.Errorf("LoadPointer() without owner = %v, want LOOKUP_FAILED", err)
	}
}

func TestNilRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	enc := archive.NewBinaryEncoder(&buf)
	save := track.NewSession()

	if err := track.SaveShared[int64](enc, save, nil, saveInt64); err != nil {
		t.Fatal(err)
	}
	if err := track.SavePointer[int64](enc, save, nil); err != nil {
		t.Fatal(err)
	}

	dec := archive.NewBinaryDecoder(&buf)
	load := track.NewSession()

	sh, err := track.LoadShared(dec, load, loadInt64)
	if err != nil || sh != nil {
		t.Errorf("LoadShared() = %v, %v, want nil owner", sh, err)
	}
	p, err := track.LoadPointer[int64](dec, load)
	if err != nil || p != nil {
		t.Errorf("LoadPointer() = %v, %v, want nil pointer", p, err)
	}
}

// link is a self-referential payload: its alias points back into the value
// held by its own owner box.
type link struct {
	name string
	self *link
}

func TestCycleThroughOwnPayload(t *testing.T) {
	var buf bytes.Buffer
	enc := archive.NewBinaryEncoder(&buf)
	save := track.NewSession()

	owner := track.NewShared(link{name: "loop"})
	owner.Value.self = &owner.Value

	saveLink := func(e archive.Encoder, l *link) error {
		if err := e.String("name", l.name); err != nil {
			return err
		}
		return track.SavePointer(e, save, l.self)
	}
	if err := track.SaveShared(enc, save, owner, saveLink); err != nil {
		t.Fatalf("SaveShared() = %v", err)
	}

	dec := archive.NewBinaryDecoder(&buf)
	load := track.NewSession()
	loadLink := func(d archive.Decoder, l *link) error {
		name, err := d.String("name")
		if err != nil {
			return err
		}
		l.name = name
		l.self, err = track.LoadPointer[link](d, load)
		return err
	}

	got, err := track.LoadShared(dec, load, loadLink)
	if err != nil {
		t.Fatalf("LoadShared() = %v", err)
	}
	if got.Value.self != &got.Value {
		t.Error("cycle not restored: self does not point back into the owner")
	}
	if got.Value.name != "loop" {
		t.Errorf("name = %q, want %q", got.Value.name, "loop")
	}
}

func TestSharedTypeMismatch(t *testing.T) {
	var buf bytes.Buffer
	enc := archive.NewBinaryEncoder(&buf)
	save := track.NewSession()

	owner := track.NewShared[int64](1)
	if err := track.SaveShared(enc, save, owner, saveInt64); err != nil {
		t.Fatal(err)
	}
	if err := track.SaveShared(enc, save, owner, saveInt64); err != nil {
		t.Fatal(err)
	}

	dec := archive.NewBinaryDecoder(&buf)
	load := track.NewSession()
	if _, err := track.LoadShared(dec, load, loadInt64); err != nil {
		t.Fatal(err)
	}
	// Decode the re-occurrence as the wrong owner type.
	_, err := track.LoadShared(dec, load, func(d archive.Decoder, v *string) error {
		s, err := d.String("value")
		*v = s
		return err
	})
	if !errors.Is(err, errors.ErrCodeFormat) {
		t.Errorf("LoadShared() with wrong type = %v, want FORMAT_VIOLATION", err)
	}
}
