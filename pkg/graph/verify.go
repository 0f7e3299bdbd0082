package graph

import (
	"github.com/mvoltz/tether/pkg/errors"
)

// Report is the result of a round-trip verification.
type Report struct {
	Format        Format `json:"format"`
	SnapshotBytes int    `json:"snapshot_bytes"`
	Assets        int    `json:"assets"`
	Nodes         int    `json:"nodes"`
	Bound         int    `json:"bound"`
	// IdentityPreserved is true when every reloaded alias points into the
	// reloaded owner set and per-asset fan-in matches the original.
	IdentityPreserved bool `json:"identity_preserved"`
}

// Verify round-trips doc through the given snapshot format and checks that
// shared identity survived: the reloaded document must hold exactly one
// owner per original asset, with every bound node aliasing one of those
// reconstructed owners (pointer identity, not value equality).
func Verify(doc *Doc, f Format) (*Report, error) {
	data, err := Marshal(doc, f)
	if err != nil {
		return nil, err
	}
	back, err := Unmarshal(data, f)
	if err != nil {
		return nil, err
	}

	want := doc.Stats()
	got := back.Stats()

	r := &Report{
		Format:        f,
		SnapshotBytes: len(data),
		Assets:        got.Assets,
		Nodes:         got.Nodes,
		Bound:         got.Bound,
	}

	if got.Assets != want.Assets || got.Nodes != want.Nodes || got.Bound != want.Bound {
		return r, nil
	}

	// Every reloaded alias must resolve to one of the reloaded owner boxes.
	for _, n := range back.Nodes {
		if n.Asset != nil && back.AssetOf(n) == nil {
			return r, nil
		}
	}

	// Fan-in per asset must be unchanged.
	for name, count := range want.FanIn {
		if got.FanIn[name] != count {
			return r, nil
		}
	}

	r.IdentityPreserved = true
	return r, nil
}

// MustPreserve runs Verify and converts a failed identity check into an
// INTERNAL_ERROR, for callers that treat a broken round trip as fatal.
func MustPreserve(doc *Doc, f Format) (*Report, error) {
	r, err := Verify(doc, f)
	if err != nil {
		return nil, err
	}
	if !r.IdentityPreserved {
		return r, errors.New(errors.ErrCodeInternal, "round trip broke shared identity for format %q", string(f))
	}
	return r, nil
}
