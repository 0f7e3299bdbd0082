// Package snapstore persists document snapshots across pluggable backends.
//
// A Snapshot is an immutable record of encoded document bytes plus the
// metadata needed to decode them again (name, format, creation time).
// The Store interface abstracts the backend; implementations exist for
// in-process memory, the local filesystem, Redis, MongoDB, and SQLite.
//
// All backends agree on semantics: Put overwrites by ID, Get and Delete
// fail with SNAPSHOT_NOT_FOUND for unknown IDs, and List returns metadata
// only (never payload bytes).
package snapstore

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mvoltz/tether/pkg/errors"
)

// Snapshot is a stored encoded document.
type Snapshot struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Format    string    `json:"format" bson:"format"`
	Data      []byte    `json:"data" bson:"data"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Info is snapshot metadata without the payload.
type Info struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Format    string    `json:"format"`
	Size      int       `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// New creates a snapshot with a fresh UUID and the current time.
// The name is validated against the store naming rules.
func New(name, format string, data []byte) (*Snapshot, error) {
	if err := errors.ValidateSnapshotName(name); err != nil {
		return nil, err
	}
	return &Snapshot{
		ID:        uuid.NewString(),
		Name:      name,
		Format:    format,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Info returns the snapshot's metadata view.
func (s *Snapshot) Info() Info {
	return Info{
		ID:        s.ID,
		Name:      s.Name,
		Format:    s.Format,
		Size:      len(s.Data),
		CreatedAt: s.CreatedAt,
	}
}

// Store persists snapshots.
type Store interface {
	// Put stores a snapshot, overwriting any previous snapshot with the
	// same ID.
	Put(ctx context.Context, s *Snapshot) error

	// Get retrieves a snapshot by ID.
	Get(ctx context.Context, id string) (*Snapshot, error)

	// List returns metadata for all stored snapshots, newest first.
	List(ctx context.Context) ([]Info, error)

	// Delete removes a snapshot by ID.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close() error
}

// errNotFound builds the shared not-found error all backends return.
func errNotFound(id string) error {
	return errors.New(errors.ErrCodeSnapshotNotFound, "snapshot %q not found", id)
}

// IsNotFound reports whether err is a missing-snapshot error.
func IsNotFound(err error) bool {
	return errors.GetCode(err) == errors.ErrCodeSnapshotNotFound
}

// sortInfos orders listing results newest first.
func sortInfos(infos []Info) {
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.After(infos[j].CreatedAt)
	})
}
