package snapstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileStore persists snapshots as JSON envelopes in a directory.
// Files are sharded into two-character subdirectories by a hash of the
// snapshot ID to avoid one huge flat directory.
type FileStore struct {
	dir string
}

// NewFileStore creates a file-based store in the given directory.
// The directory will be created if it doesn't exist.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

// Put stores a snapshot, overwriting any previous file for the same ID.
func (f *FileStore) Put(ctx context.Context, s *Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	path := f.path(s.ID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Get retrieves a snapshot by ID.
func (f *FileStore) Get(ctx context.Context, id string) (*Snapshot, error) {
	data, err := os.ReadFile(f.path(id))
	if os.IsNotExist(err) {
		return nil, errNotFound(id)
	}
	if err != nil {
		return nil, err
	}

	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// List walks the store directory and returns metadata, newest first.
func (f *FileStore) List(ctx context.Context) ([]Info, error) {
	var infos []Info
	err := filepath.WalkDir(f.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".json") {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		var s Snapshot
		if err := json.Unmarshal(data, &s); err != nil {
			// Skip foreign files in the store directory.
			return nil
		}
		infos = append(infos, s.Info())
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortInfos(infos)
	return infos, nil
}

// Delete removes a snapshot by ID.
func (f *FileStore) Delete(ctx context.Context, id string) error {
	err := os.Remove(f.path(id))
	if os.IsNotExist(err) {
		return errNotFound(id)
	}
	return err
}

// Close does nothing for the file store.
func (f *FileStore) Close() error {
	return nil
}

// path converts a snapshot ID to a file path.
func (f *FileStore) path(id string) string {
	sum := sha256.Sum256([]byte(id))
	hash := hex.EncodeToString(sum[:])
	return filepath.Join(f.dir, hash[:2], hash[2:]+".json")
}

var _ Store = (*FileStore)(nil)
