// Package blob persists raw payloads on the local filesystem. Blobs are
// written under randomly generated names so concurrent writers never target
// the same path; derived size variants live next to the original at
// "<path>_<variant>" and are produced out-of-band by the thumbnail worker.
package blob

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/google/uuid"
)

const dirMode = 0o755

// Store writes and reads blobs beneath a single root directory.
type Store struct {
	root string
}

// NewStore constructs a store rooted at the given directory. The directory
// is created lazily on the first write.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Root returns the configured root directory.
func (s *Store) Root() string { return s.root }

// Write stores data under a freshly generated, metadata-independent name and
// returns the resulting path.
func (s *Store) Write(data []byte) (string, error) {
	if err := os.MkdirAll(s.root, dirMode); err != nil {
		return "", fmt.Errorf("blob dir error: %w", err)
	}
	path := filepath.Join(s.root, uuid.NewString())
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("blob write error: %w", err)
	}
	return path, nil
}

// VariantPath returns the conventional location of a named size variant.
func VariantPath(path, variant string) string {
	return path + "_" + variant
}

// WriteVariant stores a derived variant next to the original blob,
// overwriting any previous rendition of the same variant.
func (s *Store) WriteVariant(path, variant string, data []byte) error {
	if err := os.WriteFile(VariantPath(path, variant), data, 0o644); err != nil {
		return fmt.Errorf("blob write error: %w", err)
	}
	return nil
}

// Read returns the bytes of a blob, or of its named variant when variant is
// non-empty. A missing path, or a path that is not a regular file, yields
// common.ErrorNotFound; for variants this is also the normal state while the
// thumbnail worker has not run yet.
func (s *Store) Read(path, variant string) ([]byte, error) {
	if path == "" {
		return nil, common.ErrorNotFound
	}
	if variant != "" {
		path = VariantPath(path, variant)
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("blob stat error: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, common.ErrorNotFound
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("blob read error: %w", err)
	}
	return data, nil
}
