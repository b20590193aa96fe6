package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bft-labs/accountstore/internal/domain"
)

const slotFileExt = ".json"

// SlotFileStore implements ports.SlotStore with one JSON file per slot.
type SlotFileStore struct {
	dir string
}

// NewSlotFileStore creates a new SlotFileStore rooted at dir.
func NewSlotFileStore(dir string) *SlotFileStore {
	return &SlotFileStore{dir: dir}
}

// Get reads a slot from disk.
// Returns nil and a nil error if no slot file exists.
func (s *SlotFileStore) Get(ctx context.Context, key string) ([]byte, error) {
	path, err := s.Path(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return data, nil
}

// Set writes a slot atomically.
// Uses atomic write (write to temp file, then rename) to prevent corruption.
func (s *SlotFileStore) Set(ctx context.Context, key string, value []byte) error {
	path, err := s.Path(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, value, 0o600); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	// Atomic rename
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

// Delete removes a slot file. A missing file is not an error.
func (s *SlotFileStore) Delete(ctx context.Context, key string) error {
	path, err := s.Path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

// Close is a no-op.
func (s *SlotFileStore) Close() error {
	return nil
}

// Dir returns the directory holding the slot files.
func (s *SlotFileStore) Dir() string {
	return s.dir
}

// Path returns the full path of the file backing key.
func (s *SlotFileStore) Path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("%w: slot key %q", domain.ErrInvalidInput, key)
	}
	return filepath.Join(s.dir, key+slotFileExt), nil
}

// KeyFromPath returns the slot key for a file inside the store directory.
// ok is false for files that do not back a slot.
func (s *SlotFileStore) KeyFromPath(path string) (key string, ok bool) {
	if filepath.Dir(filepath.Clean(path)) != filepath.Clean(s.dir) {
		return "", false
	}
	base := filepath.Base(path)
	if !strings.HasSuffix(base, slotFileExt) {
		return "", false
	}
	return strings.TrimSuffix(base, slotFileExt), true
}
