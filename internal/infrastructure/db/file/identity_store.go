// Package file persists the current identity as a JSON file on local disk,
// the server-side counterpart of a browser's local storage slot.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/medihub/health-portal/internal/core/domain"
	"github.com/medihub/health-portal/internal/infrastructure/codec"
)

// IdentityStore reads and writes <dir>/<storage_key>.json.
type IdentityStore struct {
	path string
}

func NewIdentityStore(dir, storageKey string) *IdentityStore {
	return &IdentityStore{path: filepath.Join(dir, storageKey+".json")}
}

// Path returns the file backing the store.
func (s *IdentityStore) Path() string {
	return s.path
}

func (s *IdentityStore) Load(_ context.Context) (*domain.Identity, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load identity: %w", err)
	}
	return codec.DecodeIdentity(data)
}

// Save writes to a temp file in the same directory and renames it over the
// record, so a crash never leaves a half-written file behind.
func (s *IdentityStore) Save(_ context.Context, identity *domain.Identity) error {
	data, err := codec.EncodeIdentity(identity)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("save identity: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".identity-*")
	if err != nil {
		return fmt.Errorf("save identity: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("save identity: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save identity: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("save identity: %w", err)
	}
	return nil
}

func (s *IdentityStore) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clear identity: %w", err)
	}
	return nil
}
