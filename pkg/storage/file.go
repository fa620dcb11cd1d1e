package storage

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
)

// FileStorage persists each key as a 0600 file under a private directory,
// the desktop analogue of a platform secure store.
type FileStorage struct {
	dir string
}

func NewFileStorage(dir string) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("storage: failed to create dir: %w", err)
	}
	return &FileStorage{dir: dir}, nil
}

// path encodes the key so arbitrary key names cannot escape the directory.
func (f *FileStorage) path(key string) string {
	return filepath.Join(f.dir, base64.RawURLEncoding.EncodeToString([]byte(key)))
}

func (f *FileStorage) Get(_ context.Context, key string) (string, error) {
	data, err := os.ReadFile(f.path(key))
	if os.IsNotExist(err) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("storage: failed to read %q: %w", key, err)
	}
	return string(data), nil
}

func (f *FileStorage) Set(_ context.Context, key, value string) error {
	if err := os.WriteFile(f.path(key), []byte(value), 0o600); err != nil {
		return fmt.Errorf("storage: failed to write %q: %w", key, err)
	}
	return nil
}

func (f *FileStorage) Delete(_ context.Context, key string) error {
	err := os.Remove(f.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: failed to delete %q: %w", key, err)
	}
	return nil
}
