// Package filesystem stores media blobs on local disk.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/relai/server/internal/port/outbound"
)

// BlobStore persists blobs under a root directory using slash-separated keys.
type BlobStore struct {
	root string
}

// NewBlobStore creates the root directory if needed.
func NewBlobStore(root string) (*BlobStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("filesystem: root path is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("filesystem: ensure root: %w", err)
	}
	return &BlobStore{root: root}, nil
}

// Put writes data at key. Writes go through a temp file so readers never see
// a partially written blob.
func (s *BlobStore) Put(ctx context.Context, key string, data []byte, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("filesystem: ensure directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return fmt.Errorf("filesystem: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("filesystem: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("filesystem: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return fmt.Errorf("filesystem: commit: %w", err)
	}
	return nil
}

// Open returns a reader for key.
func (s *BlobStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := s.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, outbound.ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("filesystem: open: %w", err)
	}
	return f, nil
}

// FindByPrefix returns the lexically first key in the prefix's directory
// whose name starts with the prefix's base.
func (s *BlobStore) FindByPrefix(ctx context.Context, prefix string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean, err := sanitizeKey(prefix)
	if err != nil {
		return "", err
	}
	if strings.HasSuffix(prefix, "/") {
		clean += "/"
	}
	dir, base := path.Split(clean)

	entries, err := os.ReadDir(filepath.Join(s.root, filepath.FromSlash(dir)))
	if errors.Is(err, fs.ErrNotExist) {
		return "", outbound.ErrBlobNotFound
	}
	if err != nil {
		return "", fmt.Errorf("filesystem: list: %w", err)
	}

	var matches []string
	for _, e := range entries {
		name := e.Name()
		if e.Type().IsRegular() && !strings.HasPrefix(name, ".") && strings.HasPrefix(name, base) {
			matches = append(matches, name)
		}
	}
	if len(matches) == 0 {
		return "", outbound.ErrBlobNotFound
	}
	sort.Strings(matches)
	return dir + matches[0], nil
}

func (s *BlobStore) path(key string) (string, error) {
	clean, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

// sanitizeKey normalizes a key and prevents escaping the storage root.
func sanitizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("filesystem: key is required")
	}
	key = strings.ReplaceAll(key, "\\", "/")
	key = strings.TrimLeft(key, "/")
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", errors.New("filesystem: invalid key")
	}
	return cleaned, nil
}

// Compile-time check
var _ outbound.BlobStorePort = (*BlobStore)(nil)
