package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FileStore persists exported archives onto the local filesystem.
type FileStore struct {
	basePath string
}

// NewFileStore initializes a FileStore rooted at basePath.
func NewFileStore(basePath string) (*FileStore, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("storage: base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure base path: %w", err)
	}
	return &FileStore{basePath: basePath}, nil
}

// BasePath returns the configured root directory.
func (s *FileStore) BasePath() string {
	if s == nil {
		return ""
	}
	return s.basePath
}

// Path resolves a key to its location on disk.
func (s *FileStore) Path(key string) (string, error) {
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.basePath, filepath.FromSlash(cleanKey)), nil
}

// Write persists data at key and returns the canonicalized storage key.
func (s *FileStore) Write(ctx context.Context, key string, data []byte) (string, error) {
	up, err := s.Create(ctx, key)
	if err != nil {
		return "", err
	}
	if _, err := up.Write(data); err != nil {
		up.Abort()
		return "", fmt.Errorf("storage: write file: %w", err)
	}
	if err := up.Close(); err != nil {
		return "", err
	}
	return up.Key(), nil
}

// Create starts a streaming write to key. Data lands in a temporary file next
// to the target and only replaces it on Close, so readers never see a partial
// archive.
func (s *FileStore) Create(ctx context.Context, key string) (*Upload, error) {
	if s == nil {
		return nil, errors.New("storage: no store configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return nil, err
	}
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(cleanKey))
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(fullPath)+".*.part")
	if err != nil {
		return nil, fmt.Errorf("storage: open file: %w", err)
	}
	return &Upload{file: tmp, key: cleanKey, path: fullPath}, nil
}

// Upload is an in-progress write started by Create. Exactly one of Close or
// Abort should be called.
type Upload struct {
	file *os.File
	key  string
	path string
	done bool
}

var _ io.WriteCloser = (*Upload)(nil)

func (u *Upload) Key() string { return u.key }
func (u *Upload) Path() string { return u.path }

func (u *Upload) Write(p []byte) (int, error) {
	return u.file.Write(p)
}

// Close flushes the temporary file and moves it into place.
func (u *Upload) Close() error {
	if u.done {
		return nil
	}
	u.done = true
	if err := u.file.Sync(); err != nil {
		u.discard()
		return fmt.Errorf("storage: sync file: %w", err)
	}
	if err := u.file.Close(); err != nil {
		os.Remove(u.file.Name())
		return fmt.Errorf("storage: close file: %w", err)
	}
	if err := os.Chmod(u.file.Name(), 0o644); err != nil {
		os.Remove(u.file.Name())
		return fmt.Errorf("storage: chmod file: %w", err)
	}
	if err := os.Rename(u.file.Name(), u.path); err != nil {
		os.Remove(u.file.Name())
		return fmt.Errorf("storage: commit file: %w", err)
	}
	return nil
}

// Abort drops the temporary file and leaves any previous content at key untouched.
func (u *Upload) Abort() {
	if u.done {
		return
	}
	u.done = true
	u.discard()
}

func (u *Upload) discard() {
	u.file.Close()
	os.Remove(u.file.Name())
}

// sanitizeKey normalizes a key and prevents escaping the storage root.
func sanitizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("storage: key is required")
	}
	key = strings.ReplaceAll(key, "\\", "/")
	key = strings.TrimPrefix(key, "./")
	key = strings.TrimLeft(key, "/")
	cleaned := filepath.Clean(key)
	cleaned = strings.ReplaceAll(cleaned, "\\", "/")
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", errors.New("storage: invalid key")
	}
	return cleaned, nil
}
