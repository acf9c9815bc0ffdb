package persist

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileSlot persists each key as a JSON file inside a directory.
type FileSlot struct {
	dir string
}

// NewFileSlot returns a slot rooted at dir, creating the directory if needed.
func NewFileSlot(dir string) (*FileSlot, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("persist: file slot directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("persist: create %s: %w", dir, err)
	}
	return &FileSlot{dir: dir}, nil
}

// Path reports the file backing key.
func (s *FileSlot) Path(key string) string {
	name := strings.NewReplacer(":", "-", "/", "-", "\\", "-").Replace(key)
	return filepath.Join(s.dir, name+".json")
}

// Load reads the file backing key.
func (s *FileSlot) Load(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("persist: read %s: %w", filepath.Base(s.Path(key)), err)
	}
	if len(data) == 0 {
		return nil, ErrNotFound
	}
	return data, nil
}

// Save writes data to a temporary file and renames it over the target so a
// crash mid-write never leaves a truncated document behind.
func (s *FileSlot) Save(_ context.Context, key string, data []byte) error {
	path := s.Path(key)
	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("persist: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("persist: write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("persist: close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("persist: replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
