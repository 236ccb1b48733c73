package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileStore keeps rendered export files on disk, one subdirectory per
// job. Names are always relative to the root; anything that resolves
// outside it is rejected.
type FileStore struct {
	root string
}

// NewFileStore ensures the root directory exists and returns a handle.
func NewFileStore(root string) (*FileStore, error) {
	if root == "" {
		root = "./exports"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create export root: %w", err)
	}
	return &FileStore{root: root}, nil
}

// Save writes data under the given relative name, creating intermediate
// directories as needed.
func (s *FileStore) Save(name string, data []byte) error {
	path, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("prepare export directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}
	return nil
}

// Read returns the full contents of a stored file.
func (s *FileStore) Read(name string) ([]byte, error) {
	path, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read export file: %w", err)
	}
	return data, nil
}

// Remove deletes a stored file. Missing files are not an error.
func (s *FileStore) Remove(name string) error {
	path, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete export file: %w", err)
	}
	return nil
}

// Sweep deletes files whose modification time is older than ttl and
// prunes the job directories they leave empty. It returns the number of
// files removed.
func (s *FileStore) Sweep(ttl time.Duration) (int, error) {
	cutoff := time.Now().Add(-ttl)
	removed := 0

	err := filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		removed++
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("sweep exports: %w", err)
	}

	s.pruneEmptyDirs()
	return removed, nil
}

func (s *FileStore) pruneEmptyDirs() {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		// Remove fails on non-empty directories, which is exactly
		// the check we want.
		_ = os.Remove(filepath.Join(s.root, entry.Name()))
	}
}

func (s *FileStore) resolve(name string) (string, error) {
	cleaned := filepath.Clean(name)
	if cleaned == "." || filepath.IsAbs(cleaned) || strings.HasPrefix(cleaned, "..") {
		return "", fmt.Errorf("invalid export path %q", name)
	}
	return filepath.Join(s.root, cleaned), nil
}
