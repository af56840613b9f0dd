package pipeline

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
)

// DirAssetStore writes icons into a directory on disk, the layout kmlgen
// uses next to its output file.
type DirAssetStore struct {
	dir  string
	href string
}

// NewDirAssetStore creates the directory if needed. href is the prefix the
// document references icons by, typically the directory path relative to the
// KML file; it may be empty when icons sit next to the document.
func NewDirAssetStore(dir, href string) (*DirAssetStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create asset dir: %w", err)
	}
	return &DirAssetStore{dir: dir, href: href}, nil
}

// Put writes the icon to disk and returns its href for the document.
func (s *DirAssetStore) Put(name string, data []byte) (string, error) {
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write asset %s: %w", name, err)
	}
	return path.Join(s.href, name), nil
}

// MemAssetStore collects icons in memory, keyed by href. It backs KMZ
// archives and the HTTP catalog, where icons never touch disk.
type MemAssetStore struct {
	prefix string
	files  map[string][]byte
}

// NewMemAssetStore creates an empty store. prefix is the href prefix,
// typically "assets".
func NewMemAssetStore(prefix string) *MemAssetStore {
	return &MemAssetStore{prefix: prefix, files: make(map[string][]byte)}
}

// Put records the icon under its href and returns that href.
func (s *MemAssetStore) Put(name string, data []byte) (string, error) {
	href := path.Join(s.prefix, name)
	s.files[href] = data
	return href, nil
}

// Files returns the collected icons keyed by href.
func (s *MemAssetStore) Files() map[string][]byte {
	return s.files
}
