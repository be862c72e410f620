package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps one JSON array file per collection under a data
// directory. It is the fallback backend used when MongoDB is unreachable.
type FileStore struct {
	dir string

	mu    sync.Mutex
	colls map[string]*FileCollection
}

// NewFileStore creates the data directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = "data"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("filestore: create dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir, colls: make(map[string]*FileCollection)}, nil
}

// Collection returns the named collection, creating its handle on first
// use. Handles are shared so the per-collection lock is process-wide.
func (s *FileStore) Collection(name string) *FileCollection {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.colls[name]; ok {
		return c
	}
	c := &FileCollection{path: filepath.Join(s.dir, name+".json")}
	s.colls[name] = c
	return c
}

// FileCollection is a single JSON-array file. The embedded mutex
// serializes the read-modify-rewrite cycle; callers hold it around every
// operation so two overlapping writes cannot lose updates.
type FileCollection struct {
	sync.Mutex
	path string
}

// Load decodes the file into dest (a pointer to a slice). A missing,
// unreadable, or corrupt file is treated as an empty collection, never an
// error. Callers must hold the lock.
func (c *FileCollection) Load(dest any) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return
	}
	_ = json.Unmarshal(data, dest)
}

// Replace rewrites the whole file with src serialized as an indented JSON
// array. Callers must hold the lock.
func (c *FileCollection) Replace(src any) error {
	data, err := json.MarshalIndent(src, "", "  ")
	if err != nil {
		return fmt.Errorf("filestore: encode %s: %w", c.path, err)
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return fmt.Errorf("filestore: write %s: %w", c.path, err)
	}
	return nil
}
