package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

const fileVersion = 1

type fileDocument struct {
	Version int              `json:"version"`
	Entries map[string]Entry `json:"entries"`
}

// File is a Store backed by one JSON document. The document is read when
// the store is opened and written back by Close when it changed.
type File struct {
	path string

	mu      sync.Mutex
	entries map[string]Entry
	dirty   bool
}

// NewFile opens the cache document at path. A missing file starts an
// empty cache.
func NewFile(path string) (*File, error) {
	f := &File{path: path, entries: make(map[string]Entry)}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}
	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse cache file %s: %w", path, err)
	}
	if doc.Version == fileVersion && doc.Entries != nil {
		f.entries = doc.Entries
	}
	return f, nil
}

// Get returns the entry for key.
func (f *File) Get(_ context.Context, key string) (Entry, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[key]
	return e, ok, nil
}

// Put stores an entry in memory until Close.
func (f *File) Put(_ context.Context, key string, entry Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = entry
	f.dirty = true
	return nil
}

// Len returns the number of entries.
func (f *File) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

// Close writes the document when entries were added. The file is
// replaced atomically.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.dirty {
		return nil
	}
	data, err := json.MarshalIndent(fileDocument{Version: fileVersion, Entries: f.entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cache: %w", err)
	}
	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".pdfdedupe-cache-*")
	if err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace cache file: %w", err)
	}
	f.dirty = false
	return nil
}
