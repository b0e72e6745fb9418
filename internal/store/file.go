package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// File keeps values in a YAML map on disk. Every Set rewrites the file
// through a temporary file and rename.
type File struct {
	data map[string]string
	path string
	mu   sync.Mutex
}

// NewFile loads the store at path. A missing file starts empty.
func NewFile(path string) (*File, error) {
	if path == "" {
		return nil, errors.New("file store: empty path")
	}

	f := &File{path: path, data: make(map[string]string)}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file store: %w", err)
	}

	if err := yaml.Unmarshal(raw, &f.data); err != nil {
		return nil, fmt.Errorf("file store: parse %s: %w", path, err)
	}
	if f.data == nil {
		f.data = make(map[string]string)
	}

	return f, nil
}

// Get returns the value for key.
func (f *File) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, ok := f.data[key]
	return v, ok, nil
}

// Set stores value and flushes the whole map to disk.
func (f *File) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.data[key] = value
	return f.flush()
}

// Close is a no-op; data is flushed on every Set.
func (f *File) Close() error { return nil }

func (f *File) flush() error {
	out, err := yaml.Marshal(f.data)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return err
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, out, 0644); err != nil {
		return err
	}

	return os.Rename(tmp, f.path)
}
