// Package cachefile provides an atomic-write JSON file cache for
// ancillary blobs too large or too disposable to route through the
// keyring (spec.md §6.3): the client configuration and, as a hook, the
// server list.
package cachefile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// File is an atomically-written JSON cache backed by one file on disk.
type File struct {
	path string
}

// New builds a File cache rooted at path.
func New(path string) *File {
	return &File{path: path}
}

// Exists reports whether the cache file is present.
func (f *File) Exists() bool {
	_, err := os.Stat(f.path)
	return err == nil
}

// Save JSON-encodes value and writes it to the cache file atomically: the
// data lands in a temp file in the same directory, then is renamed over
// the target, so a reader never observes a partially-written file.
func (f *File) Save(value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding cache payload: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating cache directory %q: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp cache file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("writing temp cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("closing temp cache file: %w", err)
	}

	if err := os.Rename(tmpPath, f.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming temp cache file into place: %w", err)
	}
	return nil
}

// Load decodes the cache file into out. Returns (false, nil) if the file
// does not exist.
func (f *File) Load(out interface{}) (bool, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("reading cache file: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("decoding cache file: %w", err)
	}
	return true, nil
}

// Remove discards the cache file, if present.
func (f *File) Remove() error {
	err := os.Remove(f.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing cache file: %w", err)
	}
	return nil
}
