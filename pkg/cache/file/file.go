// Package file keeps cached answers in a JSON object {query: answer} on disk.
package file

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

// FileCache is safe for concurrent use within one process. Every Set reads,
// modifies and atomically replaces the file under a lock.
type FileCache struct {
	path string
	mu   sync.Mutex
}

// New creates a FileCache backed by path. The file is created on first Set.
func New(path string) *FileCache {
	return &FileCache{path: path}
}

func (c *FileCache) Get(ctx context.Context, query string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := c.read()
	if err != nil {
		return "", false, err
	}
	answer, ok := entries[query]
	return answer, ok, nil
}

func (c *FileCache) Set(ctx context.Context, query, answer string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := c.read()
	if err != nil {
		return err
	}
	entries[query] = answer
	return c.write(entries)
}

func (c *FileCache) read() (map[string]string, error) {
	entries := make(map[string]string)
	b, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return entries, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file cache: read: %w", err)
	}
	if len(b) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, fmt.Errorf("file cache: decode %s: %w", c.path, err)
	}
	return entries, nil
}

func (c *FileCache) write(entries map[string]string) error {
	b, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("file cache: encode: %w", err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("file cache: mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("file cache: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("file cache: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("file cache: close: %w", err)
	}
	return os.Rename(tmp.Name(), c.path)
}
