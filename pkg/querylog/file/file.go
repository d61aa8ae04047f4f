// Package file appends query log entries to a JSON-lines file.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/barekit/kbchat/pkg/querylog/record"
)

type FileLog struct {
	path string
	mu   sync.Mutex
}

// New creates a FileLog writing to path. The file is created on first Append.
func New(path string) *FileLog {
	return &FileLog{path: path}
}

// Append writes e as one JSON line.
func (l *FileLog) Append(ctx context.Context, e record.Entry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("query log: encode: %w", err)
	}
	b = append(b, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("query log: mkdir: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("query log: open: %w", err)
	}
	if _, err := f.Write(b); err != nil {
		f.Close()
		return fmt.Errorf("query log: write: %w", err)
	}
	return f.Close()
}
