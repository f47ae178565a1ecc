package snapshot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileSink stores the snapshot as a single file, replaced wholesale on
// every store via temp file + fsync + rename.
type FileSink struct {
	path string
}

// NewFileSink creates a sink writing to the given path. The parent
// directory is created if missing.
func NewFileSink(path string) (*FileSink, error) {
	if path == "" {
		return nil, fmt.Errorf("snapshot: path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("snapshot: create dir: %w", err)
		}
	}
	return &FileSink{path: path}, nil
}

// Path returns the snapshot file path.
func (s *FileSink) Path() string {
	return s.path
}

// Load reads the snapshot file. A missing file reports no payload.
func (s *FileSink) Load() ([]byte, bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("snapshot: read %s: %w", s.path, err)
	}
	return data, true, nil
}

// Store atomically replaces the snapshot file.
func (s *FileSink) Store(data []byte) error {
	tempPath := s.path + ".tmp"
	file, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0640)
	if err != nil {
		return fmt.Errorf("snapshot: create temp file: %w", err)
	}
	defer os.Remove(tempPath)

	if _, err := file.Write(data); err != nil {
		file.Close()
		return fmt.Errorf("snapshot: write: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("snapshot: sync: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("snapshot: close: %w", err)
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		return fmt.Errorf("snapshot: rename: %w", err)
	}
	return nil
}

// Close is a no-op for file sinks.
func (s *FileSink) Close() error {
	return nil
}
