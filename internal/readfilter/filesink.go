package readfilter

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileSaveSink persists read-filter state to a JSON file, replacing it
// atomically on every mutation via write-to-temp-then-rename, the same
// pattern internal/persist/filestore uses for its blobs; os.Rename is the standard
// library's documented way to get this guarantee on a single
// filesystem, so no third-party library is justified here.
type FileSaveSink struct {
	Path string
}

func NewFileSaveSink(path string) *FileSaveSink {
	return &FileSaveSink{Path: path}
}

func (f *FileSaveSink) Save(data []byte) error {
	dir := filepath.Dir(f.Path)
	tmp, err := os.CreateTemp(dir, ".readfilter-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, f.Path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

// MemorySaveSink keeps the latest serialized state in memory, for
// tests that need a SaveSink without touching the filesystem.
type MemorySaveSink struct {
	Last []byte
}

func (m *MemorySaveSink) Save(data []byte) error {
	m.Last = append([]byte(nil), data...)
	return nil
}
