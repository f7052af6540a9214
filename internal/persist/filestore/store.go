// Package filestore is the no-external-dependency Store: every named
// resource is a file under a directory, written atomically the same
// way readfilter.FileSaveSink does. It backs local runs and tests that
// don't want to stand up Postgres or Redis just to exercise config.BuildJob.
package filestore

import (
	"fmt"
	"os"
	"path/filepath"
)

// Store persists read-filters, entry-to-msg-maps, and templates as
// files under three subdirectories of Dir.
type Store struct {
	Dir string
}

func New(dir string) *Store {
	return &Store{Dir: dir}
}

func (s *Store) path(category, name string) string {
	return filepath.Join(s.Dir, category, name+".json")
}

func (s *Store) load(category, name string) ([]byte, bool, error) {
	data, err := os.ReadFile(s.path(category, name))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("filestore: load %s/%s: %w", category, name, err)
	}
	return data, true, nil
}

func (s *Store) save(category, name string, data []byte) error {
	path := s.path(category, name)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("filestore: mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("filestore: create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("filestore: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("filestore: sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("filestore: close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("filestore: rename into place: %w", err)
	}
	return nil
}

func (s *Store) LoadReadFilter(name string) ([]byte, bool, error) {
	return s.load("readfilter", name)
}

func (s *Store) SaveReadFilter(name string, data []byte) error {
	return s.save("readfilter", name, data)
}

func (s *Store) LoadMsgMap(name string) ([]byte, bool, error) {
	return s.load("msgmap", name)
}

func (s *Store) SaveMsgMap(name string, data []byte) error {
	return s.save("msgmap", name, data)
}

func (s *Store) LoadTemplate(name string) ([]byte, error) {
	data, found, err := s.load("template", name)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("filestore: template %q not found", name)
	}
	return data, nil
}
