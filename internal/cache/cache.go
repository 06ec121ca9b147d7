// Package cache persists raw record collections as local JSON artifacts.
// Each artifact is a pretty-printed UTF-8 JSON list of objects, fully
// rewritten on save. The cache acts as the checkpoint between re-runnable
// extraction phases.
package cache

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ubuntu/decorate"

	"github.com/pokeapi-lab/pokemon-insights/internal/api"
	"github.com/pokeapi-lab/pokemon-insights/internal/fileutils"
)

// Store manages the raw cache artifacts inside one directory.
type Store struct {
	dir string

	log *slog.Logger
}

// New returns a new Store over dir, creating it if needed.
func New(l *slog.Logger, dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("could not create cache directory: %v", err)
	}
	return &Store{dir: dir, log: l}, nil
}

// Dir returns the directory the store persists into.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the on-disk path of the named artifact.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Exists reports whether the named artifact is present.
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.Path(name))
	return err == nil
}

// Load reads the named artifact.
func (s *Store) Load(name string) (records []api.Record, err error) {
	defer decorate.OnError(&err, "could not load cache artifact %s", name)

	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}

	s.log.Debug("Loaded cache artifact", "file", name, "records", len(records))
	return records, nil
}

// Save writes the named artifact atomically, replacing it if it exists.
func (s *Store) Save(name string, records []api.Record) (err error) {
	defer decorate.OnError(&err, "could not save cache artifact %s", name)

	if records == nil {
		records = []api.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}

	if err := fileutils.AtomicWrite(s.Path(name), append(data, '\n')); err != nil {
		return err
	}

	s.log.Debug("Saved cache artifact", "file", name, "records", len(records))
	return nil
}
