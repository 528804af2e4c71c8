// Package store loads and saves the JSON records that make up the shared
// ledger.
//
// Reads never fail: a missing or corrupt record leaves the caller's default in
// place and the failure is logged, so status queries stay non-throwing. Writes
// aren't atomic or locked. Every machine owns its own subtree of the shared
// folder, except for the world index, which callers must treat as though it
// could be overwritten at any time.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/worldsync/pkg/errors"
)

// Store reads and writes records on a filesystem.
type Store struct {
	fs afero.Fs
}

// New returns a Store backed by fs.
func New(fs afero.Fs) Store {
	return Store{fs: fs}
}

// Load parses the JSON record at `path` into `dst`. It returns false, leaving
// `dst` untouched, if the file doesn't exist or can't be parsed.
func (s Store) Load(path string, dst interface{}) bool {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			log.WithField("path", path).Debug("Record doesn't exist. Using default.")
			return false
		}
		log.WithError(err).WithField("path", path).Warn("Failed to read record. Using default.")
		return false
	}

	// Decode into a fresh value so that a record that fails halfway through
	// parsing doesn't leave `dst` partially overwritten.
	dstVal := reflect.ValueOf(dst)
	if dstVal.Kind() != reflect.Ptr || dstVal.IsNil() {
		log.WithField("path", path).Error("Record destination must be a non-nil pointer")
		return false
	}

	scratch := reflect.New(dstVal.Elem().Type())
	if err := json.Unmarshal(data, scratch.Interface()); err != nil {
		log.WithError(err).WithField("path", path).Warn("Failed to parse record. Using default.")
		return false
	}
	dstVal.Elem().Set(scratch.Elem())
	return true
}

// Save writes `record` to `path` as indented JSON, creating any missing
// parent directories.
func (s Store) Save(path string, record interface{}) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return errors.WithContext(err, "marshal")
	}
	data = append(data, '\n')

	if err := s.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.WithContext(err, "make parent")
	}

	if err := afero.WriteFile(s.fs, path, data, 0644); err != nil {
		return errors.WithContext(err, "write")
	}
	return nil
}

// Exists returns whether a regular file exists at `path`.
func (s Store) Exists(path string) bool {
	fi, err := s.fs.Stat(path)
	return err == nil && !fi.IsDir()
}
