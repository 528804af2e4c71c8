// Package mods reads the shared catalog of game mods. Syncing mods between
// machines isn't implemented yet, so the catalog is read-only.
package mods

import (
	"path/filepath"
	"sort"

	"github.com/spf13/afero"

	"github.com/sidkik/worldsync/pkg/store"
)

const (
	// DirName is the directory within the shared root holding mods.
	DirName = "mods"

	// CatalogFileName is the name of the catalog within DirName.
	CatalogFileName = "mods.json"

	// StatusInDevelopment is reported until mod syncing is supported.
	StatusInDevelopment = "in_development"
)

// Catalog is the shared list of mods, keyed by name. The mod metadata isn't
// interpreted.
type Catalog struct {
	Mods map[string]interface{} `json:"mods"`
}

// Status describes whether mod syncing is available.
type Status struct {
	Status  string
	Message string
}

// Manager reads the mod catalog under a shared root.
type Manager struct {
	store store.Store
	root  string
}

// New returns a Manager for the shared folder at `sharedRoot`.
func New(fs afero.Fs, sharedRoot string) Manager {
	return Manager{store: store.New(fs), root: sharedRoot}
}

// CatalogPath returns the path of the mod catalog.
func (m Manager) CatalogPath() string {
	return filepath.Join(m.root, DirName, CatalogFileName)
}

// Status reports whether mod syncing is available.
func (m Manager) Status() Status {
	return Status{
		Status:  StatusInDevelopment,
		Message: "Mod management is still in development.",
	}
}

// Available returns the sorted names of the mods in the catalog. A missing or
// corrupt catalog has no mods.
func (m Manager) Available() []string {
	catalog := Catalog{Mods: map[string]interface{}{}}
	m.store.Load(m.CatalogPath(), &catalog)

	var names []string
	for name := range catalog.Mods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
