// Package ledger stores the commit history that lets machines share worlds
// through a passively synchronized folder.
//
// The shared folder is laid out as:
//
//	world_sync/mundos.json                                      the index
//	world_sync/<machine>/<world>/control.json                   commit records
//	world_sync/<machine>/<world>/minecraft_saves_data/          snapshots
//
// The ledger is pure storage. It doesn't decide who's up to date.
package ledger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/worldsync/pkg/errors"
	"github.com/sidkik/worldsync/pkg/store"
)

const (
	// SyncDirName is the directory within the shared root holding the ledger.
	SyncDirName = "world_sync"

	// IndexFileName is the name of the index within SyncDirName.
	IndexFileName = "mundos.json"

	// RecordFileName is the name of a machine's commit record for a world.
	RecordFileName = "control.json"

	// SnapshotDirName is the name of the directory holding a world's snapshot
	// payload next to its commit record.
	SnapshotDirName = "minecraft_saves_data"
)

// Ledger reads and writes the index and commit records under a shared root.
type Ledger struct {
	fs    afero.Fs
	store store.Store
	root  string
}

// New returns a Ledger for the shared folder at `sharedRoot`.
func New(fs afero.Fs, sharedRoot string) *Ledger {
	return &Ledger{fs: fs, store: store.New(fs), root: sharedRoot}
}

// SyncDir returns the path of the ledger directory.
func (l *Ledger) SyncDir() string {
	return filepath.Join(l.root, SyncDirName)
}

// IndexPath returns the path of the index.
func (l *Ledger) IndexPath() string {
	return filepath.Join(l.SyncDir(), IndexFileName)
}

// MachineDir returns the directory owned by `machine`.
func (l *Ledger) MachineDir(machine string) string {
	return filepath.Join(l.SyncDir(), machine)
}

// RecordPath returns the path of `machine`'s commit record for `world`.
func (l *Ledger) RecordPath(machine, world string) string {
	return filepath.Join(l.MachineDir(machine), world, RecordFileName)
}

// SnapshotDir returns the directory holding `machine`'s snapshot of `world`.
func (l *Ledger) SnapshotDir(machine, world string) string {
	return filepath.Join(l.MachineDir(machine), world, SnapshotDirName)
}

// rawIndex is the index with its entries left undecoded, so that entries
// this machine can't parse are written back untouched.
type rawIndex struct {
	Worlds map[string]json.RawMessage `json:"mundos"`
}

// loadIndex reads the index file. A missing index is empty. An index that
// exists but can't be read or parsed is an error, since writing over it would
// drop every other world.
func (l *Ledger) loadIndex() (rawIndex, error) {
	path := l.IndexPath()
	raw := rawIndex{Worlds: map[string]json.RawMessage{}}

	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return raw, nil
		}
		return rawIndex{}, errors.WithContext(err, "read index")
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return rawIndex{}, errors.CorruptRecord{Path: path, Err: err}
	}
	if raw.Worlds == nil {
		raw.Worlds = map[string]json.RawMessage{}
	}
	return raw, nil
}

// CheckIndex returns an error if the index exists but can't be read or
// parsed, in which case PutEntry refuses to write.
func (l *Ledger) CheckIndex() error {
	_, err := l.loadIndex()
	return err
}

// Index reads the index. A missing or corrupt index reads as empty. Entries
// that can't be parsed, or that have no commit ID, are dropped individually,
// since they can only come from a torn write or a newer client.
func (l *Ledger) Index() Index {
	index := Index{Worlds: map[string]PointerEntry{}}

	raw, err := l.loadIndex()
	if err != nil {
		log.WithError(err).Warn("Failed to load index. Treating it as empty.")
		return index
	}

	for world, data := range raw.Worlds {
		var entry PointerEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			log.WithError(err).WithField("world", world).Warn("Ignoring unparseable index entry")
			continue
		}

		if entry.CommitID.IsZero() {
			log.WithField("world", world).Warn(
				"Ignoring index entry without a commit ID. It may have been partially written.")
			continue
		}
		index.Worlds[world] = entry
	}
	return index
}

// Entry returns the index entry for `world`.
func (l *Ledger) Entry(world string) (PointerEntry, bool) {
	entry, ok := l.Index().Worlds[world]
	return entry, ok
}

// Worlds returns the sorted names of the worlds in the index.
func (l *Ledger) Worlds() []string {
	var worlds []string
	for world := range l.Index().Worlds {
		worlds = append(worlds, world)
	}
	sort.Strings(worlds)
	return worlds
}

// PutEntry upserts the index entry for `world`. The other entries are written
// back as they were read, including ones that can't be parsed. If the index
// exists but can't be parsed, nothing is written.
//
// The index is shared by every machine without any locking, so it's re-read
// immediately before the write, and read back afterwards. If another machine
// overwrote the entry in between, its write wins and a warning is logged.
func (l *Ledger) PutEntry(world string, entry PointerEntry) error {
	if entry.CommitID.IsZero() {
		return errors.MissingFieldError{Field: "commit_id"}
	}

	raw, err := l.loadIndex()
	if err != nil {
		return err
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return errors.WithContext(err, "marshal index entry")
	}
	raw.Worlds[world] = data
	if err := l.store.Save(l.IndexPath(), raw); err != nil {
		return errors.WithContext(err, "save index")
	}

	if actual, ok := l.Entry(world); !ok || actual.CommitID != entry.CommitID {
		log.WithFields(log.Fields{
			"world":  world,
			"commit": entry.CommitID,
			"actual": actual.CommitID,
		}).Warn("The index entry was overwritten by another machine immediately after it was written")
	}
	return nil
}

// Record returns `machine`'s commit record for `world`. A missing, corrupt,
// or commit-less record reads as absent.
func (l *Ledger) Record(machine, world string) (CommitRecord, bool) {
	var rec CommitRecord
	if !l.store.Load(l.RecordPath(machine, world), &rec) {
		return CommitRecord{}, false
	}

	if rec.CommitID.IsZero() {
		log.WithFields(log.Fields{
			"machine": machine,
			"world":   world,
		}).Warn("Ignoring commit record without a commit ID")
		return CommitRecord{}, false
	}
	return rec, true
}

// PutRecord upserts `machine`'s commit record for `world`.
func (l *Ledger) PutRecord(machine, world string, rec CommitRecord) error {
	if rec.CommitID.IsZero() {
		return errors.MissingFieldError{Field: "commit_id"}
	}

	if err := l.store.Save(l.RecordPath(machine, world), rec); err != nil {
		return errors.WithContext(err, "save commit record")
	}
	return nil
}

// Machines returns the sorted IDs of every machine with a directory in the
// ledger.
func (l *Ledger) Machines() ([]string, error) {
	infos, err := afero.ReadDir(l.fs, l.SyncDir())
	if err != nil {
		return nil, errors.WithContext(err, "list machines")
	}

	var machines []string
	for _, fi := range infos {
		if fi.IsDir() {
			machines = append(machines, fi.Name())
		}
	}
	return machines, nil
}

// HasMachine returns whether `machine` has a directory in the ledger.
func (l *Ledger) HasMachine(machine string) bool {
	exists, err := afero.DirExists(l.fs, l.MachineDir(machine))
	return err == nil && exists
}

// HasSnapshot returns whether `machine` has a snapshot payload for `world`.
func (l *Ledger) HasSnapshot(machine, world string) bool {
	exists, err := afero.DirExists(l.fs, l.SnapshotDir(machine, world))
	return err == nil && exists
}

// EnsureMachineDir creates the ledger directory owned by `machine`.
func (l *Ledger) EnsureMachineDir(machine string) error {
	return l.fs.MkdirAll(l.MachineDir(machine), 0755)
}

// PeerRecords returns the commit records for `world` of every machine other
// than `self`, keyed by machine ID.
func (l *Ledger) PeerRecords(self, world string) (map[string]CommitRecord, error) {
	machines, err := l.Machines()
	if err != nil {
		return nil, err
	}

	peers := map[string]CommitRecord{}
	for _, machine := range machines {
		if machine == self {
			continue
		}
		if rec, ok := l.Record(machine, world); ok {
			peers[machine] = rec
		}
	}
	return peers, nil
}
