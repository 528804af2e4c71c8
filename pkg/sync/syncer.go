package sync

import (
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/worldsync/pkg/diff"
	"github.com/sidkik/worldsync/pkg/errors"
	"github.com/sidkik/worldsync/pkg/ledger"
)

const (
	// DefaultPublishComment is used when a world is published without a
	// comment.
	DefaultPublishComment = "Update"

	// PullComment is the comment of the commit records written by pulls.
	PullComment = "Downloaded from latest version"

	// backupInfix separates the world name from the timestamp in the names of
	// backups made before a pull.
	backupInfix = "_backup_"

	// backupTimeLayout is filesystem safe on every OS.
	backupTimeLayout = "2006-01-02_15-04-05"
)

// Result is the outcome of a sync operation, in a form that can be shown to
// the user.
type Result struct {
	OK      bool
	Message string
}

// Syncer runs the sync operations for a single machine.
type Syncer struct {
	fs       afero.Fs
	ledger   *ledger.Ledger
	gameDir  string
	machine  string
	clock    clockwork.Clock
	comparer diff.Comparer
}

// New returns a Syncer that syncs the worlds in `gameDir` as `machine`.
func New(fs afero.Fs, l *ledger.Ledger, gameDir, machine string, clock clockwork.Clock) *Syncer {
	return &Syncer{
		fs:       fs,
		ledger:   l,
		gameDir:  gameDir,
		machine:  machine,
		clock:    clock,
		comparer: diff.NewComparer(fs, clock),
	}
}

// Machine returns the ID of the machine the Syncer acts as.
func (s *Syncer) Machine() string {
	return s.machine
}

// Ledger returns the ledger the Syncer reads and writes.
func (s *Syncer) Ledger() *ledger.Ledger {
	return s.ledger
}

// LocalDir returns the path of the local copy of `world`.
func (s *Syncer) LocalDir(world string) string {
	return filepath.Join(s.gameDir, world)
}

func (s *Syncer) existsLocally(world string) bool {
	exists, err := afero.DirExists(s.fs, s.LocalDir(world))
	if err != nil {
		log.WithError(err).WithField("world", world).Warn("Failed to check for local world")
	}
	return exists
}

func (s *Syncer) now() ledger.Timestamp {
	return ledger.NewTimestamp(s.clock.Now())
}

// WorldListing describes a world that is either published or present
// locally.
type WorldListing struct {
	Name string

	// Published is whether the world is in the index.
	Published bool

	// Local is whether the world has a local copy.
	Local bool
}

// Worlds returns every world in either the index or the game-data directory,
// sorted by name. Backups made by pulls aren't included.
func (s *Syncer) Worlds() ([]WorldListing, error) {
	listings := map[string]*WorldListing{}
	get := func(name string) *WorldListing {
		l, ok := listings[name]
		if !ok {
			l = &WorldListing{Name: name}
			listings[name] = l
		}
		return l
	}

	for _, world := range s.ledger.Worlds() {
		get(world).Published = true
	}

	local, err := s.LocalWorlds()
	if err != nil {
		return nil, err
	}
	for _, world := range local {
		get(world).Local = true
	}

	var worlds []WorldListing
	for _, l := range listings {
		worlds = append(worlds, *l)
	}
	sort.Slice(worlds, func(i, j int) bool { return worlds[i].Name < worlds[j].Name })
	return worlds, nil
}

// LocalWorlds returns the sorted names of the worlds in the game-data
// directory.
func (s *Syncer) LocalWorlds() ([]string, error) {
	infos, err := afero.ReadDir(s.fs, s.gameDir)
	if err != nil {
		return nil, errors.WithContext(err, "list local worlds")
	}

	var worlds []string
	for _, fi := range infos {
		if !fi.IsDir() || isBackup(fi.Name()) {
			continue
		}
		worlds = append(worlds, fi.Name())
	}
	return worlds, nil
}

func isBackup(name string) bool {
	idx := strings.LastIndex(name, backupInfix)
	if idx <= 0 {
		return false
	}

	// Backups may have a numeric suffix if two were made in the same second.
	stamp := name[idx+len(backupInfix):]
	if len(stamp) < len(backupTimeLayout) {
		return false
	}
	_, err := time.Parse(backupTimeLayout, stamp[:len(backupTimeLayout)])
	return err == nil
}
