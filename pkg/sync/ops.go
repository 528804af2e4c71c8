package sync

import (
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/worldsync/pkg/errors"
	"github.com/sidkik/worldsync/pkg/ledger"
)

// Pull replaces the local copy of `world` with the latest published version.
// Any existing local copy is backed up first.
func (s *Syncer) Pull(world string) (Result, error) {
	latest, ok := s.ledger.Entry(world)
	if !ok {
		return Result{Message: "The world isn't in the sync index"},
			errors.NotFound{Kind: "world", Name: world}
	}

	src := s.ledger.SnapshotDir(latest.MachineID, world)
	if !s.ledger.HasSnapshot(latest.MachineID, world) {
		return Result{Message: fmt.Sprintf("The world's data wasn't found in %s. "+
				"The shared folder may still be syncing.", src)},
			errors.SourceNotFound{World: world, Machine: latest.MachineID, Path: src}
	}

	logger := log.WithFields(log.Fields{
		"world":  world,
		"commit": latest.CommitID,
		"from":   latest.MachineID,
	})

	localDir := s.LocalDir(world)
	if s.existsLocally(world) {
		backup, err := s.backup(world)
		if err != nil {
			return Result{Message: "Failed to back up the local world. Nothing was changed."},
				errors.WithContext(err, "back up local world")
		}
		logger.WithField("backup", backup).Info("Backed up local world")
	}

	if err := copyTree(s.fs, src, localDir); err != nil {
		return Result{Message: "Failed to copy the world to the game directory"},
			errors.WithContext(err, "copy to game directory")
	}

	if latest.MachineID != s.machine {
		if err := copyTree(s.fs, src, s.ledger.SnapshotDir(s.machine, world)); err != nil {
			return Result{Message: "Failed to copy the world to this machine's shared folder"},
				errors.WithContext(err, "copy to shared folder")
		}
	}

	rec := ledger.CommitRecord{
		CommitID:          latest.CommitID,
		BaseCommit:        latest.CommitID,
		Comment:           PullComment,
		Timestamp:         s.now(),
		OriginalTimestamp: latest.Timestamp,
	}
	if err := s.ledger.PutRecord(s.machine, world, rec); err != nil {
		return Result{Message: "Failed to save the commit record"}, err
	}

	logger.Info("Pulled world")
	return Result{OK: true, Message: "World downloaded successfully"}, nil
}

// Publish copies the local copy of `world` into the shared folder, and makes
// it the latest version. It doesn't check for conflicts. Callers should
// surface the world's Status to the user before publishing.
func (s *Syncer) Publish(world, comment string) (Result, error) {
	if !s.existsLocally(world) {
		return Result{Message: "The world doesn't exist locally"}, errors.ErrLocalWorldMissing
	}

	// Check before copying, so that a broken index doesn't leave a commit
	// record that nothing points to.
	if err := s.ledger.CheckIndex(); err != nil {
		return Result{Message: "The sync index can't be updated"}, err
	}

	if comment == "" {
		comment = DefaultPublishComment
	}

	var base ledger.CommitID
	if latest, ok := s.ledger.Entry(world); ok {
		base = latest.CommitID
	}
	if local, ok := s.ledger.Record(s.machine, world); ok {
		base = local.CommitID
	}

	commit := ledger.NewCommitID()
	timestamp := s.now()
	logger := log.WithFields(log.Fields{
		"world":  world,
		"commit": commit,
		"base":   base,
	})

	if err := copyTree(s.fs, s.LocalDir(world), s.ledger.SnapshotDir(s.machine, world)); err != nil {
		return Result{Message: "Failed to copy the world to the shared folder"},
			errors.WithContext(err, "copy to shared folder")
	}

	rec := ledger.CommitRecord{
		CommitID:   commit,
		BaseCommit: base,
		Comment:    comment,
		Timestamp:  timestamp,
	}
	if err := s.ledger.PutRecord(s.machine, world, rec); err != nil {
		return Result{Message: "Failed to save the commit record"}, err
	}

	entry := ledger.PointerEntry{
		CommitID:  commit,
		MachineID: s.machine,
		Timestamp: timestamp,
		Comment:   comment,
	}
	if err := s.ledger.PutEntry(world, entry); err != nil {
		return Result{Message: "Failed to update the sync index"}, err
	}

	logger.Info("Published world")
	return Result{OK: true, Message: "World uploaded successfully"}, nil
}

// ResolveConflict makes `machine`'s version of `world` the latest version, and
// pulls it if `machine` isn't this machine.
func (s *Syncer) ResolveConflict(world, machine string) (Result, error) {
	if _, ok := s.ledger.Entry(world); !ok {
		return Result{Message: "The world isn't in the sync index"},
			errors.NotFound{Kind: "world", Name: world}
	}

	if !s.ledger.HasMachine(machine) {
		return Result{Message: fmt.Sprintf("Machine %s wasn't found", machine)},
			errors.NotFound{Kind: "machine", Name: machine}
	}

	chosen, ok := s.ledger.Record(machine, world)
	if !ok {
		return Result{Message: fmt.Sprintf("Machine %s has no commit record for the world", machine)},
			errors.PeerRecordNotFound{World: world, Machine: machine}
	}

	message := ResolveComment(machine)
	entry := ledger.PointerEntry{
		CommitID:  chosen.CommitID,
		MachineID: machine,
		Timestamp: chosen.Timestamp,
		Comment:   message,
	}
	if err := s.ledger.PutEntry(world, entry); err != nil {
		return Result{Message: "Failed to update the sync index"}, err
	}

	log.WithFields(log.Fields{
		"world":   world,
		"machine": machine,
		"commit":  chosen.CommitID,
	}).Info("Resolved conflict")

	if machine != s.machine {
		return s.Pull(world)
	}
	return Result{OK: true, Message: message}, nil
}

// ResolveComment is the comment of the index entries written by
// ResolveConflict.
func ResolveComment(machine string) string {
	return fmt.Sprintf("Conflict resolved: chose version from %s", machine)
}

// backup copies the local copy of `world` to a sibling directory, and returns
// the backup's path.
func (s *Syncer) backup(world string) (string, error) {
	name := world + backupInfix + s.clock.Now().Format(backupTimeLayout)
	path := filepath.Join(s.gameDir, name)
	for i := 2; ; i++ {
		_, err := s.fs.Stat(path)
		if os.IsNotExist(err) {
			break
		}
		if err != nil {
			return "", errors.WithContext(err, "stat backup")
		}
		path = filepath.Join(s.gameDir, fmt.Sprintf("%s_%d", name, i))
	}

	if err := copyTree(s.fs, s.LocalDir(world), path); err != nil {
		// Don't leave a partial backup that looks complete.
		if rmErr := s.fs.RemoveAll(path); rmErr != nil {
			log.WithError(rmErr).WithField("path", path).Warn("Failed to clean up partial backup")
		}
		return "", err
	}
	return path, nil
}

// Backups returns the paths of the backups of `world` made by pulls, oldest
// first.
func (s *Syncer) Backups(world string) ([]string, error) {
	matches, err := afero.Glob(s.fs, filepath.Join(s.gameDir, world+backupInfix+"*"))
	if err != nil {
		return nil, errors.WithContext(err, "list backups")
	}

	var backups []string
	for _, path := range matches {
		if isBackup(filepath.Base(path)) {
			backups = append(backups, path)
		}
	}
	return backups, nil
}
