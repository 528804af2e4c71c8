package sync

import (
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"

	"github.com/sidkik/worldsync/pkg/diff"
	"github.com/sidkik/worldsync/pkg/errors"
	"github.com/sidkik/worldsync/pkg/ledger"
)

// ConflictKind is the reason that a world is considered diverged.
type ConflictKind string

const (
	// BaseCommitMismatch means that the local copy wasn't derived from the
	// currently published commit.
	BaseCommitMismatch ConflictKind = "base_commit_mismatch"

	// ParallelCommits means that another machine published a different commit
	// from the same base commit as this machine.
	ParallelCommits ConflictKind = "parallel_commits"
)

// Conflict describes one way that a world has diverged.
type Conflict struct {
	Kind    ConflictKind
	Message string

	// Machine and Record are only set for ParallelCommits, and identify the
	// peer that advanced in parallel.
	Machine string
	Record  *ledger.CommitRecord
}

// State summarizes a world's Status for a single machine.
type State int

const (
	// Absent means there's no local copy of the world.
	Absent State = iota

	// LocalOnly means there's a local copy, but this machine has never
	// published or pulled it.
	LocalOnly

	// Synced means the local copy derives from the published commit.
	Synced

	// Stale means a newer commit has been published, and the local copy is
	// an unchanged ancestor of it.
	Stale

	// Diverged means there are conflicts that the user must resolve.
	Diverged
)

func (state State) String() string {
	switch state {
	case Absent:
		return "Absent"
	case LocalOnly:
		return "Local-Only"
	case Synced:
		return "Synced"
	case Stale:
		return "Stale"
	case Diverged:
		return "Diverged"
	default:
		return fmt.Sprintf("State(%d)", int(state))
	}
}

// Status is the sync status of a world from the perspective of one machine.
type Status struct {
	World            string
	ExistsLocally    bool
	ExistsInIndex    bool
	HasLatestVersion bool

	// Latest is the index entry for the world. It's nil if the world has
	// never been published.
	Latest *ledger.PointerEntry

	// Local is this machine's commit record for the world, if any.
	Local *ledger.CommitRecord

	Conflicts []Conflict

	// FastForward is whether the published commit descends from the local
	// record's commit, according to the records in the shared folder.
	FastForward bool

	// LocalChanges compares this machine's last published or pulled snapshot
	// against the local copy. It's nil if either is missing.
	LocalChanges *diff.Result

	// Warnings are anomalies in the shared folder that don't prevent syncing,
	// such as a snapshot that's still being replicated.
	Warnings []string
}

// State classifies the status.
func (status Status) State() State {
	switch {
	case !status.ExistsLocally:
		return Absent
	case status.Local == nil:
		return LocalOnly
	case status.isStale():
		return Stale
	case len(status.Conflicts) != 0:
		return Diverged
	case status.HasLatestVersion:
		return Synced
	case !status.ExistsInIndex:
		return LocalOnly
	default:
		return Stale
	}
}

// isStale returns whether the only conflict is that a descendant of an
// unmodified local copy has been published. Pulling is safe in that case.
// If this machine's snapshot is missing, the local copy can't be shown to be
// unmodified, so the status isn't stale.
func (status Status) isStale() bool {
	if status.HasLatestVersion || !status.FastForward || len(status.Conflicts) != 1 {
		return false
	}
	if status.Conflicts[0].Kind != BaseCommitMismatch {
		return false
	}
	return status.LocalChanges != nil && status.LocalChanges.Identical
}

// HasConflicts returns whether any conflicts were detected.
func (status Status) HasConflicts() bool {
	return len(status.Conflicts) != 0
}

// Status inspects the ledger to determine whether the local copy of `world`
// is current. It never modifies the ledger, and reports problems reading the
// shared folder as warnings rather than failing.
//
// Parallel commits are detected only between records that advanced the world.
// A record written by a pull has its base commit equal to its commit, and is
// skipped on both sides: a machine that pulled doesn't conflict with peers
// publishing from the same base, and a peer that pulled doesn't conflict with
// this machine.
func (s *Syncer) Status(world string) Status {
	status := Status{
		World:         world,
		ExistsLocally: s.existsLocally(world),
	}

	if rec, ok := s.ledger.Record(s.machine, world); ok {
		status.Local = &rec
	}
	status.LocalChanges = s.localChanges(world)

	latest, ok := s.ledger.Entry(world)
	if !ok {
		return status
	}
	status.ExistsInIndex = true
	status.Latest = &latest
	status.Warnings = s.checkPublisher(world, latest)

	// Without a local record, there's no lineage to compare against.
	local := status.Local
	if local == nil {
		return status
	}

	if local.Matches(latest) {
		status.HasLatestVersion = true
	} else if local.BaseCommit != latest.CommitID {
		status.Conflicts = append(status.Conflicts, Conflict{
			Kind: BaseCommitMismatch,
			Message: fmt.Sprintf("The local version is based on commit %s, "+
				"but the latest version is commit %s", local.BaseCommit, latest.CommitID),
		})
	}

	peers, err := s.ledger.PeerRecords(s.machine, world)
	if err != nil {
		log.WithError(err).WithField("world", world).Warn("Failed to read peer records")
		status.Warnings = append(status.Warnings, fmt.Sprintf("Failed to read peer records: %s", err))
		return status
	}
	status.Conflicts = append(status.Conflicts, parallelCommits(*local, peers)...)

	all := map[string]ledger.CommitRecord{s.machine: *local}
	for machine, rec := range peers {
		all[machine] = rec
	}
	status.FastForward = !status.HasLatestVersion &&
		ledger.BuildLineage(all).IsAncestor(local.CommitID, latest.CommitID)
	return status
}

// parallelCommits returns a conflict for each peer that advanced the world
// from the same base commit as `local`. Records written by pulls don't
// advance the world, so they never conflict.
func parallelCommits(local ledger.CommitRecord, peers map[string]ledger.CommitRecord) []Conflict {
	if isPull(local) {
		return nil
	}

	var machines []string
	for machine := range peers {
		machines = append(machines, machine)
	}
	sort.Strings(machines)

	var conflicts []Conflict
	for _, machine := range machines {
		peer := peers[machine]
		if isPull(peer) {
			continue
		}

		if peer.BaseCommit == local.BaseCommit &&
			peer.CommitID != local.CommitID &&
			peer.Timestamp != local.Timestamp {
			conflicts = append(conflicts, Conflict{
				Kind: ParallelCommits,
				Message: fmt.Sprintf("Machine %s has a different version "+
					"based on the same base commit", machine),
				Machine: machine,
				Record:  &peer,
			})
		}
	}
	return conflicts
}

func isPull(rec ledger.CommitRecord) bool {
	return !rec.BaseCommit.IsZero() && rec.BaseCommit == rec.CommitID
}

// checkPublisher returns warnings if the publisher's record or snapshot
// doesn't agree with the index. This is expected while the shared folder is
// replicating, or if two machines wrote the index at the same time.
func (s *Syncer) checkPublisher(world string, latest ledger.PointerEntry) []string {
	var warnings []string
	rec, ok := s.ledger.Record(latest.MachineID, world)
	switch {
	case !ok:
		warnings = append(warnings, fmt.Sprintf(
			"The publisher %s has no commit record for the latest version", latest.MachineID))
	case !rec.Matches(latest):
		warnings = append(warnings, fmt.Sprintf(
			"The publisher %s's commit record (%s at %s) doesn't match the latest version (%s at %s)",
			latest.MachineID, rec.CommitID, rec.Timestamp, latest.CommitID, latest.Timestamp))
	}

	if !s.ledger.HasSnapshot(latest.MachineID, world) {
		warnings = append(warnings, fmt.Sprintf(
			"The snapshot published by %s is missing from the shared folder", latest.MachineID))
	}

	for _, w := range warnings {
		log.WithField("world", world).Debug(w)
	}
	return warnings
}

// localChanges compares the local copy against this machine's snapshot in the
// shared folder.
func (s *Syncer) localChanges(world string) *diff.Result {
	if !s.ledger.HasSnapshot(s.machine, world) || !s.existsLocally(world) {
		return nil
	}

	res := s.comparer.Compare(s.ledger.SnapshotDir(s.machine, world), s.LocalDir(world))
	return &res
}

// Compare compares `machine`'s snapshot of `world` against the local copy.
// The snapshot is the first directory of the result.
func (s *Syncer) Compare(world, machine string) (diff.Result, error) {
	if !s.ledger.HasSnapshot(machine, world) {
		path := s.ledger.SnapshotDir(machine, world)
		return diff.Result{}, errors.SourceNotFound{World: world, Machine: machine, Path: path}
	}
	if !s.existsLocally(world) {
		return diff.Result{}, errors.ErrLocalWorldMissing
	}
	return s.comparer.Compare(s.ledger.SnapshotDir(machine, world), s.LocalDir(world)), nil
}
