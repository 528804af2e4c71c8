package errors

import (
	"fmt"
	"strings"
)

// ErrLocalWorldMissing is returned when an operation needs the local copy of
// a world and it isn't in the game-data directory.
var ErrLocalWorldMissing = New("world does not exist locally")

// MissingFieldError represents a missing required field.
type MissingFieldError struct {
	Field string
}

func (err MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", err.Field)
}

// FileNotFound represents when we were unable to access a file
// because the path didn't exist.
type FileNotFound struct {
	Path string
}

func (err FileNotFound) Error() string {
	return fmt.Sprintf("%q does not exist", err.Path)
}

// NotFound represents a world or machine that is absent where it's required.
type NotFound struct {
	Kind string
	Name string
}

func (err NotFound) Error() string {
	return fmt.Sprintf("%s %q not found", err.Kind, err.Name)
}

// SourceNotFound is returned by a pull when the snapshot payload of the
// publishing machine is missing from the shared folder. This can also happen
// while the shared folder is still replicating a partial copy.
type SourceNotFound struct {
	World   string
	Machine string
	Path    string
}

func (err SourceNotFound) Error() string {
	return fmt.Sprintf("snapshot of world %q published by %q not found at %q",
		err.World, err.Machine, err.Path)
}

// PeerRecordNotFound is returned when a machine chosen to resolve a conflict
// has no readable commit record for the world.
type PeerRecordNotFound struct {
	World   string
	Machine string
}

func (err PeerRecordNotFound) Error() string {
	return fmt.Sprintf("no commit record for world %q on machine %q",
		err.World, err.Machine)
}

// CopyFailure describes a single path that couldn't be copied.
type CopyFailure struct {
	Path string
	Err  error
}

// CopyError aggregates every failure from a directory tree copy. The copy
// attempts every item before returning it.
type CopyError struct {
	Failures []CopyFailure
}

func (err CopyError) Error() string {
	var msgs []string
	for _, f := range err.Failures {
		msgs = append(msgs, fmt.Sprintf("%s: %s", f.Path, f.Err))
	}
	return fmt.Sprintf("failed to copy %d item(s): %s",
		len(err.Failures), strings.Join(msgs, "; "))
}

// CorruptRecord is returned when a shared record exists but can't be parsed.
// It may have been partially written by another machine.
type CorruptRecord struct {
	Path string
	Err  error
}

func (err CorruptRecord) Error() string {
	return fmt.Sprintf("%q is corrupt: %s", err.Path, err.Err)
}

// FriendlyMessage implements the friendly error interface, since the only
// fix is for the user to inspect the file.
func (err CorruptRecord) FriendlyMessage() string {
	return fmt.Sprintf("%s couldn't be parsed (%s).\n"+
		"It may still be syncing from another machine. If it stays broken, "+
		"restore it from the shared folder's version history.", err.Path, err.Err)
}

func (err CorruptRecord) Unwrap() error {
	return err.Err
}
