/*
Package sync implements world syncing between machines that share a passively
replicated folder.

Every machine publishes full snapshots of its worlds into its own directory in
the shared folder, and points the shared index at its latest snapshot. There
is no coordinator and no locking, so:

 1. The index is re-read immediately before every operation, and writes to it
    are last-writer-wins.
 2. Conflicts are advisory. Status reports when two machines advanced a world
    from the same commit, but Publish never refuses to overwrite the index.
 3. A reader can observe a partially copied snapshot. Copies are never
    retried automatically. Failures are reported so the user can retry.

Snapshots are whole directory trees. Nothing is merged at the file level.
*/
package sync
