package ledger

import (
	"sort"
)

// Lineage is the directed graph of commits, where each commit points at the
// commit it was derived from. History is currently linear, so each commit has
// at most one parent.
type Lineage struct {
	parents map[CommitID]CommitID

	// Publishers maps each commit to the machines whose records name it.
	publishers map[CommitID][]string
}

// BuildLineage builds the lineage from the commit records of every machine,
// keyed by machine ID.
func BuildLineage(records map[string]CommitRecord) Lineage {
	lineage := Lineage{
		parents:    map[CommitID]CommitID{},
		publishers: map[CommitID][]string{},
	}

	var machines []string
	for machine := range records {
		machines = append(machines, machine)
	}
	sort.Strings(machines)

	for _, machine := range machines {
		rec := records[machine]
		lineage.publishers[rec.CommitID] = append(lineage.publishers[rec.CommitID], machine)

		// A pulled record names the same commit as its own base. That's not an
		// edge.
		if rec.BaseCommit.IsZero() || rec.BaseCommit == rec.CommitID {
			if _, ok := lineage.parents[rec.CommitID]; !ok {
				lineage.parents[rec.CommitID] = ""
			}
			continue
		}
		lineage.parents[rec.CommitID] = rec.BaseCommit
	}
	return lineage
}

// Parent returns the commit `id` was derived from.
func (l Lineage) Parent(id CommitID) (CommitID, bool) {
	parent, ok := l.parents[id]
	if !ok || parent.IsZero() {
		return "", false
	}
	return parent, true
}

// Ancestors returns the ancestors of `id`, nearest first. Commits whose
// records are no longer in the shared folder end the walk.
func (l Lineage) Ancestors(id CommitID) []CommitID {
	var ancestors []CommitID
	seen := map[CommitID]bool{id: true}
	for {
		parent, ok := l.Parent(id)
		if !ok || seen[parent] {
			return ancestors
		}
		seen[parent] = true
		ancestors = append(ancestors, parent)
		id = parent
	}
}

// IsAncestor returns whether `ancestor` is a strict ancestor of `id`.
func (l Lineage) IsAncestor(ancestor, id CommitID) bool {
	for _, a := range l.Ancestors(id) {
		if a == ancestor {
			return true
		}
	}
	return false
}

// Publishers returns the machines whose records name `id`.
func (l Lineage) Publishers(id CommitID) []string {
	return l.publishers[id]
}

// Heads returns the sorted commits that no other known commit derives from.
// More than one head means history has forked.
func (l Lineage) Heads() []CommitID {
	hasChild := map[CommitID]bool{}
	for _, parent := range l.parents {
		if !parent.IsZero() {
			hasChild[parent] = true
		}
	}

	var heads []CommitID
	for id := range l.parents {
		if !hasChild[id] {
			heads = append(heads, id)
		}
	}
	sort.Slice(heads, func(i, j int) bool { return heads[i] < heads[j] })
	return heads
}
