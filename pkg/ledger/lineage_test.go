package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineage(t *testing.T) {
	// M1 published c1, M2 pulled it and published c2, and M3 pulled c1 and
	// published c3 in parallel.
	lineage := BuildLineage(map[string]CommitRecord{
		"M1": {CommitID: "c1"},
		"M2": {CommitID: "c2", BaseCommit: "c1"},
		"M3": {CommitID: "c3", BaseCommit: "c1"},
		"M4": {CommitID: "c1", BaseCommit: "c1"},
	})

	parent, ok := lineage.Parent("c2")
	assert.True(t, ok)
	assert.Equal(t, CommitID("c1"), parent)

	_, ok = lineage.Parent("c1")
	assert.False(t, ok)

	assert.Equal(t, []CommitID{"c1"}, lineage.Ancestors("c3"))
	assert.Empty(t, lineage.Ancestors("c1"))
	assert.True(t, lineage.IsAncestor("c1", "c2"))
	assert.False(t, lineage.IsAncestor("c2", "c3"))
	assert.False(t, lineage.IsAncestor("c1", "c1"))

	assert.Equal(t, []CommitID{"c2", "c3"}, lineage.Heads())
	assert.Equal(t, []string{"M1", "M4"}, lineage.Publishers("c1"))
}

func TestLineageLinear(t *testing.T) {
	lineage := BuildLineage(map[string]CommitRecord{
		"M1": {CommitID: "c3", BaseCommit: "c2"},
		"M2": {CommitID: "c2", BaseCommit: "c1"},
	})

	// c1's record has been overwritten, but it's still known as a parent.
	assert.Equal(t, []CommitID{"c2", "c1"}, lineage.Ancestors("c3"))
	assert.Equal(t, []CommitID{"c3"}, lineage.Heads())
}

func TestLineageCycle(t *testing.T) {
	lineage := BuildLineage(map[string]CommitRecord{
		"M1": {CommitID: "a", BaseCommit: "b"},
		"M2": {CommitID: "b", BaseCommit: "a"},
	})
	assert.Equal(t, []CommitID{"b"}, lineage.Ancestors("a"))
}
