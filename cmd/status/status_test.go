package status

import (
	"bytes"
	"testing"

	"github.com/buger/goterm"
	"github.com/stretchr/testify/assert"

	"github.com/sidkik/worldsync/pkg/diff"
	"github.com/sidkik/worldsync/pkg/ledger"
	"github.com/sidkik/worldsync/pkg/sync"
)

func TestPrint(t *testing.T) {
	tests := []struct {
		name        string
		status      sync.Status
		expContains []string
		expMissing  []string
	}{
		{
			name:   "NeverPublished",
			status: sync.Status{World: "Skyblock", ExistsLocally: true},
			expContains: []string{
				"World:",
				"Skyblock",
				goterm.Color("Local-Only", goterm.YELLOW),
				"never published",
			},
			expMissing: []string{"Local version:", "Conflicts:", "Warnings:"},
		},
		{
			name: "Diverged",
			status: sync.Status{
				World:         "Skyblock",
				ExistsLocally: true,
				ExistsInIndex: true,
				Latest: &ledger.PointerEntry{
					CommitID:  "abc123",
					MachineID: "M2",
					Timestamp: "2024-01-01 10:00:00",
					Comment:   "Update",
				},
				Local: &ledger.CommitRecord{
					CommitID:   "def456",
					BaseCommit: "000111",
					Timestamp:  "2024-01-01 09:00:00",
					Comment:    "Built a house",
				},
				Conflicts: []sync.Conflict{{
					Kind:    sync.BaseCommitMismatch,
					Message: "mismatch",
				}},
				LocalChanges: &diff.Result{ModifiedFiles: []string{"level.dat"}},
				Warnings:     []string{"still syncing"},
			},
			expContains: []string{
				goterm.Color("Diverged", goterm.RED),
				"abc123 from M2 at 2024-01-01 10:00:00 (Update)",
				"def456 based on 000111 at 2024-01-01 09:00:00 (Built a house)",
				"1 modified",
				"[base_commit_mismatch] mismatch",
				"still syncing",
			},
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			var out bytes.Buffer
			Print(&out, test.status)
			for _, exp := range test.expContains {
				assert.Contains(t, out.String(), exp)
			}
			for _, exp := range test.expMissing {
				assert.NotContains(t, out.String(), exp)
			}
		})
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, goterm.Color("Synced", goterm.GREEN), StateString(sync.Synced))
	assert.Equal(t, "Absent", StateString(sync.Absent))
}
