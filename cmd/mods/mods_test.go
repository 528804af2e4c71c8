package mods

import (
	"bytes"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/worldsync/pkg/mods"
)

func TestRun(t *testing.T) {
	tests := []struct {
		name      string
		catalog   string
		expOutput string
	}{
		{
			name: "NoCatalog",
			expOutput: "Mod syncing: Mod management is still in development.\n" +
				"No mods found in /shared/mods/mods.json.\n",
		},
		{
			name:    "Catalog",
			catalog: `{"mods": {"sodium": {}, "lithium": {"version": "0.11"}}}`,
			expOutput: "Mod syncing: Mod management is still in development.\n" +
				"Available mods:\n" +
				"  lithium\n" +
				"  sodium\n",
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			if test.catalog != "" {
				require.NoError(t, afero.WriteFile(fs, "/shared/mods/mods.json",
					[]byte(test.catalog), 0644))
			}

			var out bytes.Buffer
			stdout = &out
			run(mods.New(fs, "/shared"))
			assert.Equal(t, test.expOutput, out.String())
		})
	}
}
