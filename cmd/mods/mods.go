package mods

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/sidkik/worldsync/cmd/util"
	"github.com/sidkik/worldsync/pkg/mods"
)

// Mocked out for unit testing.
var stdout io.Writer = os.Stdout

// New creates a new `mods` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "mods",
		Short: "List the mods in the shared mod catalog",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			env, err := util.NewEnv()
			if err != nil {
				util.HandleFatalError(err)
			}

			run(mods.New(afero.NewOsFs(), env.Paths.SharedRoot))
		},
	}
}

func run(m mods.Manager) {
	fmt.Fprintf(stdout, "Mod syncing: %s\n", m.Status().Message)

	available := m.Available()
	if len(available) == 0 {
		fmt.Fprintf(stdout, "No mods found in %s.\n", m.CatalogPath())
		return
	}

	fmt.Fprintln(stdout, "Available mods:")
	for _, name := range available {
		fmt.Fprintf(stdout, "  %s\n", name)
	}
}
