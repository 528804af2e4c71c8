package resolve

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sidkik/worldsync/cmd/util"
	"github.com/sidkik/worldsync/pkg/sync"
)

// Mocked out for unit testing.
var stdout io.Writer = os.Stdout

// New creates a new `resolve` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve WORLD MACHINE",
		Short: "Resolve a conflict by choosing which machine's version wins",
		Long: "Resolve a conflict by making MACHINE's version of WORLD the latest " +
			"version.\nIf MACHINE isn't this machine, its version is pulled.",
		Args: cobra.ExactArgs(2),
		Run: func(_ *cobra.Command, args []string) {
			env, err := util.NewEnv()
			if err != nil {
				util.HandleFatalError(err)
			}

			if err := run(env.Syncer, args[0], args[1]); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
}

func run(s *sync.Syncer, world, machine string) error {
	if machine == s.Machine() {
		fmt.Fprintf(stdout, "Keeping this machine's version of %s.\n", world)
	} else {
		fmt.Fprintf(stdout, "Replacing the local copy of %s with %s's version.\n", world, machine)
	}
	return util.CheckResult(s.ResolveConflict(world, machine))
}
