package diff

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sidkik/worldsync/cmd/util"
	"github.com/sidkik/worldsync/pkg/diff"
	"github.com/sidkik/worldsync/pkg/errors"
	"github.com/sidkik/worldsync/pkg/sync"
)

// Mocked out for unit testing.
var stdout io.Writer = os.Stdout

// New creates a new `diff` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "diff WORLD [MACHINE]",
		Short: "Show how the local copy of a world differs from a published snapshot",
		Long: "Show how the local copy of WORLD differs from MACHINE's snapshot in the\n" +
			"shared folder. MACHINE defaults to the machine that published the latest " +
			"version.",
		Args: cobra.RangeArgs(1, 2),
		Run: func(_ *cobra.Command, args []string) {
			env, err := util.NewEnv()
			if err != nil {
				util.HandleFatalError(err)
			}

			var machine string
			if len(args) == 2 {
				machine = args[1]
			}
			if err := run(env.Syncer, args[0], machine); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
}

func run(s *sync.Syncer, world, machine string) error {
	if machine == "" {
		latest, ok := s.Ledger().Entry(world)
		if !ok {
			return errors.NewFriendlyError("%s has never been published. "+
				"Specify which machine's snapshot to compare against.", world)
		}
		machine = latest.MachineID
	}

	res, err := s.Compare(world, machine)
	if err != nil {
		return errors.WithContext(err, "compare")
	}

	fmt.Fprintf(stdout, "Comparing %s's snapshot against the local copy: %s\n",
		machine, res.Summary())
	if res.Identical {
		return nil
	}

	Print(stdout, res, machine, "local")
	return nil
}

// Print lists the paths in `res`, labelling the two sides of the comparison
// with `nameA` and `nameB`.
func Print(out io.Writer, res diff.Result, nameA, nameB string) {
	w := tabwriter.NewWriter(out, 0, 10, 2, ' ', 0)
	defer w.Flush()

	section := func(label string, paths []string) {
		for _, path := range paths {
			fmt.Fprintf(w, "%s\t%s\n", label, path)
		}
	}
	section("modified:", res.ModifiedFiles)
	section("only in "+nameA+":", res.FilesOnlyInA)
	section("only in "+nameA+":", dirs(res.DirsOnlyInA))
	section("only in "+nameB+":", res.FilesOnlyInB)
	section("only in "+nameB+":", dirs(res.DirsOnlyInB))
	section("file and directory:", res.TypeConflicts)
}

func dirs(paths []string) []string {
	var withSlash []string
	for _, path := range paths {
		withSlash = append(withSlash, path+"/")
	}
	return withSlash
}
