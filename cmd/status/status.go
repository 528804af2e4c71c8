package status

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/buger/goterm"
	"github.com/spf13/cobra"

	"github.com/sidkik/worldsync/cmd/util"
	"github.com/sidkik/worldsync/pkg/sync"
)

// New creates a new `status` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "status WORLD",
		Short: "Show whether the local copy of a world is up to date",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			env, err := util.NewEnv()
			if err != nil {
				util.HandleFatalError(err)
			}
			Print(os.Stdout, env.Syncer.Status(args[0]))
		},
	}
}

// StateString returns the state colored by how urgently the user needs to
// act.
func StateString(state sync.State) string {
	switch state {
	case sync.Synced:
		return goterm.Color(state.String(), goterm.GREEN)
	case sync.Stale, sync.LocalOnly:
		return goterm.Color(state.String(), goterm.YELLOW)
	case sync.Diverged:
		return goterm.Color(state.String(), goterm.RED)
	default:
		return state.String()
	}
}

// Print writes a human readable description of `status`.
func Print(out io.Writer, status sync.Status) {
	w := tabwriter.NewWriter(out, 0, 10, 2, ' ', 0)
	fmt.Fprintf(w, "World:\t%s\n", status.World)
	fmt.Fprintf(w, "State:\t%s\n", StateString(status.State()))

	if latest := status.Latest; latest != nil {
		fmt.Fprintf(w, "Latest version:\t%s from %s at %s (%s)\n",
			latest.CommitID, latest.MachineID, latest.Timestamp, latest.Comment)
	} else {
		fmt.Fprintf(w, "Latest version:\tnever published\n")
	}

	if local := status.Local; local != nil {
		fmt.Fprintf(w, "Local version:\t%s based on %s at %s (%s)\n",
			local.CommitID, local.BaseCommit, local.Timestamp, local.Comment)
	}

	if status.LocalChanges != nil {
		fmt.Fprintf(w, "Local changes:\t%s\n", status.LocalChanges.Summary())
	}
	w.Flush()

	if len(status.Conflicts) != 0 {
		fmt.Fprintln(out, goterm.Color("Conflicts:", goterm.RED))
		for _, c := range status.Conflicts {
			fmt.Fprintf(out, "  [%s] %s\n", c.Kind, c.Message)
		}
	}

	if len(status.Warnings) != 0 {
		fmt.Fprintln(out, goterm.Color("Warnings:", goterm.YELLOW))
		for _, warning := range status.Warnings {
			fmt.Fprintf(out, "  %s\n", warning)
		}
	}
}
