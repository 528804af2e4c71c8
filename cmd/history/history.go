package history

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sidkik/worldsync/cmd/util"
	"github.com/sidkik/worldsync/pkg/errors"
	"github.com/sidkik/worldsync/pkg/ledger"
)

// Mocked out for unit testing.
var stdout io.Writer = os.Stdout

// New creates a new `history` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "history WORLD",
		Short: "Show the commits that led to the latest version of a world",
		Long: "Show the commits that led to the latest version of WORLD, as far " +
			"back as\nthe commit records in the shared folder go.",
		Args: cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			env, err := util.NewEnv()
			if err != nil {
				util.HandleFatalError(err)
			}

			if err := run(env.Syncer.Ledger(), args[0]); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
}

func run(l *ledger.Ledger, world string) error {
	records, err := l.PeerRecords("", world)
	if err != nil {
		return errors.WithContext(err, "read commit records")
	}

	latest, published := l.Entry(world)
	if !published && len(records) == 0 {
		return errors.NewFriendlyError("%s has never been published.", world)
	}

	lineage := ledger.BuildLineage(records)
	comments := map[ledger.CommitID]string{}
	for _, rec := range records {
		if !isPull(rec) || comments[rec.CommitID] == "" {
			comments[rec.CommitID] = rec.Comment
		}
	}

	if published {
		fmt.Fprintf(stdout, "Latest version of %s: %s by %s at %s\n",
			world, latest.CommitID, latest.MachineID, latest.Timestamp)
		if latest.Comment != "" {
			comments[latest.CommitID] = latest.Comment
		}

		w := tabwriter.NewWriter(stdout, 0, 10, 2, ' ', 0)
		fmt.Fprintln(w, "COMMIT\tHELD BY\tCOMMENT")
		commits := append([]ledger.CommitID{latest.CommitID}, lineage.Ancestors(latest.CommitID)...)
		for _, id := range commits {
			fmt.Fprintf(w, "%s\t%s\t%s\n", id, holders(lineage, id), comments[id])
		}
		w.Flush()
	} else {
		fmt.Fprintf(stdout, "%s isn't in the sync index.\n", world)
	}

	heads := lineage.Heads()
	if len(heads) > 1 {
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, "History has forked. The latest commit of each branch is:")
		for _, head := range heads {
			fmt.Fprintf(stdout, "  %s (%s)\n", head, holders(lineage, head))
		}
	}
	return nil
}

func holders(lineage ledger.Lineage, id ledger.CommitID) string {
	machines := lineage.Publishers(id)
	if len(machines) == 0 {
		return "-"
	}
	return strings.Join(machines, ", ")
}

func isPull(rec ledger.CommitRecord) bool {
	return !rec.BaseCommit.IsZero() && rec.BaseCommit == rec.CommitID
}
