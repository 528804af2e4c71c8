package worlds

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sidkik/worldsync/cmd/util"
	"github.com/sidkik/worldsync/pkg/errors"
	"github.com/sidkik/worldsync/pkg/sync"
)

// Mocked out for unit testing.
var stdout io.Writer = os.Stdout

// New creates a new `worlds` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "worlds",
		Short: "List the published and local worlds",
		Run: func(_ *cobra.Command, _ []string) {
			env, err := util.NewEnv()
			if err != nil {
				util.HandleFatalError(err)
			}

			if err := run(env.Syncer); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
}

func run(s *sync.Syncer) error {
	worlds, err := s.Worlds()
	if err != nil {
		return errors.WithContext(err, "list worlds")
	}

	if len(worlds) == 0 {
		fmt.Fprintln(stdout, "No worlds found.")
		return nil
	}

	w := tabwriter.NewWriter(stdout, 0, 10, 5, ' ', 0)
	defer w.Flush()
	fmt.Fprintln(w, "WORLD\tSTATE\tPUBLISHED BY\tPUBLISHED AT\tCOMMENT")
	for _, world := range worlds {
		status := s.Status(world.Name)
		publisher, publishedAt, comment := "-", "-", "-"
		if status.Latest != nil {
			publisher = status.Latest.MachineID
			publishedAt = string(status.Latest.Timestamp)
			comment = status.Latest.Comment
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			world.Name, status.State(), publisher, publishedAt, comment)
	}
	return nil
}
