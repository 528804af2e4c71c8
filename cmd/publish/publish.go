package publish

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sidkik/worldsync/cmd/status"
	"github.com/sidkik/worldsync/cmd/util"
	"github.com/sidkik/worldsync/pkg/sync"
)

// Mocked out for unit testing.
var (
	stdout        io.Writer = os.Stdout
	promptYesOrNo           = util.PromptYesOrNo
)

// New creates a new `publish` command.
func New() *cobra.Command {
	var comment string
	var yes bool
	cmd := &cobra.Command{
		Use:   "publish WORLD",
		Short: "Upload the local copy of a world as the latest version",
		Long: "Upload the local copy of a world as the latest version.\n" +
			"The last machine to publish wins, so publishing over a newer " +
			"version asks for confirmation.",
		Args: cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			env, err := util.NewEnv()
			if err != nil {
				util.HandleFatalError(err)
			}

			if err := run(env.Syncer, args[0], comment, yes); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().StringVarP(&comment, "message", "m", "",
		fmt.Sprintf("A description of the changes (default %q)", sync.DefaultPublishComment))
	cmd.Flags().BoolVarP(&yes, "yes", "y", false,
		"Publish without confirming, even if a newer version would be overwritten")
	return cmd
}

func run(s *sync.Syncer, world, comment string, yes bool) error {
	st := s.Status(world)
	if reason, risky := isRisky(st); risky && !yes {
		status.Print(stdout, st)
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, reason)

		ok, err := promptYesOrNo("Publish anyway?")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(stdout, "Aborted.")
			return nil
		}
	}

	return util.CheckResult(s.Publish(world, comment))
}

// isRisky returns whether publishing would hide a version that this machine
// hasn't seen.
func isRisky(st sync.Status) (string, bool) {
	switch st.State() {
	case sync.Stale:
		return "A newer version has been published by " + st.Latest.MachineID +
			". Pull it first to avoid overwriting it.", true
	case sync.Diverged:
		return "Another machine has changed this world since this copy was pulled.", true
	}

	// Publishing a world that another machine already published, without
	// ever pulling it, replaces that machine's version.
	if st.ExistsLocally && st.Local == nil && st.ExistsInIndex {
		return "This world was already published by " + st.Latest.MachineID +
			", but this machine has never pulled it.", true
	}
	return "", false
}
