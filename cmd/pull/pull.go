package pull

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

// New creates a new `pull` command.
func New() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "pull WORLD",
		Short: "Replace the local copy of a world with the latest published version",
		Long: "Replace the local copy of a world with the latest published version.\n" +
			"The local copy is backed up to a sibling directory first.",
		Args: cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			env, err := util.NewEnv()
			if err != nil {
				util.HandleFatalError(err)
			}

			if err := run(env.Syncer, args[0], yes); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false,
		"Pull without confirming, even if local changes would be replaced")
	return cmd
}

func run(s *sync.Syncer, world string, yes bool) error {
	st := s.Status(world)
	if st.HasLatestVersion && !st.HasConflicts() &&
		(st.LocalChanges == nil || st.LocalChanges.Identical) {
		fmt.Fprintln(stdout, "The local copy is already up to date.")
		return nil
	}

	if reason, risky := isRisky(st); risky && !yes {
		status.Print(stdout, st)
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, reason)

		ok, err := promptYesOrNo("Replace the local copy anyway? It will be backed up first.")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(stdout, "Aborted.")
			return nil
		}
	}

	return util.CheckResult(s.Pull(world))
}

// isRisky returns whether pulling would replace local work that hasn't been
// published.
func isRisky(st sync.Status) (string, bool) {
	switch {
	case !st.ExistsLocally:
		return "", false
	case st.Local == nil:
		return "This machine has never published its copy of the world.", true
	case st.State() == sync.Diverged:
		return "The local copy has diverged from the latest version.", true
	case st.LocalChanges != nil && st.LocalChanges.HasImportantChanges:
		return "The local copy has changes that haven't been published.", true
	default:
		return "", false
	}
}
