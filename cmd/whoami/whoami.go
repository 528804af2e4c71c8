package whoami

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sidkik/worldsync/cmd/util"
	"github.com/sidkik/worldsync/pkg/errors"
	"github.com/sidkik/worldsync/pkg/identity"
)

// Mocked out for unit testing.
var (
	stdout         io.Writer = os.Stdout
	loadIdentity             = identity.Load
	setDisplayName           = identity.SetDisplayName
)

// New creates a new `whoami` command.
func New() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Print the ID that this machine syncs as",
		Long: "Print the ID that this machine syncs as. Other machines see this " +
			"machine's\nversions under this ID.",
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			var newName *string
			if cmd.Flags().Changed("name") {
				newName = &name
			}
			if err := run(newName); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().StringVar(&name, "name", "",
		"Set a display name for this machine. An empty name removes it.")
	return cmd
}

func run(newName *string) error {
	if newName != nil {
		if err := setDisplayName(*newName); err != nil {
			return errors.WithContext(err, "set display name")
		}
	}

	id, err := loadIdentity()
	if err != nil {
		return errors.WithContext(err, "load machine identity")
	}

	fmt.Fprintln(stdout, id)
	return nil
}
