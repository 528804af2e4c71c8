package version

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sidkik/worldsync/cmd/util"
	"github.com/sidkik/worldsync/pkg/config"
	"github.com/sidkik/worldsync/pkg/errors"
	"github.com/sidkik/worldsync/pkg/version"
)

// Mocked out for unit testing.
var (
	stdout    io.Writer = os.Stdout
	parseUser           = config.ParseUser
)

// New creates a new `version` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of worldsync.",
		Long: "Print the version of worldsync, as a git commit hash, and the\n" +
			"version of the user config it reads.",
		Run: func(_ *cobra.Command, args []string) {
			if err := run(); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
}

func run() error {
	fmt.Fprintf(stdout, "local version:  %s\n", version.Version)

	userConfig, err := parseUser()
	if err != nil {
		log.WithError(err).Debugf("Failed to parse %s", config.GetUserConfigPath())
		return errors.WithContext(err, "parse user config")
	}

	fmt.Fprintf(stdout, "config version: %s\n", userConfig.Version)
	return nil
}
