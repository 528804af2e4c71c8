package cmd

import (
	"os"

	homedir "github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sidkik/worldsync/cmd/bugtool"
	configCmd "github.com/sidkik/worldsync/cmd/config"
	diffCmd "github.com/sidkik/worldsync/cmd/diff"
	"github.com/sidkik/worldsync/cmd/history"
	"github.com/sidkik/worldsync/cmd/mods"
	"github.com/sidkik/worldsync/cmd/publish"
	"github.com/sidkik/worldsync/cmd/pull"
	"github.com/sidkik/worldsync/cmd/resolve"
	"github.com/sidkik/worldsync/cmd/status"
	"github.com/sidkik/worldsync/cmd/util"
	"github.com/sidkik/worldsync/cmd/version"
	"github.com/sidkik/worldsync/cmd/whoami"
	"github.com/sidkik/worldsync/cmd/worlds"
	"github.com/sidkik/worldsync/pkg/telemetry"
)

// verboseLogKey is the environment variable used to enable verbose logging.
// When it's set to `true`, Debug events are logged, rather than just Info and
// above.
const verboseLogKey = "WORLDSYNC_LOG_VERBOSE"

// Execute runs the main CLI process.
func Execute() {
	if os.Getenv(verboseLogKey) == "true" {
		log.SetLevel(log.DebugLevel)
	}

	rootCmd := &cobra.Command{
		Use:   "worldsync",
		Short: "Share game worlds between machines through a synced folder",
		Long: "worldsync publishes and pulls game worlds through a folder that's " +
			"shared between machines,\nsuch as a OneDrive folder, and detects " +
			"when two machines have changed the same world.",
		SilenceUsage: true,

		// The call to rootCmd.Execute prints the error, so we silence errors
		// here to avoid double printing.
		SilenceErrors:    true,
		PersistentPreRun: setupTelemetry,
	}
	rootCmd.PersistentFlags().StringVar(&util.Global.SharedRoot, "shared-root", "",
		"The shared folder containing the world_sync directory. "+
			"Overrides the user config.")
	rootCmd.PersistentFlags().StringVar(&util.Global.GameDir, "game-dir", "",
		"The directory containing the game's saved worlds. "+
			"Overrides the user config.")

	rootCmd.AddCommand(
		bugtool.New(),
		configCmd.New(),
		diffCmd.New(),
		history.New(),
		mods.New(),
		publish.New(),
		pull.New(),
		resolve.New(),
		status.New(),
		version.New(),
		whoami.New(),
		worlds.New(),
	)

	if err := rootCmd.Execute(); err != nil {
		util.HandleFatalError(err)
	}
}

func setupTelemetry(_ *cobra.Command, _ []string) {
	path, err := homedir.Expand(telemetry.DefaultLogPath)
	if err != nil {
		log.WithError(err).Debug("Failed to get telemetry log path")
		return
	}
	log.AddHook(telemetry.NewLogHook(path))
}
