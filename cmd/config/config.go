package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sidkik/worldsync/cmd/util"
	"github.com/sidkik/worldsync/pkg/config"
	"github.com/sidkik/worldsync/pkg/errors"
)

// Mocked for unit testing.
var (
	stdout             io.Writer = os.Stdout
	stdin              io.Reader = os.Stdin
	guessDefaults                = guessDefaultsImpl
	parseUserConfig              = config.ParseUser
	writeUserConfig              = config.WriteUser
	stat                         = os.Stat
	discoverSharedRoot           = config.DiscoverSharedRoot
	defaultGameDir               = config.DefaultGameDir
	getHostname                  = os.Hostname
)

// New creates a new `config` command.
func New() *cobra.Command {
	var displayName string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Setup the worldsync user configuration",
		Long: "Setup the worldsync user configuration.\n" +
			"The --shared-root and --game-dir flags are saved rather than prompted for.",
		Run: func(_ *cobra.Command, _ []string) {
			cliOpts := config.User{
				SharedRoot:  util.Global.SharedRoot,
				GameDir:     util.Global.GameDir,
				DisplayName: displayName,
			}
			if err := SetupConfig(cliOpts); err != nil {
				err = errors.NewFriendlyError("Failed to setup configuration:\n%s", err)
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().StringVar(&displayName, "display-name", "",
		"Set the display name in the config. "+
			"Optional: If not set, `worldsync config` will interactively prompt.")

	// Setup the commands for querying the contents of the user config.
	type getterSpec struct {
		use, short string
		fn         func(config.User) string
	}

	getters := []getterSpec{
		{
			use:   "get-shared-root",
			short: "Get the currently configured shared folder",
			fn:    func(cfg config.User) string { return cfg.SharedRoot },
		},
		{
			use:   "get-game-dir",
			short: "Get the currently configured saves directory",
			fn:    func(cfg config.User) string { return cfg.GameDir },
		},
	}
	for _, getter := range getters {
		getter := getter
		cmd.AddCommand(&cobra.Command{
			Use:   getter.use,
			Short: getter.short,
			Run: func(_ *cobra.Command, _ []string) {
				cfg, err := parseUserConfig()
				if err != nil {
					err = errors.WithContext(err, "read config")
					util.HandleFatalError(err)
				}

				fmt.Fprintln(stdout, getter.fn(cfg))
			},
		})
	}

	return cmd
}

// SetupConfig prompts for the fields missing from `cliOpts`, and saves the
// result as the user config.
func SetupConfig(cliOpts config.User) error {
	cfg, err := generateConfig(cliOpts)
	if err != nil {
		return errors.WithContext(err, "generate config")
	}

	if err := writeUserConfig(cfg); err != nil {
		return errors.WithContext(err, "write config")
	}

	fmt.Fprintf(stdout, "Wrote config to %s\n", config.GetUserConfigPath())
	return nil
}

func directoryValidationFn(path string) (string, bool) {
	fi, err := stat(path)
	switch {
	case os.IsNotExist(err):
		return fmt.Sprintf("%s doesn't exist. Please pick an existing directory.", path), false
	case err != nil:
		return fmt.Sprintf("Failed to check %s (%s). Please pick another directory.", path, err), false
	case !fi.IsDir():
		return fmt.Sprintf("%s isn't a directory. Please pick another directory.", path), false
	}
	return "", true
}

type prompt struct {
	helpString, prompt, defaultAnswer, currAnswer string
	field                                         *string
	validationFn                                  func(string) (string, bool)
}

// generateConfig interacts with the user to decide what the user's desired
// configuration is.
// It makes best guesses at reasonable defaults, and allows users to explicitly
// override them if desired.
func generateConfig(cliOpts config.User) (config.User, error) {
	defaults := guessDefaults()
	currConfig, err := parseUserConfig()
	if err != nil {
		currConfig = config.User{}
		log.WithError(err).Debug("Failed to read current config")
	}

	cfg := cliOpts
	var prompts []prompt
	if cliOpts.SharedRoot == "" {
		prompts = append(prompts, prompt{
			helpString: "Enter the path to the folder that's shared between your machines.\n" +
				"It should contain the `world_sync` directory.",
			prompt:        "Shared folder",
			defaultAnswer: defaults.SharedRoot,
			currAnswer:    currConfig.SharedRoot,
			field:         &cfg.SharedRoot,
			validationFn:  directoryValidationFn,
		})
	}

	if cliOpts.GameDir == "" {
		prompts = append(prompts, prompt{
			helpString:    "Enter the path to the directory that the game saves worlds in.",
			prompt:        "Saves directory",
			defaultAnswer: defaults.GameDir,
			currAnswer:    currConfig.GameDir,
			field:         &cfg.GameDir,
			validationFn:  directoryValidationFn,
		})
	}

	if cliOpts.DisplayName == "" {
		prompts = append(prompts, prompt{
			helpString: "Enter a name for this machine.\n" +
				"It's only used to make status output easier to read.",
			prompt:        "Display name",
			defaultAnswer: defaults.DisplayName,
			currAnswer:    currConfig.DisplayName,
			field:         &cfg.DisplayName,
		})
	}

	for _, prompt := range prompts {
		var resp string
		for {
			resp, err = promptUser(prompt.helpString, prompt.prompt,
				prompt.defaultAnswer, prompt.currAnswer)
			if err != nil {
				return config.User{}, errors.WithContext(err, "read response")
			}

			if prompt.validationFn == nil {
				break
			}

			validationErr, ok := prompt.validationFn(resp)
			if ok {
				break
			}

			fmt.Fprintln(stdout, validationErr)
		}

		*prompt.field = resp
	}

	return cfg, nil
}

// guessDefaults tries to guess reasonable defaults for the fields in the user
// config.
func guessDefaultsImpl() (cfg config.User) {
	if sharedRoot, err := discoverSharedRoot(); err == nil {
		cfg.SharedRoot = sharedRoot
	} else {
		log.WithError(err).Info("Failed to guess shared folder")
	}

	if gameDir, err := defaultGameDir(); err == nil {
		cfg.GameDir = gameDir
	} else {
		log.WithError(err).Info("Failed to guess saves directory")
	}

	if hostname, err := getHostname(); err == nil {
		cfg.DisplayName = hostname
	} else {
		log.WithError(err).Info("Failed to guess display name")
	}

	return cfg
}

func promptUser(helpString, prompt, defaultAnswer, currAnswer string) (string, error) {
	// Display a new line at the end to separate different fields to make it
	// look clearer.
	defer fmt.Fprintln(stdout)

	options := []string{}
	if defaultAnswer != "" {
		options = append(options, defaultAnswer)
	}
	if currAnswer != "" && currAnswer != defaultAnswer {
		options = append(options, currAnswer)
	}
	options = append(options, "(Enter manually)")

	fmt.Fprintln(stdout, helpString+"\n"+prompt+":")

	stdinReader := bufio.NewReader(stdin)

	if nOptions := len(options); nOptions > 1 {
		// defaultAnswer or currAnswer exists.
		fmt.Fprintln(stdout)
		for i, option := range options {
			if i == 0 {
				option = fmt.Sprintf("%s (recommended)", option)
			}
			fmt.Fprintf(stdout, "\t%d. %s\n", i+1, option)
		}
		fmt.Fprintln(stdout)

		for {
			fmt.Fprintf(stdout, "Please choose one [1-%d]: ", nOptions)
			choiceStr, err := stdinReader.ReadString('\n')
			if err != nil {
				return "", err
			}

			var choice int
			choiceStr = strings.TrimRight(choiceStr, "\r\n")

			// Default to the first choice if user doesn't enter anything.
			if choiceStr == "" {
				choice = 1
			} else {
				choice, err = strconv.Atoi(choiceStr)
				if err != nil || choice < 1 || choice > nOptions {
					// Try again if the input is invalid.
					continue
				}
			}

			if choice == nOptions {
				// Enter manually.
				break
			}

			return options[choice-1], nil
		}
	}

	fmt.Fprint(stdout, "Please enter manually: ")
	resp, err := stdinReader.ReadString('\n')
	if err != nil {
		return "", err
	}

	return strings.TrimRight(resp, "\r\n"), nil
}
