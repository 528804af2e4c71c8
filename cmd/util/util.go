package util

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/crypto/ssh/terminal"

	"github.com/sidkik/worldsync/pkg/config"
	"github.com/sidkik/worldsync/pkg/errors"
	"github.com/sidkik/worldsync/pkg/identity"
	"github.com/sidkik/worldsync/pkg/ledger"
	"github.com/sidkik/worldsync/pkg/sync"
	"github.com/sidkik/worldsync/pkg/telemetry"
)

// GlobalOptions are the flags shared by every command.
type GlobalOptions struct {
	SharedRoot string
	GameDir    string
}

// Global is populated by the root command's persistent flags.
var Global GlobalOptions

// Mocked out for unit testing.
var (
	fs                   = afero.NewOsFs()
	stdin      io.Reader = os.Stdin
	stdout     io.Writer = os.Stdout
	isTerminal           = func() bool { return terminal.IsTerminal(int(os.Stdin.Fd())) }
	exit                 = os.Exit
)

// HandleFatalError prints the error and exits. Friendly errors are printed
// without the context chain that led to them.
func HandleFatalError(err error) {
	log.WithError(err).Debug("Fatal error")
	if msg, ok := errors.GetFriendlyMessage(err); ok {
		fmt.Fprintln(os.Stderr, msg)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
	exit(1)
}

// HandlePanic logs panics so that they're recorded by the telemetry hook.
// It must be deferred.
func HandlePanic() {
	if r := recover(); r != nil {
		log.WithField("stack", string(debug.Stack())).Errorf("Panic: %v", r)
		panic(r)
	}
}

// PromptYesOrNo asks the user a yes or no question. Anything other than an
// explicit yes is a no.
func PromptYesOrNo(prompt string) (bool, error) {
	if !isTerminal() {
		return false, errors.NewFriendlyError("Refusing to prompt %q without a terminal. "+
			"Rerun with --yes to skip confirmation.", prompt)
	}

	fmt.Fprintf(stdout, "%s [y/N] ", prompt)
	resp, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, errors.WithContext(err, "read response")
	}

	switch strings.ToLower(strings.TrimSpace(resp)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// Env is everything commands need to sync worlds as the local machine.
type Env struct {
	Syncer   *sync.Syncer
	Identity identity.Identity
	Paths    config.Paths
}

// NewEnv resolves the shared folder, game directory, and machine identity
// from the user config and global flags.
func NewEnv() (Env, error) {
	user, err := config.ParseUser()
	if err != nil {
		return Env{}, errors.WithContext(err, "parse user config")
	}

	paths, err := config.ResolvePaths(Global.SharedRoot, Global.GameDir, user)
	if err != nil {
		return Env{}, errors.WithContext(err, "resolve paths")
	}

	if !dirExists(paths.SharedRoot) {
		return Env{}, errors.NewFriendlyError("The shared folder %q doesn't exist.\n"+
			"Run `worldsync config` or pass --shared-root to choose the folder "+
			"that your machines share.", paths.SharedRoot)
	}

	if !dirExists(paths.GameDir) {
		return Env{}, errors.NewFriendlyError("The game's saves directory %q doesn't exist.\n"+
			"Run `worldsync config` or pass --game-dir to choose it.", paths.GameDir)
	}

	id, err := identity.Load()
	if err != nil {
		return Env{}, errors.WithContext(err, "load machine identity")
	}
	if user.DisplayName != "" {
		id.DisplayName = user.DisplayName
	}
	telemetry.SetMachine(id.ID)

	l := ledger.New(fs, paths.SharedRoot)
	if err := l.EnsureMachineDir(id.ID); err != nil {
		return Env{}, errors.WithContext(err, "create machine directory")
	}

	return Env{
		Syncer:   sync.New(fs, l, paths.GameDir, id.ID, clockwork.NewRealClock()),
		Identity: id,
		Paths:    paths,
	}, nil
}

func dirExists(path string) bool {
	exists, err := afero.DirExists(fs, path)
	return err == nil && exists
}

// CheckResult converts a failed sync operation into an error that explains
// the failure to the user, or prints the result if it succeeded.
func CheckResult(res sync.Result, err error) error {
	if err != nil {
		return errors.NewFriendlyError("%s\n(%s)", res.Message, err)
	}
	if !res.OK {
		return errors.NewFriendlyError("%s", res.Message)
	}
	fmt.Fprintln(stdout, res.Message)
	return nil
}
