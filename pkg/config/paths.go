package config

import (
	"os"
	"path/filepath"
	"runtime"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/worldsync/pkg/errors"
)

const (
	// appDirName is the directory in the shared root that the binary is
	// distributed in.
	appDirName = "app"

	// syncDirName marks a directory as a shared root.
	syncDirName = "world_sync"

	// defaultSharedRoot is used if the shared root can't be found any other
	// way.
	defaultSharedRoot = "~/OneDrive/Minecraft"
)

// Mocked out for unit testing.
var (
	getExecutable = os.Executable
	getenv        = os.Getenv
	goos          = runtime.GOOS
)

// Paths are the resolved locations that worlds are synced between.
type Paths struct {
	SharedRoot string
	GameDir    string
}

// ResolvePaths decides where the shared folder and game directory are.
// Flags take precedence over the user config, which takes precedence over
// discovery.
func ResolvePaths(sharedRootFlag, gameDirFlag string, user User) (Paths, error) {
	var paths Paths
	var err error

	paths.SharedRoot, err = firstNonEmpty(sharedRootFlag, user.SharedRoot)
	if err != nil {
		return Paths{}, errors.WithContext(err, "expand shared root")
	}
	if paths.SharedRoot == "" {
		paths.SharedRoot, err = DiscoverSharedRoot()
		if err != nil {
			return Paths{}, err
		}
	}

	paths.GameDir, err = firstNonEmpty(gameDirFlag, user.GameDir)
	if err != nil {
		return Paths{}, errors.WithContext(err, "expand game directory")
	}
	if paths.GameDir == "" {
		paths.GameDir, err = DefaultGameDir()
		if err != nil {
			return Paths{}, err
		}
	}
	return paths, nil
}

func firstNonEmpty(paths ...string) (string, error) {
	for _, path := range paths {
		if path != "" {
			return homedirExpand(path)
		}
	}
	return "", nil
}

// DiscoverSharedRoot finds the shared folder. If the binary is being run
// from the `app` directory of a shared root, that root is used. Otherwise,
// the OneDrive folder in the home directory is assumed.
func DiscoverSharedRoot() (string, error) {
	exe, err := getExecutable()
	if err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}

		exeDir := filepath.Dir(exe)
		root := filepath.Dir(exeDir)
		if filepath.Base(exeDir) == appDirName && isDir(filepath.Join(root, syncDirName)) {
			return root, nil
		}
	} else {
		log.WithError(err).Debug("Failed to get executable path")
	}

	root, err := homedirExpand(defaultSharedRoot)
	if err != nil {
		return "", errors.WithContext(err, "expand default shared root")
	}
	log.WithField("path", root).Debug("Using default shared root")
	return root, nil
}

// DefaultGameDir returns the game's default saves directory for the current
// OS.
func DefaultGameDir() (string, error) {
	if goos == "windows" {
		if appData := getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, ".minecraft", "saves"), nil
		}
	}

	home, err := homedirExpand("~")
	if err != nil {
		return "", errors.WithContext(err, "get home directory")
	}

	switch goos {
	case "windows":
		return filepath.Join(home, "AppData", "Roaming", ".minecraft", "saves"), nil
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "minecraft", "saves"), nil
	default:
		return filepath.Join(home, ".minecraft", "saves"), nil
	}
}

func isDir(path string) bool {
	exists, err := afero.DirExists(fs, path)
	return err == nil && exists
}
