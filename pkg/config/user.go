package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/ghodss/yaml"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"

	"github.com/sidkik/worldsync/pkg/errors"
)

const (
	// InitialUserConfigVersion is the first version of the user config.
	// Config files that do not specify a version will default to this
	// version.
	InitialUserConfigVersion = "1.0"

	// CurrentUserConfigVersion is the version written by this binary.
	CurrentUserConfigVersion = "1.0"

	// SupportedUserConfigVersions are the user config versions that this
	// binary can read.
	SupportedUserConfigVersions = ">= 1.0, < 2.0"
)

// User contains the user's preferences for where worlds are synced from and
// to. Every field is optional.
type User struct {
	Version string `json:"version,omitempty"`

	// SharedRoot is the passively synced folder, such as a OneDrive folder,
	// that contains the `world_sync` directory.
	SharedRoot string `json:"sharedRoot,omitempty"`

	// GameDir is the directory containing the game's saved worlds.
	GameDir string `json:"gameDir,omitempty"`

	// DisplayName is the human readable name for this machine.
	DisplayName string `json:"displayName,omitempty"`
}

func (u User) getVersion() string {
	return u.Version
}

// Mocked out for unit testing.
var (
	homedirExpand = homedir.Expand
	configHome    = func() string { return xdg.ConfigHome }
)

// ParseUser parses the User stored in the default path. A missing config is
// the same as an empty one.
func ParseUser() (User, error) {
	path := GetUserConfigPath()

	config := User{Version: InitialUserConfigVersion}
	if err := parseConfig(path, &config, SupportedUserConfigVersions); err != nil {
		if _, ok := err.(errors.FileNotFound); ok {
			return User{Version: InitialUserConfigVersion}, nil
		}
		return User{}, errors.WithContext(err, "parse")
	}

	var err error
	config.SharedRoot, err = expandPath(path, config.SharedRoot)
	if err != nil {
		return User{}, errors.WithContext(err, "expand shared root")
	}

	config.GameDir, err = expandPath(path, config.GameDir)
	if err != nil {
		return User{}, errors.WithContext(err, "expand game directory")
	}
	return config, nil
}

// expandPath expands `~`, and evaluates relative paths relative to the
// config path.
func expandPath(configPath, path string) (string, error) {
	path, err := homedirExpand(path)
	if err != nil {
		return "", err
	}

	if path != "" && !filepath.IsAbs(path) {
		path = filepath.Join(filepath.Dir(configPath), path)
	}
	return path, nil
}

// WriteUser writes the given user config to disk.
func WriteUser(cfg User) error {
	cfg.Version = CurrentUserConfigVersion
	path := GetUserConfigPath()

	yamlBytes, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.WithContext(err, "marshal")
	}

	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.WithContext(err, "make config directory")
	}

	if err := afero.WriteFile(fs, path, yamlBytes, 0644); err != nil {
		return errors.WithContext(err, "write")
	}
	return nil
}

// GetUserConfigPath returns the path to the user's worldsync configuration in
// the XDG config directory.
func GetUserConfigPath() string {
	return filepath.Join(configHome(), "worldsync", "worldsync.yaml")
}
