// Package identity provides the stable ID that names a machine in the shared
// folder.
package identity

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/shirou/gopsutil/v3/host"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/crypto/blake2b"

	"github.com/sidkik/worldsync/pkg/errors"
)

const (
	// IDFileName is the name of the file in the home directory holding the
	// machine ID.
	IDFileName = ".minecraft_sync_id"

	// NameFileName is the name of the file in the home directory holding the
	// optional display name.
	NameFileName = ".minecraft_sync_name"

	// idLength is the number of hex characters in a generated ID.
	idLength = 16
)

// Mocked out for unit testing.
var (
	fs          = afero.NewOsFs()
	getHostInfo = host.Info
	getHomeDir  = homedir.Dir
)

// Identity identifies the local machine.
type Identity struct {
	ID          string
	DisplayName string
}

func (id Identity) String() string {
	if id.DisplayName == "" || id.DisplayName == id.ID {
		return id.ID
	}
	return fmt.Sprintf("%s (%s)", id.DisplayName, id.ID)
}

// Load returns the identity of the local machine. The ID is generated and
// saved on first use.
func Load() (Identity, error) {
	home, err := getHomeDir()
	if err != nil {
		return Identity{}, errors.WithContext(err, "get home directory")
	}

	id, err := Ensure(filepath.Join(home, IDFileName))
	if err != nil {
		return Identity{}, err
	}

	return Identity{
		ID:          id,
		DisplayName: readLine(filepath.Join(home, NameFileName)),
	}, nil
}

// Ensure returns the ID saved at `path`, generating and saving one if the
// file doesn't exist or is empty.
func Ensure(path string) (string, error) {
	if id := readLine(path); id != "" {
		return id, nil
	}

	id, err := Generate()
	if err != nil {
		return "", errors.WithContext(err, "generate machine ID")
	}

	if err := afero.WriteFile(fs, path, []byte(id+"\n"), 0644); err != nil {
		return "", errors.WithContext(err, "save machine ID")
	}
	log.WithField("id", id).Info("Generated machine ID")
	return id, nil
}

// Generate derives an ID from the host's hardware ID and name. The same host
// always generates the same ID, so deleting the ID file doesn't orphan the
// machine's records in the shared folder.
func Generate() (string, error) {
	info, err := getHostInfo()
	if err != nil {
		return "", errors.WithContext(err, "get host info")
	}

	arch := info.KernelArch
	if arch == "" {
		arch = runtime.GOARCH
	}

	hash := blake2b.Sum256([]byte(strings.Join([]string{info.HostID, info.Hostname, arch}, "\x00")))
	return hex.EncodeToString(hash[:])[:idLength], nil
}

// SetDisplayName saves the display name for the local machine. An empty name
// removes it.
func SetDisplayName(name string) error {
	home, err := getHomeDir()
	if err != nil {
		return errors.WithContext(err, "get home directory")
	}

	path := filepath.Join(home, NameFileName)
	name = strings.TrimSpace(name)
	if name == "" {
		if err := fs.Remove(path); err != nil && !os.IsNotExist(err) {
			return errors.WithContext(err, "remove display name")
		}
		return nil
	}
	return afero.WriteFile(fs, path, []byte(name+"\n"), 0644)
}

func readLine(path string) string {
	contents, err := afero.ReadFile(fs, path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.WithError(err).WithField("path", path).Warn("Failed to read identity file")
		}
		return ""
	}
	return strings.TrimSpace(string(contents))
}
