package bugtool

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/ghodss/yaml"
	homedir "github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/sidkik/worldsync/cmd/util"
	"github.com/sidkik/worldsync/pkg/config"
	"github.com/sidkik/worldsync/pkg/errors"
	"github.com/sidkik/worldsync/pkg/ledger"
	"github.com/sidkik/worldsync/pkg/sync"
	"github.com/sidkik/worldsync/pkg/telemetry"
	"github.com/sidkik/worldsync/pkg/version"
)

// Mocked out for unit testing.
var (
	fs     = afero.NewOsFs()
	newEnv = util.NewEnv
)

// New creates a new `bug-tool` command.
func New() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "bug-tool",
		Short: "Generate an archive for worldsync debugging",
		Run:   func(_ *cobra.Command, _ []string) { main(out) },
	}
	cmd.Flags().StringVar(&out, "out", "", "path for archive")
	return cmd
}

func main(out string) {
	tmpdir, err := afero.TempDir(fs, "", "worldsync-bug-tool")
	if err != nil {
		err = errors.NewFriendlyError("Failed to create out directory:\n%s", err)
		util.HandleFatalError(err)
	}

	// Wrap defer in a function to handle errors from fs.RemoveAll().
	defer func() {
		err := fs.RemoveAll(tmpdir)
		if err != nil {
			util.HandleFatalError(err)
		}
	}()

	setupInfo(tmpdir)

	if out == "" {
		out = fmt.Sprintf("worldsync-bug-info-%s.tar.gz",
			time.Now().Format("Jan_02_2006-15-04-05"))
	}
	if err := tarDirectory(tmpdir, out); err != nil {
		err = errors.NewFriendlyError("Failed to tar:\n%s", err)
		util.HandleFatalError(err)
	}

	msg := `Created bug information archive at '%s'.
The archive contains:
 * The worldsync logs.
 * The user config.
 * The sync index and every machine's commit records. World data isn't included.
 * The sync status of every world on this machine.
 * The version of worldsync.
`
	fmt.Printf(msg, out)
}

func setupInfo(root string) {
	if logPath, err := homedir.Expand(telemetry.DefaultLogPath); err == nil {
		if err := copyFile(logPath, filepath.Join(root, "cli.log")); err != nil {
			log.WithError(err).Warn("Failed to setup CLI logs")
		}
	} else {
		log.WithError(err).Warn("Failed to get CLI log path")
	}

	if err := copyFile(config.GetUserConfigPath(), filepath.Join(root, "config.yaml")); err != nil {
		log.WithError(err).Warn("Failed to setup user config")
	}

	if err := setupVersion(root); err != nil {
		log.WithError(err).Warn("Failed to setup version info")
	}

	env, err := newEnv()
	if err != nil {
		log.WithError(err).Error("Failed to load the shared folder")
		return
	}

	if err := setupLedger(filepath.Join(root, "ledger"), env.Syncer.Ledger()); err != nil {
		log.WithError(err).Warn("Failed to setup ledger")
	}

	if err := setupStatus(filepath.Join(root, "status"), env.Syncer); err != nil {
		log.WithError(err).Warn("Failed to setup world status")
	}
}

func copyFile(src, dst string) error {
	in, err := fs.Open(src)
	if err != nil {
		return errors.WithContext(err, "open source")
	}
	defer in.Close()

	if err := fs.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return errors.WithContext(err, "mkdir")
	}

	out, err := fs.Create(dst)
	if err != nil {
		return errors.WithContext(err, "open destination")
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return errors.WithContext(err, "copy")
	}
	return nil
}

// setupLedger copies the JSON files in the sync directory, skipping the world
// snapshots.
func setupLedger(outdir string, l *ledger.Ledger) error {
	syncDir := l.SyncDir()
	return afero.Walk(fs, syncDir, func(file string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if fi.IsDir() {
			if fi.Name() == ledger.SnapshotDirName {
				return filepath.SkipDir
			}
			return nil
		}

		if filepath.Ext(file) != ".json" {
			return nil
		}

		relPath, err := filepath.Rel(syncDir, file)
		if err != nil {
			return errors.WithContext(err, fmt.Sprintf("get relative path of %s", file))
		}
		return copyFile(file, filepath.Join(outdir, relPath))
	})
}

func setupStatus(outdir string, s *sync.Syncer) error {
	if err := fs.MkdirAll(outdir, 0755); err != nil {
		return errors.WithContext(err, "mkdir")
	}

	worlds, err := s.Worlds()
	if err != nil {
		return errors.WithContext(err, "list worlds")
	}

	for _, world := range worlds {
		status := s.Status(world.Name)
		statusBytes, err := yaml.Marshal(status)
		if err != nil {
			log.WithError(err).WithField("world", world.Name).Warn("Failed to marshal status")
			statusBytes = []byte(fmt.Sprintf("%+v\n", status))
		}
		statusBytes = append([]byte(fmt.Sprintf("state: %s\n", status.State())), statusBytes...)

		path := filepath.Join(outdir, world.Name+".yaml")
		if err := afero.WriteFile(fs, path, statusBytes, 0644); err != nil {
			return errors.WithContext(err, "write")
		}
	}
	return nil
}

func setupVersion(root string) error {
	contents := fmt.Sprintf("local version:  %s\n", version.Version)
	return afero.WriteFile(fs, filepath.Join(root, "version"), []byte(contents), 0644)
}

func tarDirectory(src, outPath string) error {
	out, err := fs.Create(outPath)
	if err != nil {
		return errors.WithContext(err, "open destination")
	}
	defer out.Close()

	gzw := gzip.NewWriter(out)
	defer gzw.Close()

	tw := tar.NewWriter(gzw)
	defer tw.Close()

	return afero.Walk(fs, src, func(file string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		header, err := tar.FileInfoHeader(fi, fi.Name())
		if err != nil {
			return errors.WithContext(err, fmt.Sprintf("make header %s", file))
		}

		relPath, err := filepath.Rel(src, file)
		if err != nil {
			return errors.WithContext(err, fmt.Sprintf("get relative path of %s to %s", file, src))
		}

		header.Name = path.Join("worldsync-bug-info", filepath.ToSlash(relPath))
		if fi.IsDir() {
			// Some filesystems report directories without ModeDir, so the
			// header from FileInfoHeader isn't trusted to mark them.
			header.Typeflag = tar.TypeDir
			header.Size = 0
			if !strings.HasSuffix(header.Name, "/") {
				header.Name += "/"
			}
		}
		if err := tw.WriteHeader(header); err != nil {
			return errors.WithContext(err, fmt.Sprintf("write %s header", file))
		}

		// Only write contents if it's a file (i.e. not a directory).
		if !fi.Mode().IsRegular() {
			return nil
		}

		f, err := fs.Open(file)
		if err != nil {
			return errors.WithContext(err, fmt.Sprintf("open %s", file))
		}
		defer f.Close()

		if _, err := io.Copy(tw, f); err != nil {
			return errors.WithContext(err, fmt.Sprintf("copy %s", file))
		}
		return nil
	})
}
