package bugtool

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"io/ioutil"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/worldsync/pkg/ledger"
	"github.com/sidkik/worldsync/pkg/sync"
)

type file struct {
	path, contents string
}

func TestCopyFile(t *testing.T) {
	tests := []struct {
		name      string
		mockFiles []file
		expFiles  []file
		expError  string
	}{
		{
			name:      "Log exists",
			mockFiles: []file{{"home/.worldsync/worldsync.log", "log contents"}},
			expFiles:  []file{{"root/cli.log", "log contents"}},
		},
		{
			name:     "Log doesn't exist",
			expError: "open source: open home/.worldsync/worldsync.log: file does not exist",
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			fs = afero.NewMemMapFs()
			assert.NoError(t, setupFiles(test.mockFiles))
			err := copyFile("home/.worldsync/worldsync.log", "root/cli.log")
			if test.expError == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, test.expError)
			}
			assertFiles(t, test.expFiles)
		})
	}
}

func TestSetupLedger(t *testing.T) {
	fs = afero.NewMemMapFs()
	assert.NoError(t, setupFiles([]file{
		{"/shared/world_sync/mundos.json", `{"mundos":{}}`},
		{"/shared/world_sync/M1/Skyblock/control.json", `{"commit_id":"abc"}`},
		{"/shared/world_sync/M1/Skyblock/minecraft_saves_data/level.dat", "data"},
		{"/shared/world_sync/M1/Skyblock/minecraft_saves_data/stats/player.json", "{}"},
		{"/shared/world_sync/M2/notes.txt", "notes"},
	}))

	require.NoError(t, setupLedger("/out", ledger.New(fs, "/shared")))
	assertFiles(t, []file{
		{"/out/mundos.json", `{"mundos":{}}`},
		{"/out/M1/Skyblock/control.json", `{"commit_id":"abc"}`},
	})

	for _, path := range []string{
		"/out/M1/Skyblock/minecraft_saves_data",
		"/out/M2/notes.txt",
	} {
		exists, err := afero.Exists(fs, path)
		assert.NoError(t, err)
		assert.False(t, exists, path)
	}
}

func TestSetupStatus(t *testing.T) {
	fs = afero.NewMemMapFs()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 10, 0, 0, 0, time.Local))
	s := sync.New(fs, ledger.New(fs, "/shared"), "/games", "M1", clock)

	assert.NoError(t, setupFiles([]file{{"/games/Skyblock/level.dat", "v1"}}))
	require.NoError(t, setupStatus("/out/status", s))

	contents, err := afero.ReadFile(fs, "/out/status/Skyblock.yaml")
	require.NoError(t, err)
	assert.Contains(t, string(contents), "state: Local-Only\n")
	assert.Contains(t, string(contents), "World: Skyblock\n")
	assert.Contains(t, string(contents), "ExistsLocally: true\n")
}

func TestTarDirectory(t *testing.T) {
	fs = afero.NewMemMapFs()
	assert.NoError(t, setupFiles([]file{
		{"/tmp/info/version", "local version:  dev\n"},
		{"/tmp/info/ledger/mundos.json", "{}"},
	}))

	require.NoError(t, tarDirectory("/tmp/info", "/out.tar.gz"))

	f, err := fs.Open("/out.tar.gz")
	require.NoError(t, err)
	defer f.Close()

	gzr, err := gzip.NewReader(f)
	require.NoError(t, err)
	tr := tar.NewReader(gzr)

	files := map[string]string{}
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)

		if strings.HasSuffix(header.Name, "/") {
			assert.Equal(t, byte(tar.TypeDir), header.Typeflag, header.Name)
		}

		contents, err := ioutil.ReadAll(tr)
		require.NoError(t, err)
		files[header.Name] = string(contents)
	}

	assert.Equal(t, map[string]string{
		"worldsync-bug-info/":                   "",
		"worldsync-bug-info/ledger/":            "",
		"worldsync-bug-info/ledger/mundos.json": "{}",
		"worldsync-bug-info/version":            "local version:  dev\n",
	}, files)
}

func setupFiles(files []file) error {
	for _, f := range files {
		if err := afero.WriteFile(fs, f.path, []byte(f.contents), 0644); err != nil {
			return err
		}
	}
	return nil
}

func assertFiles(t *testing.T, files []file) {
	for _, f := range files {
		contents, err := afero.ReadFile(fs, f.path)
		assert.NoError(t, err)
		assert.Equal(t, f.contents, string(contents))
	}
}
