package sync

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/worldsync/pkg/errors"
)

// unreadableFs fails to open the given files.
type unreadableFs struct {
	afero.Fs
	unreadable map[string]bool
}

func (fs unreadableFs) Open(name string) (afero.File, error) {
	if fs.unreadable[name] {
		return nil, os.ErrPermission
	}
	return fs.Fs.Open(name)
}

func TestCopyTree(t *testing.T) {
	fs := afero.NewMemMapFs()
	modTime := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	for path, contents := range map[string]string{
		"/src/level.dat":        "level",
		"/src/region/r.0.0.mca": "region",
		"/dst/stale.dat":        "stale",
	} {
		require.NoError(t, afero.WriteFile(fs, path, []byte(contents), 0644))
		require.NoError(t, fs.Chtimes(path, modTime, modTime))
	}
	require.NoError(t, fs.MkdirAll("/src/empty", 0755))

	require.NoError(t, copyTree(fs, "/src", "/dst"))

	contents, err := afero.ReadFile(fs, "/dst/region/r.0.0.mca")
	require.NoError(t, err)
	assert.Equal(t, "region", string(contents))

	fi, err := fs.Stat("/dst/level.dat")
	require.NoError(t, err)
	assert.True(t, fi.ModTime().Equal(modTime))

	exists, err := afero.DirExists(fs, "/dst/empty")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = afero.Exists(fs, "/dst/stale.dat")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCopyTreeMissingSource(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/dst/keep.dat", []byte("keep"), 0644))

	err := copyTree(fs, "/src", "/dst")
	assert.Equal(t, errors.FileNotFound{Path: "/src"}, err)

	// The destination isn't removed if there's nothing to replace it with.
	exists, err := afero.Exists(fs, "/dst/keep.dat")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCopyTreeCollectsFailures(t *testing.T) {
	memFs := afero.NewMemMapFs()
	for _, path := range []string{"/src/a.dat", "/src/b.dat", "/src/dir/c.dat", "/src/dir/d.dat"} {
		require.NoError(t, afero.WriteFile(memFs, path, []byte(path), 0644))
	}

	fs := unreadableFs{Fs: memFs, unreadable: map[string]bool{
		"/src/a.dat":     true,
		"/src/dir/c.dat": true,
	}}

	err := copyTree(fs, "/src", "/dst")
	var copyErr errors.CopyError
	require.True(t, errors.As(err, &copyErr))
	require.Len(t, copyErr.Failures, 2)
	assert.Equal(t, "/src/a.dat", copyErr.Failures[0].Path)
	assert.Equal(t, "/src/dir/c.dat", copyErr.Failures[1].Path)

	// Every other item was still copied.
	for _, path := range []string{"/dst/b.dat", "/dst/dir/d.dat"} {
		exists, err := afero.Exists(memFs, path)
		require.NoError(t, err)
		assert.True(t, exists, path)
	}
}
