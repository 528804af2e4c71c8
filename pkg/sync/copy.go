package sync

import (
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/sidkik/worldsync/pkg/errors"
)

// copyTree replaces `dst` with a copy of the directory tree at `src`. It
// attempts to copy every item even if some fail, and then returns all the
// failures as a single errors.CopyError.
// Modification times are preserved so that copies can be diffed by recency.
func copyTree(fs afero.Fs, src, dst string) error {
	srcInfo, err := fs.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.FileNotFound{Path: src}
		}
		return errors.WithContext(err, "stat source")
	}
	if !srcInfo.IsDir() {
		return errors.NewFriendlyError("%s is not a directory", src)
	}

	if err := fs.RemoveAll(dst); err != nil {
		return errors.WithContext(err, "remove old copy")
	}

	var failures []errors.CopyFailure
	fail := func(path string, err error) {
		failures = append(failures, errors.CopyFailure{Path: path, Err: err})
	}

	walkErr := afero.Walk(fs, src, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			fail(path, err)
			return nil
		}

		relativePath, err := filepath.Rel(src, path)
		if err != nil {
			fail(path, errors.WithContext(err, "normalize path"))
			return nil
		}
		target := filepath.Join(dst, relativePath)

		if fi.IsDir() {
			if err := fs.MkdirAll(target, fi.Mode().Perm()|0700); err != nil {
				fail(path, err)
				return filepath.SkipDir
			}
			return nil
		}

		if err := copyFile(fs, path, target, fi); err != nil {
			fail(path, err)
		}
		return nil
	})
	if walkErr != nil && walkErr != filepath.SkipDir {
		fail(src, walkErr)
	}

	if len(failures) != 0 {
		return errors.CopyError{Failures: failures}
	}
	return nil
}

func copyFile(fs afero.Fs, src, dst string, fi os.FileInfo) error {
	in, err := fs.Open(src)
	if err != nil {
		return errors.WithContext(err, "open")
	}
	defer in.Close()

	out, err := fs.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, fi.Mode().Perm())
	if err != nil {
		return errors.WithContext(err, "create")
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.WithContext(err, "copy contents")
	}

	if err := out.Close(); err != nil {
		return errors.WithContext(err, "close")
	}

	if err := fs.Chtimes(dst, fi.ModTime(), fi.ModTime()); err != nil {
		return errors.WithContext(err, "set modification time")
	}
	return nil
}
