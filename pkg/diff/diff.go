// Package diff compares two directory trees and decides whether their
// differences are worth the user's attention.
//
// The comparison is read-only and knows nothing about commits. Files named in
// the ignore list (session locks, OS metadata, temp files) never count as a
// difference.
package diff

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

const (
	// DefaultRecentWindow is how recently a modified file must have been
	// touched for the modification to count as important.
	DefaultRecentWindow = 24 * time.Hour

	// DefaultSizeThreshold is the size difference, in bytes, above which a
	// modified file always counts as important.
	DefaultSizeThreshold = 100

	compareBufferSize = 32 * 1024
)

// Result describes the differences between two directories. All paths are
// relative to the compared roots, use forward slashes, and are sorted.
type Result struct {
	Identical           bool     `json:"identical"`
	FilesOnlyInA        []string `json:"filesOnlyInA,omitempty"`
	FilesOnlyInB        []string `json:"filesOnlyInB,omitempty"`
	ModifiedFiles       []string `json:"modifiedFiles,omitempty"`
	DirsOnlyInA         []string `json:"dirsOnlyInA,omitempty"`
	DirsOnlyInB         []string `json:"dirsOnlyInB,omitempty"`
	HasImportantChanges bool     `json:"hasImportantChanges"`

	// TypeConflicts are paths that are a file on one side and a directory on
	// the other. They're not descended into.
	TypeConflicts []string `json:"typeConflicts,omitempty"`
}

// Summary returns a one-line description of the result.
func (res Result) Summary() string {
	if res.Identical {
		return "identical"
	}

	var parts []string
	add := func(n int, what string) {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, what))
		}
	}
	add(len(res.ModifiedFiles), "modified")
	add(len(res.FilesOnlyInA)+len(res.DirsOnlyInA), "only in first")
	add(len(res.FilesOnlyInB)+len(res.DirsOnlyInB), "only in second")
	add(len(res.TypeConflicts), "type conflicts")

	summary := strings.Join(parts, ", ")
	if summary == "" {
		summary = "different"
	}
	if res.HasImportantChanges {
		summary += " (important)"
	}
	return summary
}

// Comparer compares directory trees.
type Comparer struct {
	Fs    afero.Fs
	Clock clockwork.Clock

	// RecentWindow and SizeThreshold decide whether a modified file is an
	// important change.
	RecentWindow  time.Duration
	SizeThreshold int64

	Ignore IgnoreList
}

// NewComparer returns a Comparer with the default thresholds and ignore list.
func NewComparer(fs afero.Fs, clock clockwork.Clock) Comparer {
	return Comparer{
		Fs:            fs,
		Clock:         clock,
		RecentWindow:  DefaultRecentWindow,
		SizeThreshold: DefaultSizeThreshold,
		Ignore:        DefaultIgnoreList,
	}
}

// Compare compares two directories on the local filesystem using the default
// settings.
func Compare(dirA, dirB string) Result {
	return NewComparer(afero.NewOsFs(), clockwork.NewRealClock()).Compare(dirA, dirB)
}

// Compare recursively compares `dirA` against `dirB`. If either directory is
// missing, the result is non-identical with important changes.
func (c Comparer) Compare(dirA, dirB string) Result {
	res := Result{Identical: true}
	if !c.isDir(dirA) || !c.isDir(dirB) {
		res.Identical = false
		res.HasImportantChanges = true
		return res
	}

	c.compareDir(dirA, dirB, "", &res)

	for _, bucket := range []*[]string{&res.FilesOnlyInA, &res.FilesOnlyInB,
		&res.ModifiedFiles, &res.DirsOnlyInA, &res.DirsOnlyInB, &res.TypeConflicts} {
		sort.Strings(*bucket)
	}
	return res
}

func (c Comparer) compareDir(dirA, dirB, rel string, res *Result) {
	entriesA, okA := c.readDir(dirA)
	entriesB, okB := c.readDir(dirB)
	if !okA || !okB {
		res.Identical = false
		res.HasImportantChanges = true
		return
	}

	for _, name := range unionNames(entriesA, entriesB) {
		infoA, inA := entriesA[name]
		infoB, inB := entriesB[name]
		relPath := path.Join(rel, name)

		switch {
		case inA && !inB:
			c.onlyIn(infoA, relPath, &res.FilesOnlyInA, &res.DirsOnlyInA, res)
		case inB && !inA:
			c.onlyIn(infoB, relPath, &res.FilesOnlyInB, &res.DirsOnlyInB, res)
		case infoA.IsDir() && infoB.IsDir():
			c.compareDir(filepath.Join(dirA, name), filepath.Join(dirB, name), relPath, res)
		case infoA.IsDir() != infoB.IsDir():
			res.TypeConflicts = append(res.TypeConflicts, relPath)
			res.Identical = false
			res.HasImportantChanges = true
		case c.Ignore.Matches(name):
		default:
			c.compareFile(filepath.Join(dirA, name), filepath.Join(dirB, name),
				infoA, infoB, relPath, res)
		}
	}
}

func (c Comparer) onlyIn(fi os.FileInfo, relPath string, files, dirs *[]string, res *Result) {
	if fi.IsDir() {
		*dirs = append(*dirs, relPath)
	} else if c.Ignore.Matches(fi.Name()) {
		return
	} else {
		*files = append(*files, relPath)
	}
	res.Identical = false
	res.HasImportantChanges = true
}

func (c Comparer) compareFile(pathA, pathB string, infoA, infoB os.FileInfo,
	relPath string, res *Result) {

	if infoA.Size() == infoB.Size() {
		same, err := c.sameContents(pathA, pathB)
		if err != nil {
			log.WithError(err).WithField("path", relPath).Warn(
				"Failed to compare file contents. Treating it as modified.")
		} else if same {
			return
		}
	}

	res.ModifiedFiles = append(res.ModifiedFiles, relPath)
	res.Identical = false

	sizeDelta := infoA.Size() - infoB.Size()
	if sizeDelta < 0 {
		sizeDelta = -sizeDelta
	}
	if sizeDelta > c.SizeThreshold || c.isRecent(infoA.ModTime()) || c.isRecent(infoB.ModTime()) {
		res.HasImportantChanges = true
	}
}

func (c Comparer) isRecent(modTime time.Time) bool {
	return c.Clock.Now().Sub(modTime) < c.RecentWindow
}

// sameContents compares the full contents of two files of equal size.
func (c Comparer) sameContents(pathA, pathB string) (bool, error) {
	fA, err := c.Fs.Open(pathA)
	if err != nil {
		return false, err
	}
	defer fA.Close()

	fB, err := c.Fs.Open(pathB)
	if err != nil {
		return false, err
	}
	defer fB.Close()

	bufA := make([]byte, compareBufferSize)
	bufB := make([]byte, compareBufferSize)
	for {
		nA, errA := io.ReadFull(fA, bufA)
		nB, errB := io.ReadFull(fB, bufB)
		if !bytes.Equal(bufA[:nA], bufB[:nB]) {
			return false, nil
		}

		doneA := errA == io.EOF || errA == io.ErrUnexpectedEOF
		doneB := errB == io.EOF || errB == io.ErrUnexpectedEOF
		switch {
		case errA != nil && !doneA:
			return false, errA
		case errB != nil && !doneB:
			return false, errB
		case doneA || doneB:
			return doneA == doneB, nil
		}
	}
}

func (c Comparer) isDir(dir string) bool {
	fi, err := c.Fs.Stat(dir)
	return err == nil && fi.IsDir()
}

func (c Comparer) readDir(dir string) (map[string]os.FileInfo, bool) {
	infos, err := afero.ReadDir(c.Fs, dir)
	if err != nil {
		log.WithError(err).WithField("dir", dir).Warn("Failed to read directory")
		return nil, false
	}

	entries := map[string]os.FileInfo{}
	for _, fi := range infos {
		entries[fi.Name()] = fi
	}
	return entries, true
}

func unionNames(a, b map[string]os.FileInfo) []string {
	var names []string
	for name := range a {
		names = append(names, name)
	}
	for name := range b {
		if _, ok := a[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
