package diff

import (
	"github.com/gobwas/glob"
)

// DefaultIgnorePatterns are the file names that never count as a difference.
// The game holds session.lock while a world is open, and the rest are OS
// metadata or editor and temp files.
var DefaultIgnorePatterns = []string{
	"session.lock",
	".DS_Store",
	"Thumbs.db",
	"desktop.ini",
	"*.tmp",
	"*.temp",
	"*.swp",
	"*~",
	"~*",
}

// DefaultIgnoreList is the compiled form of DefaultIgnorePatterns.
var DefaultIgnoreList = MustCompileIgnoreList(DefaultIgnorePatterns...)

// IgnoreList matches file names against glob patterns.
type IgnoreList struct {
	patterns []glob.Glob
}

// CompileIgnoreList compiles the given glob patterns.
func CompileIgnoreList(patterns ...string) (IgnoreList, error) {
	var list IgnoreList
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return IgnoreList{}, err
		}
		list.patterns = append(list.patterns, g)
	}
	return list, nil
}

// MustCompileIgnoreList is like CompileIgnoreList but panics on an invalid
// pattern.
func MustCompileIgnoreList(patterns ...string) IgnoreList {
	list, err := CompileIgnoreList(patterns...)
	if err != nil {
		panic(err)
	}
	return list
}

// Matches returns whether the file name should be ignored.
func (list IgnoreList) Matches(name string) bool {
	for _, g := range list.patterns {
		if g.Match(name) {
			return true
		}
	}
	return false
}
