package internal

import (
	"strings"
)

// TopLevelDir returns the single top-level directory that every member of an archive is under.
//
// Given these member names (which always use "/" as separator, though "\\" is tolerated):
//
//	test
//	test/a.txt
//	test/path/b.txt
//
// The top-level directory is "test". The returned boolean is false if members are under different top-level
// directories, if any member points outside the archive, or if no member is nested at all, since a lone top-level
// name cannot be told apart from a top-level file.
func TopLevelDir(names []string) (root string, ok bool) {
	fn := NewTopLevelDirFinder()
	for _, name := range names {
		if root, ok = fn(name); root == "" {
			return "", false
		}
	}

	if !ok {
		return "", false
	}

	return root, true
}

// NewTopLevelDirFinder returns a function that can be passed member names one at a time to compute the top-level
// directory.
//
// NewTopLevelDirFinder is a functional variant of TopLevelDir. It returns the candidate so far, and whether at least
// one member has been nested under that candidate. As soon as the returned candidate is empty, the search can stop
// since there is no common top-level directory and subsequent calls will keep returning `"", false`.
func NewTopLevelDirFinder() func(string) (root string, ok bool) {
	var (
		noRoot, nested bool
		root           string
	)

	return func(name string) (string, bool) {
		if noRoot {
			return "", false
		}

		name = strings.TrimLeft(strings.ReplaceAll(name, "\\", "/"), "/")
		for strings.HasPrefix(name, "./") {
			name = name[2:]
		}

		first, rest, found := strings.Cut(name, "/")
		switch {
		case first == "" || first == "." || first == "..":
			noRoot = true
			return "", false
		case root != "" && root != first:
			noRoot = true
			return "", false
		}

		root = first
		if found && rest != "" {
			nested = true
		}

		return root, nested
	}
}
