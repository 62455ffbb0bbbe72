// Package walk lists directory contents with include and exclude filters.
//
// A *Lister is restartable: every call to All performs a fresh listing. Listers can be passed directly as archive
// sources to fsx.Archive, in which case only the listed paths are added.
package walk

import (
	"errors"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"regexp"
)

// Filter reports whether a listed path matches.
type Filter func(path string, d fs.DirEntry) bool

// Glob returns a Filter that matches if either the full path or its base name matches pattern per filepath.Match.
//
// An invalid pattern never matches.
func Glob(pattern string) Filter {
	return func(path string, _ fs.DirEntry) bool {
		if ok, _ := filepath.Match(pattern, path); ok {
			return true
		}

		ok, _ := filepath.Match(pattern, filepath.Base(path))
		return ok
	}
}

// Regexp returns a Filter that matches if re matches at the start of the path.
func Regexp(re *regexp.Regexp) Filter {
	return func(path string, _ fs.DirEntry) bool {
		loc := re.FindStringIndex(path)
		return loc != nil && loc[0] == 0
	}
}

// Func returns a Filter that calls fn with just the path.
func Func(fn func(path string) bool) Filter {
	return func(path string, _ fs.DirEntry) bool {
		return fn(path)
	}
}

// Options customises Walk and Ls.
type Options struct {
	// OnlyFiles limits results to non-directories. Mutually exclusive with OnlyDirs.
	OnlyFiles bool

	// OnlyDirs limits results to directories. Mutually exclusive with OnlyFiles.
	OnlyDirs bool

	// Include keeps a path only if any of these filters matches. An empty Include keeps everything.
	//
	// A directory that is not included is still descended into, so its contents remain eligible.
	Include []Filter

	// Exclude drops a path if any of these filters matches. An excluded directory is not descended into.
	Exclude []Filter
}

// ErrOnlyFilesAndDirs is returned when both Options.OnlyFiles and Options.OnlyDirs are set.
var ErrOnlyFilesAndDirs = errors.New("only files and only dirs cannot both be true")

// Lister lists the contents of a directory.
type Lister struct {
	dir       string
	recursive bool
	opts      Options
}

// Walk returns a Lister that lists dir recursively in lexical depth-first order.
//
// Symlinks to directories are listed but never descended into. The directory itself is not part of the listing.
func Walk(dir string, optFns ...func(*Options)) *Lister {
	return newLister(dir, true, optFns)
}

// Ls returns a Lister that lists only the immediate children of dir in lexical order.
func Ls(dir string, optFns ...func(*Options)) *Lister {
	return newLister(dir, false, optFns)
}

// Files is a variant of Walk that lists only files.
func Files(dir string, optFns ...func(*Options)) *Lister {
	return Walk(dir, append(optFns, func(opts *Options) {
		opts.OnlyFiles = true
	})...)
}

// Dirs is a variant of Walk that lists only directories.
func Dirs(dir string, optFns ...func(*Options)) *Lister {
	return Walk(dir, append(optFns, func(opts *Options) {
		opts.OnlyDirs = true
	})...)
}

func newLister(dir string, recursive bool, optFns []func(*Options)) *Lister {
	l := &Lister{dir: dir, recursive: recursive}
	for _, fn := range optFns {
		fn(&l.opts)
	}

	return l
}

// Path returns the directory being listed.
func (l *Lister) Path() string {
	return l.dir
}

// All returns an iterator over the listed paths, each joined with the directory given to Walk or Ls.
//
// An error stops the iteration after it has been yielded.
func (l *Lister) All() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if l.opts.OnlyFiles && l.opts.OnlyDirs {
			yield("", ErrOnlyFilesAndDirs)
			return
		}

		err := filepath.WalkDir(l.dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if path == l.dir {
				return nil
			}

			isDir := d.IsDir()

			for _, fn := range l.opts.Exclude {
				if fn(path, d) {
					if isDir {
						return filepath.SkipDir
					}
					return nil
				}
			}

			if l.included(path, d) && !yield(path, nil) {
				return filepath.SkipAll
			}

			if isDir && !l.recursive {
				return filepath.SkipDir
			}

			return nil
		})
		if err != nil {
			yield("", err)
		}
	}
}

// Collect returns all listed paths.
func (l *Lister) Collect() ([]string, error) {
	var paths []string
	for path, err := range l.All() {
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}

	return paths, nil
}

func (l *Lister) included(path string, d fs.DirEntry) bool {
	isDir := d.IsDir()
	if d.Type()&fs.ModeSymlink != 0 {
		if fi, err := os.Stat(path); err == nil {
			isDir = fi.IsDir()
		}
	}

	switch {
	case l.opts.OnlyFiles && isDir:
		return false
	case l.opts.OnlyDirs && !isDir:
		return false
	case len(l.opts.Include) == 0:
		return true
	}

	for _, fn := range l.opts.Include {
		if fn(path, d) {
			return true
		}
	}

	return false
}
