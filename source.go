package fsx

import (
	"context"
	"fmt"
	"iter"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/nguyengg/fsx/walk"
)

// Source is an archive source. Its Path is added under a member name derived from ArchiveOptions.Root or
// ArchiveOptions.Repath.
//
// A Source that is a plain path (see PathSource) contributes its whole subtree if it is a directory. A Source that
// also implements Lister contributes only its Path and the paths it lists.
type Source interface {
	// Path returns the file or directory to add, absolute or relative to the working directory.
	Path() string
}

// Lister is a Source with an explicit listing of descendants, such as one created by walk.Walk or walk.Ls.
type Lister interface {
	Source

	// All returns the paths to add after Path, each of which must be Path or a descendant of Path.
	All() iter.Seq2[string, error]
}

// PathSource is a Source that is just a path.
type PathSource string

func (s PathSource) Path() string {
	return string(s)
}

// Paths converts each path to a PathSource.
func Paths(paths ...string) []Source {
	sources := make([]Source, len(paths))
	for i, p := range paths {
		sources[i] = PathSource(p)
	}

	return sources
}

var _ Lister = (*walk.Lister)(nil)

// archiveSource is a Source resolved to its absolute path and member name.
type archiveSource struct {
	src  Source
	path string
	name string
}

// member is one file, symlink, or directory to add to an archive.
type member struct {
	path string
	name string
}

// resolveSources computes the member name of every source.
//
// Sources not found in repath must be under root. If root is empty, it defaults to the parent of the longest common
// path of all sources.
func resolveSources(sources []Source, root string, repath map[string]string) ([]archiveSource, error) {
	resolved := make([]archiveSource, len(sources))
	abs := make([]string, len(sources))
	for i, src := range sources {
		p, err := filepath.Abs(src.Path())
		if err != nil {
			return nil, fmt.Errorf(`resolve absolute path of "%s" error: %w`, src.Path(), err)
		}

		resolved[i] = archiveSource{src: src, path: p}
		abs[i] = p
	}

	var err error
	if root == "" {
		root, err = commonPath(abs)
		if err != nil {
			return nil, err
		}

		root = filepath.Dir(root)
	} else if root, err = filepath.Abs(root); err != nil {
		return nil, fmt.Errorf(`resolve absolute path of root "%s" error: %w`, root, err)
	}

	byPath, err := normalizeRepath(repath)
	if err != nil {
		return nil, err
	}

	used := make(map[string]bool, len(byPath))
	for i := range resolved {
		s := &resolved[i]

		if name, ok := byPath[s.path]; ok {
			s.name = path.Clean(filepath.ToSlash(name))
			used[s.path] = true
			continue
		}

		rel, err := filepath.Rel(root, s.path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil, fmt.Errorf(`source "%s" is not under root "%s": %w`, s.src.Path(), root, ErrNotUnderRoot)
		}

		s.name = filepath.ToSlash(rel)
	}

	for key := range byPath {
		if !used[key] {
			return nil, fmt.Errorf(`repath key "%s" is not an archive source: %w`, key, ErrInvalidRepath)
		}
	}

	return resolved, nil
}

// normalizeRepath keys the member names of repath by the absolute, cleaned form of each key, so that "./src/", "src",
// and "/abs/path/to/src" all name the same source.
//
// Two keys that name the same path with different member names are an error.
func normalizeRepath(repath map[string]string) (map[string]string, error) {
	if len(repath) == 0 {
		return nil, nil
	}

	normalized := make(map[string]string, len(repath))
	for key, name := range repath {
		abs, err := filepath.Abs(key)
		if err != nil {
			return nil, fmt.Errorf(`resolve absolute path of repath key "%s" error: %w`, key, err)
		}

		if prev, ok := normalized[abs]; ok && prev != name {
			return nil, fmt.Errorf(`repath gives "%s" two names "%s" and "%s": %w`, abs, prev, name, ErrInvalidRepath)
		}

		normalized[abs] = name
	}

	return normalized, nil
}

// commonPath returns the longest common path of the given absolute, clean paths, comparing whole path segments.
func commonPath(paths []string) (string, error) {
	if len(paths) == 0 {
		return "", fmt.Errorf("no archive source paths")
	}

	common := paths[0]
	for _, p := range paths[1:] {
		if filepath.VolumeName(p) != filepath.VolumeName(common) {
			return "", fmt.Errorf(`paths "%s" and "%s" are on different volumes: %w`, common, p, ErrNotUnderRoot)
		}

		for !isUnder(common, p) {
			parent := filepath.Dir(common)
			if parent == common {
				break
			}
			common = parent
		}
	}

	return common, nil
}

// isUnder returns true if p is dir or a descendant of dir.
func isUnder(dir, p string) bool {
	rel, err := filepath.Rel(dir, p)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// members returns the iteration order of everything s contributes: its own path first, then its listing if it is a
// Lister, or its descendants if it is a directory.
//
// Members whose name is "." or ".." are skipped; they come from a source that is the root itself.
func (s archiveSource) members(ctx context.Context) iter.Seq2[member, error] {
	return func(yield func(member, error) bool) {
		if keep(s.name) && !yield(member{s.path, s.name}, nil) {
			return
		}

		var children iter.Seq2[string, error]
		if l, ok := s.src.(Lister); ok {
			children = l.All()
		} else if fi, err := os.Stat(s.path); err != nil {
			yield(member{}, err)
			return
		} else if fi.IsDir() {
			children = walk.Walk(s.path).All()
		} else {
			return
		}

		for p, err := range children {
			if err == nil {
				err = ctx.Err()
			}
			if err != nil {
				yield(member{}, err)
				return
			}

			if p, err = filepath.Abs(p); err != nil {
				yield(member{}, err)
				return
			}

			rel, err := filepath.Rel(s.path, p)
			if err != nil || !isUnder(s.path, p) {
				yield(member{}, fmt.Errorf(`listed path "%s" is not under source "%s"`, p, s.path))
				return
			}

			if name := path.Join(s.name, filepath.ToSlash(rel)); keep(name) && !yield(member{p, name}, nil) {
				return
			}
		}
	}
}

func keep(name string) bool {
	return name != "." && name != ".."
}
