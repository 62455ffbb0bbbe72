package fsx

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/nguyengg/fsx/archive"
)

// VerifyExtraction checks that every named member would be extracted inside dir.
//
// Both dir and each member's destination are resolved to canonical absolute paths, following any symlinks that
// already exist, then compared segment by segment so that "/dst2" is never mistaken for being inside "/dst". The whole
// listing is checked before returning; nothing is written. The first offending member is returned as an
// *UnsafeArchiveError.
func VerifyExtraction(dir string, names []string) error {
	es := make([]archive.Entry, len(names))
	for i, name := range names {
		es[i] = archive.Entry{Name: name}
	}

	return VerifyEntries(dir, es)
}

// VerifyEntries is VerifyExtraction with member types, which also catches members that escape dir through links
// created by the same archive.
//
// A hard link must refer to a member inside dir, and no member may be written through a symlink member that comes
// earlier in the listing, wherever that symlink points.
func VerifyEntries(dir string, es []archive.Entry) error {
	root, err := canonicalPath(dir)
	if err != nil {
		return fmt.Errorf(`resolve target directory "%s" error: %w`, dir, err)
	}

	inside := func(name string) (string, bool, error) {
		target, err := canonicalPath(archive.MemberPath(root, name))
		if err != nil {
			return "", false, fmt.Errorf(`resolve member "%s" error: %w`, name, err)
		}

		return target, isUnder(root, target), nil
	}

	symlinks := make(map[string]bool)
	for _, e := range es {
		target, ok, err := inside(e.Name)
		switch {
		case err != nil:
			return err
		case !ok:
			return &UnsafeArchiveError{Member: e.Name, Dir: root, Target: target}
		}

		if link := throughSymlink(symlinks, e.Name); link != "" {
			return &UnsafeArchiveError{Member: e.Name, Dir: root, Target: target, Symlink: link}
		}

		if e.HardLink != "" {
			linkTarget, ok, err := inside(e.HardLink)
			switch {
			case err != nil:
				return err
			case !ok:
				return &UnsafeArchiveError{Member: e.Name, Dir: root, Target: linkTarget, HardLink: e.HardLink}
			}

			if link := throughSymlink(symlinks, e.HardLink); link != "" {
				return &UnsafeArchiveError{Member: e.Name, Dir: root, Target: linkTarget, HardLink: e.HardLink, Symlink: link}
			}
		}

		if e.Mode&fs.ModeSymlink != 0 {
			symlinks[memberKey(e.Name)] = true
		}
	}

	return nil
}

// throughSymlink returns the symlink member that is a proper ancestor of name, or "" if there is none.
func throughSymlink(symlinks map[string]bool, name string) string {
	if len(symlinks) == 0 {
		return ""
	}

	for p := path.Dir(memberKey(name)); p != "." && p != "/"; p = path.Dir(p) {
		if symlinks[p] {
			return p
		}
	}

	return ""
}

// memberKey normalises a member name the way extraction resolves it relative to the target directory.
func memberKey(name string) string {
	return strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(name)), "/")
}

// canonicalPath returns the absolute form of name with every symlink in its longest existing prefix resolved.
//
// The rest of the path, which does not exist yet, is appended as is.
func canonicalPath(name string) (string, error) {
	name, err := filepath.Abs(name)
	if err != nil {
		return "", err
	}

	existing, rest := name, ""
	for {
		resolved, err := filepath.EvalSymlinks(existing)
		switch {
		case err == nil:
			return filepath.Join(resolved, rest), nil
		case !errors.Is(err, fs.ErrNotExist) && !errors.Is(err, syscall.ENOTDIR):
			return "", err
		}

		parent := filepath.Dir(existing)
		if parent == existing {
			return name, nil
		}

		rest = filepath.Join(filepath.Base(existing), rest)
		existing = parent
	}
}
