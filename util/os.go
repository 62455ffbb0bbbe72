package util

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// MkExclDir creates a new child directory of parent that did not exist prior to this invocation.
//
// Stem is the desired name of the directory. The directory actually created might have a numeric suffix such as
// stem-1, stem-2, etc. The returned name is the path to the newly created directory.
func MkExclDir(parent, stem string, perm os.FileMode) (name string, err error) {
	name = filepath.Join(parent, stem)
	for i := 0; ; {
		switch err = os.Mkdir(name, perm); {
		case err == nil:
			return
		case errors.Is(err, os.ErrExist):
			i++
			name = filepath.Join(parent, stem+"-"+strconv.Itoa(i))
		default:
			return "", fmt.Errorf(`create directory "%s" error: %w`, name, err)
		}
	}
}

// DirBase joins both filepath.Dir and filepath.Base for the given file name.
//
// Printing the parent directory along with the base name makes log lines unambiguous when the working directory is
// not obvious.
func DirBase(name string) string {
	dir := filepath.Dir(name)
	base := filepath.Base(name)
	if dir != "" && dir != "." {
		return filepath.Join(filepath.Base(dir), base)
	}

	if abs, err := filepath.Abs(name); err == nil {
		return filepath.Join(filepath.Base(filepath.Dir(abs)), base)
	}

	return base
}

// IsDir returns true only if name exists and is a directory, following symlinks.
func IsDir(name string) bool {
	fi, err := os.Stat(name)
	return err == nil && fi.IsDir()
}
