package util

import (
	"errors"
	"io/fs"
	"os"
	"syscall"
)

// RenameNoReplace renames oldpath to newpath, failing with an error matching fs.ErrExist if newpath already exists.
//
// On Linux and macOS the check and the rename are a single system call. Elsewhere, and on file systems that do not
// support that call, newpath is checked with os.Lstat first, which leaves a window where a directory created
// concurrently at newpath can be replaced.
func RenameNoReplace(oldpath, newpath string) error {
	err := renameNoReplace(oldpath, newpath)
	if !errors.Is(err, errors.ErrUnsupported) {
		return err
	}

	switch _, err = os.Lstat(newpath); {
	case err == nil:
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: syscall.EEXIST}
	case !errors.Is(err, fs.ErrNotExist):
		return err
	}

	return os.Rename(oldpath, newpath)
}
