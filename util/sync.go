package util

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Fsync forces the contents of the open file to stable storage.
//
// On darwin this uses F_FULLFSYNC because plain fsync there only pushes data to the drive's cache. Elsewhere it is
// fsync(2), or FlushFileBuffers on Windows.
func Fsync(f *os.File) error {
	if err := fsync(f); err != nil {
		return &fs.PathError{Op: "fsync", Path: f.Name(), Err: err}
	}

	return nil
}

// SyncDir opens the named directory and forces its entries to stable storage.
//
// Syncing the parent directory is what makes a rename or link inside it durable.
func SyncDir(name string) error {
	f, err := openDir(name)
	if err != nil {
		return err
	}

	return ChainCloser(func() error { return Fsync(f) }, f.Close)()
}

// SyncTree calls SyncDir on root and every directory beneath it.
//
// Regular files are not synced individually.
func SyncTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		switch {
		case err != nil:
			return err
		case !d.IsDir():
			return nil
		}

		if err = SyncDir(path); err != nil {
			return fmt.Errorf(`sync directory "%s" error: %w`, path, err)
		}

		return nil
	})
}
