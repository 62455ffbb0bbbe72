package fsx

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"github.com/nguyengg/fsx/util"
)

// AtomicFileOptions customises CreateAtomicFile and WithAtomicFile.
type AtomicFileOptions struct {
	// Flag is passed to os.OpenFile when creating the temporary file.
	//
	// Flag must include os.O_WRONLY or os.O_RDWR and must not include os.O_EXCL; use Overwrite instead. os.O_CREATE
	// and os.O_EXCL are always added since the temporary file is new. Default to os.O_WRONLY.
	Flag int

	// Perm is the permission of the temporary file before umask, which the destination inherits.
	//
	// Default to 0666.
	Perm fs.FileMode

	// SkipSync skips the fsync of the file and of its parent directory.
	//
	// Skipping can help with performance at the cost of durability.
	SkipSync bool

	// Overwrite replaces an existing destination. If false, Commit fails with an error matching fs.ErrExist if the
	// destination exists at the time of commit.
	//
	// Default to true.
	Overwrite bool
}

// AtomicFile is a temporary file that replaces its destination only upon Commit.
//
// Writes go to the embedded *os.File, whose Name is the temporary path. Readers of the destination never observe a
// partially written file: they see either the previous content or the committed content.
type AtomicFile struct {
	*os.File

	name string
	opts AtomicFileOptions
	done bool
}

// CreateAtomicFile creates a hidden temporary file next to name that will replace name upon Commit.
//
// The parent directory of name is created if it does not exist. Callers must always call Cleanup, typically with
// defer, so that the temporary file is removed if Commit is never reached or fails:
//
//	f, err := fsx.CreateAtomicFile("data.json")
//	if err != nil {
//		return err
//	}
//	defer f.Cleanup()
//
//	if _, err = f.Write(data); err != nil {
//		return err
//	}
//
//	return f.Commit()
func CreateAtomicFile(name string, optFns ...func(*AtomicFileOptions)) (*AtomicFile, error) {
	opts := AtomicFileOptions{
		Flag:      os.O_WRONLY,
		Perm:      0666,
		Overwrite: true,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Flag&(os.O_WRONLY|os.O_RDWR) == 0 || opts.Flag&os.O_EXCL != 0 {
		return nil, fmt.Errorf("create atomic file \"%s\" with flag %#x error: %w", name, opts.Flag, ErrInvalidFlag)
	}

	if fi, err := os.Stat(name); err == nil && fi.IsDir() {
		return nil, &fs.PathError{Op: "open", Path: name, Err: syscall.EISDIR}
	}

	if err := os.MkdirAll(filepath.Dir(name), 0777); err != nil {
		return nil, err
	}

	tmp, err := util.TempPath(name, "_", ".tmp", true)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(tmp, opts.Flag|os.O_CREATE|os.O_EXCL, opts.Perm)
	if err != nil {
		return nil, err
	}

	return &AtomicFile{File: f, name: name, opts: opts}, nil
}

// Destination returns the path the file is committed to.
func (f *AtomicFile) Destination() string {
	return f.name
}

// Commit syncs and closes the temporary file then moves it onto the destination.
//
// When Overwrite is false, the temporary file is hard-linked to the destination, which fails if the destination
// exists, and its temporary name is removed afterwards. The parent directory is synced last so the new name survives a
// crash. Commit can only be called once; the temporary file is removed on failure.
func (f *AtomicFile) Commit() (err error) {
	if f.done {
		return &fs.PathError{Op: "commit", Path: f.name, Err: os.ErrClosed}
	}
	f.done = true

	tmp := f.File.Name()
	defer func() {
		if err != nil {
			_ = Rm(tmp)
		}
	}()

	if !f.opts.SkipSync {
		err = util.ChainCloser(func() error { return util.Fsync(f.File) }, f.File.Close)()
	} else {
		err = f.File.Close()
	}
	if err != nil {
		return err
	}

	if f.opts.Overwrite {
		err = os.Rename(tmp, f.name)
	} else if err = os.Link(tmp, f.name); err == nil {
		err = os.Remove(tmp)
	}
	if err != nil {
		return err
	}

	if !f.opts.SkipSync {
		return util.SyncDir(filepath.Dir(f.name))
	}

	return nil
}

// Cleanup closes and removes the temporary file if it still exists.
//
// Cleanup is a no-op after a successful Commit and can be called any number of times.
func (f *AtomicFile) Cleanup() error {
	if !f.done {
		f.done = true
		_ = f.File.Close()
	}

	return Rm(f.File.Name())
}

// WithAtomicFile calls fn with a file that replaces name once fn returns nil.
//
// If fn returns an error, the destination is left untouched and the error is returned as is.
func WithAtomicFile(name string, fn func(f *os.File) error, optFns ...func(*AtomicFileOptions)) error {
	f, err := CreateAtomicFile(name, optFns...)
	if err != nil {
		return err
	}
	defer f.Cleanup()

	if err = fn(f.File); err != nil {
		return err
	}

	return f.Commit()
}

// AtomicDirOptions customises CreateAtomicDir and WithAtomicDir.
type AtomicDirOptions struct {
	// Perm is the permission of the temporary directory before umask, which the destination inherits.
	//
	// Default to 0777.
	Perm fs.FileMode

	// SkipSync skips syncing the directories of the tree and the parent directory.
	SkipSync bool

	// Overwrite replaces an existing destination directory. If false, Commit fails with an error matching
	// fs.ErrExist if the destination exists at the time of commit, even as an empty directory. See
	// util.RenameNoReplace for the platforms where that check is not atomic.
	//
	// Default to true.
	Overwrite bool
}

// AtomicDir is a temporary directory that replaces its destination only upon Commit.
type AtomicDir struct {
	name string
	tmp  string
	opts AtomicDirOptions
	done bool
}

// CreateAtomicDir creates a hidden temporary directory next to name that will replace name upon Commit.
//
// Populate the directory at Path, then call Commit. Callers must always call Cleanup, typically with defer. If name
// exists as a non-directory, a *fs.PathError matching fs.ErrExist is returned.
func CreateAtomicDir(name string, optFns ...func(*AtomicDirOptions)) (*AtomicDir, error) {
	opts := AtomicDirOptions{
		Perm:      0777,
		Overwrite: true,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	name, err := filepath.Abs(name)
	if err != nil {
		return nil, err
	}

	if fi, err := os.Stat(name); err == nil && !fi.IsDir() {
		return nil, &fs.PathError{Op: "mkdir", Path: name, Err: syscall.EEXIST}
	}

	if err = os.MkdirAll(filepath.Dir(name), 0777); err != nil {
		return nil, err
	}

	tmp, err := util.TempPath(name, "_", "_tmp", true)
	if err != nil {
		return nil, err
	}

	if err = os.Mkdir(tmp, opts.Perm); err != nil {
		return nil, err
	}

	return &AtomicDir{name: name, tmp: tmp, opts: opts}, nil
}

// Path returns the temporary directory to populate.
func (d *AtomicDir) Path() string {
	return d.tmp
}

// Destination returns the absolute path the directory is committed to.
func (d *AtomicDir) Destination() string {
	return d.name
}

// Commit syncs every directory of the temporary tree then renames it onto the destination.
//
// An existing destination is removed first if Overwrite is true. Commit can only be called once; the temporary
// directory is removed on failure.
func (d *AtomicDir) Commit() (err error) {
	if d.done {
		return &fs.PathError{Op: "commit", Path: d.name, Err: os.ErrClosed}
	}
	d.done = true

	defer func() {
		if err != nil {
			_ = Rm(d.tmp)
		}
	}()

	if !d.opts.SkipSync {
		if err = util.SyncTree(d.tmp); err != nil {
			return err
		}
	}

	if d.opts.Overwrite {
		if err = Rm(d.name); err == nil {
			err = os.Rename(d.tmp, d.name)
		}
	} else {
		err = util.RenameNoReplace(d.tmp, d.name)
	}
	if err != nil {
		return err
	}

	if !d.opts.SkipSync {
		return util.SyncDir(filepath.Dir(d.name))
	}

	return nil
}

// Cleanup removes the temporary directory tree if it still exists.
//
// Cleanup is a no-op after a successful Commit and can be called any number of times.
func (d *AtomicDir) Cleanup() error {
	d.done = true
	return Rm(d.tmp)
}

// WithAtomicDir calls fn with a temporary directory that replaces name once fn returns nil.
//
// If fn returns an error, the destination is left untouched and the error is returned as is.
func WithAtomicDir(name string, fn func(dir string) error, optFns ...func(*AtomicDirOptions)) error {
	d, err := CreateAtomicDir(name, optFns...)
	if err != nil {
		return err
	}
	defer d.Cleanup()

	if err = fn(d.tmp); err != nil {
		return err
	}

	return d.Commit()
}
