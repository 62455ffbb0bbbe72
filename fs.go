package fsx

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"github.com/nguyengg/fsx/util"
)

// Rm removes each named file or directory tree.
//
// Paths that do not exist are not errors, so Rm is safe to use for cleanup that may run more than once.
func Rm(paths ...string) error {
	var errs []error
	for _, path := range paths {
		if err := os.RemoveAll(path); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Mkdir creates each named directory along with any missing parents using permission 0777 before umask.
func Mkdir(paths ...string) error {
	var errs []error
	for _, path := range paths {
		if err := os.MkdirAll(path, 0777); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// rename is os.Rename, replaced in tests to simulate moves across file systems.
var rename = os.Rename

// Mv moves the file or directory src to dst.
//
// Missing parents of dst are created. If dst is an existing directory, src is moved under it with its own base name.
// Otherwise src is renamed to dst, replacing dst if both are files; a directory can replace only an empty directory.
// If src and dst are on different file systems, src is copied with Cp to a temporary sibling of dst, which is then
// renamed to dst before src is removed.
func Mv(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0777); err != nil {
		return err
	}

	if util.IsDir(dst) {
		dst = filepath.Join(dst, filepath.Base(src))
	}

	if err := rename(src, dst); !util.IsCrossDevice(err) {
		return err
	}

	tmp, err := util.TempPath(dst, "_", "", true)
	if err != nil {
		return err
	}
	defer Rm(tmp)

	if err = Cp(src, tmp); err != nil {
		return fmt.Errorf(`copy "%s" across file systems error: %w`, src, err)
	}

	if err = os.Rename(tmp, dst); err != nil {
		return err
	}

	return Rm(src)
}

// WriteFileAtomic is the atomic variant of os.WriteFile.
//
// The data is written to a temporary sibling first, so name either keeps its previous content or has all of data.
func WriteFileAtomic(name string, data []byte, perm fs.FileMode, optFns ...func(*AtomicFileOptions)) error {
	return WithAtomicFile(name, func(f *os.File) error {
		_, err := f.Write(data)
		return err
	}, append([]func(*AtomicFileOptions){func(opts *AtomicFileOptions) {
		opts.Perm = perm
	}}, optFns...)...)
}

// Cp copies the file or directory src to dst, following symlinks.
//
// If src is a file and dst is an existing directory, the file is copied into dst under its own base name. Each file is
// written to a temporary sibling then renamed into place, keeping its mode and modification time. If src is a
// directory, its tree is merged into dst which is created if necessary; a *fs.PathError matching fs.ErrExist is
// returned if dst is an existing non-directory.
func Cp(src, dst string) error {
	fi, err := os.Stat(src)
	if err != nil {
		return err
	}

	if err = os.MkdirAll(filepath.Dir(dst), 0777); err != nil {
		return err
	}

	if !fi.IsDir() {
		if util.IsDir(dst) {
			dst = filepath.Join(dst, filepath.Base(src))
		}

		return copyFile(src, dst, fi)
	}

	if dfi, err := os.Stat(dst); err == nil && !dfi.IsDir() {
		return &fs.PathError{Op: "copy", Path: dst, Err: syscall.EEXIST}
	}

	// the walk would not descend into src if it were a symlink.
	if src, err = filepath.EvalSymlinks(src); err != nil {
		return err
	}

	buf := make([]byte, util.DefaultBufferSize)
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		// the walk does not follow symlinks but Cp does.
		fi, err := os.Stat(path)
		if err != nil {
			return err
		}

		target := filepath.Join(dst, rel)
		if fi.IsDir() {
			if err = os.MkdirAll(target, fi.Mode().Perm()); err != nil {
				return err
			}
			if d.Type()&fs.ModeSymlink != 0 {
				return Cp(path, target)
			}
			return nil
		}

		return copyFileBuffer(path, target, fi, buf)
	})
}

func copyFile(src, dst string, fi fs.FileInfo) error {
	return copyFileBuffer(src, dst, fi, make([]byte, util.DefaultBufferSize))
}

func copyFileBuffer(src, dst string, fi fs.FileInfo, buf []byte) (err error) {
	tmp, err := util.TempPath(dst, "_", "", true)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = Rm(tmp)
		}
	}()

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, fi.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err = io.CopyBuffer(out, in, buf); err != nil {
		_ = out.Close()
		return fmt.Errorf(`copy "%s" error: %w`, src, err)
	}

	if err = out.Close(); err != nil {
		return err
	}

	if err = os.Chmod(tmp, fi.Mode().Perm()); err != nil {
		return err
	}

	if err = os.Chtimes(tmp, fi.ModTime(), fi.ModTime()); err != nil {
		return err
	}

	return os.Rename(tmp, dst)
}
