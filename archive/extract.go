package archive

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/mholt/archives"
	"github.com/nguyengg/fsx/util"
)

// extractor is the archives.Extractor half shared by Tar and Zip readers.
type extractor interface {
	Extract(ctx context.Context, archive io.Reader, handleFile archives.FileHandler) error
}

// list returns the names of all members in the order the extractor visits them.
func list(ctx context.Context, ex extractor, r io.Reader) (names []string, err error) {
	err = ex.Extract(ctx, r, func(ctx context.Context, f archives.FileInfo) error {
		names = append(names, f.NameInArchive)
		return ctx.Err()
	})
	return
}

// entries is list with member types.
func entries(ctx context.Context, ex extractor, r io.Reader) (es []Entry, err error) {
	err = ex.Extract(ctx, r, func(ctx context.Context, f archives.FileInfo) error {
		e := Entry{Name: f.NameInArchive, Mode: f.Mode().Type()}
		if isHardLink(f) {
			e.Mode, e.HardLink = 0, f.LinkTarget
		}

		es = append(es, e)
		return ctx.Err()
	})
	return
}

// dirAttrs is applied to extracted directories after all of their children have been written, since writing a child
// both requires write permission on its parent and bumps the parent's modification time.
type dirAttrs struct {
	path    string
	mode    fs.FileMode
	modTime time.Time
}

// extractAll writes every member visited by the extractor to dir.
func extractAll(ctx context.Context, ex extractor, r io.Reader, dir string) error {
	var (
		buf  = make([]byte, util.DefaultBufferSize)
		dirs []dirAttrs
	)

	if err := ex.Extract(ctx, r, func(ctx context.Context, f archives.FileInfo) error {
		if f.NameInArchive == "" {
			return nil
		}

		target := MemberPath(dir, f.NameInArchive)

		switch {
		case f.IsDir():
			if err := os.MkdirAll(target, 0o700); err != nil {
				return err
			}
			dirs = append(dirs, dirAttrs{target, f.Mode().Perm(), f.ModTime()})
			return nil

		case f.Mode()&fs.ModeSymlink != 0:
			return extractSymlink(target, f)

		case isHardLink(f):
			return extractHardLink(target, MemberPath(dir, f.LinkTarget))

		case f.Mode().IsRegular():
			return extractFile(ctx, target, f, buf)

		default:
			// devices, fifos, and sockets are never created.
			return nil
		}
	}); err != nil {
		return err
	}

	var errs []error
	for _, d := range slices.Backward(dirs) {
		if err := os.Chmod(d.path, d.mode); err != nil {
			errs = append(errs, err)
		}
		if !d.modTime.IsZero() {
			if err := os.Chtimes(d.path, d.modTime, d.modTime); err != nil {
				errs = append(errs, err)
			}
		}
	}

	return errors.Join(errs...)
}

func isHardLink(f archives.FileInfo) bool {
	hdr, ok := f.Header.(*tar.Header)
	return ok && hdr.Typeflag == tar.TypeLink
}

func extractFile(ctx context.Context, target string, f archives.FileInfo, buf []byte) (err error) {
	if err = os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	// an existing file at target may be a symlink or a hard link to somewhere else, so it is unlinked and the member
	// is written to a new inode.
	if fi, err := os.Lstat(target); err == nil && !fi.IsDir() {
		if err = os.Remove(target); err != nil {
			return err
		}
	}

	in, err := f.Open()
	if err != nil {
		return fmt.Errorf(`open member "%s" error: %w`, f.NameInArchive, err)
	}
	defer in.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_EXCL, f.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err = util.CopyBufferWithContext(ctx, out, in, buf); err != nil {
		_ = out.Close()
		return fmt.Errorf(`write member "%s" error: %w`, f.NameInArchive, err)
	}

	if err = out.Close(); err != nil {
		return err
	}

	// the umask applies to the mode given to OpenFile.
	if err = os.Chmod(target, f.Mode().Perm()); err != nil {
		return err
	}

	if modTime := f.ModTime(); !modTime.IsZero() {
		return os.Chtimes(target, modTime, modTime)
	}

	return nil
}

func extractSymlink(target string, f archives.FileInfo) error {
	linkTarget := f.LinkTarget
	if linkTarget == "" {
		// zip stores the link target as the member's content.
		in, err := f.Open()
		if err != nil {
			return fmt.Errorf(`open member "%s" error: %w`, f.NameInArchive, err)
		}

		data, err := io.ReadAll(in)
		_ = in.Close()
		if err != nil {
			return fmt.Errorf(`read member "%s" error: %w`, f.NameInArchive, err)
		}

		linkTarget = string(data)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return os.Symlink(linkTarget, target)
}

func extractHardLink(target, oldname string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return os.Link(oldname, target)
}
