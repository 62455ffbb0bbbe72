package fsx

import (
	"context"
	"fmt"
	"os"
	"path"

	"github.com/nguyengg/fsx/archive"
)

// ArchiveOptions customises Archive.
type ArchiveOptions struct {
	// Ext overrides the extension that determines the archive format, e.g. ".tar.gz". It is used verbatim.
	//
	// By default, the format is determined by the longest recognised extension of the archive file name.
	Ext string

	// Format overrides both Ext and the archive file name.
	Format archive.Format

	// Root is the directory that member names are relative to.
	//
	// Every source that is not repathed must be Root or a descendant of Root. By default, Root is the parent of the
	// longest common path of all sources, so a single source "path/to/dir" is archived as "dir".
	Root string

	// Repath gives sources explicit member names, replacing their Root-relative names along with the prefix of all
	// of their descendants.
	//
	// Keys are paths resolved like source paths, so "./src/", "src", and the absolute path of "src" all name the same
	// source. A key that names no source, or two keys naming the same source with different names, is an error
	// matching ErrInvalidRepath. Repathed sources are exempt from the Root check.
	Repath map[string]string

	// Rename is the member name of the only source. It is an error to use Rename with more than one source or
	// together with Repath.
	Rename string

	// SkipSync skips the fsync of the archive file and its parent directory upon commit.
	SkipSync bool

	// ProgressReporter is called after each member is added.
	ProgressReporter func(src, name string)
}

// Archive creates the named archive file from the given sources.
//
// Directory sources are added recursively; Lister sources contribute only what they list. Members are added in source
// order, then in the order each source is traversed. The archive is written to a temporary sibling that replaces name
// only if every member has been added, so a failed Archive never leaves a partial file behind.
//
// The returned error is an *archive.FormatError if the format is not recognised, wraps ErrInvalidRepath or
// ErrNotUnderRoot for invalid naming options, and is an *ArchiveError if adding members fails.
func Archive(ctx context.Context, name string, sources []Source, optFns ...func(*ArchiveOptions)) (err error) {
	opts := &ArchiveOptions{}
	for _, fn := range optFns {
		fn(opts)
	}

	format := opts.Format
	if format == nil {
		if format, err = archive.FromName(name, opts.Ext); err != nil {
			return err
		}
	}

	repath := opts.Repath
	if opts.Rename != "" {
		switch {
		case len(repath) != 0:
			return fmt.Errorf("rename and repath are mutually exclusive: %w", ErrInvalidRepath)
		case len(sources) != 1:
			return fmt.Errorf("rename with %d sources: %w", len(sources), ErrInvalidRepath)
		}

		repath = map[string]string{sources[0].Path(): opts.Rename}
	}

	resolved, err := resolveSources(sources, opts.Root, repath)
	if err != nil {
		return err
	}

	f, err := CreateAtomicFile(name, func(o *AtomicFileOptions) {
		o.SkipSync = opts.SkipSync
	})
	if err != nil {
		return err
	}
	defer f.Cleanup()

	if err = writeArchive(ctx, f.File, format, resolved, opts.ProgressReporter); err != nil {
		return &ArchiveError{Op: "archive", Name: name, Err: err}
	}

	if err = f.Commit(); err != nil {
		return &ArchiveError{Op: "archive", Name: name, Err: err}
	}

	return nil
}

func writeArchive(ctx context.Context, s archive.Stream, format archive.Format, sources []archiveSource, reporter func(src, name string)) (err error) {
	b, err := format.Open(s, archive.ModeWrite)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := b.Close(); err == nil {
			err = closeErr
		}
	}()

	for _, src := range sources {
		for m, err := range src.members(ctx) {
			if err != nil {
				return err
			}

			if err = b.Add(ctx, m.path, m.name); err != nil {
				return fmt.Errorf(`add "%s" as "%s" error: %w`, m.path, m.name, err)
			}

			if reporter != nil {
				reporter(m.path, m.name)
			}
		}
	}

	return nil
}

// UnarchiveOptions customises Unarchive.
type UnarchiveOptions struct {
	// Ext overrides the extension that determines the archive format. It is used verbatim.
	Ext string

	// Format overrides both Ext and the archive file name.
	Format archive.Format

	// Trusted skips VerifyEntries.
	//
	// Only set this for archives from trusted sources: members are then written exactly where their names point,
	// which may be outside of the target directory.
	Trusted bool
}

// Unarchive extracts the named archive file into dir.
//
// Unless Trusted is set, every member is checked with VerifyEntries before anything is written, and an
// *UnsafeArchiveError is returned if any member would land outside dir. Any other failure is returned as an
// *ArchiveError; members extracted up to that point are not rolled back.
func Unarchive(ctx context.Context, name, dir string, optFns ...func(*UnarchiveOptions)) error {
	opts := &UnarchiveOptions{}
	for _, fn := range optFns {
		fn(opts)
	}

	return withBackend(name, opts.Format, opts.Ext, "unarchive", func(b archive.Backend) error {
		if !opts.Trusted {
			es, err := b.Entries(ctx)
			if err != nil {
				return err
			}

			if err = VerifyEntries(dir, es); err != nil {
				if ue, ok := err.(*UnsafeArchiveError); ok {
					ue.Name = name
				}
				return err
			}
		}

		if err := os.MkdirAll(dir, 0777); err != nil {
			return err
		}

		return b.Extract(ctx, dir)
	})
}

// LsArchiveOptions customises LsArchive.
type LsArchiveOptions struct {
	// Ext overrides the extension that determines the archive format. It is used verbatim.
	Ext string

	// Format overrides both Ext and the archive file name.
	Format archive.Format
}

// LsArchive returns the names of all members of the named archive file in archive order.
//
// Names are cleaned with path.Clean, so directory entries have no trailing "/".
func LsArchive(ctx context.Context, name string, optFns ...func(*LsArchiveOptions)) (names []string, err error) {
	opts := &LsArchiveOptions{}
	for _, fn := range optFns {
		fn(opts)
	}

	err = withBackend(name, opts.Format, opts.Ext, "lsarchive", func(b archive.Backend) error {
		if names, err = b.List(ctx); err != nil {
			return err
		}

		for i, n := range names {
			names[i] = path.Clean(n)
		}

		return nil
	})
	return
}

// withBackend opens the named archive file for reading and always closes it.
//
// Errors from fn are wrapped in an *ArchiveError unless they are already an *UnsafeArchiveError.
func withBackend(name string, format archive.Format, ext, op string, fn func(b archive.Backend) error) (err error) {
	if format == nil {
		if format, err = archive.FromName(name, ext); err != nil {
			return err
		}
	}

	f, err := os.Open(name)
	if err != nil {
		return &ArchiveError{Op: op, Name: name, Err: err}
	}
	defer f.Close()

	b, err := format.Open(f, archive.ModeRead)
	if err != nil {
		return &ArchiveError{Op: op, Name: name, Err: err}
	}
	defer b.Close()

	if err = fn(b); err != nil {
		if _, ok := err.(*UnsafeArchiveError); ok {
			return err
		}

		return &ArchiveError{Op: op, Name: name, Err: err}
	}

	return nil
}
