package fsx

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsafeArchive is matched by every *UnsafeArchiveError.
	ErrUnsafeArchive = errors.New("unsafe archive")

	// ErrInvalidRepath is returned when ArchiveOptions.Rename is used with more than one source, when both
	// ArchiveOptions.Rename and ArchiveOptions.Repath are given, or when a Repath key names no source.
	ErrInvalidRepath = errors.New("repath must be a map when there is more than one archive source path")

	// ErrNotUnderRoot is returned when a source that is not repathed lies outside ArchiveOptions.Root.
	ErrNotUnderRoot = errors.New("paths must be a subpath of the root")

	// ErrInvalidFlag is returned when AtomicFileOptions.Flag does not request write access or requests O_EXCL.
	ErrInvalidFlag = errors.New("invalid open flag")
)

// ArchiveError is returned when adding members to, listing, or extracting from an archive fails.
//
// The underlying cause is available with errors.Unwrap, errors.Is, or errors.As.
type ArchiveError struct {
	// Op is one of "archive", "unarchive", or "lsarchive".
	Op string
	// Name is the archive file.
	Name string
	Err  error
}

func (e *ArchiveError) Unwrap() error {
	return e.Err
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf(`%s "%s" error: %v`, e.Op, e.Name, e.Err)
}

// UnsafeArchiveError is returned by Unarchive, VerifyExtraction, and VerifyEntries when a member would be written
// outside of the target directory.
type UnsafeArchiveError struct {
	// Name is the archive file, if known.
	Name string
	// Member is the offending member name as stored in the archive.
	Member string
	// Dir is the canonical target directory.
	Dir string
	// Target is the canonical path the member would be written to, or that its hard link refers to.
	Target string
	// HardLink is the member the offending hard link refers to, if any.
	HardLink string
	// Symlink is the earlier symlink member the offending member would be written through, if any.
	Symlink string
}

func (e *UnsafeArchiveError) Is(target error) bool {
	return target == ErrUnsafeArchive
}

func (e *UnsafeArchiveError) Error() string {
	prefix := "unsafe archive"
	if e.Name != "" {
		prefix = fmt.Sprintf(`unsafe archive "%s"`, e.Name)
	}

	switch {
	case e.Symlink != "":
		return fmt.Sprintf(`%s: member "%s" would be written through symlink member "%s" and may land outside the target directory (target="%s")`, prefix, e.Member, e.Symlink, e.Dir)
	case e.HardLink != "":
		return fmt.Sprintf(`%s: member "%s" links to "%s" which is outside the target directory (destination="%s", target="%s")`, prefix, e.Member, e.HardLink, e.Target, e.Dir)
	default:
		return fmt.Sprintf(`%s: member "%s" destination is outside the target directory (destination="%s", target="%s")`, prefix, e.Member, e.Target, e.Dir)
	}
}
