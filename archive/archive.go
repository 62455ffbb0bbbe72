// Package archive provides a uniform, non-recursive handle over tar (plain, gzip, bzip2, xz) and zip containers.
//
// A Backend never filters what it extracts and never recurses into directories it is asked to add; both are the
// caller's job. See the fsx package for the safe, recursive operations built on top.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
)

// Mode indicates whether a Backend is opened for reading or writing.
type Mode int

const (
	// ModeRead opens an existing archive for listing and extraction.
	ModeRead Mode = iota
	// ModeWrite creates a new archive.
	ModeWrite
)

func (m Mode) String() string {
	switch m {
	case ModeRead:
		return "read"
	case ModeWrite:
		return "write"
	default:
		return "unknown"
	}
}

// ErrMode is returned when a Backend operation is not available in the mode the Backend was opened with.
var ErrMode = errors.New("operation not supported in this mode")

// ErrClosed is returned when a Backend is used after Close.
var ErrClosed = errors.New("archive already closed")

// Stream is the file-like value archives are read from or written to. *os.File implements Stream.
//
// Writing only uses io.Writer. Reading needs random access because zip keeps its directory at the end of the file.
type Stream interface {
	io.Reader
	io.Writer
	io.ReaderAt
	io.Seeker
}

// Format is one concrete archive container variant.
type Format interface {
	// Open opens a Backend over s in the given mode.
	//
	// The Backend does not take ownership of s; closing the Backend flushes the container but leaves s open.
	Open(s Stream, mode Mode) (Backend, error)

	// Ext returns the canonical file name extension of archives in this format, e.g. ".tar.gz".
	Ext() string

	// ContentType returns the content type of archives in this format.
	ContentType() string
}

// Backend is an opened archive.
//
// Implementations are not safe for concurrent use. Callers must Close every Backend they open, typically with defer.
type Backend interface {
	// List returns the member names in the order recorded by the container.
	//
	// Names are returned as stored, e.g. zip directories keep their trailing "/".
	List(ctx context.Context) ([]string, error)

	// Entries is List with the type of each member, in the same order.
	Entries(ctx context.Context) ([]Entry, error)

	// Extract writes every member to dir.
	//
	// No member is filtered: a name such as "../x" is written outside dir exactly as encoded.
	Extract(ctx context.Context, dir string) error

	// Add adds exactly one file, symlink, or empty directory entry at path under the given member name.
	//
	// Directories are never recursed into.
	Add(ctx context.Context, path, name string) error

	// Close flushes the container. Calling Close more than once is a no-op.
	Close() error
}

// Entry describes a member as recorded by the container.
type Entry struct {
	// Name is the member name as stored.
	Name string
	// Mode carries the type bits of the member; fs.ModeDir and fs.ModeSymlink are the ones extraction acts on.
	Mode fs.FileMode
	// HardLink is the member name a tar hard link refers to. It is empty for every other member.
	HardLink string
}

// MemberPath returns where the member with the given name is written when extracting to dir.
//
// It is exported so that safety checks compute exactly the same destination as extraction does.
func MemberPath(dir, name string) string {
	return filepath.Join(dir, filepath.FromSlash(name))
}

// readOnly supplies the write half of Backend for readers.
type readOnly struct{}

func (readOnly) Add(context.Context, string, string) error {
	return ErrMode
}

// writeOnly supplies the read half of Backend for writers.
type writeOnly struct{}

func (writeOnly) List(context.Context) ([]string, error) {
	return nil, ErrMode
}

func (writeOnly) Entries(context.Context) ([]Entry, error) {
	return nil, ErrMode
}

func (writeOnly) Extract(context.Context, string) error {
	return ErrMode
}

// section captures the bytes of s from its current offset to its end so that a reader can be rewound for every List
// and Extract without disturbing s.
func section(s Stream) (*io.SectionReader, error) {
	start, err := s.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("seek current error: %w", err)
	}

	end, err := s.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("seek end error: %w", err)
	}

	if _, err = s.Seek(start, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek start error: %w", err)
	}

	return io.NewSectionReader(s, start, end-start), nil
}

// rewind returns a fresh reader over the whole section.
func rewind(r *io.SectionReader) *io.SectionReader {
	return io.NewSectionReader(r, 0, r.Size())
}
