package archive

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mholt/archives"
	"github.com/nguyengg/fsx/codec"
	"github.com/nguyengg/fsx/util"
)

// Tar implements Format for tarballs, optionally compressed with Codec.
type Tar struct {
	// Codec compresses the tar stream. Nil means a plain, uncompressed tarball.
	Codec codec.Codec
}

var _ Format = Tar{}

func (t Tar) Open(s Stream, mode Mode) (Backend, error) {
	switch mode {
	case ModeRead:
		r, err := section(s)
		if err != nil {
			return nil, err
		}

		return &tarReader{codec: t.Codec, r: r}, nil

	case ModeWrite:
		var (
			enc io.WriteCloser = &util.WriteNoopCloser{Writer: s}
			err error
		)
		if t.Codec != nil {
			if enc, err = t.Codec.NewEncoder(s); err != nil {
				return nil, err
			}
		}

		tw := tar.NewWriter(enc)
		return &tarWriter{tw: tw, closer: util.ChainCloser(tw.Close, enc.Close)}, nil

	default:
		return nil, fmt.Errorf("open tar in mode %d: %w", mode, ErrMode)
	}
}

func (t Tar) Ext() string {
	if t.Codec == nil {
		return ".tar"
	}

	return ".tar" + t.Codec.Ext()
}

func (t Tar) ContentType() string {
	if t.Codec == nil {
		return "application/x-tar"
	}

	return t.Codec.ContentType()
}

type tarReader struct {
	readOnly
	codec  codec.Codec
	r      *io.SectionReader
	closed bool
}

func (b *tarReader) List(ctx context.Context) (names []string, err error) {
	err = b.withStream(func(r io.Reader) (err error) {
		names, err = list(ctx, archives.Tar{}, r)
		return
	})
	return
}

func (b *tarReader) Entries(ctx context.Context) (es []Entry, err error) {
	err = b.withStream(func(r io.Reader) (err error) {
		es, err = entries(ctx, archives.Tar{}, r)
		return
	})
	return
}

func (b *tarReader) Extract(ctx context.Context, dir string) error {
	return b.withStream(func(r io.Reader) error {
		return extractAll(ctx, archives.Tar{}, r, dir)
	})
}

// withStream rewinds the tarball and gives fn the decompressed tar stream.
func (b *tarReader) withStream(fn func(r io.Reader) error) (err error) {
	if b.closed {
		return ErrClosed
	}

	var r io.Reader = rewind(b.r)
	if b.codec != nil {
		dec, err := b.codec.NewDecoder(r)
		if err != nil {
			return err
		}
		defer dec.Close()

		r = dec
	}

	return fn(r)
}

func (b *tarReader) Close() error {
	b.closed = true
	return nil
}

type tarWriter struct {
	writeOnly
	tw     *tar.Writer
	closer func() error
	closed bool
	buf    []byte
}

func (b *tarWriter) Add(ctx context.Context, path, name string) error {
	if b.closed {
		return ErrClosed
	}

	fi, err := os.Lstat(path)
	if err != nil {
		return err
	}

	var link string
	if fi.Mode()&os.ModeSymlink != 0 {
		if link, err = os.Readlink(path); err != nil {
			return err
		}
	}

	hdr, err := tar.FileInfoHeader(fi, link)
	if err != nil {
		return fmt.Errorf(`create tar header for "%s" error: %w`, path, err)
	}

	// can't use path.Join because that will Clean (i.e. remove the / suffix for directory).
	hdr.Name = filepath.ToSlash(name)
	if fi.IsDir() && !strings.HasSuffix(hdr.Name, "/") {
		hdr.Name += "/"
	}
	hdr.Format = tar.FormatPAX
	hdr.Uname, hdr.Gname = "", ""

	if err = b.tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf(`write tar header "%s" error: %w`, hdr.Name, err)
	}

	if !fi.Mode().IsRegular() {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if b.buf == nil {
		b.buf = make([]byte, util.DefaultBufferSize)
	}

	if _, err = util.CopyBufferWithContext(ctx, b.tw, f, b.buf); err != nil {
		return fmt.Errorf(`write tar member "%s" error: %w`, hdr.Name, err)
	}

	return nil
}

func (b *tarWriter) Close() error {
	if b.closed {
		return nil
	}

	b.closed = true
	return b.closer()
}
