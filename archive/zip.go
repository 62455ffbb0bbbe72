package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/flate"
	"github.com/mholt/archives"
	"github.com/nguyengg/fsx/util"
)

// Zip implements Format for zip archives.
//
// Members are deflated when a deflate compressor can be created and stored uncompressed otherwise. Symlinks are
// followed when adding, so the archive holds the content of their targets.
type Zip struct {
}

var _ Format = Zip{}

// deflateAvailable probes once whether the deflate compressor can be constructed.
var deflateAvailable = sync.OnceValue(func() bool {
	w, err := flate.NewWriter(io.Discard, flate.BestCompression)
	if err != nil {
		return false
	}

	return w.Close() == nil
})

func (z Zip) Open(s Stream, mode Mode) (Backend, error) {
	switch mode {
	case ModeRead:
		r, err := section(s)
		if err != nil {
			return nil, err
		}

		return &zipReader{r: r}, nil

	case ModeWrite:
		zw := zip.NewWriter(s)
		method := zip.Store
		if deflateAvailable() {
			method = zip.Deflate
			zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
				return flate.NewWriter(w, flate.BestCompression)
			})
		}

		return &zipWriter{zw: zw, method: method}, nil

	default:
		return nil, fmt.Errorf("open zip in mode %d: %w", mode, ErrMode)
	}
}

func (z Zip) Ext() string {
	return ".zip"
}

func (z Zip) ContentType() string {
	return "application/zip"
}

type zipReader struct {
	readOnly
	r      *io.SectionReader
	closed bool
}

func (b *zipReader) List(ctx context.Context) ([]string, error) {
	if b.closed {
		return nil, ErrClosed
	}

	return list(ctx, archives.Zip{}, rewind(b.r))
}

func (b *zipReader) Entries(ctx context.Context) ([]Entry, error) {
	if b.closed {
		return nil, ErrClosed
	}

	return entries(ctx, archives.Zip{}, rewind(b.r))
}

func (b *zipReader) Extract(ctx context.Context, dir string) error {
	if b.closed {
		return ErrClosed
	}

	return extractAll(ctx, archives.Zip{}, rewind(b.r), dir)
}

func (b *zipReader) Close() error {
	b.closed = true
	return nil
}

type zipWriter struct {
	writeOnly
	zw     *zip.Writer
	method uint16
	closed bool
	buf    []byte
}

func (b *zipWriter) Add(ctx context.Context, path, name string) error {
	if b.closed {
		return ErrClosed
	}

	fi, err := os.Stat(path)
	if err != nil {
		return err
	}

	fh, err := zip.FileInfoHeader(fi)
	if err != nil {
		return fmt.Errorf(`create zip header for "%s" error: %w`, path, err)
	}

	// can't use path.Join because that will Clean (i.e. remove the / suffix for directory).
	fh.Name = filepath.ToSlash(name)
	if fi.IsDir() {
		if !strings.HasSuffix(fh.Name, "/") {
			fh.Name += "/"
		}
		fh.Method = zip.Store
	} else {
		fh.Method = b.method
	}

	w, err := b.zw.CreateHeader(fh)
	if err != nil {
		return fmt.Errorf(`create zip member "%s" error: %w`, fh.Name, err)
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

	if _, err = util.CopyBufferWithContext(ctx, w, f, b.buf); err != nil {
		return fmt.Errorf(`write zip member "%s" error: %w`, fh.Name, err)
	}

	return nil
}

func (b *zipWriter) Close() error {
	if b.closed {
		return nil
	}

	b.closed = true
	return b.zw.Close()
}
