package codec

import (
	"fmt"
	"io"

	"github.com/dsnet/compress/bzip2"
)

// Bzip2 implements Codec for bzip2.
//
// The standard library can only decompress bzip2, so both directions use dsnet/compress.
type Bzip2 struct {
	// Level is the compression level; the zero value means bzip2.BestCompression.
	Level int
}

var _ Codec = Bzip2{}

func (c Bzip2) NewDecoder(src io.Reader) (io.ReadCloser, error) {
	r, err := bzip2.NewReader(src, nil)
	if err != nil {
		return nil, fmt.Errorf("create bzip2 reader error: %w", err)
	}

	return r, nil
}

func (c Bzip2) NewEncoder(dst io.Writer) (io.WriteCloser, error) {
	level := c.Level
	if level == 0 {
		level = bzip2.BestCompression
	}

	w, err := bzip2.NewWriter(dst, &bzip2.WriterConfig{Level: level})
	if err != nil {
		return nil, fmt.Errorf("create bzip2 writer error: %w", err)
	}

	return w, nil
}

func (c Bzip2) Ext() string {
	return ".bz2"
}

func (c Bzip2) ContentType() string {
	return "application/x-bzip2"
}
