package codec

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// Gzip implements Codec for gzip.
type Gzip struct {
	// Level is the compression level; the zero value means gzip.BestCompression.
	Level int
}

var _ Codec = Gzip{}

func (c Gzip) NewDecoder(src io.Reader) (io.ReadCloser, error) {
	r, err := gzip.NewReader(src)
	if err != nil {
		return nil, fmt.Errorf("create gzip reader error: %w", err)
	}

	return r, nil
}

func (c Gzip) NewEncoder(dst io.Writer) (io.WriteCloser, error) {
	level := c.Level
	if level == 0 {
		level = gzip.BestCompression
	}

	w, err := gzip.NewWriterLevel(dst, level)
	if err != nil {
		return nil, fmt.Errorf("create gzip writer error: %w", err)
	}

	return w, nil
}

func (c Gzip) Ext() string {
	return ".gz"
}

func (c Gzip) ContentType() string {
	return "application/gzip"
}
