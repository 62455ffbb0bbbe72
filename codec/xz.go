package codec

import (
	"fmt"
	"io"

	"github.com/ulikunitz/xz"
)

// Xz implements Codec for xz.
type Xz struct {
}

var _ Codec = Xz{}

func (c Xz) NewDecoder(src io.Reader) (io.ReadCloser, error) {
	r, err := xz.NewReader(src)
	if err != nil {
		return nil, fmt.Errorf("create xz reader error: %w", err)
	}

	return io.NopCloser(r), nil
}

func (c Xz) NewEncoder(dst io.Writer) (io.WriteCloser, error) {
	w, err := xz.NewWriter(dst)
	if err != nil {
		return nil, fmt.Errorf("create xz writer error: %w", err)
	}

	return w, nil
}

func (c Xz) Ext() string {
	return ".xz"
}

func (c Xz) ContentType() string {
	return "application/x-xz"
}
