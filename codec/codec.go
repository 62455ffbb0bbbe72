// Package codec provides the stream compressors that sit underneath compressed tarballs.
package codec

import (
	"io"
)

// Codec has methods to create compressor/encoder and decompressor/decoder.
type Codec interface {
	// NewDecoder creates a decoder to decompress contents from the given io.Reader.
	NewDecoder(src io.Reader) (io.ReadCloser, error)
	// NewEncoder creates an encoder to compress contents to the given io.Writer.
	//
	// Closing the encoder flushes the compressed stream but does not close dst.
	NewEncoder(dst io.Writer) (io.WriteCloser, error)
	// Ext returns the file name extension of a single file compressed with this codec, e.g. ".gz".
	Ext() string
	// ContentType returns the content type of files compressed with this codec.
	ContentType() string
}
