package codec

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec(t *testing.T) {
	tests := []struct {
		name    string
		codec   Codec
		wantExt string
	}{
		{
			name:    "gzip",
			codec:   Gzip{},
			wantExt: ".gz",
		},
		{
			name:    "gzip with level",
			codec:   Gzip{Level: 1},
			wantExt: ".gz",
		},
		{
			name:    "bzip2",
			codec:   Bzip2{},
			wantExt: ".bz2",
		},
		{
			name:    "xz",
			codec:   Xz{},
			wantExt: ".xz",
		},
	}

	data := strings.Repeat("hello, world!\n", 1000)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantExt, tt.codec.Ext())
			assert.NotEmpty(t, tt.codec.ContentType())

			var buf bytes.Buffer
			w, err := tt.codec.NewEncoder(&buf)
			require.NoError(t, err)
			_, err = io.WriteString(w, data)
			require.NoError(t, err)
			require.NoError(t, w.Close())
			assert.Less(t, buf.Len(), len(data))

			r, err := tt.codec.NewDecoder(&buf)
			require.NoError(t, err)
			got, err := io.ReadAll(r)
			require.NoError(t, err)
			require.NoError(t, r.Close())
			assert.Equal(t, data, string(got))
		})
	}
}

func TestCodec_CorruptInput(t *testing.T) {
	for _, c := range []Codec{Gzip{}, Bzip2{}, Xz{}} {
		t.Run(c.Ext(), func(t *testing.T) {
			r, err := c.NewDecoder(strings.NewReader("definitely not compressed"))
			if err == nil {
				_, err = io.ReadAll(r)
			}
			assert.Error(t, err)
		})
	}
}
