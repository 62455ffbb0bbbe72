package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopLevelDir(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantRoot string
		wantOK   bool
	}{
		{
			name: "simple root",
			args: []string{
				"test/",
				"test/a.txt",
				"test/path/b.txt",
				"test/another/path/c.txt",
			},
			wantRoot: "test",
			wantOK:   true,
		},
		{
			name: "root without directory entry",
			args: []string{
				"test/a.txt",
				"test/path/b.txt",
			},
			wantRoot: "test",
			wantOK:   true,
		},
		{
			name: "no root",
			args: []string{
				"test/a.txt",
				"path/b.txt",
			},
		},
		{
			name: "top-level file after root",
			args: []string{
				"test/a.txt",
				"b.txt",
			},
		},
		{
			name: "windows paths",
			args: []string{
				"test\\a.txt",
				"test\\path\\b.txt",
			},
			wantRoot: "test",
			wantOK:   true,
		},
		{
			name: "cleaned directory entry",
			args: []string{
				"test",
				"test/a.txt",
			},
			wantRoot: "test",
			wantOK:   true,
		},
		{
			name: "single top-level file",
			args: []string{
				"a.txt",
			},
		},
		{
			name: "parent",
			args: []string{
				"../a.txt",
			},
		},
		{
			name: "empty",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotRoot, gotOK := TopLevelDir(tt.args)
			assert.Equal(t, tt.wantRoot, gotRoot)
			assert.Equal(t, tt.wantOK, gotOK)
		})
	}
}
