package fsx

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRm(t *testing.T) {
	dir := t.TempDir()
	mkTree(t, dir, "a/b/c.txt", "d.txt")

	require.NoError(t, Rm(filepath.Join(dir, "a"), filepath.Join(dir, "d.txt"), filepath.Join(dir, "missing")))
	assertOnly(t, dir)

	// removing what is already gone is never an error.
	assert.NoError(t, Rm(filepath.Join(dir, "a")))
}

func TestMkdir(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, Mkdir(filepath.Join(dir, "a", "b"), filepath.Join(dir, "c")))
	require.NoError(t, Mkdir(filepath.Join(dir, "a", "b")))
	assert.DirExists(t, filepath.Join(dir, "a", "b"))
	assert.DirExists(t, filepath.Join(dir, "c"))
}

func TestCp_File(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	require.NoError(t, os.WriteFile(src, []byte("hello"), 0o600))
	mtime := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, os.Chtimes(src, mtime, mtime))

	tests := []struct {
		name string
		dst  string
		want string
	}{
		{
			name: "to new file",
			dst:  filepath.Join(dir, "new", "dst.txt"),
			want: filepath.Join(dir, "new", "dst.txt"),
		},
		{
			name: "into existing dir",
			dst:  dir + string(filepath.Separator) + "existing",
			want: filepath.Join(dir, "existing", "src.txt"),
		},
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "existing"), 0o755))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, Cp(src, tt.dst))

			data, err := os.ReadFile(tt.want)
			require.NoError(t, err)
			assert.Equal(t, "hello", string(data))

			fi, err := os.Stat(tt.want)
			require.NoError(t, err)
			assert.True(t, fi.ModTime().Equal(mtime))
			if runtime.GOOS != "windows" {
				assert.Equal(t, fs.FileMode(0o600), fi.Mode().Perm())
			}
			assertOnly(t, filepath.Dir(tt.want), filepath.Base(tt.want))
		})
	}
}

func TestCp_Dir(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	mkTree(t, src, "a.txt", "sub/b.txt", "empty/")

	dst := filepath.Join(dir, "dst")
	mkTree(t, dst, "keep.txt")
	require.NoError(t, Cp(src, dst))

	assert.FileExists(t, filepath.Join(dst, "keep.txt"))
	assert.FileExists(t, filepath.Join(dst, "a.txt"))
	assert.FileExists(t, filepath.Join(dst, "sub", "b.txt"))
	assert.DirExists(t, filepath.Join(dst, "empty"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "file"), nil, 0o644))
	assert.ErrorIs(t, Cp(src, filepath.Join(dir, "file")), fs.ErrExist)
}

func readString(t *testing.T, name string) string {
	t.Helper()

	data, err := os.ReadFile(name)
	require.NoError(t, err)
	return string(data)
}

func TestMv(t *testing.T) {
	tests := []struct {
		name string
		// tree is created under the test directory before moving.
		tree []string
		src  string
		dst  string
		// want maps files that must exist afterwards to their content.
		want    map[string]string
		wantErr bool
		// windows cannot rename a directory over an existing one.
		skipWindows bool
	}{
		{
			name: "file to new path with missing parents",
			tree: []string{"a.txt"},
			src:  "a.txt",
			dst:  "x/y/b.txt",
			want: map[string]string{"x/y/b.txt": "a.txt"},
		},
		{
			name: "file over existing file",
			tree: []string{"a.txt", "b.txt"},
			src:  "a.txt",
			dst:  "b.txt",
			want: map[string]string{"b.txt": "a.txt"},
		},
		{
			name: "file into existing dir",
			tree: []string{"a.txt", "d/"},
			src:  "a.txt",
			dst:  "d",
			want: map[string]string{"d/a.txt": "a.txt"},
		},
		{
			name: "dir to new path",
			tree: []string{"s/1.txt", "s/sub/2.txt"},
			src:  "s",
			dst:  "x/t",
			want: map[string]string{"x/t/1.txt": "s/1.txt", "x/t/sub/2.txt": "s/sub/2.txt"},
		},
		{
			name: "dir into existing dir",
			tree: []string{"s/1.txt", "d/other.txt"},
			src:  "s",
			dst:  "d",
			want: map[string]string{"d/s/1.txt": "s/1.txt", "d/other.txt": "d/other.txt"},
		},
		{
			name: "dir into existing dir with empty namesake",
			tree: []string{"s/1.txt", "d/s/"},
			src:  "s",
			dst:  "d",
			want:        map[string]string{"d/s/1.txt": "s/1.txt"},
			skipWindows: true,
		},
		{
			name:    "dir into existing dir with non-empty namesake",
			tree:    []string{"s/1.txt", "d/s/2.txt"},
			src:     "s",
			dst:     "d",
			want:    map[string]string{"s/1.txt": "s/1.txt", "d/s/2.txt": "d/s/2.txt"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.skipWindows && runtime.GOOS == "windows" {
				t.Skip()
			}

			dir := t.TempDir()
			mkTree(t, dir, tt.tree...)

			err := Mv(filepath.Join(dir, tt.src), filepath.Join(dir, filepath.FromSlash(tt.dst)))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.NoFileExists(t, filepath.Join(dir, tt.src))
				assert.NoDirExists(t, filepath.Join(dir, tt.src))
			}

			for name, content := range tt.want {
				assert.Equal(t, content, readString(t, filepath.Join(dir, filepath.FromSlash(name))))
			}
		})
	}
}

func TestMv_AcrossFileSystems(t *testing.T) {
	rename = func(oldpath, newpath string) error {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: syscall.EXDEV}
	}
	t.Cleanup(func() { rename = os.Rename })

	t.Run("file", func(t *testing.T) {
		dir := t.TempDir()
		mkTree(t, dir, "a.txt", "d/")

		require.NoError(t, Mv(filepath.Join(dir, "a.txt"), filepath.Join(dir, "d")))
		assert.Equal(t, "a.txt", readString(t, filepath.Join(dir, "d", "a.txt")))
		assertOnly(t, dir, "d")
		assertOnly(t, filepath.Join(dir, "d"), "a.txt")
	})

	t.Run("dir", func(t *testing.T) {
		dir := t.TempDir()
		mkTree(t, dir, "s/1.txt", "s/sub/2.txt")

		require.NoError(t, Mv(filepath.Join(dir, "s"), filepath.Join(dir, "x", "t")))
		assert.Equal(t, "s/sub/2.txt", readString(t, filepath.Join(dir, "x", "t", "sub", "2.txt")))
		assertOnly(t, dir, "x")
		assertOnly(t, filepath.Join(dir, "x"), "t")
	})

	t.Run("copy fails", func(t *testing.T) {
		dir := t.TempDir()
		mkTree(t, dir, "d/")

		assert.Error(t, Mv(filepath.Join(dir, "missing"), filepath.Join(dir, "d", "x")))
		assertOnly(t, filepath.Join(dir, "d"))
	})
}
