package fsx

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertOnly fails unless dir has exactly the given entries.
func assertOnly(t *testing.T, dir string, names ...string) {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	got := make([]string, 0, len(entries))
	for _, e := range entries {
		got = append(got, e.Name())
	}
	assert.ElementsMatch(t, names, got)
}

func TestCreateAtomicFile(t *testing.T) {
	tests := []struct {
		name      string
		existing  string
		overwrite bool
		want      string
		wantErr   error
	}{
		{
			name:      "new file",
			overwrite: true,
			want:      "new",
		},
		{
			name:      "overwrite existing",
			existing:  "old",
			overwrite: true,
			want:      "new",
		},
		{
			name:      "no overwrite new file",
			overwrite: false,
			want:      "new",
		},
		{
			name:      "no overwrite existing",
			existing:  "old",
			overwrite: false,
			want:      "old",
			wantErr:   fs.ErrExist,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			name := filepath.Join(dir, "file.txt")
			if tt.existing != "" {
				require.NoError(t, os.WriteFile(name, []byte(tt.existing), 0o644))
			}

			f, err := CreateAtomicFile(name, func(opts *AtomicFileOptions) {
				opts.Overwrite = tt.overwrite
			})
			require.NoError(t, err)
			defer f.Cleanup()

			assert.Equal(t, name, f.Destination())
			assert.Equal(t, dir, filepath.Dir(f.Name()))
			assert.Regexp(t, `^\.file\.txt_[a-zA-Z]{8}\.tmp$`, filepath.Base(f.Name()))

			_, err = f.WriteString("new")
			require.NoError(t, err)

			// the destination is untouched until commit.
			if tt.existing == "" {
				assert.NoFileExists(t, name)
			}

			err = f.Commit()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}

			data, err := os.ReadFile(name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))

			assert.NoError(t, f.Cleanup())
			assert.NoError(t, f.Cleanup())
			assertOnly(t, dir, "file.txt")
		})
	}
}

func TestCreateAtomicFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := CreateAtomicFile(dir)
	assert.ErrorIs(t, err, syscall.EISDIR)

	_, err = CreateAtomicFile(filepath.Join(dir, "a"), func(opts *AtomicFileOptions) {
		opts.Flag = os.O_RDONLY
	})
	assert.ErrorIs(t, err, ErrInvalidFlag)

	_, err = CreateAtomicFile(filepath.Join(dir, "a"), func(opts *AtomicFileOptions) {
		opts.Flag = os.O_WRONLY | os.O_EXCL
	})
	assert.ErrorIs(t, err, ErrInvalidFlag)

	assertOnly(t, dir)
}

func TestCreateAtomicFile_CreatesParent(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "a", "b", "file.txt")

	require.NoError(t, WriteFileAtomic(name, []byte("hello"), 0o600, func(opts *AtomicFileOptions) {
		opts.SkipSync = true
	}))

	data, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assertOnly(t, filepath.Dir(name), "file.txt")
}

func TestCreateAtomicFile_CommitTwice(t *testing.T) {
	f, err := CreateAtomicFile(filepath.Join(t.TempDir(), "file.txt"))
	require.NoError(t, err)
	defer f.Cleanup()

	require.NoError(t, f.Commit())
	assert.ErrorIs(t, f.Commit(), os.ErrClosed)
}

func TestWithAtomicFile(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(name, []byte("old"), 0o644))

	errTest := errors.New("test")
	err := WithAtomicFile(name, func(f *os.File) error {
		if _, err := f.WriteString("partial"); err != nil {
			return err
		}
		return errTest
	})
	assert.ErrorIs(t, err, errTest)

	data, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
	assertOnly(t, dir, "file.txt")

	require.NoError(t, WithAtomicFile(name, func(f *os.File) error {
		_, err := f.WriteString("new")
		return err
	}))

	data, err = os.ReadFile(name)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
	assertOnly(t, dir, "file.txt")
}

func TestCreateAtomicDir(t *testing.T) {
	tests := []struct {
		name      string
		existing  bool
		overwrite bool
		wantErr   error
		wantFile  string
	}{
		{
			name:      "new dir",
			overwrite: true,
			wantFile:  "new.txt",
		},
		{
			name:      "overwrite existing",
			existing:  true,
			overwrite: true,
			wantFile:  "new.txt",
		},
		{
			name:      "no overwrite existing",
			existing:  true,
			overwrite: false,
			wantErr:   fs.ErrExist,
			wantFile:  "old.txt",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			name := filepath.Join(dir, "out")
			if tt.existing {
				require.NoError(t, os.Mkdir(name, 0o755))
				require.NoError(t, os.WriteFile(filepath.Join(name, "old.txt"), nil, 0o644))
			}

			d, err := CreateAtomicDir(name, func(opts *AtomicDirOptions) {
				opts.Overwrite = tt.overwrite
			})
			require.NoError(t, err)
			defer d.Cleanup()

			assert.Regexp(t, `^\.out_[a-zA-Z]{8}_tmp$`, filepath.Base(d.Path()))
			require.NoError(t, os.MkdirAll(filepath.Join(d.Path(), "sub"), 0o755))
			require.NoError(t, os.WriteFile(filepath.Join(d.Path(), "sub", "new.txt"), nil, 0o644))
			require.NoError(t, os.WriteFile(filepath.Join(d.Path(), "new.txt"), nil, 0o644))

			err = d.Commit()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}

			assert.FileExists(t, filepath.Join(name, tt.wantFile))
			assert.NoError(t, d.Cleanup())
			assert.NoError(t, d.Cleanup())
			assertOnly(t, dir, "out")
		})
	}
}

func TestCreateAtomicDir_FileDestination(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(name, nil, 0o644))

	_, err := CreateAtomicDir(name)
	assert.ErrorIs(t, err, fs.ErrExist)
	assertOnly(t, dir, "file")
}

func TestAtomicDir_DestinationCreatedBeforeCommit(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "out")

	d, err := CreateAtomicDir(name, func(opts *AtomicDirOptions) {
		opts.Overwrite = false
	})
	require.NoError(t, err)
	defer d.Cleanup()
	require.NoError(t, os.WriteFile(filepath.Join(d.Path(), "a.txt"), []byte("a"), 0o644))

	// an empty directory appearing at the destination after creation must not be replaced.
	require.NoError(t, os.Mkdir(name, 0o755))

	assert.ErrorIs(t, d.Commit(), fs.ErrExist)
	assert.NoFileExists(t, filepath.Join(name, "a.txt"))
	assertOnly(t, dir, "out")
}

func TestWithAtomicDir(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "out")

	errTest := errors.New("test")
	assert.ErrorIs(t, WithAtomicDir(name, func(tmp string) error {
		return errTest
	}), errTest)
	assertOnly(t, dir)

	require.NoError(t, WithAtomicDir(name, func(tmp string) error {
		return os.WriteFile(filepath.Join(tmp, "a.txt"), []byte("a"), 0o644)
	}, func(opts *AtomicDirOptions) {
		opts.SkipSync = true
	}))
	assert.FileExists(t, filepath.Join(name, "a.txt"))
	assertOnly(t, dir, "out")
}
