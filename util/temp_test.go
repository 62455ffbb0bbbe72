package util

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"regexp"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seeded returns a TempNamer whose sequence is fixed by seed, as if it had been seeded in this process.
func seeded(seed byte) *TempNamer {
	return &TempNamer{pid: os.Getpid(), rng: rand.New(rand.NewChaCha8([32]byte{seed}))}
}

func TestTempPath(t *testing.T) {
	tests := []struct {
		name   string
		base   string
		prefix string
		suffix string
		hidden bool
		want   *regexp.Regexp
	}{
		{
			name:   "hidden file",
			base:   "report.csv",
			prefix: "_",
			suffix: ".tmp",
			hidden: true,
			want:   regexp.MustCompile(`^\.report\.csv_[a-zA-Z]{8}\.tmp$`),
		},
		{
			name:   "hidden dir",
			base:   "out",
			prefix: "_",
			suffix: "_tmp",
			hidden: true,
			want:   regexp.MustCompile(`^\.out_[a-zA-Z]{8}_tmp$`),
		},
		{
			name: "visible without affixes",
			base: "data",
			want: regexp.MustCompile(`^data[a-zA-Z]{8}$`),
		},
		{
			name:   "trailing separator",
			base:   "dir" + string(filepath.Separator),
			prefix: "-",
			want:   regexp.MustCompile(`^dir-[a-zA-Z]{8}$`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()

			got, err := TempPath(dir+string(filepath.Separator)+tt.base, tt.prefix, tt.suffix, tt.hidden)
			require.NoError(t, err)
			assert.Equal(t, dir, filepath.Dir(got))
			assert.Regexp(t, tt.want, filepath.Base(got))
			assert.NoFileExists(t, got)

			// nothing is created.
			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestTempNamer_SkipsTakenNames(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f")

	// the first candidates of the sequence are taken, so the next one is returned.
	taken := seeded(1)
	for range 3 {
		name := filepath.Join(dir, taken.Name("f_", "", DefaultTempNameLength))
		require.NoError(t, os.WriteFile(name, nil, 0o644))
	}
	want := filepath.Join(dir, taken.Name("f_", "", DefaultTempNameLength))

	got, err := seeded(1).TempPath(path, "_", "", false)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestTempNamer_Exhausted(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f")

	taken := seeded(2)
	for range DefaultTempNameAttempts {
		name := filepath.Join(dir, taken.Name(".f_", ".tmp", DefaultTempNameLength))
		require.NoError(t, os.WriteFile(name, nil, 0o644))
	}

	_, err := seeded(2).TempPath(path, "_", ".tmp", true)

	var pathErr *os.PathError
	if assert.ErrorAs(t, err, &pathErr) {
		assert.Equal(t, dir+string(filepath.Separator), pathErr.Path)
	}
	assert.ErrorIs(t, err, syscall.ENOENT)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestTempNamer_ReseedsInNewProcess(t *testing.T) {
	stale := seeded(3)
	stale.pid = os.Getpid() + 1

	replay := seeded(3)
	want := replay.Name("", "", 16)

	got := stale.Name("", "", 16)
	assert.NotEqual(t, want, got, "a namer inherited from another process must not replay its sequence")
	assert.Equal(t, os.Getpid(), stale.pid)

	// the zero value seeds itself on first use.
	var zero TempNamer
	assert.Len(t, zero.Name("", "", DefaultTempNameLength), DefaultTempNameLength)
	assert.Equal(t, os.Getpid(), zero.pid)
}

func TestTempNamer_Name(t *testing.T) {
	n := seeded(4)
	seen := make(map[string]bool)
	for range 50 {
		name := n.Name("p", "s", DefaultTempNameLength)
		assert.Regexp(t, `^p[a-zA-Z]{8}s$`, name)
		seen[name] = true
	}
	assert.Len(t, seen, 50)
}
