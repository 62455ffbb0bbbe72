package util

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync"
	"syscall"
)

const (
	// DefaultTempNameLength is the number of random letters in each candidate name.
	DefaultTempNameLength = 8

	// DefaultTempNameAttempts bounds how many candidates TempPath tries before giving up.
	DefaultTempNameAttempts = 100

	letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// TempNamer generates random candidate names for temporary sibling paths.
//
// The generator remembers the process id it was seeded in and reseeds itself if that changes, so a child process that
// inherits the memory image of its parent never replays the parent's sequence. The zero value is ready for use and is
// safe for concurrent use.
type TempNamer struct {
	mu  sync.Mutex
	pid int
	rng *rand.Rand
}

// DefaultTempNamer is the TempNamer used by TempPath.
var DefaultTempNamer = &TempNamer{}

// Name returns prefix + n random ASCII letters + suffix.
func (t *TempNamer) Name(prefix, suffix string, n int) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if pid := os.Getpid(); t.rng == nil || t.pid != pid {
		var seed [32]byte
		if _, err := crand.Read(seed[:]); err != nil {
			// crypto/rand only fails if the OS has no entropy source; mixing in the pid still separates processes.
			binary.LittleEndian.PutUint64(seed[:], uint64(pid))
		}

		t.pid, t.rng = pid, rand.New(rand.NewChaCha8(seed))
	}

	b := make([]byte, n)
	for i := range b {
		b[i] = letters[t.rng.IntN(len(letters))]
	}

	return prefix + string(b) + suffix
}

// TempPath returns a path in the same directory as path that does not currently exist.
//
// The candidate base name is the base name of path followed by prefix, DefaultTempNameLength random letters, and
// suffix. If hidden is true, a leading "." is added so the candidate does not show up in casual listings. For
// example, TempPath("/data/report.csv", "_", ".tmp", true) may return "/data/.report.csv_QwErTyUi.tmp".
//
// The existence check is subject to the usual race with other processes; the caller's subsequent create, rename, or
// link is what must fail if the name has been taken in the meantime. If no free name is found after
// DefaultTempNameAttempts attempts, a *fs.PathError wrapping syscall.ENOENT is returned.
func TempPath(path, prefix, suffix string, hidden bool) (string, error) {
	return DefaultTempNamer.TempPath(path, prefix, suffix, hidden)
}

// TempPath is the TempNamer variant of the package-level TempPath.
func (t *TempNamer) TempPath(path, prefix, suffix string, hidden bool) (string, error) {
	dir, base := filepath.Split(filepath.Clean(path))
	if hidden {
		base = "." + base
	}

	for range DefaultTempNameAttempts {
		name := filepath.Join(dir, t.Name(base+prefix, suffix, DefaultTempNameLength))
		if _, err := os.Lstat(name); err != nil && os.IsNotExist(err) {
			return name, nil
		}
	}

	return "", &fs.PathError{
		Op:   "tempname",
		Path: dir,
		Err:  fmt.Errorf("no usable temporary name found after %d attempts: %w", DefaultTempNameAttempts, syscall.ENOENT),
	}
}
