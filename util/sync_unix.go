//go:build unix && !darwin

package util

import (
	"os"

	"golang.org/x/sys/unix"
)

func fsync(f *os.File) error {
	for {
		if err := unix.Fsync(int(f.Fd())); err != unix.EINTR {
			return err
		}
	}
}

func openDir(name string) (*os.File, error) {
	return os.Open(name)
}
