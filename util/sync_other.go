//go:build !unix && !windows

package util

import "os"

func fsync(f *os.File) error {
	return f.Sync()
}

func openDir(name string) (*os.File, error) {
	return os.Open(name)
}
