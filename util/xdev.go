//go:build !windows

package util

import (
	"errors"
	"syscall"
)

// IsCrossDevice reports whether err is the error rename returns when oldpath and newpath are on different file
// systems.
func IsCrossDevice(err error) bool {
	return errors.Is(err, syscall.EXDEV)
}
