package util

import (
	"errors"
	"syscall"
)

// errorNotSameDevice is ERROR_NOT_SAME_DEVICE.
const errorNotSameDevice syscall.Errno = 17

// IsCrossDevice reports whether err is the error rename returns when oldpath and newpath are on different volumes.
func IsCrossDevice(err error) bool {
	return errors.Is(err, errorNotSameDevice) || errors.Is(err, syscall.EXDEV)
}
