//go:build !linux && !darwin

package util

import "errors"

func renameNoReplace(_, _ string) error {
	return errors.ErrUnsupported
}
