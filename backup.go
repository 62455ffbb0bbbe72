package fsx

import (
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ncruces/go-strftime"
)

// DefaultBackupTimestamp is the default strftime format of the timestamp in backup names.
const DefaultBackupTimestamp = "%Y-%m-%dT%H:%M:%S.%f%z"

// BackupOptions customises Backup.
type BackupOptions struct {
	// Timestamp is the strftime format of the timestamp. Default to DefaultBackupTimestamp.
	Timestamp string

	// NoTimestamp leaves the timestamp, along with its leading ".", out of the name.
	NoTimestamp bool

	// UTC uses the current time in UTC instead of local time.
	UTC bool

	// Epoch uses the Unix time in seconds, with a fraction, instead of Timestamp.
	Epoch bool

	// Prefix is prepended to the name.
	Prefix string

	// Suffix is appended to the name. Default to "~".
	Suffix string

	// Hidden prepends "." to Prefix unless Prefix already starts with ".".
	Hidden bool

	// Overwrite replaces an existing backup instead of returning an error.
	Overwrite bool

	// Dir is the parent directory of the backup. Default to the parent directory of the source.
	Dir string

	// Namer returns the full path of the backup given the absolute path of the source.
	//
	// All other naming options are ignored if Namer is given.
	Namer func(src string) string

	// Now returns the current time. Default to time.Now.
	Now func() time.Time
}

// Backup copies the file or directory src to a backup named "{prefix}{base}.{timestamp}{suffix}" and returns the path
// of the backup.
//
// By default, the backup is a sibling of src named like "src.2006-01-02T15:04:05.000000-0700~". A *fs.PathError
// matching fs.ErrExist is returned if the backup would be src itself, or if it exists and Overwrite is false.
func Backup(src string, optFns ...func(*BackupOptions)) (string, error) {
	opts := &BackupOptions{
		Timestamp: DefaultBackupTimestamp,
		Suffix:    "~",
		Now:       time.Now,
	}
	for _, fn := range optFns {
		fn(opts)
	}

	src, err := filepath.Abs(src)
	if err != nil {
		return "", err
	}

	var dst string
	if opts.Namer != nil {
		dst, err = filepath.Abs(opts.Namer(src))
	} else {
		dst, err = backupName(src, opts)
	}
	if err != nil {
		return "", err
	}

	if dst == src {
		return "", &fs.PathError{Op: "backup", Path: dst, Err: syscall.EEXIST}
	}

	if _, err = os.Lstat(dst); err == nil && !opts.Overwrite {
		return "", &fs.PathError{Op: "backup", Path: dst, Err: syscall.EEXIST}
	}

	if err = Cp(src, dst); err != nil {
		return "", err
	}

	return dst, nil
}

func backupName(src string, opts *BackupOptions) (string, error) {
	dir := filepath.Dir(src)
	if opts.Dir != "" {
		var err error
		if dir, err = filepath.Abs(opts.Dir); err != nil {
			return "", err
		}
	}

	prefix := opts.Prefix
	if opts.Hidden && !strings.HasPrefix(prefix, ".") {
		prefix = "." + prefix
	}

	var ts string
	if !opts.NoTimestamp {
		now := opts.Now()
		if opts.UTC {
			now = now.UTC()
		}

		if opts.Epoch {
			ts = "." + strconv.FormatFloat(float64(now.UnixMicro())/1e6, 'f', -1, 64)
		} else {
			ts = "." + strftime.Format(opts.Timestamp, now)
		}
	}

	return filepath.Join(dir, prefix+filepath.Base(src)+ts+opts.Suffix), nil
}
