package archive

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/nguyengg/fsx/codec"
)

// FormatError is returned when no Format is registered for an extension.
type FormatError struct {
	Ext string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("archive format not supported: %q", e.Ext)
}

// Is makes errors.Is(err, errors.ErrUnsupported) true for a FormatError.
func (e *FormatError) Is(target error) bool {
	return target == errors.ErrUnsupported
}

var (
	tarFormat   = Tar{}
	tarGzFormat = Tar{Codec: codec.Gzip{}}
	tarBzFormat = Tar{Codec: codec.Bzip2{}}
	tarXzFormat = Tar{Codec: codec.Xz{}}
	zipFormat   = Zip{}
)

// formats maps every recognised extension to its Format.
var formats = map[string]Format{
	// uncompressed tar.
	".tar": tarFormat,
	// tar+gzip.
	".tar.gz": tarGzFormat,
	".tgz":    tarGzFormat,
	".taz":    tarGzFormat,
	// tar+bzip2.
	".tar.bz2": tarBzFormat,
	".tb2":     tarBzFormat,
	".tbz":     tarBzFormat,
	".tbz2":    tarBzFormat,
	".tz2":     tarBzFormat,
	// tar+xz.
	".tar.xz": tarXzFormat,
	".txz":    tarXzFormat,
	// zip, including document formats that are zip containers.
	".zip":  zipFormat,
	".egg":  zipFormat,
	".jar":  zipFormat,
	".odg":  zipFormat,
	".odp":  zipFormat,
	".ods":  zipFormat,
	".odt":  zipFormat,
	".pptx": zipFormat,
	".xlsx": zipFormat,
	".docx": zipFormat,
}

// Exts returns every recognised extension in sorted order.
func Exts() []string {
	exts := make([]string, 0, len(formats))
	for ext := range formats {
		exts = append(exts, ext)
	}

	slices.Sort(exts)
	return exts
}

// Lookup returns the Format registered for the exact extension, which must include the leading ".".
func Lookup(ext string) (Format, error) {
	if f, ok := formats[ext]; ok {
		return f, nil
	}

	return nil, &FormatError{Ext: ext}
}

// FromName returns the Format to use for the named archive file.
//
// If ext is given, it is used verbatim with Lookup and the name is ignored. Otherwise, the longest recognised
// extension that the base name ends with wins, compared case-insensitively, so "backup.2024.tar.gz" is a gzip tarball
// and "report.DOCX" is a zip.
func FromName(name, ext string) (Format, error) {
	if ext != "" {
		return Lookup(ext)
	}

	if _, ext = SplitExt(name); ext != "" {
		return formats[strings.ToLower(ext)], nil
	}

	return nil, &FormatError{Ext: filepath.Ext(name)}
}

// SplitExt splits the base name of the named file into a stem and the longest recognised archive extension.
//
// The returned ext keeps the original case. If no recognised extension matches, ext is empty and stem is the full
// base name. For example, SplitExt("/path/to/test.tar.gz") returns "test" and ".tar.gz".
func SplitExt(name string) (stem, ext string) {
	base := filepath.Base(name)
	lower := strings.ToLower(base)

	for e := range formats {
		if len(e) > len(ext) && len(e) < len(base) && strings.HasSuffix(lower, e) {
			ext = base[len(base)-len(e):]
		}
	}

	return base[:len(base)-len(ext)], ext
}
