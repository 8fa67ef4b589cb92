// SPDX-License-Identifier: MPL-2.0

package wheel

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Ext is the file extension of wheel archives.
const Ext = ".whl"

// ErrInvalidFilename is returned when a file name does not follow the
// {dist}-{version}(-{build})?-{python}-{abi}-{platform}.whl convention.
var ErrInvalidFilename = errors.New("invalid wheel filename")

// Filename is the parsed form of a wheel file name.
type Filename struct {
	Distribution string
	Version      string
	Build        string
	PythonTag    string
	ABITag       string
	PlatformTag  string
}

// ParseFilename parses the base name of path as a wheel file name.
func ParseFilename(path string) (Filename, error) {
	base := filepath.Base(path)
	stem, ok := strings.CutSuffix(base, Ext)
	if !ok {
		return Filename{}, fmt.Errorf("%w: %s: missing %s suffix", ErrInvalidFilename, base, Ext)
	}

	parts := strings.Split(stem, "-")
	for _, p := range parts {
		if p == "" {
			return Filename{}, fmt.Errorf("%w: %s: empty component", ErrInvalidFilename, base)
		}
	}

	switch len(parts) {
	case 5:
		return Filename{
			Distribution: parts[0],
			Version:      parts[1],
			PythonTag:    parts[2],
			ABITag:       parts[3],
			PlatformTag:  parts[4],
		}, nil
	case 6:
		if parts[2][0] < '0' || parts[2][0] > '9' {
			return Filename{}, fmt.Errorf("%w: %s: build tag must start with a digit", ErrInvalidFilename, base)
		}
		return Filename{
			Distribution: parts[0],
			Version:      parts[1],
			Build:        parts[2],
			PythonTag:    parts[3],
			ABITag:       parts[4],
			PlatformTag:  parts[5],
		}, nil
	default:
		return Filename{}, fmt.Errorf("%w: %s: expected 5 or 6 dash-separated parts, got %d", ErrInvalidFilename, base, len(parts))
	}
}

// NameVersion returns "{dist}-{version}", the name of the unpacked tree.
func (f Filename) NameVersion() string {
	return f.Distribution + "-" + f.Version
}

// Tag returns "{python}-{abi}-{platform}".
func (f Filename) Tag() string {
	return f.PythonTag + "-" + f.ABITag + "-" + f.PlatformTag
}

// String reassembles the wheel file name.
func (f Filename) String() string {
	name := f.NameVersion()
	if f.Build != "" {
		name += "-" + f.Build
	}
	return name + "-" + f.Tag() + Ext
}
