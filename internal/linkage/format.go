// SPDX-License-Identifier: MPL-2.0

package linkage

import (
	"debug/elf"
	"debug/macho"
	"errors"
	"fmt"
	"strings"
)

// Format is an object file format, or FormatAuto.
type Format string

const (
	FormatAuto  Format = "auto"
	FormatMachO Format = "macho"
	FormatELF   Format = "elf"
)

// ErrUnsupportedFormat is returned for libraries that are neither Mach-O nor
// ELF, and for unknown format names.
var ErrUnsupportedFormat = errors.New("unsupported binary format")

// Formats lists the accepted format names.
func Formats() []string {
	return []string{string(FormatAuto), string(FormatMachO), string(FormatELF)}
}

// ParseFormat validates a format name (case-insensitive).
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatAuto, FormatMachO, FormatELF:
		return f, nil
	case "":
		return FormatAuto, nil
	default:
		return "", fmt.Errorf("%w: %q (want one of %s)", ErrUnsupportedFormat, s, strings.Join(Formats(), ", "))
	}
}

// DetectFormat reads the object header of the file at path.
func DetectFormat(path string) (Format, error) {
	if f, err := macho.Open(path); err == nil {
		_ = f.Close()
		return FormatMachO, nil
	}
	if f, err := macho.OpenFat(path); err == nil {
		_ = f.Close()
		return FormatMachO, nil
	}
	if f, err := elf.Open(path); err == nil {
		_ = f.Close()
		return FormatELF, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

// Resolve returns format unchanged unless it is FormatAuto, in which case the
// format of the library at path is detected.
func Resolve(format Format, path string) (Format, error) {
	if format != FormatAuto && format != "" {
		return format, nil
	}
	return DetectFormat(path)
}
