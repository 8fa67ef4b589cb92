// SPDX-License-Identifier: MPL-2.0

package wheel

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
)

// ErrInvalidWheel is returned when an archive or tree lacks the structure
// every wheel must have.
var ErrInvalidWheel = errors.New("invalid wheel")

// Metadata holds the fields of a .dist-info/WHEEL file that packing needs.
type Metadata struct {
	WheelVersion  string
	Generator     string
	RootIsPurelib bool
	Build         string
	Tags          []string
}

// ReadMetadata parses the WHEEL file at path.
func ReadMetadata(path string) (Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return Metadata{}, err
	}
	defer func() { _ = f.Close() }() // read-only

	md, err := ParseMetadata(f)
	if err != nil {
		return Metadata{}, fmt.Errorf("%s: %w", path, err)
	}
	return md, nil
}

// ParseMetadata parses "Key: Value" lines. Tag may repeat; unknown keys are
// ignored.
func ParseMetadata(r io.Reader) (Metadata, error) {
	var md Metadata

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return Metadata{}, fmt.Errorf("%w: malformed WHEEL line %q", ErrInvalidWheel, line)
		}
		value = strings.TrimSpace(value)

		switch strings.TrimSpace(key) {
		case "Wheel-Version":
			md.WheelVersion = value
		case "Generator":
			md.Generator = value
		case "Root-Is-Purelib":
			md.RootIsPurelib = strings.EqualFold(value, "true")
		case "Build":
			md.Build = value
		case "Tag":
			md.Tags = append(md.Tags, value)
		}
	}
	if err := scanner.Err(); err != nil {
		return Metadata{}, fmt.Errorf("reading WHEEL: %w", err)
	}

	if len(md.Tags) == 0 {
		return Metadata{}, fmt.Errorf("%w: WHEEL has no Tag lines", ErrInvalidWheel)
	}
	return md, nil
}

// CompressedTag folds the Tag lines into a single file name tag: the sorted
// unique python, abi and platform components, each joined with ".".
func (m Metadata) CompressedTag() (string, error) {
	var pys, abis, plats []string
	for _, tag := range m.Tags {
		parts := strings.Split(tag, "-")
		if len(parts) != 3 {
			return "", fmt.Errorf("%w: malformed tag %q", ErrInvalidWheel, tag)
		}
		pys = append(pys, parts[0])
		abis = append(abis, parts[1])
		plats = append(plats, parts[2])
	}
	return compact(pys) + "-" + compact(abis) + "-" + compact(plats), nil
}

func compact(values []string) string {
	slices.Sort(values)
	return strings.Join(slices.Compact(values), ".")
}
