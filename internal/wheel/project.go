// SPDX-License-Identifier: MPL-2.0

package wheel

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

var nameSeparators = regexp.MustCompile(`[-_.]+`)

// pyproject is the subset of pyproject.toml that names the distribution.
type pyproject struct {
	Project struct {
		Name string `toml:"name"`
	} `toml:"project"`
}

// NormalizeName converts a project name to the form used in wheel file and
// directory names: runs of "-", "_" and "." become a single "_", and the
// result is lower-cased ("LLDB-Python" becomes "lldb_python").
func NormalizeName(name string) string {
	return strings.ToLower(nameSeparators.ReplaceAllString(strings.TrimSpace(name), "_"))
}

// ProjectName reads [project].name from the pyproject.toml at path and
// returns it normalized.
func ProjectName(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	var doc pyproject
	if err := toml.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("parsing %s: %w", path, err)
	}
	if doc.Project.Name == "" {
		return "", fmt.Errorf("%s: [project].name is not set", path)
	}
	return NormalizeName(doc.Project.Name), nil
}
