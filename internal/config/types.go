// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	// BackendAuto picks the patcher from the shared library's object format.
	// Defined locally to avoid coupling config to internal/linkage.
	BackendAuto Backend = "auto"
	// BackendMachO patches with otool and install_name_tool.
	BackendMachO Backend = "macho"
	// BackendELF patches with patchelf.
	BackendELF Backend = "elf"

	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"
)

var (
	// ErrInvalidBackend is returned when a Backend value is not recognized.
	ErrInvalidBackend = errors.New("invalid backend")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidGlobPattern is returned when a GlobPattern is empty or malformed.
	ErrInvalidGlobPattern = errors.New("invalid glob pattern")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// Backend selects the load path patcher used by postprocess.
	Backend string

	// InvalidBackendError is returned when a Backend value is not recognized.
	// It wraps ErrInvalidBackend for errors.Is() compatibility.
	InvalidBackendError struct {
		Value Backend
	}

	// ColorScheme specifies the terminal color scheme used to render issues.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// GlobPattern is a file name pattern matched against base names.
	GlobPattern string

	// InvalidGlobPatternError is returned when a GlobPattern is empty or
	// cannot be compiled.
	InvalidGlobPatternError struct {
		Field string
		Value GlobPattern
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sections.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// Dist is the normalized distribution name used in directory and
		// file patterns ("lldb_python").
		Dist string `json:"dist" mapstructure:"dist"`
		// Preprocess configures the layout fix applied before delocating.
		Preprocess PreprocessConfig `json:"preprocess" mapstructure:"preprocess"`
		// Postprocess configures the load path fix applied after delocating.
		Postprocess PostprocessConfig `json:"postprocess" mapstructure:"postprocess"`
		// Tools names the external executables.
		Tools ToolsConfig `json:"tools" mapstructure:"tools"`
		// Verify configures the debugger smoke test.
		Verify VerifyConfig `json:"verify" mapstructure:"verify"`
		// UI configures the user interface
		UI UIConfig `json:"ui" mapstructure:"ui"`

		// Source is the file the configuration was read from, empty when only
		// defaults and environment variables apply.
		Source string `json:"-" mapstructure:"-"`
	}

	// PreprocessConfig holds the patterns used by the preprocess recipe.
	PreprocessConfig struct {
		// DataDir locates the wheel's data directory.
		DataDir GlobPattern `json:"data_dir" mapstructure:"data_dir"`
		// ExtraLibs match redundant library copies removed from DataDir.
		ExtraLibs []GlobPattern `json:"extra_libs" mapstructure:"extra_libs"`
		// BinDir is the directory under DataDir moved into site-packages.
		BinDir string `json:"bin_dir" mapstructure:"bin_dir"`
		// SitePackages locates the destination of BinDir.
		SitePackages GlobPattern `json:"site_packages" mapstructure:"site_packages"`
		// Server is the base name of the RECORD row rewritten after the move.
		Server GlobPattern `json:"server" mapstructure:"server"`
	}

	// PostprocessConfig holds the settings used by the postprocess recipe.
	PostprocessConfig struct {
		// Backend selects the patcher.
		Backend Backend `json:"backend" mapstructure:"backend"`
		// SharedLib locates the library whose load paths are rewritten.
		SharedLib GlobPattern `json:"shared_lib" mapstructure:"shared_lib"`
		// LoaderPrefix overrides @loader_path/../{dist}.dylibs (Mach-O).
		LoaderPrefix string `json:"loader_prefix" mapstructure:"loader_prefix"`
		// RPath overrides $ORIGIN/../{dist}.libs (ELF).
		RPath string `json:"rpath" mapstructure:"rpath"`
	}

	// ToolsConfig names the external executables, as PATH names or paths.
	ToolsConfig struct {
		Otool            string `json:"otool" mapstructure:"otool"`
		InstallNameTool  string `json:"install_name_tool" mapstructure:"install_name_tool"`
		DelocateListdeps string `json:"delocate_listdeps" mapstructure:"delocate_listdeps"`
		Patchelf         string `json:"patchelf" mapstructure:"patchelf"`
		Cmake            string `json:"cmake" mapstructure:"cmake"`
	}

	// VerifyConfig configures the debugger smoke test.
	VerifyConfig struct {
		// Python is the host interpreter that imports the binding.
		Python string `json:"python" mapstructure:"python"`
		// Image is the container image used by verify --image.
		Image string `json:"image" mapstructure:"image"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme sets the color scheme
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		// Verbose enables verbose output
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}
)

// DefaultConfig returns the configuration that reproduces the stock
// lldb_python recipes.
func DefaultConfig() *Config {
	return &Config{
		Dist: "lldb_python",
		Preprocess: PreprocessConfig{
			DataDir:      "data",
			ExtraLibs:    []GlobPattern{"liblldb*"},
			BinDir:       "bin",
			SitePackages: "site-packages",
			Server:       "lldb-server",
		},
		Postprocess: PostprocessConfig{
			Backend:   BackendAuto,
			SharedLib: "*.so",
		},
		Tools: ToolsConfig{
			Otool:            "otool",
			InstallNameTool:  "install_name_tool",
			DelocateListdeps: "delocate-listdeps",
			Patchelf:         "patchelf",
			Cmake:            "cmake",
		},
		Verify: VerifyConfig{
			Python: "python3",
			Image:  "python:3.12-bookworm",
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
	}
}

// String returns the string representation of the Backend.
func (b Backend) String() string { return string(b) }

// IsValid returns whether the Backend is one of the defined backends.
func (b Backend) IsValid() (bool, []error) {
	switch b {
	case BackendAuto, BackendMachO, BackendELF:
		return true, nil
	default:
		return false, []error{&InvalidBackendError{Value: b}}
	}
}

// Error implements the error interface for InvalidBackendError.
func (e *InvalidBackendError) Error() string {
	return fmt.Sprintf("invalid backend %q (valid: auto, macho, elf)", e.Value)
}

// Unwrap returns ErrInvalidBackend for errors.Is() compatibility.
func (e *InvalidBackendError) Unwrap() error { return ErrInvalidBackend }

// String returns the string representation of the ColorScheme.
func (c ColorScheme) String() string { return string(c) }

// IsValid returns whether the ColorScheme is one of the defined color schemes.
func (c ColorScheme) IsValid() (bool, []error) {
	switch c {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: c}}
	}
}

// Error implements the error interface for InvalidColorSchemeError.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns ErrInvalidColorScheme for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// String returns the string representation of the GlobPattern.
func (p GlobPattern) String() string { return string(p) }

// IsValid returns whether the pattern is non-blank and compiles.
func (p GlobPattern) IsValid() (bool, []error) {
	if strings.TrimSpace(string(p)) == "" || !doublestar.ValidatePattern(string(p)) {
		return false, []error{&InvalidGlobPatternError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface for InvalidGlobPatternError.
func (e *InvalidGlobPatternError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: invalid glob pattern %q", e.Field, e.Value)
	}
	return fmt.Sprintf("invalid glob pattern %q", e.Value)
}

// Unwrap returns ErrInvalidGlobPattern for errors.Is() compatibility.
func (e *InvalidGlobPatternError) Unwrap() error { return ErrInvalidGlobPattern }

// Patterns converts ExtraLibs to plain strings.
func (c PreprocessConfig) Patterns() []string {
	out := make([]string, len(c.ExtraLibs))
	for i, p := range c.ExtraLibs {
		out[i] = string(p)
	}
	return out
}

// IsValid returns whether every field of the Config is valid.
// Errors are collected rather than returned at the first failure.
func (c *Config) IsValid() (bool, []error) {
	var errs []error

	patterns := []struct {
		field string
		value GlobPattern
	}{
		{"preprocess.data_dir", c.Preprocess.DataDir},
		{"preprocess.site_packages", c.Preprocess.SitePackages},
		{"preprocess.server", c.Preprocess.Server},
		{"postprocess.shared_lib", c.Postprocess.SharedLib},
	}
	for i, p := range c.Preprocess.ExtraLibs {
		patterns = append(patterns, struct {
			field string
			value GlobPattern
		}{fmt.Sprintf("preprocess.extra_libs[%d]", i), p})
	}
	for _, p := range patterns {
		if valid, _ := p.value.IsValid(); !valid {
			errs = append(errs, &InvalidGlobPatternError{Field: p.field, Value: p.value})
		}
	}

	if strings.TrimSpace(c.Dist) == "" {
		errs = append(errs, errors.New("dist: must not be empty"))
	}
	if c.Preprocess.BinDir == "" || strings.ContainsAny(c.Preprocess.BinDir, `/\`) {
		errs = append(errs, fmt.Errorf("preprocess.bin_dir: must be a single directory name, got %q", c.Preprocess.BinDir))
	}
	if valid, fieldErrs := c.Postprocess.Backend.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.UI.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}

	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Validate returns the InvalidConfigError describing every invalid field, or
// nil.
func (c *Config) Validate() error {
	if valid, errs := c.IsValid(); !valid {
		return errs[0]
	}
	return nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig and the field errors for errors.Is()
// compatibility.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}
