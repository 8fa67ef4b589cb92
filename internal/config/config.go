// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"

	"github.com/lldb-python/wheeledit/internal/issue"
)

const (
	// AppName is the application name.
	AppName = "edit-wheel"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment overrides (EDITWHEEL_DIST).
	EnvPrefix = "EDITWHEEL"

	// maxConfigFileSize bounds the config file read into memory.
	maxConfigFileSize = 1 << 20
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the edit-wheel configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// DefaultConfigPath returns the config file path inside ConfigDir.
func DefaultConfigPath() (string, error) {
	cfgDir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt), nil
}

// loadWithOptions performs option-driven config loading without mutating
// package-level state.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	// EDITWHEEL_POSTPROCESS_BACKEND overrides postprocess.backend.
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolvedPath := ""

	// If a custom config file path is set via --config flag, use it exclusively.
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'edit-wheel config init' to write a default configuration").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		if err := loadCUEIntoViper(v, opts.ConfigFilePath); err != nil {
			return nil, loadError(opts.ConfigFilePath, err)
		}
		resolvedPath = opts.ConfigFilePath
	} else {
		cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
		if err != nil {
			return nil, err
		}

		for _, candidate := range []string{
			filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt),
			ConfigFileName + "." + ConfigFileExt,
		} {
			if !fileExists(candidate) {
				continue
			}
			if err := loadCUEIntoViper(v, candidate); err != nil {
				return nil, loadError(candidate, err)
			}
			resolvedPath = candidate
			break
		}
		// No file anywhere: defaults only.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Source = resolvedPath

	// Environment overrides bypass the CUE schema, so validate the result.
	if err := cfg.Validate(); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Check EDITWHEEL_* environment variables").
			WithSuggestion("Run 'edit-wheel config show' to see the effective configuration").
			Wrap(err).
			BuildError()
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, defaults *Config) {
	v.SetDefault("dist", defaults.Dist)
	v.SetDefault("preprocess.data_dir", defaults.Preprocess.DataDir)
	v.SetDefault("preprocess.extra_libs", defaults.Preprocess.Patterns())
	v.SetDefault("preprocess.bin_dir", defaults.Preprocess.BinDir)
	v.SetDefault("preprocess.site_packages", defaults.Preprocess.SitePackages)
	v.SetDefault("preprocess.server", defaults.Preprocess.Server)
	v.SetDefault("postprocess.backend", defaults.Postprocess.Backend)
	v.SetDefault("postprocess.shared_lib", defaults.Postprocess.SharedLib)
	v.SetDefault("postprocess.loader_prefix", defaults.Postprocess.LoaderPrefix)
	v.SetDefault("postprocess.rpath", defaults.Postprocess.RPath)
	v.SetDefault("tools.otool", defaults.Tools.Otool)
	v.SetDefault("tools.install_name_tool", defaults.Tools.InstallNameTool)
	v.SetDefault("tools.delocate_listdeps", defaults.Tools.DelocateListdeps)
	v.SetDefault("tools.patchelf", defaults.Tools.Patchelf)
	v.SetDefault("tools.cmake", defaults.Tools.Cmake)
	v.SetDefault("verify.python", defaults.Verify.Python)
	v.SetDefault("verify.image", defaults.Verify.Image)
	v.SetDefault("ui.color_scheme", defaults.UI.ColorScheme)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)
}

func loadError(path string, err error) error {
	return issue.NewErrorContext().
		WithOperation("load configuration").
		WithResource(path).
		WithSuggestion("Check that the file contains valid CUE syntax").
		WithSuggestion("Verify the configuration values match the expected schema").
		WithSuggestion("See 'edit-wheel config --help' for configuration options").
		Wrap(err).
		BuildError()
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// loadCUEIntoViper checks path against the embedded #Config schema and merges
// the decoded value into v.
//
// Concrete(false) is used because every config field is optional, and the
// result is decoded to a map so Viper keeps its defaults and env overrides.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if len(data) > maxConfigFileSize {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", path, len(data), maxConfigFileSize)
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return formatCUEError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return formatCUEError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return formatCUEError(err, path)
	}

	// Defaults stay underneath; env still wins.
	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes a default config file to ConfigDir unless one
// already exists. It returns the file path and whether it was written.
func CreateDefaultConfig() (path string, created bool, err error) {
	path, err = DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	if _, statErr := os.Stat(path); statErr == nil {
		return path, false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", false, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", false, fmt.Errorf("failed to write config file: %w", err)
	}

	return path, true, nil
}

// GenerateCUE renders cfg in the config file format. The result loads back to
// an equal Config.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// edit-wheel configuration file\n")
	sb.WriteString("// Patterns are matched against file and directory base names.\n\n")

	fmt.Fprintf(&sb, "dist: %q\n", cfg.Dist)

	sb.WriteString("\npreprocess: {\n")
	fmt.Fprintf(&sb, "\tdata_dir: %q\n", cfg.Preprocess.DataDir)
	sb.WriteString("\textra_libs: [")
	for i, p := range cfg.Preprocess.ExtraLibs {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%q", p)
	}
	sb.WriteString("]\n")
	fmt.Fprintf(&sb, "\tbin_dir: %q\n", cfg.Preprocess.BinDir)
	fmt.Fprintf(&sb, "\tsite_packages: %q\n", cfg.Preprocess.SitePackages)
	fmt.Fprintf(&sb, "\tserver: %q\n", cfg.Preprocess.Server)
	sb.WriteString("}\n")

	sb.WriteString("\npostprocess: {\n")
	fmt.Fprintf(&sb, "\tbackend: %q\n", cfg.Postprocess.Backend)
	fmt.Fprintf(&sb, "\tshared_lib: %q\n", cfg.Postprocess.SharedLib)
	if cfg.Postprocess.LoaderPrefix != "" {
		fmt.Fprintf(&sb, "\tloader_prefix: %q\n", cfg.Postprocess.LoaderPrefix)
	}
	if cfg.Postprocess.RPath != "" {
		fmt.Fprintf(&sb, "\trpath: %q\n", cfg.Postprocess.RPath)
	}
	sb.WriteString("}\n")

	sb.WriteString("\ntools: {\n")
	fmt.Fprintf(&sb, "\totool: %q\n", cfg.Tools.Otool)
	fmt.Fprintf(&sb, "\tinstall_name_tool: %q\n", cfg.Tools.InstallNameTool)
	fmt.Fprintf(&sb, "\tdelocate_listdeps: %q\n", cfg.Tools.DelocateListdeps)
	fmt.Fprintf(&sb, "\tpatchelf: %q\n", cfg.Tools.Patchelf)
	fmt.Fprintf(&sb, "\tcmake: %q\n", cfg.Tools.Cmake)
	sb.WriteString("}\n")

	sb.WriteString("\nverify: {\n")
	fmt.Fprintf(&sb, "\tpython: %q\n", cfg.Verify.Python)
	fmt.Fprintf(&sb, "\timage: %q\n", cfg.Verify.Image)
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tcolor_scheme: %q\n", cfg.UI.ColorScheme)
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	sb.WriteString("}\n")

	return sb.String()
}
