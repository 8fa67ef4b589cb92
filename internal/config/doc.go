// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/edit-wheel/config.cue (or XDG equivalent on Linux,
// ~/Library/Application Support/edit-wheel/config.cue on macOS, %APPDATA%\edit-wheel\config.cue
// on Windows), falling back to ./config.cue. Every pattern and tool name used by the recipes
// is configurable, and any key can be overridden from the environment with the EDITWHEEL_
// prefix (EDITWHEEL_POSTPROCESS_BACKEND=elf).
//
// Configuration validation is performed against a CUE schema (config_schema.cue) to ensure
// type safety and provide clear error messages for invalid configurations.
package config
