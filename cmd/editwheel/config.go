// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lldb-python/wheeledit/internal/config"
)

// newConfigCommand creates the `edit-wheel config` command tree.
func newConfigCommand(inv *invocation) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage edit-wheel configuration",
		Long: `Manage edit-wheel configuration.

Configuration is stored in:
  - Linux: ~/.config/edit-wheel/config.cue
  - macOS: ~/Library/Application Support/edit-wheel/config.cue
  - Windows: %APPDATA%\edit-wheel\config.cue

Every value can be overridden with an EDITWHEEL_* environment variable,
e.g. EDITWHEEL_POSTPROCESS_BACKEND=elf.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			showConfig(cmd.OutOrStdout(), inv.cfg, inv.dist)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, created, err := config.CreateDefaultConfig()
			if err != nil {
				return inv.fail(cmd, err)
			}
			if !created {
				fmt.Fprintf(cmd.OutOrStdout(), "%s Configuration already exists at %s\n", WarningStyle.Render("!"), path)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), config.GenerateCUE(inv.cfg))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(w io.Writer, cfg *config.Config, dist string) {
	keyStyle := CmdStyle
	valueStyle := SuccessStyle

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)

	if cfg.Source != "" {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), cfg.Source)
	} else {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("dist"), valueStyle.Render(dist))

	section := func(name string, pairs ...string) {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s:\n", keyStyle.Render(name))
		for i := 0; i+1 < len(pairs); i += 2 {
			value := pairs[i+1]
			if value == "" {
				value = SubtitleStyle.Render("(default)")
			} else {
				value = valueStyle.Render(value)
			}
			fmt.Fprintf(w, "  %s: %s\n", pairs[i], value)
		}
	}

	section("preprocess",
		"data_dir", string(cfg.Preprocess.DataDir),
		"extra_libs", strings.Join(cfg.Preprocess.Patterns(), ", "),
		"bin_dir", cfg.Preprocess.BinDir,
		"site_packages", string(cfg.Preprocess.SitePackages),
		"server", string(cfg.Preprocess.Server),
	)
	section("postprocess",
		"backend", string(cfg.Postprocess.Backend),
		"shared_lib", string(cfg.Postprocess.SharedLib),
		"loader_prefix", cfg.Postprocess.LoaderPrefix,
		"rpath", cfg.Postprocess.RPath,
	)
	section("tools",
		"otool", cfg.Tools.Otool,
		"install_name_tool", cfg.Tools.InstallNameTool,
		"delocate_listdeps", cfg.Tools.DelocateListdeps,
		"patchelf", cfg.Tools.Patchelf,
		"cmake", cfg.Tools.Cmake,
	)
	section("verify",
		"python", cfg.Verify.Python,
		"image", cfg.Verify.Image,
	)
	section("ui",
		"color_scheme", string(cfg.UI.ColorScheme),
		"verbose", fmt.Sprintf("%v", cfg.UI.Verbose),
	)
}
