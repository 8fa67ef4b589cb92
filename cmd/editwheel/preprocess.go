// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lldb-python/wheeledit/internal/recipe"
)

func newPreprocessCommand(inv *invocation) *cobra.Command {
	var destDir string

	cmd := &cobra.Command{
		Use:   "preprocess <wheel|dir>",
		Short: "Move lldb-server into site-packages and drop duplicate liblldb copies",
		Long: `Edit a freshly built wheel before it is delocated.

The wheel's data directory loses every liblldb* copy, data/bin is moved
into site-packages so lldb-server installs next to the Python package, and
RECORD is rewritten to match. When given a directory, the first matching
wheel inside it is edited.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			wheelPath, err := recipe.ResolveWheel(args[0], inv.dist)
			if err != nil {
				return inv.fail(cmd, err)
			}

			pre := inv.cfg.Preprocess
			editor := recipe.New(inv.runner(), recipe.WithLogger(inv.logger))
			res, err := editor.Preprocess(cmd.Context(), wheelPath, destDir, recipe.PreprocessOptions{
				Dist:         inv.dist,
				DataDir:      string(pre.DataDir),
				ExtraLibs:    pre.Patterns(),
				BinDir:       pre.BinDir,
				SitePackages: string(pre.SitePackages),
				Server:       string(pre.Server),
			})
			if err != nil {
				return inv.fail(cmd, err)
			}

			out := cmd.OutOrStdout()
			for _, removed := range res.Removed {
				fmt.Fprintf(out, "%s %s\n", WarningStyle.Render("-"), removed)
			}
			if res.Moved != "" {
				fmt.Fprintf(out, "%s %s\n", CmdStyle.Render("→"), res.Moved)
			}
			fmt.Fprintf(out, "%s Wrote %s\n", SuccessStyle.Render("✓"), res.Wheel)
			return nil
		},
	}

	cmd.Flags().StringVarP(&destDir, "dest-dir", "d", "", "directory for the edited wheel (default: the input wheel's directory)")
	return cmd
}
