// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lldb-python/wheeledit/internal/linkage"
	"github.com/lldb-python/wheeledit/internal/recipe"
)

func newPostprocessCommand(inv *invocation) *cobra.Command {
	var (
		destDir string
		backend string
	)

	cmd := &cobra.Command{
		Use:   "postprocess <wheel|dir>",
		Short: "Point the extension module at the wheel-bundled libraries",
		Long: `Edit a wheel after delocate or auditwheel has bundled its libraries.

Mach-O: every load command of the extension module that names a library
listed by delocate-listdeps is rewritten with install_name_tool to
@loader_path/../<dist>.dylibs/<lib>.

ELF: DT_NEEDED entries with a counterpart in <dist>.libs are replaced with
patchelf and the run path is set to $ORIGIN/../<dist>.libs.

The backend is detected from the library header unless --backend is set.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if backend == "" {
				backend = string(inv.cfg.Postprocess.Backend)
			}
			format, err := linkage.ParseFormat(backend)
			if err != nil {
				return &ExitError{Code: ExitUsage, Err: err}
			}

			wheelPath, err := recipe.ResolveWheel(args[0], inv.dist)
			if err != nil {
				return inv.fail(cmd, err)
			}

			post, tools := inv.cfg.Postprocess, inv.cfg.Tools
			editor := recipe.New(inv.runner(), recipe.WithLogger(inv.logger))
			res, err := editor.Postprocess(cmd.Context(), wheelPath, destDir, recipe.PostprocessOptions{
				Dist:      inv.dist,
				SharedLib: string(post.SharedLib),
				Backend:   format,
				Linkage: linkage.Options{
					Tools: linkage.Tools{
						Otool:            tools.Otool,
						InstallNameTool:  tools.InstallNameTool,
						DelocateListdeps: tools.DelocateListdeps,
						Patchelf:         tools.Patchelf,
					},
					LoaderPrefix: post.LoaderPrefix,
					RPath:        post.RPath,
					Logger:       inv.logger,
				},
			})
			if err != nil {
				return inv.fail(cmd, err)
			}

			out := cmd.OutOrStdout()
			for _, c := range res.Changes {
				fmt.Fprintf(out, "%s %s: %s → %s\n", CmdStyle.Render("~"), filepath.Base(c.Library), c.From, c.To)
			}
			fmt.Fprintf(out, "%s Wrote %s\n", SuccessStyle.Render("✓"), res.Wheel)
			return nil
		},
	}

	cmd.Flags().StringVarP(&destDir, "dest-dir", "d", "", "directory for the edited wheel (default: the input wheel's directory)")
	cmd.Flags().StringVar(&backend, "backend", "", "load path patcher: "+strings.Join(linkage.Formats(), ", ")+" (default from config)")
	return cmd
}
