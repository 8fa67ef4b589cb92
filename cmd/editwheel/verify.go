// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/lldb-python/wheeledit/internal/probe"
	"github.com/lldb-python/wheeledit/internal/recipe"
)

func newVerifyCommand(inv *invocation) *cobra.Command {
	var (
		python    string
		image     string
		container bool
	)

	cmd := &cobra.Command{
		Use:   "verify [wheel|dir]",
		Short: "Smoke-test the debugger binding against a freshly built sample",
		Long: `Build a small C program with CMake and drive it through the lldb Python
binding: create a debugger, create a target, launch a process and stop at a
breakpoint on main.

Without a wheel the binding importable by --python is tested. With a wheel it
is installed into a scratch virtual environment first. With --container (or
--image) the wheel is installed into a fresh container instead, which needs
Docker or Podman.`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			wheelPath := ""
			if len(args) == 1 {
				var err error
				if wheelPath, err = recipe.ResolveWheel(args[0], inv.dist); err != nil {
					return inv.fail(cmd, err)
				}
			}

			var prober probe.Prober
			if container || image != "" {
				if image == "" {
					image = inv.cfg.Verify.Image
				}
				prober = &probe.ContainerProbe{Image: image, Logger: inv.logger}
			} else {
				if python == "" {
					python = inv.cfg.Verify.Python
				}
				prober = &probe.HostProbe{
					Python: python,
					CMake:  inv.cfg.Tools.Cmake,
					Runner: inv.runner(),
					Logger: inv.logger,
				}
			}

			report, err := prober.Probe(cmd.Context(), wheelPath)
			if err != nil {
				return inv.fail(cmd, err)
			}

			rendered, err := glamour.Render(report.Markdown(), inv.glamourStyle())
			if err != nil {
				rendered = report.Markdown()
			}
			fmt.Fprint(cmd.OutOrStdout(), rendered)

			if err := report.Err(); err != nil {
				return inv.fail(cmd, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s All checks passed\n", SuccessStyle.Render("✓"))
			return nil
		},
	}

	cmd.Flags().StringVar(&python, "python", "", "host interpreter (default from config)")
	cmd.Flags().StringVar(&image, "image", "", "run inside this container image (implies --container)")
	cmd.Flags().BoolVar(&container, "container", false, "run inside a container using the configured image")
	return cmd
}
