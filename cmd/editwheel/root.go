// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/lldb-python/wheeledit/internal/config"
	"github.com/lldb-python/wheeledit/internal/issue"
	"github.com/lldb-python/wheeledit/internal/toolexec"
	"github.com/lldb-python/wheeledit/internal/wheel"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

type (
	// App wires CLI services. Command handlers reach configuration and the
	// tool runner only through it, so tests can swap either.
	App struct {
		Config config.Provider
		runner toolexec.Commander
		stdout io.Writer
		stderr io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil fields are
	// replaced with production defaults by NewApp.
	Dependencies struct {
		Config config.Provider
		// Runner replaces the exec-based tool runner.
		Runner toolexec.Commander
		Stdout io.Writer
		Stderr io.Writer
	}

	// rootFlags holds the persistent flags.
	rootFlags struct {
		verbose    bool
		configPath string
		dist       string
		project    string
	}

	// invocation is the state shared by the subcommands of one run, filled in
	// by the root PersistentPreRunE.
	invocation struct {
		app    *App
		flags  rootFlags
		cfg    *config.Config
		logger *log.Logger
		dist   string
	}
)

// NewApp creates an App, filling nil dependencies with production defaults.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config: deps.Config,
		runner: deps.Runner,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app
}

// NewRootCommand builds the edit-wheel command tree.
func NewRootCommand(app *App) *cobra.Command {
	inv := &invocation{app: app}

	rootCmd := &cobra.Command{
		Use:   "edit-wheel",
		Short: "Fix up the layout and load paths of lldb_python wheels",
		Long: TitleStyle.Render("edit-wheel") + SubtitleStyle.Render(" - Fix up the layout and load paths of lldb_python wheels") + `

edit-wheel rewrites an already-built wheel in place of a manual
unpack/edit/pack cycle. It runs in two stages around delocate or
auditwheel, and can smoke-test the result against the debugger API.

` + SubtitleStyle.Render("Examples:") + `
  edit-wheel preprocess dist/                  Move lldb-server, drop liblldb copies
  edit-wheel postprocess dist/ --backend macho Point _lldb.so at the bundled dylibs
  edit-wheel verify dist/ --container          Run the debugger checks in a container
  edit-wheel config show                       Show the effective configuration`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return inv.setup(cmd)
		},
	}
	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: ExitUsage, Err: err}
	})

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&inv.flags.verbose, "verbose", "v", false, "enable verbose output")
	flags.StringVar(&inv.flags.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/edit-wheel/config.cue)")
	flags.StringVar(&inv.flags.dist, "dist", "", "distribution name used in wheel patterns (default from config)")
	flags.StringVar(&inv.flags.project, "project", "", "read the distribution name from this pyproject.toml")

	rootCmd.AddCommand(newPreprocessCommand(inv))
	rootCmd.AddCommand(newPostprocessCommand(inv))
	rootCmd.AddCommand(newVerifyCommand(inv))
	rootCmd.AddCommand(newConfigCommand(inv))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits with the status carried by ExitError.
// This is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(skipReported(fang.DefaultErrorHandler)),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(ExitFailure)
	}
}

// setup loads configuration, builds the logger and resolves the
// distribution name. Flags win over the config file.
func (inv *invocation) setup(cmd *cobra.Command) error {
	cfg, err := inv.app.Config.Load(cmd.Context(), config.LoadOptions{ConfigFilePath: inv.flags.configPath})
	if err != nil {
		return inv.fail(cmd, err)
	}
	inv.cfg = cfg

	level := log.InfoLevel
	if inv.verbose() {
		level = log.DebugLevel
	}
	inv.logger = log.NewWithOptions(inv.app.stderr, log.Options{
		Prefix: config.AppName,
		Level:  level,
	})
	if cfg.Source != "" {
		inv.logger.Debug("loaded configuration", "file", cfg.Source)
	}

	switch {
	case inv.flags.dist != "":
		inv.dist = wheel.NormalizeName(inv.flags.dist)
	case inv.flags.project != "":
		name, err := wheel.ProjectName(inv.flags.project)
		if err != nil {
			return inv.fail(cmd, issue.NewErrorContext().
				WithOperation("read project name").
				WithResource(inv.flags.project).
				WithSuggestion("Pass the distribution name with --dist").
				Wrap(err).
				BuildError())
		}
		inv.dist = name
	default:
		inv.dist = cfg.Dist
	}
	inv.logger.Debug("distribution", "name", inv.dist)
	return nil
}

func (inv *invocation) verbose() bool {
	return inv.flags.verbose || (inv.cfg != nil && inv.cfg.UI.Verbose)
}

// runner returns the injected runner, or an exec runner that traces through
// the invocation logger.
func (inv *invocation) runner() toolexec.Commander {
	if inv.app.runner != nil {
		return inv.app.runner
	}
	return toolexec.New(toolexec.WithLogger(inv.logger))
}

// glamourStyle maps the configured color scheme to a glamour style name.
func (inv *invocation) glamourStyle() string {
	if inv.cfg == nil {
		return "auto"
	}
	switch inv.cfg.UI.ColorScheme {
	case config.ColorSchemeDark:
		return "dark"
	case config.ColorSchemeLight:
		return "light"
	default:
		return "auto"
	}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// usageArgs wraps a cobra positional-args validator so violations exit with
// ExitUsage.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return &ExitError{Code: ExitUsage, Err: err}
		}
		return nil
	}
}
