package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitreq/packages/core/config"
	"github.com/abdul-hamid-achik/hitreq/packages/output"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

// app is the state shared by every command of one invocation.
type app struct {
	configPath string
	noColor    bool
	verbose    bool
	format     string

	cfg       *config.Config
	logger    *slog.Logger
	formatter output.Formatter
}

// setup loads configuration and builds the logger and formatter. Flags
// given on the command line win over the config file.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return withExit(ExitConfigError, err)
	}

	flags := cmd.Flags()
	if flags.Changed("no-color") {
		cfg.NoColor = config.BoolPtr(a.noColor)
	}
	if flags.Changed("verbose") {
		cfg.Verbose = config.BoolPtr(a.verbose)
	}
	a.cfg = cfg

	format, err := output.ParseFormat(a.format)
	if err != nil {
		return withExit(ExitUsageError, err)
	}
	a.formatter = output.New(format, cmd.OutOrStdout(), cfg.GetVerbose(), cfg.GetNoColor())
	a.logger = newLogger(cmd.ErrOrStderr(), cfg.GetVerbose())
	return nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewRootCmd builds the hitreq command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "hitreq",
		Short: "Single-shot HTTP requests from the terminal.",
		Long: `hitreq issues one HTTP request, waits for the complete response and
prints it. No retries, no redirects, no streaming: one request, one
outcome.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return withExit(ExitUsageError, err)
	})

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "Config file (default: search .hitreq.json, hitreq.json, .hitreq.yaml, .hitreq.yml)")
	pf.BoolVar(&a.noColor, "no-color", false, "Disable colored output")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "Print request line, response headers and debug logs")
	pf.StringVarP(&a.format, "output", "o", "console", "Output format: console or json")

	for _, c := range newVerbCmds(a) {
		rootCmd.AddCommand(c)
	}
	rootCmd.AddCommand(newJSONCmd(a))
	rootCmd.AddCommand(newBenchCmd(a))
	rootCmd.AddCommand(newStubCmd(a))
	rootCmd.AddCommand(newHistoryCmd(a))
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newCompletionCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// usageArgs maps argument validation failures to the usage exit code.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return withExit(ExitUsageError, err)
		}
		return nil
	}
}

func Execute(v, bt string) {
	version = v
	buildTime = bt

	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		if !isReported(err) {
			fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		}
		os.Exit(exitCodeFor(err))
	}
}
