package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/driftwatch/driftwatch/internal/config"
	"github.com/driftwatch/driftwatch/internal/engine"
	"github.com/driftwatch/driftwatch/internal/orchestrator"
	"github.com/driftwatch/driftwatch/internal/store"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Database string
	Config   string // optional CUE tuning file
	Org      string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the driftwatch root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "driftwatch",
		Short: "driftwatch - decision health tracking",
		Long: `Track organizational decisions, evaluate their health as assumptions
break and constraints bite, and surface conflicts between them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			configureLogging(opts.Verbose)
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "driftwatch.db", "path to SQLite database")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "path to CUE tuning config")
	cmd.PersistentFlags().StringVar(&opts.Org, "org", "default", "organization id")

	cmd.AddCommand(NewLoadCommand(opts))
	cmd.AddCommand(NewEvaluateCommand(opts))
	cmd.AddCommand(NewDetectCommand(opts))
	cmd.AddCommand(NewConflictsCommand(opts))
	cmd.AddCommand(NewResolveCommand(opts))
	cmd.AddCommand(NewAdvanceCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func configureLogging(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// loadTuning resolves the engine config: the optional --config file unified
// with embedded defaults.
func loadTuning(opts *RootOptions) (config.Config, error) {
	if opts.Config == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	return cfg, nil
}

// openOrchestrator wires a store-backed orchestrator from global flags.
// The returned closer must be called when the command finishes.
func openOrchestrator(opts *RootOptions) (*orchestrator.Orchestrator, *store.Store, func(), error) {
	cfg, err := loadTuning(opts)
	if err != nil {
		return nil, nil, nil, err
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return nil, nil, nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	o := orchestrator.New(st, engine.New(cfg), engine.SystemClock{}, slog.Default(), opts.Org)
	closer := func() {
		if err := st.Close(); err != nil {
			slog.Error("error closing database", "error", err)
		}
	}
	return o, st, closer, nil
}

func formatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
