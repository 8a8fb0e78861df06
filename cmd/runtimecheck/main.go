package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/odavlstudio/odavl/internal/config"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"

	cfgPath  string
	logLevel string

	cfg    *config.Config
	logger *zap.Logger

	rootCmd = &cobra.Command{
		Use:   "runtimecheck",
		Short: "Runtime verification harness for a corpus of deliberately broken Go programs",
		Long: `Runtimecheck manages a corpus of small Go programs that carry declared,
intentional defects. It stages, builds and executes each fixture, then
checks the observed behavior (exit status, stdout, panic messages, race
reports) against the contract in the fixture's manifest. Nothing is
inferred from the sources; a fixture passes only when it misbehaves
exactly as declared.`,
		Version:           fmt.Sprintf("%s (commit: %s, date: %s)", version, commit, date),
		PersistentPreRunE: setup,
		PersistentPostRun: teardown,
	}
)

// setup loads the configuration and builds the shared logger before any
// subcommand runs.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(cfgPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	logger, err = buildLogger(cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

func teardown(cmd *cobra.Command, args []string) {
	if logger != nil {
		_ = logger.Sync()
	}
}

// buildLogger constructs the process logger. Logs go to stderr so report
// output on stdout stays machine-readable.
func buildLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("unknown log level %q: %w", level, err)
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	return zcfg.Build()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", config.DefaultPath, "Path to the config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level (debug, info, warn, error)")
}

func main() {
	// Subcommands are added in their respective files via init() functions

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
