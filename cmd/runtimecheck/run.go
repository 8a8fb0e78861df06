package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/odavlstudio/odavl/internal/corpus"
	"github.com/odavlstudio/odavl/internal/runner"
)

var (
	runCorpus  string
	runCase    string
	runRace    bool
	runKeep    bool
	runTimeout time.Duration

	runCmd = &cobra.Command{
		Use:   "run <fixture>",
		Short: "Stage, build and execute a single fixture case",
		Long: `Run stages one fixture into a temporary module, builds it and executes
the selected case, then prints the raw outcome without judging it.
Use verify to check outcomes against the manifest contract.`,
		Args: cobra.ExactArgs(1),
		RunE: runRun,
	}
)

func init() {
	runCmd.Flags().StringVarP(&runCorpus, "corpus", "c", "", "Corpus directory (defaults to the configured corpus_dir)")
	runCmd.Flags().StringVar(&runCase, "case", "", "Case name (defaults to the fixture's first case)")
	runCmd.Flags().BoolVar(&runRace, "race", false, "Build with the race detector")
	runCmd.Flags().BoolVar(&runKeep, "keep", false, "Keep the staging directory after the run")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "Execution timeout for cases that do not declare one")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	fx, err := corpus.LoadFixture(filepath.Join(corpusDir(runCorpus), args[0]))
	if err != nil {
		return fmt.Errorf("failed to load fixture: %w", err)
	}

	c, ok := fx.Case(runCase)
	if !ok {
		return fmt.Errorf("fixture %s has no case %q", fx.Name, runCase)
	}
	if c.Race && !runRace {
		return fmt.Errorf("case %s needs a race-instrumented build; rerun with --race", c.Name)
	}

	r := newRunner()
	r.Keep = runKeep
	if runTimeout > 0 {
		r.Timeout = runTimeout
	}

	stageDir, err := r.Stage(fx)
	if err != nil {
		return err
	}
	defer r.Cleanup(stageDir)

	bin, err := r.Build(cmd.Context(), stageDir, runRace || c.Race)
	if err != nil {
		return err
	}

	out, err := r.Exec(cmd.Context(), bin, c.Args, c.TimeoutOr(r.Timeout))
	if err != nil {
		return err
	}

	fmt.Print(renderOutcome(fx.Name, c, out))
	return nil
}

// renderOutcome formats one raw execution result.
func renderOutcome(fixture string, c *corpus.Case, out *runner.Outcome) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Fixture: %s\n", fixture)
	fmt.Fprintf(&sb, "Case:    %s\n", c.Name)

	status := fmt.Sprintf("exit %d", out.ExitCode)
	if out.TimedOut {
		status = "timed out"
	}
	fmt.Fprintf(&sb, "Status:  %s (%s)\n", status, out.Duration.Round(time.Millisecond))

	if out.Stdout != "" {
		sb.WriteString("--- stdout ---\n")
		sb.WriteString(out.Stdout)
		if !strings.HasSuffix(out.Stdout, "\n") {
			sb.WriteString("\n")
		}
	}
	if out.Stderr != "" {
		sb.WriteString("--- stderr ---\n")
		sb.WriteString(out.Stderr)
		if !strings.HasSuffix(out.Stderr, "\n") {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
