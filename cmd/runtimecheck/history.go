package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/odavlstudio/odavl/internal/history"
)

var (
	historyLimit  int
	historyOutput string

	historyCmd = &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show archived verification runs",
		Long: `History lists archived runs from the history database, newest first.
With a run ID it prints that run's per-case results instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistory,
	}
)

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", history.DefaultLimit, "Maximum number of runs to list")
	historyCmd.Flags().StringVarP(&historyOutput, "output", "o", "text", "Output format: text, json")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := history.Open(cfg.History.Path, logger)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	if len(args) == 1 {
		cases, err := store.Cases(args[0])
		if err != nil {
			return fmt.Errorf("failed to load run cases: %w", err)
		}
		switch historyOutput {
		case "json":
			return printJSON(cases)
		case "text":
			fmt.Print(renderCasesText(args[0], cases))
			return nil
		default:
			return fmt.Errorf("unsupported output format: %s (supported: text, json)", historyOutput)
		}
	}

	runs, err := store.ListRuns(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	switch historyOutput {
	case "json":
		return printJSON(runs)
	case "text":
		fmt.Print(renderRunsText(runs))
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s (supported: text, json)", historyOutput)
	}
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// renderRunsText formats archived runs, newest first.
func renderRunsText(runs []history.Run) string {
	if len(runs) == 0 {
		return "No archived runs.\n"
	}

	var sb strings.Builder
	sb.WriteString("Archived Runs:\n")
	sb.WriteString("--------------\n")
	for _, r := range runs {
		mark := "✓"
		if !r.Pass {
			mark = "✗"
		}
		race := ""
		if r.Race {
			race = "  [race]"
		}
		fmt.Fprintf(&sb, "\n%s %s  %s%s\n", mark, r.ID, r.Started.Format(time.RFC3339), race)
		fmt.Fprintf(&sb, "    %s: %d fixture(s), %d case(s), %d passed, %d failed, %d skipped, %d errored (%s)\n",
			r.Corpus, r.Fixtures, r.Cases, r.Passed, r.Failed, r.Skipped, r.Errored,
			r.Duration.Round(time.Millisecond))
	}
	return sb.String()
}

// renderCasesText formats the per-case results of one archived run.
func renderCasesText(runID string, cases []history.CaseRow) string {
	if len(cases) == 0 {
		return fmt.Sprintf("No cases recorded for run %s.\n", runID)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Run %s:\n\n", runID)
	for _, c := range cases {
		fmt.Fprintf(&sb, "%s %s/%s  %s  exit %d  (%s)\n",
			statusMark(c.Status), c.Fixture, c.Case, c.Status, c.ExitCode,
			c.Duration.Round(time.Millisecond))
		for _, p := range c.Problems {
			fmt.Fprintf(&sb, "    %s\n", firstLine(p))
		}
		if c.Detail != "" {
			fmt.Fprintf(&sb, "    %s\n", firstLine(c.Detail))
		}
	}
	return sb.String()
}
