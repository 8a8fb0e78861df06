package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/odavlstudio/odavl/internal/corpus"
	"github.com/odavlstudio/odavl/internal/history"
	"github.com/odavlstudio/odavl/internal/verify"
	"github.com/odavlstudio/odavl/internal/watch"
	"github.com/odavlstudio/odavl/pkg/report"
)

var (
	verifyCorpus   string
	verifyOutput   string
	verifyRace     bool
	verifyParallel int
	verifyRecord   bool
	verifyWatch    bool

	verifyCmd = &cobra.Command{
		Use:   "verify [fixture...]",
		Short: "Verify that every fixture misbehaves exactly as declared",
		Long: `Verify builds and executes the corpus and checks each case against its
manifest contract: exit status, stdout, panic messages and race reports.
With no arguments the whole corpus is verified; fixture names restrict
the run. The command exits non-zero when any contract is violated.`,
		RunE: runVerify,
	}
)

func init() {
	verifyCmd.Flags().StringVarP(&verifyCorpus, "corpus", "c", "", "Corpus directory (defaults to the configured corpus_dir)")
	verifyCmd.Flags().StringVarP(&verifyOutput, "output", "o", "text", "Output format: text, json, markdown")
	verifyCmd.Flags().BoolVar(&verifyRace, "race", false, "Enable race mode (race cases run, instrumented builds)")
	verifyCmd.Flags().IntVar(&verifyParallel, "parallel", 0, "Fixtures verified concurrently (defaults to the configured value)")
	verifyCmd.Flags().BoolVar(&verifyRecord, "record", false, "Archive the run in the history database")
	verifyCmd.Flags().BoolVar(&verifyWatch, "watch", false, "Re-verify fixtures as their files change")

	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	dir := corpusDir(verifyCorpus)
	fixtures, err := corpus.Load(dir)
	if err != nil {
		return fmt.Errorf("failed to load corpus: %w", err)
	}
	if len(args) > 0 {
		fixtures, err = selectFixtures(fixtures, args)
		if err != nil {
			return err
		}
	}

	v := verify.New(newRunner(), logger)
	v.Race = verifyRace || cfg.Verify.Race
	v.Parallel = cfg.Verify.Parallel
	if verifyParallel > 0 {
		v.Parallel = verifyParallel
	}

	rep := v.Verify(cmd.Context(), dir, fixtures)
	if err := outputReport(rep); err != nil {
		return err
	}
	if verifyRecord {
		if err := recordRun(rep); err != nil {
			return err
		}
	}

	if verifyWatch {
		return watchLoop(cmd.Context(), dir, v)
	}

	// Exit with error so CI can gate on corpus behavior
	if !rep.Pass() {
		os.Exit(1)
	}
	return nil
}

// selectFixtures restricts the loaded corpus to the named fixtures.
func selectFixtures(fixtures []*corpus.Fixture, names []string) ([]*corpus.Fixture, error) {
	byName := make(map[string]*corpus.Fixture, len(fixtures))
	for _, fx := range fixtures {
		byName[fx.Name] = fx
	}

	selected := make([]*corpus.Fixture, 0, len(names))
	for _, name := range names {
		fx, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("no such fixture: %s", name)
		}
		selected = append(selected, fx)
	}
	return selected, nil
}

// watchLoop re-verifies fixtures whenever their files change. It returns
// when interrupted.
func watchLoop(parent context.Context, dir string, v *verify.Verifier) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := watch.New(dir, logger)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	fmt.Fprintln(os.Stderr, "watching for fixture changes (interrupt to stop)")
	for batch := range w.Changes() {
		changed := make([]*corpus.Fixture, 0, len(batch))
		for _, name := range batch {
			fx, err := corpus.LoadFixture(filepath.Join(dir, name))
			if err != nil {
				// Deleted or half-edited fixtures surface here; skip
				// them and wait for the next settled batch.
				logger.Warn("skipping changed fixture",
					zap.String("fixture", name),
					zap.Error(err))
				continue
			}
			changed = append(changed, fx)
		}
		if len(changed) == 0 {
			continue
		}

		rep := v.Verify(ctx, dir, changed)
		if err := outputReport(rep); err != nil {
			return err
		}
		if verifyRecord {
			if err := recordRun(rep); err != nil {
				return err
			}
		}
	}
	return nil
}

func recordRun(rep *verify.RunReport) error {
	store, err := history.Open(cfg.History.Path, logger)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	id, err := store.RecordRun(rep)
	if err != nil {
		return fmt.Errorf("failed to archive run: %w", err)
	}
	fmt.Fprintf(os.Stderr, "archived run %s\n", id)
	return nil
}

func outputReport(rep *verify.RunReport) error {
	switch verifyOutput {
	case "json":
		data, err := report.ToJSON(rep)
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(data))
	case "markdown":
		fmt.Print(report.ToMarkdown(rep))
	case "text":
		fmt.Print(renderVerifyText(rep))
	default:
		return fmt.Errorf("unsupported output format: %s (supported: text, json, markdown)", verifyOutput)
	}
	return nil
}

// renderVerifyText formats a run report in the default console style.
func renderVerifyText(rep *verify.RunReport) string {
	var sb strings.Builder

	sb.WriteString("Runtime Corpus Verification\n")
	sb.WriteString("===========================\n")
	sb.WriteString("\n")

	if len(rep.Fixtures) == 0 {
		sb.WriteString("No fixtures to verify.\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "Corpus: %s\n", rep.Corpus)
	race := "off"
	if rep.Race {
		race = "on"
	}
	fmt.Fprintf(&sb, "Race mode: %s\n", race)
	fmt.Fprintf(&sb, "Cases: %d (%d passed, %d failed, %d skipped, %d errored)\n",
		rep.Cases(), rep.Passed, rep.Failed, rep.Skipped, rep.Errored)
	fmt.Fprintf(&sb, "Duration: %s\n", rep.Duration.Round(time.Millisecond))
	sb.WriteString("\n")

	sb.WriteString("Fixture Results:\n")
	sb.WriteString("----------------\n")
	for i := range rep.Fixtures {
		fr := &rep.Fixtures[i]
		fmt.Fprintf(&sb, "\n%s %s\n", statusMark(fr.Status()), fr.Fixture)
		for _, p := range fr.Problems {
			fmt.Fprintf(&sb, "  ! %s\n", firstLine(p))
		}
		for j := range fr.Cases {
			cr := &fr.Cases[j]
			switch cr.Status {
			case verify.StatusSkipped:
				detail := cr.Detail
				if detail == "" {
					detail = "skipped"
				}
				fmt.Fprintf(&sb, "  - %s (%s)\n", cr.Name, detail)
			case verify.StatusError:
				fmt.Fprintf(&sb, "  ✗ %s (error)\n", cr.Name)
				if cr.Detail != "" {
					fmt.Fprintf(&sb, "      %s\n", firstLine(cr.Detail))
				}
			default:
				fmt.Fprintf(&sb, "  %s %s (%s)\n", statusMark(cr.Status), cr.Name, cr.Duration.Round(time.Millisecond))
				for _, p := range cr.Problems {
					fmt.Fprintf(&sb, "      %s\n", firstLine(p))
				}
			}
		}
	}

	sb.WriteString("\n")
	if rep.Pass() {
		sb.WriteString("✓ Corpus behaves as declared\n")
	} else {
		sb.WriteString("✗ Corpus deviates from its declared behavior\n")
	}
	return sb.String()
}

// statusMark maps a status to its console marker.
func statusMark(s verify.Status) string {
	switch s {
	case verify.StatusPassed:
		return "✓"
	case verify.StatusSkipped:
		return "-"
	default:
		return "✗"
	}
}
