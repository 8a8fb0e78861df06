// Package verify executes corpus fixtures and judges the observed runtime
// behavior of each against its declared contract. It is the heart of the
// harness: a fixture passes when its defects misbehave exactly as declared
// and fails when they stay hidden or surface differently.
package verify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/odavlstudio/odavl/internal/corpus"
	"github.com/odavlstudio/odavl/internal/runner"
)

// DefaultParallel bounds concurrent fixture verification when the caller
// does not choose a limit.
const DefaultParallel = 4

// Verifier runs fixtures and scores their outcomes.
type Verifier struct {
	// Runner stages, builds and executes fixtures.
	Runner *runner.Runner
	// Race enables race-instrumented builds. Race cases are skipped
	// without it.
	Race bool
	// Parallel bounds how many fixtures verify concurrently.
	Parallel int

	log *zap.Logger
}

// New returns a Verifier using r, logging through log (nop when nil).
func New(r *runner.Runner, log *zap.Logger) *Verifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Verifier{
		Runner:   r,
		Parallel: DefaultParallel,
		log:      log,
	}
}

// Verify runs every fixture and assembles the run report. Report order
// follows the input order; the corpus loader sorts fixtures by name.
func (v *Verifier) Verify(ctx context.Context, corpusDir string, fixtures []*corpus.Fixture) *RunReport {
	report := &RunReport{
		Corpus:   corpusDir,
		Race:     v.Race,
		Started:  time.Now(),
		Fixtures: make([]FixtureResult, len(fixtures)),
	}

	limit := v.Parallel
	if limit < 1 {
		limit = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, fx := range fixtures {
		g.Go(func() error {
			report.Fixtures[i] = v.verifyFixture(gctx, fx)
			return nil
		})
	}
	// Workers report through the slice, never through errors.
	_ = g.Wait()

	for i := range report.Fixtures {
		for j := range report.Fixtures[i].Cases {
			switch report.Fixtures[i].Cases[j].Status {
			case StatusPassed:
				report.Passed++
			case StatusFailed:
				report.Failed++
			case StatusSkipped:
				report.Skipped++
			case StatusError:
				report.Errored++
			}
		}
	}
	report.Duration = time.Since(report.Started)

	v.log.Info("verification finished",
		zap.String("corpus", corpusDir),
		zap.Int("fixtures", len(fixtures)),
		zap.Int("passed", report.Passed),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped),
		zap.Int("errored", report.Errored),
		zap.Duration("took", report.Duration))
	return report
}

// verifyFixture stages and builds one fixture, then runs and checks each
// of its cases. Binaries are built at most once per instrumentation mode
// and shared across cases.
func (v *Verifier) verifyFixture(ctx context.Context, fx *corpus.Fixture) FixtureResult {
	fr := FixtureResult{
		Fixture: fx.Name,
		Defects: fx.DefectKinds(),
		Risks:   OverflowRisks(fx.Manifest),
	}

	// A latent overflow in the declared values is a defect in its own
	// right: it must be declared even when no case makes it observable.
	if len(fr.Risks) > 0 && !fx.HasDefect(corpus.DefectIntegerOverflow) {
		fr.Problems = append(fr.Problems,
			fmt.Sprintf("%d integer-overflow risk(s) in declared values but no integer-overflow defect declared", len(fr.Risks)))
	}

	v.log.Debug("verifying fixture", zap.String("fixture", fx.Name))

	stage, err := v.Runner.Stage(fx)
	if err != nil {
		fr.Cases = errorCases(fx, "stage failed: "+err.Error())
		return fr
	}
	defer v.Runner.Cleanup(stage)

	// Each instrumentation mode is built once and shared; a failed build
	// errors every case that needed it without retrying.
	type buildSlot struct {
		bin  string
		err  error
		done bool
	}
	var builds [2]buildSlot // [0] plain, [1] race-instrumented

	for i := range fx.Manifest.Cases {
		c := &fx.Manifest.Cases[i]
		cr := CaseResult{Name: c.Name}

		if c.Race && !v.Race {
			cr.Status = StatusSkipped
			cr.Detail = "requires race mode"
			fr.Cases = append(fr.Cases, cr)
			continue
		}

		slot := &builds[0]
		if c.Race {
			slot = &builds[1]
		}
		if !slot.done {
			slot.bin, slot.err = v.Runner.Build(ctx, stage, c.Race)
			slot.done = true
		}
		if slot.err != nil {
			cr.Status = StatusError
			cr.Detail = slot.err.Error()
			fr.Cases = append(fr.Cases, cr)
			continue
		}

		out, err := v.Runner.Exec(ctx, slot.bin, c.Args, c.TimeoutOr(0))
		if err != nil {
			cr.Status = StatusError
			cr.Detail = err.Error()
			fr.Cases = append(fr.Cases, cr)
			continue
		}

		cr.ExitCode = out.ExitCode
		cr.Duration = out.Duration
		cr.Problems = checkCase(fx.Manifest, c, out)
		if len(cr.Problems) == 0 {
			cr.Status = StatusPassed
		} else {
			cr.Status = StatusFailed
			v.log.Warn("case failed",
				zap.String("fixture", fx.Name),
				zap.String("case", c.Name),
				zap.Strings("problems", cr.Problems))
		}
		fr.Cases = append(fr.Cases, cr)
	}

	return fr
}

// errorCases marks every case of a fixture as errored with the same
// detail, used when the fixture never reached execution.
func errorCases(fx *corpus.Fixture, detail string) []CaseResult {
	cases := make([]CaseResult, len(fx.Manifest.Cases))
	for i, c := range fx.Manifest.Cases {
		cases[i] = CaseResult{Name: c.Name, Status: StatusError, Detail: detail}
	}
	return cases
}
