package verify

import (
	"time"

	"github.com/odavlstudio/odavl/internal/corpus"
)

// Status classifies the outcome of verifying a single case.
type Status string

const (
	// StatusPassed means the observed behavior matched the declared contract.
	StatusPassed Status = "passed"
	// StatusFailed means the fixture ran but violated its contract.
	StatusFailed Status = "failed"
	// StatusSkipped means the case was not executed, e.g. a race case
	// without race mode.
	StatusSkipped Status = "skipped"
	// StatusError means the harness could not produce an observation, e.g.
	// the fixture failed to stage or build.
	StatusError Status = "error"
)

// CaseResult contains the verification result for a single case.
type CaseResult struct {
	Name   string
	Status Status
	// ExitCode is the observed exit code; meaningful only when the case
	// actually executed.
	ExitCode int
	// Duration is the execution time of the fixture binary.
	Duration time.Duration
	// Problems lists every contract violation observed.
	Problems []string
	// Detail carries harness diagnostics such as build tool output or the
	// reason a case was skipped.
	Detail string
}

// FixtureResult contains the verification results for one fixture.
type FixtureResult struct {
	Fixture string
	// Defects are the defect kinds the fixture declares.
	Defects []corpus.DefectKind
	// Risks lists the declared scale computations that overflow int32.
	Risks []Risk
	// Problems lists fixture-level contract violations, such as an
	// overflow risk the manifest does not declare.
	Problems []string
	// Cases holds per-case results in manifest order.
	Cases []CaseResult
}

// Status reduces the fixture to a single status: error dominates, then
// failed, then skipped when nothing ran at all.
func (fr *FixtureResult) Status() Status {
	status := StatusSkipped
	for i := range fr.Cases {
		switch fr.Cases[i].Status {
		case StatusError:
			return StatusError
		case StatusFailed:
			status = StatusFailed
		case StatusPassed:
			if status == StatusSkipped {
				status = StatusPassed
			}
		}
	}
	if status != StatusFailed && len(fr.Problems) > 0 {
		return StatusFailed
	}
	return status
}

// RunReport contains the results of verifying a corpus.
type RunReport struct {
	// Corpus is the corpus directory that was verified.
	Corpus string
	// Race records whether race mode was enabled for the run.
	Race bool
	// Started is when the run began.
	Started time.Time
	// Duration is the wall-clock time of the whole run.
	Duration time.Duration
	// Passed, Failed, Skipped and Errored count cases across all fixtures.
	Passed  int
	Failed  int
	Skipped int
	Errored int
	// Fixtures holds per-fixture results sorted by fixture name.
	Fixtures []FixtureResult
}

// Pass reports whether the run can gate a pipeline: no case failed or
// errored, and no fixture-level problems surfaced.
func (r *RunReport) Pass() bool {
	if r.Failed > 0 || r.Errored > 0 {
		return false
	}
	for i := range r.Fixtures {
		if len(r.Fixtures[i].Problems) > 0 {
			return false
		}
	}
	return true
}

// Cases returns the total number of cases in the report.
func (r *RunReport) Cases() int {
	return r.Passed + r.Failed + r.Skipped + r.Errored
}
