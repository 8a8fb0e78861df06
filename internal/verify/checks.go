package verify

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/odavlstudio/odavl/internal/corpus"
	"github.com/odavlstudio/odavl/internal/runner"
	"github.com/odavlstudio/odavl/pkg/checked"
)

// Risk is a declared scale computation that overflows int32.
type Risk struct {
	// Index is the position of the value in the manifest's values list.
	Index  int
	Value  int32
	Factor int32
}

func (r Risk) String() string {
	return fmt.Sprintf("values[%d]: %d * %d overflows int32", r.Index, r.Value, r.Factor)
}

// OverflowRisks reports which of the manifest's declared values overflow
// int32 when scaled by the declared factor. A fixture whose values carry a
// risk must declare an integer-overflow defect, whether or not any case
// makes the overflow observable.
func OverflowRisks(m *corpus.Manifest) []Risk {
	factor := m.Factor32()
	var risks []Risk
	for i, v := range m.Values32() {
		if _, err := checked.Mul32(v, factor); err != nil {
			risks = append(risks, Risk{Index: i, Value: v, Factor: factor})
		}
	}
	return risks
}

// derivedLines computes the stdout a scale loop over the declared values
// produces. Multiplication wraps, matching what a program doing unchecked
// int32 arithmetic actually prints.
func derivedLines(m *corpus.Manifest) []string {
	values := m.Values32()
	factor := m.Factor32()
	lines := make([]string, len(values))
	for i, v := range values {
		lines[i] = fmt.Sprintf("Result: %d", checked.WrapMul32(v, factor))
	}
	return lines
}

// checkCase evaluates a case contract against an observed outcome and
// returns every violation found. A timeout invalidates all other checks.
func checkCase(m *corpus.Manifest, c *corpus.Case, out *runner.Outcome) []string {
	if out.TimedOut {
		return []string{fmt.Sprintf("timed out after %s", out.Duration.Round(time.Millisecond))}
	}

	var problems []string
	exp := &c.Expect

	switch {
	case exp.ExitCode != nil:
		if out.ExitCode != *exp.ExitCode {
			problems = append(problems, fmt.Sprintf("exit code = %d, want %d", out.ExitCode, *exp.ExitCode))
		}
	case exp.WantSuccess():
		if !out.Success() {
			problems = append(problems, fmt.Sprintf("exited %d, want clean exit", out.ExitCode))
		}
	default:
		if !out.Aborted() {
			problems = append(problems, fmt.Sprintf("exited %d, want abort", out.ExitCode))
		}
	}

	switch {
	case exp.NoStdout:
		if out.Stdout != "" {
			problems = append(problems, fmt.Sprintf("stdout = %q, want none", out.Stdout))
		}
	case len(exp.Stdout) > 0:
		if diff := cmp.Diff(exp.Stdout, out.StdoutLines(), cmpopts.EquateEmpty()); diff != "" {
			problems = append(problems, "stdout mismatch (-want +got):\n"+diff)
		}
	case len(exp.StdoutRe) > 0:
		lines := out.StdoutLines()
		patterns := c.Patterns()
		if len(lines) != len(patterns) {
			problems = append(problems, fmt.Sprintf("stdout has %d line(s), want %d", len(lines), len(patterns)))
			break
		}
		for i, p := range patterns {
			if !p.MatchString(lines[i]) {
				problems = append(problems, fmt.Sprintf("stdout line %d = %q does not match %q", i, lines[i], p.String()))
			}
		}
	case exp.DeriveStdout:
		if diff := cmp.Diff(derivedLines(m), out.StdoutLines(), cmpopts.EquateEmpty()); diff != "" {
			problems = append(problems, "stdout mismatch (-want +got):\n"+diff)
		}
	}

	for _, want := range exp.StderrContains {
		if !strings.Contains(out.Stderr, want) {
			problems = append(problems, fmt.Sprintf("stderr missing %q", want))
		}
	}

	if exp.PanicContains != "" {
		switch {
		case !strings.Contains(out.Stderr, "panic:"):
			problems = append(problems, "no panic on stderr")
		case !strings.Contains(out.Stderr, exp.PanicContains):
			problems = append(problems, fmt.Sprintf("panic message missing %q", exp.PanicContains))
		}
	}

	for _, marker := range exp.NeverStdout {
		if strings.Contains(out.Stdout, marker) {
			problems = append(problems, fmt.Sprintf("stdout contains forbidden %q", marker))
		}
	}

	return problems
}
