package report

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/odavlstudio/odavl/internal/corpus"
	"github.com/odavlstudio/odavl/internal/verify"
)

func sampleRun() *verify.RunReport {
	return &verify.RunReport{
		Corpus:   "testdata/corpus",
		Race:     false,
		Started:  time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Duration: 3210 * time.Millisecond,
		Passed:   2,
		Failed:   1,
		Skipped:  1,
		Fixtures: []verify.FixtureResult{
			{
				Fixture: "sample",
				Defects: []corpus.DefectKind{corpus.DefectOutOfBounds, corpus.DefectExplicitPanic},
				Cases: []verify.CaseResult{
					{Name: "default", Status: verify.StatusPassed, ExitCode: 2, Duration: 40 * time.Millisecond},
					{Name: "race", Status: verify.StatusSkipped, Detail: "requires race mode"},
				},
			},
			{
				Fixture: "scale-loop",
				Defects: []corpus.DefectKind{corpus.DefectIntegerOverflow},
				Risks:   []verify.Risk{{Index: 0, Value: 3000, Factor: 1000000}},
				Cases: []verify.CaseResult{
					{Name: "default", Status: verify.StatusPassed, ExitCode: 2},
					{
						Name:     "strict",
						Status:   verify.StatusFailed,
						Problems: []string{"exited 0, want abort"},
					},
				},
			},
		},
	}
}

func TestToJSON(t *testing.T) {
	jsonData, err := ToJSON(sampleRun())
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	var view RunView
	if err := json.Unmarshal(jsonData, &view); err != nil {
		t.Fatalf("ToJSON() returned invalid JSON: %v", err)
	}

	if view.Corpus != "testdata/corpus" {
		t.Errorf("corpus = %q", view.Corpus)
	}
	if view.Pass {
		t.Error("pass = true for a run with a failure")
	}
	if view.Totals.Cases != 4 || view.Totals.Passed != 2 || view.Totals.Failed != 1 {
		t.Errorf("totals = %+v", view.Totals)
	}
	if view.DurationMS != 3210 {
		t.Errorf("duration_ms = %d, want 3210", view.DurationMS)
	}
	if len(view.Fixtures) != 2 {
		t.Fatalf("fixtures = %d, want 2", len(view.Fixtures))
	}

	sample := view.Fixtures[0]
	if sample.Fixture != "sample" || sample.Status != "passed" {
		t.Errorf("sample fixture = %+v", sample)
	}
	if len(sample.Defects) != 2 || sample.Defects[0] != "out-of-bounds" {
		t.Errorf("sample defects = %v", sample.Defects)
	}

	scale := view.Fixtures[1]
	if scale.Status != "failed" {
		t.Errorf("scale-loop status = %q", scale.Status)
	}
	if len(scale.Risks) != 1 || !strings.Contains(scale.Risks[0], "3000 * 1000000") {
		t.Errorf("scale-loop risks = %v", scale.Risks)
	}
	if scale.Cases[1].Problems[0] != "exited 0, want abort" {
		t.Errorf("case problems = %v", scale.Cases[1].Problems)
	}
}

func TestToJSONEmptyRun(t *testing.T) {
	rep := &verify.RunReport{Corpus: "testdata/corpus"}
	jsonData, err := ToJSON(rep)
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	var view RunView
	if err := json.Unmarshal(jsonData, &view); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !view.Pass {
		t.Error("empty run should pass")
	}
	if view.Fixtures == nil {
		t.Error("fixtures should be an empty array, not null")
	}
}

func TestToMarkdown(t *testing.T) {
	markdown := ToMarkdown(sampleRun())

	if !strings.Contains(markdown, "# Runtime Verification Report") {
		t.Error("markdown should contain header")
	}
	if !strings.Contains(markdown, "**Status**: ❌ FAIL") {
		t.Error("markdown should contain failing status")
	}
	if !strings.Contains(markdown, "| `sample` | ✅ passed | 1/2 |") {
		t.Error("markdown should contain sample fixture row")
	}
	if !strings.Contains(markdown, "out-of-bounds, explicit-panic") {
		t.Error("markdown should list declared defects")
	}
	if !strings.Contains(markdown, "strict: exited 0, want abort") {
		t.Error("markdown should annotate the failing case")
	}
	if !strings.Contains(markdown, "**Race Mode**: off") {
		t.Error("markdown should state race mode")
	}
}

func TestToMarkdownPassingRun(t *testing.T) {
	rep := &verify.RunReport{
		Corpus: "testdata/corpus",
		Passed: 1,
		Fixtures: []verify.FixtureResult{
			{
				Fixture: "sample",
				Cases:   []verify.CaseResult{{Name: "default", Status: verify.StatusPassed}},
			},
		},
	}

	markdown := ToMarkdown(rep)
	if !strings.Contains(markdown, "**Status**: ✅ PASS") {
		t.Error("markdown should contain passing status")
	}
}

func TestToMarkdownMultilineProblemStaysOneLine(t *testing.T) {
	rep := &verify.RunReport{
		Corpus: "testdata/corpus",
		Failed: 1,
		Fixtures: []verify.FixtureResult{
			{
				Fixture: "scale-loop",
				Cases: []verify.CaseResult{
					{
						Name:     "default",
						Status:   verify.StatusFailed,
						Problems: []string{"stdout mismatch (-want +got):\n  []string{\n- \"Result: 1\"\n}"},
					},
				},
			},
		},
	}

	markdown := ToMarkdown(rep)
	if !strings.Contains(markdown, "default: stdout mismatch") {
		t.Error("markdown should annotate the failing case")
	}
	if strings.Contains(markdown, "[]string{") {
		t.Error("diff body should be trimmed from the annotation")
	}
}
