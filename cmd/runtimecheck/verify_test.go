package main

import (
	"strings"
	"testing"
	"time"

	"github.com/odavlstudio/odavl/internal/corpus"
	"github.com/odavlstudio/odavl/internal/verify"
)

func sampleRunReport() *verify.RunReport {
	return &verify.RunReport{
		Corpus:   "testdata/corpus",
		Started:  time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC),
		Duration: 2340 * time.Millisecond,
		Passed:   2,
		Failed:   1,
		Skipped:  1,
		Fixtures: []verify.FixtureResult{
			{
				Fixture: "sample",
				Defects: []corpus.DefectKind{corpus.DefectOutOfBounds},
				Cases: []verify.CaseResult{
					{Name: "strict", Status: verify.StatusPassed, ExitCode: 2, Duration: 120 * time.Millisecond},
					{Name: "helper", Status: verify.StatusPassed, ExitCode: 2, Duration: 80 * time.Millisecond},
				},
			},
			{
				Fixture: "overflow-mul",
				Cases: []verify.CaseResult{
					{
						Name:     "derive",
						Status:   verify.StatusFailed,
						Problems: []string{"stdout mismatch (-want +got):\n  -Result: 1\n  +Result: 2"},
					},
					{Name: "racy", Status: verify.StatusSkipped, Detail: "requires race mode"},
				},
			},
		},
	}
}

func TestRenderVerifyText(t *testing.T) {
	out := renderVerifyText(sampleRunReport())

	for _, want := range []string{
		"Runtime Corpus Verification",
		"Corpus: testdata/corpus",
		"Race mode: off",
		"Cases: 4 (2 passed, 1 failed, 1 skipped, 0 errored)",
		"✓ sample",
		"✗ overflow-mul",
		"stdout mismatch (-want +got):",
		"- racy (requires race mode)",
		"✗ Corpus deviates from its declared behavior",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("renderVerifyText() missing %q in:\n%s", want, out)
		}
	}

	// Multi-line problems collapse to their first line
	if strings.Contains(out, "-Result: 1") {
		t.Errorf("renderVerifyText() leaked diff body into console output:\n%s", out)
	}
}

func TestRenderVerifyTextPassingRun(t *testing.T) {
	rep := &verify.RunReport{
		Corpus: "testdata/corpus",
		Passed: 1,
		Fixtures: []verify.FixtureResult{
			{
				Fixture: "sample",
				Cases:   []verify.CaseResult{{Name: "strict", Status: verify.StatusPassed}},
			},
		},
	}

	out := renderVerifyText(rep)
	if !strings.Contains(out, "✓ Corpus behaves as declared") {
		t.Errorf("renderVerifyText() missing pass verdict:\n%s", out)
	}
}

func TestRenderVerifyTextFixtureProblem(t *testing.T) {
	rep := &verify.RunReport{
		Corpus: "testdata/corpus",
		Passed: 1,
		Fixtures: []verify.FixtureResult{
			{
				Fixture:  "quiet-overflow",
				Problems: []string{"2 integer-overflow risk(s) in declared values but no integer-overflow defect declared"},
				Cases:    []verify.CaseResult{{Name: "default", Status: verify.StatusPassed}},
			},
		},
	}

	out := renderVerifyText(rep)
	if !strings.Contains(out, "✗ quiet-overflow") {
		t.Errorf("renderVerifyText() fixture with problems should fail:\n%s", out)
	}
	if !strings.Contains(out, "! 2 integer-overflow risk(s)") {
		t.Errorf("renderVerifyText() missing fixture problem line:\n%s", out)
	}
	if !strings.Contains(out, "✗ Corpus deviates from its declared behavior") {
		t.Errorf("renderVerifyText() missing fail verdict:\n%s", out)
	}
}

func TestRenderVerifyTextBuildError(t *testing.T) {
	rep := &verify.RunReport{
		Corpus:  "testdata/corpus",
		Errored: 1,
		Fixtures: []verify.FixtureResult{
			{
				Fixture: "broken",
				Cases: []verify.CaseResult{
					{Name: "default", Status: verify.StatusError, Detail: "go build failed: exit status 1\nmain.go:5: syntax error"},
				},
			},
		},
	}

	out := renderVerifyText(rep)
	if !strings.Contains(out, "✗ default (error)") {
		t.Errorf("renderVerifyText() missing error case line:\n%s", out)
	}
	if !strings.Contains(out, "go build failed: exit status 1") {
		t.Errorf("renderVerifyText() missing error detail:\n%s", out)
	}
	if strings.Contains(out, "syntax error") {
		t.Errorf("renderVerifyText() should collapse error detail to one line:\n%s", out)
	}
}

func TestRenderVerifyTextEmpty(t *testing.T) {
	out := renderVerifyText(&verify.RunReport{Corpus: "testdata/corpus"})
	if !strings.Contains(out, "No fixtures to verify.") {
		t.Errorf("renderVerifyText() missing empty-corpus notice:\n%s", out)
	}
}

func TestSelectFixtures(t *testing.T) {
	fixtures := []*corpus.Fixture{
		{Name: "alpha"},
		{Name: "beta"},
		{Name: "gamma"},
	}

	got, err := selectFixtures(fixtures, []string{"gamma", "alpha"})
	if err != nil {
		t.Fatalf("selectFixtures() error = %v", err)
	}
	if len(got) != 2 || got[0].Name != "gamma" || got[1].Name != "alpha" {
		t.Errorf("selectFixtures() = %v, want [gamma alpha]", got)
	}

	if _, err := selectFixtures(fixtures, []string{"delta"}); err == nil {
		t.Error("selectFixtures() with unknown name expected error")
	}
}

func TestStatusMark(t *testing.T) {
	tests := []struct {
		status verify.Status
		want   string
	}{
		{verify.StatusPassed, "✓"},
		{verify.StatusFailed, "✗"},
		{verify.StatusError, "✗"},
		{verify.StatusSkipped, "-"},
	}

	for _, tt := range tests {
		if got := statusMark(tt.status); got != tt.want {
			t.Errorf("statusMark(%s) = %q, want %q", tt.status, got, tt.want)
		}
	}
}
