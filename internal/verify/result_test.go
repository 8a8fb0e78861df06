package verify

import "testing"

func TestFixtureResultStatus(t *testing.T) {
	tests := []struct {
		name     string
		cases    []CaseResult
		problems []string
		want     Status
	}{
		{
			name:  "all passed",
			cases: []CaseResult{{Status: StatusPassed}, {Status: StatusPassed}},
			want:  StatusPassed,
		},
		{
			name:  "one failure dominates passes",
			cases: []CaseResult{{Status: StatusPassed}, {Status: StatusFailed}},
			want:  StatusFailed,
		},
		{
			name:  "error dominates failure",
			cases: []CaseResult{{Status: StatusFailed}, {Status: StatusError}},
			want:  StatusError,
		},
		{
			name:  "all skipped",
			cases: []CaseResult{{Status: StatusSkipped}},
			want:  StatusSkipped,
		},
		{
			name:  "passed with skips",
			cases: []CaseResult{{Status: StatusPassed}, {Status: StatusSkipped}},
			want:  StatusPassed,
		},
		{
			name:     "fixture problem fails passing cases",
			cases:    []CaseResult{{Status: StatusPassed}},
			problems: []string{"1 integer-overflow risk(s) in declared values"},
			want:     StatusFailed,
		},
		{
			name: "no cases",
			want: StatusSkipped,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fr := &FixtureResult{Cases: tt.cases, Problems: tt.problems}
			if got := fr.Status(); got != tt.want {
				t.Errorf("Status() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRunReportPass(t *testing.T) {
	tests := []struct {
		name   string
		report RunReport
		want   bool
	}{
		{
			name:   "all passed",
			report: RunReport{Passed: 5},
			want:   true,
		},
		{
			name:   "skips do not gate",
			report: RunReport{Passed: 4, Skipped: 1},
			want:   true,
		},
		{
			name:   "failure gates",
			report: RunReport{Passed: 4, Failed: 1},
			want:   false,
		},
		{
			name:   "error gates",
			report: RunReport{Passed: 4, Errored: 1},
			want:   false,
		},
		{
			name: "fixture problem gates",
			report: RunReport{
				Passed:   3,
				Fixtures: []FixtureResult{{Fixture: "x", Problems: []string{"undeclared risk"}}},
			},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.report.Pass(); got != tt.want {
				t.Errorf("Pass() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRunReportCases(t *testing.T) {
	r := RunReport{Passed: 3, Failed: 1, Skipped: 2, Errored: 1}
	if got := r.Cases(); got != 7 {
		t.Errorf("Cases() = %d, want 7", got)
	}
}
