package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/odavlstudio/odavl/internal/verify"
)

// RunView represents the JSON output structure for verify runs
type RunView struct {
	Corpus     string        `json:"corpus"`
	Race       bool          `json:"race"`
	Started    time.Time     `json:"started"`
	DurationMS int64         `json:"duration_ms"`
	Pass       bool          `json:"pass"`
	Totals     TotalsView    `json:"totals"`
	Fixtures   []FixtureView `json:"fixtures"`
}

// TotalsView aggregates case counts across the run
type TotalsView struct {
	Cases   int `json:"cases"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
	Errored int `json:"errored"`
}

// FixtureView represents fixture-level results
type FixtureView struct {
	Fixture  string     `json:"fixture"`
	Status   string     `json:"status"`
	Defects  []string   `json:"defects,omitempty"`
	Risks    []string   `json:"overflow_risks,omitempty"`
	Problems []string   `json:"problems,omitempty"`
	Cases    []CaseView `json:"cases"`
}

// CaseView represents a single case result
type CaseView struct {
	Name       string   `json:"name"`
	Status     string   `json:"status"`
	ExitCode   int      `json:"exit_code"`
	DurationMS int64    `json:"duration_ms"`
	Problems   []string `json:"problems,omitempty"`
	Detail     string   `json:"detail,omitempty"`
}

// ToJSON converts a RunReport to JSON format
func ToJSON(rep *verify.RunReport) ([]byte, error) {
	view := &RunView{
		Corpus:     rep.Corpus,
		Race:       rep.Race,
		Started:    rep.Started,
		DurationMS: rep.Duration.Milliseconds(),
		Pass:       rep.Pass(),
		Totals: TotalsView{
			Cases:   rep.Cases(),
			Passed:  rep.Passed,
			Failed:  rep.Failed,
			Skipped: rep.Skipped,
			Errored: rep.Errored,
		},
		Fixtures: make([]FixtureView, 0, len(rep.Fixtures)),
	}

	for i := range rep.Fixtures {
		fr := &rep.Fixtures[i]
		fv := FixtureView{
			Fixture:  fr.Fixture,
			Status:   string(fr.Status()),
			Problems: fr.Problems,
			Cases:    make([]CaseView, 0, len(fr.Cases)),
		}
		for _, kind := range fr.Defects {
			fv.Defects = append(fv.Defects, string(kind))
		}
		for _, risk := range fr.Risks {
			fv.Risks = append(fv.Risks, risk.String())
		}
		for _, cr := range fr.Cases {
			fv.Cases = append(fv.Cases, CaseView{
				Name:       cr.Name,
				Status:     string(cr.Status),
				ExitCode:   cr.ExitCode,
				DurationMS: cr.Duration.Milliseconds(),
				Problems:   cr.Problems,
				Detail:     cr.Detail,
			})
		}
		view.Fixtures = append(view.Fixtures, fv)
	}

	return json.MarshalIndent(view, "", "  ")
}

// ToMarkdown converts a RunReport to Markdown format
func ToMarkdown(rep *verify.RunReport) string {
	var sb strings.Builder

	sb.WriteString("# Runtime Verification Report\n\n")

	// Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString(fmt.Sprintf("- **Corpus**: `%s`\n", rep.Corpus))
	sb.WriteString(fmt.Sprintf("- **Fixtures**: %d\n", len(rep.Fixtures)))
	sb.WriteString(fmt.Sprintf("- **Cases**: %d\n", rep.Cases()))
	sb.WriteString(fmt.Sprintf("- **Passed**: %d | **Failed**: %d | **Skipped**: %d | **Errored**: %d\n",
		rep.Passed, rep.Failed, rep.Skipped, rep.Errored))
	raceMode := "off"
	if rep.Race {
		raceMode = "on"
	}
	sb.WriteString(fmt.Sprintf("- **Race Mode**: %s\n", raceMode))
	sb.WriteString(fmt.Sprintf("- **Duration**: %s\n", rep.Duration.Round(time.Millisecond)))

	status := "❌ FAIL"
	if rep.Pass() {
		status = "✅ PASS"
	}
	sb.WriteString(fmt.Sprintf("- **Status**: %s\n\n", status))

	// Per-fixture results
	if len(rep.Fixtures) > 0 {
		sb.WriteString("## Fixture Details\n\n")
		sb.WriteString("| Fixture | Status | Cases | Defects |\n")
		sb.WriteString("|---------|--------|-------|--------|\n")

		for i := range rep.Fixtures {
			fr := &rep.Fixtures[i]

			passed := 0
			for _, cr := range fr.Cases {
				if cr.Status == verify.StatusPassed {
					passed++
				}
			}

			defects := make([]string, 0, len(fr.Defects))
			for _, kind := range fr.Defects {
				defects = append(defects, string(kind))
			}

			sb.WriteString(fmt.Sprintf("| `%s` | %s | %d/%d | %s |\n",
				fr.Fixture, statusBadge(fr.Status()), passed, len(fr.Cases),
				strings.Join(defects, ", ")))

			// Add problems if any
			for _, p := range fr.Problems {
				sb.WriteString(fmt.Sprintf("  - %s\n", p))
			}
			for _, cr := range fr.Cases {
				for _, p := range cr.Problems {
					sb.WriteString(fmt.Sprintf("  - %s: %s\n", cr.Name, firstLine(p)))
				}
				if cr.Status == verify.StatusError && cr.Detail != "" {
					sb.WriteString(fmt.Sprintf("  - %s: %s\n", cr.Name, firstLine(cr.Detail)))
				}
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// statusBadge renders a per-fixture status cell.
func statusBadge(s verify.Status) string {
	switch s {
	case verify.StatusPassed:
		return "✅ passed"
	case verify.StatusFailed:
		return "❌ failed"
	case verify.StatusError:
		return "❌ error"
	default:
		return "skipped"
	}
}

// firstLine trims a possibly multi-line message to its first line, so
// table annotations stay single-line.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
