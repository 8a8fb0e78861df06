// Package doctor probes the environment a verification run depends on:
// the Go toolchain, race detector support, the corpus directory and the
// history database.
package doctor

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/odavlstudio/odavl/internal/config"
	"github.com/odavlstudio/odavl/internal/corpus"
	"github.com/odavlstudio/odavl/internal/history"
)

// Status classifies a single check result.
type Status string

const (
	StatusOK      Status = "ok"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

// Check is one probe of the harness environment.
type Check struct {
	Name   string `json:"name"`
	Status Status `json:"status"`
	Detail string `json:"detail"`
}

// Report collects every check result.
type Report struct {
	Checks   []Check `json:"checks"`
	Warnings int     `json:"warnings"`
	Errors   int     `json:"errors"`
}

// Healthy reports whether no check errored. Warnings do not gate.
func (r *Report) Healthy() bool {
	return r.Errors == 0
}

func (r *Report) add(c Check) {
	switch c.Status {
	case StatusWarning:
		r.Warnings++
	case StatusError:
		r.Errors++
	}
	r.Checks = append(r.Checks, c)
}

// Diagnose probes the environment described by cfg.
func Diagnose(ctx context.Context, cfg *config.Config, log *zap.Logger) *Report {
	if log == nil {
		log = zap.NewNop()
	}

	rep := &Report{}
	rep.add(checkGoBinary(ctx, cfg.GoBinary))
	rep.add(checkRaceSupport(ctx, cfg.GoBinary))
	rep.add(checkCorpus(cfg.CorpusDir))
	rep.add(checkTimeout(cfg))
	rep.add(checkHistory(cfg.History.Path, log))

	log.Info("diagnosis finished",
		zap.Int("checks", len(rep.Checks)),
		zap.Int("warnings", rep.Warnings),
		zap.Int("errors", rep.Errors))
	return rep
}

func checkGoBinary(ctx context.Context, goBinary string) Check {
	c := Check{Name: "go-toolchain"}

	path, err := exec.LookPath(goBinary)
	if err != nil {
		c.Status = StatusError
		c.Detail = fmt.Sprintf("%s not found on PATH", goBinary)
		return c
	}

	out, err := exec.CommandContext(ctx, goBinary, "version").Output()
	if err != nil {
		c.Status = StatusError
		c.Detail = fmt.Sprintf("%s version failed: %v", goBinary, err)
		return c
	}

	c.Status = StatusOK
	c.Detail = fmt.Sprintf("%s (%s)", strings.TrimSpace(string(out)), path)
	return c
}

func checkRaceSupport(ctx context.Context, goBinary string) Check {
	c := Check{Name: "race-support"}

	out, err := exec.CommandContext(ctx, goBinary, "env", "CGO_ENABLED").Output()
	if err != nil {
		c.Status = StatusWarning
		c.Detail = fmt.Sprintf("could not query CGO_ENABLED: %v", err)
		return c
	}

	if strings.TrimSpace(string(out)) != "1" {
		c.Status = StatusWarning
		c.Detail = "cgo is off; race cases need a C toolchain"
		return c
	}

	c.Status = StatusOK
	c.Detail = "cgo enabled, race builds available"
	return c
}

func checkCorpus(dir string) Check {
	c := Check{Name: "corpus"}

	fixtures, err := corpus.Load(dir)
	if err != nil {
		c.Status = StatusError
		c.Detail = err.Error()
		return c
	}
	if len(fixtures) == 0 {
		c.Status = StatusWarning
		c.Detail = fmt.Sprintf("no fixtures under %s", dir)
		return c
	}

	cases := 0
	race := 0
	for _, fx := range fixtures {
		cases += len(fx.Manifest.Cases)
		if fx.NeedsRace() {
			race++
		}
	}

	c.Status = StatusOK
	c.Detail = fmt.Sprintf("%d fixture(s), %d case(s), %d need race mode", len(fixtures), cases, race)
	return c
}

func checkTimeout(cfg *config.Config) Check {
	c := Check{Name: "default-timeout"}

	if _, err := time.ParseDuration(cfg.DefaultTimeout); err != nil {
		c.Status = StatusWarning
		c.Detail = fmt.Sprintf("default_timeout %q does not parse, falling back to %s", cfg.DefaultTimeout, cfg.Timeout())
		return c
	}

	c.Status = StatusOK
	c.Detail = cfg.Timeout().String()
	return c
}

func checkHistory(path string, log *zap.Logger) Check {
	c := Check{Name: "history-database"}

	store, err := history.Open(path, log)
	if err != nil {
		c.Status = StatusError
		c.Detail = err.Error()
		return c
	}
	defer store.Close()

	runs, err := store.ListRuns(1)
	if err != nil {
		c.Status = StatusError
		c.Detail = fmt.Sprintf("opened but unreadable: %v", err)
		return c
	}

	c.Status = StatusOK
	if len(runs) == 0 {
		c.Detail = fmt.Sprintf("%s (no archived runs yet)", path)
	} else {
		c.Detail = fmt.Sprintf("%s (latest run %s)", path, runs[0].Started.Format(time.RFC3339))
	}
	return c
}
