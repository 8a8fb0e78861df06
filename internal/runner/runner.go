// Package runner stages, builds and executes runtime fixtures, capturing
// the observable outcome of each run. Fixture sources never join the main
// module build: each run stages them into a throwaway directory with a
// synthesized go.mod and compiles them there.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/odavlstudio/odavl/internal/corpus"
)

// DefaultTimeout bounds a case execution when neither the case nor the
// runner supplies one.
const DefaultTimeout = 10 * time.Second

// binaryName returns the staged binary name; race builds get their own so
// a fixture mixing plain and race cases keeps both.
func binaryName(race bool) string {
	if race {
		return "fixture.race.bin"
	}
	return "fixture.bin"
}

// Outcome captures what actually happened when a fixture binary ran.
type Outcome struct {
	// ExitCode is the process exit code; -1 when the process was killed by
	// a signal.
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
	// TimedOut is set when the harness killed the run at its deadline.
	TimedOut bool
}

// Success reports a clean zero exit.
func (o *Outcome) Success() bool {
	return !o.TimedOut && o.ExitCode == 0
}

// Aborted reports abnormal termination: any non-zero exit that was not a
// harness-imposed timeout.
func (o *Outcome) Aborted() bool {
	return !o.TimedOut && o.ExitCode != 0
}

// StdoutLines returns stdout split into lines, without the trailing empty
// line a final newline would produce. Empty stdout yields nil.
func (o *Outcome) StdoutLines() []string {
	if o.Stdout == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(o.Stdout, "\n"), "\n")
}

// BuildError reports a failed fixture build together with the tool output.
type BuildError struct {
	Output string
	Err    error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("go build failed: %v\n%s", e.Err, strings.TrimSpace(e.Output))
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// Runner builds and executes fixtures.
type Runner struct {
	// GoBinary is the go tool to invoke; "go" when empty.
	GoBinary string
	// Timeout is the fallback case timeout; DefaultTimeout when zero.
	Timeout time.Duration
	// Keep leaves staging directories behind for debugging.
	Keep bool

	log *zap.Logger
}

// New returns a Runner logging through log (a nop logger when nil).
func New(log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{log: log}
}

func (r *Runner) goBinary() string {
	if r.GoBinary != "" {
		return r.GoBinary
	}
	return "go"
}

func (r *Runner) fallbackTimeout() time.Duration {
	if r.Timeout > 0 {
		return r.Timeout
	}
	return DefaultTimeout
}

// Stage writes the fixture's sources into a fresh staging directory,
// synthesizing a go.mod when the fixture does not ship one. The caller
// releases the directory through Cleanup.
func (r *Runner) Stage(fx *corpus.Fixture) (string, error) {
	dir, err := os.MkdirTemp("", "odavl-"+fx.Name+"-")
	if err != nil {
		return "", fmt.Errorf("failed to create staging directory: %w", err)
	}

	for name, content := range fx.SourceFiles() {
		if err := os.WriteFile(filepath.Join(dir, name), content, 0644); err != nil {
			os.RemoveAll(dir)
			return "", fmt.Errorf("failed to stage %s: %w", name, err)
		}
	}

	if !fx.HasGoMod {
		mod := fmt.Sprintf("module odavl.test/%s\n\ngo 1.21\n", fx.Name)
		if err := os.WriteFile(filepath.Join(dir, "go.mod"), []byte(mod), 0644); err != nil {
			os.RemoveAll(dir)
			return "", fmt.Errorf("failed to write synthesized go.mod: %w", err)
		}
	}

	r.log.Debug("staged fixture",
		zap.String("fixture", fx.Name),
		zap.String("dir", dir))
	return dir, nil
}

// Cleanup removes a staging directory unless Keep is set.
func (r *Runner) Cleanup(dir string) {
	if dir == "" {
		return
	}
	if r.Keep {
		r.log.Info("keeping staging directory", zap.String("dir", dir))
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		r.log.Warn("failed to remove staging directory",
			zap.String("dir", dir),
			zap.Error(err))
	}
}

// Build compiles the staged fixture and returns the binary path. Build
// failures come back as *BuildError with the tool output attached.
func (r *Runner) Build(ctx context.Context, stageDir string, race bool) (string, error) {
	bin := filepath.Join(stageDir, binaryName(race))

	args := []string{"build"}
	if race {
		args = append(args, "-race")
	}
	args = append(args, "-o", bin, ".")

	cmd := exec.CommandContext(ctx, r.goBinary(), args...)
	cmd.Dir = stageDir
	env := os.Environ()
	if !race {
		// Fixtures are stdlib-only; building without cgo keeps the plain
		// path independent of a C toolchain. Race builds need cgo.
		env = append(env, "CGO_ENABLED=0")
	}
	cmd.Env = env

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	start := time.Now()
	if err := cmd.Run(); err != nil {
		return "", &BuildError{Output: out.String(), Err: err}
	}

	r.log.Debug("built fixture",
		zap.String("dir", stageDir),
		zap.Bool("race", race),
		zap.Duration("took", time.Since(start)))
	return bin, nil
}

// Exec runs a built fixture binary and captures its outcome. A non-zero
// exit is a valid observation, not an error; only failing to run the
// process at all is reported as one.
func (r *Runner) Exec(ctx context.Context, binPath string, args []string, timeout time.Duration) (*Outcome, error) {
	if timeout <= 0 {
		timeout = r.fallbackTimeout()
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, binPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	outcome := &Outcome{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		outcome.ExitCode = -1
		outcome.TimedOut = true
		r.log.Debug("fixture run timed out",
			zap.String("binary", binPath),
			zap.Duration("timeout", timeout))
		return outcome, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err == nil {
		outcome.ExitCode = 0
		return outcome, nil
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return nil, fmt.Errorf("failed to run fixture binary: %w", err)
	}
	outcome.ExitCode = exitErr.ExitCode()

	r.log.Debug("fixture run finished",
		zap.String("binary", binPath),
		zap.Int("exit", outcome.ExitCode),
		zap.Duration("took", outcome.Duration))
	return outcome, nil
}

// RunCase stages, builds and executes a single case of a fixture.
func (r *Runner) RunCase(ctx context.Context, fx *corpus.Fixture, c *corpus.Case) (*Outcome, error) {
	stage, err := r.Stage(fx)
	if err != nil {
		return nil, err
	}
	defer r.Cleanup(stage)

	bin, err := r.Build(ctx, stage, c.Race)
	if err != nil {
		return nil, err
	}
	return r.Exec(ctx, bin, c.Args, c.TimeoutOr(r.fallbackTimeout()))
}
