package corpus

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Exit classes a case may expect.
const (
	ExitSuccess = "success"
	ExitAbort   = "abort"
)

// Manifest is the fixture.yaml document describing one fixture.
type Manifest struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Defects     []Defect `yaml:"defects,omitempty"`
	// Values is the integer sequence the fixture operates on, when it has
	// one. Elements must fit in int32.
	Values []int64 `yaml:"values,omitempty"`
	// Factor is the multiplier the fixture applies to Values. Must fit in
	// int32 and be non-zero when set.
	Factor int64  `yaml:"factor,omitempty"`
	Cases  []Case `yaml:"cases"`
}

// Defect records one intentional defect, mirroring a BAD marker in the
// fixture sources.
type Defect struct {
	Kind DefectKind `yaml:"kind"`
	File string     `yaml:"file,omitempty"`
	Note string     `yaml:"note,omitempty"`
}

// Case is one invocation of the fixture binary together with its contract.
type Case struct {
	Name string   `yaml:"name"`
	Args []string `yaml:"args,omitempty"`
	// Race marks the case as requiring a race-instrumented build. Such
	// cases are skipped unless race mode is enabled.
	Race    bool   `yaml:"race,omitempty"`
	Timeout string `yaml:"timeout,omitempty"`
	Expect  Expect `yaml:"expect"`

	timeout  time.Duration
	patterns []*regexp.Regexp
}

// TimeoutOr returns the case timeout, or fallback when none is set.
func (c *Case) TimeoutOr(fallback time.Duration) time.Duration {
	if c.timeout > 0 {
		return c.timeout
	}
	return fallback
}

// Patterns returns the compiled stdout_re expressions. Cases built by the
// loader carry pre-validated patterns; for cases constructed directly the
// expressions are compiled on first use and must be well formed.
func (c *Case) Patterns() []*regexp.Regexp {
	if c.patterns == nil && len(c.Expect.StdoutRe) > 0 {
		c.patterns = make([]*regexp.Regexp, len(c.Expect.StdoutRe))
		for i, expr := range c.Expect.StdoutRe {
			c.patterns[i] = regexp.MustCompile(expr)
		}
	}
	return c.patterns
}

// Expect describes the observable contract of a case. Stdout expectations
// are exclusive: at most one of stdout, stdout_re, derive_stdout and
// no_stdout may be used.
type Expect struct {
	// Exit is "success" or "abort". May be omitted when ExitCode pins the
	// exact code.
	Exit string `yaml:"exit,omitempty"`
	// ExitCode pins the exact exit code when set.
	ExitCode *int `yaml:"exit_code,omitempty"`
	// NoStdout requires stdout to be empty.
	NoStdout bool `yaml:"no_stdout,omitempty"`
	// Stdout is the exact expected line sequence.
	Stdout []string `yaml:"stdout,omitempty"`
	// StdoutRe holds one regexp per expected line. Patterns are matched as
	// written; anchor them explicitly.
	StdoutRe []string `yaml:"stdout_re,omitempty"`
	// DeriveStdout derives the expected lines from values and factor using
	// wrapping int32 arithmetic, one "Result: N" line per element.
	DeriveStdout bool `yaml:"derive_stdout,omitempty"`
	// StderrContains lists substrings that must appear on stderr.
	StderrContains []string `yaml:"stderr_contains,omitempty"`
	// PanicContains is a substring of the expected panic report on stderr.
	PanicContains string `yaml:"panic_contains,omitempty"`
	// NeverStdout lists substrings that must not appear on stdout. This is
	// how dead-code print markers are pinned down: if the marker shows up,
	// supposedly unreachable code ran.
	NeverStdout []string `yaml:"never_stdout,omitempty"`
}

// WantSuccess reports whether the case expects a clean exit.
func (e *Expect) WantSuccess() bool {
	if e.ExitCode != nil {
		return *e.ExitCode == 0
	}
	return e.Exit == ExitSuccess
}

// Values32 returns the manifest values as int32 (validated at load).
func (m *Manifest) Values32() []int32 {
	out := make([]int32, len(m.Values))
	for i, v := range m.Values {
		out[i] = int32(v)
	}
	return out
}

// Factor32 returns the manifest factor as int32 (validated at load).
func (m *Manifest) Factor32() int32 {
	return int32(m.Factor)
}

// loadManifest reads, parses and validates a fixture.yaml.
func loadManifest(path, dirName string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	if err := m.validate(dirName); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	return &m, nil
}

func (m *Manifest) validate(dirName string) error {
	if m.Name == "" {
		return fmt.Errorf("name is required")
	}
	if m.Name != dirName {
		return fmt.Errorf("name %q does not match fixture directory %q", m.Name, dirName)
	}

	for i, d := range m.Defects {
		if !d.Kind.Known() {
			return fmt.Errorf("defects[%d]: unknown kind %q", i, d.Kind)
		}
	}

	for i, v := range m.Values {
		if v < math.MinInt32 || v > math.MaxInt32 {
			return fmt.Errorf("values[%d]: %d does not fit in int32", i, v)
		}
	}
	if m.Factor != 0 && (m.Factor < math.MinInt32 || m.Factor > math.MaxInt32) {
		return fmt.Errorf("factor %d does not fit in int32", m.Factor)
	}
	if len(m.Values) > 0 && m.Factor == 0 {
		return fmt.Errorf("factor is required when values are set")
	}

	if len(m.Cases) == 0 {
		return fmt.Errorf("at least one case is required")
	}

	names := make(map[string]bool)
	for i := range m.Cases {
		c := &m.Cases[i]
		if c.Name == "" {
			return fmt.Errorf("cases[%d]: name is required", i)
		}
		if names[c.Name] {
			return fmt.Errorf("cases[%d]: duplicate case name %q", i, c.Name)
		}
		names[c.Name] = true

		if err := c.validate(m); err != nil {
			return fmt.Errorf("case %s: %w", c.Name, err)
		}
	}
	return nil
}

func (c *Case) validate(m *Manifest) error {
	e := &c.Expect

	switch e.Exit {
	case ExitSuccess, ExitAbort:
	case "":
		if e.ExitCode == nil {
			return fmt.Errorf("expect.exit must be %q or %q", ExitSuccess, ExitAbort)
		}
	default:
		return fmt.Errorf("expect.exit must be %q or %q, got %q", ExitSuccess, ExitAbort, e.Exit)
	}
	if e.ExitCode != nil && e.Exit != "" {
		wantSuccess := *e.ExitCode == 0
		if wantSuccess != (e.Exit == ExitSuccess) {
			return fmt.Errorf("expect.exit %q disagrees with expect.exit_code %d", e.Exit, *e.ExitCode)
		}
	}

	modes := 0
	if len(e.Stdout) > 0 {
		modes++
	}
	if len(e.StdoutRe) > 0 {
		modes++
	}
	if e.DeriveStdout {
		modes++
	}
	if e.NoStdout {
		modes++
	}
	if modes > 1 {
		return fmt.Errorf("conflicting stdout expectations")
	}
	if e.DeriveStdout && (len(m.Values) == 0 || m.Factor == 0) {
		return fmt.Errorf("derive_stdout requires manifest values and factor")
	}

	c.patterns = c.patterns[:0]
	for i, expr := range e.StdoutRe {
		re, err := regexp.Compile(expr)
		if err != nil {
			return fmt.Errorf("stdout_re[%d]: %w", i, err)
		}
		c.patterns = append(c.patterns, re)
	}

	if c.Timeout != "" {
		d, err := time.ParseDuration(c.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
		}
		c.timeout = d
	}
	return nil
}
