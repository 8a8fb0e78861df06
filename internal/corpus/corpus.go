// Package corpus loads runtime defect fixtures: small deliberately broken
// programs, each paired with a manifest that declares its intentional
// defects and the observable contract of running it. The harness never
// inspects fixture source; everything checkable lives in the manifest.
package corpus

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	// ManifestName is the per-fixture manifest file.
	ManifestName = "fixture.yaml"
	// SourceArchive is the optional txtar bundle holding a fixture's sources.
	SourceArchive = "src.txtar"
)

// DefectKind labels an intentional defect a fixture carries. Kinds are
// corpus vocabulary that mirrors the BAD markers in the sources; they are
// declarations, not detection output.
type DefectKind string

const (
	DefectUnusedVariable  DefectKind = "unused-variable"
	DefectOutOfBounds     DefectKind = "out-of-bounds"
	DefectExplicitPanic   DefectKind = "explicit-panic"
	DefectIntegerOverflow DefectKind = "integer-overflow"
	DefectUnreachableCode DefectKind = "unreachable-code"
	DefectNilDereference  DefectKind = "nil-dereference"
	DefectDivisionByZero  DefectKind = "division-by-zero"
	DefectDataRace        DefectKind = "data-race"
	DefectGoroutineLeak   DefectKind = "goroutine-leak"
)

// KnownKinds returns every recognized defect kind, sorted.
func KnownKinds() []DefectKind {
	kinds := []DefectKind{
		DefectUnusedVariable,
		DefectOutOfBounds,
		DefectExplicitPanic,
		DefectIntegerOverflow,
		DefectUnreachableCode,
		DefectNilDereference,
		DefectDivisionByZero,
		DefectDataRace,
		DefectGoroutineLeak,
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Known reports whether k is a recognized defect kind.
func (k DefectKind) Known() bool {
	for _, known := range KnownKinds() {
		if k == known {
			return true
		}
	}
	return false
}

// Fixture is a loaded corpus member: its manifest plus resolved sources.
type Fixture struct {
	// Name is the fixture name (same as the directory base name).
	Name string
	// Dir is the directory the fixture was loaded from.
	Dir string
	// Manifest is the parsed, validated fixture.yaml.
	Manifest *Manifest
	// HasGoMod is true when the fixture ships its own go.mod; otherwise the
	// runner synthesizes one at staging time.
	HasGoMod bool

	sources map[string][]byte
}

// SourceFiles returns the fixture's source files by name. Sources packaged
// as a txtar archive are returned already extracted.
func (f *Fixture) SourceFiles() map[string][]byte {
	return f.sources
}

// SourceNames returns the fixture's source file names, sorted.
func (f *Fixture) SourceNames() []string {
	names := make([]string, 0, len(f.sources))
	for name := range f.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Case returns the named case, or the first case when name is empty.
func (f *Fixture) Case(name string) (*Case, bool) {
	if name == "" && len(f.Manifest.Cases) > 0 {
		return &f.Manifest.Cases[0], true
	}
	for i := range f.Manifest.Cases {
		if f.Manifest.Cases[i].Name == name {
			return &f.Manifest.Cases[i], true
		}
	}
	return nil, false
}

// HasDefect reports whether the fixture declares a defect of the given kind.
func (f *Fixture) HasDefect(kind DefectKind) bool {
	for _, d := range f.Manifest.Defects {
		if d.Kind == kind {
			return true
		}
	}
	return false
}

// DefectKinds returns the declared kinds, deduplicated, in declaration order.
func (f *Fixture) DefectKinds() []DefectKind {
	seen := make(map[DefectKind]bool)
	var kinds []DefectKind
	for _, d := range f.Manifest.Defects {
		if !seen[d.Kind] {
			seen[d.Kind] = true
			kinds = append(kinds, d.Kind)
		}
	}
	return kinds
}

// NeedsRace reports whether any case requires a race-instrumented build.
func (f *Fixture) NeedsRace() bool {
	for _, c := range f.Manifest.Cases {
		if c.Race {
			return true
		}
	}
	return false
}

// Load discovers every fixture under dir: each immediate subdirectory that
// contains a fixture.yaml. Fixtures are returned sorted by name.
func Load(dir string) ([]*Fixture, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus directory: %w", err)
	}

	var fixtures []*Fixture
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		fdir := filepath.Join(dir, e.Name())
		if _, err := os.Stat(filepath.Join(fdir, ManifestName)); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		fx, err := LoadFixture(fdir)
		if err != nil {
			return nil, fmt.Errorf("fixture %s: %w", e.Name(), err)
		}
		fixtures = append(fixtures, fx)
	}

	sort.Slice(fixtures, func(i, j int) bool { return fixtures[i].Name < fixtures[j].Name })
	return fixtures, nil
}

// LoadFixture loads a single fixture directory.
func LoadFixture(dir string) (*Fixture, error) {
	m, err := loadManifest(filepath.Join(dir, ManifestName), filepath.Base(dir))
	if err != nil {
		return nil, err
	}

	sources, err := readSources(dir)
	if err != nil {
		return nil, err
	}

	hasGo := false
	for name := range sources {
		if strings.HasSuffix(name, ".go") {
			hasGo = true
			break
		}
	}
	if !hasGo {
		return nil, fmt.Errorf("fixture has no Go sources")
	}

	return &Fixture{
		Name:     m.Name,
		Dir:      dir,
		Manifest: m,
		HasGoMod: sources["go.mod"] != nil,
		sources:  sources,
	}, nil
}

// readSources collects a fixture's source files: either plain .go files
// (plus an optional go.mod) or a single txtar archive, never both.
func readSources(dir string) (map[string][]byte, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture directory: %w", err)
	}

	plain := make(map[string][]byte)
	var archives []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		switch {
		case name == ManifestName:
			continue
		case strings.HasSuffix(name, ".txtar"):
			archives = append(archives, name)
		case strings.HasSuffix(name, ".go") || name == "go.mod":
			data, err := os.ReadFile(filepath.Join(dir, name))
			if err != nil {
				return nil, fmt.Errorf("failed to read source %s: %w", name, err)
			}
			plain[name] = data
		}
	}

	if len(archives) > 0 {
		if len(plain) > 0 {
			return nil, fmt.Errorf("fixture mixes plain sources and a txtar archive")
		}
		if len(archives) > 1 {
			return nil, fmt.Errorf("fixture has multiple txtar archives: %v", archives)
		}
		return loadArchive(filepath.Join(dir, archives[0]))
	}
	return plain, nil
}
