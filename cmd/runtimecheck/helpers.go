package main

import (
	"strings"

	"github.com/odavlstudio/odavl/internal/runner"
)

// newRunner builds a Runner from the loaded configuration.
func newRunner() *runner.Runner {
	r := runner.New(logger)
	r.GoBinary = cfg.GoBinary
	r.Timeout = cfg.Timeout()
	return r
}

// corpusDir resolves the corpus directory: an explicit flag wins over the
// configured corpus_dir.
func corpusDir(flag string) string {
	if flag != "" {
		return flag
	}
	return cfg.CorpusDir
}

// firstLine collapses multi-line problem text to its first line for
// one-line console rows. Full text is available in JSON output.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
