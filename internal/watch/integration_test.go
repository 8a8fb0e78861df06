//go:build integration

package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func collect(t *testing.T, ch <-chan []string, wait time.Duration) []string {
	t.Helper()
	var got []string
	deadline := time.After(wait)
	for {
		select {
		case batch, ok := <-ch:
			if !ok {
				return got
			}
			got = append(got, batch...)
		case <-deadline:
			return got
		}
	}
}

func TestWatcherReportsChangedFixture(t *testing.T) {
	corpus := t.TempDir()
	writeFile(t, filepath.Join(corpus, "sample", "main.go"), "package main\n")

	w, err := New(corpus, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	writeFile(t, filepath.Join(corpus, "sample", "helper.go"), "package main\n")

	got := collect(t, w.Changes(), 3*time.Second)
	require.Contains(t, got, "sample")
}

func TestWatcherIgnoresUnrelatedFiles(t *testing.T) {
	corpus := t.TempDir()
	writeFile(t, filepath.Join(corpus, "sample", "main.go"), "package main\n")

	w, err := New(corpus, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	writeFile(t, filepath.Join(corpus, "sample", "notes.txt"), "scratch\n")

	got := collect(t, w.Changes(), 1500*time.Millisecond)
	require.Empty(t, got)
}

func TestWatcherPicksUpNewFixtureDirectory(t *testing.T) {
	corpus := t.TempDir()

	w, err := New(corpus, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	require.NoError(t, os.MkdirAll(filepath.Join(corpus, "newfix"), 0755))
	// Give the watcher a beat to add the new directory before writing.
	time.Sleep(200 * time.Millisecond)
	writeFile(t, filepath.Join(corpus, "newfix", "fixture.yaml"), "name: newfix\n")

	got := collect(t, w.Changes(), 3*time.Second)
	require.Contains(t, got, "newfix")
}

func TestWatcherStopClosesChannel(t *testing.T) {
	corpus := t.TempDir()

	w, err := New(corpus, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	w.Stop()

	select {
	case _, ok := <-w.Changes():
		require.False(t, ok, "channel should be closed")
	case <-time.After(time.Second):
		t.Fatal("channel not closed after Stop")
	}
}
