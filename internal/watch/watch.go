// Package watch monitors a fixture corpus and reports which fixtures
// changed, so the CLI can re-verify them without a full rerun. Events are
// debounced per fixture: editors fire several writes per save.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long a fixture must stay quiet before its change
// is reported.
const DefaultDebounce = 500 * time.Millisecond

// tickInterval is how often pending changes are checked for settling.
const tickInterval = 100 * time.Millisecond

// sourceSuffixes are the file types whose changes matter to a fixture.
var sourceSuffixes = []string{".go", ".yaml", ".txtar"}

// Watcher reports settled fixture changes in batches.
type Watcher struct {
	corpusDir string
	debounce  time.Duration
	log       *zap.Logger

	fsw     *fsnotify.Watcher
	changes chan []string
	stopCh  chan struct{}
	doneCh  chan struct{}

	mu      sync.Mutex
	pending map[string]time.Time
	running bool
}

// New creates a Watcher for the given corpus directory. Call Start to
// begin watching.
func New(corpusDir string, log *zap.Logger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem watcher: %w", err)
	}
	return &Watcher{
		corpusDir: corpusDir,
		debounce:  DefaultDebounce,
		log:       log,
		fsw:       fsw,
		changes:   make(chan []string, 16),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
		pending:   make(map[string]time.Time),
	}, nil
}

// Changes returns the channel on which settled fixture-name batches
// arrive, sorted and deduplicated. The channel closes when the watcher
// stops.
func (w *Watcher) Changes() <-chan []string {
	return w.changes
}

// Start watches the corpus root and every fixture directory under it,
// then processes events until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.fsw.Add(w.corpusDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.corpusDir, err)
	}
	entries, err := os.ReadDir(w.corpusDir)
	if err != nil {
		return fmt.Errorf("failed to read corpus directory: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(w.corpusDir, entry.Name())
		if err := w.fsw.Add(dir); err != nil {
			w.log.Warn("failed to watch fixture directory",
				zap.String("dir", dir),
				zap.Error(err))
		}
	}

	w.log.Info("watching corpus", zap.String("dir", w.corpusDir))
	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to drain.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.fsw.Close(); err != nil {
		w.log.Warn("failed to close filesystem watcher", zap.Error(err))
	}
}

// run is the event loop.
func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)
	defer close(w.changes)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", zap.Error(err))
		case <-ticker.C:
			w.flush()
		}
	}
}

// handleEvent records the fixture a filesystem event belongs to. A
// directory created under the corpus root is a new fixture: it is added
// to the watch list as well.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&fsnotify.Chmod != 0 && event.Op&^fsnotify.Chmod == 0 {
		return
	}

	name, direct := fixtureName(w.corpusDir, event.Name)
	if name == "" {
		return
	}

	if direct {
		// Only directory create events matter at the corpus root.
		if event.Op&fsnotify.Create == 0 {
			return
		}
		info, err := os.Stat(event.Name)
		if err != nil || !info.IsDir() {
			return
		}
		if err := w.fsw.Add(event.Name); err != nil {
			w.log.Warn("failed to watch new fixture directory",
				zap.String("dir", event.Name),
				zap.Error(err))
		}
	} else if !sourceFile(event.Name) {
		return
	}

	w.log.Debug("fixture changed",
		zap.String("fixture", name),
		zap.String("op", event.Op.String()),
		zap.String("path", event.Name))

	w.mu.Lock()
	w.pending[name] = time.Now()
	w.mu.Unlock()
}

// flush reports every fixture that has stayed quiet past the debounce
// window. When the receiver is not keeping up the batch stays pending.
func (w *Watcher) flush() {
	w.mu.Lock()
	now := time.Now()
	var batch []string
	for name, last := range w.pending {
		if now.Sub(last) >= w.debounce {
			batch = append(batch, name)
		}
	}
	if len(batch) == 0 {
		w.mu.Unlock()
		return
	}
	for _, name := range batch {
		delete(w.pending, name)
	}
	w.mu.Unlock()

	sort.Strings(batch)
	select {
	case w.changes <- batch:
	default:
		w.mu.Lock()
		for _, name := range batch {
			if _, ok := w.pending[name]; !ok {
				w.pending[name] = now
			}
		}
		w.mu.Unlock()
	}
}

// fixtureName maps a path under the corpus root to its fixture name.
// direct is true when the path sits immediately under the root. Paths
// outside the root yield an empty name.
func fixtureName(corpusDir, path string) (name string, direct bool) {
	rel, err := filepath.Rel(corpusDir, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	parts := strings.Split(rel, string(filepath.Separator))
	return parts[0], len(parts) == 1
}

// sourceFile reports whether a path is a fixture source or manifest.
func sourceFile(path string) bool {
	for _, suffix := range sourceSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}
