package ingest

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

const DefaultDebounce = 200 * time.Millisecond

// Watcher adds files matching a glob pattern as they are created or changed.
// A file whose content is unchanged since its last import is skipped.
type Watcher struct {
	pattern  string
	root     string
	adder    Adder
	debounce time.Duration
	watcher  *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]*time.Timer
	ready   chan string
	seen    map[string][sha256.Size]byte
}

func NewWatcher(pattern string, adder Adder, debounce time.Duration) (*Watcher, error) {
	if !doublestar.ValidatePathPattern(pattern) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	// Event names are built from the cleaned root, so the pattern is
	// rebuilt on top of it. Otherwise "./docs/*.txt" never matches.
	base, rest := doublestar.SplitPattern(filepath.ToSlash(pattern))
	root := filepath.Clean(filepath.FromSlash(base))
	if rest != "" {
		pattern = filepath.Join(root, filepath.FromSlash(rest))
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &Watcher{
		pattern:  pattern,
		root:     root,
		adder:    adder,
		debounce: debounce,
		watcher:  fw,
		pending:  make(map[string]*time.Timer),
		ready:    make(chan string, 64),
		seen:     make(map[string][sha256.Size]byte),
	}

	if err := w.addTree(root); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return w, nil
}

// addTree watches dir and every directory below it
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// Run processes filesystem events until ctx is cancelled. onResult, if set,
// is called after each import.
func (w *Watcher) Run(ctx context.Context, onResult func(FileResult)) error {
	defer w.stopTimers()

	log.Info().Str("pattern", w.pattern).Str("root", w.root).Msg("Watching for documents")

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("watcher events channel closed")
			}
			w.handleEvent(ctx, event)

		case path := <-w.ready:
			res, imported := w.importChanged(ctx, path)
			if imported && onResult != nil {
				onResult(res)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("watcher errors channel closed")
			}
			log.Error().Err(err).Msg("fsnotify error")
		}
	}
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return
	}
	if info.IsDir() {
		if err := w.addTree(event.Name); err != nil {
			log.Warn().Err(err).Str("path", event.Name).Msg("Failed to watch new directory")
		}
		return
	}

	path := filepath.Clean(event.Name)
	matched, err := doublestar.PathMatch(w.pattern, path)
	if err != nil || !matched {
		return
	}
	w.schedule(ctx, path)
}

// schedule delays the import until writes to path have settled
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Reset(w.debounce)
		return
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		select {
		case w.ready <- path:
		case <-ctx.Done():
		}
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) importChanged(ctx context.Context, path string) (FileResult, bool) {
	content, err := readText(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Skipping file")
		return FileResult{}, false
	}

	sum := sha256.Sum256([]byte(content))
	if prev, ok := w.seen[path]; ok && prev == sum {
		log.Debug().Str("path", path).Msg("Content unchanged, skipping")
		return FileResult{}, false
	}

	res := FileResult{Path: path, Result: w.adder.AddDocument(ctx, content)}
	if res.Result.Success {
		w.seen[path] = sum
	}
	return res, true
}
