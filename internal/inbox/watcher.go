// Package inbox imports journal files dropped into a watched directory.
//
// A file is imported once it has been quiet for the debounce interval, then
// moved into imported/ or failed/ under the inbox root so it is never
// imported twice.
package inbox

import (
	"context"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/daybook/internal/journal"
	"github.com/starford/daybook/internal/journalservice"
	"github.com/starford/daybook/internal/storage"
)

// Subdirectories that receive processed files.
const (
	ImportedDir = "imported"
	FailedDir   = "failed"
)

const defaultDebounce = 300 * time.Millisecond

// Importer imports one journal document.
type Importer interface {
	Import(ctx context.Context, filename string, doc []byte) (*journalservice.ImportSummary, error)
}

// Dir is the inbox directory.
type Dir interface {
	storage.Provider
	Root() string
}

// Result reports the outcome of one inbox file.
type Result struct {
	Path    string
	Summary *journalservice.ImportSummary
	Err     error
}

// Watcher imports files that appear in an inbox directory.
type Watcher struct {
	importer Importer
	dir      Dir
	logger   *slog.Logger
	debounce time.Duration
	onResult func(Result)
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long a file must be quiet before it is imported.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithResultFunc registers a callback invoked after every processed file.
func WithResultFunc(fn func(Result)) Option {
	return func(w *Watcher) { w.onResult = fn }
}

// New creates a Watcher.
func New(importer Importer, dir Dir, logger *slog.Logger, opts ...Option) *Watcher {
	w := &Watcher{
		importer: importer,
		dir:      dir,
		logger:   logger,
		debounce: defaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Scan imports every journal file currently at the top level of the inbox.
func (w *Watcher) Scan(ctx context.Context) error {
	files, err := w.dir.List("")
	if err != nil {
		return err
	}
	for _, f := range files {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		w.process(ctx, f.Path)
	}
	return nil
}

// Run scans the inbox once and then watches it until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	root := w.dir.Root()
	if err := fw.Add(root); err != nil {
		return err
	}
	w.logger.Info("inbox: watching", slog.String("root", root))

	// Files created before the watch was added.
	if err := w.Scan(ctx); err != nil {
		w.logger.Warn("inbox: initial scan failed", slog.String("error", err.Error()))
	}

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("inbox: stopped")
			return nil

		case <-timer.C:
			for rel := range pending {
				w.process(ctx, rel)
				delete(pending, rel)
			}

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			rel, ok := w.candidate(root, ev.Name)
			if !ok {
				continue
			}
			pending[rel] = struct{}{}
			timer.Reset(w.debounce)

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("inbox: watch error", slog.String("error", watchErr.Error()))
		}
	}
}

// candidate reports whether an event path is a top-level journal file.
func (w *Watcher) candidate(root, abs string) (string, bool) {
	rel, err := filepath.Rel(root, abs)
	if err != nil || filepath.Dir(rel) != "." {
		return "", false
	}
	if strings.HasPrefix(rel, ".") || !journal.HasFileExtension(rel) {
		return "", false
	}
	return rel, true
}

func (w *Watcher) process(ctx context.Context, rel string) {
	res := Result{Path: rel}

	data, err := w.dir.Read(rel)
	if err != nil {
		// Already moved by an earlier event for the same file.
		w.logger.Debug("inbox: read failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}

	res.Summary, res.Err = w.importer.Import(ctx, rel, data)
	dest := ImportedDir
	if res.Err != nil {
		dest = FailedDir
		w.logger.Warn("inbox: import failed", slog.String("path", rel), slog.String("error", res.Err.Error()))
	} else {
		w.logger.Info("inbox: imported",
			slog.String("path", rel),
			slog.Int("succeeded", res.Summary.Succeeded()),
			slog.Int("failed", res.Summary.Failed))
	}

	if err := w.dir.Move(rel, path.Join(dest, filepath.Base(rel))); err != nil {
		w.logger.Error("inbox: move failed", slog.String("path", rel), slog.String("error", err.Error()))
		if res.Err == nil {
			res.Err = err
		}
	}

	if w.onResult != nil {
		w.onResult(res)
	}
}
