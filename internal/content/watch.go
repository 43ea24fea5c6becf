package content

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
)

const DefaultDebounce = 500 * time.Millisecond

// Watcher reloads a Catalog from a directory whenever its files change.
// A reload that fails to parse keeps the previous catalog.
type Watcher struct {
	dir      string
	catalog  *Catalog
	logger   *slog.Logger
	debounce time.Duration

	// OnReload, when set, runs after every successful reload.
	OnReload func(n int)
}

func NewWatcher(dir string, catalog *Catalog, logger *slog.Logger) *Watcher {
	return &Watcher{dir: dir, catalog: catalog, logger: logger, debounce: DefaultDebounce}
}

// Reload loads the directory and replaces the catalog.
func (w *Watcher) Reload() error {
	stories, err := Load(os.DirFS(w.dir))
	if err != nil {
		return err
	}
	w.catalog.Replace(stories)
	w.logger.Info("story catalog reloaded", "dir", w.dir, "stories", len(stories))
	if w.OnReload != nil {
		w.OnReload(len(stories))
	}
	return nil
}

// Run watches the directory until ctx is done. Bursts of events are
// collapsed into one reload.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	w.logger.Info("watching story catalog", "dir", w.dir)

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Debug("story file changed", "file", event.Name, "op", event.Op.String())

			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(w.debounce, func() {
				if err := w.Reload(); err != nil {
					w.logger.Error("reloading story catalog", "error", err)
				}
			})

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("story watcher", "error", err)
		}
	}
}
