package plugin

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/thoreinstein/plugkit/internal/errors"
	"github.com/thoreinstein/plugkit/internal/logging"
)

// DefaultDebounce groups bursts of file events, such as an editor's
// write-rename-chmod sequence, into one change notification.
const DefaultDebounce = 300 * time.Millisecond

// Watcher reports changes to plugin files below a set of roots.
type Watcher struct {
	Debounce time.Duration
	logger   *slog.Logger
}

// NewWatcher creates a Watcher with DefaultDebounce. A nil logger discards output.
func NewWatcher(logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = logging.NewDiscard()
	}
	return &Watcher{Debounce: DefaultDebounce, logger: logger}
}

// Watch blocks until ctx is done, calling onChange with the sorted set of
// changed paths after each quiet period. Directories created while watching
// are added. It returns nil when ctx is cancelled.
func (w *Watcher) Watch(ctx context.Context, roots []string, onChange func(paths []string)) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "creating watcher")
	}
	defer fw.Close()

	for _, root := range dedupe(roots) {
		if err := w.addTree(fw, root); err != nil {
			return errors.Wrapf(err, "watching %s", root)
		}
	}

	var (
		pending = make(map[string]bool)
		timer   *time.Timer
		fire    <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("watcher stopped")
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			w.logger.Debug("file event", "op", event.Op.String(), "path", event.Name)

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(fw, event.Name); err != nil {
						w.logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
					}
				}
			}

			pending[event.Name] = true
			if timer == nil {
				timer = time.NewTimer(w.Debounce)
			} else {
				timer.Reset(w.Debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			clear(pending)
			onChange(paths)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) addTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && skipDirs[d.Name()] {
			return fs.SkipDir
		}
		w.logger.Log(context.Background(), logging.LevelTrace, "watching directory", "path", path)
		return fw.Add(path)
	})
}

// relevant filters out pure chmod events and editor swap or backup files.
func relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	base := filepath.Base(event.Name)
	return !strings.HasSuffix(base, "~") && filepath.Ext(base) != ".swp"
}
