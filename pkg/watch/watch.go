// Package watch reloads the displayed model when its file changes on disk.
package watch

import (
	"context"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/taigrr/vitrine/pkg/viewer"
)

// DefaultDebounce is how long a file must stay quiet before it is reloaded.
const DefaultDebounce = 200 * time.Millisecond

// Viewer is the part of *viewer.Viewer the watcher needs.
type Viewer interface {
	LoadModel(path string)
	Subscribe() (<-chan viewer.Event, func())
}

// Watcher follows the displayed model. It watches the model's directory
// rather than the file, so editors that replace the file on save still
// trigger a reload.
type Watcher struct {
	viewer   Viewer
	debounce time.Duration
	log      *log.Logger
}

// New creates a watcher. A debounce of zero or less uses DefaultDebounce.
func New(v Viewer, debounce time.Duration, logger *log.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Watcher{viewer: v, debounce: debounce, log: logger.WithPrefix("watch")}
}

// Run watches until ctx is done. initial, if not empty, is watched from
// the start; afterwards the watcher follows whatever model the viewer
// loads.
func (w *Watcher) Run(ctx context.Context, initial string) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create watcher")
	}
	defer fw.Close()

	events, unsubscribe := w.viewer.Subscribe()
	defer unsubscribe()

	var (
		target string // absolute path of the watched model
		dir    string
		timer  *time.Timer
		fire   <-chan time.Time
	)
	follow := func(path string) {
		abs, err := filepath.Abs(path)
		if err != nil || abs == target {
			return
		}
		if d := filepath.Dir(abs); d != dir {
			if dir != "" {
				fw.Remove(dir)
			}
			if err := fw.Add(d); err != nil {
				w.log.Warn("cannot watch directory", "dir", d, "err", err)
				target, dir = "", ""
				return
			}
			dir = d
		}
		target = abs
		w.log.Debug("watching model", "path", abs)
	}
	unfollow := func() {
		if dir != "" {
			fw.Remove(dir)
		}
		target, dir = "", ""
	}
	if initial != "" {
		follow(initial)
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev.Kind {
			case viewer.EventLoaded:
				follow(ev.Path)
			case viewer.EventCleared:
				unfollow()
			}

		case fe, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if target == "" || filepath.Clean(fe.Name) != target {
				continue
			}
			if fe.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if target != "" {
				w.log.Info("model changed, reloading", "path", target)
				w.viewer.LoadModel(target)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", "err", err)
		}
	}
}
