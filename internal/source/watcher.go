package source

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"listsel/internal/logging"
)

// Reload carries the freshly parsed content of a watched item file.
type Reload struct {
	Entries []Entry
	Err     error
	At      time.Time
}

// Watcher reloads one item file whenever it changes on disk.
//
// The parent directory is watched rather than the file itself, so editors
// that save by renaming a temp file over the original are still seen.
// Bursts of events are coalesced with a debounce window and produce one
// Reload.
type Watcher struct {
	path     string
	debounce time.Duration
	logger   logging.Logger
	watcher  *fsnotify.Watcher
	reloads  chan Reload
	changes  chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func NewWatcher(path string, debounce time.Duration, logger logging.Logger) (*Watcher, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	return &Watcher{
		path:     abs,
		debounce: debounce,
		logger:   logger.With(logging.F("path", abs)),
		watcher:  fsw,
		reloads:  make(chan Reload, 1),
		changes:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}, nil
}

// Reloads delivers one Reload per debounced burst. The channel is closed
// when the watcher stops.
func (w *Watcher) Reloads() <-chan Reload {
	return w.reloads
}

func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	go w.processEvents(ctx)
	go w.debounceLoop(ctx)
	return nil
}

func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		_ = w.watcher.Close()
	})
}

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			select {
			case w.changes <- struct{}{}:
			default:
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("item watcher error", logging.F("error", err))
		}
	}
}

func (w *Watcher) debounceLoop(ctx context.Context) {
	defer close(w.reloads)
	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case <-w.changes:
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case <-timerC:
			timer = nil
			timerC = nil
			entries, err := Load(w.path)
			if err != nil {
				w.logger.Warn("item reload failed", logging.F("error", err))
			} else {
				w.logger.Debug("items reloaded", logging.F("count", len(entries)))
			}
			reload := Reload{Entries: entries, Err: err, At: time.Now()}
			select {
			case w.reloads <- reload:
			case <-ctx.Done():
				return
			case <-w.done:
				return
			}
		}
	}
}
