// Package watcher reports changes to the script file so the session can be
// reloaded.
package watcher

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"
)

type Watcher interface {
	Watch(ctx context.Context, path string) error
	Stop() error
	OnChange(callback func(path string, event EventType))
}

type EventType int

const (
	EventCreate EventType = iota
	EventModify
	EventDelete
)

func (e EventType) String() string {
	switch e {
	case EventCreate:
		return "create"
	case EventModify:
		return "modify"
	case EventDelete:
		return "delete"
	}
	return "unknown"
}

const DefaultInterval = time.Second

// PollWatcher compares the file's modification time and size at a fixed
// interval. Callbacks run on the polling goroutine.
type PollWatcher struct {
	interval time.Duration
	logger   *slog.Logger

	mu        sync.Mutex
	callbacks []func(path string, event EventType)
	cancel    context.CancelFunc
	done      chan struct{}
}

var _ Watcher = (*PollWatcher)(nil)

func NewPollWatcher(interval time.Duration, logger *slog.Logger) *PollWatcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &PollWatcher{interval: interval, logger: logger}
}

func (w *PollWatcher) OnChange(callback func(path string, event EventType)) {
	w.mu.Lock()
	w.callbacks = append(w.callbacks, callback)
	w.mu.Unlock()
}

// Watch starts polling path. A file that does not exist yet is reported
// with EventCreate once it appears.
func (w *PollWatcher) Watch(ctx context.Context, path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return errors.New("watcher already running")
	}

	last, err := stat(path)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	go w.loop(ctx, path, last, w.done)

	w.logger.Info("watching script", "path", path, "interval", w.interval)
	return nil
}

func (w *PollWatcher) loop(ctx context.Context, path string, last fileState, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		cur, err := stat(path)
		if err != nil {
			w.logger.Warn("stat script failed", "path", path, "error", err)
			continue
		}
		event, changed := compare(last, cur)
		last = cur
		if !changed {
			continue
		}

		w.logger.Debug("script changed", "path", path, "event", event)
		w.mu.Lock()
		callbacks := append([]func(string, EventType){}, w.callbacks...)
		w.mu.Unlock()
		for _, cb := range callbacks {
			cb(path, event)
		}
	}
}

// Stop ends polling and waits for the polling goroutine to exit.
func (w *PollWatcher) Stop() error {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}

type fileState struct {
	exists  bool
	modTime time.Time
	size    int64
}

func stat(path string) (fileState, error) {
	fi, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fileState{}, nil
	}
	if err != nil {
		return fileState{}, err
	}
	return fileState{exists: true, modTime: fi.ModTime(), size: fi.Size()}, nil
}

func compare(prev, cur fileState) (EventType, bool) {
	switch {
	case !prev.exists && cur.exists:
		return EventCreate, true
	case prev.exists && !cur.exists:
		return EventDelete, true
	case cur.exists && (!cur.modTime.Equal(prev.modTime) || cur.size != prev.size):
		return EventModify, true
	}
	return 0, false
}
