package fsproxy

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/morezero/proxy-hub/pkg/proxy"
)

const watcherLogPrefix = "fsproxy:watcher"

// ChangeEvent is the payload of a watcher's change events.
type ChangeEvent struct {
	Path string `json:"path"`
	Op   string `json:"op"`
}

// Watcher is a vended proxy that emits a "change" event for every
// filesystem notification under the watched path.
type Watcher struct {
	*proxy.EventSource

	fw        *fsnotify.Watcher
	path      string
	closeOnce sync.Once
}

func newWatcher(path string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(path); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		EventSource: proxy.NewEventSource(),
		fw:          fw,
		path:        path,
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			w.Emit("change", &ChangeEvent{Path: ev.Name, Op: ev.Op.String()})
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			slog.Warn(fmt.Sprintf("%s - watch error on %s: %v", watcherLogPrefix, w.path, err))
			w.Emit("error", err.Error())
		}
	}
}

// Invoke dispatches a watcher method call.
func (w *Watcher) Invoke(_ context.Context, method string, _ []any) (proxy.Result, error) {
	switch method {
	case "close":
		if err := w.Dispose(); err != nil {
			return nil, err
		}
		return proxy.Value{}, nil
	default:
		return nil, proxy.ErrMethodNotFound
	}
}

// Dispose stops the underlying watcher and notifies the hub. Idempotent.
func (w *Watcher) Dispose() error {
	var err error
	w.closeOnce.Do(func() {
		err = w.fw.Close()
		w.NotifyDisposed()
	})
	return err
}
