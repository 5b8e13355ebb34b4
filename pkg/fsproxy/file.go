package fsproxy

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"

	"github.com/morezero/proxy-hub/pkg/proxy"
)

// defaultReadSize bounds a read when the client does not pass a count.
const defaultReadSize = 32 * 1024

// FileHandle is a vended proxy over one open file. It disposes itself when
// the client calls close, and at session teardown otherwise.
type FileHandle struct {
	*proxy.EventSource

	mu   sync.Mutex
	f    *os.File
	path string
	done bool
}

func openFile(path string) (*FileHandle, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileHandle{
		EventSource: proxy.NewEventSource(),
		f:           f,
		path:        path,
	}, nil
}

// ReadOutput is the result of the read method.
type ReadOutput struct {
	Data string `json:"data"`
	EOF  bool   `json:"eof"`
}

// Invoke dispatches a file-handle method call.
func (h *FileHandle) Invoke(_ context.Context, method string, args []any) (proxy.Result, error) {
	switch method {
	case "read":
		count := defaultReadSize
		if len(args) > 0 {
			n, ok := args[0].(float64)
			if !ok || n <= 0 {
				return nil, errors.New("fsproxy - read count must be a positive number")
			}
			count = int(n)
		}
		return proxy.Go(func() (any, error) { return h.read(count) }), nil

	case "write":
		data, err := stringArg(args, 0)
		if err != nil {
			return nil, err
		}
		return proxy.Go(func() (any, error) { return h.write(data) }), nil

	case "close":
		if err := h.Dispose(); err != nil {
			return nil, err
		}
		return proxy.Value{}, nil

	default:
		return nil, proxy.ErrMethodNotFound
	}
}

func (h *FileHandle) read(count int) (*ReadOutput, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.done {
		return nil, os.ErrClosed
	}

	buf := make([]byte, count)
	n, err := h.f.Read(buf)
	if err != nil && err != io.EOF {
		return nil, err
	}
	return &ReadOutput{Data: string(buf[:n]), EOF: err == io.EOF}, nil
}

func (h *FileHandle) write(data string) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.done {
		return 0, os.ErrClosed
	}
	return h.f.Write([]byte(data))
}

// Dispose closes the file and notifies the hub. Idempotent.
func (h *FileHandle) Dispose() error {
	h.mu.Lock()
	if h.done {
		h.mu.Unlock()
		return nil
	}
	h.done = true
	err := h.f.Close()
	h.mu.Unlock()

	h.NotifyDisposed()
	return err
}
