// Package fsproxy is the built-in filesystem capability, registered in the
// hub under the "fs" module name. Plain file operations return deferred
// results; open and watch vend new proxies.
package fsproxy

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/morezero/proxy-hub/pkg/proxy"
)

// ModuleName is the registry key the fs proxy is seeded under.
const ModuleName = "fs"

// FS is the filesystem proxy.
type FS struct{}

// New creates the fs proxy.
func New() *FS {
	return &FS{}
}

// StatOutput is the result of the stat method.
type StatOutput struct {
	Path    string `json:"path"`
	Size    int64  `json:"size"`
	IsDir   bool   `json:"isDir"`
	Mode    string `json:"mode"`
	ModTime string `json:"modTime"`
}

// DirEntry is one entry in a readDir result.
type DirEntry struct {
	Name  string `json:"name"`
	IsDir bool   `json:"isDir"`
}

// Invoke dispatches an fs method call.
func (f *FS) Invoke(_ context.Context, method string, args []any) (proxy.Result, error) {
	switch method {
	case "stat":
		path, err := stringArg(args, 0)
		if err != nil {
			return nil, err
		}
		return proxy.Go(func() (any, error) { return stat(path) }), nil

	case "readFile":
		path, err := stringArg(args, 0)
		if err != nil {
			return nil, err
		}
		return proxy.Go(func() (any, error) {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, err
			}
			return string(data), nil
		}), nil

	case "writeFile":
		path, err := stringArg(args, 0)
		if err != nil {
			return nil, err
		}
		data, err := stringArg(args, 1)
		if err != nil {
			return nil, err
		}
		return proxy.Go(func() (any, error) {
			if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
				return nil, err
			}
			return len(data), nil
		}), nil

	case "readDir":
		path, err := stringArg(args, 0)
		if err != nil {
			return nil, err
		}
		return proxy.Go(func() (any, error) { return readDir(path) }), nil

	case "remove":
		path, err := stringArg(args, 0)
		if err != nil {
			return nil, err
		}
		return proxy.Go(func() (any, error) { return nil, os.Remove(path) }), nil

	case "open":
		path, err := stringArg(args, 0)
		if err != nil {
			return nil, err
		}
		handle, err := openFile(path)
		if err != nil {
			return nil, err
		}
		return proxy.NewProxy{P: handle}, nil

	case "watch":
		path, err := stringArg(args, 0)
		if err != nil {
			return nil, err
		}
		w, err := newWatcher(path)
		if err != nil {
			return nil, err
		}
		return proxy.NewProxy{P: w}, nil

	default:
		return nil, proxy.ErrMethodNotFound
	}
}

func stat(path string) (*StatOutput, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	return &StatOutput{
		Path:    path,
		Size:    info.Size(),
		IsDir:   info.IsDir(),
		Mode:    info.Mode().String(),
		ModTime: info.ModTime().UTC().Format(time.RFC3339),
	}, nil
}

func readDir(path string) ([]DirEntry, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	out := make([]DirEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, DirEntry{Name: e.Name(), IsDir: e.IsDir()})
	}
	return out, nil
}

func stringArg(args []any, i int) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("fsproxy - missing argument %d", i)
	}
	s, ok := args[i].(string)
	if !ok {
		return "", fmt.Errorf("fsproxy - argument %d must be a string, got %T", i, args[i])
	}
	return s, nil
}
