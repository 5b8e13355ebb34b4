package fsproxy

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/morezero/proxy-hub/pkg/proxy"
)

func await(t *testing.T, res proxy.Result) any {
	t.Helper()
	p, ok := res.(*proxy.Pending)
	if !ok {
		t.Fatalf("fsproxy_test - result type = %T, want *proxy.Pending", res)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	v, err := p.Wait(ctx)
	if err != nil {
		t.Fatalf("fsproxy_test - deferred result failed: %v", err)
	}
	return v
}

func awaitErr(t *testing.T, res proxy.Result) error {
	t.Helper()
	p, ok := res.(*proxy.Pending)
	if !ok {
		t.Fatalf("fsproxy_test - result type = %T, want *proxy.Pending", res)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := p.Wait(ctx)
	return err
}

func TestFS_StatAndReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	fs := New()
	ctx := context.Background()

	res, err := fs.Invoke(ctx, "stat", []any{path})
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	out := await(t, res).(*StatOutput)
	if out.Size != 5 || out.IsDir {
		t.Errorf("stat = %+v", out)
	}

	res, err = fs.Invoke(ctx, "readFile", []any{path})
	if err != nil {
		t.Fatalf("readFile: %v", err)
	}
	if got := await(t, res); got != "hello" {
		t.Errorf("readFile = %v, want hello", got)
	}
}

func TestFS_WriteReadDirRemove(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "b.txt")

	fs := New()
	ctx := context.Background()

	res, err := fs.Invoke(ctx, "writeFile", []any{path, "content"})
	if err != nil {
		t.Fatalf("writeFile: %v", err)
	}
	if got := await(t, res); got != 7 {
		t.Errorf("writeFile = %v, want 7", got)
	}

	res, err = fs.Invoke(ctx, "readDir", []any{dir})
	if err != nil {
		t.Fatalf("readDir: %v", err)
	}
	entries := await(t, res).([]DirEntry)
	if len(entries) != 1 || entries[0].Name != "b.txt" {
		t.Errorf("readDir = %+v", entries)
	}

	res, err = fs.Invoke(ctx, "remove", []any{path})
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	await(t, res)
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("expected file removed")
	}
}

func TestFS_StatMissingFileFails(t *testing.T) {
	fs := New()
	res, err := fs.Invoke(context.Background(), "stat", []any{filepath.Join(t.TempDir(), "nope")})
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if awaitErr(t, res) == nil {
		t.Error("expected deferred rejection for missing file")
	}
}

func TestFS_UnknownMethod(t *testing.T) {
	fs := New()
	_, err := fs.Invoke(context.Background(), "teleport", nil)
	if err != proxy.ErrMethodNotFound {
		t.Errorf("err = %v, want ErrMethodNotFound", err)
	}
}

func TestFS_MissingArgument(t *testing.T) {
	fs := New()
	if _, err := fs.Invoke(context.Background(), "stat", nil); err == nil {
		t.Error("expected error for missing path")
	}
}

func TestFS_OpenVendsFileHandle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.txt")
	fs := New()
	ctx := context.Background()

	res, err := fs.Invoke(ctx, "open", []any{path})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	vend, ok := res.(proxy.NewProxy)
	if !ok {
		t.Fatalf("result type = %T, want proxy.NewProxy", res)
	}
	handle := vend.P.(*FileHandle)

	// The vended value carries the event-subscription hook.
	if _, ok := vend.P.(proxy.Emitter); !ok {
		t.Fatal("file handle must implement Emitter")
	}

	wres, err := handle.Invoke(ctx, "write", []any{"payload"})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := await(t, wres); got != 7 {
		t.Errorf("write = %v, want 7", got)
	}

	// Reopen cursor by reading from a fresh handle.
	res, err = fs.Invoke(ctx, "open", []any{path})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	reader := res.(proxy.NewProxy).P.(*FileHandle)

	rres, err := reader.Invoke(ctx, "read", nil)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	out := await(t, rres).(*ReadOutput)
	if out.Data != "payload" {
		t.Errorf("read = %q, want payload", out.Data)
	}

	disposed := false
	reader.OnDisposed(func() { disposed = true })

	cres, err := reader.Invoke(ctx, "close", nil)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, ok := cres.(proxy.Value); !ok {
		t.Errorf("close result type = %T, want proxy.Value", cres)
	}
	if !disposed {
		t.Error("expected dispose notification on close")
	}

	// Operations after close fail; Dispose stays idempotent.
	rres, err = reader.Invoke(ctx, "read", nil)
	if err != nil {
		t.Fatalf("read after close: %v", err)
	}
	if awaitErr(t, rres) == nil {
		t.Error("expected read after close to fail")
	}
	if err := reader.Dispose(); err != nil {
		t.Errorf("second dispose: %v", err)
	}
	handle.Dispose()
}

func TestFS_WatchEmitsChange(t *testing.T) {
	dir := t.TempDir()
	fs := New()
	ctx := context.Background()

	res, err := fs.Invoke(ctx, "watch", []any{dir})
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	vend, ok := res.(proxy.NewProxy)
	if !ok {
		t.Fatalf("result type = %T, want proxy.NewProxy", res)
	}
	w := vend.P.(*Watcher)

	changes := make(chan []any, 16)
	w.OnEvent(func(event string, args []any) {
		if event == "change" {
			changes <- args
		}
	})

	if err := os.WriteFile(filepath.Join(dir, "touched.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case args := <-changes:
		if len(args) != 1 {
			t.Fatalf("change args = %v", args)
		}
		ev := args[0].(*ChangeEvent)
		if filepath.Base(ev.Path) != "touched.txt" {
			t.Errorf("change path = %q", ev.Path)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("fsproxy_test - no change event observed")
	}

	disposed := false
	w.OnDisposed(func() { disposed = true })

	if _, err := w.Invoke(ctx, "close", nil); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !disposed {
		t.Error("expected dispose notification")
	}
	if err := w.Dispose(); err != nil {
		t.Errorf("second dispose: %v", err)
	}
}
