// Package proxy defines the capability contracts for server-resident objects
// addressable over a proxy-hub session, and the discriminated result type
// their methods return.
package proxy

import (
	"context"
	"errors"
)

// ErrMethodNotFound marks a method name the proxy does not implement.
// Invoke implementations return it (possibly wrapped) so the hub can report
// the call as not invocable instead of a downstream failure.
var ErrMethodNotFound = errors.New("method not found")

// Proxy is the minimal capability every registered object implements.
type Proxy interface {
	// Invoke calls the named method with decoded arguments. The returned
	// Result must be non-nil when err is nil.
	Invoke(ctx context.Context, method string, args []any) (Result, error)
}

// Disposer is implemented by proxies that hold releasable resources.
type Disposer interface {
	Dispose() error
}

// Emitter is the event-subscription hook. Its presence is what classifies a
// value as a live proxy.
type Emitter interface {
	OnEvent(fn func(event string, args []any))
}

// DisposeNotifier is implemented by proxies that announce their own disposal.
type DisposeNotifier interface {
	OnDisposed(fn func())
}

// Result is the discriminated return type of a proxy method: an immediate
// Value, a deferred *Pending, or a synchronously vended NewProxy.
type Result interface {
	isResult()
}

// Value is an immediate response payload. A nil V is the empty payload.
type Value struct {
	V any
}

func (Value) isResult() {}

// NewProxy hands a freshly vended proxy back to the caller. Vended proxies
// must be returned synchronously, never through a Pending.
type NewProxy struct {
	P Proxy
}

func (NewProxy) isResult() {}
