// Package hub implements the core of the proxy-hub session: the proxy
// registry, the call dispatcher, event and dispose forwarding, and the
// handshake. A Hub owns exactly one logical client connection.
package hub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/morezero/proxy-hub/pkg/codec"
	"github.com/morezero/proxy-hub/pkg/proxy"
	"github.com/morezero/proxy-hub/pkg/wire"
)

const logPrefix = "hub:session"

// disposeEventDelay pushes the dispose event behind events the proxy emitted
// on the same turn as its disposal. Best-effort ordering aid, not a
// guarantee.
const disposeEventDelay = 10 * time.Millisecond

// Transport accepts outbound envelope bytes for delivery to the client.
// Inbound bytes are pushed into the hub via HandleMessage; connection
// closure is signalled via Close.
type Transport interface {
	Send(data []byte) error
}

// Options configures a Hub.
type Options struct {
	// Builtins are seeded into the registry under their module names
	// before any message is processed.
	Builtins map[string]proxy.Proxy
	// Handshake, when non-nil, triggers the Init envelope and directory
	// provisioning. Nil skips the handshake entirely (logged as a
	// warning); built-ins stay available.
	Handshake *HandshakeConfig
}

// Hub dispatches inbound envelopes to registered proxies and forwards their
// results, errors, and events back over the transport.
type Hub struct {
	tr     Transport
	reg    *registry
	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool
}

// New creates a Hub, seeds the built-in proxies, and starts the handshake.
// An unrecognized platform is the one fatal condition: the server cannot
// describe itself to the client, so construction aborts.
func New(tr Transport, opts Options) (*Hub, error) {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		tr:     tr,
		reg:    newRegistry(),
		ctx:    ctx,
		cancel: cancel,
	}

	for name, p := range opts.Builtins {
		h.attach(NamedKey(name), p)
	}

	if opts.Handshake == nil {
		slog.Warn(fmt.Sprintf("%s - no handshake configuration supplied, skipping init envelope", logPrefix))
		return h, nil
	}

	if err := h.startHandshake(opts.Handshake); err != nil {
		cancel()
		return nil, err
	}
	return h, nil
}

// HandleMessage processes one inbound message from the transport. Malformed
// messages are logged and dropped: without a call id there is nothing to
// respond to.
func (h *Hub) HandleMessage(data []byte) {
	if h.closed.Load() {
		return
	}

	env, err := wire.Unmarshal(data)
	if err != nil {
		slog.Error(fmt.Sprintf("%s - dropping inbound message: %v", logPrefix, err))
		return
	}

	switch env.Type {
	case wire.TypePing:
		h.send(wire.NewPong())
	case wire.TypeMethod:
		// Each call progresses independently: a call blocked on a
		// deferred result must not stall later messages.
		go h.dispatch(env.Method)
	default:
		slog.Error(fmt.Sprintf("%s - dropping inbound %s envelope: not a client message", logPrefix, env.Type))
	}
}

// dispatch runs the call-routing algorithm for one method call.
func (h *Hub) dispatch(call *wire.MethodCall) {
	key := KeyForRef(call.Target)

	args, err := decodeArgs(call.Args)
	if err != nil {
		h.fail(call.ID, ErrCodeInvalidArgument,
			fmt.Sprintf("failed to decode arguments for %s.%s: %v", key, call.Method, err))
		return
	}

	p, ok := h.reg.get(key)
	if !ok {
		h.fail(call.ID, ErrCodeTargetNotFound,
			fmt.Sprintf("no proxy registered under %s", key))
		return
	}

	res, err := p.Invoke(h.ctx, call.Method, args)
	if err != nil {
		if errors.Is(err, proxy.ErrMethodNotFound) {
			h.fail(call.ID, ErrCodeMethodNotInvocable,
				fmt.Sprintf("method %q is not invocable on %s", call.Method, key))
			return
		}
		// Downstream failure: forward the original error unwrapped.
		h.failWith(call.ID, err)
		return
	}

	switch r := res.(type) {
	case proxy.Value:
		h.succeed(call.ID, r.V)

	case proxy.NewProxy:
		// The client already knows the new proxy's id (the call id),
		// so the response payload stays empty.
		h.attach(NumberedKey(call.ID), r.P)
		h.succeed(call.ID, nil)

	case *proxy.Pending:
		v, werr := r.Wait(h.ctx)
		if werr != nil {
			h.failWith(call.ID, werr)
			return
		}
		if _, isProxy := v.(proxy.Emitter); isProxy {
			h.fail(call.ID, ErrCodeContractViolation,
				fmt.Sprintf("method %q resolved its deferred result to a proxy; proxies must be returned synchronously", call.Method))
			return
		}
		h.succeed(call.ID, v)

	default:
		// nil or foreign Result: a server-side bug in the invoked proxy.
		slog.Error(fmt.Sprintf("%s - method %q on %s returned invalid result %T", logPrefix, call.Method, key, res))
		h.fail(call.ID, ErrCodeContractViolation,
			fmt.Sprintf("method %q returned %T; a call must return a value, a deferred result, or a proxy", call.Method, res))
	}
}

// attach registers a proxy and wires its event and dispose forwarding.
func (h *Hub) attach(key Key, p proxy.Proxy) {
	h.reg.put(key, p)

	if em, ok := p.(proxy.Emitter); ok {
		em.OnEvent(func(event string, args []any) {
			h.forwardEvent(key, event, args)
		})
	}

	if dn, ok := p.(proxy.DisposeNotifier); ok {
		dn.OnDisposed(func() {
			// Remove first so no further call can target the entry;
			// the dispose event trails same-turn sibling events.
			if !h.reg.remove(key) {
				return
			}
			time.AfterFunc(disposeEventDelay, func() {
				h.forwardEvent(key, "dispose", nil)
			})
		})
	}
}

// forwardEvent encodes and sends one proxy event. Per-proxy emission order
// is preserved because emitters publish synchronously into this path.
func (h *Hub) forwardEvent(key Key, event string, args []any) {
	ev := &wire.Event{Event: event}
	if key.numbered {
		ev.ProxyID = key.id
	} else {
		ev.Module = key.module
	}

	for _, a := range args {
		s, err := codec.Encode(a)
		if err != nil {
			slog.Error(fmt.Sprintf("%s - dropping event %q from %s: %v", logPrefix, event, key, err))
			return
		}
		ev.Args = append(ev.Args, s)
	}

	h.send(wire.NewEvent(ev))
}

func (h *Hub) succeed(id int64, v any) {
	payload, err := codec.Encode(v)
	if err != nil {
		h.fail(id, ErrCodeDownstream, fmt.Sprintf("failed to encode response: %v", err))
		return
	}
	h.send(wire.NewSuccess(id, payload))
}

func (h *Hub) fail(id int64, code, message string) {
	h.failWith(id, NewDispatchError(code, message))
}

func (h *Hub) failWith(id int64, callErr error) {
	payload, err := codec.Encode(callErr)
	if err != nil {
		slog.Error(fmt.Sprintf("%s - failed to encode call error: %v", logPrefix, err))
		payload, _ = codec.Encode(NewDispatchError(ErrCodeDownstream, callErr.Error()))
	}
	h.send(wire.NewFail(id, payload))
}

func (h *Hub) send(env *wire.Envelope) {
	if h.closed.Load() {
		return
	}
	data, err := wire.Marshal(env)
	if err != nil {
		slog.Error(fmt.Sprintf("%s - %v", logPrefix, err))
		return
	}
	if err := h.tr.Send(data); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to send %s envelope: %v", logPrefix, env.Type, err))
	}
}

// Close tears down the session: every registered proxy is disposed
// best-effort and the registry is cleared. No messages are processed and no
// envelopes are sent afterwards. Idempotent.
func (h *Hub) Close() {
	if !h.closed.CompareAndSwap(false, true) {
		return
	}
	h.cancel()

	entries := h.reg.drain()
	for key, p := range entries {
		d, ok := p.(proxy.Disposer)
		if !ok {
			continue
		}
		disposeQuietly(key, d)
	}
	slog.Info(fmt.Sprintf("%s - session closed, %d proxies torn down", logPrefix, len(entries)))
}

// disposeQuietly invokes Dispose so that one failing proxy cannot block
// cleanup of the rest.
func disposeQuietly(key Key, d proxy.Disposer) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error(fmt.Sprintf("%s - panic disposing %s: %v", logPrefix, key, r))
		}
	}()
	if err := d.Dispose(); err != nil {
		slog.Warn(fmt.Sprintf("%s - failed to dispose %s: %v", logPrefix, key, err))
	}
}

// Closed reports whether the session has been torn down.
func (h *Hub) Closed() bool {
	return h.closed.Load()
}

// ProxyInfo describes one registry entry for introspection.
type ProxyInfo struct {
	Ref  string `json:"ref"`
	Kind string `json:"kind"`
}

// Proxies lists the live registry entries, built-ins first.
func (h *Hub) Proxies() []ProxyInfo {
	keys := h.reg.keys()
	out := make([]ProxyInfo, 0, len(keys))
	for _, k := range keys {
		kind := "builtin"
		if k.Numbered() {
			kind = "vended"
		}
		out = append(out, ProxyInfo{Ref: k.String(), Kind: kind})
	}
	return out
}

func decodeArgs(encoded []string) ([]any, error) {
	if len(encoded) == 0 {
		return nil, nil
	}
	args := make([]any, len(encoded))
	for i, s := range encoded {
		v, err := codec.Decode(s)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		args[i] = v
	}
	return args, nil
}
