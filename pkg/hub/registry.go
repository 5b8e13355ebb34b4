package hub

import (
	"fmt"
	"sort"
	"sync"

	"github.com/morezero/proxy-hub/pkg/proxy"
	"github.com/morezero/proxy-hub/pkg/wire"
)

// Key identifies a registry entry: a built-in module by name, or a vended
// proxy by the call id it was registered under.
type Key struct {
	module   string
	id       int64
	numbered bool
}

// NamedKey returns the key of a built-in module.
func NamedKey(module string) Key {
	return Key{module: module}
}

// NumberedKey returns the key of a vended proxy.
func NumberedKey(id int64) Key {
	return Key{id: id, numbered: true}
}

// KeyForRef maps a wire-level call target to its registry key.
func KeyForRef(ref wire.ProxyRef) Key {
	if ref.ProxyID != nil {
		return NumberedKey(*ref.ProxyID)
	}
	return NamedKey(ref.Module)
}

// Numbered reports whether the key addresses a vended proxy.
func (k Key) Numbered() bool { return k.numbered }

func (k Key) String() string {
	if k.numbered {
		return fmt.Sprintf("#%d", k.id)
	}
	return k.module
}

// registry maps keys to live proxies. It is the single piece of shared
// mutable state in a session; every access goes through the mutex because
// call handlers run on overlapping goroutines.
type registry struct {
	mu      sync.Mutex
	entries map[Key]proxy.Proxy
}

func newRegistry() *registry {
	return &registry{entries: make(map[Key]proxy.Proxy)}
}

func (r *registry) get(key Key) (proxy.Proxy, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.entries[key]
	return p, ok
}

func (r *registry) put(key Key, p proxy.Proxy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key] = p
}

// remove deletes the entry and reports whether it was present. Disposal
// removes each entry exactly once; a second remove for the same key is a
// no-op.
func (r *registry) remove(key Key) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[key]; !ok {
		return false
	}
	delete(r.entries, key)
	return true
}

// drain empties the registry and returns what it held, for teardown.
func (r *registry) drain() map[Key]proxy.Proxy {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := r.entries
	r.entries = make(map[Key]proxy.Proxy)
	return entries
}

func (r *registry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// keys returns the registered keys, built-ins first, for the status page.
func (r *registry) keys() []Key {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Key, 0, len(r.entries))
	for k := range r.entries {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].numbered != out[j].numbered {
			return !out[i].numbered
		}
		if out[i].numbered {
			return out[i].id < out[j].id
		}
		return out[i].module < out[j].module
	})
	return out
}
