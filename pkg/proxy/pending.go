package proxy

import (
	"context"
	"sync"
)

// Pending is a deferred result: it settles exactly once, with either a value
// or an error. Settling more than once is a no-op.
type Pending struct {
	done chan struct{}
	once sync.Once
	v    any
	err  error
}

func (*Pending) isResult() {}

// NewPending creates an unsettled Pending.
func NewPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

// Resolve settles the Pending with a value.
func (p *Pending) Resolve(v any) {
	p.once.Do(func() {
		p.v = v
		close(p.done)
	})
}

// Reject settles the Pending with an error.
func (p *Pending) Reject(err error) {
	p.once.Do(func() {
		p.err = err
		close(p.done)
	})
}

// Wait blocks until the Pending settles or ctx is done.
func (p *Pending) Wait(ctx context.Context) (any, error) {
	select {
	case <-p.done:
		return p.v, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Go runs fn on its own goroutine and returns a Pending settled with its
// outcome. It is the usual way proxy methods produce deferred results.
func Go(fn func() (any, error)) *Pending {
	p := NewPending()
	go func() {
		v, err := fn()
		if err != nil {
			p.Reject(err)
			return
		}
		p.Resolve(v)
	}()
	return p
}
