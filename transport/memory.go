/* Minindn AVS - adaptive video selection over NDN
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package transport

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/boss-server-ops/Minindn/core"
	"github.com/boss-server-ops/Minindn/protocol"
)

type response struct {
	content []byte
	err     error
}

type waiter struct {
	owner *Endpoint
	ch    chan response
}

type pitEntry struct {
	deadline time.Time
	waiters  []*waiter
}

type fibEntry struct {
	owner   *Endpoint
	handler Handler
}

// Bus is an in-process network. Each role obtains an Endpoint from it;
// requests are routed to the endpoint holding the longest matching prefix.
type Bus struct {
	mu  sync.Mutex
	fib map[string]fibEntry
	pit map[string]*pitEntry
}

// NewBus creates an empty in-process network.
func NewBus() *Bus {
	return &Bus{
		fib: make(map[string]fibEntry),
		pit: make(map[string]*pitEntry),
	}
}

// Endpoint returns a new transport attached to the bus.
func (b *Bus) Endpoint(id string) *Endpoint {
	return &Endpoint{bus: b, id: id}
}

// Endpoint is one role's attachment to a Bus.
type Endpoint struct {
	bus    *Bus
	id     string
	closed bool
}

func (e *Endpoint) String() string {
	return "Endpoint(" + e.id + ")"
}

func (b *Bus) lookup(name string) (fibEntry, bool) {
	comps := protocol.Components(name)
	for i := len(comps); i > 0; i-- {
		if h, ok := b.fib["/"+strings.Join(comps[:i], "/")]; ok {
			return h, true
		}
	}
	return fibEntry{}, false
}

func (e *Endpoint) Express(ctx context.Context, name string, params []byte, lifetime time.Duration) ([]byte, error) {
	full := FullName(protocol.StripDigest(name), params)
	deadline := time.Now().Add(lifetime)
	w := &waiter{owner: e, ch: make(chan response, 1)}

	b := e.bus
	b.mu.Lock()
	if e.closed {
		b.mu.Unlock()
		return nil, ErrClosed
	}
	route, ok := b.lookup(full)
	if !ok {
		b.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNoRoute, full)
	}
	entry, aggregated := b.pit[full]
	if !aggregated {
		entry = &pitEntry{deadline: deadline}
		b.pit[full] = entry
	} else if deadline.After(entry.deadline) {
		entry.deadline = deadline
	}
	entry.waiters = append(entry.waiters, w)
	b.mu.Unlock()

	if !aggregated {
		core.LogTrace(e, "Request ", full, " -> ", route.owner)
		go route.handler(Request{Name: full, Params: params, Deadline: deadline})
	}

	timer := time.NewTimer(lifetime)
	defer timer.Stop()

	select {
	case r := <-w.ch:
		return r.content, r.err
	case <-timer.C:
		b.removeWaiter(full, w)
		return nil, fmt.Errorf("%w: %s", ErrTimeout, full)
	case <-ctx.Done():
		b.removeWaiter(full, w)
		return nil, ctx.Err()
	}
}

func (b *Bus) removeWaiter(name string, w *waiter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entry, ok := b.pit[name]
	if !ok {
		return
	}
	for i, x := range entry.waiters {
		if x == w {
			entry.waiters = append(entry.waiters[:i], entry.waiters[i+1:]...)
			break
		}
	}
	if len(entry.waiters) == 0 {
		delete(b.pit, name)
	}
}

// Respond satisfies every waiter of name. Freshness is not used on the bus.
func (e *Endpoint) Respond(name string, content []byte, freshness time.Duration) error {
	b := e.bus
	b.mu.Lock()
	if e.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	entry, ok := b.pit[name]
	if ok {
		delete(b.pit, name)
	}
	b.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotPending, name)
	}
	if time.Now().After(entry.deadline) {
		return fmt.Errorf("%w: %s expired", ErrNotPending, name)
	}
	for _, w := range entry.waiters {
		w.ch <- response{content: content}
	}
	return nil
}

func (e *Endpoint) Attach(prefix string, h Handler) error {
	prefix = protocol.StripDigest(prefix)
	b := e.bus
	b.mu.Lock()
	defer b.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	if _, ok := b.fib[prefix]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateHandler, prefix)
	}
	b.fib[prefix] = fibEntry{owner: e, handler: h}
	core.LogDebug(e, "Announced prefix ", prefix)
	return nil
}

func (e *Endpoint) Detach(prefix string) error {
	prefix = protocol.StripDigest(prefix)
	b := e.bus
	b.mu.Lock()
	defer b.mu.Unlock()
	if f, ok := b.fib[prefix]; ok && f.owner == e {
		delete(b.fib, prefix)
	}
	return nil
}

// Close withdraws the endpoint's prefixes and fails its outstanding requests.
func (e *Endpoint) Close() error {
	b := e.bus
	b.mu.Lock()
	defer b.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	for prefix, f := range b.fib {
		if f.owner == e {
			delete(b.fib, prefix)
		}
	}
	for name, entry := range b.pit {
		kept := entry.waiters[:0]
		for _, w := range entry.waiters {
			if w.owner == e {
				w.ch <- response{err: ErrClosed}
			} else {
				kept = append(kept, w)
			}
		}
		entry.waiters = kept
		if len(kept) == 0 {
			delete(b.pit, name)
		}
	}
	return nil
}
