// Package sessions manages the pool of outbound network identities used
// for fetching. Each session is backed by its own proxy; the pool throttles
// how often any single session can be handed out.
package sessions

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Session is one outbound network identity. An empty ProxyURL means a
// direct connection.
type Session struct {
	Name     string
	ProxyURL string
}

// Source yields a usable session, suspending until one becomes available.
// Acquire returns an error only when ctx is canceled; the pool itself
// always eventually yields a session.
type Source interface {
	Acquire(ctx context.Context, postpone time.Duration) (*Session, error)
}

type entry struct {
	session  *Session
	nextFree time.Time
}

// Pool is a fixed set of sessions. Acquiring a session pushes its next
// availability forward by the postpone duration, so each session is handed
// out at most once per postpone window.
type Pool struct {
	mu      sync.Mutex
	entries []*entry
}

// NewPool creates a pool over the given sessions. At least one session is
// required.
func NewPool(sessions ...*Session) (*Pool, error) {
	if len(sessions) == 0 {
		return nil, fmt.Errorf("session pool requires at least one session")
	}
	entries := make([]*entry, 0, len(sessions))
	for _, s := range sessions {
		entries = append(entries, &entry{session: s})
	}
	return &Pool{entries: entries}, nil
}

// NewDirectPool creates a pool with a single proxyless session.
func NewDirectPool() *Pool {
	return &Pool{entries: []*entry{{session: &Session{Name: "direct"}}}}
}

// Acquire returns the earliest-available session, sleeping until its
// cooldown has passed. The returned session's next availability is moved
// to now+postpone.
func (p *Pool) Acquire(ctx context.Context, postpone time.Duration) (*Session, error) {
	for {
		p.mu.Lock()
		best := p.entries[0]
		for _, e := range p.entries[1:] {
			if e.nextFree.Before(best.nextFree) {
				best = e
			}
		}
		now := time.Now()
		if !best.nextFree.After(now) {
			best.nextFree = now.Add(postpone)
			s := best.session
			p.mu.Unlock()
			return s, nil
		}
		wait := best.nextFree.Sub(now)
		p.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// Len returns the number of sessions in the pool.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}
