package cache

import (
	"context"
	"sync"
)

// Locker hands out exclusive per-key guards. Entries are
// reference-counted and removed once uncontended, so the table stays
// bounded by the number of in-flight keys. Requests for distinct keys
// never contend beyond the short registry critical section.
type Locker struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	refs int
	sem  chan struct{}
}

func NewLocker() *Locker {
	return &Locker{entries: make(map[string]*lockEntry)}
}

// Lock acquires the guard for key, blocking until it is free or ctx is
// done. The returned release function must be called exactly once.
// Cancelling one waiter does not affect the others.
func (l *Locker) Lock(ctx context.Context, key string) (release func(), err error) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &lockEntry{sem: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
		return func() {
			<-e.sem
			l.unref(key, e)
		}, nil
	case <-ctx.Done():
		l.unref(key, e)
		return nil, ctx.Err()
	}
}

func (l *Locker) unref(key string, e *lockEntry) {
	l.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
	l.mu.Unlock()
}

// pending reports the number of registered keys. Test hook.
func (l *Locker) pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
