package clone

import (
	"context"
	"sync"

	"simguard/pkg/platform/sentinel"
)

// Locker provides per-card mutual exclusion. Acquire returns
// sentinel.ErrLocked without waiting when the key is already held; waiting
// would hide a concurrent clone of the same source from the caller.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// InMemoryLocker is the single-process Locker.
type InMemoryLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func NewInMemoryLocker() *InMemoryLocker {
	return &InMemoryLocker{held: make(map[string]bool)}
}

func (l *InMemoryLocker) Acquire(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return nil, sentinel.ErrLocked
	}
	l.held[key] = true
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
	}, nil
}
