package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"habitat/pkg/platform/sentinel"
)

type entry struct {
	ch   chan struct{}
	refs int
}

// KeyedLocker is an in-process lock table. Entries are reference counted and
// dropped once no goroutine holds or waits on them.
type KeyedLocker struct {
	mu      sync.Mutex
	entries map[string]*entry
	timeout time.Duration
}

// NewKeyedLocker returns a lock table. A positive timeout bounds every
// acquisition in addition to the caller's context.
func NewKeyedLocker(timeout time.Duration) *KeyedLocker {
	return &KeyedLocker{entries: make(map[string]*entry), timeout: timeout}
}

func (l *KeyedLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	select {
	case e.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-e.ch
				l.release(key, e)
			})
		}, nil
	case <-ctx.Done():
		l.release(key, e)
		return nil, fmt.Errorf("%w: %s: %v", sentinel.ErrLockTimeout, key, ctx.Err())
	}
}

// Len returns the number of live entries.
func (l *KeyedLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *KeyedLocker) release(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}
