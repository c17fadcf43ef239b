package session

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-parents/core/parent"
)

// Locker serializes work per key (parent id).
type Locker interface {
	// Lock blocks until key is free or ctx is done, and returns the func releasing it.
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// LockerFor returns the lock shared by every replica using store when it has one,
// a process-local lock otherwise.
func LockerFor(store parent.SessionStore) Locker {
	if l, ok := store.(Locker); ok {
		return l
	}
	return NewLocalLocker()
}

type keyLock struct {
	sem  chan struct{}
	refs int
}

// LocalLocker only serializes the requests served by this process.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

var _ Locker = (*LocalLocker)(nil)

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*keyLock)}
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{sem: make(chan struct{}, 1)}
		l.locks[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	select {
	case kl.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(key, kl)
		return nil, errors.Wrap(ctx.Err(), "waiting for session lock")
	}
	return func() {
		<-kl.sem
		l.release(key, kl)
	}, nil
}

func (l *LocalLocker) release(key string, kl *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, key)
	}
}
