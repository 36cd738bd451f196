package embedding

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Lazy wraps a Store behind one-time construction. Concurrent first callers
// share a single build instead of racing to fetch and parse the same data;
// once a build succeeds the store is memoized for the life of the process. A
// failed build is not memoized, so a later caller can retry.
type Lazy struct {
	build func(context.Context) (*Store, error)

	group singleflight.Group

	mu    sync.RWMutex
	store *Store
}

func NewLazy(build func(context.Context) (*Store, error)) *Lazy {
	return &Lazy{build: build}
}

func (l *Lazy) Get(ctx context.Context) (*Store, error) {
	l.mu.RLock()
	store := l.store
	l.mu.RUnlock()
	if store != nil {
		return store, nil
	}

	v, err, _ := l.group.Do("embedding", func() (interface{}, error) {
		l.mu.RLock()
		store := l.store
		l.mu.RUnlock()
		if store != nil {
			return store, nil
		}

		store, err := l.build(ctx)
		if err != nil {
			return nil, err
		}

		l.mu.Lock()
		l.store = store
		l.mu.Unlock()

		return store, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Store), nil
}
