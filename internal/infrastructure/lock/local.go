package lock

import (
	"context"
	"sync"
	"time"
)

// LocalLocker serializes holders inside one process. A lease that outlives
// its ttl is taken over by the next Acquire.
type LocalLocker struct {
	mu    sync.Mutex
	held  map[string]*holder
	epoch uint64
}

type holder struct {
	id        uint64
	expiresAt time.Time
	released  chan struct{}
}

// NewLocalLocker creates an in-process locker
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]*holder)}
}

// Acquire waits for key to become free
func (l *LocalLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error) {
	for {
		l.mu.Lock()
		h, busy := l.held[key]
		if !busy || !time.Now().Before(h.expiresAt) {
			l.epoch++
			l.held[key] = &holder{
				id:        l.epoch,
				expiresAt: time.Now().Add(ttl),
				released:  make(chan struct{}),
			}
			lease := &localLease{locker: l, key: key, id: l.epoch}
			l.mu.Unlock()
			return lease, nil
		}
		wait := time.Until(h.expiresAt)
		released := h.released
		l.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-released:
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
		timer.Stop()
	}
}

type localLease struct {
	locker *LocalLocker
	key    string
	id     uint64
}

func (ll *localLease) Release(context.Context) error {
	l := ll.locker
	l.mu.Lock()
	defer l.mu.Unlock()
	h, ok := l.held[ll.key]
	if !ok || h.id != ll.id {
		return ErrNotHeld
	}
	delete(l.held, ll.key)
	close(h.released)
	return nil
}
