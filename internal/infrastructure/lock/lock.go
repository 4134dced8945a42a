// Package lock serializes seeding of shared stores across goroutines and,
// with the Redis backend, across processes.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ormspec/queryspec/internal/infrastructure/config"
)

// ErrNotHeld is returned when releasing a lease that expired or was taken over
var ErrNotHeld = errors.New("lock not held")

// Locker hands out exclusive leases on named keys
type Locker interface {
	// Acquire blocks until the key is free or ctx is done. The lease expires
	// after ttl if it is never released.
	Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error)
}

// Lease is a held lock
type Lease interface {
	Release(ctx context.Context) error
}

// New builds the locker selected by cfg
func New(cfg config.LockConfig, logger *zap.Logger) (Locker, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Backend {
	case "", "local":
		return NewLocalLocker(), nil
	case "redis":
		l, err := NewRedisLocker(RedisOptions{
			Addr:          cfg.Redis.Addr,
			Password:      cfg.Redis.Password,
			DB:            cfg.Redis.DB,
			RetryInterval: cfg.RetryInterval,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("using Redis store lock", zap.String("addr", cfg.Redis.Addr))
		return l, nil
	default:
		return nil, fmt.Errorf("unknown lock backend %q", cfg.Backend)
	}
}

// With runs fn while holding key
func With(ctx context.Context, l Locker, key string, ttl time.Duration, fn func(ctx context.Context) error) error {
	lease, err := l.Acquire(ctx, key, ttl)
	if err != nil {
		return fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	fnErr := fn(ctx)
	// release on a fresh context so a cancelled run still frees the key
	relCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := lease.Release(relCtx); err != nil && fnErr == nil {
		return fmt.Errorf("failed to release lock %s: %w", key, err)
	}
	return fnErr
}
