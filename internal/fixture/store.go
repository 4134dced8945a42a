package fixture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ormspec/queryspec/internal/infrastructure/lock"
	"github.com/ormspec/queryspec/internal/infrastructure/persistence"
)

// ErrVersionMismatch is returned when a store already holds another
// version of a fixture's dataset
var ErrVersionMismatch = errors.New("store holds a different dataset version")

// DefaultLockTTL bounds how long a crashed seeder can block others
const DefaultLockTTL = 2 * time.Minute

// SeedMarker records that a fixture has been seeded into a store
type SeedMarker struct {
	Fixture  string `gorm:"primaryKey;size:64"`
	Version  string `gorm:"size:64;not null"`
	SeededAt time.Time
}

func (SeedMarker) TableName() string { return "seed_markers" }

// SharedStore seeds each fixture into a provider's store at most once. The
// seeding is serialized through a Locker so concurrent test binaries and
// goroutines sharing a store do not race.
type SharedStore struct {
	provider string
	locker   lock.Locker
	ttl      time.Duration
	logger   *zap.Logger

	mu    sync.Mutex
	ready map[string]bool
}

// NewSharedStore creates the seeding coordinator for provider
func NewSharedStore(provider string, locker lock.Locker, ttl time.Duration, logger *zap.Logger) *SharedStore {
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SharedStore{
		provider: provider,
		locker:   locker,
		ttl:      ttl,
		logger:   logger,
		ready:    make(map[string]bool),
	}
}

// LockKey is the lock guarding the seeding of fixture on this store
func (s *SharedStore) LockKey(fixture string) string {
	return fmt.Sprintf("queryspec:seed:%s:%s", s.provider, fixture)
}

// Ensure registers fx's models for tracking and seeds its tables unless the
// store already holds the same dataset version.
func (s *SharedStore) Ensure(ctx context.Context, db *persistence.Database, fx Fixture) error {
	if err := db.RegisterModels(fx.Models()...); err != nil {
		return fmt.Errorf("failed to register %s models: %w", fx.Name(), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready[fx.Name()] {
		return nil
	}

	err := lock.With(ctx, s.locker, s.LockKey(fx.Name()), s.ttl, func(ctx context.Context) error {
		return s.seed(ctx, db, fx)
	})
	if err != nil {
		return err
	}
	s.ready[fx.Name()] = true
	return nil
}

func (s *SharedStore) seed(ctx context.Context, db *persistence.Database, fx Fixture) error {
	log := s.logger.With(
		zap.String("provider", s.provider),
		zap.String("fixture", fx.Name()),
		zap.String("version", fx.Version()),
	)

	if err := db.DB.WithContext(ctx).AutoMigrate(&SeedMarker{}); err != nil {
		return fmt.Errorf("failed to migrate seed markers: %w", err)
	}

	var marker SeedMarker
	err := db.DB.WithContext(ctx).Where("fixture = ?", fx.Name()).Limit(1).Find(&marker).Error
	if err != nil {
		return fmt.Errorf("failed to read seed marker: %w", err)
	}
	if marker.Fixture != "" {
		if marker.Version != fx.Version() {
			return fmt.Errorf("%w: %s seeded with %s, want %s", ErrVersionMismatch, fx.Name(), marker.Version, fx.Version())
		}
		log.Debug("fixture already seeded")
		return nil
	}

	start := time.Now()
	if err := db.DB.WithContext(ctx).AutoMigrate(fx.Models()...); err != nil {
		return fmt.Errorf("failed to migrate %s models: %w", fx.Name(), err)
	}
	err = db.Transaction(ctx, func(tx *gorm.DB) error {
		if err := fx.Seed(ctx, tx); err != nil {
			return err
		}
		return tx.Create(&SeedMarker{Fixture: fx.Name(), Version: fx.Version(), SeededAt: time.Now().UTC()}).Error
	})
	if err != nil {
		return fmt.Errorf("failed to seed %s: %w", fx.Name(), err)
	}
	log.Info("fixture seeded", zap.Duration("duration", time.Since(start)))
	return nil
}
