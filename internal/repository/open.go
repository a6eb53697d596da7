package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/property-engine/internal/config"
)

// Stores is the persistence wiring shared by the server and the scheduler.
type Stores struct {
	Bookings BookingRepository
	Reviews  ReviewRepository
	Cache    Cache

	// CacheEnabled reports whether Cache is backed by Redis.
	CacheEnabled bool

	db    *sqlx.DB
	redis *redis.Client
}

// Open connects the configured booking store and, when enabled, Redis.
func Open(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Stores, error) {
	stores := &Stores{Cache: NewNoopCache()}

	switch cfg.Database.Driver {
	case config.DriverMemory:
		memory := NewMemoryStore()
		stores.Bookings = memory.Bookings()
		stores.Reviews = memory.Reviews()
		logger.Warn("using the in-memory store, data is lost on restart")
	default:
		db, err := sqlx.ConnectContext(ctx, "postgres", cfg.Database.DSN())
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

		stores.db = db
		stores.Bookings = NewBookingRepository(db)
		stores.Reviews = NewReviewRepository(db)
	}

	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			// The cache is optional.
			logger.WithError(err).Warn("redis is not reachable yet")
		}
		stores.redis = client
		stores.Cache = NewRedisCache(client, logger)
		stores.CacheEnabled = true
	}

	return stores, nil
}

// Close releases the database pool and the Redis client.
func (s *Stores) Close() error {
	var errs []error
	if s.redis != nil {
		errs = append(errs, s.redis.Close())
	}
	if s.db != nil {
		errs = append(errs, s.db.Close())
	}
	return errors.Join(errs...)
}
