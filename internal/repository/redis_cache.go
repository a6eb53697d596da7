package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	customError "github.com/segyhp/property-engine/pkg/errors"
)

type redisCache struct {
	client  *redis.Client
	breaker *gobreaker.CircuitBreaker
}

// NewRedisCache wraps client in a circuit breaker. After five consecutive
// failures the breaker opens for thirty seconds and every call fails fast.
func NewRedisCache(client *redis.Client, logger *logrus.Logger) Cache {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "redis-cache",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state changed")
		},
	})

	return &redisCache{
		client:  client,
		breaker: breaker,
	}
}

func (c *redisCache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		val, err := c.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			// A miss is a healthy answer and must not count against the breaker.
			return nil, nil
		}
		return val, err
	})
	if err != nil {
		return customError.WrapCacheError(err)
	}

	raw, ok := out.([]byte)
	if !ok || raw == nil {
		return ErrCacheMiss
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return customError.WrapCacheError(err)
	}
	return nil
}

func (c *redisCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return customError.WrapCacheError(err)
	}

	_, err = c.breaker.Execute(func() (interface{}, error) {
		return nil, c.client.Set(ctx, key, payload, ttl).Err()
	})
	if err != nil {
		return customError.WrapCacheError(err)
	}
	return nil
}

func (c *redisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.client.Del(ctx, keys...).Err()
	})
	if err != nil {
		return customError.WrapCacheError(err)
	}
	return nil
}

func (c *redisCache) Incr(ctx context.Context, key string) (int64, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.client.Incr(ctx, key).Result()
	})
	if err != nil {
		return 0, customError.WrapCacheError(err)
	}
	return out.(int64), nil
}

func (c *redisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// noopCache is used when Redis is disabled. Every read is a miss.
type noopCache struct{}

func NewNoopCache() Cache {
	return noopCache{}
}

func (noopCache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	return ErrCacheMiss
}

func (noopCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}

func (noopCache) Delete(ctx context.Context, keys ...string) error {
	return nil
}

func (noopCache) Incr(ctx context.Context, key string) (int64, error) {
	return 0, nil
}

func (noopCache) Ping(ctx context.Context) error {
	return nil
}
