package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds sign-in throttle tuning parameters.
type Config struct {
	Enabled           bool
	EnableIPThrottle  bool
	MaxSignInAttempts int
	Cooldown          time.Duration
	KeyPrefix         string
}

// Limiter enforces per-phone and per-IP sign-in budgets using Redis counters.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a rate [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

// CheckSignIn checks whether the phone+IP pair is within the sign-in
// attempt budget. Returns ErrRateLimited when exhausted.
func (l *Limiter) CheckSignIn(ctx context.Context, phone, ip string) error {
	if !l.config.Enabled {
		return nil
	}
	if err := l.checkCounter(ctx, l.phoneKey(phone)); err != nil {
		return err
	}

	if l.config.EnableIPThrottle && ip != "" {
		if err := l.checkCounter(ctx, l.ipKey(ip)); err != nil {
			return err
		}
	}

	return nil
}

// IncrementSignIn records a failed sign-in for the phone+IP pair.
func (l *Limiter) IncrementSignIn(ctx context.Context, phone, ip string) error {
	if !l.config.Enabled {
		return nil
	}
	count, err := l.incrementWithTTL(ctx, l.phoneKey(phone), l.config.Cooldown)
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxSignInAttempts) {
		return ErrRateLimited
	}

	if l.config.EnableIPThrottle && ip != "" {
		count, err = l.incrementWithTTL(ctx, l.ipKey(ip), l.config.Cooldown)
		if err != nil {
			return err
		}
		if count > int64(l.config.MaxSignInAttempts) {
			return ErrRateLimited
		}
	}

	return nil
}

// ResetSignIn clears the failed sign-in counters after a successful sign-in.
// The IP counter is shared by every phone behind that address and is left
// to expire on its own.
func (l *Limiter) ResetSignIn(ctx context.Context, phone string) error {
	if !l.config.Enabled {
		return nil
	}
	if err := l.redis.Del(ctx, l.phoneKey(phone)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// SignInAttempts returns the current failed-attempt counter for a phone.
// Missing keys return zero and do not reveal account existence.
func (l *Limiter) SignInAttempts(ctx context.Context, phone string) (int, error) {
	count, err := l.redis.Get(ctx, l.phoneKey(phone)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return int(count), nil
}

func (l *Limiter) checkCounter(ctx context.Context, key string) error {
	count, err := l.redis.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	if count >= int64(l.config.MaxSignInAttempts) {
		return ErrRateLimited
	}

	return nil
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}

func (l *Limiter) phoneKey(phone string) string {
	return l.config.KeyPrefix + "si:" + phone
}

func (l *Limiter) ipKey(ip string) string {
	return l.config.KeyPrefix + "sii:" + ip
}
