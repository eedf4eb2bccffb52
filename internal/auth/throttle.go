package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/secureleak/report-service/internal/config"
)

// Throttle counts authentication attempts per client IP in Redis to slow
// down credential stuffing. It fails open: when Redis is unreachable the
// attempt is allowed, because throttling must never take down login.
type Throttle struct {
	client *redis.Client
	logger *zap.Logger
	max    int
	window time.Duration
}

// NewThrottle builds a throttle from configuration. A nil client disables
// throttling entirely.
func NewThrottle(client *redis.Client, cfg config.AuthConfig, logger *zap.Logger) *Throttle {
	max := cfg.LoginMaxAttempts
	if max <= 0 {
		max = 10
	}
	return &Throttle{
		client: client,
		logger: logger,
		max:    max,
		window: cfg.LoginWindow(),
	}
}

// Allow records an attempt from the given client IP and reports whether
// it is within the window limit.
func (t *Throttle) Allow(ctx context.Context, clientIP string) bool {
	if t == nil || t.client == nil || clientIP == "" {
		return true
	}

	key := fmt.Sprintf("auth_attempts:%s", clientIP)
	count, err := t.client.Incr(ctx, key).Result()
	if err != nil {
		t.logger.Warn("auth throttle unavailable", zap.Error(err))
		return true
	}
	if count == 1 {
		if err := t.client.Expire(ctx, key, t.window).Err(); err != nil {
			t.logger.Warn("auth throttle expire failed", zap.Error(err))
		}
	}
	return count <= int64(t.max)
}

// Reset clears the attempt counter for the given client IP.
func (t *Throttle) Reset(ctx context.Context, clientIP string) {
	if t == nil || t.client == nil || clientIP == "" {
		return
	}
	if err := t.client.Del(ctx, fmt.Sprintf("auth_attempts:%s", clientIP)).Err(); err != nil {
		t.logger.Warn("auth throttle reset failed", zap.Error(err))
	}
}
