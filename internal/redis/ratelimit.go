package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Rate limiting key patterns:
// - ratelimit:{actor}:messages - fixed window, per-minute message limit
// - ratelimit:{ip}:auth - fixed window, per-minute login attempts

// RateLimitConfig contains configuration for rate limiting
type RateLimitConfig struct {
	MessageLimit  int           // Max widget messages per window
	MessageWindow time.Duration // Message rate limit window
	AuthLimit     int           // Max login attempts per window
	AuthWindow    time.Duration // Auth rate limit window
}

// DefaultRateLimitConfig returns sensible defaults
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MessageLimit:  30,
		MessageWindow: 60 * time.Second,
		AuthLimit:     5,
		AuthWindow:    60 * time.Second,
	}
}

// RateLimiter handles rate limiting using Redis
type RateLimiter struct {
	client *goredis.Client
	config RateLimitConfig
}

// RateLimitResult contains the result of a rate limit check
type RateLimitResult struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
	Limit     int
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(client *goredis.Client, config RateLimitConfig) *RateLimiter {
	return &RateLimiter{client: client, config: config}
}

// AllowMessage checks whether the actor (widget customer identity) may send
// another message in the current window.
func (r *RateLimiter) AllowMessage(ctx context.Context, actor string) (RateLimitResult, error) {
	key := fmt.Sprintf("ratelimit:%s:messages", actor)
	return r.allow(ctx, key, r.config.MessageLimit, r.config.MessageWindow)
}

// AllowAuth checks whether the client IP may attempt another login.
func (r *RateLimiter) AllowAuth(ctx context.Context, ip string) (RateLimitResult, error) {
	key := fmt.Sprintf("ratelimit:%s:auth", ip)
	return r.allow(ctx, key, r.config.AuthLimit, r.config.AuthWindow)
}

// allow implements a fixed-window counter: INCR plus EXPIRE on first hit.
func (r *RateLimiter) allow(ctx context.Context, key string, limit int, window time.Duration) (RateLimitResult, error) {
	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	ttl := pipe.TTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return RateLimitResult{}, err
	}

	count := int(incr.Val())
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return RateLimitResult{
		Allowed:   count <= limit,
		Remaining: remaining,
		ResetIn:   ttl.Val(),
		Limit:     limit,
	}, nil
}
