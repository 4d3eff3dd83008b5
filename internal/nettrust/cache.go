package nettrust

import (
	"context"
	"log/slog"
	"time"

	platformredis "attendly/internal/platform/redis"
)

const cacheKeyPrefix = "nettrust:"

// CachedProbe memoizes reputation verdicts in Redis. Cache faults are
// ignored and fall through to the inner probe, keeping the fail-open
// contract intact end to end.
type CachedProbe struct {
	inner  Probe
	client *platformredis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedProbe wraps inner with a Redis cache. If client is nil the
// inner probe is returned unchanged.
func NewCachedProbe(inner Probe, client *platformredis.Client, ttl time.Duration, logger *slog.Logger) Probe {
	if client == nil {
		return inner
	}
	return &CachedProbe{inner: inner, client: client, ttl: ttl, logger: logger}
}

// IsUntrusted implements Probe.
func (c *CachedProbe) IsUntrusted(ctx context.Context, address string) bool {
	if address == "" {
		return false
	}
	key := cacheKeyPrefix + address

	if cached, err := c.client.Get(ctx, key).Result(); err == nil {
		return cached == "1"
	}

	untrusted := c.inner.IsUntrusted(ctx, address)

	val := "0"
	if untrusted {
		val = "1"
	}
	if err := c.client.Set(ctx, key, val, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "nettrust cache write failed",
			"address", address,
			"error", err.Error(),
		)
	}
	return untrusted
}
