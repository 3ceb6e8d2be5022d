// Package cache provides TTL caches for upstream weather payloads.
package cache

import (
	"context"
	"fmt"
	"time"
)

// DefaultTTL is how long a successful upstream response stays fresh.
const DefaultTTL = 10 * time.Minute

// Entry is a cached value with its insertion and expiry timestamps.
type Entry[V any] struct {
	Key       string    `json:"key"`
	Value     V         `json:"value"`
	StoredAt  time.Time `json:"storedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the entry is stale at now.
func (e Entry[V]) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// Store is a key/value cache whose entries expire after a TTL.
// A failing backend behaves as a miss; callers never see cache errors.
type Store[V any] interface {
	Get(ctx context.Context, key string) (V, bool)
	Put(ctx context.Context, key string, value V, ttl time.Duration)
	Invalidate(ctx context.Context, key string)
	Clear(ctx context.Context)
	EvictExpired(ctx context.Context) int
	Len(ctx context.Context) int
}

// Kind names the upstream call a cache key belongs to.
type Kind string

const (
	KindCurrent  Kind = "current"
	KindForecast Kind = "forecast"
	KindAlerts   Kind = "alerts"
)

// Key builds the cache key for a call. Coordinates are rounded to four decimals
// (about 11 m) so nearby requests share entries. days is omitted when zero.
func Key(kind Kind, lat, lng float64, days int) string {
	if days > 0 {
		return fmt.Sprintf("%s:%.4f:%.4f:%d", kind, lat, lng, days)
	}
	return fmt.Sprintf("%s:%.4f:%.4f", kind, lat, lng)
}
