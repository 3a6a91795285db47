package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis wraps a redis client used as a read cache for the public listing and
// summary endpoints. Every method is a no-op on a nil receiver so the service
// runs fine without redis.
type Redis struct {
	Client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to redis with short timeouts.
func NewRedis(addr string, ttl time.Duration) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	return &Redis{Client: client, ttl: ttl}
}

// Healthy verifies redis connectivity.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	return r.Client.Ping(ctx).Err() == nil
}

// GetJSON loads a cached value into dest, reporting whether it was present.
func (r *Redis) GetJSON(ctx context.Context, key string, dest any) bool {
	if r == nil || r.Client == nil {
		return false
	}
	raw, err := r.Client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

// SetJSON stores a value under key for the configured TTL. Failures are
// ignored; the cache is advisory.
func (r *Redis) SetJSON(ctx context.Context, key string, val any) {
	if r == nil || r.Client == nil {
		return
	}
	raw, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = r.Client.Set(ctx, key, raw, r.ttl).Err()
}

// Invalidate drops cached keys after a write.
func (r *Redis) Invalidate(ctx context.Context, keys ...string) {
	if r == nil || r.Client == nil || len(keys) == 0 {
		return
	}
	_ = r.Client.Del(ctx, keys...).Err()
}
