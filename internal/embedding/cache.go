package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"math"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Cache is the subset of the redis client the cache needs.
type Cache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Cached memoizes another provider in Redis. A cache that is down or holds a
// corrupt entry only costs a provider call; it never fails Embed.
type Cached struct {
	next  Provider
	cache Cache
	model string
	ttl   time.Duration
	log   *zap.Logger
}

// NewCached wraps next. model separates entries of different embedders.
func NewCached(next Provider, cache Cache, model string, ttl time.Duration, log *zap.Logger) *Cached {
	return &Cached{next: next, cache: cache, model: model, ttl: ttl, log: log}
}

func (c *Cached) key(text string) string {
	sum := sha256.Sum256([]byte(c.model + "\x00" + text))
	return "embedding:" + hex.EncodeToString(sum[:])
}

// Embed returns the cached vector or computes and stores it.
func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.key(text)

	raw, err := c.cache.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if v, ok := decodeVector(raw); ok {
			return v, nil
		}
		c.log.Warn("corrupt embedding cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.log.Warn("embedding cache read failed", zap.Error(err))
	}

	v, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, encodeVector(v), c.ttl).Err(); err != nil {
		c.log.Warn("embedding cache write failed", zap.Error(err))
	}
	return v, nil
}

func encodeVector(v []float32) []byte {
	b := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(f))
	}
	return b
}

func decodeVector(b []byte) ([]float32, bool) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, false
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, true
}
