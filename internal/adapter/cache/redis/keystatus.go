// Package redis caches key probe results in Redis. Secrets are stored only
// as keyed BLAKE2b fingerprints.
package redis

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"

	"github.com/fairyhunter13/ai-provider-router/internal/domain"
)

const keyPrefix = "keystatus:"

// KeyStatusCache implements domain.KeyStatusCache.
type KeyStatusCache struct {
	rdb  goredis.UniversalClient
	ttl  time.Duration
	salt []byte
}

// NewKeyStatusCache wraps rdb. salt personalises fingerprints so hashes from
// one deployment are useless against another; it may be empty.
func NewKeyStatusCache(rdb goredis.UniversalClient, ttl time.Duration, salt string) *KeyStatusCache {
	return &KeyStatusCache{rdb: rdb, ttl: ttl, salt: []byte(salt)}
}

// NewClient parses a redis:// URL.
func NewClient(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("op=redis.parse_url: %w", err)
	}
	return goredis.NewClient(opts), nil
}

// fingerprint returns the cache key for p and secret.
func (c *KeyStatusCache) fingerprint(p domain.ProviderID, secret string) (string, error) {
	var key []byte
	if len(c.salt) > 0 {
		// blake2b keys are at most 64 bytes.
		sum := blake2b.Sum256(c.salt)
		key = sum[:]
	}
	h, err := blake2b.New256(key)
	if err != nil {
		return "", err
	}
	h.Write([]byte(p))
	h.Write([]byte{0})
	h.Write([]byte(secret))
	return keyPrefix + string(p) + ":" + hex.EncodeToString(h.Sum(nil)), nil
}

// Get returns the cached status; ok is false on a miss.
func (c *KeyStatusCache) Get(ctx context.Context, p domain.ProviderID, secret string) (domain.KeyStatus, bool, error) {
	k, err := c.fingerprint(p, secret)
	if err != nil {
		return "", false, fmt.Errorf("op=keystatus.get: %w", err)
	}
	v, err := c.rdb.Get(ctx, k).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("op=keystatus.get: %w", err)
	}
	switch st := domain.KeyStatus(v); st {
	case domain.KeyWorking, domain.KeyInvalid:
		return st, true, nil
	}
	// Unknown value, treat as a miss so the key is re-probed.
	return "", false, nil
}

// Set stores st for the configured TTL.
func (c *KeyStatusCache) Set(ctx context.Context, p domain.ProviderID, secret string, st domain.KeyStatus) error {
	k, err := c.fingerprint(p, secret)
	if err != nil {
		return fmt.Errorf("op=keystatus.set: %w", err)
	}
	if err := c.rdb.Set(ctx, k, string(st), c.ttl).Err(); err != nil {
		return fmt.Errorf("op=keystatus.set: %w", err)
	}
	return nil
}
