package cache

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/minio/highwayhash"
	"github.com/vmihailenco/msgpack/v5"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the value stored under key. Any failure reports a miss.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores value under key for ttl. A non-positive ttl never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)

	// Delete removes key if present.
	Delete(ctx context.Context, key string)

	// InvalidatePattern removes every key starting with prefix and reports
	// how many were removed.
	InvalidatePattern(ctx context.Context, prefix string) int

	Close() error
}

// hashKey is the fixed HighwayHash key. Changing it invalidates every
// persisted cache entry.
var hashKey = []byte("juris-cache-key-highwayhash-v001")

// Key builds "prefix:<16 hex chars>" from the msgpack encoding of payload.
func Key(prefix string, payload any) (string, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(payload); err != nil {
		return "", fmt.Errorf("encoding cache key payload: %w", err)
	}

	h, err := highwayhash.New64(hashKey)
	if err != nil {
		return "", err
	}
	h.Write(buf.Bytes())

	sum := hex.EncodeToString(h.Sum(nil))
	return prefix + ":" + sum[:16], nil
}

// TTLs holds the expiry for each kind of cached value.
type TTLs struct {
	Embeddings time.Duration `yaml:"embeddings"`
	Search     time.Duration `yaml:"search"`
	Analysis   time.Duration `yaml:"analysis"`
}

func DefaultTTLs() TTLs {
	return TTLs{
		Embeddings: 3600 * time.Second,
		Search:     3600 * time.Second,
		Analysis:   7200 * time.Second,
	}
}
