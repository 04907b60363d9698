package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache stores fetched provider pages between runs so that URL resolution
// does not hit the network on every invocation.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// PageKey derives a cache key from a page URL.
func PageKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return "coronamap:page:v1:" + hex.EncodeToString(sum[:])
}
