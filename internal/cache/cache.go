package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching fetched document text
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key generates a namespaced cache key from a source identifier
func Key(source string) string {
	hash := sha256.Sum256([]byte(source))
	return "dashforge:v1:" + hex.EncodeToString(hash[:])
}
