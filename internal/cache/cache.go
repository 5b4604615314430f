package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache stores annotation results for the lifetime of the process
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key builds a cache key from the model name and the annotated text
func Key(modelName string, text string) string {
	hash := sha256.Sum256([]byte(text))
	return "legalner:v1:" + modelName + ":" + hex.EncodeToString(hash[:])
}
