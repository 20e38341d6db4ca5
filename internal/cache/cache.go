package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Cache stores shingle lists by key
type Cache interface {
	Get(ctx context.Context, key string) ([]string, bool)
	Set(ctx context.Context, key string, shingles []string) error
}

// ShingleKey derives a key from the shingle width and the exact content, so
// any content change produces a different key.
func ShingleKey(k int, content string) string {
	hash := sha256.Sum256([]byte(content))
	return fmt.Sprintf("plagcheck:v1:shingles:%d:%s", k, hex.EncodeToString(hash[:]))
}
