package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache memoizes successful responses in an in-memory LRU keyed by the
// provider name and a prompt digest. Rounds that regenerate an
// identical prompt (reruns, crashes resumed from a checkpoint) skip
// the provider call entirely. Entries expire after ttl; ttl <= 0 keeps
// them until evicted. If size <= 0 a default of 256 is used.
func Cache(size int, ttl time.Duration) Middleware {
	if size <= 0 {
		size = 256
	}
	if ttl < 0 {
		ttl = 0
	}
	return func(next Client) Client {
		return &cached{
			next:  next,
			cache: expirable.NewLRU[string, string](size, nil, ttl),
		}
	}
}

type cached struct {
	next  Client
	cache *expirable.LRU[string, string]
}

func (c *cached) Name() string { return c.next.Name() }
func (c *cached) Close() error { return c.next.Close() }

func (c *cached) Generate(ctx context.Context, prompt string) (string, error) {
	key := cacheKey(c.next.Name(), prompt)
	if out, ok := c.cache.Get(key); ok {
		return out, nil
	}
	out, err := c.next.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	c.cache.Add(key, out)
	return out, nil
}

// cacheKey is model:sha256(prompt) truncated to 16 hex chars.
func cacheKey(name, prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return name + ":" + hex.EncodeToString(sum[:])[:16]
}
