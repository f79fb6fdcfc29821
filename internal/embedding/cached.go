package embedding

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"NewsNarrator/internal/ports"
)

var _ ports.Embedder = (*Cached)(nil)

// Cached memoizes a remote embedder by input text.
type Cached struct {
	next  ports.Embedder
	cache *cache.Cache
}

// NewCached wraps next; entries expire after ttl and are purged every ttl/2.
func NewCached(next ports.Embedder, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cached{next: next, cache: cache.New(ttl, ttl/2)}
}

// Embed returns the cached vector for text or delegates and stores the result.
func (c *Cached) Embed(ctx context.Context, text string) ([]float64, error) {
	if v, found := c.cache.Get(text); found {
		return v.([]float64), nil
	}
	vec, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Set(text, vec, cache.DefaultExpiration)
	return vec, nil
}

// Len reports how many texts are currently cached.
func (c *Cached) Len() int { return c.cache.ItemCount() }
