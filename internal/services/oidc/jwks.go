package oidc

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

// DefaultJWKSTTL is how long fetched keys are trusted before refetching
const DefaultJWKSTTL = time.Hour

type cachedKeySet struct {
	set       jwk.Set
	fetchedAt time.Time
}

// KeyCache holds one key set per JWKS URL and refetches it once the TTL passes.
// Concurrent misses for the same URL share a single fetch.
type KeyCache struct {
	ttl    time.Duration
	client *http.Client
	now    func() time.Time

	mu       sync.Mutex
	sets     map[string]cachedKeySet
	inflight map[string]chan struct{}
}

// NewKeyCache returns a cache with the given TTL; zero or negative uses DefaultJWKSTTL
func NewKeyCache(ttl time.Duration) *KeyCache {
	if ttl <= 0 {
		ttl = DefaultJWKSTTL
	}
	return &KeyCache{
		ttl:      ttl,
		client:   &http.Client{Timeout: 10 * time.Second},
		now:      time.Now,
		sets:     make(map[string]cachedKeySet),
		inflight: make(map[string]chan struct{}),
	}
}

// Invalidate forgets the key set for jwksURL
func (c *KeyCache) Invalidate(jwksURL string) {
	c.mu.Lock()
	delete(c.sets, jwksURL)
	c.mu.Unlock()
}

// InvalidateOlderThan forgets the key set for jwksURL if it was fetched more than age ago.
// It reports whether anything was dropped.
func (c *KeyCache) InvalidateOlderThan(jwksURL string, age time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	cached, ok := c.sets[jwksURL]
	if !ok || c.now().Sub(cached.fetchedAt) < age {
		return false
	}
	delete(c.sets, jwksURL)
	return true
}

// Keys returns the key set published at jwksURL
func (c *KeyCache) Keys(ctx context.Context, jwksURL string) (jwk.Set, error) {
	for {
		c.mu.Lock()
		if cached, ok := c.sets[jwksURL]; ok && c.now().Sub(cached.fetchedAt) < c.ttl {
			c.mu.Unlock()
			return cached.set, nil
		}
		wait, busy := c.inflight[jwksURL]
		if !busy {
			done := make(chan struct{})
			c.inflight[jwksURL] = done
			c.mu.Unlock()
			return c.refresh(ctx, jwksURL, done)
		}
		c.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (c *KeyCache) refresh(ctx context.Context, jwksURL string, done chan struct{}) (jwk.Set, error) {
	set, err := jwk.Fetch(ctx, jwksURL, jwk.WithHTTPClient(c.client))

	c.mu.Lock()
	delete(c.inflight, jwksURL)
	if err == nil {
		c.sets[jwksURL] = cachedKeySet{set: set, fetchedAt: c.now()}
	}
	c.mu.Unlock()
	close(done)

	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS from %s: %w", jwksURL, err)
	}
	return set, nil
}
