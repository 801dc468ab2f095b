package safety

import (
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	defaultCacheSize = 128
	defaultCacheTTL  = 30 * time.Second
)

// verdictCache memoizes verdicts for a short window so a UI polling the
// current location does not rescan the ticket collection on every frame.
// Keys are coordinates rounded to ~1 m so GPS jitter hits the same entry.
type verdictCache struct {
	lru *expirable.LRU[string, Verdict]
}

func newVerdictCache(size int, ttl time.Duration) *verdictCache {
	return &verdictCache{lru: expirable.NewLRU[string, Verdict](size, nil, ttl)}
}

func cacheKey(lat, lng, radius float64) string {
	return fmt.Sprintf("%.5f:%.5f:%.0f", lat, lng, radius)
}

func (c *verdictCache) get(lat, lng, radius float64) (Verdict, bool) {
	return c.lru.Get(cacheKey(lat, lng, radius))
}

func (c *verdictCache) put(lat, lng, radius float64, v Verdict) {
	c.lru.Add(cacheKey(lat, lng, radius), v)
}

func (c *verdictCache) purge() {
	c.lru.Purge()
}
