package pricing

import (
	"context"
	"sync"
	"time"

	"shekelfolio/internal/models"
)

// QuoteCache wraps a QuoteProvider with a short fixed TTL so repeated
// holdings reads don't hammer the venues. Only current quotes are cached;
// the historical valuation path is uncached and re-fetched per invocation.
type QuoteCache struct {
	inner QuoteProvider
	ttl   time.Duration
	now   func() time.Time

	mu      sync.RWMutex
	entries map[models.Asset]cachedQuote
}

type cachedQuote struct {
	quote     Quote
	fetchedAt time.Time
}

// NewQuoteCache creates a QuoteCache around inner with the given TTL.
func NewQuoteCache(inner QuoteProvider, ttl time.Duration) *QuoteCache {
	return &QuoteCache{
		inner:   inner,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[models.Asset]cachedQuote),
	}
}

// Quote returns a cached quote if fresh, otherwise fetches and caches.
// Errors are never cached.
func (c *QuoteCache) Quote(ctx context.Context, asset models.Asset) (Quote, error) {
	c.mu.RLock()
	entry, ok := c.entries[asset]
	c.mu.RUnlock()
	if ok && c.now().Sub(entry.fetchedAt) < c.ttl {
		return entry.quote, nil
	}

	quote, err := c.inner.Quote(ctx, asset)
	if err != nil {
		return Quote{}, err
	}

	c.mu.Lock()
	c.entries[asset] = cachedQuote{quote: quote, fetchedAt: c.now()}
	c.mu.Unlock()

	return quote, nil
}
