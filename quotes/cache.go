package quotes

import (
	"context"
	"sync"
	"time"
)

// Default TTLs. Prices go stale in minutes; company profiles rarely change.
const (
	DefaultPriceTTL   = 5 * time.Minute
	DefaultProfileTTL = 24 * time.Hour
)

type quoteEntry struct {
	quote     Quote
	fetchedAt time.Time
}

type profileEntry struct {
	profile   Profile
	fetchedAt time.Time
}

// Cache wraps a Source with per-symbol TTL caching. A failed refresh is
// returned to the caller as-is: expired entries are never served as a
// fallback, and failures are never cached.
//
// Concurrent misses on the same symbol may each hit the source; the last
// write wins. Entries are overwritten in place, so the map stays bounded by
// the set of symbols ever requested.
type Cache struct {
	source     Source
	priceTTL   time.Duration
	profileTTL time.Duration
	now        func() time.Time

	mu       sync.RWMutex
	quotes   map[string]quoteEntry
	profiles map[string]profileEntry
}

// NewCache wraps source with TTL caching. Non-positive TTLs select the
// defaults.
func NewCache(source Source, priceTTL, profileTTL time.Duration) *Cache {
	if priceTTL <= 0 {
		priceTTL = DefaultPriceTTL
	}
	if profileTTL <= 0 {
		profileTTL = DefaultProfileTTL
	}
	return &Cache{
		source:     source,
		priceTTL:   priceTTL,
		profileTTL: profileTTL,
		now:        time.Now,
		quotes:     make(map[string]quoteEntry),
		profiles:   make(map[string]profileEntry),
	}
}

// Quote returns the cached snapshot for symbol when it is younger than the
// price TTL, refreshing from the source otherwise.
func (c *Cache) Quote(ctx context.Context, symbol string) (Quote, error) {
	c.mu.RLock()
	e, ok := c.quotes[symbol]
	c.mu.RUnlock()
	if ok && c.now().Sub(e.fetchedAt) < c.priceTTL {
		return e.quote, nil
	}

	q, err := c.source.Quote(ctx, symbol)
	if err != nil {
		return Quote{}, err
	}

	c.mu.Lock()
	c.quotes[symbol] = quoteEntry{quote: q, fetchedAt: c.now()}
	c.mu.Unlock()

	return q, nil
}

// Profile returns the cached profile for symbol when it is younger than the
// profile TTL, refreshing from the source otherwise.
func (c *Cache) Profile(ctx context.Context, symbol string) (Profile, error) {
	c.mu.RLock()
	e, ok := c.profiles[symbol]
	c.mu.RUnlock()
	if ok && c.now().Sub(e.fetchedAt) < c.profileTTL {
		return e.profile, nil
	}

	p, err := c.source.Profile(ctx, symbol)
	if err != nil {
		return Profile{}, err
	}

	c.mu.Lock()
	c.profiles[symbol] = profileEntry{profile: p, fetchedAt: c.now()}
	c.mu.Unlock()

	return p, nil
}
