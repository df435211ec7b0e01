package dosing

import (
	"strconv"
	"sync/atomic"
	"time"

	"github.com/giygas/pediatric-dosing-api/interfaces"
	"github.com/giygas/pediatric-dosing-api/medications/entities"
	"github.com/giygas/pediatric-dosing-api/metrics"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache defaults
const (
	DefaultCacheTTL  = 5 * time.Minute
	DefaultCacheSize = 1000
)

// Compile-time check to ensure CachedCalculator implements DoseCalculator
var _ interfaces.DoseCalculator = (*CachedCalculator)(nil)

// CacheStats is a snapshot of the cache counters
type CacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Size   int   `json:"size"`
}

// cacheEntry remembers which catalog version a result was computed from
type cacheEntry struct {
	catalogVersion uint64
	result         *entities.CalculationResult
}

// CachedCalculator memoizes results per (medication, weight, age) in a bounded LRU.
// Entries expire after the TTL and the least recently used entry is evicted when the
// cache is full. An entry computed from another catalog version is never served.
// Cached results are shared and must be treated as read-only.
type CachedCalculator struct {
	next    interfaces.DoseCalculator
	entries *expirable.LRU[string, cacheEntry]
	hits    atomic.Int64
	misses  atomic.Int64
}

// NewCachedCalculator wraps next with a cache of at most size entries living ttl each
func NewCachedCalculator(next interfaces.DoseCalculator, size int, ttl time.Duration) *CachedCalculator {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	return &CachedCalculator{
		next:    next,
		entries: expirable.NewLRU[string, cacheEntry](size, nil, ttl),
	}
}

// CacheKey builds the memoization key: <medicationId>-<weight>-<age|no-age>
func CacheKey(medicationID string, weightKg float64, ageMonths *float64) string {
	age := "no-age"
	if ageMonths != nil {
		age = strconv.FormatFloat(*ageMonths, 'f', -1, 64)
	}
	return medicationID + "-" + strconv.FormatFloat(weightKg, 'f', -1, 64) + "-" + age
}

// Calculate returns a fresh cached result when there is one, computing and storing it otherwise
func (c *CachedCalculator) Calculate(medication *entities.Medication, weightKg float64, ageMonths *float64) *entities.CalculationResult {
	if medication == nil || !medication.Enabled {
		return nil
	}

	key := CacheKey(medication.ID, weightKg, ageMonths)
	if entry, ok := c.entries.Get(key); ok && entry.catalogVersion == medication.CatalogVersion {
		c.hits.Add(1)
		metrics.DoseCacheRequestsTotal.WithLabelValues("hit").Inc()
		return entry.result
	}

	c.misses.Add(1)
	metrics.DoseCacheRequestsTotal.WithLabelValues("miss").Inc()

	result := c.next.Calculate(medication, weightKg, ageMonths)
	if result != nil {
		c.entries.Add(key, cacheEntry{catalogVersion: medication.CatalogVersion, result: result})
	}
	return result
}

// Purge drops every entry. Called after the catalog has been reloaded to free
// entries of the previous version.
func (c *CachedCalculator) Purge() {
	c.entries.Purge()
}

// Stats returns the hit and miss counters and the current number of entries
func (c *CachedCalculator) Stats() CacheStats {
	return CacheStats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Size:   c.entries.Len(),
	}
}
