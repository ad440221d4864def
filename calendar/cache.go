package calendar

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/hearthhub/homecal/internal/dateutil"
	"github.com/hearthhub/homecal/recurrence"
)

// cacheEntry holds one expanded (series, window) result.
type cacheEntry struct {
	occurrences []Occurrence
	expiresAt   time.Time
	accessedAt  time.Time
}

// ExpansionCache memoizes per-series window expansions so a grid render
// expands each series once instead of once per day cell. Keys include a hash
// of the pattern content, so editing a series naturally invalidates its
// entries; stale entries for the old pattern age out via TTL.
type ExpansionCache struct {
	entries         map[string]*cacheEntry
	mutex           sync.RWMutex
	ttl             time.Duration
	maxEntries      int
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
}

// CacheConfig holds configuration for the expansion cache.
type CacheConfig struct {
	TTL             time.Duration // How long entries stay valid
	MaxEntries      int           // Maximum number of entries before cleanup
	CleanupInterval time.Duration // How often to run cleanup
}

// DefaultCacheConfig suits the dashboard render path: a family calendar has
// tens of series and a handful of visible windows.
var DefaultCacheConfig = CacheConfig{
	TTL:             15 * time.Minute,
	MaxEntries:      1000,
	CleanupInterval: 5 * time.Minute,
}

// NewExpansionCache creates an expansion cache with the given configuration.
func NewExpansionCache(config CacheConfig) *ExpansionCache {
	cache := &ExpansionCache{
		entries:         make(map[string]*cacheEntry),
		ttl:             config.TTL,
		maxEntries:      config.MaxEntries,
		cleanupInterval: config.CleanupInterval,
		stopCleanup:     make(chan struct{}),
	}

	go cache.cleanupLoop()

	return cache
}

// key derives the cache key from the series identity, the pattern version
// (a content hash) and the window identity.
func (c *ExpansionCache) key(s Series, from, to time.Time) string {
	hasher := sha256.New()

	hasher.Write([]byte(s.ID))
	hasher.Write([]byte{0})
	hasher.Write([]byte(dateutil.FormatISO(s.Anchor)))
	hasher.Write([]byte(dateutil.FormatISO(from)))
	hasher.Write([]byte(dateutil.FormatISO(to)))
	hasher.Write([]byte(patternVersion(s.Pattern)))

	return fmt.Sprintf("%x", hasher.Sum(nil))
}

// patternVersion hashes the pattern content. Any rule change, including a new
// exception date, yields a different version.
func patternVersion(p *recurrence.Pattern) string {
	if p == nil {
		return "single"
	}

	hasher := sha256.New()
	fmt.Fprintf(hasher, "%s|%d|%v|%d|%s|%d|", p.Frequency, p.Interval, p.DaysOfWeek, p.DayOfMonth, p.EndType, p.EndCount)
	if p.EndDate != nil {
		hasher.Write([]byte(dateutil.FormatISO(*p.EndDate)))
	}
	for _, ex := range p.Exceptions {
		hasher.Write([]byte(dateutil.FormatISO(ex)))
	}
	return fmt.Sprintf("%x", hasher.Sum(nil))
}

// Get retrieves a cached expansion if present and unexpired.
func (c *ExpansionCache) Get(s Series, from, to time.Time) ([]Occurrence, bool) {
	key := c.key(s, from, to)

	c.mutex.RLock()
	entry, exists := c.entries[key]
	c.mutex.RUnlock()

	if !exists {
		return nil, false
	}

	now := time.Now()
	if now.After(entry.expiresAt) {
		c.mutex.Lock()
		delete(c.entries, key)
		c.mutex.Unlock()
		return nil, false
	}

	c.mutex.Lock()
	entry.accessedAt = now
	c.mutex.Unlock()

	return entry.occurrences, true
}

// Set stores an expansion result.
func (c *ExpansionCache) Set(s Series, from, to time.Time, occurrences []Occurrence) {
	key := c.key(s, from, to)
	now := time.Now()

	entry := &cacheEntry{
		occurrences: occurrences,
		expiresAt:   now.Add(c.ttl),
		accessedAt:  now,
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries[key] = entry

	if len(c.entries) > c.maxEntries {
		c.cleanup()
	}
}

// cleanup removes expired entries, then least recently accessed ones while
// over the limit. Callers must hold the write lock.
func (c *ExpansionCache) cleanup() {
	now := time.Now()

	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}

	for len(c.entries) > c.maxEntries {
		oldestKey := ""
		var oldestAccess time.Time
		for key, entry := range c.entries {
			if oldestKey == "" || entry.accessedAt.Before(oldestAccess) {
				oldestKey = key
				oldestAccess = entry.accessedAt
			}
		}
		delete(c.entries, oldestKey)
	}
}

// cleanupLoop runs periodic cleanup until Close.
func (c *ExpansionCache) cleanupLoop() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mutex.Lock()
			c.cleanup()
			c.mutex.Unlock()
		case <-c.stopCleanup:
			return
		}
	}
}

// Close stops the cleanup goroutine and clears the cache.
func (c *ExpansionCache) Close() {
	close(c.stopCleanup)
	c.mutex.Lock()
	c.entries = make(map[string]*cacheEntry)
	c.mutex.Unlock()
}

// Stats returns cache statistics.
func (c *ExpansionCache) Stats() CacheStats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entryCount := len(c.entries)
	expiredCount := 0
	now := time.Now()

	for _, entry := range c.entries {
		if now.After(entry.expiresAt) {
			expiredCount++
		}
	}

	return CacheStats{
		TotalEntries:   entryCount,
		ExpiredEntries: expiredCount,
		ActiveEntries:  entryCount - expiredCount,
	}
}

// CacheStats provides information about cache occupancy.
type CacheStats struct {
	TotalEntries   int
	ExpiredEntries int
	ActiveEntries  int
}
