package calendar

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/hearthhub/homecal/recurrence"
)

func cachedSeries(id string) Series {
	return Series{
		ID:     id,
		Anchor: date("2024-03-05"),
		Fields: EventFields{Title: "Trash pickup"},
		Pattern: &recurrence.Pattern{
			Frequency:  recurrence.FreqWeekly,
			Interval:   1,
			DaysOfWeek: []time.Weekday{time.Tuesday},
			EndType:    recurrence.EndNever,
		},
	}
}

func TestExpansionCache_BasicOperations(t *testing.T) {
	cache := NewExpansionCache(CacheConfig{
		TTL:             5 * time.Minute,
		MaxEntries:      100,
		CleanupInterval: 1 * time.Minute,
	})
	defer cache.Close()

	s := cachedSeries("trash")
	from := date("2024-03-01")
	to := date("2024-03-31")

	// Cache miss first
	result, found := cache.Get(s, from, to)
	if found {
		t.Error("Expected cache miss, got hit")
	}
	if result != nil {
		t.Error("Expected nil result on cache miss")
	}

	occs := []Occurrence{{Date: date("2024-03-05"), SeriesID: s.ID, Generated: true}}
	cache.Set(s, from, to, occs)

	// Cache hit
	result, found = cache.Get(s, from, to)
	if !found {
		t.Error("Expected cache hit, got miss")
	}
	if len(result) != 1 || !result[0].Date.Equal(date("2024-03-05")) {
		t.Errorf("Expected cached occurrences back, got %v", result)
	}
}

func TestExpansionCache_TTLExpiration(t *testing.T) {
	cache := NewExpansionCache(CacheConfig{
		TTL:             100 * time.Millisecond, // Very short TTL for testing
		MaxEntries:      100,
		CleanupInterval: 50 * time.Millisecond,
	})
	defer cache.Close()

	s := cachedSeries("trash")
	from := date("2024-03-01")
	to := date("2024-03-31")

	cache.Set(s, from, to, []Occurrence{{Date: s.Anchor, SeriesID: s.ID}})

	if _, found := cache.Get(s, from, to); !found {
		t.Error("Expected cache hit immediately after set")
	}

	time.Sleep(150 * time.Millisecond)

	if _, found := cache.Get(s, from, to); found {
		t.Error("Expected cache miss after TTL expiration")
	}
}

func TestExpansionCache_PatternChangeInvalidates(t *testing.T) {
	cache := NewExpansionCache(DefaultCacheConfig)
	defer cache.Close()

	s := cachedSeries("trash")
	from := date("2024-03-01")
	to := date("2024-03-31")

	cache.Set(s, from, to, []Occurrence{{Date: s.Anchor, SeriesID: s.ID}})

	// Adding an exception bumps the pattern version, so the stale expansion
	// is no longer reachable.
	edited := s
	p := s.Pattern.Clone()
	p.AddException(date("2024-03-12"))
	edited.Pattern = &p

	if _, found := cache.Get(edited, from, to); found {
		t.Error("Expected cache miss after pattern edit")
	}
	if _, found := cache.Get(s, from, to); !found {
		t.Error("Expected original pattern entry to remain")
	}
}

func TestExpansionCache_DifferentWindows(t *testing.T) {
	cache := NewExpansionCache(DefaultCacheConfig)
	defer cache.Close()

	s := cachedSeries("trash")

	cache.Set(s, date("2024-03-01"), date("2024-03-31"), []Occurrence{{Date: s.Anchor, SeriesID: s.ID}})

	if _, found := cache.Get(s, date("2024-04-01"), date("2024-04-30")); found {
		t.Error("Expected cache miss for a different window")
	}
}

func TestExpansionCache_MaxEntriesEviction(t *testing.T) {
	cache := NewExpansionCache(CacheConfig{
		TTL:             5 * time.Minute,
		MaxEntries:      10,
		CleanupInterval: 1 * time.Minute,
	})
	defer cache.Close()

	from := date("2024-03-01")
	to := date("2024-03-31")

	for i := 0; i < 25; i++ {
		s := cachedSeries(fmt.Sprintf("series-%d", i))
		cache.Set(s, from, to, []Occurrence{{Date: s.Anchor, SeriesID: s.ID}})
	}

	stats := cache.Stats()
	if stats.TotalEntries > 10 {
		t.Errorf("Expected at most 10 entries after eviction, got %d", stats.TotalEntries)
	}
	if stats.ActiveEntries == 0 {
		t.Error("Expected some active entries to survive eviction")
	}
}

func TestExpansionCache_ConcurrentAccess(t *testing.T) {
	cache := NewExpansionCache(DefaultCacheConfig)
	defer cache.Close()

	from := date("2024-03-01")
	to := date("2024-03-31")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s := cachedSeries(fmt.Sprintf("series-%d", n%3))
			for j := 0; j < 100; j++ {
				cache.Set(s, from, to, []Occurrence{{Date: s.Anchor, SeriesID: s.ID}})
				cache.Get(s, from, to)
			}
		}(i)
	}
	wg.Wait()

	stats := cache.Stats()
	if stats.TotalEntries != 3 {
		t.Errorf("Expected 3 distinct entries, got %d", stats.TotalEntries)
	}
}
