package usecase

import (
	"sync"
	"time"

	"github.com/OmarHesham88/Code-Receive/internal/code/domain"
)

// CacheEntry is one memoized fetch result.
type CacheEntry struct {
	Items     []*domain.Code
	CheckedAt time.Time
	fetchedAt time.Time
}

type inflight struct {
	done  chan struct{}
	entry *CacheEntry
	err   error
}

// Cache memoizes on-demand mailbox fetches for a short freshness window
// and coalesces concurrent requests for the same key into a single
// upstream fetch. Several browser tabs polling the same address cost
// one IMAP search, not one each.
type Cache struct {
	freshness time.Duration

	mu       sync.Mutex
	entries  map[string]*CacheEntry
	inflight map[string]*inflight
}

// NewCache creates a cache serving entries younger than freshness
// without refetching.
func NewCache(freshness time.Duration) *Cache {
	return &Cache{
		freshness: freshness,
		entries:   make(map[string]*CacheEntry),
		inflight:  make(map[string]*inflight),
	}
}

// Get returns a fresh cached entry for key, joins an in-flight fetch if
// one exists, or invokes fetch and stores the result. In-flight
// bookkeeping is cleared on completion or failure so the next call
// retries cleanly.
func (c *Cache) Get(key string, fetch func() ([]*domain.Code, error)) (*CacheEntry, error) {
	c.mu.Lock()

	if entry, ok := c.entries[key]; ok && time.Since(entry.fetchedAt) < c.freshness {
		c.mu.Unlock()
		return entry, nil
	}

	if call, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		<-call.done
		return call.entry, call.err
	}

	call := &inflight{done: make(chan struct{})}
	c.inflight[key] = call
	c.mu.Unlock()

	items, err := fetch()

	c.mu.Lock()
	if err == nil {
		now := time.Now()
		call.entry = &CacheEntry{Items: items, CheckedAt: now, fetchedAt: now}
		c.entries[key] = call.entry
	}
	call.err = err
	delete(c.inflight, key)
	c.mu.Unlock()

	close(call.done)
	return call.entry, call.err
}
