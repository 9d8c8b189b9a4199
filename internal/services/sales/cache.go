package sales

import (
	"context"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/xelth-com/alloyplan/internal/models"
	"golang.org/x/sync/singleflight"
)

// Fetcher reads the sales history of one item
type Fetcher interface {
	FetchSalesHistory(ctx context.Context, itemID int64) (models.SalesHistory, error)
}

const fetchTimeout = 30 * time.Second

// Cache memoizes sales history per item id for the lifetime of a session.
// Each item is fetched at most once; concurrent requests for the same item
// share one fetch and requests for different items never wait on each
// other. A failed fetch is remembered as an empty record.
type Cache struct {
	fetcher Fetcher
	group   singleflight.Group

	mu      sync.RWMutex
	entries map[int64]models.SalesHistory

	onArrive func(itemID int64)
}

// NewCache creates an empty cache over fetcher
func NewCache(fetcher Fetcher) *Cache {
	return &Cache{
		fetcher: fetcher,
		entries: make(map[int64]models.SalesHistory),
	}
}

// OnArrive registers a callback run after a new record lands in the cache
func (c *Cache) OnArrive(fn func(itemID int64)) {
	c.onArrive = fn
}

// Get returns the cached record, fetching it on first use. Fetches are not
// tied to the caller's context so an abandoned request still fills the cache.
func (c *Cache) Get(ctx context.Context, itemID int64) models.SalesHistory {
	if h, ok := c.Peek(itemID); ok {
		return h
	}

	ch := c.group.DoChan(strconv.FormatInt(itemID, 10), func() (interface{}, error) {
		if h, ok := c.Peek(itemID); ok {
			return h, nil
		}
		return c.fetch(itemID), nil
	})

	select {
	case res := <-ch:
		return res.Val.(models.SalesHistory)
	case <-ctx.Done():
		return models.EmptySalesHistory(itemID)
	}
}

func (c *Cache) fetch(itemID int64) models.SalesHistory {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	h, err := c.fetcher.FetchSalesHistory(ctx, itemID)
	if err != nil {
		log.Printf("⚠️ Sales: history for item %d unavailable: %v", itemID, err)
		h = models.EmptySalesHistory(itemID)
	}
	h.ItemID = itemID
	if h.MonthlySalesData == nil {
		h.MonthlySalesData = []models.MonthlySales{}
	}

	c.mu.Lock()
	c.entries[itemID] = h
	c.mu.Unlock()

	if c.onArrive != nil {
		c.onArrive(itemID)
	}
	return h
}

// Prefetch starts a background fetch if the item is not cached yet
func (c *Cache) Prefetch(itemID int64) {
	if c.Has(itemID) {
		return
	}
	go c.Get(context.Background(), itemID)
}

// Peek returns a cached record without fetching
func (c *Cache) Peek(itemID int64) (models.SalesHistory, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	h, ok := c.entries[itemID]
	return h, ok
}

// Has reports whether a record for itemID is cached
func (c *Cache) Has(itemID int64) bool {
	_, ok := c.Peek(itemID)
	return ok
}

// HasSeries reports whether the cached record for itemID carries a time
// series. Failed fetches are cached empty and report false.
func (c *Cache) HasSeries(itemID int64) bool {
	h, ok := c.Peek(itemID)
	return ok && h.HasSeries()
}

// Snapshot returns a copy of all cached records
func (c *Cache) Snapshot() map[int64]models.SalesHistory {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[int64]models.SalesHistory, len(c.entries))
	for id, h := range c.entries {
		out[id] = h
	}
	return out
}

// Len returns the number of cached records
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
