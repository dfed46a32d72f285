package memory

import (
	"slices"
	"sync"
	"time"

	"github.com/kitbuilder587/searx-proxy/internal/clock"
)

const DefaultTTL = time.Hour

// Snapshot - согласованная пара (кандидаты, время создания)
type Snapshot struct {
	URLs      []string
	CreatedAt time.Time
}

// InstanceCache - кеш отфильтрованных инстансов с TTL.
// urls и createdAt меняются только вместе под одним локом.
type InstanceCache struct {
	mu        sync.RWMutex
	urls      []string
	createdAt time.Time
	ttl       time.Duration
	clock     clock.Clock
}

func New(ttl time.Duration) *InstanceCache {
	return NewWithClock(ttl, clock.Real())
}

func NewWithClock(ttl time.Duration, c clock.Clock) *InstanceCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if c == nil {
		c = clock.Real()
	}
	return &InstanceCache{
		ttl:       ttl,
		clock:     c,
		createdAt: c.Now(),
	}
}

// IsRefreshDue is true when the candidate set is empty or strictly older than ttl.
func (c *InstanceCache) IsRefreshDue() bool {
	now := c.clock.Now()

	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.urls) == 0 {
		return true
	}
	return now.Sub(c.createdAt) > c.ttl
}

// Replace swaps in a new candidate set stamped with the current time.
func (c *InstanceCache) Replace(urls []string) Snapshot {
	fresh := slices.Clone(urls)
	now := c.clock.Now()

	c.mu.Lock()
	c.urls = fresh
	c.createdAt = now
	c.mu.Unlock()

	return Snapshot{URLs: slices.Clone(fresh), CreatedAt: now}
}

func (c *InstanceCache) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Snapshot{URLs: slices.Clone(c.urls), CreatedAt: c.createdAt}
}

func (c *InstanceCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.urls)
}

func (c *InstanceCache) TTL() time.Duration {
	return c.ttl
}
