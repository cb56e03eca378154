// internal/cache/domain_cache.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/openmall/mall-backend/internal/config"
)

// Entry is the cached result of resolving a bound domain.
type Entry struct {
	StoreID uuid.UUID `json:"store_id"`
}

// DomainCache caches the domain -> store binding. Entries never expire on
// their own: binding edits must invalidate synchronously, because a stale
// binding routes a customer into the wrong tenant. Unknown domains are
// never cached.
type DomainCache interface {
	Get(ctx context.Context, domain string) (*Entry, bool)
	Set(ctx context.Context, domain string, entry *Entry)
	Invalidate(ctx context.Context, domains ...string)
}

// NewDomainCache returns the redis-backed cache when redis is enabled,
// otherwise the in-process fallback.
func NewDomainCache(cfg *config.Config) DomainCache {
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return NewRedisDomainCache(client)
	}
	return NewMemoryDomainCache()
}

type redisDomainCache struct {
	client *redis.Client
}

func NewRedisDomainCache(client *redis.Client) DomainCache {
	return &redisDomainCache{client: client}
}

func (c *redisDomainCache) key(domain string) string {
	return "domain_binding:" + domain
}

func (c *redisDomainCache) Get(ctx context.Context, domain string) (*Entry, bool) {
	data, err := c.client.Get(ctx, c.key(domain)).Bytes()
	if err != nil {
		// redis.Nil and transport errors are both treated as a miss;
		// the caller falls through to the database.
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}
	return &entry, true
}

func (c *redisDomainCache) Set(ctx context.Context, domain string, entry *Entry) {
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	// No TTL: invalidation is explicit on binding edits.
	c.client.Set(ctx, c.key(domain), data, 0)
}

func (c *redisDomainCache) Invalidate(ctx context.Context, domains ...string) {
	if len(domains) == 0 {
		return
	}
	keys := make([]string, len(domains))
	for i, d := range domains {
		keys[i] = c.key(d)
	}
	c.client.Del(ctx, keys...)
}

type memoryDomainCache struct {
	mtx     sync.RWMutex
	entries map[string]Entry
}

// NewMemoryDomainCache is the in-process fallback used in development and
// tests; it only makes sense for a single-process deployment.
func NewMemoryDomainCache() DomainCache {
	return &memoryDomainCache{entries: make(map[string]Entry)}
}

func (c *memoryDomainCache) Get(ctx context.Context, domain string) (*Entry, bool) {
	c.mtx.RLock()
	defer c.mtx.RUnlock()

	entry, ok := c.entries[domain]
	if !ok {
		return nil, false
	}
	return &entry, true
}

func (c *memoryDomainCache) Set(ctx context.Context, domain string, entry *Entry) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.entries[domain] = *entry
}

func (c *memoryDomainCache) Invalidate(ctx context.Context, domains ...string) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	for _, d := range domains {
		delete(c.entries, d)
	}
}
