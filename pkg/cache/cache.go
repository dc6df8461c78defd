package cache

import (
	"strings"
	"sync"
	"time"
)

type Item struct {
	Value      string
	Expiration int64
}

// Cache is an in-process TTL cache used when Redis is not configured.
type Cache struct {
	items map[string]Item
	mu    sync.RWMutex
}

func NewCache() *Cache {
	cache := &Cache{
		items: make(map[string]Item),
	}
	go cache.startGC()
	return cache
}

func (c *Cache) Set(key string, value string, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiration := time.Now().Add(duration).UnixNano()
	c.items[key] = Item{
		Value:      value,
		Expiration: expiration,
	}
}

func (c *Cache) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, found := c.items[key]
	if !found {
		return "", false
	}

	if time.Now().UnixNano() > item.Expiration {
		return "", false
	}

	return item.Value, true
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// DeletePrefix removes every entry whose key starts with prefix. It mirrors
// the pattern deletion the Redis client does with KEYS.
func (c *Cache) DeletePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.items {
		if strings.HasPrefix(k, prefix) {
			delete(c.items, k)
		}
	}
}

func (c *Cache) startGC() {
	ticker := time.NewTicker(time.Minute)
	for {
		<-ticker.C
		c.mu.Lock()
		for k, v := range c.items {
			if time.Now().UnixNano() > v.Expiration {
				delete(c.items, k)
			}
		}
		c.mu.Unlock()
	}
}
