package core

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

const cacheSize = 512

// Cache is a small get-or-set cache for expensive query results that may be slightly stale.
type Cache interface {
	Get(key string) (interface{}, bool)
	Set(key string, val interface{})
	// GetOrSet returns the cached value for key, computing and caching it with `fn` on a miss.
	// A nil result from `fn` is cached as well.
	GetOrSet(key string, fn func() (interface{}, error)) (interface{}, error)
	Delete(key string)
	Purge()
}

type lruCache struct {
	lru *lru.LRU[string, interface{}]
}

var _ Cache = (*lruCache)(nil)

func NewCache(ttl time.Duration) Cache {
	return &lruCache{lru: lru.NewLRU[string, interface{}](cacheSize, nil, ttl)}
}

func (c *lruCache) Get(key string) (interface{}, bool) {
	return c.lru.Get(key)
}

func (c *lruCache) Set(key string, val interface{}) {
	c.lru.Add(key, val)
}

func (c *lruCache) GetOrSet(key string, fn func() (interface{}, error)) (interface{}, error) {
	if val, ok := c.lru.Get(key); ok {
		return val, nil
	}
	val, err := fn()
	if err != nil {
		return nil, err
	}
	c.lru.Add(key, val)
	return val, nil
}

func (c *lruCache) Delete(key string) {
	c.lru.Remove(key)
}

func (c *lruCache) Purge() {
	c.lru.Purge()
}
