package main

import (
	"time"

	"github.com/ajstudioz/ajstudioz-gateway/internal/gateway/cache"
	"github.com/ajstudioz/ajstudioz-gateway/internal/shared/redis"
)

// newStore picks the Redis store when a client is configured and an
// in-process LRU otherwise. maxEntries only applies to the LRU.
func newStore(client *redis.Client, prefix string, ttl time.Duration, maxEntries int) cache.Store {
	if client != nil {
		return cache.NewRedis(client, prefix, ttl)
	}
	return cache.NewMemory(cache.MemoryOptions{MaxEntries: maxEntries, MaxAge: ttl})
}
