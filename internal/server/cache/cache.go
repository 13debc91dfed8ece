// Package cache keeps recently served players in memory so repeat
// lookups by id skip the database. Players are never updated or deleted
// once stored, so entries only expire by TTL.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/agentstation/roster/internal/players"
)

const playerPrefix = "player:"

// Cache wraps go-cache with typed player accessors.
type Cache struct {
	store *gocache.Cache
}

// New creates a new cache with the given TTL and cleanup interval.
func New(defaultTTL, cleanupInterval time.Duration) *Cache {
	return &Cache{
		store: gocache.New(defaultTTL, cleanupInterval),
	}
}

// Player returns the cached player for id.
func (c *Cache) Player(id string) (players.Player, bool) {
	v, ok := c.store.Get(playerPrefix + id)
	if !ok {
		return players.Player{}, false
	}
	p, ok := v.(players.Player)
	return p, ok
}

// PutPlayer caches a stored player. Players without an id are ignored.
func (c *Cache) PutPlayer(p players.Player) {
	if p.ID == nil {
		return
	}
	c.store.Set(playerPrefix+p.ID.String(), p, gocache.DefaultExpiration)
}

// ItemCount returns the number of items in the cache.
func (c *Cache) ItemCount() int {
	return c.store.ItemCount()
}
