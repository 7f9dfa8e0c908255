package session

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-challenge-backend/internal/bus"
	"github.com/tbourn/go-challenge-backend/internal/domain"
)

// FavoritesKeyPrefix prefixes the per-user favorites cache key.
const FavoritesKeyPrefix = "challenge_favorites:"

// FavoritesCache is a read-through cache of each user's favorite challenge
// ids. The user record stays the source of truth: entries are dropped on
// every favorite-toggled event and refilled on the next read.
//
// Each user has a generation that every invalidation bumps. A fill carries
// the generation seen before its store read and never outlives a newer
// invalidation.
type FavoritesCache struct {
	kv          KV
	log         zerolog.Logger
	unsubscribe func()

	mu  sync.Mutex
	gen map[string]uint64
}

// NewFavoritesCache builds the cache and wires its invalidation to the bus.
func NewFavoritesCache(kv KV, b *bus.Bus, log zerolog.Logger) *FavoritesCache {
	c := &FavoritesCache{
		kv:  kv,
		log: log.With().Str("component", "favorites_cache").Logger(),
		gen: make(map[string]uint64),
	}
	c.unsubscribe = b.Subscribe(func(e domain.Event) {
		if err := c.Invalidate(context.Background(), e.UserID); err != nil {
			c.log.Warn().Err(err).Str("user_id", e.UserID).Msg("favorites cache invalidation failed")
		}
	}, domain.EventFavoriteToggled)
	return c
}

// Close detaches the cache from the bus.
func (c *FavoritesCache) Close() { c.unsubscribe() }

func (c *FavoritesCache) generation(userID string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen[userID]
}

// Load returns the cached ids for userID. ok is false on a miss. gen must be
// passed back to Store when the caller fills the miss.
func (c *FavoritesCache) Load(ctx context.Context, userID string) (ids []string, gen uint64, ok bool) {
	gen = c.generation(userID)
	raw, found, err := c.kv.Get(ctx, FavoritesKeyPrefix+userID)
	if err != nil || !found {
		return nil, gen, false
	}
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		c.log.Warn().Err(err).Str("user_id", userID).Msg("discarding corrupt favorites cache entry")
		return nil, gen, false
	}
	return ids, gen, true
}

// Store fills the cache entry for userID with ids read at generation gen.
// The fill is skipped, or undone, when an invalidation has happened since.
func (c *FavoritesCache) Store(ctx context.Context, userID string, ids []string, gen uint64) error {
	if c.generation(userID) != gen {
		return nil
	}
	if ids == nil {
		ids = []string{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	key := FavoritesKeyPrefix + userID
	if err := c.kv.Set(ctx, key, string(b)); err != nil {
		return err
	}
	// An invalidation that ran while Set was in flight may have deleted
	// before the stale value landed.
	if c.generation(userID) != gen {
		return c.kv.Delete(ctx, key)
	}
	return nil
}

// Invalidate drops the cache entry for userID.
func (c *FavoritesCache) Invalidate(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	c.mu.Lock()
	c.gen[userID]++
	c.mu.Unlock()
	return c.kv.Delete(ctx, FavoritesKeyPrefix+userID)
}
