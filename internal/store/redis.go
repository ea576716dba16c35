package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marketgame/market-engine/internal/model"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache. Writes go to the primary store and refresh the cache; reads
// check Redis first then fall back to the primary.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// --- Write-through ---

func (s *CachedStore) Save(ctx context.Context, slot string, state *model.GameState) error {
	if err := s.primary.Save(ctx, slot, state); err != nil {
		return err
	}
	s.cache(ctx, slot, state)
	return nil
}

func (s *CachedStore) Delete(ctx context.Context, slot string) error {
	if err := s.primary.Delete(ctx, slot); err != nil {
		return err
	}
	s.rdb.Del(ctx, saveKey(slot))
	return nil
}

// --- Read-through ---

func (s *CachedStore) Load(ctx context.Context, slot string) (*model.GameState, error) {
	data, err := s.rdb.Get(ctx, saveKey(slot)).Bytes()
	if err == nil {
		var state model.GameState
		if json.Unmarshal(data, &state) == nil {
			return &state, nil
		}
	}

	// Cache miss: read from primary.
	state, err := s.primary.Load(ctx, slot)
	if err != nil {
		return nil, err
	}
	s.cache(ctx, slot, state)
	return state, nil
}

// --- Passthrough ---

func (s *CachedStore) List(ctx context.Context) ([]model.SaveInfo, error) {
	return s.primary.List(ctx)
}

func (s *CachedStore) cache(ctx context.Context, slot string, state *model.GameState) {
	if data, err := json.Marshal(state); err == nil {
		s.rdb.Set(ctx, saveKey(slot), data, s.ttl)
	}
}

func saveKey(slot string) string { return fmt.Sprintf("marketgame:save:%s", slot) }
