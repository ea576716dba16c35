package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/marketgame/market-engine/internal/model"
)

// MemoryStore implements Store with an in-memory map. Used for testing
// and development. Not suitable for production (no persistence).
type MemoryStore struct {
	mu    sync.RWMutex
	saves map[string][]byte
	infos map[string]model.SaveInfo
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		saves: make(map[string][]byte),
		infos: make(map[string]model.SaveInfo),
	}
}

// Save stores an encoded copy so later mutation of state is not visible.
func (s *MemoryStore) Save(_ context.Context, slot string, state *model.GameState) error {
	if err := ValidateSlot(slot); err != nil {
		return err
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", slot, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves[slot] = data
	s.infos[slot] = infoOf(slot, state)
	return nil
}

func (s *MemoryStore) Load(_ context.Context, slot string) (*model.GameState, error) {
	s.mu.RLock()
	data, ok := s.saves[slot]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, slot)
	}

	var state model.GameState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("store: decode %s: %w", slot, err)
	}
	return &state, nil
}

func (s *MemoryStore) List(_ context.Context) ([]model.SaveInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]model.SaveInfo, 0, len(s.infos))
	for _, info := range s.infos {
		infos = append(infos, info)
	}
	sortInfos(infos)
	return infos, nil
}

func (s *MemoryStore) Delete(_ context.Context, slot string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.saves[slot]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, slot)
	}
	delete(s.saves, slot)
	delete(s.infos, slot)
	return nil
}
