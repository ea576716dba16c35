// Package store persists saved games by slot. Implementations include
// PostgreSQL (source of truth), Redis (read-through cache), S3 (archive
// mirror), a JSON file directory and in-memory (for testing).
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"

	"github.com/marketgame/market-engine/internal/model"
)

var (
	// ErrNotFound is returned when a slot holds no save.
	ErrNotFound = errors.New("store: save not found")
	// ErrInvalidSlot is returned for slot names outside [A-Za-z0-9_-]{1,64}.
	ErrInvalidSlot = errors.New("store: invalid slot name")
)

// Store is the persistence interface for save slots. Saving to an existing
// slot overwrites it.
type Store interface {
	// Save writes state to slot.
	Save(ctx context.Context, slot string, state *model.GameState) error

	// Load reads the save in slot.
	Load(ctx context.Context, slot string) (*model.GameState, error)

	// List describes every save, ordered by slot.
	List(ctx context.Context) ([]model.SaveInfo, error)

	// Delete removes the save in slot.
	Delete(ctx context.Context, slot string) error
}

var slotPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidateSlot checks that slot is safe to use as a file name and key.
func ValidateSlot(slot string) error {
	if !slotPattern.MatchString(slot) {
		return fmt.Errorf("%w: %q", ErrInvalidSlot, slot)
	}
	return nil
}

func infoOf(slot string, state *model.GameState) model.SaveInfo {
	return model.SaveInfo{Slot: slot, Day: state.Day, SavedAt: state.SavedAt}
}

func sortInfos(infos []model.SaveInfo) {
	sort.Slice(infos, func(i, j int) bool { return infos[i].Slot < infos[j].Slot })
}
