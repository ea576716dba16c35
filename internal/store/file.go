package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/marketgame/market-engine/internal/model"
)

const fileExt = ".json"

// FileStore keeps one indented JSON file per slot in a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(slot string) string {
	return filepath.Join(s.dir, slot+fileExt)
}

// Save writes through a temporary file and renames it into place, so a
// crash never leaves a half-written save.
func (s *FileStore) Save(_ context.Context, slot string, state *model.GameState) error {
	if err := ValidateSlot(slot); err != nil {
		return err
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", slot, err)
	}

	tmp, err := os.CreateTemp(s.dir, slot+".*.tmp")
	if err != nil {
		return fmt.Errorf("store: save %s: %w", slot, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("store: save %s: %w", slot, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store: save %s: %w", slot, err)
	}
	if err := os.Rename(tmp.Name(), s.path(slot)); err != nil {
		return fmt.Errorf("store: save %s: %w", slot, err)
	}
	return nil
}

func (s *FileStore) Load(_ context.Context, slot string) (*model.GameState, error) {
	if err := ValidateSlot(slot); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(slot))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, slot)
	}
	if err != nil {
		return nil, fmt.Errorf("store: load %s: %w", slot, err)
	}

	var state model.GameState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("store: decode %s: %w", slot, err)
	}
	return &state, nil
}

// List decodes every save file in the directory. Files that are not valid
// saves are skipped.
func (s *FileStore) List(ctx context.Context) ([]model.SaveInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("store: list %s: %w", s.dir, err)
	}

	infos := []model.SaveInfo{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		slot := strings.TrimSuffix(name, fileExt)
		if ValidateSlot(slot) != nil {
			continue
		}
		state, err := s.Load(ctx, slot)
		if err != nil {
			continue
		}
		infos = append(infos, infoOf(slot, state))
	}
	sortInfos(infos)
	return infos, nil
}

func (s *FileStore) Delete(_ context.Context, slot string) error {
	if err := ValidateSlot(slot); err != nil {
		return err
	}
	err := os.Remove(s.path(slot))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, slot)
	}
	if err != nil {
		return fmt.Errorf("store: delete %s: %w", slot, err)
	}
	return nil
}
