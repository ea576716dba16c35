package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marketgame/market-engine/internal/model"
)

// Schema creates the save table. The full state is kept as JSONB; day and
// saved_at are copied out so List does not decode every save.
const Schema = `CREATE TABLE IF NOT EXISTS game_saves (
	slot     TEXT PRIMARY KEY,
	day      INTEGER NOT NULL,
	state    JSONB NOT NULL,
	saved_at TIMESTAMPTZ NOT NULL
)`

// PostgresStore implements Store using PostgreSQL as the source of truth.
// Monetary values stay exact because decimals are encoded as JSON strings.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the save table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, slot string, state *model.GameState) error {
	if err := ValidateSlot(slot); err != nil {
		return err
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", slot, err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO game_saves (slot, day, state, saved_at)
		 VALUES ($1, $2, $3::JSONB, $4)
		 ON CONFLICT (slot) DO UPDATE
		 SET day = EXCLUDED.day, state = EXCLUDED.state, saved_at = EXCLUDED.saved_at`,
		slot, state.Day, string(data), state.SavedAt,
	)
	if err != nil {
		return fmt.Errorf("store: save %s: %w", slot, err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, slot string) (*model.GameState, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT state::TEXT FROM game_saves WHERE slot = $1`, slot).
		Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
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

func (s *PostgresStore) List(ctx context.Context) ([]model.SaveInfo, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT slot, day, saved_at FROM game_saves ORDER BY slot`)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	infos := []model.SaveInfo{}
	for rows.Next() {
		var info model.SaveInfo
		if err := rows.Scan(&info.Slot, &info.Day, &info.SavedAt); err != nil {
			return nil, fmt.Errorf("store: scan save: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

func (s *PostgresStore) Delete(ctx context.Context, slot string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM game_saves WHERE slot = $1`, slot)
	if err != nil {
		return fmt.Errorf("store: delete %s: %w", slot, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, slot)
	}
	return nil
}
