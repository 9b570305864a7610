package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrMatchNotFound indicates the match id has no stored record.
var ErrMatchNotFound = errors.New("match record not found")

// MatchRecord is one row in the matches table. The serialized state column
// is the engine's JSON snapshot.
type MatchRecord struct {
	ID              string
	Mode            string
	Status          string
	Winner          int
	SerializedState []byte
}

// MatchStore reads and writes match records.
type MatchStore struct {
	pool *pgxpool.Pool
}

func NewMatchStore(pool *pgxpool.Pool) *MatchStore {
	return &MatchStore{pool: pool}
}

// Create inserts a new match row with its initial snapshot.
func (s *MatchStore) Create(ctx context.Context, rec MatchRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO matches (id, mode, status, serialized_game_state)
		VALUES ($1, $2, $3, $4)`,
		rec.ID, rec.Mode, rec.Status, rec.SerializedState,
	)
	if err != nil {
		return fmt.Errorf("insert match %s: %w", rec.ID, err)
	}
	return nil
}

// SaveState replaces the stored snapshot and lifecycle fields after an
// action.
func (s *MatchStore) SaveState(ctx context.Context, rec MatchRecord) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE matches
		SET serialized_game_state = $2, status = $3, winner = $4, updated_at = now()
		WHERE id = $1`,
		rec.ID, rec.SerializedState, rec.Status, rec.Winner,
	)
	if err != nil {
		return fmt.Errorf("update match %s: %w", rec.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMatchNotFound
	}
	return nil
}

// Load fetches a match record by id.
func (s *MatchStore) Load(ctx context.Context, matchID string) (MatchRecord, error) {
	rec := MatchRecord{ID: matchID}
	err := s.pool.QueryRow(ctx, `
		SELECT mode, status, COALESCE(winner, 0), serialized_game_state
		FROM matches WHERE id = $1`,
		matchID,
	).Scan(&rec.Mode, &rec.Status, &rec.Winner, &rec.SerializedState)
	if errors.Is(err, pgx.ErrNoRows) {
		return rec, ErrMatchNotFound
	}
	if err != nil {
		return rec, fmt.Errorf("load match %s: %w", matchID, err)
	}
	return rec, nil
}
