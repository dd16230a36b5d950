package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/usurper.games/internal/services/game/domain/aggregate"
	"github.com/louisbranch/usurper.games/internal/services/game/storage"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SaveState upserts the latest folded aggregate state for a realm.
func (s *Store) SaveState(ctx context.Context, realmID string, seq int64, state any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(realmID) == "" {
		return fmt.Errorf("realm id is required")
	}

	return upsertSnapshot(ctx, s.sqlDB, realmID, seq, state, time.Now().UTC())
}

// GetState returns the stored aggregate state and the sequence it folds
// through.
func (s *Store) GetState(ctx context.Context, realmID string) (any, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, 0, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(realmID) == "" {
		return nil, 0, fmt.Errorf("realm id is required")
	}

	var (
		seq     int64
		payload []byte
	)
	if err := s.sqlDB.QueryRowContext(ctx,
		"SELECT seq, state_json FROM snapshots WHERE realm_id = ?",
		realmID,
	).Scan(&seq, &payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, storage.ErrNotFound
		}
		return nil, 0, fmt.Errorf("get snapshot: %w", err)
	}

	var state aggregate.State
	if err := json.Unmarshal(payload, &state); err != nil {
		return nil, 0, fmt.Errorf("unmarshal snapshot state: %w", err)
	}
	return state, seq, nil
}

// upsertSnapshot serializes and writes one aggregate snapshot row. It accepts
// either the store handle or a commit transaction.
func upsertSnapshot(ctx context.Context, db execer, realmID string, seq int64, state any, now time.Time) error {
	folded, err := aggregate.AssertState[aggregate.State](state)
	if err != nil {
		return fmt.Errorf("snapshot state: %w", err)
	}
	payload, err := json.Marshal(folded)
	if err != nil {
		return fmt.Errorf("marshal snapshot state: %w", err)
	}

	if _, err := db.ExecContext(ctx, `
INSERT INTO snapshots (realm_id, seq, state_json, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(realm_id) DO UPDATE SET
    seq = excluded.seq,
    state_json = excluded.state_json,
    updated_at = excluded.updated_at`,
		realmID, seq, payload, toMillis(now),
	); err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}
