package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/usurper.games/internal/services/game/domain/realm"
	"github.com/louisbranch/usurper.games/internal/services/game/storage"
)

const realmColumns = "realm_id, name, owner_id, base_fee, status, holder_id, " +
	"required_bid, round_end_ms, pool, owed_total, games_played, total_awarded, " +
	"created_at, updated_at"

// GetRealm returns the realm projection row.
func (s *Store) GetRealm(ctx context.Context, realmID string) (storage.RealmRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.RealmRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.RealmRecord{}, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(realmID) == "" {
		return storage.RealmRecord{}, fmt.Errorf("realm id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT "+realmColumns+" FROM realms WHERE realm_id = ?",
		realmID,
	)

	var (
		rec       storage.RealmRecord
		status    string
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(
		&rec.RealmID,
		&rec.Name,
		&rec.OwnerID,
		&rec.BaseFee,
		&status,
		&rec.HolderID,
		&rec.RequiredBid,
		&rec.RoundEndMs,
		&rec.Pool,
		&rec.OwedTotal,
		&rec.GamesPlayed,
		&rec.TotalAwarded,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.RealmRecord{}, storage.ErrNotFound
		}
		return storage.RealmRecord{}, fmt.Errorf("get realm: %w", err)
	}

	rec.Status = realm.Status(status)
	rec.CreatedAt = fromMillis(createdAt)
	rec.UpdatedAt = fromMillis(updatedAt)
	return rec, nil
}

// upsertRealmTx writes the realm projection row inside the commit transaction.
func upsertRealmTx(ctx context.Context, tx *sql.Tx, rec storage.RealmRecord) error {
	_, err := tx.ExecContext(ctx, `
INSERT INTO realms (`+realmColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(realm_id) DO UPDATE SET
    name = excluded.name,
    owner_id = excluded.owner_id,
    base_fee = excluded.base_fee,
    status = excluded.status,
    holder_id = excluded.holder_id,
    required_bid = excluded.required_bid,
    round_end_ms = excluded.round_end_ms,
    pool = excluded.pool,
    owed_total = excluded.owed_total,
    games_played = excluded.games_played,
    total_awarded = excluded.total_awarded,
    updated_at = excluded.updated_at`,
		rec.RealmID,
		rec.Name,
		rec.OwnerID,
		rec.BaseFee,
		string(rec.Status),
		rec.HolderID,
		rec.RequiredBid,
		rec.RoundEndMs,
		rec.Pool,
		rec.OwedTotal,
		rec.GamesPlayed,
		rec.TotalAwarded,
		toMillis(rec.CreatedAt),
		toMillis(rec.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert realm: %w", err)
	}
	return nil
}
