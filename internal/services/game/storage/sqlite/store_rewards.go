package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/usurper.games/internal/services/game/storage"
)

const rewardColumns = "realm_id, recipient_id, amount, deadline_ms, tracked, position, updated_at"

// GetReward returns one recipient's ledger projection row.
func (s *Store) GetReward(ctx context.Context, realmID, recipientID string) (storage.RewardRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.RewardRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.RewardRecord{}, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(realmID) == "" {
		return storage.RewardRecord{}, fmt.Errorf("realm id is required")
	}
	if strings.TrimSpace(recipientID) == "" {
		return storage.RewardRecord{}, fmt.Errorf("recipient id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT "+rewardColumns+" FROM rewards WHERE realm_id = ? AND recipient_id = ?",
		realmID, recipientID,
	)
	rec, err := scanReward(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.RewardRecord{}, storage.ErrNotFound
		}
		return storage.RewardRecord{}, fmt.Errorf("get reward: %w", err)
	}
	return rec, nil
}

// ListRewardsPage returns a paginated list of ledger records in first-accrual
// order.
func (s *Store) ListRewardsPage(ctx context.Context, req storage.ListRewardsPageRequest) (storage.ListRewardsPageResult, error) {
	if err := ctx.Err(); err != nil {
		return storage.ListRewardsPageResult{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.ListRewardsPageResult{}, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(req.RealmID) == "" {
		return storage.ListRewardsPageResult{}, fmt.Errorf("realm id is required")
	}
	if req.PageSize <= 0 {
		req.PageSize = 50
	}
	if req.PageSize > 200 {
		req.PageSize = 200
	}

	plan := buildListRewardsPageSQLPlan(req)

	query := fmt.Sprintf(
		"SELECT "+rewardColumns+" FROM rewards WHERE %s %s %s",
		plan.whereClause,
		plan.orderClause,
		plan.limitClause,
	)

	rows, err := s.sqlDB.QueryContext(ctx, query, plan.params...)
	if err != nil {
		return storage.ListRewardsPageResult{}, fmt.Errorf("query rewards: %w", err)
	}
	defer rows.Close()

	rewards := make([]storage.RewardRecord, 0, req.PageSize)
	for rows.Next() {
		rec, err := scanReward(rows)
		if err != nil {
			return storage.ListRewardsPageResult{}, fmt.Errorf("scan reward: %w", err)
		}
		rewards = append(rewards, rec)
	}
	if err := rows.Err(); err != nil {
		return storage.ListRewardsPageResult{}, fmt.Errorf("iterate rewards: %w", err)
	}

	hasMore := len(rewards) > req.PageSize
	if hasMore {
		rewards = rewards[:req.PageSize]
	}

	if req.CursorReverse {
		for i, j := 0, len(rewards)-1; i < j; i, j = i+1, j-1 {
			rewards[i], rewards[j] = rewards[j], rewards[i]
		}
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM rewards WHERE %s", plan.countWhereClause)
	var totalCount int
	if err := s.sqlDB.QueryRowContext(ctx, countQuery, plan.countParams...).Scan(&totalCount); err != nil {
		return storage.ListRewardsPageResult{}, fmt.Errorf("count rewards: %w", err)
	}

	result := storage.ListRewardsPageResult{
		Rewards:    rewards,
		TotalCount: totalCount,
	}

	if req.CursorReverse {
		result.HasNextPage = true
		result.HasPrevPage = hasMore
	} else {
		result.HasNextPage = hasMore
		result.HasPrevPage = req.CursorPos > 0
	}

	return result, nil
}

// CountRecipients returns the size of the realm's tracking set.
func (s *Store) CountRecipients(ctx context.Context, realmID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(realmID) == "" {
		return 0, fmt.Errorf("realm id is required")
	}

	var count int64
	if err := s.sqlDB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM rewards WHERE realm_id = ?",
		realmID,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("count recipients: %w", err)
	}
	return count, nil
}

// upsertRewardTx writes one ledger projection row inside the commit
// transaction. Position is the 1-based first-accrual rank and never changes
// once assigned.
func upsertRewardTx(ctx context.Context, tx *sql.Tx, rec storage.RewardRecord) error {
	_, err := tx.ExecContext(ctx, `
INSERT INTO rewards (`+rewardColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(realm_id, recipient_id) DO UPDATE SET
    amount = excluded.amount,
    deadline_ms = excluded.deadline_ms,
    tracked = excluded.tracked,
    position = excluded.position,
    updated_at = excluded.updated_at`,
		rec.RealmID,
		rec.RecipientID,
		rec.Amount,
		rec.DeadlineMs,
		rec.Tracked,
		rec.Position,
		toMillis(rec.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert reward: %w", err)
	}
	return nil
}

func scanReward(row rowScanner) (storage.RewardRecord, error) {
	var (
		rec       storage.RewardRecord
		updatedAt int64
	)
	if err := row.Scan(
		&rec.RealmID,
		&rec.RecipientID,
		&rec.Amount,
		&rec.DeadlineMs,
		&rec.Tracked,
		&rec.Position,
		&updatedAt,
	); err != nil {
		return storage.RewardRecord{}, err
	}
	rec.UpdatedAt = fromMillis(updatedAt)
	return rec, nil
}
