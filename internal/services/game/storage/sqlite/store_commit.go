package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/usurper.games/internal/services/game/domain/aggregate"
	"github.com/louisbranch/usurper.games/internal/services/game/storage"
)

// CommitDecision applies one decided operation atomically: the journal
// append, projection upserts, treasury movement, and snapshot save commit or
// roll back together. A transfer failure therefore unwinds the already
// appended events, which is what keeps the escrow balance and the folded pool
// in lockstep.
func (s *Store) CommitDecision(ctx context.Context, req storage.CommitRequest) (storage.CommitResult, error) {
	if err := ctx.Err(); err != nil {
		return storage.CommitResult{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.CommitResult{}, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(req.RealmID) == "" {
		return storage.CommitResult{}, fmt.Errorf("realm id is required")
	}
	if len(req.Events) == 0 {
		return storage.CommitResult{}, fmt.Errorf("at least one event is required")
	}
	for i, evt := range req.Events {
		if evt.RealmID != req.RealmID {
			return storage.CommitResult{}, fmt.Errorf("event %d realm %q does not match commit realm %q", i, evt.RealmID, req.RealmID)
		}
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return storage.CommitResult{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stored, err := s.appendEventsTx(ctx, tx, req.Events)
	if err != nil {
		return storage.CommitResult{}, err
	}
	lastSeq := stored[len(stored)-1].Seq
	committedAt := stored[len(stored)-1].Timestamp

	if err := upsertRealmTx(ctx, tx, realmRecordFromState(req.RealmID, req.State, committedAt)); err != nil {
		return storage.CommitResult{}, err
	}
	for _, rec := range rewardRecordsFromState(req.RealmID, req.State, committedAt) {
		if err := upsertRewardTx(ctx, tx, rec); err != nil {
			return storage.CommitResult{}, err
		}
	}

	for _, transfer := range req.Transfers {
		if err := executeTransferTx(ctx, tx, req.RealmID, transfer, lastSeq, committedAt); err != nil {
			return storage.CommitResult{}, err
		}
	}

	if err := upsertSnapshot(ctx, tx, req.RealmID, lastSeq, req.State, committedAt); err != nil {
		return storage.CommitResult{}, err
	}

	if err := tx.Commit(); err != nil {
		return storage.CommitResult{}, fmt.Errorf("commit: %w", err)
	}

	return storage.CommitResult{Events: stored, LastSeq: lastSeq}, nil
}

// realmRecordFromState flattens the folded aggregate into the realm
// projection row.
func realmRecordFromState(realmID string, state aggregate.State, updatedAt time.Time) storage.RealmRecord {
	return storage.RealmRecord{
		RealmID:      realmID,
		Name:         state.Realm.Name,
		OwnerID:      state.Realm.OwnerID,
		BaseFee:      state.Realm.BaseFee,
		Status:       state.Realm.Status,
		HolderID:     state.Throne.HolderID,
		RequiredBid:  state.Throne.RequiredBid,
		RoundEndMs:   state.Throne.RoundEnd,
		Pool:         state.Throne.Pool,
		OwedTotal:    state.Throne.OwedTotal,
		GamesPlayed:  state.Throne.GamesPlayed,
		TotalAwarded: state.Throne.TotalAwarded,
		CreatedAt:    state.Realm.CreatedAt,
		UpdatedAt:    updatedAt,
	}
}

// rewardRecordsFromState projects the recipient ledger in first-accrual
// order. Position is 1-based so a page cursor can sit before the first row.
func rewardRecordsFromState(realmID string, state aggregate.State, updatedAt time.Time) []storage.RewardRecord {
	records := make([]storage.RewardRecord, 0, len(state.Throne.Recipients))
	for i, recipientID := range state.Throne.Recipients {
		reward := state.Throne.Rewards[recipientID]
		records = append(records, storage.RewardRecord{
			RealmID:     realmID,
			RecipientID: recipientID,
			Amount:      reward.Amount,
			DeadlineMs:  reward.Deadline,
			Tracked:     reward.Tracked,
			Position:    int64(i) + 1,
			UpdatedAt:   updatedAt,
		})
	}
	return records
}
