package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/louisbranch/usurper.games/internal/services/game/domain/aggregate"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/event"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/realm"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/throne"
	"github.com/louisbranch/usurper.games/internal/services/game/storage"
)

func TestCommitDecisionPersistsProjectionsAndTransfers(t *testing.T) {
	store := openTestStore(t)
	realmID := "realm-commit"
	ts := time.Date(2026, 2, 3, 12, 0, 0, 0, time.UTC)

	if _, err := store.OpenAccount(context.Background(), "owner-1"); err != nil {
		t.Fatalf("open account: %v", err)
	}
	if _, err := store.FundAccount(context.Background(), "owner-1", 1000); err != nil {
		t.Fatalf("fund account: %v", err)
	}

	state := aggregate.State{
		Realm: realm.State{
			Status:    realm.StatusActive,
			Name:      "demo",
			OwnerID:   "owner-1",
			BaseFee:   500,
			CreatedAt: ts,
		},
		Throne: throne.State{
			RequiredBid: 500,
			Pool:        500,
			OwnerID:     "owner-1",
			BaseFee:     500,
		},
	}
	result, err := store.CommitDecision(context.Background(), storage.CommitRequest{
		RealmID: realmID,
		Events:  []event.Event{testCreatedEvent(t, realmID, ts)},
		State:   state,
		Transfers: []storage.PlannedTransfer{{
			FromID:    "owner-1",
			ToID:      storage.EscrowAccountID(realmID),
			Amount:    500,
			Operation: "realm.create",
		}},
	})
	if err != nil {
		t.Fatalf("commit decision: %v", err)
	}
	if result.LastSeq != 1 {
		t.Fatalf("expected last seq 1, got %d", result.LastSeq)
	}
	if len(result.Events) != 1 || result.Events[0].Hash == "" {
		t.Fatalf("expected 1 journaled event with hash, got %+v", result.Events)
	}

	// Realm projection reflects the folded state
	realmRec, err := store.GetRealm(context.Background(), realmID)
	if err != nil {
		t.Fatalf("get realm: %v", err)
	}
	if realmRec.Name != "demo" || realmRec.OwnerID != "owner-1" {
		t.Fatalf("unexpected realm projection: %+v", realmRec)
	}
	if realmRec.Status != realm.StatusActive {
		t.Fatalf("expected active status, got %s", realmRec.Status)
	}
	if realmRec.Pool != 500 || realmRec.RequiredBid != 500 {
		t.Fatalf("expected pool 500 and required bid 500, got %d and %d", realmRec.Pool, realmRec.RequiredBid)
	}
	if realmRec.HolderID != "" {
		t.Fatalf("expected unheld throne, got holder %q", realmRec.HolderID)
	}

	// Deposit moved from the owner wallet into realm escrow
	owner, err := store.GetAccount(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("get owner account: %v", err)
	}
	if owner.Balance != 500 {
		t.Fatalf("expected owner balance 500 after deposit, got %d", owner.Balance)
	}
	escrow, err := store.GetAccount(context.Background(), storage.EscrowAccountID(realmID))
	if err != nil {
		t.Fatalf("get escrow account: %v", err)
	}
	if escrow.Kind != storage.AccountKindEscrow {
		t.Fatalf("expected escrow account kind, got %s", escrow.Kind)
	}
	if escrow.Balance != 500 {
		t.Fatalf("expected escrow balance 500, got %d", escrow.Balance)
	}

	// Transfer audit row is attributed to the operation and event seq
	transfers, err := store.ListTransfers(context.Background(), realmID, 10)
	if err != nil {
		t.Fatalf("list transfers: %v", err)
	}
	if len(transfers) != 1 {
		t.Fatalf("expected 1 transfer, got %d", len(transfers))
	}
	if transfers[0].Operation != "realm.create" {
		t.Fatalf("expected operation realm.create, got %s", transfers[0].Operation)
	}
	if transfers[0].EventSeq != 1 {
		t.Fatalf("expected event seq 1, got %d", transfers[0].EventSeq)
	}
	if transfers[0].Amount != 500 {
		t.Fatalf("expected amount 500, got %d", transfers[0].Amount)
	}

	// Snapshot holds the folded aggregate at the committed seq
	raw, seq, err := store.GetState(context.Background(), realmID)
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if seq != 1 {
		t.Fatalf("expected snapshot seq 1, got %d", seq)
	}
	snapshot, err := aggregate.AssertState[aggregate.State](raw)
	if err != nil {
		t.Fatalf("assert snapshot state: %v", err)
	}
	if snapshot.Throne.Pool != 500 || snapshot.Realm.Name != "demo" {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}
}

func TestCommitDecisionRollsBackOnTransferFailure(t *testing.T) {
	store := openTestStore(t)
	realmID := "realm-rollback"
	ts := time.Date(2026, 2, 3, 12, 0, 0, 0, time.UTC)

	// Owner exists but has no funds, so the deposit transfer must fail.
	if _, err := store.OpenAccount(context.Background(), "owner-1"); err != nil {
		t.Fatalf("open account: %v", err)
	}

	state := aggregate.State{
		Realm: realm.State{
			Status:    realm.StatusActive,
			Name:      "demo",
			OwnerID:   "owner-1",
			BaseFee:   500,
			CreatedAt: ts,
		},
		Throne: throne.State{
			RequiredBid: 500,
			Pool:        500,
			OwnerID:     "owner-1",
			BaseFee:     500,
		},
	}
	_, err := store.CommitDecision(context.Background(), storage.CommitRequest{
		RealmID: realmID,
		Events:  []event.Event{testCreatedEvent(t, realmID, ts)},
		State:   state,
		Transfers: []storage.PlannedTransfer{{
			FromID:    "owner-1",
			ToID:      storage.EscrowAccountID(realmID),
			Amount:    500,
			Operation: "realm.create",
		}},
	})
	if err == nil {
		t.Fatal("expected commit to fail on unfunded transfer")
	}
	if !errors.Is(err, storage.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	var transferErr *storage.TransferError
	if !errors.As(err, &transferErr) {
		t.Fatalf("expected TransferError, got %T", err)
	}
	if transferErr.Operation != "realm.create" {
		t.Fatalf("expected failing operation realm.create, got %s", transferErr.Operation)
	}

	// Nothing from the failed commit is visible.
	latest, err := store.GetLatestEventSeq(context.Background(), realmID)
	if err != nil {
		t.Fatalf("get latest event seq: %v", err)
	}
	if latest != 0 {
		t.Fatalf("expected no journaled events after rollback, got seq %d", latest)
	}
	if _, err := store.GetRealm(context.Background(), realmID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for realm projection, got %v", err)
	}
	if _, _, err := store.GetState(context.Background(), realmID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for snapshot, got %v", err)
	}
	if _, err := store.GetAccount(context.Background(), storage.EscrowAccountID(realmID)); !errors.Is(err, storage.ErrAccountNotFound) {
		t.Fatalf("expected escrow account to be rolled back, got %v", err)
	}
}

func TestCommitDecisionRewardLedgerProjection(t *testing.T) {
	store := openTestStore(t)
	realmID := "realm-ledger"
	ts := time.Date(2026, 2, 3, 12, 0, 0, 0, time.UTC)
	deadline := ts.Add(throne.RewardWindow).UnixMilli()

	state := aggregate.State{
		Realm: realm.State{
			Status:    realm.StatusActive,
			Name:      "demo",
			OwnerID:   "owner-1",
			BaseFee:   500,
			CreatedAt: ts,
		},
		Throne: throne.State{
			HolderID:    "bob",
			RequiredBid: 700,
			RoundEnd:    ts.Add(throne.RoundDuration).UnixMilli(),
			Pool:        1300,
			OwedTotal:   130,
			Rewards: map[string]throne.Reward{
				"alice": {Amount: 60, Deadline: deadline, Tracked: true},
				"bob":   {Amount: 70, Deadline: deadline, Tracked: true},
			},
			Recipients: []string{"alice", "bob"},
			OwnerID:    "owner-1",
			BaseFee:    500,
		},
	}
	_, err := store.CommitDecision(context.Background(), storage.CommitRequest{
		RealmID: realmID,
		Events:  []event.Event{testClaimedEvent(t, realmID, "bob", 700, ts)},
		State:   state,
	})
	if err != nil {
		t.Fatalf("commit decision: %v", err)
	}

	alice, err := store.GetReward(context.Background(), realmID, "alice")
	if err != nil {
		t.Fatalf("get reward alice: %v", err)
	}
	if alice.Amount != 60 || alice.Position != 1 || !alice.Tracked {
		t.Fatalf("unexpected alice reward: %+v", alice)
	}
	bob, err := store.GetReward(context.Background(), realmID, "bob")
	if err != nil {
		t.Fatalf("get reward bob: %v", err)
	}
	if bob.Amount != 70 || bob.Position != 2 {
		t.Fatalf("unexpected bob reward: %+v", bob)
	}

	count, err := store.CountRecipients(context.Background(), realmID)
	if err != nil {
		t.Fatalf("count recipients: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 recipients, got %d", count)
	}
}

func TestCommitDecisionUpdatesProjectionOnLaterCommits(t *testing.T) {
	store := openTestStore(t)
	realmID := "realm-upsert"
	created := time.Date(2026, 2, 3, 12, 0, 0, 0, time.UTC)
	claimed := created.Add(10 * time.Minute)

	base := aggregate.State{
		Realm: realm.State{
			Status:    realm.StatusActive,
			Name:      "demo",
			OwnerID:   "owner-1",
			BaseFee:   500,
			CreatedAt: created,
		},
		Throne: throne.State{
			RequiredBid: 500,
			Pool:        500,
			OwnerID:     "owner-1",
			BaseFee:     500,
		},
	}
	if _, err := store.CommitDecision(context.Background(), storage.CommitRequest{
		RealmID: realmID,
		Events:  []event.Event{testCreatedEvent(t, realmID, created)},
		State:   base,
	}); err != nil {
		t.Fatalf("commit created: %v", err)
	}

	next := base
	next.Throne.HolderID = "alice"
	next.Throne.RequiredBid = 600
	next.Throne.RoundEnd = claimed.Add(throne.InitialWindow).UnixMilli()
	next.Throne.Pool = 1100
	next.Throne.OwedTotal = 60
	next.Throne.Rewards = map[string]throne.Reward{
		"owner-1": {Amount: 60, Deadline: claimed.Add(throne.RewardWindow).UnixMilli(), Tracked: true},
	}
	next.Throne.Recipients = []string{"owner-1"}
	result, err := store.CommitDecision(context.Background(), storage.CommitRequest{
		RealmID: realmID,
		Events:  []event.Event{testClaimedEvent(t, realmID, "alice", 600, claimed)},
		State:   next,
	})
	if err != nil {
		t.Fatalf("commit claimed: %v", err)
	}
	if result.LastSeq != 2 {
		t.Fatalf("expected last seq 2, got %d", result.LastSeq)
	}

	realmRec, err := store.GetRealm(context.Background(), realmID)
	if err != nil {
		t.Fatalf("get realm: %v", err)
	}
	if realmRec.HolderID != "alice" {
		t.Fatalf("expected holder alice, got %q", realmRec.HolderID)
	}
	if realmRec.Pool != 1100 || realmRec.RequiredBid != 600 {
		t.Fatalf("expected pool 1100 and required bid 600, got %d and %d", realmRec.Pool, realmRec.RequiredBid)
	}
	if !realmRec.UpdatedAt.After(realmRec.CreatedAt) {
		t.Fatalf("expected updated_at after created_at, got %v and %v", realmRec.UpdatedAt, realmRec.CreatedAt)
	}

	_, seq, err := store.GetState(context.Background(), realmID)
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if seq != 2 {
		t.Fatalf("expected snapshot seq 2, got %d", seq)
	}
}

func TestCommitDecisionRejectsMismatchedRealm(t *testing.T) {
	store := openTestStore(t)
	ts := time.Date(2026, 2, 3, 12, 0, 0, 0, time.UTC)

	_, err := store.CommitDecision(context.Background(), storage.CommitRequest{
		RealmID: "realm-a",
		Events:  []event.Event{testCreatedEvent(t, "realm-b", ts)},
		State:   aggregate.State{},
	})
	if err == nil {
		t.Fatal("expected error for event realm mismatch")
	}
}

func TestCommitDecisionRequiresEvents(t *testing.T) {
	store := openTestStore(t)

	_, err := store.CommitDecision(context.Background(), storage.CommitRequest{
		RealmID: "realm-a",
		State:   aggregate.State{},
	})
	if err == nil {
		t.Fatal("expected error for commit without events")
	}
}
