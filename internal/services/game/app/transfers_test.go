package app

import (
	"context"
	"testing"
	"time"

	apperrors "github.com/louisbranch/usurper.games/internal/platform/errors"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/event"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/realm"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/throne"
	"github.com/louisbranch/usurper.games/internal/services/game/storage"
)

// transferFaultStore fails the commit whenever the plan carries the armed
// operation, reporting the same TransferError shape the sqlite store
// produces when a balance check fails. Nothing is written on failure, which
// matches the store's all-or-nothing transaction.
type transferFaultStore struct {
	storage.Store
	failOp string
}

func (s *transferFaultStore) CommitDecision(ctx context.Context, req storage.CommitRequest) (storage.CommitResult, error) {
	if s.failOp != "" {
		for _, tr := range req.Transfers {
			if tr.Operation == s.failOp {
				return storage.CommitResult{}, &storage.TransferError{
					Operation: tr.Operation,
					FromID:    tr.FromID,
					ToID:      tr.ToID,
					Amount:    tr.Amount,
					Err:       storage.ErrInsufficientFunds,
				}
			}
		}
	}
	return s.Store.CommitDecision(ctx, req)
}

func newFaultService(t *testing.T, clock *fakeClock) (*Service, *transferFaultStore) {
	t.Helper()
	fault := &transferFaultStore{Store: openAppStore(t)}
	return newTestServiceWithStore(t, fault, clock), fault
}

func TestClaimRewardPayoutFailureRollsBack(t *testing.T) {
	clock := newFakeClock(testStart())
	svc, fault := newFaultService(t, clock)
	foundRealm(t, svc, "realm-1", "alice", 500)
	fundParticipant(t, svc, "bob", 2_000)
	if _, err := svc.ClaimThrone(context.Background(), ClaimThroneParams{
		RealmID: "realm-1",
		ActorID: "bob",
		Offered: 600,
	}); err != nil {
		t.Fatalf("claim throne: %v", err)
	}

	fault.failOp = "reward.claim"
	_, err := svc.ClaimReward(context.Background(), ClaimRewardParams{
		RealmID: "realm-1",
		ActorID: "alice",
	})
	assertCode(t, err, apperrors.CodePayoutFailed)

	status, err := svc.Status(context.Background(), "realm-1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Pool != 1_100 || status.OwedTotal != 60 {
		t.Fatalf("expected pool 1100 owed 60 after rollback, got pool %d owed %d", status.Pool, status.OwedTotal)
	}
	if got := balanceOf(t, svc, "alice"); got != 0 {
		t.Fatalf("expected alice balance 0 after rollback, got %d", got)
	}

	// The obligation survives the failed payout and stays collectable.
	fault.failOp = ""
	result, err := svc.ClaimReward(context.Background(), ClaimRewardParams{
		RealmID: "realm-1",
		ActorID: "alice",
	})
	if err != nil {
		t.Fatalf("retry reward claim: %v", err)
	}
	if result.Forfeited || result.Amount != 60 {
		t.Fatalf("expected payout of 60 on retry, got %+v", result)
	}
	if got := balanceOf(t, svc, "alice"); got != 60 {
		t.Fatalf("expected alice balance 60 after retry, got %d", got)
	}
}

func TestClaimRewardForwardFailureRollsBack(t *testing.T) {
	clock := newFakeClock(testStart())
	svc, fault := newFaultService(t, clock)
	foundRealm(t, svc, "realm-1", "alice", 500)
	fundParticipant(t, svc, "bob", 2_000)
	fundParticipant(t, svc, "carol", 2_000)
	if _, err := svc.ClaimThrone(context.Background(), ClaimThroneParams{
		RealmID: "realm-1",
		ActorID: "bob",
		Offered: 600,
	}); err != nil {
		t.Fatalf("claim throne: %v", err)
	}
	if _, err := svc.ClaimThrone(context.Background(), ClaimThroneParams{
		RealmID: "realm-1",
		ActorID: "carol",
		Offered: 700,
	}); err != nil {
		t.Fatalf("second claim: %v", err)
	}

	clock.Advance(throne.RewardWindow + time.Hour)
	fault.failOp = "reward.forward"
	_, err := svc.ClaimReward(context.Background(), ClaimRewardParams{
		RealmID: "realm-1",
		ActorID: "bob",
	})
	assertCode(t, err, apperrors.CodeExpiredForwardFailed)

	// The forfeit did not land: bob's record is still addressed to bob.
	page, err := svc.ListRecipients(context.Background(), ListRecipientsParams{
		RealmID: "realm-1",
		Filter:  `recipient_id = "bob"`,
	})
	if err != nil {
		t.Fatalf("list recipients: %v", err)
	}
	if len(page.Recipients) != 1 || page.Recipients[0].Amount != 70 {
		t.Fatalf("expected bob still owed 70, got %+v", page.Recipients)
	}

	fault.failOp = ""
	result, err := svc.ClaimReward(context.Background(), ClaimRewardParams{
		RealmID: "realm-1",
		ActorID: "bob",
	})
	if err != nil {
		t.Fatalf("retry reward claim: %v", err)
	}
	if !result.Forfeited || result.RedirectedTo != "alice" {
		t.Fatalf("expected forfeit to alice on retry, got %+v", result)
	}
}

func TestClaimPrizeSettlementFailureRollsBack(t *testing.T) {
	clock := newFakeClock(testStart())
	svc, fault := newFaultService(t, clock)
	foundRealm(t, svc, "realm-1", "alice", 500)
	fundParticipant(t, svc, "bob", 2_000)
	if _, err := svc.ClaimThrone(context.Background(), ClaimThroneParams{
		RealmID: "realm-1",
		ActorID: "bob",
		Offered: 600,
	}); err != nil {
		t.Fatalf("claim throne: %v", err)
	}

	clock.Advance(throne.InitialWindow + time.Hour)
	fault.failOp = "prize.claim"
	_, err := svc.ClaimPrize(context.Background(), ClaimPrizeParams{
		RealmID: "realm-1",
		ActorID: "bob",
	})
	assertCode(t, err, apperrors.CodeSettlementTransferFailed)

	status, err := svc.Status(context.Background(), "realm-1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Pool != 1_100 || status.GamesPlayed != 0 {
		t.Fatalf("expected pool 1100 and no settled games after rollback, got pool %d games %d", status.Pool, status.GamesPlayed)
	}
	if got := balanceOf(t, svc, "bob"); got != 1_400 {
		t.Fatalf("expected bob balance 1400 after rollback, got %d", got)
	}

	fault.failOp = ""
	result, err := svc.ClaimPrize(context.Background(), ClaimPrizeParams{
		RealmID: "realm-1",
		ActorID: "bob",
	})
	if err != nil {
		t.Fatalf("retry prize claim: %v", err)
	}
	if result.Winnings != 1_040 {
		t.Fatalf("expected winnings 1040 on retry, got %d", result.Winnings)
	}
}

func TestTransferFailureCodeByOperation(t *testing.T) {
	cases := []struct {
		operation string
		want      apperrors.Code
	}{
		{opRealmCreate, apperrors.CodeFundsUnavailable},
		{opThroneClaim, apperrors.CodeFundsUnavailable},
		{opRewardClaim, apperrors.CodePayoutFailed},
		{opRewardForward, apperrors.CodeExpiredForwardFailed},
		{opPrizeClaim, apperrors.CodeSettlementTransferFailed},
		{"ledger.rebalance", apperrors.CodeSolvencyFault},
		{"", apperrors.CodeSolvencyFault},
	}
	for _, tc := range cases {
		if got := transferFailureCode(tc.operation); got != tc.want {
			t.Errorf("transferFailureCode(%q) = %s, want %s", tc.operation, got, tc.want)
		}
	}
}

func TestPlanTransfersByEventType(t *testing.T) {
	escrow := storage.EscrowAccountID("realm-1")
	cases := []struct {
		name    string
		evt     event.Event
		want    []storage.PlannedTransfer
		wantErr bool
	}{
		{
			name: "created debits the owner deposit",
			evt: event.Event{
				Type:        realm.EventTypeCreated,
				PayloadJSON: []byte(`{"name":"Iron Hill","owner_id":"alice","deposit":500,"base_fee":500}`),
			},
			want: []storage.PlannedTransfer{
				{FromID: "alice", ToID: escrow, Amount: 500, Operation: "realm.create"},
			},
		},
		{
			name: "claimed debits the full offer",
			evt: event.Event{
				Type:        throne.EventTypeClaimed,
				PayloadJSON: []byte(`{"claimant":"bob","offered":600,"reward":60,"beneficiary":"alice"}`),
			},
			want: []storage.PlannedTransfer{
				{FromID: "bob", ToID: escrow, Amount: 600, Operation: "throne.claim"},
			},
		},
		{
			name: "reward paid credits the claimant from escrow",
			evt: event.Event{
				Type:        throne.EventTypeRewardPaid,
				PayloadJSON: []byte(`{"claimant":"alice","amount":60}`),
			},
			want: []storage.PlannedTransfer{
				{FromID: escrow, ToID: "alice", Amount: 60, Operation: "reward.claim"},
			},
		},
		{
			name: "reward expired records an attributed escrow movement",
			evt: event.Event{
				Type:        throne.EventTypeRewardExpired,
				PayloadJSON: []byte(`{"claimant":"bob","amount":70,"redirected_to":"alice"}`),
			},
			want: []storage.PlannedTransfer{
				{FromID: escrow, ToID: escrow, Amount: 70, Operation: "reward.forward"},
			},
		},
		{
			name: "prize claimed credits the winner",
			evt: event.Event{
				Type:        throne.EventTypePrizeClaimed,
				PayloadJSON: []byte(`{"winner":"bob","winnings":1040}`),
			},
			want: []storage.PlannedTransfer{
				{FromID: escrow, ToID: "bob", Amount: 1_040, Operation: "prize.claim"},
			},
		},
		{
			name: "zero winnings settlement moves nothing",
			evt: event.Event{
				Type:        throne.EventTypePrizeClaimed,
				PayloadJSON: []byte(`{"winner":"bob","winnings":0}`),
			},
			want: nil,
		},
		{
			name: "round started moves nothing",
			evt: event.Event{
				Type:        throne.EventTypeRoundStarted,
				PayloadJSON: []byte(`{"starter":"alice","base_fee":500}`),
			},
			want: nil,
		},
		{
			name: "malformed payload fails the plan",
			evt: event.Event{
				Type:        throne.EventTypeClaimed,
				PayloadJSON: []byte(`{`),
			},
			wantErr: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			plan, err := planTransfers("realm-1", []event.Event{tc.evt})
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("plan transfers: %v", err)
			}
			if len(plan) != len(tc.want) {
				t.Fatalf("plan = %+v, want %+v", plan, tc.want)
			}
			for i := range plan {
				if plan[i] != tc.want[i] {
					t.Fatalf("leg %d = %+v, want %+v", i, plan[i], tc.want[i])
				}
			}
		})
	}
}
