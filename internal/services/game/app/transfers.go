package app

import (
	"encoding/json"
	"fmt"

	apperrors "github.com/louisbranch/usurper.games/internal/platform/errors"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/event"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/realm"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/throne"
	"github.com/louisbranch/usurper.games/internal/services/game/storage"
)

// Treasury operation tags. Every escrow movement carries the tag of the
// operation that caused it, so the transfer audit trail reads like the
// journal.
const (
	opRealmCreate   = "realm.create"
	opThroneClaim   = "throne.claim"
	opRewardClaim   = "reward.claim"
	opRewardForward = "reward.forward"
	opPrizeClaim    = "prize.claim"
)

// planTransfers derives the treasury movements a decision's events require.
//
// The plan executes inside the same transaction as the journal append, so a
// failed movement rolls the whole operation back. Zero-amount movements are
// skipped: a settlement whose obligations consume the entire pool still
// succeeds, it just moves nothing.
func planTransfers(realmID string, events []event.Event) ([]storage.PlannedTransfer, error) {
	escrow := storage.EscrowAccountID(realmID)
	var plan []storage.PlannedTransfer
	add := func(from, to string, amount int64, operation string) {
		if amount <= 0 {
			return
		}
		plan = append(plan, storage.PlannedTransfer{
			FromID:    from,
			ToID:      to,
			Amount:    amount,
			Operation: operation,
		})
	}
	for _, evt := range events {
		switch evt.Type {
		case realm.EventTypeCreated:
			var payload realm.CreatedPayload
			if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
				return nil, fmt.Errorf("decode %s payload: %w", evt.Type, err)
			}
			add(payload.OwnerID, escrow, payload.Deposit, opRealmCreate)
		case throne.EventTypeClaimed:
			var payload throne.ClaimedPayload
			if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
				return nil, fmt.Errorf("decode %s payload: %w", evt.Type, err)
			}
			add(payload.Claimant, escrow, payload.Offered, opThroneClaim)
		case throne.EventTypeRewardPaid:
			var payload throne.RewardPaidPayload
			if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
				return nil, fmt.Errorf("decode %s payload: %w", evt.Type, err)
			}
			add(escrow, payload.Claimant, payload.Amount, opRewardClaim)
		case throne.EventTypeRewardExpired:
			// The forfeited amount stays in escrow but the redirect is still
			// recorded as an attributed movement so the audit trail shows
			// where the obligation went.
			var payload throne.RewardExpiredPayload
			if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
				return nil, fmt.Errorf("decode %s payload: %w", evt.Type, err)
			}
			add(escrow, escrow, payload.Amount, opRewardForward)
		case throne.EventTypePrizeClaimed:
			var payload throne.PrizeClaimedPayload
			if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
				return nil, fmt.Errorf("decode %s payload: %w", evt.Type, err)
			}
			add(escrow, payload.Winner, payload.Winnings, opPrizeClaim)
		case throne.EventTypeRoundStarted:
			// No funds move on a round reset.
		}
	}
	return plan, nil
}

// transferFailureCode maps a failed treasury operation to the error code its
// callers expect. Unknown operations fault: a movement outside the planned
// set means the books and the journal disagree.
func transferFailureCode(operation string) apperrors.Code {
	switch operation {
	case opRealmCreate, opThroneClaim:
		return apperrors.CodeFundsUnavailable
	case opRewardClaim:
		return apperrors.CodePayoutFailed
	case opRewardForward:
		return apperrors.CodeExpiredForwardFailed
	case opPrizeClaim:
		return apperrors.CodeSettlementTransferFailed
	default:
		return apperrors.CodeSolvencyFault
	}
}
