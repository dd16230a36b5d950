package throne

import (
	"encoding/json"
	"fmt"

	"github.com/louisbranch/usurper.games/internal/services/game/domain/event"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/realm"
)

// FoldHandledTypes returns the event types handled by the throne fold
// function. Realm creation is included because it seeds the pool and the
// required bid.
func FoldHandledTypes() []event.Type {
	return []event.Type{
		realm.EventTypeCreated,
		EventTypeClaimed,
		EventTypeRewardPaid,
		EventTypeRewardExpired,
		EventTypePrizeClaimed,
		EventTypeRoundStarted,
	}
}

// Fold applies an event to throne state. It returns an error if a recognized
// event carries a payload that cannot be unmarshalled.
//
// The input state is never mutated: the reward ledger is copied before any
// write so callers may keep earlier states around.
func Fold(state State, evt event.Event) (State, error) {
	switch evt.Type {
	case realm.EventTypeCreated:
		var payload realm.CreatedPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return state, fmt.Errorf("throne fold %s: %w", evt.Type, err)
		}
		state.Pool = payload.Deposit
		state.RequiredBid = payload.BaseFee
		state.HolderID = ""
		state.RoundEnd = 0
		state.OwnerID = payload.OwnerID
		state.BaseFee = payload.BaseFee

	case EventTypeClaimed:
		var payload ClaimedPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return state, fmt.Errorf("throne fold %s: %w", evt.Type, err)
		}
		// Liability and pool move together so solvency holds between any
		// two folds.
		rewards := cloneRewards(state.Rewards)
		record := rewards[payload.Beneficiary]
		record.Amount += payload.Reward
		record.Deadline = payload.RewardDeadline
		record.Tracked = true
		rewards[payload.Beneficiary] = record
		state.Rewards = rewards
		state.Recipients = appendRecipient(state.Recipients, payload.Beneficiary)
		state.OwedTotal += payload.Reward
		state.Pool += payload.Offered
		state.HolderID = payload.Claimant
		state.RequiredBid = payload.Offered
		state.RoundEnd = payload.RoundEnd

	case EventTypeRewardPaid:
		var payload RewardPaidPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return state, fmt.Errorf("throne fold %s: %w", evt.Type, err)
		}
		rewards := cloneRewards(state.Rewards)
		record := rewards[payload.Claimant]
		record.Amount = 0
		rewards[payload.Claimant] = record
		state.Rewards = rewards
		state.OwedTotal -= payload.Amount
		state.Pool -= payload.Amount

	case EventTypeRewardExpired:
		var payload RewardExpiredPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return state, fmt.Errorf("throne fold %s: %w", evt.Type, err)
		}
		// The liability moves to the redirect target; it does not vanish.
		// Zeroing runs first so a self-redirect nets to the same amount
		// under the new deadline.
		rewards := cloneRewards(state.Rewards)
		record := rewards[payload.Claimant]
		record.Amount = 0
		rewards[payload.Claimant] = record
		target := rewards[payload.RedirectedTo]
		target.Amount += payload.Amount
		target.Deadline = payload.NewDeadline
		target.Tracked = true
		rewards[payload.RedirectedTo] = target
		state.Rewards = rewards
		state.Recipients = appendRecipient(state.Recipients, payload.RedirectedTo)

	case EventTypePrizeClaimed:
		var payload PrizeClaimedPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return state, fmt.Errorf("throne fold %s: %w", evt.Type, err)
		}
		state.Pool -= payload.Winnings
		state.GamesPlayed++
		state.TotalAwarded += payload.Winnings

	case EventTypeRoundStarted:
		var payload RoundStartedPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return state, fmt.Errorf("throne fold %s: %w", evt.Type, err)
		}
		state.HolderID = ""
		state.RequiredBid = payload.BaseFee
		state.RoundEnd = 0
	}
	return state, nil
}

func cloneRewards(src map[string]Reward) map[string]Reward {
	cloned := make(map[string]Reward, len(src)+1)
	for id, record := range src {
		cloned[id] = record
	}
	return cloned
}

func appendRecipient(recipients []string, id string) []string {
	for _, existing := range recipients {
		if existing == id {
			return recipients
		}
	}
	appended := make([]string, 0, len(recipients)+1)
	appended = append(appended, recipients...)
	return append(appended, id)
}
