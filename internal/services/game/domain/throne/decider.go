package throne

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/louisbranch/usurper.games/internal/services/game/domain/command"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/event"
)

const (
	CommandTypeClaim       command.Type = "throne.claim"
	CommandTypeRewardClaim command.Type = "reward.claim"
	CommandTypePrizeClaim  command.Type = "prize.claim"
	CommandTypeRoundStart  command.Type = "round.start"
	EventTypeClaimed       event.Type   = "throne.claimed"
	EventTypeRewardPaid    event.Type   = "reward.paid"
	EventTypeRewardExpired event.Type   = "reward.expired"
	EventTypePrizeClaimed  event.Type   = "prize.claimed"
	EventTypeRoundStarted  event.Type   = "round.started"

	rejectionCodeRoundConcluded       = "ROUND_CONCLUDED"
	rejectionCodeAlreadyHolder        = "ALREADY_HOLDER"
	rejectionCodeInsufficientOffer    = "INSUFFICIENT_OFFER"
	rejectionCodeNothingOwed          = "NOTHING_OWED"
	rejectionCodeNotCurrentHolder     = "NOT_CURRENT_HOLDER"
	rejectionCodeRoundNotYetConcluded = "ROUND_NOT_YET_CONCLUDED"
	rejectionCodeNotAuthorized        = "NOT_AUTHORIZED"
	rejectionCodeRoundStillActive     = "ROUND_STILL_ACTIVE"
)

// RejectionCodeSolvencyFault marks a broken solvency invariant detected at
// settlement time. Unlike the other rejection codes it is not a caller
// mistake; the app layer maps it to an internal fault.
const RejectionCodeSolvencyFault = "SOLVENCY_FAULT"

// Decide returns the decision for a throne command against current state.
//
// The caller of every throne command is the command actor. Checks run in a
// fixed order and the first failure wins; a rejected command emits nothing.
func Decide(state State, cmd command.Command, now func() time.Time) command.Decision {
	if now == nil {
		now = time.Now
	}

	switch cmd.Type {
	case CommandTypeClaim:
		ts := now().UTC()
		nowMs := ts.UnixMilli()
		if state.RoundEnd != 0 && nowMs >= state.RoundEnd {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeRoundConcluded,
				Message: "round has concluded",
			})
		}
		caller := strings.TrimSpace(cmd.ActorID)
		if state.HolderID != "" && caller == state.HolderID {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeAlreadyHolder,
				Message: "caller already holds the throne",
			})
		}
		var payload ClaimPayload
		if err := json.Unmarshal(cmd.PayloadJSON, &payload); err != nil {
			return command.Reject(command.Rejection{
				Code:    "PAYLOAD_DECODE_FAILED",
				Message: fmt.Sprintf("decode %s payload: %v", cmd.Type, err),
			})
		}
		if payload.Offered <= state.RequiredBid {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeInsufficientOffer,
				Message: fmt.Sprintf("offer must exceed %d base units", state.RequiredBid),
				Metadata: map[string]string{
					"required": strconv.FormatInt(state.RequiredBid, 10),
					"got":      strconv.FormatInt(payload.Offered, 10),
				},
			})
		}

		reward := payload.Offered * RewardPct / 100
		beneficiary := state.HolderID
		if beneficiary == "" {
			beneficiary = state.OwnerID
		}
		roundEnd := ts.Add(RoundDuration).UnixMilli()
		if state.RoundEnd == 0 {
			roundEnd = ts.Add(InitialWindow).UnixMilli()
		}

		normalizedPayload := ClaimedPayload{
			Claimant:       caller,
			Offered:        payload.Offered,
			Reward:         reward,
			Beneficiary:    beneficiary,
			RoundEnd:       roundEnd,
			RewardDeadline: ts.Add(RewardWindow).UnixMilli(),
		}
		payloadJSON, _ := json.Marshal(normalizedPayload)
		evt := command.NewEvent(cmd, EventTypeClaimed, "throne", cmd.RealmID, payloadJSON, ts)

		return command.Accept(evt)

	case CommandTypeRewardClaim:
		caller := strings.TrimSpace(cmd.ActorID)
		record := state.Rewards[caller]
		if record.Amount == 0 {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeNothingOwed,
				Message: "no reward outstanding for caller",
			})
		}
		ts := now().UTC()

		// Strictly past the deadline forfeits to the realm owner; the
		// deadline instant itself is still claimable.
		if ts.UnixMilli() > record.Deadline {
			normalizedPayload := RewardExpiredPayload{
				Claimant:     caller,
				Amount:       record.Amount,
				RedirectedTo: state.OwnerID,
				NewDeadline:  ts.Add(RewardWindow).UnixMilli(),
			}
			payloadJSON, _ := json.Marshal(normalizedPayload)
			evt := command.NewEvent(cmd, EventTypeRewardExpired, "throne", cmd.RealmID, payloadJSON, ts)

			return command.Accept(evt)
		}

		normalizedPayload := RewardPaidPayload{
			Claimant: caller,
			Amount:   record.Amount,
		}
		payloadJSON, _ := json.Marshal(normalizedPayload)
		evt := command.NewEvent(cmd, EventTypeRewardPaid, "throne", cmd.RealmID, payloadJSON, ts)

		return command.Accept(evt)

	case CommandTypePrizeClaim:
		caller := strings.TrimSpace(cmd.ActorID)
		if state.HolderID == "" || caller != state.HolderID {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeNotCurrentHolder,
				Message: "caller does not hold the throne",
			})
		}
		ts := now().UTC()
		if ts.UnixMilli() <= state.RoundEnd {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeRoundNotYetConcluded,
				Message: "round has not concluded",
			})
		}
		winnings := state.Pool - state.OwedTotal
		if winnings < 0 {
			return command.Reject(command.Rejection{
				Code:    RejectionCodeSolvencyFault,
				Message: "prize pool is below outstanding liabilities",
				Metadata: map[string]string{
					"pool": strconv.FormatInt(state.Pool, 10),
					"owed": strconv.FormatInt(state.OwedTotal, 10),
				},
			})
		}

		normalizedPayload := PrizeClaimedPayload{
			Winner:   caller,
			Winnings: winnings,
			RoundEnd: state.RoundEnd,
		}
		payloadJSON, _ := json.Marshal(normalizedPayload)
		evt := command.NewEvent(cmd, EventTypePrizeClaimed, "throne", cmd.RealmID, payloadJSON, ts)

		return command.Accept(evt)

	case CommandTypeRoundStart:
		caller := strings.TrimSpace(cmd.ActorID)
		if caller == "" || (caller != state.HolderID && caller != state.OwnerID) {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeNotAuthorized,
				Message: "only the holder or the realm owner may start a round",
			})
		}
		ts := now().UTC()
		if ts.UnixMilli() <= state.RoundEnd {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeRoundStillActive,
				Message: "round is still active",
			})
		}

		normalizedPayload := RoundStartedPayload{
			Starter: caller,
			BaseFee: state.BaseFee,
		}
		payloadJSON, _ := json.Marshal(normalizedPayload)
		evt := command.NewEvent(cmd, EventTypeRoundStarted, "throne", cmd.RealmID, payloadJSON, ts)

		return command.Accept(evt)

	default:
		return command.Reject(command.Rejection{
			Code:    "COMMAND_TYPE_UNSUPPORTED",
			Message: fmt.Sprintf("command type %s is not supported by throne decider", cmd.Type),
		})
	}
}
