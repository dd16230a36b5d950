package realm

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
	CommandTypeCreate command.Type = "realm.create"
	EventTypeCreated  event.Type   = "realm.created"

	rejectionCodeDepositOutOfBounds  = "DEPOSIT_OUT_OF_BOUNDS"
	rejectionCodeRealmAlreadyCreated = "REALM_ALREADY_CREATED"
)

// MinInitialDeposit and MaxInitialDeposit bound the founding deposit in base
// units. The deposit seeds the prize pool and becomes both the first required
// bid and the floor it resets to.
const (
	MinInitialDeposit int64 = 100
	MaxInitialDeposit int64 = 100_000_000
)

// Decide returns the decision for a realm command against current state.
//
// The command actor becomes the realm owner: ownership is envelope metadata,
// not payload, so a caller cannot create a realm on someone else's behalf.
func Decide(state State, cmd command.Command, now func() time.Time) command.Decision {
	switch cmd.Type {
	case CommandTypeCreate:
		var payload CreatePayload
		if err := json.Unmarshal(cmd.PayloadJSON, &payload); err != nil {
			return command.Reject(command.Rejection{
				Code:    "PAYLOAD_DECODE_FAILED",
				Message: fmt.Sprintf("decode %s payload: %v", cmd.Type, err),
			})
		}
		if payload.Deposit < MinInitialDeposit || payload.Deposit > MaxInitialDeposit {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeDepositOutOfBounds,
				Message: fmt.Sprintf("deposit must be between %d and %d base units", MinInitialDeposit, MaxInitialDeposit),
				Metadata: map[string]string{
					"min": strconv.FormatInt(MinInitialDeposit, 10),
					"max": strconv.FormatInt(MaxInitialDeposit, 10),
					"got": strconv.FormatInt(payload.Deposit, 10),
				},
			})
		}
		if state.Status == StatusActive {
			return command.Reject(command.Rejection{
				Code:    rejectionCodeRealmAlreadyCreated,
				Message: "realm already created",
			})
		}
		if now == nil {
			now = time.Now
		}

		normalizedPayload := CreatedPayload{
			Name:    strings.TrimSpace(payload.Name),
			OwnerID: strings.TrimSpace(cmd.ActorID),
			Deposit: payload.Deposit,
			BaseFee: payload.Deposit,
		}
		payloadJSON, _ := json.Marshal(normalizedPayload)
		evt := command.NewEvent(cmd, EventTypeCreated, "realm", cmd.RealmID, payloadJSON, now().UTC())

		return command.Accept(evt)

	default:
		return command.Reject(command.Rejection{
			Code:    "COMMAND_TYPE_UNSUPPORTED",
			Message: fmt.Sprintf("command type %s is not supported by realm decider", cmd.Type),
		})
	}
}
