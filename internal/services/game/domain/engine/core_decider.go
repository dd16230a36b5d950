package engine

import (
	"fmt"
	"time"

	"github.com/louisbranch/usurper.games/internal/services/game/domain/aggregate"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/command"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/realm"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/throne"
)

// RejectionCodeRealmNotFound rejects throne commands addressed to a realm
// that has never been created. The app layer maps it to a not-found error
// rather than a precondition failure.
const RejectionCodeRealmNotFound = "REALM_NOT_FOUND"

const (
	rejectionCodeStateTypeInvalid   = "STATE_TYPE_INVALID"
	rejectionCodeCommandUnsupported = "COMMAND_TYPE_UNSUPPORTED"
)

// CoreDecider routes a command to the decider of the domain that owns it.
type CoreDecider struct{}

// Decide narrows the aggregate state and dispatches on command type.
//
// Throne commands are gated on realm existence here rather than in the
// throne decider: every post-creation operation shares the same gate, and
// the throne decider stays a pure function of throne state.
func (d CoreDecider) Decide(state any, cmd command.Command, now func() time.Time) command.Decision {
	aggState, err := aggregate.AssertState[aggregate.State](state)
	if err != nil {
		return command.Reject(command.Rejection{
			Code:    rejectionCodeStateTypeInvalid,
			Message: err.Error(),
		})
	}

	switch cmd.Type {
	case realm.CommandTypeCreate:
		return realm.Decide(aggState.Realm, cmd, now)
	case throne.CommandTypeClaim,
		throne.CommandTypeRewardClaim,
		throne.CommandTypePrizeClaim,
		throne.CommandTypeRoundStart:
		if aggState.Realm.Status != realm.StatusActive {
			return command.Reject(command.Rejection{
				Code:    RejectionCodeRealmNotFound,
				Message: fmt.Sprintf("realm %s has not been created", cmd.RealmID),
			})
		}
		return throne.Decide(aggState.Throne, cmd, now)
	default:
		return command.Reject(command.Rejection{
			Code:    rejectionCodeCommandUnsupported,
			Message: fmt.Sprintf("command type %s is not handled by any core domain", cmd.Type),
		})
	}
}
