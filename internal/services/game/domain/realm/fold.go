package realm

import (
	"encoding/json"
	"fmt"

	"github.com/louisbranch/usurper.games/internal/services/game/domain/event"
)

// FoldHandledTypes returns the event types handled by the realm fold function.
func FoldHandledTypes() []event.Type {
	return []event.Type{
		EventTypeCreated,
	}
}

// Fold applies an event to realm state. It returns an error if a recognized
// event carries a payload that cannot be unmarshalled.
func Fold(state State, evt event.Event) (State, error) {
	switch evt.Type {
	case EventTypeCreated:
		var payload CreatedPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return state, fmt.Errorf("realm fold %s: %w", evt.Type, err)
		}
		state.Status = StatusActive
		state.Name = payload.Name
		state.OwnerID = payload.OwnerID
		state.BaseFee = payload.BaseFee
		state.CreatedAt = evt.Timestamp
	}
	return state, nil
}
