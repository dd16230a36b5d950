package realm

import (
	"encoding/json"
	"errors"

	"github.com/louisbranch/usurper.games/internal/services/game/domain/command"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/event"
)

// RegisterCommands registers realm commands with the shared registry.
func RegisterCommands(registry *command.Registry) error {
	if registry == nil {
		return errors.New("command registry is required")
	}
	return registry.Register(command.Definition{
		Type:            CommandTypeCreate,
		ValidatePayload: validateCreatePayload,
	})
}

// EmittableEventTypes returns all event types the realm decider can emit.
func EmittableEventTypes() []event.Type {
	return []event.Type{EventTypeCreated}
}

// DeciderHandledCommands returns the command types the realm decider handles.
func DeciderHandledCommands() []command.Type {
	return []command.Type{CommandTypeCreate}
}

// ProjectionHandledTypes returns the event types the realm projection consumes.
func ProjectionHandledTypes() []event.Type {
	return []event.Type{EventTypeCreated}
}

// RegisterEvents registers realm events with the shared registry.
func RegisterEvents(registry *event.Registry) error {
	if registry == nil {
		return errors.New("event registry is required")
	}
	return registry.Register(event.Definition{
		Type:            EventTypeCreated,
		Addressing:      event.AddressingPolicyEntityTarget,
		Intent:          event.IntentProjectionAndReplay,
		ValidatePayload: validateCreatedPayload,
	})
}

// validateCreatePayload ensures create payloads match the realm create shape.
func validateCreatePayload(raw json.RawMessage) error {
	var payload CreatePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	return nil
}

// validateCreatedPayload ensures created payloads match the realm created shape.
func validateCreatedPayload(raw json.RawMessage) error {
	var payload CreatedPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	return nil
}
