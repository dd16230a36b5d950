package throne

import (
	"encoding/json"
	"errors"

	"github.com/louisbranch/usurper.games/internal/services/game/domain/command"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/event"
)

// RegisterCommands registers throne commands with the shared registry.
func RegisterCommands(registry *command.Registry) error {
	if registry == nil {
		return errors.New("command registry is required")
	}
	if err := registry.Register(command.Definition{
		Type:            CommandTypeClaim,
		ValidatePayload: validateClaimPayload,
	}); err != nil {
		return err
	}
	if err := registry.Register(command.Definition{
		Type:            CommandTypeRewardClaim,
		ValidatePayload: validateRewardClaimPayload,
	}); err != nil {
		return err
	}
	if err := registry.Register(command.Definition{
		Type:            CommandTypePrizeClaim,
		ValidatePayload: validatePrizeClaimPayload,
	}); err != nil {
		return err
	}
	return registry.Register(command.Definition{
		Type:            CommandTypeRoundStart,
		ValidatePayload: validateRoundStartPayload,
	})
}

// EmittableEventTypes returns all event types the throne decider can emit.
func EmittableEventTypes() []event.Type {
	return []event.Type{
		EventTypeClaimed,
		EventTypeRewardPaid,
		EventTypeRewardExpired,
		EventTypePrizeClaimed,
		EventTypeRoundStarted,
	}
}

// DeciderHandledCommands returns the command types the throne decider handles.
func DeciderHandledCommands() []command.Type {
	return []command.Type{
		CommandTypeClaim,
		CommandTypeRewardClaim,
		CommandTypePrizeClaim,
		CommandTypeRoundStart,
	}
}

// ProjectionHandledTypes returns the event types the throne projections
// consume. The rewards projection tracks every ledger movement; the realm
// projection tracks holder and round changes.
func ProjectionHandledTypes() []event.Type {
	return []event.Type{
		EventTypeClaimed,
		EventTypeRewardPaid,
		EventTypeRewardExpired,
		EventTypePrizeClaimed,
		EventTypeRoundStarted,
	}
}

// RegisterEvents registers throne events with the shared registry.
func RegisterEvents(registry *event.Registry) error {
	if registry == nil {
		return errors.New("event registry is required")
	}
	if err := registry.Register(event.Definition{
		Type:            EventTypeClaimed,
		Addressing:      event.AddressingPolicyEntityTarget,
		Intent:          event.IntentProjectionAndReplay,
		ValidatePayload: validateClaimedPayload,
	}); err != nil {
		return err
	}
	if err := registry.Register(event.Definition{
		Type:            EventTypeRewardPaid,
		Addressing:      event.AddressingPolicyEntityTarget,
		Intent:          event.IntentProjectionAndReplay,
		ValidatePayload: validateRewardPaidPayload,
	}); err != nil {
		return err
	}
	if err := registry.Register(event.Definition{
		Type:            EventTypeRewardExpired,
		Addressing:      event.AddressingPolicyEntityTarget,
		Intent:          event.IntentProjectionAndReplay,
		ValidatePayload: validateRewardExpiredPayload,
	}); err != nil {
		return err
	}
	if err := registry.Register(event.Definition{
		Type:            EventTypePrizeClaimed,
		Addressing:      event.AddressingPolicyEntityTarget,
		Intent:          event.IntentProjectionAndReplay,
		ValidatePayload: validatePrizeClaimedPayload,
	}); err != nil {
		return err
	}
	return registry.Register(event.Definition{
		Type:            EventTypeRoundStarted,
		Addressing:      event.AddressingPolicyEntityTarget,
		Intent:          event.IntentProjectionAndReplay,
		ValidatePayload: validateRoundStartedPayload,
	})
}

// validateClaimPayload ensures claim payloads match the throne claim shape.
func validateClaimPayload(raw json.RawMessage) error {
	var payload ClaimPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	return nil
}

// validateRewardClaimPayload ensures reward claim payloads carry no fields
// of the wrong shape.
func validateRewardClaimPayload(raw json.RawMessage) error {
	var payload RewardClaimPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	return nil
}

// validatePrizeClaimPayload ensures prize claim payloads carry no fields of
// the wrong shape.
func validatePrizeClaimPayload(raw json.RawMessage) error {
	var payload PrizeClaimPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	return nil
}

// validateRoundStartPayload ensures round start payloads carry no fields of
// the wrong shape.
func validateRoundStartPayload(raw json.RawMessage) error {
	var payload RoundStartPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	return nil
}

// validateClaimedPayload ensures claimed payloads match the claimed shape.
func validateClaimedPayload(raw json.RawMessage) error {
	var payload ClaimedPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	return nil
}

// validateRewardPaidPayload ensures reward paid payloads match the paid shape.
func validateRewardPaidPayload(raw json.RawMessage) error {
	var payload RewardPaidPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	return nil
}

// validateRewardExpiredPayload ensures reward expired payloads match the
// expired shape.
func validateRewardExpiredPayload(raw json.RawMessage) error {
	var payload RewardExpiredPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	return nil
}

// validatePrizeClaimedPayload ensures prize claimed payloads match the
// claimed shape.
func validatePrizeClaimedPayload(raw json.RawMessage) error {
	var payload PrizeClaimedPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	return nil
}

// validateRoundStartedPayload ensures round started payloads match the
// started shape.
func validateRoundStartedPayload(raw json.RawMessage) error {
	var payload RoundStartedPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	return nil
}
