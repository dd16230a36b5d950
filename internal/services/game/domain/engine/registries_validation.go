package engine

import (
	"fmt"
	"strings"

	"github.com/louisbranch/usurper.games/internal/services/game/domain/aggregate"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/command"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/event"
)

// validateEmittableEventTypes ensures every event type a core domain decider
// declares as emittable is registered in the event registry.
func validateEmittableEventTypes(events *event.Registry) error {
	var missing []string
	for _, domain := range CoreDomains() {
		for _, t := range domain.EmittableEventTypes() {
			if _, ok := events.Definition(t); !ok {
				missing = append(missing, string(t))
			}
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("core emittable event types not in registry: %s",
			strings.Join(missing, ", "))
	}
	return nil
}

// ValidateDeciderCommandCoverage verifies that every registered command type
// is claimed by some CoreDomain's DeciderHandledCommands, and conversely that
// every declared handler has a matching registration.
func ValidateDeciderCommandCoverage(commands *command.Registry) error {
	if commands == nil {
		return fmt.Errorf("command registry is required for decider coverage validation")
	}

	declared := make(map[command.Type]struct{})
	for _, domain := range CoreDomains() {
		if domain.DeciderHandledCommands == nil {
			continue
		}
		for _, t := range domain.DeciderHandledCommands() {
			declared[t] = struct{}{}
		}
	}

	registered := make(map[command.Type]struct{})
	var missing []string
	for _, def := range commands.ListDefinitions() {
		registered[def.Type] = struct{}{}
		if _, ok := declared[def.Type]; !ok {
			missing = append(missing, string(def.Type))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("commands missing decider handlers: %s", strings.Join(missing, ", "))
	}

	var stale []string
	for t := range declared {
		if _, ok := registered[t]; !ok {
			stale = append(stale, string(t))
		}
	}
	if len(stale) > 0 {
		return fmt.Errorf("stale decider handler declarations without registration: %s",
			strings.Join(stale, ", "))
	}
	return nil
}

// ValidateFoldCoverage verifies that every event with IntentProjectionAndReplay
// or IntentReplayOnly has a fold handler declared via FoldHandledTypes in the
// domain packages.
//
// This is a startup-time safety check: if a developer adds a new event that
// affects aggregate state and forgets the fold case, the server refuses to
// start.
func ValidateFoldCoverage(events *event.Registry) error {
	if events == nil {
		return fmt.Errorf("event registry is required for fold coverage validation")
	}

	handled := make(map[event.Type]struct{})
	for _, domain := range CoreDomains() {
		for _, t := range domain.FoldHandledTypes() {
			handled[t] = struct{}{}
		}
	}

	var missing []string
	for _, def := range events.ListDefinitions() {
		if def.Intent != event.IntentProjectionAndReplay && def.Intent != event.IntentReplayOnly {
			continue
		}
		if _, ok := handled[def.Type]; !ok {
			missing = append(missing, string(def.Type))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("replay events missing fold handlers: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ValidateNoFoldHandlersForAuditOnlyEvents verifies that no fold handler
// exists for an event with IntentAuditOnly. Such a handler would be dead
// code: the aggregate folder skips audit-only events at runtime, so a
// handler would never execute.
func ValidateNoFoldHandlersForAuditOnlyEvents(events *event.Registry, foldHandled []event.Type) error {
	if events == nil {
		return fmt.Errorf("event registry is required for audit-only fold guard")
	}

	var dead []string
	for _, t := range foldHandled {
		def, ok := events.Definition(t)
		if !ok {
			continue
		}
		if def.Intent == event.IntentAuditOnly {
			dead = append(dead, string(t))
		}
	}
	if len(dead) > 0 {
		return fmt.Errorf("fold handlers registered for audit-only events (dead code): %s",
			strings.Join(dead, ", "))
	}
	return nil
}

// ValidateEntityKeyedAddressing verifies addressing consistency within each
// core domain. A domain is entity-keyed when ANY of its registered
// FoldHandledTypes have AddressingPolicyEntityTarget. Once identified as
// entity-keyed, ALL fold types in that domain must have the same policy.
func ValidateEntityKeyedAddressing(events *event.Registry) error {
	if events == nil {
		return fmt.Errorf("event registry is required for entity-keyed addressing validation")
	}

	var missing []string
	for _, domain := range CoreDomains() {
		types := domain.FoldHandledTypes()

		hasEntityAddressing := false
		for _, t := range types {
			def, ok := events.Definition(t)
			if !ok {
				continue
			}
			if def.Addressing == event.AddressingPolicyEntityTarget {
				hasEntityAddressing = true
				break
			}
		}
		if !hasEntityAddressing {
			continue
		}

		for _, t := range types {
			def, ok := events.Definition(t)
			if !ok {
				continue
			}
			if def.Addressing != event.AddressingPolicyEntityTarget {
				missing = append(missing, string(t))
			}
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("entity-keyed fold types missing AddressingPolicyEntityTarget: %s",
			strings.Join(missing, ", "))
	}
	return nil
}

// ValidateProjectionCoverage verifies that every event with
// IntentProjectionAndReplay is claimed by some domain's
// ProjectionHandledTypes, so no journaled event silently disappears from the
// read models.
func ValidateProjectionCoverage(events *event.Registry) error {
	if events == nil {
		return fmt.Errorf("event registry is required for projection coverage validation")
	}

	handled := make(map[event.Type]struct{})
	for _, domain := range CoreDomains() {
		if domain.ProjectionHandledTypes == nil {
			continue
		}
		for _, t := range domain.ProjectionHandledTypes() {
			handled[t] = struct{}{}
		}
	}

	var missing []string
	for _, def := range events.ListDefinitions() {
		if def.Intent != event.IntentProjectionAndReplay {
			continue
		}
		if _, ok := handled[def.Type]; !ok {
			missing = append(missing, string(def.Type))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("projection events missing projection handlers: %s",
			strings.Join(missing, ", "))
	}
	return nil
}

// ValidateAggregateFoldDispatch verifies that every event type declared in
// CoreDomains().FoldHandledTypes is actually wired into the aggregate
// folder's dispatch sets.
func ValidateAggregateFoldDispatch(events *event.Registry) error {
	if events == nil {
		return fmt.Errorf("event registry is required for aggregate fold dispatch validation")
	}

	folder := &aggregate.Folder{}
	dispatched := make(map[event.Type]struct{})
	for _, t := range folder.FoldDispatchedTypes() {
		dispatched[t] = struct{}{}
	}

	declared := make(map[event.Type]struct{})
	for _, domain := range CoreDomains() {
		for _, t := range domain.FoldHandledTypes() {
			declared[t] = struct{}{}
		}
	}

	var missing []string
	for t := range declared {
		if _, ok := dispatched[t]; !ok {
			missing = append(missing, string(t))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("core fold types declared but not dispatched by aggregate folder: %s",
			strings.Join(missing, ", "))
	}
	return nil
}
