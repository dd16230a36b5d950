package engine

import (
	"fmt"
	"strings"

	"github.com/louisbranch/usurper.games/internal/services/game/domain/command"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/event"
)

// Registries bundles the command and event registries.
type Registries struct {
	Commands *command.Registry
	Events   *event.Registry
}

// BuildRegistries registers every core domain and validates the combined
// contract surface.
//
// This is the shared bootstrap point where all command/event contracts become
// a single validated registry consumed by the write handler and projections.
func BuildRegistries() (Registries, error) {
	commandRegistry := command.NewRegistry()
	eventRegistry := event.NewRegistry()

	for _, domain := range CoreDomains() {
		if err := domain.RegisterCommands(commandRegistry); err != nil {
			return Registries{}, fmt.Errorf("register %s commands: %w", domain.Name(), err)
		}
		if err := domain.RegisterEvents(eventRegistry); err != nil {
			return Registries{}, fmt.Errorf("register %s events: %w", domain.Name(), err)
		}
	}

	if err := validateEmittableEventTypes(eventRegistry); err != nil {
		return Registries{}, err
	}
	if err := ValidateDeciderCommandCoverage(commandRegistry); err != nil {
		return Registries{}, err
	}
	if err := ValidateFoldCoverage(eventRegistry); err != nil {
		return Registries{}, err
	}
	if err := ValidateAggregateFoldDispatch(eventRegistry); err != nil {
		return Registries{}, err
	}
	if err := ValidateEntityKeyedAddressing(eventRegistry); err != nil {
		return Registries{}, err
	}

	var foldHandled []event.Type
	for _, domain := range CoreDomains() {
		foldHandled = append(foldHandled, domain.FoldHandledTypes()...)
	}
	if err := ValidateNoFoldHandlersForAuditOnlyEvents(eventRegistry, foldHandled); err != nil {
		return Registries{}, err
	}

	if err := ValidateProjectionCoverage(eventRegistry); err != nil {
		return Registries{}, err
	}

	missing := eventRegistry.MissingPayloadValidators()
	if len(missing) > 0 {
		names := make([]string, len(missing))
		for i, t := range missing {
			names[i] = string(t)
		}
		return Registries{}, fmt.Errorf("non-audit events without payload validators: %s", strings.Join(names, ", "))
	}

	return Registries{
		Commands: commandRegistry,
		Events:   eventRegistry,
	}, nil
}
