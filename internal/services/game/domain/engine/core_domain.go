package engine

import (
	"github.com/louisbranch/usurper.games/internal/services/game/domain/command"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/event"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/realm"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/throne"
)

// CoreDomain bundles the registration hooks that every core domain
// package exports. Adding a new core domain means creating a CoreDomain
// entry in CoreDomains() and wiring its fold function in the aggregate
// folder; the startup validators catch the rest.
type CoreDomain struct {
	name                   string
	RegisterCommands       func(*command.Registry) error
	RegisterEvents         func(*event.Registry) error
	EmittableEventTypes    func() []event.Type
	FoldHandledTypes       func() []event.Type
	DeciderHandledCommands func() []command.Type
	ProjectionHandledTypes func() []event.Type
}

// Name returns a human-readable label for error messages and diagnostics.
func (d CoreDomain) Name() string { return d.name }

// CoreDomains returns the authoritative list of core domain registrations.
// BuildRegistries iterates this slice so adding a new domain is a single
// append rather than editing several call sites.
func CoreDomains() []CoreDomain {
	return []CoreDomain{
		{
			name:                   "realm",
			RegisterCommands:       realm.RegisterCommands,
			RegisterEvents:         realm.RegisterEvents,
			EmittableEventTypes:    realm.EmittableEventTypes,
			FoldHandledTypes:       realm.FoldHandledTypes,
			DeciderHandledCommands: realm.DeciderHandledCommands,
			ProjectionHandledTypes: realm.ProjectionHandledTypes,
		},
		{
			name:                   "throne",
			RegisterCommands:       throne.RegisterCommands,
			RegisterEvents:         throne.RegisterEvents,
			EmittableEventTypes:    throne.EmittableEventTypes,
			FoldHandledTypes:       throne.FoldHandledTypes,
			DeciderHandledCommands: throne.DeciderHandledCommands,
			ProjectionHandledTypes: throne.ProjectionHandledTypes,
		},
	}
}
