package aggregate

import (
	"sync"

	"github.com/louisbranch/usurper.games/internal/services/game/domain/event"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/realm"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/throne"
)

// foldEntry describes how a set of event types maps to a fold function that
// updates one slice of aggregate state.
type foldEntry struct {
	// types returns the event types handled by this fold entry.
	types func() []event.Type
	// fold applies a single event to a sub-state and writes the result back
	// into the aggregate state.
	fold func(state *State, evt event.Event) error
}

// coreFoldEntries returns the declarative fold dispatch table for all core
// domains. An event type may be claimed by more than one entry: realm
// creation seeds both the realm identity and the throne pool, so dispatch
// fans out in entry order.
func coreFoldEntries() []foldEntry {
	return []foldEntry{
		{
			types: realm.FoldHandledTypes,
			fold: func(state *State, evt event.Event) error {
				updated, err := realm.Fold(state.Realm, evt)
				if err != nil {
					return err
				}
				state.Realm = updated
				return nil
			},
		},
		{
			types: throne.FoldHandledTypes,
			fold: func(state *State, evt event.Event) error {
				updated, err := throne.Fold(state.Throne, evt)
				if err != nil {
					return err
				}
				state.Throne = updated
				return nil
			},
		},
	}
}

// Folder folds events into aggregate state.
//
// The folder is where the domain boundary stays deterministic: each event
// type updates a fixed set of aggregate slices and is replayed identically
// whether during request execution or historical reconstruction. Named
// "Folder" to distinguish pure state folds from store writers that perform
// side-effecting I/O.
type Folder struct {
	// Events provides event definitions so the folder can skip audit-only
	// events that do not affect aggregate state.
	Events *event.Registry

	// foldIndex is lazily built on first Fold so dispatch never enters fold
	// functions that cannot handle the event type.
	foldOnce  sync.Once
	foldIndex map[event.Type][]func(*State, event.Event) error
}

// initFoldIndex builds a type-to-handlers lookup from the declarative fold
// entries, preserving entry order per type.
func (f *Folder) initFoldIndex() {
	f.foldOnce.Do(func() {
		entries := coreFoldEntries()
		f.foldIndex = make(map[event.Type][]func(*State, event.Event) error)
		for _, entry := range entries {
			fn := entry.fold
			for _, t := range entry.types() {
				f.foldIndex[t] = append(f.foldIndex[t], fn)
			}
		}
	})
}

// FoldDispatchedTypes returns the union of all event types wired into the
// folder's dispatch index. Registry validation uses this to verify that
// every type a domain declares actually reaches a fold function at runtime.
func (f *Folder) FoldDispatchedTypes() []event.Type {
	f.initFoldIndex()
	types := make([]event.Type, 0, len(f.foldIndex))
	for t := range f.foldIndex {
		types = append(types, t)
	}
	return types
}

// Fold applies a single event to aggregate state.
//
// State only changes through domain fold functions so transitions remain
// visible in one place per subdomain and replay behavior matches
// request-time behavior.
func (f *Folder) Fold(state any, evt event.Event) (any, error) {
	// Audit-only events do not affect aggregate state.
	if f.Events != nil {
		if def, ok := f.Events.Definition(evt.Type); ok && def.Intent == event.IntentAuditOnly {
			current, err := AssertState[State](state)
			if err != nil {
				return State{}, err
			}
			return current, nil
		}
	}

	f.initFoldIndex()

	current, err := AssertState[State](state)
	if err != nil {
		return State{}, err
	}

	for _, fn := range f.foldIndex[evt.Type] {
		if err := fn(&current, evt); err != nil {
			return current, err
		}
	}

	return current, nil
}
