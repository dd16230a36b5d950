package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/louisbranch/usurper.games/internal/services/game/domain/command"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/event"
)

var (
	// ErrCommandRegistryRequired indicates a missing command registry.
	ErrCommandRegistryRequired = errors.New("command registry is required")
	// ErrDeciderRequired indicates a missing decider.
	ErrDeciderRequired = errors.New("decider is required")
)

// StateLoader loads domain state for deciders.
type StateLoader interface {
	Load(ctx context.Context, cmd command.Command) (any, error)
}

// Committer persists a decided command. Implementations commit the emitted
// events and the folded state atomically, along with whatever side writes
// the decision implies, and return the events as stored with sequence and
// hash fields assigned.
type Committer interface {
	Commit(ctx context.Context, cmd command.Command, events []event.Event, state any) ([]event.Event, error)
}

// Folder folds events into state.
type Folder interface {
	Fold(state any, evt event.Event) (any, error)
}

// Decider returns a decision for a command.
type Decider interface {
	Decide(state any, cmd command.Command, now func() time.Time) command.Decision
}

// Handler validates, decides, folds, and commits commands.
type Handler struct {
	Commands    *command.Registry
	Events      *event.Registry
	StateLoader StateLoader
	Decider     Decider
	Folder      Folder
	Committer   Committer
	Now         func() time.Time
}

// Result captures execution outcomes.
type Result struct {
	Decision command.Decision
	State    any
}

// Handle validates a command, routes it through the decider, and returns the
// decision. Emitted events are validated against the event registry but not
// persisted; Execute runs the full pipeline.
func (h Handler) Handle(ctx context.Context, cmd command.Command) (command.Decision, error) {
	decision, _, _, err := h.decide(ctx, cmd)
	return decision, err
}

// Execute validates and decides a command, folds emitted events into state,
// and commits the result through the configured committer. A rejected
// command returns its decision with nothing committed and a nil error. The
// committer either persists everything or fails before anything is stored,
// so any error from Execute leaves the journal untouched.
func (h Handler) Execute(ctx context.Context, cmd command.Command) (Result, error) {
	decision, state, validated, err := h.decide(ctx, cmd)
	if err != nil {
		return Result{}, err
	}
	if len(decision.Rejections) > 0 {
		return Result{Decision: decision, State: state}, nil
	}
	if h.Folder != nil {
		for _, evt := range decision.Events {
			state, err = h.Folder.Fold(state, evt)
			if err != nil {
				return Result{}, fmt.Errorf("fold event %s: %w", evt.Type, err)
			}
		}
	}
	if h.Committer != nil && len(decision.Events) > 0 {
		stored, err := h.Committer.Commit(ctx, validated, decision.Events, state)
		if err != nil {
			return Result{}, err
		}
		decision.Events = stored
	}
	return Result{Decision: decision, State: state}, nil
}

// decide runs the pre-commit half of the pipeline and returns the decision,
// the loaded state, and the validated command.
func (h Handler) decide(ctx context.Context, cmd command.Command) (command.Decision, any, command.Command, error) {
	if h.Commands == nil {
		return command.Decision{}, nil, cmd, ErrCommandRegistryRequired
	}
	validated, err := h.Commands.ValidateForDecision(cmd)
	if err != nil {
		return command.Decision{}, nil, cmd, err
	}
	cmd = validated

	if h.Decider == nil {
		return command.Decision{}, nil, cmd, ErrDeciderRequired
	}
	var state any
	if h.StateLoader != nil {
		state, err = h.StateLoader.Load(ctx, cmd)
		if err != nil {
			return command.Decision{}, nil, cmd, fmt.Errorf("load state: %w", err)
		}
	}
	now := h.Now
	if now == nil {
		now = time.Now
	}
	decision := h.Decider.Decide(state, cmd, now)
	if h.Events != nil && len(decision.Events) > 0 {
		vetted := make([]event.Event, 0, len(decision.Events))
		for _, evt := range decision.Events {
			normalized, err := h.Events.ValidateForAppend(evt)
			if err != nil {
				return command.Decision{}, nil, cmd, fmt.Errorf("validate event %s: %w", evt.Type, err)
			}
			vetted = append(vetted, normalized)
		}
		decision.Events = vetted
	}
	return decision, state, cmd, nil
}
