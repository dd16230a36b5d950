package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/louisbranch/usurper.games/internal/services/game/domain/aggregate"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/command"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/event"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/realm"
)

type spyDecider struct {
	called bool
}

func (s *spyDecider) Decide(_ any, _ command.Command, _ func() time.Time) command.Decision {
	s.called = true
	return command.Decision{}
}

type fixedDecider struct {
	decision command.Decision
}

func (f fixedDecider) Decide(_ any, _ command.Command, _ func() time.Time) command.Decision {
	return f.decision
}

type recordingCommitter struct {
	calls  int
	cmd    command.Command
	events []event.Event
	state  any
	err    error
}

func (c *recordingCommitter) Commit(_ context.Context, cmd command.Command, events []event.Event, state any) ([]event.Event, error) {
	c.calls++
	c.cmd = cmd
	c.events = events
	c.state = state
	if c.err != nil {
		return nil, c.err
	}
	stored := make([]event.Event, len(events))
	for i, evt := range events {
		evt.Seq = int64(i) + 1
		stored[i] = evt
	}
	return stored, nil
}

type trackingStateLoader struct {
	realmIDs []string
}

func (t *trackingStateLoader) Load(_ context.Context, cmd command.Command) (any, error) {
	t.realmIDs = append(t.realmIDs, cmd.RealmID)
	return aggregate.State{}, nil
}

type failingFolder struct {
	err error
}

func (f failingFolder) Fold(state any, _ event.Event) (any, error) {
	return state, f.err
}

func registerTestCommand(t *testing.T) *command.Registry {
	t.Helper()
	registry := command.NewRegistry()
	if err := registry.Register(command.Definition{
		Type: command.Type("throne.test"),
	}); err != nil {
		t.Fatalf("register command: %v", err)
	}
	return registry
}

func createdEvent() event.Event {
	return event.Event{
		RealmID:     "realm-1",
		Type:        realm.EventTypeCreated,
		Timestamp:   time.Unix(0, 0).UTC(),
		ActorType:   event.ActorTypeSystem,
		EntityType:  "realm",
		EntityID:    "realm-1",
		PayloadJSON: []byte(`{"name":"Iron Hill","owner_id":"alice","deposit":500,"base_fee":500}`),
	}
}

func TestHandle_MissingCommandRegistryErrors(t *testing.T) {
	handler := Handler{Decider: &spyDecider{}}
	_, err := handler.Handle(context.Background(), command.Command{
		RealmID: "realm-1",
		Type:    command.Type("throne.test"),
	})
	if !errors.Is(err, ErrCommandRegistryRequired) {
		t.Fatalf("error = %v, want %v", err, ErrCommandRegistryRequired)
	}
}

func TestHandle_MissingDeciderErrors(t *testing.T) {
	handler := Handler{Commands: registerTestCommand(t)}
	_, err := handler.Handle(context.Background(), command.Command{
		RealmID: "realm-1",
		Type:    command.Type("throne.test"),
	})
	if !errors.Is(err, ErrDeciderRequired) {
		t.Fatalf("error = %v, want %v", err, ErrDeciderRequired)
	}
}

func TestHandle_ValidatesEventsWithRegistry(t *testing.T) {
	eventRegistry := event.NewRegistry()
	if err := eventRegistry.Register(event.Definition{
		Type: event.Type("throne.tested"),
	}); err != nil {
		t.Fatalf("register event: %v", err)
	}

	decider := fixedDecider{decision: command.Accept(event.Event{
		RealmID:     "realm-1",
		Type:        event.Type("throne.tested"),
		Timestamp:   time.Unix(0, 0).UTC(),
		ActorType:   event.ActorTypeSystem,
		PayloadJSON: []byte("{"),
	})}
	handler := Handler{
		Commands: registerTestCommand(t),
		Events:   eventRegistry,
		Decider:  decider,
	}

	_, err := handler.Handle(context.Background(), command.Command{
		RealmID:   "realm-1",
		Type:      command.Type("throne.test"),
		ActorType: command.ActorTypeSystem,
	})
	if err == nil {
		t.Fatal("expected error for malformed event payload")
	}
}

func TestHandle_DoesNotCommit(t *testing.T) {
	committer := &recordingCommitter{}
	handler := Handler{
		Commands:  registerTestCommand(t),
		Decider:   fixedDecider{decision: command.Accept(createdEvent())},
		Committer: committer,
	}

	decision, err := handler.Handle(context.Background(), command.Command{
		RealmID:   "realm-1",
		Type:      command.Type("throne.test"),
		ActorType: command.ActorTypeSystem,
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(decision.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(decision.Events))
	}
	if committer.calls != 0 {
		t.Fatalf("committer calls = %d, want %d", committer.calls, 0)
	}
}

func TestExecute_FoldsEventsIntoState(t *testing.T) {
	handler := Handler{
		Commands: registerTestCommand(t),
		Decider:  fixedDecider{decision: command.Accept(createdEvent())},
		Folder:   &aggregate.Folder{},
	}

	result, err := handler.Execute(context.Background(), command.Command{
		RealmID:   "realm-1",
		Type:      command.Type("throne.test"),
		ActorType: command.ActorTypeSystem,
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(result.Decision.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(result.Decision.Events))
	}
	state, ok := result.State.(aggregate.State)
	if !ok {
		t.Fatalf("state type = %T, want aggregate.State", result.State)
	}
	if state.Realm.Status != realm.StatusActive {
		t.Fatalf("realm status = %q, want %q", state.Realm.Status, realm.StatusActive)
	}
	if state.Throne.Pool != 500 {
		t.Fatalf("throne pool = %d, want %d", state.Throne.Pool, 500)
	}
}

func TestExecute_CommitsFoldedStateAndAdoptsStoredEvents(t *testing.T) {
	committer := &recordingCommitter{}
	handler := Handler{
		Commands:  registerTestCommand(t),
		Decider:   fixedDecider{decision: command.Accept(createdEvent())},
		Folder:    &aggregate.Folder{},
		Committer: committer,
	}

	result, err := handler.Execute(context.Background(), command.Command{
		RealmID:   "realm-1",
		Type:      command.Type("throne.test"),
		ActorType: command.ActorTypeSystem,
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if committer.calls != 1 {
		t.Fatalf("committer calls = %d, want %d", committer.calls, 1)
	}
	state, ok := committer.state.(aggregate.State)
	if !ok {
		t.Fatalf("committed state type = %T, want aggregate.State", committer.state)
	}
	if state.Throne.Pool != 500 {
		t.Fatalf("committed pool = %d, want %d", state.Throne.Pool, 500)
	}
	if len(result.Decision.Events) != 1 || result.Decision.Events[0].Seq != 1 {
		t.Fatalf("stored events = %+v, want one event with seq 1", result.Decision.Events)
	}
}

func TestExecute_RejectionSkipsCommit(t *testing.T) {
	committer := &recordingCommitter{}
	handler := Handler{
		Commands: registerTestCommand(t),
		Decider: fixedDecider{decision: command.Reject(command.Rejection{
			Code: "NOT_AUTHORIZED",
		})},
		Committer: committer,
	}

	result, err := handler.Execute(context.Background(), command.Command{
		RealmID:   "realm-1",
		Type:      command.Type("throne.test"),
		ActorType: command.ActorTypeSystem,
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(result.Decision.Rejections) != 1 {
		t.Fatalf("rejections = %d, want %d", len(result.Decision.Rejections), 1)
	}
	if committer.calls != 0 {
		t.Fatalf("committer calls = %d, want %d", committer.calls, 0)
	}
}

func TestExecute_CommitErrorSurfaces(t *testing.T) {
	commitErr := errors.New("commit boom")
	handler := Handler{
		Commands:  registerTestCommand(t),
		Decider:   fixedDecider{decision: command.Accept(createdEvent())},
		Committer: &recordingCommitter{err: commitErr},
	}

	_, err := handler.Execute(context.Background(), command.Command{
		RealmID:   "realm-1",
		Type:      command.Type("throne.test"),
		ActorType: command.ActorTypeSystem,
	})
	if !errors.Is(err, commitErr) {
		t.Fatalf("error = %v, want %v", err, commitErr)
	}
}

func TestExecute_UsesValidatedCommandForLoadAndCommit(t *testing.T) {
	loader := &trackingStateLoader{}
	committer := &recordingCommitter{}
	handler := Handler{
		Commands:    registerTestCommand(t),
		Decider:     fixedDecider{decision: command.Accept(createdEvent())},
		StateLoader: loader,
		Committer:   committer,
	}

	_, err := handler.Execute(context.Background(), command.Command{
		RealmID:   "  realm-1  ",
		Type:      command.Type("throne.test"),
		ActorType: command.ActorTypeSystem,
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(loader.realmIDs) != 1 || loader.realmIDs[0] != "realm-1" {
		t.Fatalf("state loader realm ids = %v, want [realm-1]", loader.realmIDs)
	}
	if committer.cmd.RealmID != "realm-1" {
		t.Fatalf("committed realm id = %q, want %q", committer.cmd.RealmID, "realm-1")
	}
}

func TestExecute_FoldErrorSkipsCommit(t *testing.T) {
	foldErr := errors.New("fold boom")
	committer := &recordingCommitter{}
	handler := Handler{
		Commands:  registerTestCommand(t),
		Decider:   fixedDecider{decision: command.Accept(createdEvent())},
		Folder:    failingFolder{err: foldErr},
		Committer: committer,
	}

	_, err := handler.Execute(context.Background(), command.Command{
		RealmID:   "realm-1",
		Type:      command.Type("throne.test"),
		ActorType: command.ActorTypeSystem,
	})
	if !errors.Is(err, foldErr) {
		t.Fatalf("error = %v, want %v", err, foldErr)
	}
	if committer.calls != 0 {
		t.Fatalf("committer calls = %d, want %d", committer.calls, 0)
	}
}
