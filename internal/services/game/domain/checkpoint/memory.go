// Package checkpoint provides replay checkpoint stores.
package checkpoint

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/louisbranch/usurper.games/internal/services/game/domain/aggregate"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/replay"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/throne"
)

// ErrRealmIDRequired indicates a missing realm id.
var ErrRealmIDRequired = errors.New("realm id is required")

// Memory stores checkpoints in memory.
type Memory struct {
	mu          sync.Mutex
	checkpoints map[string]replay.Checkpoint
	states      map[string]any
}

// NewMemory creates a new in-memory checkpoint store.
func NewMemory() *Memory {
	return &Memory{
		checkpoints: make(map[string]replay.Checkpoint),
		states:      make(map[string]any),
	}
}

// Get retrieves a checkpoint by realm id.
func (m *Memory) Get(ctx context.Context, realmID string) (replay.Checkpoint, error) {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return replay.Checkpoint{}, err
		}
	}
	if m == nil {
		return replay.Checkpoint{}, errors.New("checkpoint store is required")
	}
	realmID = strings.TrimSpace(realmID)
	if realmID == "" {
		return replay.Checkpoint{}, ErrRealmIDRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	checkpoint, ok := m.checkpoints[realmID]
	if !ok {
		return replay.Checkpoint{}, replay.ErrCheckpointNotFound
	}
	return checkpoint, nil
}

// Save persists a checkpoint.
func (m *Memory) Save(ctx context.Context, checkpoint replay.Checkpoint) error {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	if m == nil {
		return errors.New("checkpoint store is required")
	}
	realmID := strings.TrimSpace(checkpoint.RealmID)
	if realmID == "" {
		return ErrRealmIDRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	checkpoint.RealmID = realmID
	m.checkpoints[realmID] = checkpoint
	return nil
}

// GetState retrieves a replay state snapshot and its sequence.
func (m *Memory) GetState(ctx context.Context, realmID string) (any, int64, error) {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
	}
	if m == nil {
		return nil, 0, errors.New("checkpoint store is required")
	}
	realmID = strings.TrimSpace(realmID)
	if realmID == "" {
		return nil, 0, ErrRealmIDRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot, ok := m.states[realmID]
	if !ok {
		return nil, 0, replay.ErrCheckpointNotFound
	}
	checkpoint, ok := m.checkpoints[realmID]
	if !ok {
		return nil, 0, replay.ErrCheckpointNotFound
	}

	return cloneSnapshotState(snapshot), checkpoint.LastSeq, nil
}

// SaveState persists a replay state snapshot.
func (m *Memory) SaveState(ctx context.Context, realmID string, lastSeq int64, state any) error {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	if m == nil {
		return errors.New("checkpoint store is required")
	}
	realmID = strings.TrimSpace(realmID)
	if realmID == "" {
		return ErrRealmIDRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.states[realmID] = cloneSnapshotState(state)
	m.checkpoints[realmID] = replay.Checkpoint{
		RealmID:   realmID,
		LastSeq:   lastSeq,
		UpdatedAt: time.Now().UTC(),
	}
	return nil
}

// cloneSnapshotState keeps stored snapshots isolated from caller mutation.
// The reward ledger map and recipient list are the only reference fields in
// aggregate state.
func cloneSnapshotState(state any) any {
	switch typed := state.(type) {
	case aggregate.State:
		return cloneAggregateState(typed)
	case *aggregate.State:
		if typed == nil {
			return aggregate.State{}
		}
		return cloneAggregateState(*typed)
	default:
		return state
	}
}

func cloneAggregateState(source aggregate.State) aggregate.State {
	cloned := source
	if source.Throne.Rewards != nil {
		rewards := make(map[string]throne.Reward, len(source.Throne.Rewards))
		for id, record := range source.Throne.Rewards {
			rewards[id] = record
		}
		cloned.Throne.Rewards = rewards
	}
	if source.Throne.Recipients != nil {
		cloned.Throne.Recipients = append([]string(nil), source.Throne.Recipients...)
	}
	return cloned
}
