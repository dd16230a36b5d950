package engine

import (
	"context"
	"errors"

	"github.com/louisbranch/usurper.games/internal/services/game/domain/command"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/replay"
)

// ReplayStateLoader replays events to build state for command handling.
//
// It is intentionally thin and composable: checkpoints/snapshots and a folder
// produce deterministic state for the current command, whether from scratch
// or from a cached prefix.
type ReplayStateLoader struct {
	Events       replay.EventStore
	Checkpoints  replay.CheckpointStore
	Snapshots    StateSnapshotStore
	Folder       replay.Folder
	StateFactory func() any
	Options      replay.Options
}

// StateSnapshotStore loads and saves replay state snapshots keyed by realm.
type StateSnapshotStore interface {
	GetState(ctx context.Context, realmID string) (state any, lastSeq int64, err error)
	SaveState(ctx context.Context, realmID string, lastSeq int64, state any) error
}

// Load replays events to reconstruct state for a realm.
//
// The load flow is the same source used at runtime and in offline replay,
// which makes command outcomes reproducible from the journal alone.
func (l ReplayStateLoader) Load(ctx context.Context, cmd command.Command) (any, error) {
	if l.Events == nil {
		return nil, replay.ErrEventStoreRequired
	}
	if l.Checkpoints == nil {
		return nil, replay.ErrCheckpointStoreRequired
	}
	if l.Folder == nil {
		return nil, replay.ErrFolderRequired
	}
	var state any
	options := l.Options
	if l.Snapshots != nil {
		snapshotState, snapshotSeq, err := l.Snapshots.GetState(ctx, cmd.RealmID)
		if err != nil {
			if !errors.Is(err, replay.ErrCheckpointNotFound) {
				return nil, err
			}
		} else {
			state = snapshotState
			if snapshotSeq > options.AfterSeq {
				options.AfterSeq = snapshotSeq
			}
		}
	}
	if l.StateFactory != nil && state == nil {
		state = l.StateFactory()
	}
	result, err := replay.Replay(ctx, l.Events, l.Checkpoints, l.Folder, cmd.RealmID, state, options)
	if err != nil {
		return nil, err
	}
	return result.State, nil
}
