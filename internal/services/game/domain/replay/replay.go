// Package replay rebuilds aggregate state by folding journal events in
// order, resuming from checkpoints when available.
package replay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/usurper.games/internal/services/game/domain/event"
)

const defaultPageSize = 200

var (
	// ErrEventStoreRequired indicates a missing event store.
	ErrEventStoreRequired = errors.New("event store is required")
	// ErrCheckpointStoreRequired indicates a missing checkpoint store.
	ErrCheckpointStoreRequired = errors.New("checkpoint store is required")
	// ErrFolderRequired indicates a missing folder.
	ErrFolderRequired = errors.New("folder is required")
	// ErrRealmIDRequired indicates a missing realm id.
	ErrRealmIDRequired = errors.New("realm id is required")
	// ErrCheckpointNotFound indicates no checkpoint exists yet.
	ErrCheckpointNotFound = errors.New("checkpoint not found")
)

// EventStore lists events for replay.
type EventStore interface {
	ListEvents(ctx context.Context, realmID string, afterSeq int64, limit int) ([]event.Event, error)
}

// CheckpointStore manages replay checkpoints.
type CheckpointStore interface {
	Get(ctx context.Context, realmID string) (Checkpoint, error)
	Save(ctx context.Context, checkpoint Checkpoint) error
}

// Folder folds a domain event into aggregate state.
type Folder interface {
	Fold(state any, evt event.Event) (any, error)
}

// Checkpoint captures the last folded sequence for a realm.
type Checkpoint struct {
	RealmID   string
	LastSeq   int64
	UpdatedAt time.Time
}

// Options configures replay behavior.
type Options struct {
	AfterSeq int64
	UntilSeq int64
	PageSize int
}

// Result captures replay outcomes.
type Result struct {
	State   any
	LastSeq int64
	Applied int
}

// Replay folds events in order and updates checkpoints after each fold. A
// sequence gap aborts the replay: the journal is append-only with dense
// per-realm sequences, so a gap means a corrupt read.
func Replay(ctx context.Context, store EventStore, checkpoints CheckpointStore, folder Folder, realmID string, state any, options Options) (Result, error) {
	if store == nil {
		return Result{}, ErrEventStoreRequired
	}
	if checkpoints == nil {
		return Result{}, ErrCheckpointStoreRequired
	}
	if folder == nil {
		return Result{}, ErrFolderRequired
	}
	realmID = strings.TrimSpace(realmID)
	if realmID == "" {
		return Result{}, ErrRealmIDRequired
	}

	checkpointSeq := int64(0)
	checkpoint, err := checkpoints.Get(ctx, realmID)
	if err != nil {
		if !errors.Is(err, ErrCheckpointNotFound) {
			return Result{}, err
		}
	} else {
		checkpointSeq = checkpoint.LastSeq
	}

	lastSeq := options.AfterSeq
	if checkpointSeq > lastSeq {
		lastSeq = checkpointSeq
	}
	pageSize := options.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	result := Result{State: state, LastSeq: lastSeq}
	for {
		events, err := store.ListEvents(ctx, realmID, result.LastSeq, pageSize)
		if err != nil {
			return result, err
		}
		if len(events) == 0 {
			return result, nil
		}
		for _, evt := range events {
			if options.UntilSeq > 0 && evt.Seq > options.UntilSeq {
				return result, nil
			}
			expectedSeq := result.LastSeq + 1
			if evt.Seq != expectedSeq {
				return result, fmt.Errorf("event sequence gap: expected %d got %d", expectedSeq, evt.Seq)
			}
			nextState, err := folder.Fold(result.State, evt)
			if err != nil {
				return result, err
			}
			result.State = nextState
			result.LastSeq = evt.Seq
			result.Applied++
			if err := checkpoints.Save(ctx, Checkpoint{RealmID: realmID, LastSeq: result.LastSeq, UpdatedAt: time.Now().UTC()}); err != nil {
				return result, err
			}
		}
	}
}
