package throne

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/louisbranch/usurper.games/internal/services/game/domain/command"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/event"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/realm"
)

// TestRandomizedSequencesPreserveInvariants drives long random command
// sequences through Decide and Fold and checks the structural invariants
// after every accepted event: the pool covers outstanding liabilities, the
// owed total matches the reward ledger, and the bid floor only drops on a
// round start.
func TestRandomizedSequencesPreserveInvariants(t *testing.T) {
	for _, seed := range []int64{1, 2, 7, 42, 1337} {
		seed := seed
		t.Run(fmt.Sprintf("seed_%d", seed), func(t *testing.T) {
			t.Parallel()
			runRandomizedSequence(t, seed)
		})
	}
}

func runRandomizedSequence(t *testing.T, seed int64) {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	actors := []string{"owner", "alice", "bob", "carol"}
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	state, err := Fold(State{}, event.Event{
		Type:        realm.EventTypeCreated,
		PayloadJSON: []byte(`{"name":"proving grounds","owner_id":"owner","deposit":500,"base_fee":500}`),
	})
	if err != nil {
		t.Fatalf("seed state: %v", err)
	}
	assertInvariants(t, 0, state, state)

	for step := 1; step <= 400; step++ {
		var cmd command.Command
		switch rng.Intn(5) {
		case 0:
			// Offers straddle the floor so both accepts and rejections occur.
			offer := state.RequiredBid + rng.Int63n(500) - 100
			payloadJSON, err := json.Marshal(ClaimPayload{Offered: offer})
			if err != nil {
				t.Fatalf("step %d: marshal claim payload: %v", step, err)
			}
			cmd = command.Command{
				RealmID:     "realm-1",
				Type:        CommandTypeClaim,
				ActorType:   command.ActorTypeParticipant,
				ActorID:     actors[rng.Intn(len(actors))],
				PayloadJSON: payloadJSON,
			}
		case 1:
			cmd = command.Command{
				RealmID:   "realm-1",
				Type:      CommandTypeRewardClaim,
				ActorType: command.ActorTypeParticipant,
				ActorID:   actors[rng.Intn(len(actors))],
			}
		case 2:
			cmd = command.Command{
				RealmID:   "realm-1",
				Type:      CommandTypePrizeClaim,
				ActorType: command.ActorTypeParticipant,
				ActorID:   actors[rng.Intn(len(actors))],
			}
		case 3:
			cmd = command.Command{
				RealmID:   "realm-1",
				Type:      CommandTypeRoundStart,
				ActorType: command.ActorTypeParticipant,
				ActorID:   actors[rng.Intn(len(actors))],
			}
		default:
			clock = clock.Add(time.Duration(1+rng.Intn(1500)) * time.Minute)
			continue
		}

		now := clock
		decision := Decide(state, cmd, func() time.Time { return now })
		if len(decision.Rejections) > 0 {
			continue
		}
		for _, evt := range decision.Events {
			next, err := Fold(state, evt)
			if err != nil {
				t.Fatalf("step %d: fold %s: %v", step, evt.Type, err)
			}
			assertEventTransition(t, step, state, next, evt)
			assertInvariants(t, step, state, next)
			state = next
		}
	}
}

func assertInvariants(t *testing.T, step int, prev, state State) {
	t.Helper()
	if state.Pool < 0 {
		t.Fatalf("step %d: pool went negative: %d", step, state.Pool)
	}
	if state.OwedTotal < 0 {
		t.Fatalf("step %d: owed total went negative: %d", step, state.OwedTotal)
	}
	if state.Pool < state.OwedTotal {
		t.Fatalf("step %d: pool %d does not cover owed %d", step, state.Pool, state.OwedTotal)
	}
	var ledger int64
	for _, record := range state.Rewards {
		if record.Amount < 0 {
			t.Fatalf("step %d: negative reward record: %+v", step, record)
		}
		ledger += record.Amount
	}
	if ledger != state.OwedTotal {
		t.Fatalf("step %d: reward ledger sums to %d, owed total is %d", step, ledger, state.OwedTotal)
	}
	if state.GamesPlayed < prev.GamesPlayed {
		t.Fatalf("step %d: games played regressed from %d to %d", step, prev.GamesPlayed, state.GamesPlayed)
	}
	if state.TotalAwarded < prev.TotalAwarded {
		t.Fatalf("step %d: total awarded regressed from %d to %d", step, prev.TotalAwarded, state.TotalAwarded)
	}
}

func assertEventTransition(t *testing.T, step int, prev, next State, evt event.Event) {
	t.Helper()
	switch evt.Type {
	case EventTypeClaimed:
		if next.RequiredBid <= prev.RequiredBid {
			t.Fatalf("step %d: claim did not raise the bid floor: %d -> %d", step, prev.RequiredBid, next.RequiredBid)
		}
		if next.HolderID == "" {
			t.Fatalf("step %d: claim left the throne unheld", step)
		}
	case EventTypeRoundStarted:
		if next.RequiredBid != next.BaseFee {
			t.Fatalf("step %d: round start reset floor to %d, base fee is %d", step, next.RequiredBid, next.BaseFee)
		}
		if next.HolderID != "" {
			t.Fatalf("step %d: round start left holder %q seated", step, next.HolderID)
		}
	default:
		// Reward and settlement events never move the bid floor.
		if next.RequiredBid != prev.RequiredBid {
			t.Fatalf("step %d: %s moved the bid floor: %d -> %d", step, evt.Type, prev.RequiredBid, next.RequiredBid)
		}
	}
}
