package sqlite

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/louisbranch/usurper.games/internal/services/game/domain/engine"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/event"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/realm"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/throne"
	"github.com/louisbranch/usurper.games/internal/services/game/storage/integrity"
)

func testKeyring(t *testing.T) *integrity.Keyring {
	t.Helper()
	keyring, err := integrity.NewKeyring(
		map[string][]byte{"test-key-1": []byte("0123456789abcdef0123456789abcdef")},
		"test-key-1",
	)
	if err != nil {
		t.Fatalf("create test keyring: %v", err)
	}
	return keyring
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "game.sqlite")
	registries, err := engine.BuildRegistries()
	if err != nil {
		t.Fatalf("build registries: %v", err)
	}
	store, err := Open(path, testKeyring(t), registries.Events)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func testCreatedEvent(t *testing.T, realmID string, ts time.Time) event.Event {
	t.Helper()
	payload, err := json.Marshal(realm.CreatedPayload{
		Name:    "demo",
		OwnerID: "owner-1",
		Deposit: 500,
		BaseFee: 500,
	})
	if err != nil {
		t.Fatalf("marshal created payload: %v", err)
	}
	return event.Event{
		RealmID:     realmID,
		Timestamp:   ts,
		Type:        realm.EventTypeCreated,
		ActorType:   event.ActorTypeParticipant,
		ActorID:     "owner-1",
		EntityType:  "realm",
		EntityID:    realmID,
		PayloadJSON: payload,
	}
}

func testClaimedEvent(t *testing.T, realmID, claimant string, offered int64, ts time.Time) event.Event {
	t.Helper()
	payload, err := json.Marshal(throne.ClaimedPayload{
		Claimant:       claimant,
		Offered:        offered,
		Reward:         offered * 10 / 100,
		Beneficiary:    "owner-1",
		RoundEnd:       ts.Add(throne.InitialWindow).UnixMilli(),
		RewardDeadline: ts.Add(throne.RewardWindow).UnixMilli(),
	})
	if err != nil {
		t.Fatalf("marshal claimed payload: %v", err)
	}
	return event.Event{
		RealmID:     realmID,
		Timestamp:   ts,
		Type:        throne.EventTypeClaimed,
		ActorType:   event.ActorTypeParticipant,
		ActorID:     claimant,
		EntityType:  "throne",
		EntityID:    realmID,
		PayloadJSON: payload,
	}
}
