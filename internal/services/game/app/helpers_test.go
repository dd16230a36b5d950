package app

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/louisbranch/usurper.games/internal/services/game/domain/engine"
	"github.com/louisbranch/usurper.games/internal/services/game/storage"
	"github.com/louisbranch/usurper.games/internal/services/game/storage/integrity"
	gamesqlite "github.com/louisbranch/usurper.games/internal/services/game/storage/sqlite"
)

// fakeClock is a hand-advanced clock shared by a test's service and its
// assertions.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testStart() time.Time {
	return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
}

func openAppStore(t *testing.T) *gamesqlite.Store {
	t.Helper()
	registries, err := engine.BuildRegistries()
	if err != nil {
		t.Fatalf("build registries: %v", err)
	}
	keyring, err := integrity.NewKeyring(
		map[string][]byte{"test-key-1": []byte("0123456789abcdef0123456789abcdef")},
		"test-key-1",
	)
	if err != nil {
		t.Fatalf("create keyring: %v", err)
	}
	store, err := gamesqlite.Open(filepath.Join(t.TempDir(), "game.sqlite"), keyring, registries.Events)
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

func newTestService(t *testing.T, clock *fakeClock) *Service {
	t.Helper()
	return newTestServiceWithStore(t, openAppStore(t), clock)
}

func newTestServiceWithStore(t *testing.T, store storage.Store, clock *fakeClock) *Service {
	t.Helper()
	svc, err := NewService(ServiceConfig{
		Store: store,
		Now:   clock.Now,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func fundParticipant(t *testing.T, svc *Service, accountID string, amount int64) {
	t.Helper()
	if _, err := svc.OpenAccount(context.Background(), accountID); err != nil {
		t.Fatalf("open account %s: %v", accountID, err)
	}
	if amount > 0 {
		if _, err := svc.FundAccount(context.Background(), accountID, amount); err != nil {
			t.Fatalf("fund account %s: %v", accountID, err)
		}
	}
}

func foundRealm(t *testing.T, svc *Service, realmID, ownerID string, deposit int64) {
	t.Helper()
	fundParticipant(t, svc, ownerID, deposit)
	if _, err := svc.CreateRealm(context.Background(), CreateRealmParams{
		RealmID: realmID,
		Name:    "test realm",
		OwnerID: ownerID,
		Deposit: deposit,
	}); err != nil {
		t.Fatalf("create realm: %v", err)
	}
}

func balanceOf(t *testing.T, svc *Service, accountID string) int64 {
	t.Helper()
	rec, err := svc.Balance(context.Background(), accountID)
	if err != nil {
		t.Fatalf("balance of %s: %v", accountID, err)
	}
	return rec.Balance
}
