package domain

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/louisbranch/usurper.games/internal/services/game/app"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/engine"
	"github.com/louisbranch/usurper.games/internal/services/game/grant"
	"github.com/louisbranch/usurper.games/internal/services/game/storage/integrity"
	gamesqlite "github.com/louisbranch/usurper.games/internal/services/game/storage/sqlite"
)

// fakeClock is a hand-advanced clock shared by a test's service, its grant
// verifier, and its assertions.
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

func newTestService(t *testing.T, clock *fakeClock) *app.Service {
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
	svc, err := app.NewService(app.ServiceConfig{Store: store, Now: clock.Now})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func fundParticipant(t *testing.T, svc *app.Service, accountID string, amount int64) {
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

func foundRealm(t *testing.T, svc *app.Service, realmID, ownerID string, deposit int64) {
	t.Helper()
	fundParticipant(t, svc, ownerID, deposit)
	if _, err := svc.CreateRealm(context.Background(), app.CreateRealmParams{
		RealmID: realmID,
		Name:    "test realm",
		OwnerID: ownerID,
		Deposit: deposit,
	}); err != nil {
		t.Fatalf("create realm %s: %v", realmID, err)
	}
}

const (
	testGrantIssuer   = "https://grants.test"
	testGrantAudience = "usurper.games"
)

// testGrantKeys generates a verification config and the matching signing
// key for minting grants in tests.
func testGrantKeys(t *testing.T, clock *fakeClock) (grant.Config, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate grant key: %v", err)
	}
	cfg := grant.Config{
		Issuer:   testGrantIssuer,
		Audience: testGrantAudience,
		Key:      pub,
		Now:      clock.Now,
	}
	return cfg, priv
}

type testGrantClaims struct {
	jwt.RegisteredClaims
	ActorID string `json:"actor_id"`
}

func mintGrant(t *testing.T, priv ed25519.PrivateKey, actorID string, expiresAt time.Time) string {
	t.Helper()
	claims := testGrantClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testGrantIssuer,
			Audience:  jwt.ClaimStrings{testGrantAudience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(expiresAt.Add(-time.Hour)),
			ID:        "grant-" + actorID,
		},
		ActorID: actorID,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(priv)
	if err != nil {
		t.Fatalf("sign grant: %v", err)
	}
	return token
}
