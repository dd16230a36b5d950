package service

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/louisbranch/usurper.games/internal/services/game/app"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/engine"
	"github.com/louisbranch/usurper.games/internal/services/game/storage/integrity"
	gamesqlite "github.com/louisbranch/usurper.games/internal/services/game/storage/sqlite"
)

func newTestAppService(t *testing.T) *app.Service {
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
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc, err := app.NewService(app.ServiceConfig{
		Store: store,
		Now:   func() time.Time { return start },
	})
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

func decodeStructuredContent[T any](t *testing.T, content any) T {
	t.Helper()
	raw, err := json.Marshal(content)
	if err != nil {
		t.Fatalf("marshal structured content: %v", err)
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal structured content: %v", err)
	}
	return out
}
