//go:build integration

// Package integration holds cross-package suites: a raw JSON-RPC blackbox
// over the MCP HTTP transport and static guardrails that keep the
// event-sourcing architecture honest. Run with:
// go test -tags integration ./internal/test/integration
package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/louisbranch/usurper.games/internal/services/game/app"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/engine"
	"github.com/louisbranch/usurper.games/internal/services/game/grant"
	"github.com/louisbranch/usurper.games/internal/services/game/storage/integrity"
	gamesqlite "github.com/louisbranch/usurper.games/internal/services/game/storage/sqlite"
	mcpservice "github.com/louisbranch/usurper.games/internal/services/mcp/service"
)

func repoRoot(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("get working dir: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(wd, "go.mod")); err == nil {
			return wd
		}
		parent := filepath.Dir(wd)
		if parent == wd {
			t.Fatal("go.mod not found")
		}
		wd = parent
	}
}

// newBlackboxServer builds a full stack (sqlite store, app service, MCP
// server) and serves its streamable HTTP surface at /mcp.
func newBlackboxServer(t *testing.T) (*httptest.Server, *app.Service) {
	t.Helper()
	registries, err := engine.BuildRegistries()
	if err != nil {
		t.Fatalf("build registries: %v", err)
	}
	keyring, err := integrity.NewKeyring(
		map[string][]byte{"blackbox-key": []byte("0123456789abcdef0123456789abcdef")},
		"blackbox-key",
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
	svc, err := app.NewService(app.ServiceConfig{Store: store})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	mcpServer, err := mcpservice.New(svc, grant.Config{})
	if err != nil {
		t.Fatalf("new mcp server: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/mcp", mcpServer.HTTPHandler())
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts, svc
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
