//go:build scenario

// Package game runs the adversarial Lua scenario suite against a fresh
// in-process service per script. Run with: go test -tags scenario ./internal/test/game
package game

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"testing"
	"time"

	"github.com/louisbranch/usurper.games/internal/services/game/domain/engine"
	"github.com/louisbranch/usurper.games/internal/services/game/storage"
	"github.com/louisbranch/usurper.games/internal/services/game/storage/integrity"
	gamesqlite "github.com/louisbranch/usurper.games/internal/services/game/storage/sqlite"
	"github.com/louisbranch/usurper.games/internal/tools/scenario"
)

func newScenarioStore(t *testing.T) storage.Store {
	t.Helper()
	registries, err := engine.BuildRegistries()
	if err != nil {
		t.Fatalf("build registries: %v", err)
	}
	keyring, err := integrity.NewKeyring(
		map[string][]byte{"scenario-key": []byte("0123456789abcdef0123456789abcdef")},
		"scenario-key",
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

func TestScenarios(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.lua"))
	if err != nil {
		t.Fatalf("glob testdata: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("no scenario scripts under testdata")
	}

	for _, file := range files {
		file := file
		name := filepath.Base(file)
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			cfg := scenario.Config{
				Start:      time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
				Assertions: scenario.AssertionStrict,
				Verbose:    testing.Verbose(),
				Logger:     log.New(testWriter{t}, "", 0),
			}
			if err := scenario.RunFile(context.Background(), newScenarioStore(t), cfg, file); err != nil {
				t.Fatalf("scenario %s: %v", name, err)
			}
		})
	}
}

// testWriter routes runner logs through the test log so they interleave with
// failures.
type testWriter struct{ t *testing.T }

var _ io.Writer = testWriter{}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}
