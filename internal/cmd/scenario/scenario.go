// Package scenario wires the Lua scenario runner into a CLI command. It
// executes scripts against an in-process game service, so no daemon needs to
// be running.
package scenario

import (
	"context"
	"crypto/rand"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	entrypoint "github.com/louisbranch/usurper.games/internal/platform/cmd"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/engine"
	"github.com/louisbranch/usurper.games/internal/services/game/storage/integrity"
	gamesqlite "github.com/louisbranch/usurper.games/internal/services/game/storage/sqlite"
	"github.com/louisbranch/usurper.games/internal/tools/scenario"
)

// Config holds scenario command configuration.
type Config struct {
	// DBPath is the sqlite file scenarios commit to. Empty means a throwaway
	// file under the system temp directory, removed after the run.
	DBPath     string `env:"USURPER_SCENARIO_DB_PATH"`
	Scenario   string `env:"USURPER_SCENARIO_FILE"`
	Assertions bool   `env:"USURPER_SCENARIO_ASSERT"  envDefault:"true"`
	Verbose    bool   `env:"USURPER_SCENARIO_VERBOSE"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "sqlite path (default: throwaway temp file)")
	fs.StringVar(&cfg.Scenario, "scenario", cfg.Scenario, "path to scenario lua file")
	fs.BoolVar(&cfg.Assertions, "assert", cfg.Assertions, "fail on assertion mismatches (disable to log and continue)")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "enable per-step logging")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if cfg.Scenario == "" && fs.NArg() > 0 {
		cfg.Scenario = fs.Arg(0)
	}
	return cfg, nil
}

// Run executes the scenario command.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	if cfg.Scenario == "" {
		return errors.New("scenario path is required")
	}

	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceScenario, func(ctx context.Context) error {
		dbPath := cfg.DBPath
		if dbPath == "" {
			dir, err := os.MkdirTemp("", "usurper-scenario-")
			if err != nil {
				return fmt.Errorf("create temp dir: %w", err)
			}
			defer os.RemoveAll(dir)
			dbPath = filepath.Join(dir, "scenario.sqlite")
		}

		keyring, err := scenarioKeyring()
		if err != nil {
			return err
		}
		registries, err := engine.BuildRegistries()
		if err != nil {
			return fmt.Errorf("build registries: %w", err)
		}
		store, err := gamesqlite.Open(dbPath, keyring, registries.Events)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer store.Close()

		mode := scenario.AssertionStrict
		if !cfg.Assertions {
			mode = scenario.AssertionWarn
		}
		runCfg := scenario.Config{
			Assertions: mode,
			Verbose:    cfg.Verbose,
			Logger:     log.New(errOut, "", 0),
		}

		started := time.Now()
		if err := scenario.RunFile(ctx, store, runCfg, cfg.Scenario); err != nil {
			return err
		}
		fmt.Fprintf(out, "scenario %s passed in %s\n", filepath.Base(cfg.Scenario), time.Since(started).Round(time.Millisecond))
		return nil
	})
}

// scenarioKeyring uses the daemon's HMAC keys when the environment carries
// them, and mints an ephemeral key otherwise. Scenario journals are
// throwaway, so a random per-run key is acceptable.
func scenarioKeyring() (*integrity.Keyring, error) {
	if os.Getenv("USURPER_EVENT_HMAC_KEYS") != "" || os.Getenv("USURPER_EVENT_HMAC_KEY") != "" {
		return integrity.KeyringFromEnv()
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate ephemeral hmac key: %w", err)
	}
	return integrity.NewKeyring(map[string][]byte{"ephemeral": key}, "ephemeral")
}
