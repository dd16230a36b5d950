// Package scenario executes Lua-scripted game sequences against an
// in-process application service with a virtual clock. Scripts drive the
// same operations agents reach over MCP, which makes them useful both as
// adversarial probes and as reproducible bug reports.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/louisbranch/usurper.games/internal/services/game/app"
	"github.com/louisbranch/usurper.games/internal/services/game/storage"
)

// Config controls scenario execution.
type Config struct {
	// Start seeds the virtual clock. Zero means wall clock at startup.
	Start      time.Time
	Assertions AssertionMode
	Verbose    bool
	Logger     *log.Logger
}

// DefaultConfig returns default runner configuration.
func DefaultConfig() Config {
	return Config{Assertions: AssertionStrict}
}

// Runner executes Lua scenarios against the game application service.
// Scripts advance time explicitly, so a 49-hour reward expiry plays out in
// milliseconds.
type Runner struct {
	svc        *app.Service
	assertions Assertions
	logger     *log.Logger
	verbose    bool
	now        time.Time
}

// scenarioState tracks script-scoped context between steps.
type scenarioState struct {
	realmID string
}

// NewRunner prepares a scenario runner over the given store.
func NewRunner(store storage.Store, cfg Config) (*Runner, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "", 0)
	}
	start := cfg.Start
	if start.IsZero() {
		start = time.Now().UTC()
	}

	r := &Runner{
		assertions: Assertions{Mode: cfg.Assertions, Logger: logger},
		logger:     logger,
		verbose:    cfg.Verbose,
		now:        start,
	}
	svc, err := app.NewService(app.ServiceConfig{
		Store: store,
		Now:   func() time.Time { return r.now },
	})
	if err != nil {
		return nil, fmt.Errorf("build service: %w", err)
	}
	r.svc = svc
	return r, nil
}

// RunFile loads and executes a scenario file.
func RunFile(ctx context.Context, store storage.Store, cfg Config, path string) error {
	runner, err := NewRunner(store, cfg)
	if err != nil {
		return err
	}
	scenario, err := LoadScenarioFromFile(path)
	if err != nil {
		return err
	}
	return runner.RunScenario(ctx, scenario)
}

// RunScenario executes the scenario steps in order.
func (r *Runner) RunScenario(ctx context.Context, scenario *Scenario) error {
	if scenario == nil {
		return errors.New("scenario is required")
	}
	r.logf("scenario start: %s (%d steps)", scenario.Name, len(scenario.Steps))
	state := &scenarioState{}

	for index, step := range scenario.Steps {
		stepNumber := index + 1
		r.logf("step %d/%d start: %s", stepNumber, len(scenario.Steps), step.Kind)
		if err := r.runStep(ctx, state, step); err != nil {
			return fmt.Errorf("step %d (%s): %w", stepNumber, step.Kind, err)
		}
		r.logf("step %d/%d done: %s", stepNumber, len(scenario.Steps), step.Kind)
	}
	r.logf("scenario done: %s", scenario.Name)
	return nil
}

func (r *Runner) logf(format string, args ...any) {
	if !r.verbose || r.logger == nil {
		return
	}
	r.logger.Printf(format, args...)
}

func (r *Runner) failf(format string, args ...any) error {
	return r.assertions.Failf(format, args...)
}

func (r *Runner) assertf(format string, args ...any) error {
	return r.assertions.Assertf(format, args...)
}
