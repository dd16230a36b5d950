package scenario

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	t.Setenv("USURPER_SCENARIO_DB_PATH", "")
	t.Setenv("USURPER_SCENARIO_FILE", "")
	fs := flag.NewFlagSet("scenario", flag.ContinueOnError)

	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "" {
		t.Fatalf("expected empty db path, got %q", cfg.DBPath)
	}
	if !cfg.Assertions {
		t.Fatal("expected assertions to default to true")
	}
	if cfg.Verbose {
		t.Fatal("expected verbose to default to false")
	}
}

func TestParseConfigOverrides(t *testing.T) {
	fs := flag.NewFlagSet("scenario", flag.ContinueOnError)

	cfg, err := ParseConfig(fs, []string{"-db", "/tmp/run.sqlite", "-scenario", "greedy.lua", "-assert=false", "-verbose"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "/tmp/run.sqlite" {
		t.Fatalf("db path = %q", cfg.DBPath)
	}
	if cfg.Scenario != "greedy.lua" {
		t.Fatalf("scenario = %q", cfg.Scenario)
	}
	if cfg.Assertions {
		t.Fatal("expected assertions disabled")
	}
	if !cfg.Verbose {
		t.Fatal("expected verbose enabled")
	}
}

func TestParseConfigPositionalScenario(t *testing.T) {
	t.Setenv("USURPER_SCENARIO_FILE", "")
	fs := flag.NewFlagSet("scenario", flag.ContinueOnError)

	cfg, err := ParseConfig(fs, []string{"lifecycle.lua"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Scenario != "lifecycle.lua" {
		t.Fatalf("scenario = %q, want lifecycle.lua", cfg.Scenario)
	}
}

func TestRunRequiresScenarioPath(t *testing.T) {
	err := Run(context.Background(), Config{}, nil, nil)
	if err == nil {
		t.Fatal("expected error for missing scenario path")
	}
	if !strings.Contains(err.Error(), "scenario path") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunExecutesScenarioFile(t *testing.T) {
	t.Setenv("USURPER_EVENT_HMAC_KEYS", "")
	t.Setenv("USURPER_EVENT_HMAC_KEY", "")
	path := filepath.Join(t.TempDir(), "lifecycle.lua")
	script := `
local s = Scenario.new("cli lifecycle")
s:fund{actor = "alice", amount = 1000}
s:fund{actor = "bob", amount = 1000}
s:realm{id = "realm-1", owner = "alice", deposit = 500}
s:claim{actor = "bob", offer = 600, expect_reward = 60}
s:balance{actor = "alice", amount = 500}
s:integrity()
return s
`
	if err := os.WriteFile(path, []byte(script), 0o600); err != nil {
		t.Fatalf("write scenario: %v", err)
	}

	var out, errOut strings.Builder
	cfg := Config{Scenario: path, Assertions: true}
	if err := Run(context.Background(), cfg, &out, &errOut); err != nil {
		t.Fatalf("run scenario: %v", err)
	}
	if !strings.Contains(out.String(), "lifecycle.lua passed") {
		t.Fatalf("expected pass report, got %q", out.String())
	}
}

func TestRunReportsAssertionFailure(t *testing.T) {
	t.Setenv("USURPER_EVENT_HMAC_KEYS", "")
	t.Setenv("USURPER_EVENT_HMAC_KEY", "")
	path := filepath.Join(t.TempDir(), "broken.lua")
	script := `
local s = Scenario.new("broken")
s:fund{actor = "alice", amount = 1000}
s:realm{id = "realm-1", owner = "alice", deposit = 500}
s:balance{actor = "alice", amount = 123}
return s
`
	if err := os.WriteFile(path, []byte(script), 0o600); err != nil {
		t.Fatalf("write scenario: %v", err)
	}

	err := Run(context.Background(), Config{Scenario: path, Assertions: true}, nil, nil)
	if err == nil {
		t.Fatal("expected assertion failure")
	}
	if !strings.Contains(err.Error(), "balance") {
		t.Fatalf("error should name the failing check, got: %v", err)
	}
}
