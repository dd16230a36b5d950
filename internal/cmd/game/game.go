// Package game parses game daemon flags and starts the realm runtime.
package game

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	entrypoint "github.com/louisbranch/usurper.games/internal/platform/cmd"
	platformgrpc "github.com/louisbranch/usurper.games/internal/platform/grpc"
	"github.com/louisbranch/usurper.games/internal/services/game/app"
	"github.com/louisbranch/usurper.games/internal/services/game/grant"
	mcpservice "github.com/louisbranch/usurper.games/internal/services/mcp/service"
)

// checkTimeout bounds the -check health probe.
const checkTimeout = 10 * time.Second

// Config holds game daemon configuration.
type Config struct {
	Port     int    `env:"USURPER_GAME_PORT" envDefault:"8082"`
	Addr     string `env:"USURPER_GAME_ADDR"`
	HTTPPort int    `env:"USURPER_GAME_HTTP_PORT" envDefault:"8083"`
	HTTPAddr string `env:"USURPER_GAME_HTTP_ADDR"`

	// Check runs a one-shot health probe against a running daemon and
	// exits instead of serving.
	Check bool
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The health probe listener port")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The health probe listen address (overrides -port)")
	fs.IntVar(&cfg.HTTPPort, "http-port", cfg.HTTPPort, "The HTTP listener port (MCP, feed, liveness)")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "The HTTP listen address (overrides -http-port)")
	fs.BoolVar(&cfg.Check, "check", cfg.Check, "Probe a running daemon's health and exit")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// GRPCAddr resolves the health probe listen address.
func (c Config) GRPCAddr() string {
	if c.Addr != "" {
		return c.Addr
	}
	return fmt.Sprintf(":%d", c.Port)
}

// HTTPListenAddr resolves the HTTP listen address.
func (c Config) HTTPListenAddr() string {
	if c.HTTPAddr != "" {
		return c.HTTPAddr
	}
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// probeAddr resolves the dial target for -check. A bare port listens on all
// interfaces, so the probe dials loopback.
func (c Config) probeAddr() string {
	if c.Addr != "" {
		return c.Addr
	}
	return fmt.Sprintf("localhost:%d", c.Port)
}

// Run starts the game daemon, or probes a running one when -check is set.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Check {
		return runCheck(ctx, cfg)
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceGame, func(ctx context.Context) error {
		grants, err := grant.LoadConfigFromEnv(time.Now)
		if err != nil {
			return err
		}
		server, err := app.NewServer(app.ServerConfig{
			GRPCAddr: cfg.GRPCAddr(),
			HTTPAddr: cfg.HTTPListenAddr(),
			Mounts: func(svc *app.Service) (map[string]http.Handler, error) {
				mcpServer, err := mcpservice.New(svc, grants)
				if err != nil {
					return nil, err
				}
				return map[string]http.Handler{"/mcp": mcpServer.HTTPHandler()}, nil
			},
		})
		if err != nil {
			return err
		}
		defer server.Close()
		log.Printf("game daemon listening on %s (http %s)", server.Addr(), server.HTTPAddr())
		return server.Serve(ctx)
	})
}

// runCheck dials a running daemon and exits once its health check reports
// SERVING.
func runCheck(ctx context.Context, cfg Config) error {
	addr := cfg.probeAddr()
	conn, err := platformgrpc.ProbeHealth(ctx, nil, addr, checkTimeout, log.Printf, platformgrpc.ClientOptions()...)
	if err != nil {
		return fmt.Errorf("probe %s: %w", addr, err)
	}
	defer conn.Close()
	if err := platformgrpc.AwaitServing(ctx, conn, app.HealthServiceName, log.Printf); err != nil {
		return fmt.Errorf("await %s: %w", app.HealthServiceName, err)
	}
	log.Printf("game daemon at %s is serving", addr)
	return nil
}
