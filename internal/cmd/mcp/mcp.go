// Package mcp starts the stdio MCP server over the daemon's store.
package mcp

import (
	"context"
	"time"

	entrypoint "github.com/louisbranch/usurper.games/internal/platform/cmd"
	"github.com/louisbranch/usurper.games/internal/services/game/app"
	"github.com/louisbranch/usurper.games/internal/services/game/grant"
	mcpservice "github.com/louisbranch/usurper.games/internal/services/mcp/service"
)

// Run opens the environment-configured store and serves the MCP tool
// surface on stdio until the context ends. The HTTP MCP transport is hosted
// by the game daemon instead.
func Run(ctx context.Context) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceMCP, func(ctx context.Context) error {
		grants, err := grant.LoadConfigFromEnv(time.Now)
		if err != nil {
			return err
		}
		svc, closeStore, err := app.NewEnvService()
		if err != nil {
			return err
		}
		defer func() { _ = closeStore() }()
		server, err := mcpservice.New(svc, grants)
		if err != nil {
			return err
		}
		return server.Serve(ctx)
	})
}
