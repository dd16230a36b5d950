// Package service hosts the MCP server binding the game tool surface to
// stdio and HTTP transports.
package service

import (
	"context"
	"fmt"
	"net/http"

	"github.com/louisbranch/usurper.games/internal/services/game/app"
	"github.com/louisbranch/usurper.games/internal/services/game/grant"
	"github.com/louisbranch/usurper.games/internal/services/mcp/domain"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	serverName = "usurper.games MCP"
	// serverVersion identifies the MCP server version.
	serverVersion = "0.1.0"
)

type mcpRegistrationModule struct {
	name     string
	register func(mcpRegistrationTarget) error
}

const (
	mcpRealmToolsModuleName    = "realm-tools"
	mcpThroneToolsModuleName   = "throne-tools"
	mcpTreasuryToolsModuleName = "treasury-tools"
	mcpJournalToolsModuleName  = "journal-tools"
)

type mcpServerRegistrationAdapter struct {
	server *mcp.Server
}

func (r mcpServerRegistrationAdapter) AddTool(tool *mcp.Tool, handler any) error {
	return addMCPTool(r.server, tool, handler)
}

type mcpToolRegistrar struct {
	matches func(any) bool
	add     func(*mcp.Server, *mcp.Tool, any)
}

func newMCPToolRegistrar[I any, O any]() mcpToolRegistrar {
	return mcpToolRegistrar{
		matches: func(handler any) bool {
			_, ok := handler.(mcp.ToolHandlerFor[I, O])
			return ok
		},
		add: func(server *mcp.Server, tool *mcp.Tool, handler any) {
			mcp.AddTool(server, tool, handler.(mcp.ToolHandlerFor[I, O]))
		},
	}
}

var mcpToolRegistrars = []mcpToolRegistrar{
	newMCPToolRegistrar[domain.RealmCreateInput, domain.RealmCreateResult](),
	newMCPToolRegistrar[domain.ThroneClaimInput, domain.ThroneClaimResult](),
	newMCPToolRegistrar[domain.RewardClaimInput, domain.RewardClaimResult](),
	newMCPToolRegistrar[domain.PrizeClaimInput, domain.PrizeClaimResult](),
	newMCPToolRegistrar[domain.RoundStartInput, domain.RoundStartResult](),
	newMCPToolRegistrar[domain.RealmStatusInput, domain.RealmStatusResult](),
	newMCPToolRegistrar[domain.HolderGetInput, domain.HolderGetResult](),
	newMCPToolRegistrar[domain.RecipientsListInput, domain.RecipientsListResult](),
	newMCPToolRegistrar[domain.RecipientsCountInput, domain.RecipientsCountResult](),
	newMCPToolRegistrar[domain.AccountOpenInput, domain.AccountOpenResult](),
	newMCPToolRegistrar[domain.AccountFundInput, domain.AccountFundResult](),
	newMCPToolRegistrar[domain.AccountBalanceInput, domain.AccountBalanceResult](),
	newMCPToolRegistrar[domain.EventsListInput, domain.EventsListResult](),
	newMCPToolRegistrar[domain.IntegrityVerifyInput, domain.IntegrityVerifyResult](),
}

func addMCPTool(server *mcp.Server, tool *mcp.Tool, handler any) error {
	for _, registrar := range mcpToolRegistrars {
		if registrar.matches(handler) {
			registrar.add(server, tool, handler)
			return nil
		}
	}
	toolName := "<nil>"
	if tool != nil {
		toolName = tool.Name
	}
	return fmt.Errorf("mcp registration adapter does not support handler type %T for tool %q", handler, toolName)
}

func newMCPRegistrationModules(svc *app.Service, grants grant.Config) []mcpRegistrationModule {
	return []mcpRegistrationModule{
		{
			name: mcpRealmToolsModuleName,
			register: func(registrar mcpRegistrationTarget) error {
				return registerRealmTools(registrar, svc, grants)
			},
		},
		{
			name: mcpThroneToolsModuleName,
			register: func(registrar mcpRegistrationTarget) error {
				return registerThroneTools(registrar, svc, grants)
			},
		},
		{
			name: mcpTreasuryToolsModuleName,
			register: func(registrar mcpRegistrationTarget) error {
				return registerTreasuryTools(registrar, svc, grants)
			},
		},
		{
			name: mcpJournalToolsModuleName,
			register: func(registrar mcpRegistrationTarget) error {
				return registerJournalTools(registrar, svc)
			},
		},
	}
}

// Server hosts the MCP tool surface over a game application service.
type Server struct {
	mcpServer *mcp.Server
}

// New creates a configured MCP server with every game tool registered. The
// grant config gates mutating tools; a disabled config leaves the surface
// open for local development.
func New(svc *app.Service, grants grant.Config) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("game service is required")
	}
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	for _, module := range newMCPRegistrationModules(svc, grants) {
		if err := module.register(mcpServerRegistrationAdapter{server: mcpServer}); err != nil {
			return nil, fmt.Errorf("register MCP module %q: %w", module.name, err)
		}
	}
	return &Server{mcpServer: mcpServer}, nil
}

// Serve starts the MCP server on stdio and blocks until it stops or the
// context ends.
func (s *Server) Serve(ctx context.Context) error {
	return s.serveWithTransport(ctx, &mcp.StdioTransport{})
}

// serveWithTransport starts the MCP server using the provided transport.
func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	return s.mcpServer.Run(ctx, transport)
}

// HTTPHandler returns the streamable HTTP handler for the MCP surface, for
// mounting on an existing HTTP server.
func (s *Server) HTTPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcpServer
	}, nil)
}
