package domain

import (
	"context"

	"github.com/louisbranch/usurper.games/internal/services/game/app"
	"github.com/louisbranch/usurper.games/internal/services/game/grant"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RealmCreateInput represents the MCP tool input for founding a realm.
type RealmCreateInput struct {
	RealmID   string `json:"realm_id,omitempty" jsonschema:"realm identifier (generated when omitted)"`
	Name      string `json:"name,omitempty" jsonschema:"human-facing realm name"`
	OwnerID   string `json:"owner_id" jsonschema:"founding participant account"`
	Deposit   int64  `json:"deposit" jsonschema:"initial deposit in base units; becomes the base fee"`
	RequestID string `json:"request_id,omitempty" jsonschema:"idempotency key for retries"`
	Grant     string `json:"grant,omitempty" jsonschema:"signed actor grant, required when grant verification is enabled"`
}

// RealmCreateResult represents the MCP tool output for founding a realm.
type RealmCreateResult struct {
	RealmID         string `json:"realm_id" jsonschema:"realm identifier"`
	Name            string `json:"name,omitempty" jsonschema:"realm name"`
	OwnerID         string `json:"owner_id" jsonschema:"founding participant"`
	BaseFee         int64  `json:"base_fee" jsonschema:"bid floor in base units"`
	EscrowAccountID string `json:"escrow_account_id" jsonschema:"treasury account holding the realm pool"`
}

// RealmCreateTool defines the MCP tool schema for founding a realm.
func RealmCreateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "realm_create",
		Description: "Founds a realm: moves the owner's deposit into escrow and opens the first round with the deposit as the bid floor.",
	}
}

// RealmCreateHandler executes a realm founding request.
func RealmCreateHandler(svc *app.Service, grants grant.Config) mcp.ToolHandlerFor[RealmCreateInput, RealmCreateResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RealmCreateInput) (*mcp.CallToolResult, RealmCreateResult, error) {
		if err := authorizeActor(grants, input.Grant, input.OwnerID); err != nil {
			return nil, RealmCreateResult{}, err
		}
		result, err := svc.CreateRealm(ctx, app.CreateRealmParams{
			RealmID:   input.RealmID,
			Name:      input.Name,
			OwnerID:   input.OwnerID,
			Deposit:   input.Deposit,
			RequestID: input.RequestID,
		})
		if err != nil {
			return nil, RealmCreateResult{}, toolError("realm create", err)
		}
		return nil, RealmCreateResult{
			RealmID:         result.RealmID,
			Name:            result.Name,
			OwnerID:         result.OwnerID,
			BaseFee:         result.BaseFee,
			EscrowAccountID: result.EscrowAccountID,
		}, nil
	}
}
