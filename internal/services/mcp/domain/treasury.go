package domain

import (
	"context"

	"github.com/louisbranch/usurper.games/internal/services/game/app"
	"github.com/louisbranch/usurper.games/internal/services/game/grant"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// AccountOpenInput represents the MCP tool input for opening an account.
type AccountOpenInput struct {
	AccountID string `json:"account_id" jsonschema:"participant account identifier"`
	Grant     string `json:"grant,omitempty" jsonschema:"signed actor grant, required when grant verification is enabled"`
}

// AccountOpenResult represents the MCP tool output for opening an account.
type AccountOpenResult struct {
	AccountID string `json:"account_id" jsonschema:"participant account identifier"`
	Balance   int64  `json:"balance" jsonschema:"balance in base units"`
}

// AccountOpenTool defines the MCP tool schema for opening an account.
func AccountOpenTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "account_open",
		Description: "Opens a participant treasury account with a zero balance.",
	}
}

// AccountOpenHandler executes an account open.
func AccountOpenHandler(svc *app.Service, grants grant.Config) mcp.ToolHandlerFor[AccountOpenInput, AccountOpenResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input AccountOpenInput) (*mcp.CallToolResult, AccountOpenResult, error) {
		if err := authorizeActor(grants, input.Grant, input.AccountID); err != nil {
			return nil, AccountOpenResult{}, err
		}
		rec, err := svc.OpenAccount(ctx, input.AccountID)
		if err != nil {
			return nil, AccountOpenResult{}, toolError("account open", err)
		}
		return nil, AccountOpenResult{AccountID: rec.ID, Balance: rec.Balance}, nil
	}
}

// AccountFundInput represents the MCP tool input for funding an account.
type AccountFundInput struct {
	AccountID string `json:"account_id" jsonschema:"participant account identifier"`
	Amount    int64  `json:"amount" jsonschema:"credit in base units, must be positive"`
	Grant     string `json:"grant,omitempty" jsonschema:"signed actor grant, required when grant verification is enabled"`
}

// AccountFundResult represents the MCP tool output for funding an account.
type AccountFundResult struct {
	AccountID string `json:"account_id" jsonschema:"participant account identifier"`
	Balance   int64  `json:"balance" jsonschema:"balance in base units after the credit"`
}

// AccountFundTool defines the MCP tool schema for funding an account.
func AccountFundTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "account_fund",
		Description: "Credits a participant account with external funds. Escrow accounts only move through attributed transfers and are rejected.",
	}
}

// AccountFundHandler executes an account credit.
func AccountFundHandler(svc *app.Service, grants grant.Config) mcp.ToolHandlerFor[AccountFundInput, AccountFundResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input AccountFundInput) (*mcp.CallToolResult, AccountFundResult, error) {
		if err := authorizeActor(grants, input.Grant, input.AccountID); err != nil {
			return nil, AccountFundResult{}, err
		}
		rec, err := svc.FundAccount(ctx, input.AccountID, input.Amount)
		if err != nil {
			return nil, AccountFundResult{}, toolError("account fund", err)
		}
		return nil, AccountFundResult{AccountID: rec.ID, Balance: rec.Balance}, nil
	}
}

// AccountBalanceInput represents the MCP tool input for a balance read.
type AccountBalanceInput struct {
	AccountID string `json:"account_id" jsonschema:"participant or escrow account identifier"`
}

// AccountBalanceResult represents the MCP tool output for a balance read.
type AccountBalanceResult struct {
	AccountID string `json:"account_id" jsonschema:"account identifier"`
	Kind      string `json:"kind" jsonschema:"account kind (participant, escrow)"`
	Balance   int64  `json:"balance" jsonschema:"balance in base units"`
}

// AccountBalanceTool defines the MCP tool schema for a balance read.
func AccountBalanceTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "account_balance",
		Description: "Reads a treasury account balance, escrow accounts included.",
	}
}

// AccountBalanceHandler executes a balance read.
func AccountBalanceHandler(svc *app.Service) mcp.ToolHandlerFor[AccountBalanceInput, AccountBalanceResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input AccountBalanceInput) (*mcp.CallToolResult, AccountBalanceResult, error) {
		rec, err := svc.Balance(ctx, input.AccountID)
		if err != nil {
			return nil, AccountBalanceResult{}, toolError("account balance", err)
		}
		return nil, AccountBalanceResult{AccountID: rec.ID, Kind: string(rec.Kind), Balance: rec.Balance}, nil
	}
}
