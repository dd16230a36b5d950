package domain

import (
	"context"

	"github.com/louisbranch/usurper.games/internal/services/game/app"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RealmStatusInput represents the MCP tool input for a realm status read.
type RealmStatusInput struct {
	RealmID string `json:"realm_id" jsonschema:"realm identifier"`
}

// RealmStatusResult represents the MCP tool output for a realm status read.
type RealmStatusResult struct {
	RealmID      string `json:"realm_id" jsonschema:"realm identifier"`
	Name         string `json:"name,omitempty" jsonschema:"realm name"`
	OwnerID      string `json:"owner_id" jsonschema:"founding participant"`
	BaseFee      int64  `json:"base_fee" jsonschema:"bid floor in base units"`
	HolderID     string `json:"holder_id,omitempty" jsonschema:"current title holder, empty when unheld"`
	RequiredBid  int64  `json:"required_bid" jsonschema:"bid the next claim must exceed"`
	RoundEndMs   int64  `json:"round_end_ms" jsonschema:"unix-millisecond countdown expiry, 0 before the first claim"`
	RemainingMs  int64  `json:"remaining_ms" jsonschema:"countdown remainder, clamped at 0"`
	Phase        string `json:"phase" jsonschema:"round phase (uninitialized, active, concluded)"`
	Pool         int64  `json:"pool" jsonschema:"escrow pool in base units"`
	OwedTotal    int64  `json:"owed_total" jsonschema:"sum of outstanding reward obligations"`
	GamesPlayed  int64  `json:"games_played" jsonschema:"settlements to date"`
	TotalAwarded int64  `json:"total_awarded" jsonschema:"sum of settlement winnings to date"`
}

// RealmStatusTool defines the MCP tool schema for a realm status read.
func RealmStatusTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "realm_status",
		Description: "Reads a realm's standing: holder, required bid, countdown, pool, obligations, and lifetime counters.",
	}
}

// RealmStatusHandler executes a realm status read.
func RealmStatusHandler(svc *app.Service) mcp.ToolHandlerFor[RealmStatusInput, RealmStatusResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RealmStatusInput) (*mcp.CallToolResult, RealmStatusResult, error) {
		status, err := svc.Status(ctx, input.RealmID)
		if err != nil {
			return nil, RealmStatusResult{}, toolError("realm status", err)
		}
		return nil, RealmStatusResult{
			RealmID:      status.RealmID,
			Name:         status.Name,
			OwnerID:      status.OwnerID,
			BaseFee:      status.BaseFee,
			HolderID:     status.HolderID,
			RequiredBid:  status.RequiredBid,
			RoundEndMs:   status.RoundEndMs,
			RemainingMs:  status.RemainingMs,
			Phase:        string(status.Phase),
			Pool:         status.Pool,
			OwedTotal:    status.OwedTotal,
			GamesPlayed:  status.GamesPlayed,
			TotalAwarded: status.TotalAwarded,
		}, nil
	}
}

// HolderGetInput represents the MCP tool input for a holder read.
type HolderGetInput struct {
	RealmID string `json:"realm_id" jsonschema:"realm identifier"`
}

// HolderGetResult represents the MCP tool output for a holder read.
type HolderGetResult struct {
	HolderID    string `json:"holder_id,omitempty" jsonschema:"current title holder, empty when unheld"`
	RequiredBid int64  `json:"required_bid" jsonschema:"bid the next claim must exceed"`
	RoundEndMs  int64  `json:"round_end_ms" jsonschema:"unix-millisecond countdown expiry"`
	RemainingMs int64  `json:"remaining_ms" jsonschema:"countdown remainder, clamped at 0"`
	Phase       string `json:"phase" jsonschema:"round phase (uninitialized, active, concluded)"`
}

// HolderGetTool defines the MCP tool schema for a holder read.
func HolderGetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "holder_get",
		Description: "Reads the current title holder and the live countdown for a realm.",
	}
}

// HolderGetHandler executes a holder read.
func HolderGetHandler(svc *app.Service) mcp.ToolHandlerFor[HolderGetInput, HolderGetResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input HolderGetInput) (*mcp.CallToolResult, HolderGetResult, error) {
		holder, err := svc.Holder(ctx, input.RealmID)
		if err != nil {
			return nil, HolderGetResult{}, toolError("holder get", err)
		}
		return nil, HolderGetResult{
			HolderID:    holder.HolderID,
			RequiredBid: holder.RequiredBid,
			RoundEndMs:  holder.RoundEndMs,
			RemainingMs: holder.RemainingMs,
			Phase:       string(holder.Phase),
		}, nil
	}
}

// RecipientsListInput represents the MCP tool input for a recipients page.
type RecipientsListInput struct {
	RealmID    string `json:"realm_id" jsonschema:"realm identifier"`
	Filter     string `json:"filter,omitempty" jsonschema:"AIP-160 filter over recipient_id, amount, deadline, tracked"`
	PageSize   int    `json:"page_size,omitempty" jsonschema:"maximum records per page (default 50, max 200)"`
	PageToken  string `json:"page_token,omitempty" jsonschema:"opaque cursor from a previous page"`
	Descending bool   `json:"descending,omitempty" jsonschema:"reverse the first-accrual order"`
}

// RecipientEntry is one ledger row in the recipients listing.
type RecipientEntry struct {
	RecipientID string `json:"recipient_id" jsonschema:"recipient account"`
	Amount      int64  `json:"amount" jsonschema:"outstanding amount in base units, 0 after payout or forfeit"`
	DeadlineMs  int64  `json:"deadline_ms" jsonschema:"unix-millisecond claim deadline"`
	Tracked     bool   `json:"tracked" jsonschema:"true once the recipient has ever accrued a reward"`
	Position    int64  `json:"position" jsonschema:"first-accrual enumeration position"`
}

// RecipientsListResult represents the MCP tool output for a recipients page.
type RecipientsListResult struct {
	Recipients    []RecipientEntry `json:"recipients" jsonschema:"ledger records in first-accrual order"`
	NextPageToken string           `json:"next_page_token,omitempty" jsonschema:"cursor for the next page"`
	PrevPageToken string           `json:"prev_page_token,omitempty" jsonschema:"cursor for the previous page"`
	TotalCount    int              `json:"total_count" jsonschema:"records matching the filter"`
}

// RecipientsListTool defines the MCP tool schema for a recipients page.
func RecipientsListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "recipients_list",
		Description: "Lists the realm's reward ledger in first-accrual order with filtering and cursor pagination.",
	}
}

// RecipientsListHandler executes a recipients page read.
func RecipientsListHandler(svc *app.Service) mcp.ToolHandlerFor[RecipientsListInput, RecipientsListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RecipientsListInput) (*mcp.CallToolResult, RecipientsListResult, error) {
		page, err := svc.ListRecipients(ctx, app.ListRecipientsParams{
			RealmID:    input.RealmID,
			Filter:     input.Filter,
			PageSize:   input.PageSize,
			PageToken:  input.PageToken,
			Descending: input.Descending,
		})
		if err != nil {
			return nil, RecipientsListResult{}, toolError("recipients list", err)
		}
		result := RecipientsListResult{
			NextPageToken: page.NextPageToken,
			PrevPageToken: page.PrevPageToken,
			TotalCount:    page.TotalCount,
		}
		for _, rec := range page.Recipients {
			result.Recipients = append(result.Recipients, RecipientEntry{
				RecipientID: rec.RecipientID,
				Amount:      rec.Amount,
				DeadlineMs:  rec.DeadlineMs,
				Tracked:     rec.Tracked,
				Position:    rec.Position,
			})
		}
		return nil, result, nil
	}
}

// RecipientsCountInput represents the MCP tool input for a tracking set
// count.
type RecipientsCountInput struct {
	RealmID string `json:"realm_id" jsonschema:"realm identifier"`
}

// RecipientsCountResult represents the MCP tool output for a tracking set
// count.
type RecipientsCountResult struct {
	Count int64 `json:"count" jsonschema:"participants who have ever accrued a reward"`
}

// RecipientsCountTool defines the MCP tool schema for a tracking set count.
func RecipientsCountTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "recipients_count",
		Description: "Counts every participant who has ever accrued a reward in the realm, paid out or not.",
	}
}

// RecipientsCountHandler executes a tracking set count.
func RecipientsCountHandler(svc *app.Service) mcp.ToolHandlerFor[RecipientsCountInput, RecipientsCountResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RecipientsCountInput) (*mcp.CallToolResult, RecipientsCountResult, error) {
		count, err := svc.CountRecipients(ctx, input.RealmID)
		if err != nil {
			return nil, RecipientsCountResult{}, toolError("recipients count", err)
		}
		return nil, RecipientsCountResult{Count: count}, nil
	}
}
