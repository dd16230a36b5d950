package domain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/louisbranch/usurper.games/internal/services/game/app"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// EventsListInput represents the MCP tool input for a journal page.
type EventsListInput struct {
	RealmID    string `json:"realm_id" jsonschema:"realm identifier"`
	Filter     string `json:"filter,omitempty" jsonschema:"AIP-160 filter over type, actor_type, actor_id, entity_type, entity_id, ts"`
	PageSize   int    `json:"page_size,omitempty" jsonschema:"maximum events per page (default 50, max 200)"`
	PageToken  string `json:"page_token,omitempty" jsonschema:"opaque cursor from a previous page"`
	Descending bool   `json:"descending,omitempty" jsonschema:"newest first when true"`
}

// EventEntry is one journal entry in the events listing.
type EventEntry struct {
	Seq        int64           `json:"seq" jsonschema:"journal sequence number"`
	Type       string          `json:"type" jsonschema:"event type"`
	Timestamp  time.Time       `json:"timestamp" jsonschema:"decision clock timestamp"`
	ActorType  string          `json:"actor_type" jsonschema:"actor type (system, participant)"`
	ActorID    string          `json:"actor_id,omitempty" jsonschema:"acting participant"`
	EntityType string          `json:"entity_type" jsonschema:"addressed entity type"`
	EntityID   string          `json:"entity_id" jsonschema:"addressed entity identifier"`
	Payload    json.RawMessage `json:"payload,omitempty" jsonschema:"event payload"`
	Hash       string          `json:"hash" jsonschema:"event content hash"`
	ChainHash  string          `json:"chain_hash" jsonschema:"hash chain link"`
}

// EventsListResult represents the MCP tool output for a journal page.
type EventsListResult struct {
	Events        []EventEntry `json:"events" jsonschema:"journal entries"`
	NextPageToken string       `json:"next_page_token,omitempty" jsonschema:"cursor for the next page"`
	PrevPageToken string       `json:"prev_page_token,omitempty" jsonschema:"cursor for the previous page"`
	TotalCount    int          `json:"total_count" jsonschema:"events matching the filter"`
}

// EventsListTool defines the MCP tool schema for a journal page.
func EventsListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "events_list",
		Description: "Lists a realm's journal with filtering and cursor pagination. Every state change in the realm is an entry here.",
	}
}

// EventsListHandler executes a journal page read.
func EventsListHandler(svc *app.Service) mcp.ToolHandlerFor[EventsListInput, EventsListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input EventsListInput) (*mcp.CallToolResult, EventsListResult, error) {
		page, err := svc.ListEvents(ctx, app.ListEventsParams{
			RealmID:    input.RealmID,
			Filter:     input.Filter,
			PageSize:   input.PageSize,
			PageToken:  input.PageToken,
			Descending: input.Descending,
		})
		if err != nil {
			return nil, EventsListResult{}, toolError("events list", err)
		}
		result := EventsListResult{
			NextPageToken: page.NextPageToken,
			PrevPageToken: page.PrevPageToken,
			TotalCount:    page.TotalCount,
		}
		for _, evt := range page.Events {
			result.Events = append(result.Events, EventEntry{
				Seq:        evt.Seq,
				Type:       evt.Type,
				Timestamp:  evt.Timestamp,
				ActorType:  evt.ActorType,
				ActorID:    evt.ActorID,
				EntityType: evt.EntityType,
				EntityID:   evt.EntityID,
				Payload:    evt.Payload,
				Hash:       evt.Hash,
				ChainHash:  evt.ChainHash,
			})
		}
		return nil, result, nil
	}
}

// IntegrityVerifyInput represents the MCP tool input for a chain
// verification walk.
type IntegrityVerifyInput struct {
	RealmID string `json:"realm_id" jsonschema:"realm identifier"`
}

// IntegrityVerifyResult represents the MCP tool output for a chain
// verification walk.
type IntegrityVerifyResult struct {
	RealmID       string `json:"realm_id" jsonschema:"realm identifier"`
	EventsChecked int64  `json:"events_checked" jsonschema:"journal entries verified"`
	Valid         bool   `json:"valid" jsonschema:"true when every hash and signature checks out"`
	FailureSeq    int64  `json:"failure_seq,omitempty" jsonschema:"first failing sequence, 0 when valid"`
	FailureReason string `json:"failure_reason,omitempty" jsonschema:"why verification failed"`
}

// IntegrityVerifyTool defines the MCP tool schema for a chain verification
// walk.
func IntegrityVerifyTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "integrity_verify",
		Description: "Walks a realm's journal recomputing hashes and signatures. Corruption is reported in the result, not raised as an error.",
	}
}

// IntegrityVerifyHandler executes a chain verification walk.
func IntegrityVerifyHandler(svc *app.Service) mcp.ToolHandlerFor[IntegrityVerifyInput, IntegrityVerifyResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input IntegrityVerifyInput) (*mcp.CallToolResult, IntegrityVerifyResult, error) {
		report, err := svc.VerifyIntegrity(ctx, input.RealmID)
		if err != nil {
			return nil, IntegrityVerifyResult{}, toolError("integrity verify", err)
		}
		return nil, IntegrityVerifyResult{
			RealmID:       report.RealmID,
			EventsChecked: report.EventsChecked,
			Valid:         report.Valid,
			FailureSeq:    report.FailureSeq,
			FailureReason: report.FailureReason,
		}, nil
	}
}
