package domain

import (
	"context"

	"github.com/louisbranch/usurper.games/internal/services/game/app"
	"github.com/louisbranch/usurper.games/internal/services/game/grant"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ThroneClaimInput represents the MCP tool input for claiming the throne.
type ThroneClaimInput struct {
	RealmID   string `json:"realm_id" jsonschema:"realm identifier"`
	ActorID   string `json:"actor_id" jsonschema:"claiming participant account"`
	Offered   int64  `json:"offered" jsonschema:"offer in base units; must strictly exceed the required bid"`
	RequestID string `json:"request_id,omitempty" jsonschema:"idempotency key for retries"`
	Grant     string `json:"grant,omitempty" jsonschema:"signed actor grant, required when grant verification is enabled"`
}

// ThroneClaimResult represents the MCP tool output for a successful claim.
type ThroneClaimResult struct {
	Claimant         string `json:"claimant" jsonschema:"new title holder"`
	Offered          int64  `json:"offered" jsonschema:"amount moved into escrow"`
	Reward           int64  `json:"reward" jsonschema:"slice of the offer credited to the displaced holder"`
	Beneficiary      string `json:"beneficiary" jsonschema:"account the reward accrued to"`
	RoundEndMs       int64  `json:"round_end_ms" jsonschema:"unix-millisecond countdown expiry"`
	RewardDeadlineMs int64  `json:"reward_deadline_ms" jsonschema:"unix-millisecond reward claim deadline"`
	RequiredBid      int64  `json:"required_bid" jsonschema:"bid the next claim must exceed"`
	Pool             int64  `json:"pool" jsonschema:"escrow pool after the claim"`
}

// ThroneClaimTool defines the MCP tool schema for claiming the throne.
func ThroneClaimTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "throne_claim",
		Description: "Claims the throne with an escalating offer. The offer moves into escrow, a tenth of it accrues to the displaced holder, and the countdown restarts.",
	}
}

// ThroneClaimHandler executes a throne claim.
func ThroneClaimHandler(svc *app.Service, grants grant.Config) mcp.ToolHandlerFor[ThroneClaimInput, ThroneClaimResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ThroneClaimInput) (*mcp.CallToolResult, ThroneClaimResult, error) {
		if err := authorizeActor(grants, input.Grant, input.ActorID); err != nil {
			return nil, ThroneClaimResult{}, err
		}
		result, err := svc.ClaimThrone(ctx, app.ClaimThroneParams{
			RealmID:   input.RealmID,
			ActorID:   input.ActorID,
			Offered:   input.Offered,
			RequestID: input.RequestID,
		})
		if err != nil {
			return nil, ThroneClaimResult{}, toolError("throne claim", err)
		}
		return nil, ThroneClaimResult{
			Claimant:         result.Claimant,
			Offered:          result.Offered,
			Reward:           result.Reward,
			Beneficiary:      result.Beneficiary,
			RoundEndMs:       result.RoundEndMs,
			RewardDeadlineMs: result.RewardDeadlineMs,
			RequiredBid:      result.RequiredBid,
			Pool:             result.Pool,
		}, nil
	}
}

// RewardClaimInput represents the MCP tool input for collecting a reward.
type RewardClaimInput struct {
	RealmID   string `json:"realm_id" jsonschema:"realm identifier"`
	ActorID   string `json:"actor_id" jsonschema:"recipient account"`
	RequestID string `json:"request_id,omitempty" jsonschema:"idempotency key for retries"`
	Grant     string `json:"grant,omitempty" jsonschema:"signed actor grant, required when grant verification is enabled"`
}

// RewardClaimResult represents the MCP tool output for a reward collection.
type RewardClaimResult struct {
	Claimant      string `json:"claimant" jsonschema:"recipient account"`
	Amount        int64  `json:"amount" jsonschema:"amount paid out, or forfeited when expired"`
	Forfeited     bool   `json:"forfeited" jsonschema:"true when the deadline had lapsed and the amount was redirected"`
	RedirectedTo  string `json:"redirected_to,omitempty" jsonschema:"account the forfeited amount accrued to"`
	NewDeadlineMs int64  `json:"new_deadline_ms,omitempty" jsonschema:"unix-millisecond deadline for the redirected amount"`
}

// RewardClaimTool defines the MCP tool schema for collecting a reward.
func RewardClaimTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "reward_claim",
		Description: "Collects the caller's outstanding reward. Past the 48-hour deadline the amount forfeits to the realm owner instead of paying out.",
	}
}

// RewardClaimHandler executes a reward collection.
func RewardClaimHandler(svc *app.Service, grants grant.Config) mcp.ToolHandlerFor[RewardClaimInput, RewardClaimResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RewardClaimInput) (*mcp.CallToolResult, RewardClaimResult, error) {
		if err := authorizeActor(grants, input.Grant, input.ActorID); err != nil {
			return nil, RewardClaimResult{}, err
		}
		result, err := svc.ClaimReward(ctx, app.ClaimRewardParams{
			RealmID:   input.RealmID,
			ActorID:   input.ActorID,
			RequestID: input.RequestID,
		})
		if err != nil {
			return nil, RewardClaimResult{}, toolError("reward claim", err)
		}
		return nil, RewardClaimResult{
			Claimant:      result.Claimant,
			Amount:        result.Amount,
			Forfeited:     result.Forfeited,
			RedirectedTo:  result.RedirectedTo,
			NewDeadlineMs: result.NewDeadlineMs,
		}, nil
	}
}

// PrizeClaimInput represents the MCP tool input for settling a concluded
// round.
type PrizeClaimInput struct {
	RealmID   string `json:"realm_id" jsonschema:"realm identifier"`
	ActorID   string `json:"actor_id" jsonschema:"final holder account"`
	RequestID string `json:"request_id,omitempty" jsonschema:"idempotency key for retries"`
	Grant     string `json:"grant,omitempty" jsonschema:"signed actor grant, required when grant verification is enabled"`
}

// PrizeClaimResult represents the MCP tool output for a settlement.
type PrizeClaimResult struct {
	Winner   string `json:"winner" jsonschema:"settling holder"`
	Winnings int64  `json:"winnings" jsonschema:"pool minus outstanding rewards, in base units"`
}

// PrizeClaimTool defines the MCP tool schema for settling a round.
func PrizeClaimTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "prize_claim",
		Description: "Settles a concluded round: pays the final holder the pool minus all outstanding reward obligations.",
	}
}

// PrizeClaimHandler executes a settlement.
func PrizeClaimHandler(svc *app.Service, grants grant.Config) mcp.ToolHandlerFor[PrizeClaimInput, PrizeClaimResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input PrizeClaimInput) (*mcp.CallToolResult, PrizeClaimResult, error) {
		if err := authorizeActor(grants, input.Grant, input.ActorID); err != nil {
			return nil, PrizeClaimResult{}, err
		}
		result, err := svc.ClaimPrize(ctx, app.ClaimPrizeParams{
			RealmID:   input.RealmID,
			ActorID:   input.ActorID,
			RequestID: input.RequestID,
		})
		if err != nil {
			return nil, PrizeClaimResult{}, toolError("prize claim", err)
		}
		return nil, PrizeClaimResult{
			Winner:   result.Winner,
			Winnings: result.Winnings,
		}, nil
	}
}

// RoundStartInput represents the MCP tool input for rearming a round.
type RoundStartInput struct {
	RealmID   string `json:"realm_id" jsonschema:"realm identifier"`
	ActorID   string `json:"actor_id" jsonschema:"holder or realm owner account"`
	RequestID string `json:"request_id,omitempty" jsonschema:"idempotency key for retries"`
	Grant     string `json:"grant,omitempty" jsonschema:"signed actor grant, required when grant verification is enabled"`
}

// RoundStartResult represents the MCP tool output for a round start.
type RoundStartResult struct {
	Starter string `json:"starter" jsonschema:"account that started the round"`
	BaseFee int64  `json:"base_fee" jsonschema:"restored bid floor in base units"`
}

// RoundStartTool defines the MCP tool schema for rearming a round.
func RoundStartTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "round_start",
		Description: "Starts a fresh round once the previous countdown has lapsed: unseats the holder and resets the required bid to the base fee.",
	}
}

// RoundStartHandler executes a round start.
func RoundStartHandler(svc *app.Service, grants grant.Config) mcp.ToolHandlerFor[RoundStartInput, RoundStartResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RoundStartInput) (*mcp.CallToolResult, RoundStartResult, error) {
		if err := authorizeActor(grants, input.Grant, input.ActorID); err != nil {
			return nil, RoundStartResult{}, err
		}
		result, err := svc.StartRound(ctx, app.StartRoundParams{
			RealmID:   input.RealmID,
			ActorID:   input.ActorID,
			RequestID: input.RequestID,
		})
		if err != nil {
			return nil, RoundStartResult{}, toolError("round start", err)
		}
		return nil, RoundStartResult{
			Starter: result.Starter,
			BaseFee: result.BaseFee,
		}, nil
	}
}
