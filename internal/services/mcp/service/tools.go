package service

import (
	"github.com/louisbranch/usurper.games/internal/services/game/app"
	"github.com/louisbranch/usurper.games/internal/services/game/grant"
	"github.com/louisbranch/usurper.games/internal/services/mcp/domain"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type mcpRegistrationTarget interface {
	AddTool(*mcp.Tool, any) error
}

func registerRealmTools(registrar mcpRegistrationTarget, svc *app.Service, grants grant.Config) error {
	registrations := []struct {
		tool    *mcp.Tool
		handler any
	}{
		{tool: domain.RealmCreateTool(), handler: domain.RealmCreateHandler(svc, grants)},
		{tool: domain.RealmStatusTool(), handler: domain.RealmStatusHandler(svc)},
		{tool: domain.HolderGetTool(), handler: domain.HolderGetHandler(svc)},
	}
	for _, registration := range registrations {
		if err := registrar.AddTool(registration.tool, registration.handler); err != nil {
			return err
		}
	}
	return nil
}

func registerThroneTools(registrar mcpRegistrationTarget, svc *app.Service, grants grant.Config) error {
	registrations := []struct {
		tool    *mcp.Tool
		handler any
	}{
		{tool: domain.ThroneClaimTool(), handler: domain.ThroneClaimHandler(svc, grants)},
		{tool: domain.RewardClaimTool(), handler: domain.RewardClaimHandler(svc, grants)},
		{tool: domain.PrizeClaimTool(), handler: domain.PrizeClaimHandler(svc, grants)},
		{tool: domain.RoundStartTool(), handler: domain.RoundStartHandler(svc, grants)},
		{tool: domain.RecipientsListTool(), handler: domain.RecipientsListHandler(svc)},
		{tool: domain.RecipientsCountTool(), handler: domain.RecipientsCountHandler(svc)},
	}
	for _, registration := range registrations {
		if err := registrar.AddTool(registration.tool, registration.handler); err != nil {
			return err
		}
	}
	return nil
}

func registerTreasuryTools(registrar mcpRegistrationTarget, svc *app.Service, grants grant.Config) error {
	registrations := []struct {
		tool    *mcp.Tool
		handler any
	}{
		{tool: domain.AccountOpenTool(), handler: domain.AccountOpenHandler(svc, grants)},
		{tool: domain.AccountFundTool(), handler: domain.AccountFundHandler(svc, grants)},
		{tool: domain.AccountBalanceTool(), handler: domain.AccountBalanceHandler(svc)},
	}
	for _, registration := range registrations {
		if err := registrar.AddTool(registration.tool, registration.handler); err != nil {
			return err
		}
	}
	return nil
}

func registerJournalTools(registrar mcpRegistrationTarget, svc *app.Service) error {
	registrations := []struct {
		tool    *mcp.Tool
		handler any
	}{
		{tool: domain.EventsListTool(), handler: domain.EventsListHandler(svc)},
		{tool: domain.IntegrityVerifyTool(), handler: domain.IntegrityVerifyHandler(svc)},
	}
	for _, registration := range registrations {
		if err := registrar.AddTool(registration.tool, registration.handler); err != nil {
			return err
		}
	}
	return nil
}
