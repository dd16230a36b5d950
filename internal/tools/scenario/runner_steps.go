package scenario

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/louisbranch/usurper.games/internal/platform/errors"
	"github.com/louisbranch/usurper.games/internal/services/game/app"
	"github.com/louisbranch/usurper.games/internal/services/game/storage"
)

func (r *Runner) runStep(ctx context.Context, state *scenarioState, step Step) error {
	switch step.Kind {
	case "fund":
		return r.stepFund(ctx, step)
	case "realm":
		return r.stepRealm(ctx, state, step)
	case "claim":
		return r.stepClaim(ctx, state, step)
	case "collect":
		return r.stepCollect(ctx, state, step)
	case "settle":
		return r.stepSettle(ctx, state, step)
	case "restart":
		return r.stepRestart(ctx, state, step)
	case "status":
		return r.stepStatus(ctx, state, step)
	case "balance":
		return r.stepBalance(ctx, step)
	case "recipients":
		return r.stepRecipients(ctx, state, step)
	case "advance":
		return r.stepAdvance(step)
	case "integrity":
		return r.stepIntegrity(ctx, state, step)
	default:
		return fmt.Errorf("unknown step kind %q", step.Kind)
	}
}

// stepFund opens the actor's treasury account if needed and credits it.
func (r *Runner) stepFund(ctx context.Context, step Step) error {
	actor, err := stringArg(step.Args, "actor")
	if err != nil {
		return err
	}
	amount := intArgDefault(step.Args, "amount", 0)
	if _, err := r.svc.OpenAccount(ctx, actor); err != nil && !errors.Is(err, storage.ErrAccountExists) {
		return fmt.Errorf("open account %s: %w", actor, err)
	}
	if amount > 0 {
		if _, err := r.svc.FundAccount(ctx, actor, amount); err != nil {
			return fmt.Errorf("fund account %s: %w", actor, err)
		}
	}
	return nil
}

func (r *Runner) stepRealm(ctx context.Context, state *scenarioState, step Step) error {
	owner, err := stringArg(step.Args, "owner")
	if err != nil {
		return err
	}
	deposit, err := intArg(step.Args, "deposit")
	if err != nil {
		return err
	}
	result, cmdErr := r.svc.CreateRealm(ctx, app.CreateRealmParams{
		RealmID: stringArgDefault(step.Args, "id", ""),
		Name:    stringArgDefault(step.Args, "name", "scenario realm"),
		OwnerID: owner,
		Deposit: deposit,
	})
	done, err := r.resolveOutcome(step, cmdErr)
	if done || err != nil {
		return err
	}
	state.realmID = result.RealmID
	return nil
}

func (r *Runner) stepClaim(ctx context.Context, state *scenarioState, step Step) error {
	realmID, err := r.realmFor(state, step)
	if err != nil {
		return err
	}
	actor, err := stringArg(step.Args, "actor")
	if err != nil {
		return err
	}
	offer, err := intArg(step.Args, "offer")
	if err != nil {
		return err
	}
	result, cmdErr := r.svc.ClaimThrone(ctx, app.ClaimThroneParams{
		RealmID: realmID,
		ActorID: actor,
		Offered: offer,
	})
	done, err := r.resolveOutcome(step, cmdErr)
	if done || err != nil {
		return err
	}
	if want, ok := intArgPresent(step.Args, "expect_reward"); ok && result.Reward != want {
		return r.failf("claim by %s: reward %d, expected %d", actor, result.Reward, want)
	}
	if want := stringArgDefault(step.Args, "expect_beneficiary", ""); want != "" && result.Beneficiary != want {
		return r.failf("claim by %s: beneficiary %s, expected %s", actor, result.Beneficiary, want)
	}
	if want, ok := intArgPresent(step.Args, "expect_pool"); ok && result.Pool != want {
		return r.failf("claim by %s: pool %d, expected %d", actor, result.Pool, want)
	}
	return nil
}

func (r *Runner) stepCollect(ctx context.Context, state *scenarioState, step Step) error {
	realmID, err := r.realmFor(state, step)
	if err != nil {
		return err
	}
	actor, err := stringArg(step.Args, "actor")
	if err != nil {
		return err
	}
	result, cmdErr := r.svc.ClaimReward(ctx, app.ClaimRewardParams{RealmID: realmID, ActorID: actor})
	done, err := r.resolveOutcome(step, cmdErr)
	if done || err != nil {
		return err
	}
	if want, ok := boolArgPresent(step.Args, "expect_forfeit"); ok && result.Forfeited != want {
		return r.failf("collect by %s: forfeited %t, expected %t", actor, result.Forfeited, want)
	}
	if want, ok := intArgPresent(step.Args, "expect_amount"); ok && result.Amount != want {
		return r.failf("collect by %s: amount %d, expected %d", actor, result.Amount, want)
	}
	return nil
}

func (r *Runner) stepSettle(ctx context.Context, state *scenarioState, step Step) error {
	realmID, err := r.realmFor(state, step)
	if err != nil {
		return err
	}
	actor, err := stringArg(step.Args, "actor")
	if err != nil {
		return err
	}
	result, cmdErr := r.svc.ClaimPrize(ctx, app.ClaimPrizeParams{RealmID: realmID, ActorID: actor})
	done, err := r.resolveOutcome(step, cmdErr)
	if done || err != nil {
		return err
	}
	if want, ok := intArgPresent(step.Args, "expect_winnings"); ok && result.Winnings != want {
		return r.failf("settle by %s: winnings %d, expected %d", actor, result.Winnings, want)
	}
	return nil
}

func (r *Runner) stepRestart(ctx context.Context, state *scenarioState, step Step) error {
	realmID, err := r.realmFor(state, step)
	if err != nil {
		return err
	}
	actor, err := stringArg(step.Args, "actor")
	if err != nil {
		return err
	}
	_, cmdErr := r.svc.StartRound(ctx, app.StartRoundParams{RealmID: realmID, ActorID: actor})
	_, err = r.resolveOutcome(step, cmdErr)
	return err
}

// stepStatus queries the realm and checks any expectation keys present.
func (r *Runner) stepStatus(ctx context.Context, state *scenarioState, step Step) error {
	realmID, err := r.realmFor(state, step)
	if err != nil {
		return err
	}
	status, cmdErr := r.svc.Status(ctx, realmID)
	done, err := r.resolveOutcome(step, cmdErr)
	if done || err != nil {
		return err
	}
	if want := stringArgDefault(step.Args, "holder", "*"); want != "*" && status.HolderID != want {
		return r.assertf("status: holder %q, expected %q", status.HolderID, want)
	}
	if want, ok := intArgPresent(step.Args, "required_bid"); ok && status.RequiredBid != want {
		return r.assertf("status: required bid %d, expected %d", status.RequiredBid, want)
	}
	if want, ok := intArgPresent(step.Args, "pool"); ok && status.Pool != want {
		return r.assertf("status: pool %d, expected %d", status.Pool, want)
	}
	if want, ok := intArgPresent(step.Args, "owed"); ok && status.OwedTotal != want {
		return r.assertf("status: owed %d, expected %d", status.OwedTotal, want)
	}
	if want := stringArgDefault(step.Args, "phase", ""); want != "" && string(status.Phase) != want {
		return r.assertf("status: phase %s, expected %s", status.Phase, want)
	}
	if want, ok := intArgPresent(step.Args, "games_played"); ok && status.GamesPlayed != want {
		return r.assertf("status: games played %d, expected %d", status.GamesPlayed, want)
	}
	return nil
}

func (r *Runner) stepBalance(ctx context.Context, step Step) error {
	actor, err := stringArg(step.Args, "actor")
	if err != nil {
		return err
	}
	want, err := intArg(step.Args, "amount")
	if err != nil {
		return err
	}
	account, err := r.svc.Balance(ctx, actor)
	if err != nil {
		return fmt.Errorf("balance of %s: %w", actor, err)
	}
	if account.Balance != want {
		return r.assertf("balance of %s: %d, expected %d", actor, account.Balance, want)
	}
	return nil
}

func (r *Runner) stepRecipients(ctx context.Context, state *scenarioState, step Step) error {
	realmID, err := r.realmFor(state, step)
	if err != nil {
		return err
	}
	want, err := intArg(step.Args, "count")
	if err != nil {
		return err
	}
	count, err := r.svc.CountRecipients(ctx, realmID)
	if err != nil {
		return fmt.Errorf("count recipients: %w", err)
	}
	if count != want {
		return r.assertf("recipients: count %d, expected %d", count, want)
	}
	return nil
}

// stepAdvance moves the virtual clock forward. Durations use Go syntax, so
// "49h" steps past a reward deadline and "2h1m" past a round countdown.
func (r *Runner) stepAdvance(step Step) error {
	raw, err := stringArg(step.Args, "duration")
	if err != nil {
		return err
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	if d <= 0 {
		return fmt.Errorf("duration %q must be positive", raw)
	}
	r.now = r.now.Add(d)
	r.logf("clock advanced %s to %s", d, r.now.UTC().Format(time.RFC3339))
	return nil
}

func (r *Runner) stepIntegrity(ctx context.Context, state *scenarioState, step Step) error {
	realmID, err := r.realmFor(state, step)
	if err != nil {
		return err
	}
	report, err := r.svc.VerifyIntegrity(ctx, realmID)
	if err != nil {
		return fmt.Errorf("verify integrity: %w", err)
	}
	if !report.Valid {
		return r.failf("integrity: chain invalid at seq %d: %s", report.FailureSeq, report.FailureReason)
	}
	r.logf("integrity: %d events verified", report.EventsChecked)
	return nil
}

// resolveOutcome reconciles a command result against the step's expect_err
// key. It reports done=true when the expected rejection arrived and the
// remaining expectation keys should be skipped.
func (r *Runner) resolveOutcome(step Step, cmdErr error) (done bool, err error) {
	expected := stringArgDefault(step.Args, "expect_err", "")
	if expected == "" {
		if cmdErr != nil {
			return false, fmt.Errorf("%s: %w", step.Kind, cmdErr)
		}
		return false, nil
	}
	if cmdErr == nil {
		return true, r.failf("%s: expected rejection %s, command succeeded", step.Kind, expected)
	}
	var appErr *apperrors.Error
	if !errors.As(cmdErr, &appErr) {
		return true, fmt.Errorf("%s: expected rejection %s, got: %w", step.Kind, expected, cmdErr)
	}
	if string(appErr.Code) != expected {
		return true, r.failf("%s: expected rejection %s, got %s", step.Kind, expected, appErr.Code)
	}
	return true, nil
}

func (r *Runner) realmFor(state *scenarioState, step Step) (string, error) {
	if realmID := stringArgDefault(step.Args, "realm", ""); realmID != "" {
		return realmID, nil
	}
	if state.realmID == "" {
		return "", errors.New("no realm created yet and no realm argument given")
	}
	return state.realmID, nil
}

func stringArg(args map[string]any, key string) (string, error) {
	raw, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing %s argument", key)
	}
	value, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%s argument must be a string, got %T", key, raw)
	}
	return value, nil
}

func stringArgDefault(args map[string]any, key, fallback string) string {
	if value, ok := args[key].(string); ok {
		return value
	}
	return fallback
}

func intArg(args map[string]any, key string) (int64, error) {
	value, ok := intArgPresent(args, key)
	if !ok {
		if _, present := args[key]; present {
			return 0, fmt.Errorf("%s argument must be a whole number, got %T", key, args[key])
		}
		return 0, fmt.Errorf("missing %s argument", key)
	}
	return value, nil
}

func intArgDefault(args map[string]any, key string, fallback int64) int64 {
	if value, ok := intArgPresent(args, key); ok {
		return value
	}
	return fallback
}

func intArgPresent(args map[string]any, key string) (int64, bool) {
	switch value := args[key].(type) {
	case int:
		return int64(value), true
	case int64:
		return value, true
	case float64:
		whole := int64(value)
		if float64(whole) == value {
			return whole, true
		}
		return 0, false
	default:
		return 0, false
	}
}

func boolArgPresent(args map[string]any, key string) (bool, bool) {
	value, ok := args[key].(bool)
	return value, ok
}
