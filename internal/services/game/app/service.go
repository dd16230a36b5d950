package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/louisbranch/usurper.games/internal/platform/errors"
	"github.com/louisbranch/usurper.games/internal/platform/id"
	"github.com/louisbranch/usurper.games/internal/platform/telemetry"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/aggregate"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/checkpoint"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/command"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/engine"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/event"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/realm"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/replay"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/throne"
	"github.com/louisbranch/usurper.games/internal/services/game/storage"
)

// Service executes game commands against a single store.
//
// Commands for the same realm run under one lock, so a decision always sees
// the state produced by the previous commit. Queries bypass the lock and read
// projections directly.
type Service struct {
	store      storage.Store
	registries engine.Registries
	handler    engine.Handler
	emitter    *telemetry.Emitter
	feed       *Feed
	now        func() time.Time

	mu     sync.Mutex
	realms map[string]*sync.Mutex
}

// ServiceConfig carries the service dependencies. Store is required; the
// rest default to sensible zero behavior (no telemetry, no feed, wall
// clock).
type ServiceConfig struct {
	Store   storage.Store
	Emitter *telemetry.Emitter
	Feed    *Feed
	Now     func() time.Time
}

// NewService builds a service, registering every core domain and wiring the
// replay loader over the store's journal and snapshots.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	registries, err := engine.BuildRegistries()
	if err != nil {
		return nil, fmt.Errorf("build registries: %w", err)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	folder := &aggregate.Folder{Events: registries.Events}
	svc := &Service{
		store:      cfg.Store,
		registries: registries,
		emitter:    cfg.Emitter,
		feed:       cfg.Feed,
		now:        now,
		realms:     make(map[string]*sync.Mutex),
	}
	svc.handler = engine.Handler{
		Commands: registries.Commands,
		Events:   registries.Events,
		StateLoader: engine.ReplayStateLoader{
			Events:      cfg.Store,
			Checkpoints: checkpoint.NewNoop(),
			Snapshots:   snapshotSource{store: cfg.Store},
			Folder:      folder,
			StateFactory: func() any {
				return aggregate.State{}
			},
		},
		Decider:   engine.CoreDecider{},
		Folder:    folder,
		Committer: decisionCommitter{svc: svc},
		Now:       now,
	}
	return svc, nil
}

// decisionCommitter persists decided commands through the store's atomic
// commit: journal append, projections, snapshot, and treasury transfers in
// one transaction.
type decisionCommitter struct {
	svc *Service
}

func (c decisionCommitter) Commit(ctx context.Context, cmd command.Command, events []event.Event, state any) ([]event.Event, error) {
	agg, err := aggregate.AssertState[aggregate.State](state)
	if err != nil {
		return nil, err
	}
	transfers, err := planTransfers(cmd.RealmID, events)
	if err != nil {
		return nil, err
	}
	result, err := c.svc.store.CommitDecision(ctx, storage.CommitRequest{
		RealmID:   cmd.RealmID,
		Events:    events,
		State:     agg,
		Transfers: transfers,
	})
	if err != nil {
		return nil, err
	}
	return result.Events, nil
}

// snapshotSource adapts the store's snapshot reads to the loader's miss
// sentinel: a missing snapshot means "replay from scratch", not a failure.
type snapshotSource struct {
	store storage.SnapshotStore
}

func (s snapshotSource) GetState(ctx context.Context, realmID string) (any, int64, error) {
	state, seq, err := s.store.GetState(ctx, realmID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, 0, replay.ErrCheckpointNotFound
		}
		return nil, 0, err
	}
	return state, seq, nil
}

func (s snapshotSource) SaveState(ctx context.Context, realmID string, lastSeq int64, state any) error {
	return s.store.SaveState(ctx, realmID, lastSeq, state)
}

func (s *Service) realmLock(realmID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.realms[realmID]
	if !ok {
		lock = &sync.Mutex{}
		s.realms[realmID] = lock
	}
	return lock
}

// execute validates, decides, folds, and commits one command.
//
// A rejection surfaces as a coded error and leaves no trace in the journal.
// A treasury failure during commit rolls back the journal append and every
// projection write, then surfaces as the operation-specific transfer code.
func (s *Service) execute(ctx context.Context, cmd command.Command) (command.Decision, aggregate.State, error) {
	validated, err := s.registries.Commands.ValidateForDecision(cmd)
	if err != nil {
		return command.Decision{}, aggregate.State{}, err
	}
	cmd = validated

	lock := s.realmLock(cmd.RealmID)
	lock.Lock()
	defer lock.Unlock()

	result, err := s.handler.Execute(ctx, cmd)
	if err != nil {
		var transferErr *storage.TransferError
		if errors.As(err, &transferErr) {
			code := transferFailureCode(transferErr.Operation)
			s.emitTelemetry(ctx, cmd, telemetry.SeverityError, "commit.transfer_failed", map[string]any{
				"command":   string(cmd.Type),
				"operation": transferErr.Operation,
				"amount":    transferErr.Amount,
			})
			return command.Decision{}, aggregate.State{}, apperrors.Wrap(code,
				fmt.Sprintf("operation %s rolled back: %s transfer failed", cmd.Type, transferErr.Operation), err)
		}
		return command.Decision{}, aggregate.State{}, err
	}
	decision := result.Decision
	if len(decision.Rejections) > 0 {
		rej := decision.Rejections[0]
		s.emitTelemetry(ctx, cmd, telemetry.SeverityWarn, "command.rejected", map[string]any{
			"command": string(cmd.Type),
			"code":    rej.Code,
		})
		return decision, aggregate.State{}, rejectionError(rej)
	}
	state, err := aggregate.AssertState[aggregate.State](result.State)
	if err != nil {
		return command.Decision{}, aggregate.State{}, err
	}

	for _, evt := range decision.Events {
		s.emitTelemetry(ctx, cmd, telemetry.SeverityInfo, string(evt.Type), map[string]any{
			"seq": evt.Seq,
		})
		s.feed.Publish(Notification{
			Type:      string(evt.Type),
			RealmID:   evt.RealmID,
			Seq:       evt.Seq,
			Timestamp: evt.Timestamp,
			Payload:   json.RawMessage(evt.PayloadJSON),
		})
	}
	return decision, state, nil
}

func (s *Service) emitTelemetry(ctx context.Context, cmd command.Command, severity telemetry.Severity, name string, attrs map[string]any) {
	_ = s.emitter.Emit(ctx, storage.TelemetryEvent{
		EventName:    name,
		Severity:     string(severity),
		RealmID:      cmd.RealmID,
		ActorType:    string(cmd.ActorType),
		ActorID:      cmd.ActorID,
		RequestID:    cmd.RequestID,
		InvocationID: cmd.InvocationID,
		Attributes:   attrs,
	})
}

// rejectionError converts a domain rejection into a coded application error.
// Rejection codes are application error codes verbatim, so the mapping is a
// cast plus the rejection's caller-facing metadata.
func rejectionError(rej command.Rejection) error {
	return apperrors.WithMetadata(apperrors.Code(rej.Code), rej.Message, rej.Metadata)
}

// newCommand builds a participant command envelope with fresh request and
// invocation ids. Callers supply a request id for idempotent retries; an
// empty one gets generated.
func (s *Service) newCommand(realmID string, cmdType command.Type, actorID, requestID string, payload any) (command.Command, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return command.Command{}, fmt.Errorf("encode %s payload: %w", cmdType, err)
	}
	if requestID == "" {
		requestID, err = id.NewID()
		if err != nil {
			return command.Command{}, fmt.Errorf("generate request id: %w", err)
		}
	}
	invocationID, err := id.NewID()
	if err != nil {
		return command.Command{}, fmt.Errorf("generate invocation id: %w", err)
	}
	return command.Command{
		RealmID:      realmID,
		Type:         cmdType,
		ActorType:    command.ActorTypeParticipant,
		ActorID:      actorID,
		RequestID:    requestID,
		InvocationID: invocationID,
		PayloadJSON:  payloadJSON,
	}, nil
}

// CreateRealmParams names a realm founding request. RealmID is optional; a
// fresh id is minted when empty.
type CreateRealmParams struct {
	RealmID   string
	Name      string
	OwnerID   string
	Deposit   int64
	RequestID string
}

// CreateRealmResult reports the founded realm and its escrow account.
type CreateRealmResult struct {
	RealmID         string
	Name            string
	OwnerID         string
	BaseFee         int64
	EscrowAccountID string
}

// CreateRealm founds a realm: the owner's deposit moves into a fresh escrow
// account and becomes the base fee every round resets to.
func (s *Service) CreateRealm(ctx context.Context, params CreateRealmParams) (CreateRealmResult, error) {
	realmID := params.RealmID
	if realmID == "" {
		minted, err := id.NewID()
		if err != nil {
			return CreateRealmResult{}, fmt.Errorf("generate realm id: %w", err)
		}
		realmID = minted
	}
	cmd, err := s.newCommand(realmID, realm.CommandTypeCreate, params.OwnerID, params.RequestID, realm.CreatePayload{
		Name:    params.Name,
		Deposit: params.Deposit,
	})
	if err != nil {
		return CreateRealmResult{}, err
	}
	_, state, err := s.execute(ctx, cmd)
	if err != nil {
		return CreateRealmResult{}, err
	}
	return CreateRealmResult{
		RealmID:         realmID,
		Name:            state.Realm.Name,
		OwnerID:         state.Realm.OwnerID,
		BaseFee:         state.Realm.BaseFee,
		EscrowAccountID: storage.EscrowAccountID(realmID),
	}, nil
}

// ClaimThroneParams names a throne claim: the actor offers an amount that
// must strictly exceed the current required bid.
type ClaimThroneParams struct {
	RealmID   string
	ActorID   string
	Offered   int64
	RequestID string
}

// ClaimThroneResult reports a successful claim.
type ClaimThroneResult struct {
	Claimant string
	Offered  int64
	// Reward is the slice of the offer credited to the beneficiary's ledger.
	Reward      int64
	Beneficiary string
	// RoundEndMs is the new countdown expiry.
	RoundEndMs int64
	// RewardDeadlineMs is when the accrued reward forfeits if unclaimed.
	RewardDeadlineMs int64
	// RequiredBid is the bid the next claim must exceed.
	RequiredBid int64
	Pool        int64
}

// ClaimThrone seats the actor on the throne. The full offer moves into
// escrow and a tenth of it accrues to the displaced holder, or to the realm
// owner when the throne was unheld.
func (s *Service) ClaimThrone(ctx context.Context, params ClaimThroneParams) (ClaimThroneResult, error) {
	cmd, err := s.newCommand(params.RealmID, throne.CommandTypeClaim, params.ActorID, params.RequestID, throne.ClaimPayload{
		Offered: params.Offered,
	})
	if err != nil {
		return ClaimThroneResult{}, err
	}
	decision, state, err := s.execute(ctx, cmd)
	if err != nil {
		return ClaimThroneResult{}, err
	}
	var payload throne.ClaimedPayload
	if err := json.Unmarshal(decision.Events[0].PayloadJSON, &payload); err != nil {
		return ClaimThroneResult{}, fmt.Errorf("decode claimed payload: %w", err)
	}
	return ClaimThroneResult{
		Claimant:         payload.Claimant,
		Offered:          payload.Offered,
		Reward:           payload.Reward,
		Beneficiary:      payload.Beneficiary,
		RoundEndMs:       payload.RoundEnd,
		RewardDeadlineMs: payload.RewardDeadline,
		RequiredBid:      state.Throne.RequiredBid,
		Pool:             state.Throne.Pool,
	}, nil
}

// ClaimRewardParams names a reward collection attempt by the accrued
// recipient.
type ClaimRewardParams struct {
	RealmID   string
	ActorID   string
	RequestID string
}

// ClaimRewardResult reports either a payout or a forfeit.
type ClaimRewardResult struct {
	Claimant string
	Amount   int64
	// Forfeited is true when the claim arrived past the deadline: the amount
	// moved to RedirectedTo's ledger instead of paying out.
	Forfeited     bool
	RedirectedTo  string
	NewDeadlineMs int64
}

// ClaimReward pays out the actor's outstanding reward, or forfeits it to the
// realm owner when the deadline has lapsed.
func (s *Service) ClaimReward(ctx context.Context, params ClaimRewardParams) (ClaimRewardResult, error) {
	cmd, err := s.newCommand(params.RealmID, throne.CommandTypeRewardClaim, params.ActorID, params.RequestID, throne.RewardClaimPayload{})
	if err != nil {
		return ClaimRewardResult{}, err
	}
	decision, _, err := s.execute(ctx, cmd)
	if err != nil {
		return ClaimRewardResult{}, err
	}
	evt := decision.Events[0]
	if evt.Type == throne.EventTypeRewardExpired {
		var payload throne.RewardExpiredPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return ClaimRewardResult{}, fmt.Errorf("decode reward expired payload: %w", err)
		}
		return ClaimRewardResult{
			Claimant:      payload.Claimant,
			Amount:        payload.Amount,
			Forfeited:     true,
			RedirectedTo:  payload.RedirectedTo,
			NewDeadlineMs: payload.NewDeadline,
		}, nil
	}
	var payload throne.RewardPaidPayload
	if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
		return ClaimRewardResult{}, fmt.Errorf("decode reward paid payload: %w", err)
	}
	return ClaimRewardResult{
		Claimant: payload.Claimant,
		Amount:   payload.Amount,
	}, nil
}

// ClaimPrizeParams names a settlement request by the final holder of a
// concluded round.
type ClaimPrizeParams struct {
	RealmID   string
	ActorID   string
	RequestID string
}

// ClaimPrizeResult reports the settled winnings.
type ClaimPrizeResult struct {
	Winner   string
	Winnings int64
}

// ClaimPrize settles a concluded round: the pool minus all outstanding
// reward obligations pays out to the final holder. The next round begins
// when the holder or the owner starts it.
func (s *Service) ClaimPrize(ctx context.Context, params ClaimPrizeParams) (ClaimPrizeResult, error) {
	cmd, err := s.newCommand(params.RealmID, throne.CommandTypePrizeClaim, params.ActorID, params.RequestID, throne.PrizeClaimPayload{})
	if err != nil {
		return ClaimPrizeResult{}, err
	}
	decision, _, err := s.execute(ctx, cmd)
	if err != nil {
		return ClaimPrizeResult{}, err
	}
	var payload throne.PrizeClaimedPayload
	if err := json.Unmarshal(decision.Events[0].PayloadJSON, &payload); err != nil {
		return ClaimPrizeResult{}, fmt.Errorf("decode prize claimed payload: %w", err)
	}
	return ClaimPrizeResult{
		Winner:   payload.Winner,
		Winnings: payload.Winnings,
	}, nil
}

// StartRoundParams names a request to rearm the round once the previous
// countdown has lapsed.
type StartRoundParams struct {
	RealmID   string
	ActorID   string
	RequestID string
}

// StartRoundResult reports the reset round floor.
type StartRoundResult struct {
	Starter string
	BaseFee int64
}

// StartRound unseats the holder and resets the required bid to the base
// fee. Only the current holder or the realm owner may start a round, and
// only once the previous countdown has lapsed.
func (s *Service) StartRound(ctx context.Context, params StartRoundParams) (StartRoundResult, error) {
	cmd, err := s.newCommand(params.RealmID, throne.CommandTypeRoundStart, params.ActorID, params.RequestID, throne.RoundStartPayload{})
	if err != nil {
		return StartRoundResult{}, err
	}
	decision, _, err := s.execute(ctx, cmd)
	if err != nil {
		return StartRoundResult{}, err
	}
	var payload throne.RoundStartedPayload
	if err := json.Unmarshal(decision.Events[0].PayloadJSON, &payload); err != nil {
		return StartRoundResult{}, fmt.Errorf("decode round started payload: %w", err)
	}
	return StartRoundResult{
		Starter: payload.Starter,
		BaseFee: payload.BaseFee,
	}, nil
}
