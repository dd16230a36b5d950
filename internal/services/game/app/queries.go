package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/louisbranch/usurper.games/internal/platform/errors"
	"github.com/louisbranch/usurper.games/internal/services/game/core/filter"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/event"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/throne"
	"github.com/louisbranch/usurper.games/internal/services/game/storage"
	"github.com/louisbranch/usurper.games/internal/services/game/storage/cursor"
)

// RealmStatus is the public status view of one realm, derived from the
// projection row and the clock.
type RealmStatus struct {
	RealmID      string
	Name         string
	OwnerID      string
	BaseFee      int64
	HolderID     string
	RequiredBid  int64
	RoundEndMs   int64
	RemainingMs  int64
	Phase        throne.Phase
	Pool         int64
	OwedTotal    int64
	GamesPlayed  int64
	TotalAwarded int64
}

// Status returns the realm's current standing: holder, required bid,
// countdown remainder, pool, and lifetime counters.
func (s *Service) Status(ctx context.Context, realmID string) (RealmStatus, error) {
	rec, err := s.store.GetRealm(ctx, realmID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return RealmStatus{}, apperrors.Wrap(apperrors.CodeRealmNotFound,
				fmt.Sprintf("realm %s has not been created", realmID), err)
		}
		return RealmStatus{}, fmt.Errorf("get realm: %w", err)
	}
	nowMs := s.now().UTC().UnixMilli()
	clockState := throne.State{HolderID: rec.HolderID, RoundEnd: rec.RoundEndMs}
	return RealmStatus{
		RealmID:      rec.RealmID,
		Name:         rec.Name,
		OwnerID:      rec.OwnerID,
		BaseFee:      rec.BaseFee,
		HolderID:     rec.HolderID,
		RequiredBid:  rec.RequiredBid,
		RoundEndMs:   rec.RoundEndMs,
		RemainingMs:  throne.RemainingMillis(clockState, nowMs),
		Phase:        throne.PhaseAt(clockState, nowMs),
		Pool:         rec.Pool,
		OwedTotal:    rec.OwedTotal,
		GamesPlayed:  rec.GamesPlayed,
		TotalAwarded: rec.TotalAwarded,
	}, nil
}

// HolderView names the current title holder and the live countdown.
type HolderView struct {
	HolderID    string
	RequiredBid int64
	RoundEndMs  int64
	RemainingMs int64
	Phase       throne.Phase
}

// Holder returns the current holder and countdown for a realm.
func (s *Service) Holder(ctx context.Context, realmID string) (HolderView, error) {
	status, err := s.Status(ctx, realmID)
	if err != nil {
		return HolderView{}, err
	}
	return HolderView{
		HolderID:    status.HolderID,
		RequiredBid: status.RequiredBid,
		RoundEndMs:  status.RoundEndMs,
		RemainingMs: status.RemainingMs,
		Phase:       status.Phase,
	}, nil
}

// Recipient is one ledger row in the recipients listing.
type Recipient struct {
	RecipientID string
	Amount      int64
	DeadlineMs  int64
	Tracked     bool
	Position    int64
}

// ListRecipientsParams describes a recipients page request. Filter accepts
// AIP-160 expressions over amount, deadline, tracked, and recipient_id.
type ListRecipientsParams struct {
	RealmID    string
	Filter     string
	PageSize   int
	PageToken  string
	Descending bool
}

// RecipientsPage is one page of ledger records in first-accrual order.
type RecipientsPage struct {
	Recipients    []Recipient
	NextPageToken string
	PrevPageToken string
	TotalCount    int
}

// ListRecipients enumerates the realm's reward ledger.
func (s *Service) ListRecipients(ctx context.Context, params ListRecipientsParams) (RecipientsPage, error) {
	cond, err := filter.ParseRewardFilter(params.Filter)
	if err != nil {
		return RecipientsPage{}, apperrors.Wrap(apperrors.CodeFilterInvalid, "invalid recipients filter", err)
	}
	order := orderExpr(params.Descending)
	req := storage.ListRewardsPageRequest{
		RealmID:      params.RealmID,
		PageSize:     params.PageSize,
		Descending:   params.Descending,
		FilterClause: cond.Clause,
		FilterParams: cond.Params,
	}
	if params.PageToken != "" {
		cur, err := decodePageToken(params.PageToken, params.Filter, order)
		if err != nil {
			return RecipientsPage{}, err
		}
		req.CursorPos = cur.Seq
		req.CursorDir = string(cur.Dir)
		req.CursorReverse = cur.Reverse
	}
	result, err := s.store.ListRewardsPage(ctx, req)
	if err != nil {
		return RecipientsPage{}, fmt.Errorf("list rewards: %w", err)
	}
	page := RecipientsPage{TotalCount: result.TotalCount}
	for _, rec := range result.Rewards {
		page.Recipients = append(page.Recipients, Recipient{
			RecipientID: rec.RecipientID,
			Amount:      rec.Amount,
			DeadlineMs:  rec.DeadlineMs,
			Tracked:     rec.Tracked,
			Position:    rec.Position,
		})
	}
	if len(result.Rewards) > 0 {
		if result.HasNextPage {
			last := result.Rewards[len(result.Rewards)-1]
			token, err := cursor.Encode(cursor.NewNextPageCursor(last.Position, params.Descending, params.Filter, order))
			if err != nil {
				return RecipientsPage{}, err
			}
			page.NextPageToken = token
		}
		if result.HasPrevPage {
			first := result.Rewards[0]
			token, err := cursor.Encode(cursor.NewPrevPageCursor(first.Position, params.Descending, params.Filter, order))
			if err != nil {
				return RecipientsPage{}, err
			}
			page.PrevPageToken = token
		}
	}
	return page, nil
}

// CountRecipients returns the size of the realm's tracking set: every
// participant who has ever accrued a reward, paid out or not.
func (s *Service) CountRecipients(ctx context.Context, realmID string) (int64, error) {
	return s.store.CountRecipients(ctx, realmID)
}

// EventView is one journal entry in the events listing.
type EventView struct {
	Seq        int64
	Type       string
	Timestamp  time.Time
	ActorType  string
	ActorID    string
	EntityType string
	EntityID   string
	RequestID  string
	Payload    json.RawMessage
	Hash       string
	ChainHash  string
}

// ListEventsParams describes a journal page request. Filter accepts AIP-160
// expressions over type, actor_id, actor_type, and timestamp.
type ListEventsParams struct {
	RealmID    string
	Filter     string
	PageSize   int
	PageToken  string
	Descending bool
}

// EventsPage is one page of journal entries.
type EventsPage struct {
	Events        []EventView
	NextPageToken string
	PrevPageToken string
	TotalCount    int
}

// ListEvents enumerates the realm's journal for introspection tooling.
func (s *Service) ListEvents(ctx context.Context, params ListEventsParams) (EventsPage, error) {
	cond, err := filter.ParseEventFilter(params.Filter)
	if err != nil {
		return EventsPage{}, apperrors.Wrap(apperrors.CodeFilterInvalid, "invalid events filter", err)
	}
	order := orderExpr(params.Descending)
	req := storage.ListEventsPageRequest{
		RealmID:      params.RealmID,
		PageSize:     params.PageSize,
		Descending:   params.Descending,
		FilterClause: cond.Clause,
		FilterParams: cond.Params,
	}
	if params.PageToken != "" {
		cur, err := decodePageToken(params.PageToken, params.Filter, order)
		if err != nil {
			return EventsPage{}, err
		}
		req.CursorSeq = cur.Seq
		req.CursorDir = string(cur.Dir)
		req.CursorReverse = cur.Reverse
	}
	result, err := s.store.ListEventsPage(ctx, req)
	if err != nil {
		return EventsPage{}, fmt.Errorf("list events: %w", err)
	}
	page := EventsPage{TotalCount: result.TotalCount}
	for _, evt := range result.Events {
		page.Events = append(page.Events, eventView(evt))
	}
	if len(result.Events) > 0 {
		if result.HasNextPage {
			last := result.Events[len(result.Events)-1]
			token, err := cursor.Encode(cursor.NewNextPageCursor(last.Seq, params.Descending, params.Filter, order))
			if err != nil {
				return EventsPage{}, err
			}
			page.NextPageToken = token
		}
		if result.HasPrevPage {
			first := result.Events[0]
			token, err := cursor.Encode(cursor.NewPrevPageCursor(first.Seq, params.Descending, params.Filter, order))
			if err != nil {
				return EventsPage{}, err
			}
			page.PrevPageToken = token
		}
	}
	return page, nil
}

func eventView(evt event.Event) EventView {
	return EventView{
		Seq:        evt.Seq,
		Type:       string(evt.Type),
		Timestamp:  evt.Timestamp,
		ActorType:  string(evt.ActorType),
		ActorID:    evt.ActorID,
		EntityType: evt.EntityType,
		EntityID:   evt.EntityID,
		RequestID:  evt.RequestID,
		Payload:    json.RawMessage(evt.PayloadJSON),
		Hash:       evt.Hash,
		ChainHash:  evt.ChainHash,
	}
}

// VerifyIntegrity walks the realm's journal chain recomputing hashes and
// signatures.
func (s *Service) VerifyIntegrity(ctx context.Context, realmID string) (storage.IntegrityReport, error) {
	return s.store.VerifyEventIntegrity(ctx, realmID)
}

// OpenAccount creates a participant treasury account with a zero balance.
func (s *Service) OpenAccount(ctx context.Context, accountID string) (storage.AccountRecord, error) {
	return s.store.OpenAccount(ctx, accountID)
}

// FundAccount credits a participant account with external funds.
func (s *Service) FundAccount(ctx context.Context, accountID string, amount int64) (storage.AccountRecord, error) {
	return s.store.FundAccount(ctx, accountID, amount)
}

// Balance returns a treasury account, escrow accounts included.
func (s *Service) Balance(ctx context.Context, accountID string) (storage.AccountRecord, error) {
	return s.store.GetAccount(ctx, accountID)
}

func orderExpr(descending bool) string {
	if descending {
		return "desc"
	}
	return "asc"
}

func decodePageToken(token, filterExpr, order string) (cursor.Cursor, error) {
	cur, err := cursor.Decode(token)
	if err != nil {
		return cursor.Cursor{}, apperrors.Wrap(apperrors.CodeFilterInvalid, "invalid page token", err)
	}
	if err := cursor.ValidateFilterHash(cur, filterExpr); err != nil {
		return cursor.Cursor{}, apperrors.Wrap(apperrors.CodeFilterInvalid, "stale page token", err)
	}
	if err := cursor.ValidateOrderHash(cur, order); err != nil {
		return cursor.Cursor{}, apperrors.Wrap(apperrors.CodeFilterInvalid, "stale page token", err)
	}
	return cur, nil
}
