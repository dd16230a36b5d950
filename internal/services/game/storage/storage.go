package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/louisbranch/usurper.games/internal/platform/errors"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/aggregate"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/event"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/realm"
)

// ErrNotFound indicates a requested persistence record is missing.
// Callers use this to differentiate between legitimate "no such entity" states
// and transport or data corruption failures.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// ErrAccountNotFound indicates a treasury operation named an account that was
// never opened.
var ErrAccountNotFound = apperrors.New(apperrors.CodeAccountNotFound, "treasury account not found")

// ErrAccountExists indicates an account open collided with an existing id.
var ErrAccountExists = apperrors.New(apperrors.CodeAccountAlreadyExists, "treasury account already exists")

// ErrInsufficientFunds indicates a debit would take an account balance below
// zero. The escrow floor backs the solvency invariant; participant accounts
// share the same rule.
var ErrInsufficientFunds = apperrors.New(apperrors.CodeFundsUnavailable, "account balance is insufficient")

// ErrUnattributedTransfer indicates a direct balance mutation targeted an
// escrow account. Escrow balances only move through planned transfers carrying
// an operation tag.
var ErrUnattributedTransfer = apperrors.New(apperrors.CodeUnattributedTransfer, "escrow accounts accept only attributed transfers")

const escrowAccountPrefix = "escrow:"

// EscrowAccountID returns the treasury account id holding a realm's pool.
func EscrowAccountID(realmID string) string {
	return escrowAccountPrefix + realmID
}

// IsEscrowAccountID reports whether an account id belongs to a realm escrow.
func IsEscrowAccountID(accountID string) bool {
	return strings.HasPrefix(accountID, escrowAccountPrefix)
}

// RealmRecord is the realm projection row read by status and holder queries.
// It merges realm identity with the folded throne state so reads never replay.
type RealmRecord struct {
	RealmID      string
	Name         string
	OwnerID      string
	BaseFee      int64
	Status       realm.Status
	HolderID     string
	RequiredBid  int64
	RoundEndMs   int64
	Pool         int64
	OwedTotal    int64
	GamesPlayed  int64
	TotalAwarded int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RewardRecord is one recipient's ledger projection row. Position preserves
// first-accrual enumeration order.
type RewardRecord struct {
	RealmID     string
	RecipientID string
	Amount      int64
	DeadlineMs  int64
	Tracked     bool
	Position    int64
	UpdatedAt   time.Time
}

// AccountKind distinguishes participant wallets from realm escrow accounts.
type AccountKind string

const (
	// AccountKindParticipant is an externally funded caller wallet.
	AccountKindParticipant AccountKind = "participant"
	// AccountKindEscrow holds one realm's pool; balances only move through
	// attributed transfers.
	AccountKindEscrow AccountKind = "escrow"
)

// AccountRecord is a treasury account row.
type AccountRecord struct {
	ID        string
	Kind      AccountKind
	Balance   int64
	CreatedAt time.Time
}

// TransferRecord is one attributed treasury movement. Every escrow balance
// change is traceable to the operation and event sequence that caused it.
type TransferRecord struct {
	ID        string
	RealmID   string
	FromID    string
	ToID      string
	Amount    int64
	Operation string
	EventSeq  int64
	CreatedAt time.Time
}

// TelemetryEvent captures operational observations emitted during command execution.
type TelemetryEvent struct {
	Timestamp      time.Time
	EventName      string
	Severity       string
	RealmID        string
	ActorType      string
	ActorID        string
	RequestID      string
	InvocationID   string
	TraceID        string
	SpanID         string
	Attributes     map[string]any
	AttributesJSON []byte
}

// EventStore owns the event journal boundary that drives replay and command
// rehydration; this is the source of truth for state reconstruction.
type EventStore interface {
	// AppendEvent atomically appends an event and returns it with sequence,
	// hashes, and signature set.
	AppendEvent(ctx context.Context, evt event.Event) (event.Event, error)
	// BatchAppendEvents atomically appends multiple events for one realm in a
	// single transaction with contiguous sequence numbers.
	BatchAppendEvents(ctx context.Context, events []event.Event) ([]event.Event, error)
	// ListEvents returns events ordered by sequence ascending.
	ListEvents(ctx context.Context, realmID string, afterSeq int64, limit int) ([]event.Event, error)
	// GetLatestEventSeq returns the latest event sequence number for a realm.
	// Returns 0 if no events exist.
	GetLatestEventSeq(ctx context.Context, realmID string) (int64, error)
	// ListEventsPage returns a paginated, filtered, and sorted list of events.
	ListEventsPage(ctx context.Context, req ListEventsPageRequest) (ListEventsPageResult, error)
	// VerifyEventIntegrity walks one realm's chain recomputing hashes and
	// signatures. Corruption is reported, not returned as an error.
	VerifyEventIntegrity(ctx context.Context, realmID string) (IntegrityReport, error)
}

// ListEventsPageRequest describes request filters for operator and tooling
// event history views.
type ListEventsPageRequest struct {
	// RealmID scopes the query to a specific realm (required).
	RealmID string
	// PageSize is the maximum number of events to return (default: 50, max: 200).
	PageSize int
	// CursorSeq is the sequence number to paginate from (0 for first page).
	CursorSeq int64
	// CursorDir is the pagination direction ("fwd" = seq > cursor, "bwd" = seq < cursor).
	CursorDir string
	// CursorReverse indicates whether to temporarily reverse the sort order.
	// This is used for "previous page" navigation to fetch items nearest to the cursor.
	CursorReverse bool
	// Descending orders results by seq desc (newest first) when true.
	Descending bool
	// FilterClause is an optional SQL WHERE clause fragment.
	FilterClause string
	// FilterParams are the positional parameters for the filter clause.
	FilterParams []any
}

// ListEventsPageResult contains paginated event history for introspection tooling.
type ListEventsPageResult struct {
	Events      []event.Event
	HasNextPage bool
	HasPrevPage bool
	// TotalCount is the total number of events matching the filter.
	TotalCount int
}

// IntegrityReport summarizes a journal chain verification walk.
type IntegrityReport struct {
	RealmID       string
	EventsChecked int64
	Valid         bool
	// FailureSeq is the first sequence where verification failed, 0 when valid.
	FailureSeq    int64
	FailureReason string
}

// RealmStore reads the realm projection. Writes happen inside CommitDecision
// so reads only ever observe committed operation boundaries.
type RealmStore interface {
	GetRealm(ctx context.Context, realmID string) (RealmRecord, error)
}

// RewardStore reads the recipient ledger projection.
type RewardStore interface {
	GetReward(ctx context.Context, realmID, recipientID string) (RewardRecord, error)
	// ListRewardsPage returns ledger records in first-accrual order.
	ListRewardsPage(ctx context.Context, req ListRewardsPageRequest) (ListRewardsPageResult, error)
	// CountRecipients returns the size of the tracking set.
	CountRecipients(ctx context.Context, realmID string) (int64, error)
}

// ListRewardsPageRequest describes filters for recipient ledger enumeration.
type ListRewardsPageRequest struct {
	RealmID string
	// PageSize is the maximum number of records to return (default: 50, max: 200).
	PageSize int
	// CursorPos is the first-accrual position to paginate from (0 for first page).
	CursorPos int64
	// CursorDir is the pagination direction ("fwd" = position > cursor, "bwd" = position < cursor).
	CursorDir string
	// CursorReverse temporarily reverses the sort order for previous-page fetches.
	CursorReverse bool
	// Descending orders results by position desc when true.
	Descending bool
	// FilterClause is an optional SQL WHERE clause fragment.
	FilterClause string
	// FilterParams are the positional parameters for the filter clause.
	FilterParams []any
}

// ListRewardsPageResult contains one page of recipient ledger records.
type ListRewardsPageResult struct {
	Rewards     []RewardRecord
	HasNextPage bool
	HasPrevPage bool
	TotalCount  int
}

// TreasuryStore owns participant wallet lifecycle and the transfer audit
// trail. Balance movement between accounts happens only inside
// CommitDecision.
type TreasuryStore interface {
	// OpenAccount creates a participant account with a zero balance.
	OpenAccount(ctx context.Context, accountID string) (AccountRecord, error)
	// FundAccount credits a participant account. Escrow accounts are rejected
	// with ErrUnattributedTransfer.
	FundAccount(ctx context.Context, accountID string, amount int64) (AccountRecord, error)
	GetAccount(ctx context.Context, accountID string) (AccountRecord, error)
	// ListTransfers returns a realm's attributed movements in commit order.
	ListTransfers(ctx context.Context, realmID string, limit int) ([]TransferRecord, error)
}

// SnapshotStore persists the latest folded aggregate state per realm as a
// replay accelerator. Snapshots are never the source of authority.
type SnapshotStore interface {
	SaveState(ctx context.Context, realmID string, seq int64, state any) error
	// GetState returns the stored aggregate state and the sequence it folds
	// through. Returns ErrNotFound when no snapshot exists.
	GetState(ctx context.Context, realmID string) (any, int64, error)
}

// TelemetryStore persists operational telemetry records for audits and incident analysis.
type TelemetryStore interface {
	AppendTelemetryEvent(ctx context.Context, evt TelemetryEvent) error
}

// PlannedTransfer is one treasury movement an operation requires. The store
// executes planned transfers inside the commit transaction so fund movement
// and bookkeeping cannot diverge.
type PlannedTransfer struct {
	FromID    string
	ToID      string
	Amount    int64
	Operation string
}

// CommitRequest carries everything one decided operation persists.
type CommitRequest struct {
	RealmID string
	// Events are the decision's events, unsequenced; the store assigns
	// sequence numbers, hashes, chain links, and signatures.
	Events []event.Event
	// State is the aggregate state after folding Events; projections and the
	// snapshot are derived from it.
	State aggregate.State
	// Transfers are executed in order with inline balance checks.
	Transfers []PlannedTransfer
}

// CommitResult reports the journaled form of a committed operation.
type CommitResult struct {
	// Events carry assigned sequences, hashes, and signatures.
	Events  []event.Event
	LastSeq int64
}

// Committer applies one decided operation atomically: journal append,
// projection update, treasury movement, and snapshot save commit or roll back
// together.
type Committer interface {
	CommitDecision(ctx context.Context, req CommitRequest) (CommitResult, error)
}

// TransferError reports which planned transfer could not be executed so the
// caller can map the failure to its operation-specific code.
type TransferError struct {
	Operation string
	FromID    string
	ToID      string
	Amount    int64
	Err       error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer %s from %s to %s amount %d: %v",
		e.Operation, e.FromID, e.ToID, e.Amount, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// Store is a composite interface for all persistence concerns used across
// event sourcing, projection reads, treasury movement, and queries.
type Store interface {
	EventStore
	RealmStore
	RewardStore
	TreasuryStore
	SnapshotStore
	TelemetryStore
	Committer
	Close() error
}
