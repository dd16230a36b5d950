package throne

import "time"

// Game tuning constants. Amounts are base units, windows are durations
// applied to the decision clock.
const (
	// RewardPct is the percentage of a winning offer credited to the
	// displaced holder. Integer division truncates toward zero.
	RewardPct = 10
	// RewardWindow is how long a displaced holder has to collect a reward
	// before it forfeits to the realm owner.
	RewardWindow = 48 * time.Hour
	// RoundDuration is the countdown restarted by every claim after the
	// first.
	RoundDuration = 2 * time.Hour
	// InitialWindow is the longer grace countdown armed by the first claim
	// of a round.
	InitialWindow = 24 * time.Hour
)

// Reward is one recipient's outstanding ledger record.
type Reward struct {
	// Amount currently owed, in base units. Zero after a payout or a
	// forfeit; the record itself is never deleted.
	Amount int64
	// Deadline is the unix-millisecond claim deadline. It is overwritten on
	// every accrual, never written alone.
	Deadline int64
	// Tracked stays true once the recipient has ever accrued a reward, so a
	// paid-out recipient remains distinguishable from one never owed.
	Tracked bool
}

// State captures the replayed throne machine for command routing.
//
// The empty holder id is the "none" sentinel: it never equals an opaque
// caller id, which keeps self-claim and settlement checks closed in a fresh
// round.
type State struct {
	// HolderID is the current title holder, "" when the throne is unheld.
	HolderID string
	// RequiredBid is the smallest value a claim must strictly exceed. It
	// only rises within a round and resets to BaseFee on round start.
	RequiredBid int64
	// RoundEnd is the unix-millisecond countdown expiry, 0 before the first
	// claim of a round.
	RoundEnd int64
	// Pool mirrors the realm escrow balance in base units.
	Pool int64
	// OwedTotal is the running sum of outstanding reward amounts. Settlement
	// subtracts it from the pool without scanning the ledger.
	OwedTotal int64
	// Rewards holds the per-recipient ledger records.
	Rewards map[string]Reward
	// Recipients lists ledger recipients in first-accrual order, free of
	// duplicates.
	Recipients []string
	// GamesPlayed counts settlements. Informational only.
	GamesPlayed int64
	// TotalAwarded sums settlement winnings. Informational only.
	TotalAwarded int64
	// OwnerID and BaseFee are folded copies from realm creation: the
	// beneficiary fallback and the reset floor sit on the hot path.
	OwnerID string
	BaseFee int64
}

// Phase identifies where a round sits relative to the decision clock.
type Phase string

const (
	// PhaseUninitialized means no claim has started the round yet.
	PhaseUninitialized Phase = "uninitialized"
	// PhaseActive means the countdown is running and claims are open.
	PhaseActive Phase = "active"
	// PhaseConcluded means the countdown has lapsed; claims are closed and
	// settlement or reset may proceed.
	PhaseConcluded Phase = "concluded"
)

// PhaseAt returns the round phase at the given unix-millisecond instant.
func PhaseAt(state State, nowMs int64) Phase {
	switch {
	case state.RoundEnd == 0:
		return PhaseUninitialized
	case nowMs < state.RoundEnd:
		return PhaseActive
	default:
		return PhaseConcluded
	}
}

// RemainingMillis returns the countdown remainder at the given instant,
// clamped at zero. A round that has not started reports zero.
func RemainingMillis(state State, nowMs int64) int64 {
	if state.RoundEnd <= 0 {
		return 0
	}
	remaining := state.RoundEnd - nowMs
	if remaining < 0 {
		return 0
	}
	return remaining
}
