package realm

import "time"

// Status identifies the realm lifecycle label.
type Status string

const (
	StatusUnspecified Status = ""
	StatusActive      Status = "active"
)

// State captures the replayed realm identity for command routing.
//
// All fields are written once by the creation fold and never change: the
// deposit recorded here is the reset floor every round.start restores.
type State struct {
	// Status is StatusActive once a creation event has been folded.
	Status Status
	// Name is a human-facing label for the realm.
	Name string
	// OwnerID is the founding participant. The owner is the reward
	// beneficiary whenever the throne is unheld and the fallback redirect
	// target for forfeited rewards.
	OwnerID string
	// BaseFee is the founding deposit in base units; the required bid never
	// drops below it.
	BaseFee int64
	// CreatedAt is the creation event timestamp.
	CreatedAt time.Time
}
