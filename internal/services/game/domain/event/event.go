package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/louisbranch/usurper.games/internal/services/game/domain/core/encoding"
)

// Type identifies an event type, e.g. "throne.claimed".
type Type string

// ActorType describes what kind of actor caused an event.
type ActorType string

const (
	// ActorTypeSystem marks events caused by the platform itself.
	ActorTypeSystem ActorType = "system"
	// ActorTypeParticipant marks events caused by an external caller.
	ActorTypeParticipant ActorType = "participant"
)

// Event is the persisted envelope for a single journaled fact.
//
// Seq, Hash, PrevHash, ChainHash, and the signature fields are assigned by
// storage at append time; deciders emit events with those fields zeroed.
// PrevHash carries the chain hash of the preceding event in the same realm.
type Event struct {
	RealmID        string
	Seq            int64
	Hash           string
	PrevHash       string
	ChainHash      string
	SignatureKeyID string
	Signature      string
	Timestamp      time.Time
	Type           Type
	RequestID      string
	InvocationID   string
	ActorType      ActorType
	ActorID        string
	EntityType     string
	EntityID       string
	CorrelationID  string
	CausationID    string
	PayloadJSON    json.RawMessage
}

// hashEnvelope is the canonical content-hash input for an event.
//
// Field set and names are part of the journal integrity contract; changing
// them invalidates every previously stored hash.
type hashEnvelope struct {
	RealmID       string `json:"realm_id"`
	Type          string `json:"type"`
	Timestamp     string `json:"timestamp"`
	ActorType     string `json:"actor_type"`
	ActorID       string `json:"actor_id"`
	RequestID     string `json:"request_id"`
	InvocationID  string `json:"invocation_id"`
	EntityType    string `json:"entity_type"`
	EntityID      string `json:"entity_id"`
	CorrelationID string `json:"correlation_id"`
	CausationID   string `json:"causation_id"`
	Payload       any    `json:"payload"`
}

// chainEnvelope is the canonical chain-hash input linking an event to its
// predecessor.
type chainEnvelope struct {
	RealmID   string `json:"realm_id"`
	Seq       int64  `json:"seq"`
	EventHash string `json:"event_hash"`
	PrevHash  string `json:"prev_hash"`
}

// EventHash computes the content hash identifying an event independent of its
// position in the journal.
func EventHash(evt Event) (string, error) {
	var payload any
	if len(evt.PayloadJSON) > 0 {
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return "", fmt.Errorf("decode payload: %w", err)
		}
	}

	return encoding.ContentHash(hashEnvelope{
		RealmID:       evt.RealmID,
		Type:          string(evt.Type),
		Timestamp:     evt.Timestamp.UTC().Format(time.RFC3339Nano),
		ActorType:     string(evt.ActorType),
		ActorID:       evt.ActorID,
		RequestID:     evt.RequestID,
		InvocationID:  evt.InvocationID,
		EntityType:    evt.EntityType,
		EntityID:      evt.EntityID,
		CorrelationID: evt.CorrelationID,
		CausationID:   evt.CausationID,
		Payload:       payload,
	})
}

// ChainHash computes the hash linking an event to the preceding chain hash.
// The event's own content hash must already be assigned.
func ChainHash(evt Event, prevHash string) (string, error) {
	if evt.Hash == "" {
		return "", errors.New("event hash is required before chaining")
	}
	return encoding.ContentHash(chainEnvelope{
		RealmID:   evt.RealmID,
		Seq:       evt.Seq,
		EventHash: evt.Hash,
		PrevHash:  prevHash,
	})
}
