package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/louisbranch/usurper.games/internal/services/game/domain/core/encoding"
)

// Intent declares how a stored event participates in state reconstruction.
type Intent string

const (
	// IntentProjectionAndReplay events rebuild state and feed projections.
	IntentProjectionAndReplay Intent = "projection_and_replay"
	// IntentReplayOnly events rebuild state but are hidden from projections.
	IntentReplayOnly Intent = "replay_only"
	// IntentAuditOnly events are journaled evidence and never fold into state.
	IntentAuditOnly Intent = "audit_only"
)

// AddressingPolicy declares whether an event type must target an entity.
type AddressingPolicy string

const (
	// AddressingPolicyNone leaves entity addressing optional.
	AddressingPolicyNone AddressingPolicy = ""
	// AddressingPolicyEntityTarget requires EntityType and EntityID.
	AddressingPolicyEntityTarget AddressingPolicy = "entity_target"
)

// Validation errors returned by ValidateForAppend.
var (
	ErrRealmIDRequired    = errors.New("event realm id is required")
	ErrTypeRequired       = errors.New("event type is required")
	ErrTypeUnknown        = errors.New("event type is not registered")
	ErrTimestampRequired  = errors.New("event timestamp is required")
	ErrActorTypeInvalid   = errors.New("event actor type is invalid")
	ErrActorIDRequired    = errors.New("event actor id is required")
	ErrEntityTypeRequired = errors.New("event entity type is required")
	ErrEntityIDRequired   = errors.New("event entity id is required")
	ErrPayloadInvalid     = errors.New("event payload is not valid JSON")
)

// Definition describes a registered event type.
type Definition struct {
	Type            Type
	Addressing      AddressingPolicy
	Intent          Intent
	ValidatePayload func(json.RawMessage) error
}

// Registry holds the set of event types the journal accepts.
type Registry struct {
	mu          sync.RWMutex
	definitions map[Type]Definition
}

// NewRegistry creates an empty event registry.
func NewRegistry() *Registry {
	return &Registry{definitions: make(map[Type]Definition)}
}

// Register adds an event type definition. Intent defaults to
// projection-and-replay when unset.
func (r *Registry) Register(def Definition) error {
	if strings.TrimSpace(string(def.Type)) == "" {
		return ErrTypeRequired
	}
	if def.Intent == "" {
		def.Intent = IntentProjectionAndReplay
	}
	switch def.Intent {
	case IntentProjectionAndReplay, IntentReplayOnly, IntentAuditOnly:
	default:
		return fmt.Errorf("event type %s: intent %q is invalid", def.Type, def.Intent)
	}
	switch def.Addressing {
	case AddressingPolicyNone, AddressingPolicyEntityTarget:
	default:
		return fmt.Errorf("event type %s: addressing policy %q is invalid", def.Type, def.Addressing)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.definitions[def.Type]; exists {
		return fmt.Errorf("event type %s is already registered", def.Type)
	}
	r.definitions[def.Type] = def
	return nil
}

// Definition returns the registered definition for an event type.
func (r *Registry) Definition(t Type) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.definitions[t]
	return def, ok
}

// ListDefinitions returns all registered definitions sorted by type.
func (r *Registry) ListDefinitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	definitions := make([]Definition, 0, len(r.definitions))
	for _, def := range r.definitions {
		definitions = append(definitions, def)
	}
	sort.Slice(definitions, func(i, j int) bool {
		return definitions[i].Type < definitions[j].Type
	})
	return definitions
}

// MissingPayloadValidators returns the non-audit event types registered
// without a payload validator, sorted by type.
func (r *Registry) MissingPayloadValidators() []Type {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var missing []Type
	for t, def := range r.definitions {
		if def.Intent == IntentAuditOnly {
			continue
		}
		if def.ValidatePayload == nil {
			missing = append(missing, t)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return missing
}

// ValidateForAppend checks an event against its registered definition and
// returns a normalized copy with canonical payload JSON. The input event is
// not mutated.
func (r *Registry) ValidateForAppend(evt Event) (Event, error) {
	if strings.TrimSpace(evt.RealmID) == "" {
		return Event{}, ErrRealmIDRequired
	}
	if strings.TrimSpace(string(evt.Type)) == "" {
		return Event{}, ErrTypeRequired
	}
	if evt.Timestamp.IsZero() {
		return Event{}, ErrTimestampRequired
	}

	def, ok := r.Definition(evt.Type)
	if !ok {
		return Event{}, fmt.Errorf("%w: %s", ErrTypeUnknown, evt.Type)
	}

	switch evt.ActorType {
	case ActorTypeSystem:
	case ActorTypeParticipant:
		if strings.TrimSpace(evt.ActorID) == "" {
			return Event{}, ErrActorIDRequired
		}
	default:
		return Event{}, fmt.Errorf("%w: %q", ErrActorTypeInvalid, evt.ActorType)
	}

	if def.Addressing == AddressingPolicyEntityTarget {
		if strings.TrimSpace(evt.EntityType) == "" {
			return Event{}, ErrEntityTypeRequired
		}
		if strings.TrimSpace(evt.EntityID) == "" {
			return Event{}, ErrEntityIDRequired
		}
	}

	normalized := evt
	payload := evt.PayloadJSON
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}
	if !json.Valid(payload) {
		return Event{}, ErrPayloadInvalid
	}
	var decoded any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrPayloadInvalid, err)
	}
	canonical, err := encoding.CanonicalJSON(decoded)
	if err != nil {
		return Event{}, fmt.Errorf("canonicalize payload: %w", err)
	}
	normalized.PayloadJSON = canonical

	if def.ValidatePayload != nil {
		if err := def.ValidatePayload(normalized.PayloadJSON); err != nil {
			return Event{}, fmt.Errorf("event type %s payload: %w", evt.Type, err)
		}
	}

	return normalized, nil
}
