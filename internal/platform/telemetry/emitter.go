package telemetry

import (
	"context"
	"time"

	"github.com/louisbranch/usurper.games/internal/services/game/storage"
)

// Severity classifies an operational telemetry record.
type Severity string

const (
	SeverityInfo  Severity = "INFO"
	SeverityWarn  Severity = "WARN"
	SeverityError Severity = "ERROR"
)

// Emitter records operational telemetry events. A nil emitter or an emitter
// without a store silently drops records so telemetry never blocks a request.
type Emitter struct {
	store storage.TelemetryStore
	clock func() time.Time
}

// NewEmitter creates an emitter backed by the given store.
func NewEmitter(store storage.TelemetryStore) *Emitter {
	return &Emitter{store: store, clock: time.Now}
}

// Emit records a telemetry event, stamping the current time when the event
// carries none.
func (e *Emitter) Emit(ctx context.Context, evt storage.TelemetryEvent) error {
	if e == nil || e.store == nil {
		return nil
	}
	if evt.Timestamp.IsZero() {
		if e.clock != nil {
			evt.Timestamp = e.clock().UTC()
		} else {
			evt.Timestamp = time.Now().UTC()
		}
	}
	return e.store.AppendTelemetryEvent(ctx, evt)
}
