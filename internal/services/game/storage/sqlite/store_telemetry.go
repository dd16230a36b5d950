package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/usurper.games/internal/services/game/storage"
)

// AppendTelemetryEvent records an operational telemetry event.
func (s *Store) AppendTelemetryEvent(ctx context.Context, evt storage.TelemetryEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(evt.EventName) == "" {
		return fmt.Errorf("event name is required")
	}
	if strings.TrimSpace(evt.Severity) == "" {
		return fmt.Errorf("severity is required")
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	if len(evt.AttributesJSON) == 0 && len(evt.Attributes) > 0 {
		payload, err := json.Marshal(evt.Attributes)
		if err != nil {
			return fmt.Errorf("marshal telemetry attributes: %w", err)
		}
		evt.AttributesJSON = payload
	}

	if _, err := s.sqlDB.ExecContext(ctx,
		"INSERT INTO telemetry_events (timestamp, event_name, severity, realm_id, actor_type, actor_id, "+
			"request_id, invocation_id, trace_id, span_id, attributes_json) "+
			"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		toMillis(evt.Timestamp),
		evt.EventName,
		evt.Severity,
		evt.RealmID,
		evt.ActorType,
		evt.ActorID,
		evt.RequestID,
		evt.InvocationID,
		evt.TraceID,
		evt.SpanID,
		evt.AttributesJSON,
	); err != nil {
		return fmt.Errorf("append telemetry event: %w", err)
	}
	return nil
}
