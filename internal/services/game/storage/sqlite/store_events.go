package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/louisbranch/usurper.games/internal/services/game/domain/event"
	"github.com/louisbranch/usurper.games/internal/services/game/storage"
	"github.com/louisbranch/usurper.games/internal/services/game/storage/integrity"
)

const eventColumns = "realm_id, seq, event_hash, prev_event_hash, chain_hash, " +
	"signature_key_id, event_signature, timestamp, event_type, request_id, " +
	"invocation_id, actor_type, actor_id, entity_type, entity_id, " +
	"correlation_id, causation_id, payload_json"

// AppendEvent atomically appends an event and returns it with sequence,
// hashes, and signature set.
//
// A unique-constraint collision on the event hash is treated as an idempotent
// retry: the previously stored event is returned instead of an error.
func (s *Store) AppendEvent(ctx context.Context, evt event.Event) (event.Event, error) {
	if err := ctx.Err(); err != nil {
		return event.Event{}, err
	}
	if s == nil || s.sqlDB == nil {
		return event.Event{}, fmt.Errorf("storage is not configured")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return event.Event{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stored, err := s.appendEventsTx(ctx, tx, []event.Event{evt})
	if err != nil {
		var dup *duplicateEventError
		if errors.As(err, &dup) {
			if existing, lookupErr := s.getEventByHash(ctx, dup.hash); lookupErr == nil {
				return existing, nil
			}
		}
		return event.Event{}, err
	}

	if err := tx.Commit(); err != nil {
		return event.Event{}, fmt.Errorf("commit: %w", err)
	}

	return stored[0], nil
}

// BatchAppendEvents atomically appends multiple events in a single transaction.
//
// All events must belong to the same realm. Sequence numbers are allocated
// contiguously, and chain hashes link each event to its predecessor, including
// the last previously stored event for the first item in the batch.
func (s *Store) BatchAppendEvents(ctx context.Context, events []event.Event) ([]event.Event, error) {
	if len(events) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stored, err := s.appendEventsTx(ctx, tx, events)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return stored, nil
}

// appendEventsTx validates, sequences, hashes, signs, and inserts events
// inside the caller's transaction. The sequence counter advances by the batch
// length only when every insert succeeds.
func (s *Store) appendEventsTx(ctx context.Context, tx *sql.Tx, events []event.Event) ([]event.Event, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("event registry is required")
	}
	if s.keyring == nil {
		return nil, fmt.Errorf("event integrity keyring is required")
	}

	validated := make([]event.Event, len(events))
	for i, evt := range events {
		if evt.Timestamp.IsZero() {
			evt.Timestamp = time.Now().UTC()
		}
		evt.Timestamp = evt.Timestamp.UTC().Truncate(time.Millisecond)
		v, err := s.registry.ValidateForAppend(evt)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		validated[i] = v
	}

	realmID := validated[0].RealmID
	for i, evt := range validated[1:] {
		if evt.RealmID != realmID {
			return nil, fmt.Errorf("event %d: all events in a batch must share a realm", i+1)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO event_seq (realm_id, next_seq) VALUES (?, 1)",
		realmID,
	); err != nil {
		return nil, fmt.Errorf("init event seq: %w", err)
	}

	var baseSeq int64
	if err := tx.QueryRowContext(ctx,
		"SELECT next_seq FROM event_seq WHERE realm_id = ?",
		realmID,
	).Scan(&baseSeq); err != nil {
		return nil, fmt.Errorf("get event seq: %w", err)
	}
	if baseSeq <= 0 {
		return nil, fmt.Errorf("event seq is required")
	}

	// Load the previous chain hash for linking the first event in the batch.
	prevChainHash := ""
	if baseSeq > 1 {
		if err := tx.QueryRowContext(ctx,
			"SELECT chain_hash FROM events WHERE realm_id = ? AND seq = ?",
			realmID, baseSeq-1,
		).Scan(&prevChainHash); err != nil {
			return nil, fmt.Errorf("load previous event: %w", err)
		}
	}

	stored := make([]event.Event, len(validated))
	for i, evt := range validated {
		evt.Seq = baseSeq + int64(i)

		hash, err := integrity.EventHash(evt)
		if err != nil {
			return nil, fmt.Errorf("event %d hash: %w", i, err)
		}
		if strings.TrimSpace(hash) == "" {
			return nil, fmt.Errorf("event %d: hash is empty", i)
		}
		evt.Hash = hash

		chainHash, err := integrity.ChainHash(evt, prevChainHash)
		if err != nil {
			return nil, fmt.Errorf("event %d chain hash: %w", i, err)
		}
		if strings.TrimSpace(chainHash) == "" {
			return nil, fmt.Errorf("event %d: chain hash is empty", i)
		}

		signature, keyID, err := s.keyring.SignChainHash(evt.RealmID, chainHash)
		if err != nil {
			return nil, fmt.Errorf("event %d sign: %w", i, err)
		}

		evt.PrevHash = prevChainHash
		evt.ChainHash = chainHash
		evt.Signature = signature
		evt.SignatureKeyID = keyID

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO events ("+eventColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			evt.RealmID,
			evt.Seq,
			evt.Hash,
			evt.PrevHash,
			evt.ChainHash,
			evt.SignatureKeyID,
			evt.Signature,
			toMillis(evt.Timestamp),
			string(evt.Type),
			evt.RequestID,
			evt.InvocationID,
			string(evt.ActorType),
			evt.ActorID,
			evt.EntityType,
			evt.EntityID,
			evt.CorrelationID,
			evt.CausationID,
			[]byte(evt.PayloadJSON),
		); err != nil {
			if isConstraintError(err) {
				return nil, &duplicateEventError{hash: evt.Hash, err: err}
			}
			return nil, fmt.Errorf("append event %d: %w", i, err)
		}

		prevChainHash = chainHash
		stored[i] = evt
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE event_seq SET next_seq = ? WHERE realm_id = ?",
		baseSeq+int64(len(validated)), realmID,
	); err != nil {
		return nil, fmt.Errorf("update event seq: %w", err)
	}

	return stored, nil
}

// duplicateEventError marks a unique-constraint collision during append so
// the single-event path can recover the previously stored event by hash.
type duplicateEventError struct {
	hash string
	err  error
}

func (e *duplicateEventError) Error() string { return e.err.Error() }
func (e *duplicateEventError) Unwrap() error { return e.err }

// getEventByHash retrieves an event by its content hash. The hash input
// covers the realm id, so a bare hash lookup is unambiguous.
func (s *Store) getEventByHash(ctx context.Context, hash string) (event.Event, error) {
	if strings.TrimSpace(hash) == "" {
		return event.Event{}, fmt.Errorf("event hash is required")
	}

	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE event_hash = ? LIMIT 1",
		hash,
	)
	evt, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return event.Event{}, storage.ErrNotFound
		}
		return event.Event{}, fmt.Errorf("get event by hash: %w", err)
	}
	return evt, nil
}

// ListEvents returns events ordered by sequence ascending.
func (s *Store) ListEvents(ctx context.Context, realmID string, afterSeq int64, limit int) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(realmID) == "" {
		return nil, fmt.Errorf("realm id is required")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE realm_id = ? AND seq > ? ORDER BY seq ASC LIMIT ?",
		realmID, afterSeq, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		evt, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// GetLatestEventSeq returns the latest event sequence number for a realm.
func (s *Store) GetLatestEventSeq(ctx context.Context, realmID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(realmID) == "" {
		return 0, fmt.Errorf("realm id is required")
	}

	var seq int64
	if err := s.sqlDB.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(seq), 0) FROM events WHERE realm_id = ?",
		realmID,
	).Scan(&seq); err != nil {
		return 0, fmt.Errorf("get latest event seq: %w", err)
	}
	return seq, nil
}

// ListEventsPage returns a paginated, filtered, and sorted list of events.
func (s *Store) ListEventsPage(ctx context.Context, req storage.ListEventsPageRequest) (storage.ListEventsPageResult, error) {
	if err := ctx.Err(); err != nil {
		return storage.ListEventsPageResult{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.ListEventsPageResult{}, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(req.RealmID) == "" {
		return storage.ListEventsPageResult{}, fmt.Errorf("realm id is required")
	}
	if req.PageSize <= 0 {
		req.PageSize = 50
	}
	if req.PageSize > 200 {
		req.PageSize = 200
	}

	plan := buildListEventsPageSQLPlan(req)

	query := fmt.Sprintf(
		"SELECT "+eventColumns+" FROM events WHERE %s %s %s",
		plan.whereClause,
		plan.orderClause,
		plan.limitClause,
	)

	rows, err := s.sqlDB.QueryContext(ctx, query, plan.params...)
	if err != nil {
		return storage.ListEventsPageResult{}, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := make([]event.Event, 0, req.PageSize)
	for rows.Next() {
		evt, err := scanEvent(rows)
		if err != nil {
			return storage.ListEventsPageResult{}, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return storage.ListEventsPageResult{}, fmt.Errorf("iterate events: %w", err)
	}

	hasMore := len(events) > req.PageSize
	if hasMore {
		events = events[:req.PageSize]
	}

	// For previous-page navigation, reverse the results to restore the
	// presented order.
	if req.CursorReverse {
		for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
			events[i], events[j] = events[j], events[i]
		}
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM events WHERE %s", plan.countWhereClause)
	var totalCount int
	if err := s.sqlDB.QueryRowContext(ctx, countQuery, plan.countParams...).Scan(&totalCount); err != nil {
		return storage.ListEventsPageResult{}, fmt.Errorf("count events: %w", err)
	}

	result := storage.ListEventsPageResult{
		Events:     events,
		TotalCount: totalCount,
	}

	if req.CursorReverse {
		result.HasNextPage = true // We came from next, so there is a next
		result.HasPrevPage = hasMore
	} else {
		result.HasNextPage = hasMore
		result.HasPrevPage = req.CursorSeq > 0
	}

	return result, nil
}

// VerifyEventIntegrity walks one realm's chain in pages, recomputing hashes
// and signatures. Corruption lands in the report; errors are reserved for
// infrastructure failures.
func (s *Store) VerifyEventIntegrity(ctx context.Context, realmID string) (storage.IntegrityReport, error) {
	if err := ctx.Err(); err != nil {
		return storage.IntegrityReport{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.IntegrityReport{}, fmt.Errorf("storage is not configured")
	}
	if s.keyring == nil {
		return storage.IntegrityReport{}, fmt.Errorf("event integrity keyring is required")
	}
	if strings.TrimSpace(realmID) == "" {
		return storage.IntegrityReport{}, fmt.Errorf("realm id is required")
	}

	report := storage.IntegrityReport{RealmID: realmID, Valid: true}
	var lastSeq int64
	prevChainHash := ""
	for {
		events, err := s.ListEvents(ctx, realmID, lastSeq, 200)
		if err != nil {
			return storage.IntegrityReport{}, fmt.Errorf("list events realm_id=%s: %w", realmID, err)
		}
		if len(events) == 0 {
			return report, nil
		}
		for _, evt := range events {
			if evt.Seq != lastSeq+1 {
				return integrityFailure(report, evt.Seq,
					fmt.Sprintf("sequence gap: expected %d, got %d", lastSeq+1, evt.Seq)), nil
			}
			if evt.Seq == 1 && evt.PrevHash != "" {
				return integrityFailure(report, evt.Seq, "first event prev hash must be empty"), nil
			}
			if evt.Seq > 1 && evt.PrevHash != prevChainHash {
				return integrityFailure(report, evt.Seq, "prev hash mismatch"), nil
			}

			hash, err := integrity.EventHash(evt)
			if err != nil {
				return integrityFailure(report, evt.Seq,
					fmt.Sprintf("compute event hash: %v", err)), nil
			}
			if hash != evt.Hash {
				return integrityFailure(report, evt.Seq, "event hash mismatch"), nil
			}

			chainHash, err := integrity.ChainHash(evt, prevChainHash)
			if err != nil {
				return integrityFailure(report, evt.Seq,
					fmt.Sprintf("compute chain hash: %v", err)), nil
			}
			if chainHash != evt.ChainHash {
				return integrityFailure(report, evt.Seq, "chain hash mismatch"), nil
			}

			if err := s.keyring.VerifyChainHash(realmID, chainHash, evt.Signature, evt.SignatureKeyID); err != nil {
				return integrityFailure(report, evt.Seq,
					fmt.Sprintf("signature mismatch: %v", err)), nil
			}

			report.EventsChecked++
			prevChainHash = evt.ChainHash
			lastSeq = evt.Seq
		}
	}
}

func integrityFailure(report storage.IntegrityReport, seq int64, reason string) storage.IntegrityReport {
	report.Valid = false
	report.FailureSeq = seq
	report.FailureReason = reason
	return report
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (event.Event, error) {
	var (
		evt       event.Event
		timestamp int64
		eventType string
		actorType string
		payload   []byte
	)
	if err := row.Scan(
		&evt.RealmID,
		&evt.Seq,
		&evt.Hash,
		&evt.PrevHash,
		&evt.ChainHash,
		&evt.SignatureKeyID,
		&evt.Signature,
		&timestamp,
		&eventType,
		&evt.RequestID,
		&evt.InvocationID,
		&actorType,
		&evt.ActorID,
		&evt.EntityType,
		&evt.EntityID,
		&evt.CorrelationID,
		&evt.CausationID,
		&payload,
	); err != nil {
		return event.Event{}, err
	}
	evt.Timestamp = fromMillis(timestamp)
	evt.Type = event.Type(eventType)
	evt.ActorType = event.ActorType(actorType)
	evt.PayloadJSON = payload
	return evt, nil
}

func isConstraintError(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT || code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}
