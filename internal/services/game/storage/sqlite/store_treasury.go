package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/usurper.games/internal/platform/id"
	"github.com/louisbranch/usurper.games/internal/services/game/storage"
)

const accountColumns = "account_id, kind, balance, created_at"

// OpenAccount creates a participant account with a zero balance.
func (s *Store) OpenAccount(ctx context.Context, accountID string) (storage.AccountRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.AccountRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.AccountRecord{}, fmt.Errorf("storage is not configured")
	}
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return storage.AccountRecord{}, fmt.Errorf("account id is required")
	}
	if storage.IsEscrowAccountID(accountID) {
		return storage.AccountRecord{}, fmt.Errorf("account id %q uses the reserved escrow prefix", accountID)
	}

	rec := storage.AccountRecord{
		ID:        accountID,
		Kind:      storage.AccountKindParticipant,
		Balance:   0,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	if _, err := s.sqlDB.ExecContext(ctx,
		"INSERT INTO treasury_accounts ("+accountColumns+") VALUES (?, ?, ?, ?)",
		rec.ID, string(rec.Kind), rec.Balance, toMillis(rec.CreatedAt),
	); err != nil {
		if isConstraintError(err) {
			return storage.AccountRecord{}, storage.ErrAccountExists
		}
		return storage.AccountRecord{}, fmt.Errorf("open account: %w", err)
	}
	return rec, nil
}

// FundAccount credits a participant account from outside the game economy.
// Escrow accounts only move through attributed transfers and are rejected.
func (s *Store) FundAccount(ctx context.Context, accountID string, amount int64) (storage.AccountRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.AccountRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.AccountRecord{}, fmt.Errorf("storage is not configured")
	}
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return storage.AccountRecord{}, fmt.Errorf("account id is required")
	}
	if amount <= 0 {
		return storage.AccountRecord{}, fmt.Errorf("amount must be positive")
	}
	if storage.IsEscrowAccountID(accountID) {
		return storage.AccountRecord{}, storage.ErrUnattributedTransfer
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return storage.AccountRecord{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	rec, err := getAccountTx(ctx, tx, accountID)
	if err != nil {
		return storage.AccountRecord{}, err
	}
	if rec.Kind != storage.AccountKindParticipant {
		return storage.AccountRecord{}, storage.ErrUnattributedTransfer
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE treasury_accounts SET balance = balance + ? WHERE account_id = ?",
		amount, accountID,
	); err != nil {
		return storage.AccountRecord{}, fmt.Errorf("fund account: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return storage.AccountRecord{}, fmt.Errorf("commit: %w", err)
	}

	rec.Balance += amount
	return rec, nil
}

// GetAccount returns a treasury account row.
func (s *Store) GetAccount(ctx context.Context, accountID string) (storage.AccountRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.AccountRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.AccountRecord{}, fmt.Errorf("storage is not configured")
	}
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return storage.AccountRecord{}, fmt.Errorf("account id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM treasury_accounts WHERE account_id = ?",
		accountID,
	)
	rec, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.AccountRecord{}, storage.ErrAccountNotFound
		}
		return storage.AccountRecord{}, fmt.Errorf("get account: %w", err)
	}
	return rec, nil
}

// ListTransfers returns a realm's attributed movements in commit order.
func (s *Store) ListTransfers(ctx context.Context, realmID string, limit int) ([]storage.TransferRecord, error) {
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
		"SELECT transfer_id, realm_id, from_id, to_id, amount, operation, event_seq, created_at "+
			"FROM treasury_transfers WHERE realm_id = ? ORDER BY rowid ASC LIMIT ?",
		realmID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()

	var transfers []storage.TransferRecord
	for rows.Next() {
		var (
			rec       storage.TransferRecord
			createdAt int64
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.RealmID,
			&rec.FromID,
			&rec.ToID,
			&rec.Amount,
			&rec.Operation,
			&rec.EventSeq,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		rec.CreatedAt = fromMillis(createdAt)
		transfers = append(transfers, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transfers: %w", err)
	}
	return transfers, nil
}

// executeTransferTx moves funds for one planned transfer inside the commit
// transaction and records the movement.
//
// The debit leg requires an existing account with sufficient balance. The
// credit leg auto-creates missing escrow accounts so realm creation can seed
// the pool; a missing participant account is an error. Failures come back as
// a TransferError so the caller can map them to operation-specific codes.
func executeTransferTx(ctx context.Context, tx *sql.Tx, realmID string, transfer storage.PlannedTransfer, eventSeq int64, now time.Time) error {
	fail := func(err error) error {
		return &storage.TransferError{
			Operation: transfer.Operation,
			FromID:    transfer.FromID,
			ToID:      transfer.ToID,
			Amount:    transfer.Amount,
			Err:       err,
		}
	}

	if transfer.Amount <= 0 {
		return fail(fmt.Errorf("amount must be positive"))
	}
	if strings.TrimSpace(transfer.FromID) == "" || strings.TrimSpace(transfer.ToID) == "" {
		return fail(fmt.Errorf("both account ids are required"))
	}

	from, err := getAccountTx(ctx, tx, transfer.FromID)
	if err != nil {
		return fail(err)
	}
	if from.Balance < transfer.Amount {
		return fail(storage.ErrInsufficientFunds)
	}

	if _, err := getAccountTx(ctx, tx, transfer.ToID); err != nil {
		if !errors.Is(err, storage.ErrAccountNotFound) || !storage.IsEscrowAccountID(transfer.ToID) {
			return fail(err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO treasury_accounts ("+accountColumns+") VALUES (?, ?, ?, ?)",
			transfer.ToID, string(storage.AccountKindEscrow), 0, toMillis(now),
		); err != nil {
			return fail(fmt.Errorf("create escrow account: %w", err))
		}
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE treasury_accounts SET balance = balance - ? WHERE account_id = ?",
		transfer.Amount, transfer.FromID,
	); err != nil {
		return fail(fmt.Errorf("debit account: %w", err))
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE treasury_accounts SET balance = balance + ? WHERE account_id = ?",
		transfer.Amount, transfer.ToID,
	); err != nil {
		return fail(fmt.Errorf("credit account: %w", err))
	}

	transferID, err := id.NewID()
	if err != nil {
		return fail(fmt.Errorf("new transfer id: %w", err))
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO treasury_transfers (transfer_id, realm_id, from_id, to_id, amount, operation, event_seq, created_at) "+
			"VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		transferID, realmID, transfer.FromID, transfer.ToID, transfer.Amount,
		transfer.Operation, eventSeq, toMillis(now),
	); err != nil {
		return fail(fmt.Errorf("record transfer: %w", err))
	}

	return nil
}

func getAccountTx(ctx context.Context, tx *sql.Tx, accountID string) (storage.AccountRecord, error) {
	row := tx.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM treasury_accounts WHERE account_id = ?",
		accountID,
	)
	rec, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.AccountRecord{}, storage.ErrAccountNotFound
		}
		return storage.AccountRecord{}, fmt.Errorf("get account: %w", err)
	}
	return rec, nil
}

func scanAccount(row rowScanner) (storage.AccountRecord, error) {
	var (
		rec       storage.AccountRecord
		kind      string
		createdAt int64
	)
	if err := row.Scan(&rec.ID, &kind, &rec.Balance, &createdAt); err != nil {
		return storage.AccountRecord{}, err
	}
	rec.Kind = storage.AccountKind(kind)
	rec.CreatedAt = fromMillis(createdAt)
	return rec, nil
}
