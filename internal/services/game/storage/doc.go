// Package storage defines persistence interfaces for the game service.
//
// It covers the event journal, realm and reward projections, the treasury
// ledger, aggregate snapshots, and operational telemetry. Implementations
// (e.g., SQLite) live in subpackages.
//
// Common error types:
//   - ErrNotFound: requested record is missing
//   - ErrAccountNotFound: a treasury transfer names a missing account
//   - ErrInsufficientFunds: a debit would take an account below zero
//   - ErrUnattributedTransfer: a direct mutation targeted an escrow account
package storage
