// Package sqlite implements the game persistence contracts for the event
// journal, projection materialization, treasury ledger, and snapshots.
//
// Why this package exists:
// - It is the concrete backend where the write model and projection model meet.
// - It owns migration and schema-compatibility behavior for realm history durability.
// - It executes a decision's journal append, projection update, and fund
//   movement in one transaction so no partial operation is ever observable.
//
// One database file backs every concern; only this package translates
// domain-shaped records into concrete SQL rows and transactions.
package sqlite
