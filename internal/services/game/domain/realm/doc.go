// Package realm models the realm aggregate.
//
// A realm is one independent throne game: its identity, its owner, and the
// founding deposit that seeds the prize pool and fixes the reset floor for
// the required bid. Creation is the only realm command; everything after it
// is decided by the throne aggregate against the same journal.
//
// The package holds:
//   - the create decider that turns realm.create into realm.created,
//   - fold logic for replaying realm identity from history,
//   - and the deposit bounds enforced at creation.
package realm
