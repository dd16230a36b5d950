// Package engine wires command validation, decision routing, replay-backed
// state loading, and atomic commit for domain command execution.
//
// This package is the runtime seam between immutable domain contracts and
// the application layer: it validates intent, routes commands to the owning
// decider, folds emitted events into state, and hands the result to a
// committer that persists everything in one transaction.
package engine
