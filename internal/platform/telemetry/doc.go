// Package telemetry provides observability for Usurper realms.
//
// This package separates two distinct concerns:
//
// # Game Events
//
// Game events are the canonical event journal that captures claims, payouts,
// and settlements for replay and state derivation. They are stored separately
// from telemetry.
//
// # Operational Telemetry
//
// Operational telemetry captures system health and request outcomes:
//   - Request latency
//   - Error rates
//   - API usage patterns
//
// These records support monitoring, alerting, and incident analysis.
//
// # Design Philosophy
//
// Separating game events from operational telemetry ensures:
//   - Journal storage can be optimized for replay and verification
//   - Operational records can map to OpenTelemetry later
//   - Different retention policies for each concern
//   - Clear ownership boundaries
package telemetry
