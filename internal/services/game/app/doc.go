// Package app hosts the game application service: the layer that turns
// caller requests into command envelopes, routes them through the core
// decider, and commits accepted decisions atomically with their treasury
// movements.
//
// The service owns a per-realm execution lock so decisions for one realm
// serialize; reads go straight to projections and never replay. The feed
// fans committed events out to websocket subscribers, and the server wires
// the whole thing behind gRPC health and an HTTP surface.
package app
