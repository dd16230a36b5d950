// Package throne models the throne aggregate.
//
// The throne is the money and round machine of a realm: escalating claims
// that dethrone the holder, the 10% reward owed to whoever was displaced,
// the countdown that each claim restarts, settlement of the residual pool
// once the countdown lapses, and the reset that arms the next round.
//
// The package holds:
//   - command deciders that translate claim, reward, settlement, and reset
//     commands into events,
//   - fold logic for replaying the pool, the required bid, and the reward
//     ledger from history,
//   - and the tuning constants (reward percentage, claim windows) the
//     deciders apply.
//
// All amounts are int64 base units; all instants are unix milliseconds.
package throne
