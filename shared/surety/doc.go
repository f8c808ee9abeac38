// Package surety is the rules and state engine of the flight surety system.
//
// An Engine owns all airline, flight, insurance and oracle state together
// with the fund vault that backs policy payouts. Every mutating operation is
// validated against the current state, checked against the vault invariant
// (balance never below the sum of pending payouts) and only then applied in
// a single step under the engine lock. Events are published to subscribers
// after the step commits.
package surety
