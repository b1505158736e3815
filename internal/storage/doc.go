// Package storage defines the persistence interfaces for the raffle engine.
//
// It covers the three durable concerns of the engine: the singleton raffle
// snapshot, the append-only event journal, and the wei ledger used for
// entrance payments and payouts. Implementations live in subpackages:
// memory (tests and default run mode), sqlite (snapshot and journal), and
// bbolt (ledger).
//
// # Error Types
//
// The package defines common error types used across storage implementations:
//   - ErrNotFound: Indicates a requested record is missing.
//   - ErrInsufficientBalance: Indicates a transfer exceeding the sender balance.
package storage
