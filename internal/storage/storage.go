package storage

import (
	"context"
	"errors"

	"github.com/holiman/uint256"

	"github.com/0xGIDHUB/raffle-engine/internal/raffle/domain"
	"github.com/0xGIDHUB/raffle-engine/internal/raffle/event"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// ErrInsufficientBalance indicates a transfer exceeding the sender balance.
var ErrInsufficientBalance = errors.New("insufficient balance")

// RaffleStore persists the singleton raffle snapshot.
type RaffleStore interface {
	Put(ctx context.Context, raffle domain.Raffle) error
	Get(ctx context.Context) (domain.Raffle, error)
}

// EventStore persists the append-only raffle journal. AppendEvent assigns
// the sequence number and content hash and returns the stored event.
type EventStore interface {
	AppendEvent(ctx context.Context, evt event.Event) (event.Event, error)
	ListEvents(ctx context.Context) ([]event.Event, error)
}

// Ledger tracks account balances in wei. Unknown accounts have a zero
// balance. Transfer fails with ErrInsufficientBalance when the sender
// balance is below the amount.
type Ledger interface {
	Balance(ctx context.Context, addr domain.Address) (*uint256.Int, error)
	Deposit(ctx context.Context, addr domain.Address, amount *uint256.Int) error
	Transfer(ctx context.Context, from, to domain.Address, amount *uint256.Int) error

	// Atomic runs fn against a transactional view of the ledger. Either
	// every mutation fn performs is committed or none is. Nesting Atomic
	// inside fn runs fn directly against the same view.
	Atomic(ctx context.Context, fn func(Ledger) error) error
}
