package domain

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

var (
	// ErrAlreadyInSession indicates a session is already in progress.
	ErrAlreadyInSession = errors.New("raffle session already in progress")
	// ErrNotOpen indicates the raffle is not accepting entries.
	ErrNotOpen = errors.New("raffle is not open")
	// ErrOwnerCannotEnter indicates the session owner tried to enter.
	ErrOwnerCannotEnter = errors.New("raffle owner cannot enter")
	// ErrNotOwner indicates the caller does not own the current session.
	ErrNotOwner = errors.New("caller is not the raffle owner")
	// ErrUnknownRequest indicates a fulfillment for an unknown request id.
	ErrUnknownRequest = errors.New("unknown randomness request")
	// ErrNoPlayers indicates a draw was attempted with no entries.
	ErrNoPlayers = errors.New("no players entered")
	// ErrNoRandomWords indicates a fulfillment carried no random words.
	ErrNoRandomWords = errors.New("fulfillment carries no random words")
	// ErrPlayerIndexOutOfRange indicates a player lookup past the list end.
	ErrPlayerIndexOutOfRange = errors.New("player index out of range")
)

// InsufficientFeeError reports an entry payment below the entrance fee. It
// carries both amounts unchanged.
type InsufficientFeeError struct {
	Required *uint256.Int
	Paid     *uint256.Int
}

func (e *InsufficientFeeError) Error() string {
	return fmt.Sprintf("insufficient entrance fee: required %s, paid %s", e.Required.Dec(), e.Paid.Dec())
}
