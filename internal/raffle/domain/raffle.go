// Package domain holds the raffle state machine.
//
// A Raffle is a singleton owned by the service layer; every transition is
// validated here and the service serializes access, so no locking happens
// at this level.
package domain

import (
	"github.com/holiman/uint256"
)

// State is the raffle lifecycle state.
type State int

const (
	// StateClosed is the initial state and the terminal state of each cycle.
	StateClosed State = iota
	// StateOpen accepts entries.
	StateOpen
)

// String returns the lowercase state label used in snapshots and responses.
func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	default:
		return "closed"
	}
}

// Raffle is the full state of one raffle instance across sessions.
//
// Players is insertion-ordered; the winner index is taken modulo its length.
// The same address may enter more than once: each entry is a separate slot.
type Raffle struct {
	// Owner is the address that opened the current session, empty when no
	// session is in progress.
	Owner Address `json:"owner"`
	// PreviousOwner is the owner of the last completed payout cycle.
	PreviousOwner Address `json:"previous_owner"`
	// EntranceFee is the minimum payment to enter, zeroed on reset.
	EntranceFee *uint256.Int `json:"entrance_fee"`
	// State is the lifecycle state.
	State State `json:"state"`
	// Players holds one slot per accepted entry, cleared on winner selection.
	Players []Address `json:"players"`
	// PreviousSessionPlayers is the snapshot of Players taken at
	// winner-selection time, kept for auditing.
	PreviousSessionPlayers []Address `json:"previous_session_players"`
	// RecentWinner is the last selected winner.
	RecentWinner Address `json:"recent_winner"`
	// PendingRequestID correlates the outstanding randomness request, empty
	// when no draw is pending.
	PendingRequestID string `json:"pending_request_id"`
}

// NewRaffle returns a closed raffle with no session in progress.
func NewRaffle() *Raffle {
	return &Raffle{EntranceFee: uint256.NewInt(0)}
}

// InSession reports whether a session is in progress.
func (r *Raffle) InSession() bool {
	return r.Owner != ""
}

// Open starts a new session owned by caller with the given entrance fee.
// A zero fee is permitted; there are no bounds on the fee.
func (r *Raffle) Open(caller Address, fee *uint256.Int) error {
	if r.InSession() {
		return ErrAlreadyInSession
	}
	if fee == nil {
		fee = uint256.NewInt(0)
	}
	r.Owner = caller
	r.EntranceFee = fee.Clone()
	r.State = StateOpen
	return nil
}

// CheckEnter validates an entry without mutating state.
//
// The owner check runs before the state check, which runs before the fee
// check; callers rely on this ordering.
func (r *Raffle) CheckEnter(player Address, payment *uint256.Int) error {
	if r.InSession() && player == r.Owner {
		return ErrOwnerCannotEnter
	}
	if r.State != StateOpen {
		return ErrNotOpen
	}
	if payment == nil {
		payment = uint256.NewInt(0)
	}
	if payment.Cmp(r.EntranceFee) < 0 {
		return &InsufficientFeeError{
			Required: r.EntranceFee.Clone(),
			Paid:     payment.Clone(),
		}
	}
	return nil
}

// Enter registers player for the current session. Overpayment is accepted
// without refund and the same address may enter repeatedly.
func (r *Raffle) Enter(player Address, payment *uint256.Int) error {
	if err := r.CheckEnter(player, payment); err != nil {
		return err
	}
	r.Players = append(r.Players, player)
	return nil
}

// CheckEnd validates an end request without mutating state. drawPending
// reports whether a randomness request must be issued before End is applied.
func (r *Raffle) CheckEnd(caller Address) (drawPending bool, err error) {
	if !r.InSession() || caller != r.Owner {
		return false, ErrNotOwner
	}
	return len(r.Players) > 0, nil
}

// End closes the session. With zero players the session resets immediately
// and no winner is ever selected; otherwise the raffle stays closed waiting
// for the randomness fulfillment recorded via RecordDrawRequest.
func (r *Raffle) End(caller Address) (drawPending bool, err error) {
	drawPending, err = r.CheckEnd(caller)
	if err != nil {
		return false, err
	}
	r.State = StateClosed
	if !drawPending {
		r.Owner = ""
		r.EntranceFee = uint256.NewInt(0)
	}
	return drawPending, nil
}

// RecordDrawRequest stores the identifier of the outstanding randomness
// request issued after End.
func (r *Raffle) RecordDrawRequest(requestID string) {
	r.PendingRequestID = requestID
}

// Draw is a winner selection computed from a randomness fulfillment. It is
// applied with FinalizeDraw only after the payout has been settled.
type Draw struct {
	RequestID   string
	WinnerIndex uint64
	Winner      Address
	// Players is the session snapshot the winner was drawn from.
	Players []Address
}

// PickWinner computes the winner for a randomness fulfillment without
// mutating state. The winner index is randomWords[0] modulo the player
// count, so the winner is always a member of the session snapshot.
func (r *Raffle) PickWinner(requestID string, randomWords []*uint256.Int) (Draw, error) {
	if r.PendingRequestID == "" || requestID != r.PendingRequestID {
		return Draw{}, ErrUnknownRequest
	}
	if len(r.Players) == 0 {
		return Draw{}, ErrNoPlayers
	}
	if len(randomWords) == 0 || randomWords[0] == nil {
		return Draw{}, ErrNoRandomWords
	}

	count := uint256.NewInt(uint64(len(r.Players)))
	index := new(uint256.Int).Mod(randomWords[0], count).Uint64()

	snapshot := make([]Address, len(r.Players))
	copy(snapshot, r.Players)

	return Draw{
		RequestID:   requestID,
		WinnerIndex: index,
		Winner:      snapshot[index],
		Players:     snapshot,
	}, nil
}

// FinalizeDraw applies a draw: records the winner, snapshots and clears the
// player list, and resets the session for the next cycle.
func (r *Raffle) FinalizeDraw(draw Draw) {
	r.RecentWinner = draw.Winner
	r.PreviousSessionPlayers = draw.Players
	r.Players = nil
	r.PreviousOwner = r.Owner
	r.Owner = ""
	r.EntranceFee = uint256.NewInt(0)
	r.PendingRequestID = ""
}

// Player returns the entry at index i of the current session.
func (r *Raffle) Player(i int) (Address, error) {
	if i < 0 || i >= len(r.Players) {
		return "", ErrPlayerIndexOutOfRange
	}
	return r.Players[i], nil
}

// PlayerFromPreviousSession returns the entry at index i of the last
// completed session snapshot.
func (r *Raffle) PlayerFromPreviousSession(i int) (Address, error) {
	if i < 0 || i >= len(r.PreviousSessionPlayers) {
		return "", ErrPlayerIndexOutOfRange
	}
	return r.PreviousSessionPlayers[i], nil
}

// PlayersCount returns the number of entries in the current session.
func (r *Raffle) PlayersCount() int {
	return len(r.Players)
}
