// Package payout settles a finished raffle: the owner's 10% cut first,
// then the full remaining pool balance to the winner.
package payout

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/0xGIDHUB/raffle-engine/internal/raffle/domain"
	"github.com/0xGIDHUB/raffle-engine/internal/storage"
)

// ownerFeePercent is the fixed owner cut of the pooled balance.
const ownerFeePercent = 10

// Policy selects how a winner-transfer failure after a committed owner fee
// is handled.
type Policy int

const (
	// PolicyAtomic runs both transfers in one ledger transaction: a
	// failure anywhere rolls back everything.
	PolicyAtomic Policy = iota
	// PolicyPartialCommit preserves the reference behavior: the owner fee
	// commits first and survives a later winner-transfer failure.
	PolicyPartialCommit
)

// ParsePolicy parses a policy name from configuration.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "atomic", "":
		return PolicyAtomic, nil
	case "partial-commit":
		return PolicyPartialCommit, nil
	default:
		return PolicyAtomic, fmt.Errorf("unknown payout policy %q", s)
	}
}

// String returns the configuration name of the policy.
func (p Policy) String() string {
	if p == PolicyPartialCommit {
		return "partial-commit"
	}
	return "atomic"
}

// TransferFailedError reports a failed fund transfer with the intended
// recipient and amount.
type TransferFailedError struct {
	Recipient domain.Address
	Amount    *uint256.Int
	Err       error
}

func (e *TransferFailedError) Error() string {
	return fmt.Sprintf("transfer of %s wei to %s failed: %v", e.Amount.Dec(), e.Recipient, e.Err)
}

func (e *TransferFailedError) Unwrap() error {
	return e.Err
}

// Receipt reports the amounts moved by a distribution attempt.
type Receipt struct {
	OwnerFee     *uint256.Int
	WinnerAmount *uint256.Int
	// OwnerFeeCommitted is true when the owner fee survived the attempt.
	// Under PolicyAtomic it matches overall success; under
	// PolicyPartialCommit it can be true even when the winner transfer
	// failed.
	OwnerFeeCommitted bool
}

// Engine distributes a raffle pool between owner and winner.
type Engine struct {
	ledger storage.Ledger
	policy Policy
}

// NewEngine creates a payout engine over the given ledger.
func NewEngine(ledger storage.Ledger, policy Policy) *Engine {
	return &Engine{ledger: ledger, policy: policy}
}

// Policy returns the engine's failure policy.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Distribute pays the owner fee and then the remaining pool balance to the
// winner. The fee is ownerFeePercent of the pool balance with integer
// truncation; the winner amount is the balance left after the fee
// transfer, recomputed rather than derived.
func (e *Engine) Distribute(ctx context.Context, pool, owner, winner domain.Address) (Receipt, error) {
	if e == nil || e.ledger == nil {
		return Receipt{}, fmt.Errorf("payout ledger is not configured")
	}

	if e.policy == PolicyAtomic {
		var receipt Receipt
		err := e.ledger.Atomic(ctx, func(tx storage.Ledger) error {
			var innerErr error
			receipt, innerErr = distribute(ctx, tx, pool, owner, winner)
			return innerErr
		})
		if err != nil {
			// Nothing committed, including the owner fee.
			receipt.OwnerFeeCommitted = false
			return receipt, err
		}
		return receipt, nil
	}

	return distribute(ctx, e.ledger, pool, owner, winner)
}

func distribute(ctx context.Context, ledger storage.Ledger, pool, owner, winner domain.Address) (Receipt, error) {
	balance, err := ledger.Balance(ctx, pool)
	if err != nil {
		return Receipt{}, fmt.Errorf("read pool balance: %w", err)
	}

	fee := new(uint256.Int).Mul(balance, uint256.NewInt(ownerFeePercent))
	fee.Div(fee, uint256.NewInt(100))

	if err := ledger.Transfer(ctx, pool, owner, fee); err != nil {
		return Receipt{}, &TransferFailedError{Recipient: owner, Amount: fee, Err: err}
	}

	remaining, err := ledger.Balance(ctx, pool)
	if err != nil {
		return Receipt{OwnerFee: fee, OwnerFeeCommitted: true}, fmt.Errorf("read remaining pool balance: %w", err)
	}
	if err := ledger.Transfer(ctx, pool, winner, remaining); err != nil {
		return Receipt{OwnerFee: fee, OwnerFeeCommitted: true},
			&TransferFailedError{Recipient: winner, Amount: remaining, Err: err}
	}

	return Receipt{OwnerFee: fee, WinnerAmount: remaining, OwnerFeeCommitted: true}, nil
}
