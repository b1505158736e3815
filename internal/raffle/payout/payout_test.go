package payout

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/holiman/uint256"

	"github.com/0xGIDHUB/raffle-engine/internal/raffle/domain"
	"github.com/0xGIDHUB/raffle-engine/internal/storage"
	"github.com/0xGIDHUB/raffle-engine/internal/storage/memory"
)

const (
	pool   = domain.Address("0x0000000000000000000000000000000000000001")
	owner  = domain.Address("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	winner = domain.Address("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
)

// blockedLedger refuses transfers to one recipient, simulating an account
// that cannot receive funds.
type blockedLedger struct {
	inner   storage.Ledger
	blocked domain.Address
}

func (b *blockedLedger) Balance(ctx context.Context, addr domain.Address) (*uint256.Int, error) {
	return b.inner.Balance(ctx, addr)
}

func (b *blockedLedger) Deposit(ctx context.Context, addr domain.Address, amount *uint256.Int) error {
	return b.inner.Deposit(ctx, addr, amount)
}

func (b *blockedLedger) Transfer(ctx context.Context, from, to domain.Address, amount *uint256.Int) error {
	if to == b.blocked {
		return fmt.Errorf("recipient %s refuses funds", to)
	}
	return b.inner.Transfer(ctx, from, to, amount)
}

func (b *blockedLedger) Atomic(ctx context.Context, fn func(storage.Ledger) error) error {
	return b.inner.Atomic(ctx, func(tx storage.Ledger) error {
		return fn(&blockedLedger{inner: tx, blocked: b.blocked})
	})
}

func fundedLedger(t *testing.T, balance uint64) *memory.Ledger {
	t.Helper()
	ledger := memory.NewLedger()
	if err := ledger.Deposit(context.Background(), pool, uint256.NewInt(balance)); err != nil {
		t.Fatalf("fund pool: %v", err)
	}
	return ledger
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{in: "", want: PolicyAtomic},
		{in: "atomic", want: PolicyAtomic},
		{in: "partial-commit", want: PolicyPartialCommit},
		{in: "bogus", wantErr: true},
	}
	for _, tc := range tests {
		got, err := ParsePolicy(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParsePolicy(%q) succeeded, want error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParsePolicy(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParsePolicy(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestDistributeSplitsTenPercentTruncating(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		balance    uint64
		wantFee    uint64
		wantWinner uint64
	}{
		{name: "even split", balance: 100, wantFee: 10, wantWinner: 90},
		{name: "truncating fee", balance: 109, wantFee: 10, wantWinner: 99},
		{name: "sub-fee pool", balance: 9, wantFee: 0, wantWinner: 9},
		{name: "empty pool", balance: 0, wantFee: 0, wantWinner: 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ledger := fundedLedger(t, tc.balance)
			engine := NewEngine(ledger, PolicyAtomic)

			receipt, err := engine.Distribute(ctx, pool, owner, winner)
			if err != nil {
				t.Fatalf("distribute: %v", err)
			}
			if receipt.OwnerFee.Uint64() != tc.wantFee {
				t.Fatalf("owner fee = %d, want %d", receipt.OwnerFee.Uint64(), tc.wantFee)
			}
			if receipt.WinnerAmount.Uint64() != tc.wantWinner {
				t.Fatalf("winner amount = %d, want %d", receipt.WinnerAmount.Uint64(), tc.wantWinner)
			}

			ownerBalance, _ := ledger.Balance(ctx, owner)
			winnerBalance, _ := ledger.Balance(ctx, winner)
			poolBalance, _ := ledger.Balance(ctx, pool)
			if ownerBalance.Uint64() != tc.wantFee || winnerBalance.Uint64() != tc.wantWinner {
				t.Fatalf("balances owner=%d winner=%d, want %d/%d",
					ownerBalance.Uint64(), winnerBalance.Uint64(), tc.wantFee, tc.wantWinner)
			}
			if !poolBalance.IsZero() {
				t.Fatalf("pool balance = %d, want drained", poolBalance.Uint64())
			}
		})
	}
}

func TestDistributeOwnerFailureFailsWhole(t *testing.T) {
	ctx := context.Background()

	for _, policy := range []Policy{PolicyAtomic, PolicyPartialCommit} {
		t.Run(policy.String(), func(t *testing.T) {
			ledger := fundedLedger(t, 100)
			engine := NewEngine(&blockedLedger{inner: ledger, blocked: owner}, policy)

			receipt, err := engine.Distribute(ctx, pool, owner, winner)
			var transferErr *TransferFailedError
			if !errors.As(err, &transferErr) {
				t.Fatalf("error = %v, want *TransferFailedError", err)
			}
			if transferErr.Recipient != owner {
				t.Fatalf("failed recipient = %s, want owner", transferErr.Recipient)
			}
			if transferErr.Amount.Uint64() != 10 {
				t.Fatalf("failed amount = %d, want 10", transferErr.Amount.Uint64())
			}
			if receipt.OwnerFeeCommitted {
				t.Fatal("owner fee reported committed after owner failure")
			}

			poolBalance, _ := ledger.Balance(ctx, pool)
			if poolBalance.Uint64() != 100 {
				t.Fatalf("pool balance = %d, want untouched", poolBalance.Uint64())
			}
		})
	}
}

func TestDistributeWinnerFailureAtomicRollsBackFee(t *testing.T) {
	ctx := context.Background()
	ledger := fundedLedger(t, 100)
	engine := NewEngine(&blockedLedger{inner: ledger, blocked: winner}, PolicyAtomic)

	receipt, err := engine.Distribute(ctx, pool, owner, winner)
	var transferErr *TransferFailedError
	if !errors.As(err, &transferErr) {
		t.Fatalf("error = %v, want *TransferFailedError", err)
	}
	if transferErr.Recipient != winner {
		t.Fatalf("failed recipient = %s, want winner", transferErr.Recipient)
	}
	if transferErr.Amount.Uint64() != 90 {
		t.Fatalf("failed amount = %d, want remaining 90", transferErr.Amount.Uint64())
	}
	if receipt.OwnerFeeCommitted {
		t.Fatal("owner fee reported committed under atomic policy")
	}

	ownerBalance, _ := ledger.Balance(ctx, owner)
	poolBalance, _ := ledger.Balance(ctx, pool)
	if !ownerBalance.IsZero() {
		t.Fatalf("owner balance = %d, want fee rolled back", ownerBalance.Uint64())
	}
	if poolBalance.Uint64() != 100 {
		t.Fatalf("pool balance = %d, want fully restored", poolBalance.Uint64())
	}
}

func TestDistributeWinnerFailurePartialCommitKeepsFee(t *testing.T) {
	ctx := context.Background()
	ledger := fundedLedger(t, 100)
	engine := NewEngine(&blockedLedger{inner: ledger, blocked: winner}, PolicyPartialCommit)

	receipt, err := engine.Distribute(ctx, pool, owner, winner)
	var transferErr *TransferFailedError
	if !errors.As(err, &transferErr) {
		t.Fatalf("error = %v, want *TransferFailedError", err)
	}
	if !receipt.OwnerFeeCommitted {
		t.Fatal("owner fee should stay committed under partial-commit policy")
	}

	ownerBalance, _ := ledger.Balance(ctx, owner)
	poolBalance, _ := ledger.Balance(ctx, pool)
	if ownerBalance.Uint64() != 10 {
		t.Fatalf("owner balance = %d, want committed fee 10", ownerBalance.Uint64())
	}
	if poolBalance.Uint64() != 90 {
		t.Fatalf("pool balance = %d, want undelivered remainder 90", poolBalance.Uint64())
	}
}

func TestDistributeLargePoolUsesFullPrecision(t *testing.T) {
	ctx := context.Background()
	ledger := memory.NewLedger()
	balance, err := uint256.FromDecimal("340282366920938463463374607431768211455")
	if err != nil {
		t.Fatalf("parse balance: %v", err)
	}
	if err := ledger.Deposit(ctx, pool, balance); err != nil {
		t.Fatalf("fund pool: %v", err)
	}
	engine := NewEngine(ledger, PolicyAtomic)

	receipt, err := engine.Distribute(ctx, pool, owner, winner)
	if err != nil {
		t.Fatalf("distribute: %v", err)
	}

	total := new(uint256.Int).Add(receipt.OwnerFee, receipt.WinnerAmount)
	if total.Cmp(balance) != 0 {
		t.Fatalf("fee %s + winner %s != pool %s",
			receipt.OwnerFee.Dec(), receipt.WinnerAmount.Dec(), balance.Dec())
	}
}
