package memory

import (
	"context"
	"sync"

	"github.com/holiman/uint256"

	"github.com/0xGIDHUB/raffle-engine/internal/raffle/domain"
	"github.com/0xGIDHUB/raffle-engine/internal/storage"
)

// Ledger is an in-memory wei ledger. Atomic stages mutations on a copy of
// the balance table and commits only when fn succeeds.
type Ledger struct {
	mu       sync.Mutex
	balances map[domain.Address]*uint256.Int
}

// NewLedger creates an empty in-memory ledger.
func NewLedger() *Ledger {
	return &Ledger{balances: map[domain.Address]*uint256.Int{}}
}

// Balance returns the balance of addr, zero for unknown accounts.
func (l *Ledger) Balance(ctx context.Context, addr domain.Address) (*uint256.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return balanceOf(l.balances, addr), nil
}

// Deposit credits amount to addr.
func (l *Ledger) Deposit(ctx context.Context, addr domain.Address, amount *uint256.Int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	deposit(l.balances, addr, amount)
	return nil
}

// Transfer moves amount from one account to another.
func (l *Ledger) Transfer(ctx context.Context, from, to domain.Address, amount *uint256.Int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return transfer(l.balances, from, to, amount)
}

// Atomic runs fn against a staged copy of the balance table and commits the
// copy only when fn returns nil.
func (l *Ledger) Atomic(ctx context.Context, fn func(storage.Ledger) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	staged := make(map[domain.Address]*uint256.Int, len(l.balances))
	for addr, balance := range l.balances {
		staged[addr] = balance.Clone()
	}

	if err := fn(&txLedger{balances: staged}); err != nil {
		return err
	}
	l.balances = staged
	return nil
}

// txLedger is the transactional view handed to Atomic callbacks. It shares
// no state with the committed table until the callback succeeds.
type txLedger struct {
	balances map[domain.Address]*uint256.Int
}

func (t *txLedger) Balance(ctx context.Context, addr domain.Address) (*uint256.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return balanceOf(t.balances, addr), nil
}

func (t *txLedger) Deposit(ctx context.Context, addr domain.Address, amount *uint256.Int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	deposit(t.balances, addr, amount)
	return nil
}

func (t *txLedger) Transfer(ctx context.Context, from, to domain.Address, amount *uint256.Int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return transfer(t.balances, from, to, amount)
}

func (t *txLedger) Atomic(ctx context.Context, fn func(storage.Ledger) error) error {
	return fn(t)
}

func balanceOf(balances map[domain.Address]*uint256.Int, addr domain.Address) *uint256.Int {
	if balance, ok := balances[addr]; ok {
		return balance.Clone()
	}
	return uint256.NewInt(0)
}

func deposit(balances map[domain.Address]*uint256.Int, addr domain.Address, amount *uint256.Int) {
	if amount == nil {
		return
	}
	balance := balances[addr]
	if balance == nil {
		balance = uint256.NewInt(0)
		balances[addr] = balance
	}
	balance.Add(balance, amount)
}

func transfer(balances map[domain.Address]*uint256.Int, from, to domain.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return nil
	}
	balance := balances[from]
	if balance == nil || balance.Cmp(amount) < 0 {
		return storage.ErrInsufficientBalance
	}
	balance.Sub(balance, amount)
	deposit(balances, to, amount)
	return nil
}
