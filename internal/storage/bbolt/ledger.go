// Package bbolt provides a BoltDB-backed wei ledger.
package bbolt

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/holiman/uint256"
	"go.etcd.io/bbolt"

	"github.com/0xGIDHUB/raffle-engine/internal/raffle/domain"
	"github.com/0xGIDHUB/raffle-engine/internal/storage"
)

const balancesBucket = "balances"

// Ledger provides a BoltDB-backed account ledger. Balances are stored as
// 32-byte big-endian values keyed by address.
type Ledger struct {
	db *bbolt.DB
}

// Open opens a BoltDB-backed ledger at the provided path.
func Open(path string) (*Ledger, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("ledger path is required")
	}

	cleanPath := filepath.Clean(path)
	db, err := bbolt.Open(cleanPath, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open ledger db: %w", err)
	}

	ledger := &Ledger{db: db}
	if err := ledger.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return ledger, nil
}

// Close closes the underlying BoltDB database.
func (l *Ledger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Balance returns the balance of addr, zero for unknown accounts.
func (l *Ledger) Balance(ctx context.Context, addr domain.Address) (*uint256.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l == nil || l.db == nil {
		return nil, fmt.Errorf("ledger is not configured")
	}

	balance := uint256.NewInt(0)
	err := l.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(balancesBucket))
		if bucket == nil {
			return fmt.Errorf("balances bucket is missing")
		}
		if raw := bucket.Get(balanceKey(addr)); raw != nil {
			balance.SetBytes(raw)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return balance, nil
}

// Deposit credits amount to addr.
func (l *Ledger) Deposit(ctx context.Context, addr domain.Address, amount *uint256.Int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if l == nil || l.db == nil {
		return fmt.Errorf("ledger is not configured")
	}

	return l.db.Update(func(tx *bbolt.Tx) error {
		return depositTx(tx, addr, amount)
	})
}

// Transfer moves amount from one account to another.
func (l *Ledger) Transfer(ctx context.Context, from, to domain.Address, amount *uint256.Int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if l == nil || l.db == nil {
		return fmt.Errorf("ledger is not configured")
	}

	return l.db.Update(func(tx *bbolt.Tx) error {
		return transferTx(tx, from, to, amount)
	})
}

// Atomic runs fn inside a single BoltDB write transaction, so every
// mutation fn performs commits together or not at all.
func (l *Ledger) Atomic(ctx context.Context, fn func(storage.Ledger) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if l == nil || l.db == nil {
		return fmt.Errorf("ledger is not configured")
	}

	return l.db.Update(func(tx *bbolt.Tx) error {
		return fn(&txLedger{tx: tx})
	})
}

func (l *Ledger) ensureBuckets() error {
	return l.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(balancesBucket)); err != nil {
			return fmt.Errorf("create balances bucket: %w", err)
		}
		return nil
	})
}

// txLedger exposes the storage.Ledger interface over one open write
// transaction for Atomic callbacks.
type txLedger struct {
	tx *bbolt.Tx
}

func (t *txLedger) Balance(ctx context.Context, addr domain.Address) (*uint256.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return balanceTx(t.tx, addr)
}

func (t *txLedger) Deposit(ctx context.Context, addr domain.Address, amount *uint256.Int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return depositTx(t.tx, addr, amount)
}

func (t *txLedger) Transfer(ctx context.Context, from, to domain.Address, amount *uint256.Int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return transferTx(t.tx, from, to, amount)
}

func (t *txLedger) Atomic(ctx context.Context, fn func(storage.Ledger) error) error {
	return fn(t)
}

func balanceTx(tx *bbolt.Tx, addr domain.Address) (*uint256.Int, error) {
	bucket := tx.Bucket([]byte(balancesBucket))
	if bucket == nil {
		return nil, fmt.Errorf("balances bucket is missing")
	}
	balance := uint256.NewInt(0)
	if raw := bucket.Get(balanceKey(addr)); raw != nil {
		balance.SetBytes(raw)
	}
	return balance, nil
}

func depositTx(tx *bbolt.Tx, addr domain.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return nil
	}
	balance, err := balanceTx(tx, addr)
	if err != nil {
		return err
	}
	balance.Add(balance, amount)
	return putBalance(tx, addr, balance)
}

func transferTx(tx *bbolt.Tx, from, to domain.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return nil
	}
	fromBalance, err := balanceTx(tx, from)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amount) < 0 {
		return storage.ErrInsufficientBalance
	}
	fromBalance.Sub(fromBalance, amount)
	if err := putBalance(tx, from, fromBalance); err != nil {
		return err
	}
	return depositTx(tx, to, amount)
}

func putBalance(tx *bbolt.Tx, addr domain.Address, balance *uint256.Int) error {
	bucket := tx.Bucket([]byte(balancesBucket))
	if bucket == nil {
		return fmt.Errorf("balances bucket is missing")
	}
	raw := balance.Bytes32()
	return bucket.Put(balanceKey(addr), raw[:])
}

func balanceKey(addr domain.Address) []byte {
	return []byte(addr)
}
