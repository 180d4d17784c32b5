package custody

import (
	"context"
	"sync"

	"commerce-ledger/pkg/apperror"

	"github.com/google/uuid"
)

type holding struct {
	account uuid.UUID
	asset   string
}

// MemoryBank is an in-process ports.AssetBank holding per-account
// balances. It backs local development and the integration tests.
type MemoryBank struct {
	mu       sync.Mutex
	balances map[holding]int64
}

// NewMemoryBank creates an empty in-memory bank.
func NewMemoryBank() *MemoryBank {
	return &MemoryBank{balances: make(map[holding]int64)}
}

// Deposit seeds an account with funds.
func (b *MemoryBank) Deposit(account uuid.UUID, asset string, amount int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[holding{account, asset}] += amount
}

// BalanceOf returns an account's current holding in an asset.
func (b *MemoryBank) BalanceOf(account uuid.UUID, asset string) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balances[holding{account, asset}]
}

// Pull moves funds from the account into custody.
func (b *MemoryBank) Pull(_ context.Context, asset string, from uuid.UUID, amount int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := holding{from, asset}
	if b.balances[key] < amount {
		return apperror.ErrInsufficientBalance()
	}
	b.balances[key] -= amount
	return nil
}

// Push moves funds out of custody to the account.
func (b *MemoryBank) Push(_ context.Context, asset string, to uuid.UUID, amount int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[holding{to, asset}] += amount
	return nil
}
