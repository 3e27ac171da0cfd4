// Package bank provides in-memory funds custody for the bidding engine.
//
// Balances live entirely in memory with no persistence, which is enough for
// the auction core's contract: report available money, learn about in-memory
// reservations through registered checker functions, and record every
// balance adjustment as a transaction.
package bank

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cloudx-io/bidpool/core"
)

// DefaultStartingBalance is credited to an account on first use.
const DefaultStartingBalance = 50000

// ReservedFunc reports how much money a bidder has reserved in one system.
type ReservedFunc func(bidder core.Bidder) int

// Transaction records one balance adjustment.
type Transaction struct {
	ID         string      `json:"id"`
	Bidder     core.Bidder `json:"bidder"`
	Change     int         `json:"change"`
	OldBalance int         `json:"old_balance"`
	NewBalance int         `json:"new_balance"`
	Timestamp  time.Time   `json:"timestamp"`
	Reason     string      `json:"reason,omitempty"`
}

// MemoryBank keeps balances in memory. Reserved money is never stored; it is
// recomputed on demand by summing every registered checker, so systems like
// the auction engine can hold reservations without the bank tracking them.
//
// MemoryBank is safe for concurrent use as long as registered checkers are.
type MemoryBank struct {
	mu           sync.Mutex
	balances     map[core.Bidder]int
	transactions []Transaction
	starting     int

	checkerMu  sync.Mutex
	nextID int
	checkers   map[int]ReservedFunc
}

var (
	_ core.Bank                  = (*MemoryBank)(nil)
	_ core.ReservedFundsRegistry = (*MemoryBank)(nil)
)

// BankOption configures a MemoryBank at construction.
type BankOption func(*MemoryBank)

// WithStartingBalance overrides the balance credited to new accounts.
func WithStartingBalance(amount int) BankOption {
	return func(b *MemoryBank) {
		b.starting = amount
	}
}

// NewMemoryBank creates an empty bank. Accounts are created lazily with the
// starting balance on first access.
func NewMemoryBank(opts ...BankOption) *MemoryBank {
	b := &MemoryBank{
		balances: make(map[core.Bidder]int),
		starting: DefaultStartingBalance,
		checkers: make(map[int]ReservedFunc),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// RegisterReservedFunds adds a reserved-money checker. The returned cancel
// func removes it again and MUST be called before the owning system is
// discarded; a leftover checker makes every reservation query wrong. Cancel
// is safe to call more than once.
func (b *MemoryBank) RegisterReservedFunds(fn func(core.Bidder) int) (cancel func()) {
	b.checkerMu.Lock()
	defer b.checkerMu.Unlock()
	id := b.nextID
	b.nextID++
	b.checkers[id] = fn
	return func() {
		b.checkerMu.Lock()
		defer b.checkerMu.Unlock()
		delete(b.checkers, id)
	}
}

// GetTotalMoney returns everything the bidder has, including reserved money.
func (b *MemoryBank) GetTotalMoney(bidder core.Bidder) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stored(bidder)
}

// GetReservedMoney sums every registered checker for the bidder. Reserved
// money is committed elsewhere and not spendable right now.
func (b *MemoryBank) GetReservedMoney(bidder core.Bidder) int {
	b.checkerMu.Lock()
	checkers := make([]ReservedFunc, 0, len(b.checkers))
	for _, fn := range b.checkers {
		checkers = append(checkers, fn)
	}
	b.checkerMu.Unlock()

	// Checkers run outside the lock; they call back into foreign systems.
	reserved := 0
	for _, fn := range checkers {
		reserved += fn(bidder)
	}
	return reserved
}

// GetAvailableMoney returns what the bidder can spend right now: their total
// minus everything reserved. This is likely the method you were looking for.
func (b *MemoryBank) GetAvailableMoney(bidder core.Bidder) int {
	return b.GetTotalMoney(bidder) - b.GetReservedMoney(bidder)
}

// Adjust applies a balance change and records it as a transaction.
func (b *MemoryBank) Adjust(bidder core.Bidder, change int, reason string) Transaction {
	b.mu.Lock()
	oldBalance := b.stored(bidder)
	b.balances[bidder] = oldBalance + change
	tx := Transaction{
		ID:         uuid.NewString(),
		Bidder:     bidder,
		Change:     change,
		OldBalance: oldBalance,
		NewBalance: oldBalance + change,
		Timestamp:  time.Now().UTC(),
		Reason:     reason,
	}
	b.transactions = append(b.transactions, tx)
	b.mu.Unlock()

	log.Printf("INFO: Adjusted %s's balance by %+d (%d -> %d)", bidder, change, tx.OldBalance, tx.NewBalance)
	return tx
}

// Transactions returns a copy of every recorded transaction, oldest first.
func (b *MemoryBank) Transactions() []Transaction {
	b.mu.Lock()
	defer b.mu.Unlock()
	txs := make([]Transaction, len(b.transactions))
	copy(txs, b.transactions)
	return txs
}

// stored returns the bidder's balance, creating the account if needed.
// Callers must hold b.mu.
func (b *MemoryBank) stored(bidder core.Bidder) int {
	if _, ok := b.balances[bidder]; !ok {
		b.balances[bidder] = b.starting
	}
	return b.balances[bidder]
}
