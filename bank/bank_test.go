package bank

import (
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/cloudx-io/bidpool/core"
)

func TestMemoryBank_StartingBalance(t *testing.T) {
	bank := NewMemoryBank()
	check.Equal(t, DefaultStartingBalance, bank.GetTotalMoney("alice"))
	check.Equal(t, DefaultStartingBalance, bank.GetAvailableMoney("alice"))

	small := NewMemoryBank(WithStartingBalance(100))
	check.Equal(t, 100, small.GetTotalMoney("bob"))
	check.Equal(t, 100, small.GetAvailableMoney("bob"))
}

func TestMemoryBank_ReservedCheckers(t *testing.T) {
	bank := NewMemoryBank(WithStartingBalance(100))

	cancel := bank.RegisterReservedFunds(func(bidder core.Bidder) int {
		if bidder == "alice" {
			return 30
		}
		return 0
	})
	check.Equal(t, 30, bank.GetReservedMoney("alice"))
	check.Equal(t, 70, bank.GetAvailableMoney("alice"))
	check.Equal(t, 100, bank.GetAvailableMoney("bob"))

	// Checkers sum across systems.
	cancelSecond := bank.RegisterReservedFunds(func(core.Bidder) int { return 5 })
	check.Equal(t, 35, bank.GetReservedMoney("alice"))
	check.Equal(t, 5, bank.GetReservedMoney("bob"))

	cancelSecond()
	check.Equal(t, 30, bank.GetReservedMoney("alice"))

	cancel()
	cancel() // safe to call more than once
	check.Equal(t, 0, bank.GetReservedMoney("alice"))
	check.Equal(t, 100, bank.GetAvailableMoney("alice"))
}

func TestMemoryBank_Adjust(t *testing.T) {
	bank := NewMemoryBank(WithStartingBalance(100))

	tx := bank.Adjust("alice", -40, "auction charge")
	check.NotEqual(t, "", tx.ID)
	check.Equal(t, core.Bidder("alice"), tx.Bidder)
	check.Equal(t, -40, tx.Change)
	check.Equal(t, 100, tx.OldBalance)
	check.Equal(t, 60, tx.NewBalance)
	check.Equal(t, "auction charge", tx.Reason)
	check.False(t, tx.Timestamp.IsZero())
	check.Equal(t, 60, bank.GetTotalMoney("alice"))

	second := bank.Adjust("alice", 15, "refund")
	check.NotEqual(t, tx.ID, second.ID)
	check.Equal(t, 75, bank.GetTotalMoney("alice"))

	txs := bank.Transactions()
	assert.Equal(t, 2, len(txs))
	check.Equal(t, tx.ID, txs[0].ID)
	check.Equal(t, second.ID, txs[1].ID)

	// Returned slice is a copy.
	txs[0].Change = 0
	check.Equal(t, -40, bank.Transactions()[0].Change)
}

func TestMemoryBank_AuctionIntegration(t *testing.T) {
	bank := NewMemoryBank(WithStartingBalance(100))
	auction := core.NewAuction(bank)

	assert.NoError(t, auction.PlaceBid("alice", "pepsiman", 60))
	check.Equal(t, 60, bank.GetReservedMoney("alice"))
	check.Equal(t, 40, bank.GetAvailableMoney("alice"))

	// The engine checks against the bank: a second item can only take what
	// is left.
	check.Error(t, auction.PlaceBid("alice", "katamari", 41))
	assert.NoError(t, auction.PlaceBid("alice", "katamari", 40))
	check.Equal(t, 0, bank.GetAvailableMoney("alice"))

	// Close deregisters the engine's checker; the reservation disappears.
	auction.Close()
	check.Equal(t, 0, bank.GetReservedMoney("alice"))
	check.Equal(t, 100, bank.GetAvailableMoney("alice"))
}
