package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// allocateCharge splits totalCharge between the winning item's bidders in
// proportion to their bid amounts, keeping the exact sum despite integer
// rounding.
//
// Each bidder's provisional share is ceil(totalCharge * amount / totalBid),
// so every contributor owes at least 1 unit and larger bids are charged
// proportionally more. Ceiling can over-collect; the surplus is handed back
// one unit per bidder following the discount policy until the sum is exact.
// Under DiscountEarliest the walk visits the largest and earliest-updated
// bidders first, so they keep the discount.
//
// The result sums to totalCharge, every share is non-negative, and no bidder
// owes more than they bid. bids must be in update order, earliest first, and
// must not be empty.
func allocateCharge(bids []bidEntry, totalBid, totalCharge int, policy DiscountPolicy) map[Bidder]int {
	// Largest amounts first. The sort is stable, so bidders tying on
	// amount stay in update order, earliest first.
	entries := make([]bidEntry, len(bids))
	copy(entries, bids)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].amount > entries[j].amount
	})

	// Decimal arithmetic keeps the share product exact; the intermediate
	// totalCharge*amount can exceed the machine integer range.
	total := decimal.NewFromInt(int64(totalBid))
	charge := decimal.NewFromInt(int64(totalCharge))
	owed := make(map[Bidder]int, len(entries))
	overpaid := -totalCharge
	for _, entry := range entries {
		share := charge.Mul(decimal.NewFromInt(int64(entry.amount))).Div(total).Ceil()
		owed[entry.bidder] = int(share.IntPart())
		overpaid += owed[entry.bidder]
	}

	if policy == DiscountLatest {
		for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
			entries[i], entries[j] = entries[j], entries[i]
		}
	}
	// One unit per visit; every provisional share is at least 1, and the
	// surplus is below the bidder count, so nobody can be pushed negative.
	for i := 0; overpaid > 0; i = (i + 1) % len(entries) {
		if owed[entries[i].bidder] > 0 {
			owed[entries[i].bidder]--
			overpaid--
		}
	}
	return owed
}
