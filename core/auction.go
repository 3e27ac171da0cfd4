// Package core resolves collaborative "up-to" bidding: any number of users
// each bid the most they are willing to pay toward winning exactly one of
// several competing items, and the engine bids on their behalf to secure the
// lowest price possible. Bids on the same item combine, so several small
// bidders can beat a larger single bid; the winning side pays a second price,
// one unit more than the runner-up's total, split proportionally between its
// bidders.
//
// All money is an arbitrary indivisible integer unit of currency. The engine
// never stores balances; it checks affordability against an external bank
// and exposes its own reservations back to it.
//
// The engine is synchronous and not safe for concurrent use. Callers
// embedding it in a concurrent environment must serialize all mutations and
// winner reads on the same instance behind a single mutual-exclusion scope:
// the lowering guard reads winner state that a concurrent mutation could
// invalidate.
package core

// Auction tracks every live bid, resolves the current winner, and guards
// mutations against overspending and visible price changes. Only one item
// can win.
type Auction struct {
	bank     Bank
	itemBids map[Item]*bidOrder
	recency  *recencyTracker
	policy   DiscountPolicy

	cancelReserved func()
}

// Option configures an Auction at construction.
type Option func(*Auction)

// WithDiscountPolicy selects who absorbs the allocator's rounding discount.
func WithDiscountPolicy(policy DiscountPolicy) Option {
	return func(a *Auction) {
		a.policy = policy
	}
}

// NewAuction creates an empty auction checking money against the given bank.
// If the bank also implements ReservedFundsRegistry, the auction registers
// its reserved-money checker with it; Close must be called before the
// auction is discarded, or the bank is left querying a dangling checker.
func NewAuction(bank Bank, opts ...Option) *Auction {
	a := &Auction{
		bank:     bank,
		itemBids: make(map[Item]*bidOrder),
		recency:  newRecencyTracker(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if registry, ok := bank.(ReservedFundsRegistry); ok {
		a.cancelReserved = registry.RegisterReservedFunds(a.GetReservedMoney)
	}
	return a
}

// Close deregisters the auction's reserved-money checker from the bank.
// Safe to call more than once.
func (a *Auction) Close() {
	if a.cancelReserved != nil {
		a.cancelReserved()
		a.cancelReserved = nil
	}
}

// ReplaceOption configures a single replace operation.
type ReplaceOption func(*replaceConfig)

type replaceConfig struct {
	allowVisibleLowering bool
}

// AllowVisibleLowering disables the headroom guard for one replace call,
// for callers that do not need visible-price stability.
func AllowVisibleLowering() ReplaceOption {
	return func(cfg *replaceConfig) {
		cfg.allowVisibleLowering = true
	}
}

// PlaceBid creates a new bid from the bidder on the item.
// Fails with ErrAlreadyBid if the bidder already has a live bid on the item.
func (a *Auction) PlaceBid(bidder Bidder, item Item, amount int) error {
	return a.handleBid(bidder, item, amount, false, false)
}

// ReplaceBid overwrites the bidder's existing bid on the item.
// Fails with ErrNoExistingBid if there is no bid to replace. Replacing a bid
// with its current amount is a successful no-op and does not count as an
// update for recency purposes.
func (a *Auction) ReplaceBid(bidder Bidder, item Item, amount int, opts ...ReplaceOption) error {
	var cfg replaceConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return a.handleBid(bidder, item, amount, true, cfg.allowVisibleLowering)
}

// IncreaseBid adds delta onto the bidder's existing bid on the item,
// equivalent to replacing it with the current amount plus delta.
// Fails with ErrNoExistingBid if there is no bid to increase.
func (a *Auction) IncreaseBid(bidder Bidder, item Item, delta int) error {
	current := 0
	if bids, ok := a.itemBids[item]; ok {
		current, _ = bids.get(bidder)
	}
	return a.handleBid(bidder, item, current+delta, true, false)
}

// handleBid validates a bid against the mutation guard and applies it.
// Every rejection leaves the ledger untouched.
func (a *Auction) handleBid(bidder Bidder, item Item, amount int, replace, allowVisibleLowering bool) error {
	if amount < 1 {
		return ErrInvalidAmount
	}
	previous := 0
	hasPrevious := false
	if bids, ok := a.itemBids[item]; ok {
		previous, hasPrevious = bids.get(bidder)
	}
	if !replace && hasPrevious {
		return ErrAlreadyBid
	}
	if replace && !hasPrevious {
		return ErrNoExistingBid
	}
	if replace && previous == amount {
		// No change. Must not count as an update for recency purposes.
		return nil
	}

	// The previous amount is already reserved, so only the net new money
	// has to be available.
	needed := amount
	if replace {
		needed -= previous
	}
	available := a.bank.GetAvailableMoney(bidder)
	if needed > available {
		return &InsufficientFundsError{Needed: needed, Available: available}
	}

	if replace && amount < previous && !allowVisibleLowering {
		// TotalCharge is the publicly visible price. A decrease on the
		// leading item may consume at most the headroom above it; anything
		// more would retroactively change a price bidders already observed.
		// Lowering a bid on a non-leading item is always safe.
		if winner := a.ResolveWinner(); winner != nil && winner.Item == item {
			headroom := winner.TotalBid - winner.TotalCharge
			if previous-amount > headroom {
				return ErrVisiblyLowered
			}
		}
	}

	a.recency.touch(item)
	bids, ok := a.itemBids[item]
	if !ok {
		bids = newBidOrder()
		a.itemBids[item] = bids
	}
	bids.set(bidder, amount)
	return nil
}

// RemoveBid deletes the bidder's bid on the item and reports whether one
// existed. An item left with no bids disappears from the auction entirely.
func (a *Auction) RemoveBid(bidder Bidder, item Item) bool {
	bids, ok := a.itemBids[item]
	if !ok {
		return false
	}
	if !bids.remove(bidder) {
		return false
	}
	if bids.len() > 0 {
		a.recency.touch(item)
	} else {
		delete(a.itemBids, item)
		a.recency.remove(item)
	}
	return true
}

// Clear removes all bids and recency data. Every bidder's reserved money
// drops to 0.
func (a *Auction) Clear() {
	a.itemBids = make(map[Item]*bidOrder)
	a.recency.clear()
}

// GetBidsForUser returns the bidder's live bids as item to amount.
func (a *Auction) GetBidsForUser(bidder Bidder) map[Item]int {
	bids := make(map[Item]int)
	for item, itemBids := range a.itemBids {
		if amount, ok := itemBids.get(bidder); ok {
			bids[item] = amount
		}
	}
	return bids
}

// GetBidsForItem returns the item's live bids as bidder to amount.
func (a *Auction) GetBidsForItem(item Item) map[Bidder]int {
	bids, ok := a.itemBids[item]
	if !ok {
		return map[Bidder]int{}
	}
	return bids.amounts()
}

// GetAllBids returns every live bid as item to bidder to amount.
func (a *Auction) GetAllBids() map[Item]map[Bidder]int {
	all := make(map[Item]map[Bidder]int, len(a.itemBids))
	for item, bids := range a.itemBids {
		all[item] = bids.amounts()
	}
	return all
}

// GetReservedMoney returns the amount of money the bidder has tied up in
// this auction: the sum of their live bids across all items. No more than
// this will ever be charged without further action from the bidder.
func (a *Auction) GetReservedMoney(bidder Bidder) int {
	total := 0
	for _, bids := range a.itemBids {
		if amount, ok := bids.get(bidder); ok {
			total += amount
		}
	}
	return total
}
