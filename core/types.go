package core

// Bidder identifies a bidding user. Bidders carry no attributes beyond identity.
type Bidder string

// Item identifies something that can be bid on.
type Item string

// DiscountPolicy selects which bidders the rounding discount is handed to
// when the proportional split over-collects.
type DiscountPolicy int

const (
	// DiscountEarliest hands the discount to the largest, earliest-updated
	// bidders first. This is the default.
	DiscountEarliest DiscountPolicy = iota

	// DiscountLatest hands the discount to the smallest, latest-updated
	// bidders first.
	DiscountLatest
)

// WinnerResult describes the item currently winning the auction.
type WinnerResult struct {
	// Item is the winning item.
	Item Item `json:"item"`

	// TotalBid is the combined maximum pledged on the winning item.
	TotalBid int `json:"total_bid"`

	// TotalCharge is the amount actually owed under the second-price rule.
	// It can be less than TotalBid if there is a gap to the runner-up.
	TotalCharge int `json:"total_charge"`

	// MoneyOwed maps each of the winning item's bidders to their share of
	// TotalCharge. The values sum to TotalCharge, and no bidder ever owes
	// more than they bid.
	MoneyOwed map[Bidder]int `json:"money_owed"`
}

// ItemBids pairs an item with its current bids. Used for ranked listings.
type ItemBids struct {
	Item Item           `json:"item"`
	Bids map[Bidder]int `json:"bids"`
}

// Bank is the funds-custody collaborator the auction checks money against.
// Available money is a bidder's balance minus everything reserved across all
// systems using that bidder's funds, including this auction.
type Bank interface {
	GetAvailableMoney(bidder Bidder) int
}

// ReservedFundsRegistry is implemented by banks that learn about in-memory
// reservations through registered checker functions. The returned cancel
// func removes the checker again; registrations left behind make the bank
// compute reservations against a dangling checker.
type ReservedFundsRegistry interface {
	RegisterReservedFunds(fn func(Bidder) int) (cancel func())
}
