package core

import (
	"errors"
	"fmt"
)

// ErrInvalidAmount reports a bid amount below 1. Money is an indivisible
// integer unit, so zero and negative amounts are never valid.
var ErrInvalidAmount = errors.New("bid amount must be above 0")

// ErrAlreadyBid reports a place on a (bidder, item) pair that already holds a
// live bid. Use ReplaceBid or IncreaseBid instead.
var ErrAlreadyBid = errors.New("a bid from that user on that item already exists")

// ErrNoExistingBid reports a replace or increase on a (bidder, item) pair
// with no live bid.
var ErrNoExistingBid = errors.New("no bid from that user on that item to replace")

// ErrVisiblyLowered reports a decrease on the currently winning item that
// exceeds the gap between its total bid and its visible charge.
var ErrVisiblyLowered = errors.New("replacement would visibly lower the winning bid")

// InsufficientFundsError reports a bid the bidder cannot cover with their
// available money.
type InsufficientFundsError struct {
	// Needed is the net new money the operation would reserve.
	Needed int

	// Available is what the bank reported as spendable.
	Available int
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("can't afford to bid %d, only %d available", e.Needed, e.Available)
}
