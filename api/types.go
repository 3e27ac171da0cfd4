// Package api defines the JSON request and response types spoken by the
// bidpool server. The protocol is one-shot: a client sends a single request,
// half-closes the connection, and reads a single response.
package api

import "github.com/cloudx-io/bidpool/core"

// Request type strings understood by the server.
const (
	TypePing     = "ping"
	TypeBid      = "bid"
	TypeReplace  = "replace"
	TypeIncrease = "increase"
	TypeRemove   = "remove"
	TypeClear    = "clear"
	TypeWinner   = "winner"
	TypeAllBids  = "all_bids"
	TypeUserBids = "user_bids"
	TypeItemBids = "item_bids"
	TypeReserved = "reserved"
	TypeStatus   = "status"
)

// Request is the single request envelope. Type selects the operation; the
// remaining fields are filled in as that operation requires.
type Request struct {
	Type string `json:"type"`

	// User and Item address a bid. User is required for bid, replace,
	// increase, remove, user_bids, and reserved; Item for bid, replace,
	// increase, remove, and item_bids.
	User core.Bidder `json:"user,omitempty"`
	Item core.Item   `json:"item,omitempty"`

	// Amount is the bid amount for bid and replace, and the delta for
	// increase.
	Amount int `json:"amount,omitempty"`

	// AllowLowering bypasses the visible-lowering guard on replace.
	AllowLowering bool `json:"allow_lowering,omitempty"`
}

// ErrorResponse reports a failed request.
type ErrorResponse struct {
	Type    string `json:"type"` // always "error"
	Message string `json:"message"`
}

// PongResponse answers a ping.
type PongResponse struct {
	Type      string `json:"type"` // always "pong"
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// AckResponse acknowledges a successful mutation.
type AckResponse struct {
	Type string `json:"type"` // always "ok"
}

// RemoveResponse reports whether a bid existed to remove.
type RemoveResponse struct {
	Type    string `json:"type"` // always "ok"
	Removed bool   `json:"removed"`
}

// WinnerResponse carries the current winner. Winner is null when the ledger
// holds no bids.
type WinnerResponse struct {
	Type   string             `json:"type"` // always "winner"
	Winner *core.WinnerResult `json:"winner"`
}

// AllBidsResponse lists every live bid, plus the same bids in current
// ranking order (winner first).
type AllBidsResponse struct {
	Type    string                            `json:"type"` // always "all_bids"
	Bids    map[core.Item]map[core.Bidder]int `json:"bids"`
	Ranking []core.ItemBids                   `json:"ranking"`
}

// UserBidsResponse lists one user's live bids by item.
type UserBidsResponse struct {
	Type string            `json:"type"` // always "user_bids"
	User core.Bidder       `json:"user"`
	Bids map[core.Item]int `json:"bids"`
}

// ItemBidsResponse lists one item's live bids by user.
type ItemBidsResponse struct {
	Type string              `json:"type"` // always "item_bids"
	Item core.Item           `json:"item"`
	Bids map[core.Bidder]int `json:"bids"`
}

// ReservedResponse reports a user's money currently at risk in the auction
// and what the bank says they can still spend.
type ReservedResponse struct {
	Type      string      `json:"type"` // always "reserved"
	User      core.Bidder `json:"user"`
	Reserved  int         `json:"reserved"`
	Available int         `json:"available"`
}

// StatusResponse reports ledger shape and a state digest for cross-process
// comparison.
type StatusResponse struct {
	Type      string `json:"type"` // always "status"
	Items     int    `json:"items"`
	Digest    string `json:"digest"`
	Timestamp int64  `json:"timestamp"`
}
