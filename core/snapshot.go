package core

import (
	"crypto/sha256"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// snapshotBid is one live bid in canonical snapshot order.
type snapshotBid struct {
	Bidder Bidder `cbor:"bidder"`
	Amount int    `cbor:"amount"`
}

// snapshotItem is one item's bids, in update order (earliest first).
type snapshotItem struct {
	Item Item          `cbor:"item"`
	Bids []snapshotBid `cbor:"bids"`
}

// Snapshot encodes every live bid together with the full recency ordering as
// canonical CBOR. Items appear least recently changed first and each item's
// bids appear in update order, so the bytes carry everything a restore needs
// to reproduce ranking and allocation behavior exactly.
func (a *Auction) Snapshot() ([]byte, error) {
	items := a.recency.items()
	snap := make([]snapshotItem, 0, len(items))
	for _, item := range items {
		entries := a.itemBids[item].entries()
		bids := make([]snapshotBid, len(entries))
		for i, entry := range entries {
			bids[i] = snapshotBid{Bidder: entry.bidder, Amount: entry.amount}
		}
		snap = append(snap, snapshotItem{Item: item, Bids: bids})
	}
	data, err := cbor.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// RestoreSnapshot replaces all ledger state with the contents of a snapshot
// previously produced by Snapshot. The mutation guard is bypassed: the bids
// were validated when the snapshot was taken. A snapshot that fails
// validation leaves the current state untouched.
func (a *Auction) RestoreSnapshot(data []byte) error {
	var snap []snapshotItem
	if err := cbor.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("failed to decode snapshot: %w", err)
	}
	seenItems := make(map[Item]bool, len(snap))
	for _, si := range snap {
		if seenItems[si.Item] {
			return fmt.Errorf("snapshot lists item %q twice", si.Item)
		}
		seenItems[si.Item] = true
		if len(si.Bids) == 0 {
			return fmt.Errorf("snapshot item %q has no bids", si.Item)
		}
		seenBidders := make(map[Bidder]bool, len(si.Bids))
		for _, sb := range si.Bids {
			if sb.Amount < 1 {
				return fmt.Errorf("snapshot bid by %q on %q has non-positive amount %d", sb.Bidder, si.Item, sb.Amount)
			}
			if seenBidders[sb.Bidder] {
				return fmt.Errorf("snapshot lists bidder %q twice on item %q", sb.Bidder, si.Item)
			}
			seenBidders[sb.Bidder] = true
		}
	}
	a.Clear()
	for _, si := range snap {
		a.recency.touch(si.Item)
		bids := newBidOrder()
		for _, sb := range si.Bids {
			bids.set(sb.Bidder, sb.Amount)
		}
		a.itemBids[si.Item] = bids
	}
	return nil
}

// Digest returns a hex SHA-256 fingerprint of the canonical snapshot, letting
// two processes compare ledger state without shipping it.
func (a *Auction) Digest() (string, error) {
	data, err := a.Snapshot()
	if err != nil {
		return "", err
	}
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash), nil
}
