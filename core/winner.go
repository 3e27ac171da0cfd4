package core

import "sort"

// rankedEntry pairs an item with its live bids and total for ranking.
type rankedEntry struct {
	item  Item
	bids  *bidOrder
	total int
}

// rankedEntries returns every item with live bids, best ranked first:
// highest total bid first, ties broken by the item least recently changed.
func (a *Auction) rankedEntries() []rankedEntry {
	positions := a.recency.positions()
	entries := make([]rankedEntry, 0, len(a.itemBids))
	for item, bids := range a.itemBids {
		entries = append(entries, rankedEntry{item: item, bids: bids, total: bids.total()})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].total != entries[j].total {
			return entries[i].total > entries[j].total
		}
		return positions[entries[i].item] < positions[entries[j].item]
	})
	return entries
}

// GetRankedBids returns all items with their bids in current ranking order,
// winner first.
func (a *Auction) GetRankedBids() []ItemBids {
	entries := a.rankedEntries()
	ranked := make([]ItemBids, len(entries))
	for i, entry := range entries {
		ranked[i] = ItemBids{Item: entry.item, Bids: entry.bids.amounts()}
	}
	return ranked
}

// ResolveWinner computes the item currently winning, the price its bidders
// actually owe, and how that price splits between them. Returns nil when
// there are no bids. Resolution is run fresh on every call and never stores
// state, so calling it twice without a mutation yields identical results.
//
// The price follows a second-price rule: the winner pays one unit more than
// the runner-up's total, capped at its own total. With no runner-up the
// second bid counts as 0, so an uncontested winner pays a single unit.
func (a *Auction) ResolveWinner() *WinnerResult {
	entries := a.rankedEntries()
	if len(entries) == 0 {
		return nil
	}
	winner := entries[0]
	secondBid := 0
	if len(entries) > 1 {
		secondBid = entries[1].total
	}
	totalCharge := secondBid + 1
	if totalCharge > winner.total {
		totalCharge = winner.total
	}
	return &WinnerResult{
		Item:        winner.item,
		TotalBid:    winner.total,
		TotalCharge: totalCharge,
		MoneyOwed:   allocateCharge(winner.bids.entries(), winner.total, totalCharge, a.policy),
	}
}
