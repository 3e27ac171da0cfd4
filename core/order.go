package core

import "container/list"

// bidEntry is one bidder's live bid on an item.
type bidEntry struct {
	bidder Bidder
	amount int
}

// bidOrder holds an item's bids as a map paired with a list of bidders in
// update order (least recently updated first). Touching a bidder by setting
// a new amount moves them to the end in constant time.
type bidOrder struct {
	elems map[Bidder]*list.Element
	order *list.List // of bidEntry
}

func newBidOrder() *bidOrder {
	return &bidOrder{
		elems: make(map[Bidder]*list.Element),
		order: list.New(),
	}
}

func (b *bidOrder) get(bidder Bidder) (int, bool) {
	elem, ok := b.elems[bidder]
	if !ok {
		return 0, false
	}
	return elem.Value.(bidEntry).amount, true
}

// set stores the bidder's amount and moves them to most-recently-updated.
func (b *bidOrder) set(bidder Bidder, amount int) {
	if elem, ok := b.elems[bidder]; ok {
		elem.Value = bidEntry{bidder: bidder, amount: amount}
		b.order.MoveToBack(elem)
		return
	}
	b.elems[bidder] = b.order.PushBack(bidEntry{bidder: bidder, amount: amount})
}

func (b *bidOrder) remove(bidder Bidder) bool {
	elem, ok := b.elems[bidder]
	if !ok {
		return false
	}
	b.order.Remove(elem)
	delete(b.elems, bidder)
	return true
}

func (b *bidOrder) len() int {
	return len(b.elems)
}

func (b *bidOrder) total() int {
	sum := 0
	for elem := b.order.Front(); elem != nil; elem = elem.Next() {
		sum += elem.Value.(bidEntry).amount
	}
	return sum
}

// entries returns the bids in update order, least recently updated first.
func (b *bidOrder) entries() []bidEntry {
	entries := make([]bidEntry, 0, b.order.Len())
	for elem := b.order.Front(); elem != nil; elem = elem.Next() {
		entries = append(entries, elem.Value.(bidEntry))
	}
	return entries
}

// amounts returns the bids as a plain map copy.
func (b *bidOrder) amounts() map[Bidder]int {
	bids := make(map[Bidder]int, len(b.elems))
	for elem := b.order.Front(); elem != nil; elem = elem.Next() {
		entry := elem.Value.(bidEntry)
		bids[entry.bidder] = entry.amount
	}
	return bids
}

// recencyTracker records the order in which items were last changed, least
// recently changed first. Items tying on total bid are ranked by this order,
// so the longest-standing leader keeps its edge on an exact tie.
type recencyTracker struct {
	elems map[Item]*list.Element
	order *list.List // of Item
}

func newRecencyTracker() *recencyTracker {
	return &recencyTracker{
		elems: make(map[Item]*list.Element),
		order: list.New(),
	}
}

// touch marks the item as most recently changed, inserting it if absent.
func (r *recencyTracker) touch(item Item) {
	if elem, ok := r.elems[item]; ok {
		r.order.MoveToBack(elem)
		return
	}
	r.elems[item] = r.order.PushBack(item)
}

func (r *recencyTracker) remove(item Item) {
	if elem, ok := r.elems[item]; ok {
		r.order.Remove(elem)
		delete(r.elems, item)
	}
}

func (r *recencyTracker) clear() {
	r.elems = make(map[Item]*list.Element)
	r.order.Init()
}

// positions returns each item's index in change order, oldest change first.
func (r *recencyTracker) positions() map[Item]int {
	positions := make(map[Item]int, len(r.elems))
	i := 0
	for elem := r.order.Front(); elem != nil; elem = elem.Next() {
		positions[elem.Value.(Item)] = i
		i++
	}
	return positions
}

// items returns the tracked items, least recently changed first.
func (r *recencyTracker) items() []Item {
	items := make([]Item, 0, r.order.Len())
	for elem := r.order.Front(); elem != nil; elem = elem.Next() {
		items = append(items, elem.Value.(Item))
	}
	return items
}
