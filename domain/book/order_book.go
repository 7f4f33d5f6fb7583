package book

// OrderBook matches incoming orders against resting opposite-side orders
// under price-time priority and keeps the two Depth views in lock-step.
//
// Not safe for concurrent use: every call assumes exclusive access, and
// callers with concurrent producers must serialize externally (one owning
// goroutine or a mutex around each call). Distinct books share nothing.
type OrderBook struct {
	symbol   string
	listener Listener

	bids *rbTree[*priceLevel]
	asks *rbTree[*priceLevel]

	bidsDepth *Depth
	asksDepth *Depth

	// last executed price, 0 until the first trade
	marketPrice int64
}

// New builds an empty book for symbol. A nil listener falls back to the
// no-op default.
func New(symbol string, listener Listener) *OrderBook {
	if listener == nil {
		listener = NopListener{}
	}
	return &OrderBook{
		symbol:    symbol,
		listener:  listener,
		bids:      newRBTree[*priceLevel](bidLess),
		asks:      newRBTree[*priceLevel](askLess),
		bidsDepth: NewDepth(Buy),
		asksDepth: NewDepth(Sell),
	}
}

// Open is a lifecycle hook; the book needs no setup.
func (b *OrderBook) Open() {}

// Close drains the book by cancelling every resting order on both sides.
// The market price survives; only resting state is dropped.
func (b *OrderBook) Close() {
	resting := make([]*Order, 0, 64)
	b.WalkBids(func(o *Order) bool {
		resting = append(resting, o)
		return true
	})
	b.WalkAsks(func(o *Order) bool {
		resting = append(resting, o)
		return true
	})
	for _, o := range resting {
		b.Cancel(o)
	}
}

// Place validates the order, reports acceptance, then matches it against
// the opposite side. Whatever stays open after matching rests in the book.
func (b *OrderBook) Place(o *Order) {
	if o.IsFullFilled() {
		b.listener.OnRejected(o, "order is full filled")
		return
	}
	b.listener.OnAccepted(o)
	b.matchOrder(o)
}

// Cancel removes the exact resting order instance. A target that is not
// resting (already matched away, cancelled, or never placed) yields a
// cancel rejection and leaves the book untouched.
func (b *OrderBook) Cancel(o *Order) {
	side, depth := b.asks, b.asksDepth
	if o.side == Buy {
		side, depth = b.bids, b.bidsDepth
	}

	lvl, ok := side.get(o.price)
	if !ok || !lvl.unlink(o) {
		b.listener.OnCancelRejected(o, "no order found")
		return
	}
	if lvl.empty() {
		side.delete(o.price)
	}
	b.listener.OnCanceled(o)
	depth.OnOrderCancelled(o.price, o.openQty)
}

func (b *OrderBook) matchOrder(incoming *Order) {
	opposite, oppositeDepth := b.asks, b.asksDepth
	if incoming.side == Sell {
		opposite, oppositeDepth = b.bids, b.bidsDepth
	}

	// Walk the opposite side in priority order: market level first, then
	// best price first, FIFO within a level. Candidates skipped over an
	// unresolvable cross price stay resting and are not revisited.
	node := opposite.first()
	for node != nil && !incoming.IsFullFilled() {
		lvl := node.value
		for o := lvl.head; o != nil && !incoming.IsFullFilled(); {
			if !canExecute(incoming, o) {
				// Priority order guarantees no later candidate matches.
				b.rest(incoming)
				return
			}

			crossPrice, ok := b.resolveCrossPrice(incoming, o)
			if !ok {
				o = o.next
				continue
			}

			executeQty := min64(incoming.openQty, o.openQty)
			incoming.Fill(executeQty)
			o.Fill(executeQty)

			b.marketPrice = crossPrice
			b.listener.OnMatched(incoming, o, crossPrice, executeQty)
			b.listener.OnLastPriceChanged(crossPrice)

			if o.IsFullFilled() {
				next := o.next
				lvl.unlink(o)
				b.listener.OnFullFilled(o)
				oppositeDepth.OnOrderFullFilled(o.price, executeQty)
				o = next
			} else {
				oppositeDepth.OnOrderPartialFilled(o.price, executeQty)
			}
		}

		next := opposite.next(node)
		if lvl.empty() {
			opposite.delete(lvl.price)
		}
		node = next
	}

	if !incoming.IsFullFilled() {
		b.rest(incoming)
	}
}

// canExecute reports whether the two orders may trade on price. Equal
// prices always trade; a market order on either end trades at any price;
// otherwise the limit prices must cross.
func canExecute(incoming, opposite *Order) bool {
	if incoming.price == opposite.price {
		return true
	}
	if !incoming.IsLimit() || !opposite.IsLimit() {
		return true
	}
	if incoming.side == Buy {
		return incoming.price >= opposite.price
	}
	return incoming.price <= opposite.price
}

// resolveCrossPrice picks the executed trade price: the resting limit
// price wins, then the incoming limit price, then the last traded price.
// Two market orders with no traded price yet cannot resolve one.
func (b *OrderBook) resolveCrossPrice(incoming, opposite *Order) (int64, bool) {
	switch {
	case opposite.IsLimit():
		return opposite.price, true
	case incoming.IsLimit():
		return incoming.price, true
	case b.marketPrice > 0:
		return b.marketPrice, true
	default:
		return 0, false
	}
}

func (b *OrderBook) rest(o *Order) {
	side, depth := b.asks, b.asksDepth
	if o.side == Buy {
		side, depth = b.bids, b.bidsDepth
	}
	side.getOrCreate(o.price, func() *priceLevel {
		return newPriceLevel(o.price)
	}).enqueue(o)
	depth.OnOrderPlaced(o.price, o.openQty)
}

// Spread is the first ask price minus the first bid price in iteration
// order. An empty side contributes 0, and so does a side topped by a
// resting market order; one-sided books therefore yield degenerate
// (possibly negative) spreads on purpose.
func (b *OrderBook) Spread() int64 {
	return b.firstPrice(b.asks) - b.firstPrice(b.bids)
}

func (b *OrderBook) firstPrice(side *rbTree[*priceLevel]) int64 {
	n := side.first()
	if n == nil {
		return 0
	}
	return n.value.price
}

func (b *OrderBook) Symbol() string      { return b.symbol }
func (b *OrderBook) MarketPrice() int64  { return b.marketPrice }
func (b *OrderBook) BidsDepth() *Depth   { return b.bidsDepth }
func (b *OrderBook) AsksDepth() *Depth   { return b.asksDepth }

// WalkBids visits resting buy orders in priority order until fn returns
// false.
func (b *OrderBook) WalkBids(fn func(*Order) bool) {
	walkSide(b.bids, fn)
}

// WalkAsks visits resting sell orders in priority order until fn returns
// false.
func (b *OrderBook) WalkAsks(fn func(*Order) bool) {
	walkSide(b.asks, fn)
}

func walkSide(side *rbTree[*priceLevel], fn func(*Order) bool) {
	side.walk(func(_ int64, lvl *priceLevel) bool {
		for o := lvl.head; o != nil; o = o.next {
			if !fn(o) {
				return false
			}
		}
		return true
	})
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
