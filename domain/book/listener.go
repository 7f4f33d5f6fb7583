package book

// Listener receives every state transition of an order book. The book
// borrows the listener; implementations decide what to do with events
// and must not call back into the book from a callback.
type Listener interface {
	// OnAccepted fires after validation, before matching starts.
	OnAccepted(order *Order)
	// OnRejected fires when an order is refused before matching.
	OnRejected(order *Order, reason string)
	// OnCanceled fires when a resting order is removed on request.
	OnCanceled(order *Order)
	// OnCancelRejected fires when the cancel target is not resting.
	OnCancelRejected(order *Order, reason string)
	// OnMatched fires once per execution.
	OnMatched(incoming, resting *Order, price, qty int64)
	// OnFullFilled fires when an order reaches zero open quantity.
	OnFullFilled(order *Order)
	// OnLastPriceChanged follows every OnMatched with the same price.
	OnLastPriceChanged(price int64)
}

// NopListener implements Listener with empty methods. Embed it to
// override callbacks selectively.
type NopListener struct{}

func (NopListener) OnAccepted(*Order)                       {}
func (NopListener) OnRejected(*Order, string)               {}
func (NopListener) OnCanceled(*Order)                       {}
func (NopListener) OnCancelRejected(*Order, string)         {}
func (NopListener) OnMatched(_, _ *Order, _, _ int64)       {}
func (NopListener) OnFullFilled(*Order)                     {}
func (NopListener) OnLastPriceChanged(int64)                {}
