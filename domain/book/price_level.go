package book

// priceLevel is the FIFO queue of resting orders at one price key.
// Orders link intrusively; unlink is by identity so cancel removes the
// exact instance, never a value twin.
type priceLevel struct {
	price int64
	head  *Order
	tail  *Order
}

func newPriceLevel(price int64) *priceLevel {
	return &priceLevel{price: price}
}

func (p *priceLevel) enqueue(o *Order) {
	if p.head == nil {
		p.head = o
		p.tail = o
	} else {
		p.tail.next = o
		o.prev = p.tail
		p.tail = o
	}
}

// unlink removes o from the queue. Returns false when o is not linked here.
func (p *priceLevel) unlink(o *Order) bool {
	found := false
	for n := p.head; n != nil; n = n.next {
		if n == o {
			found = true
			break
		}
	}
	if !found {
		return false
	}

	if o.prev != nil {
		o.prev.next = o.next
	} else {
		p.head = o.next
	}
	if o.next != nil {
		o.next.prev = o.prev
	} else {
		p.tail = o.prev
	}
	o.next = nil
	o.prev = nil
	return true
}

func (p *priceLevel) empty() bool { return p.head == nil }
