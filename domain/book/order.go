package book

import "time"

type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "buy"
	}
	return "sell"
}

// Order is one buy or sell intent with its fill progress. Prices and
// quantities are minor units (8.88 -> 888). A price of 0 marks a market
// order. The book is the only mutator once an order is placed; callers
// keep the pointer purely as a handle for Cancel.
type Order struct {
	side      Side
	price     int64
	originQty int64
	openQty   int64
	createdAt int64
	updatedAt int64

	next *Order
	prev *Order
}

// NewOrder builds an order with qty still fully open. The caller is
// responsible for qty > 0; the book does not validate programmer errors.
func NewOrder(side Side, price, qty int64) *Order {
	now := time.Now().UnixNano()
	return &Order{
		side:      side,
		price:     price,
		originQty: qty,
		openQty:   qty,
		createdAt: now,
		updatedAt: now,
	}
}

// Fill consumes qty from the open quantity.
func (o *Order) Fill(qty int64) {
	o.openQty -= qty
	o.updatedAt = time.Now().UnixNano()
}

// IsLimit reports whether the order carries an explicit price.
func (o *Order) IsLimit() bool { return o.price != 0 }

// IsFullFilled reports whether nothing remains open.
func (o *Order) IsFullFilled() bool { return o.openQty == 0 }

func (o *Order) Side() Side       { return o.side }
func (o *Order) Price() int64     { return o.price }
func (o *Order) OriginQty() int64 { return o.originQty }
func (o *Order) OpenQty() int64   { return o.openQty }
func (o *Order) FilledQty() int64 { return o.originQty - o.openQty }
func (o *Order) CreatedAt() int64 { return o.createdAt }
func (o *Order) UpdatedAt() int64 { return o.updatedAt }
