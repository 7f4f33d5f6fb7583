// Package loadgen produces random order flow for benchmarks and
// demos.
package loadgen

import (
	"math/rand"

	"fenrir/domain/book"
)

const (
	maxPrice = 100
	maxQty   = 1000
)

// Generator emits random orders with prices in [1, 100) and
// quantities in [1, 1000). A fixed seed gives a reproducible stream.
type Generator struct {
	rand     *rand.Rand
	totalQty int64
}

func New(seed int64) *Generator {
	return &Generator{rand: rand.New(rand.NewSource(seed))}
}

// TotalQty is the open quantity handed out so far.
func (g *Generator) TotalQty() int64 {
	return g.totalQty
}

func (g *Generator) NextLimitOrder() *book.Order {
	side := book.Buy
	if g.rand.Intn(2) == 0 {
		side = book.Sell
	}
	return g.next(side, 1+g.rand.Int63n(maxPrice-1))
}

func (g *Generator) NextBuyLimitOrder() *book.Order {
	return g.next(book.Buy, 1+g.rand.Int63n(maxPrice-1))
}

func (g *Generator) NextSellLimitOrder() *book.Order {
	return g.next(book.Sell, 1+g.rand.Int63n(maxPrice-1))
}

func (g *Generator) NextBuyLimitOrderAt(price int64) *book.Order {
	return g.next(book.Buy, price)
}

func (g *Generator) NextSellLimitOrderAt(price int64) *book.Order {
	return g.next(book.Sell, price)
}

func (g *Generator) NextMarketOrder(side book.Side) *book.Order {
	return g.next(side, 0)
}

func (g *Generator) next(side book.Side, price int64) *book.Order {
	qty := 1 + g.rand.Int63n(maxQty-1)
	g.totalQty += qty
	return book.NewOrder(side, price, qty)
}
