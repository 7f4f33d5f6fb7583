package service

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TradeEvent is the outbox payload published for every execution.
// Seq is the outbox sequence, not the command sequence: events are
// their own ordered stream.
type TradeEvent struct {
	EventID      string    `json:"event_id"`
	Seq          uint64    `json:"seq"`
	Symbol       string    `json:"symbol"`
	Price        int64     `json:"price"`
	Qty          int64     `json:"qty"`
	TakerOrderID uint64    `json:"taker_order_id"`
	MakerOrderID uint64    `json:"maker_order_id"`
	Time         time.Time `json:"time"`
}

func (e *TradeEvent) fill(seq uint64, symbol string, price, qty int64, taker, maker uint64) {
	e.EventID = uuid.NewString()
	e.Seq = seq
	e.Symbol = symbol
	e.Price = price
	e.Qty = qty
	e.TakerOrderID = taker
	e.MakerOrderID = maker
	e.Time = time.Now().UTC()
}

func (e *TradeEvent) encode() ([]byte, error) {
	return json.Marshal(e)
}
