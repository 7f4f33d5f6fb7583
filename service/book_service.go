package service

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"fenrir/domain/book"
	"fenrir/infra/memory"
	"fenrir/infra/sequence"
	entrywal "fenrir/infra/wal/entry"
	exitwal "fenrir/infra/wal/exit"
	"fenrir/snapshot"
)

var (
	ErrInvalidQty    = errors.New("quantity must be positive")
	ErrInvalidPrice  = errors.New("price must not be negative")
	ErrOrderNotFound = errors.New("order not found")
)

// BookService is the only write entry point into the engine. It owns
// the command log, the sequencers, the order registry and the book
// itself, and serializes every mutation behind one mutex.
//
// Commands are logged before they touch the book. The book's own
// event stream feeds the outbox, which the broadcaster drains
// asynchronously.
type BookService struct {
	mu sync.Mutex

	log      *slog.Logger
	book     *book.OrderBook
	seq      *sequence.Sequencer
	eventSeq *sequence.Sequencer
	entryWAL *entrywal.WAL
	exitWAL  *exitwal.WAL

	eventPool *memory.Pool[TradeEvent]

	orders map[uint64]*book.Order
	ids    map[*book.Order]uint64

	// restoring suppresses outbox writes while the log is replayed;
	// those trades were already published in the previous life
	restoring bool
}

func New(log *slog.Logger, symbol string, entryWAL *entrywal.WAL, exitWAL *exitwal.WAL) *BookService {
	s := &BookService{
		log:       log,
		seq:       sequence.New(0),
		eventSeq:  sequence.New(0),
		entryWAL:  entryWAL,
		exitWAL:   exitWAL,
		eventPool: memory.NewPool(func() *TradeEvent { return &TradeEvent{} }),
		orders:    make(map[uint64]*book.Order),
		ids:       make(map[*book.Order]uint64),
	}
	s.book = book.New(symbol, &engineListener{svc: s})
	return s
}

// Place logs and executes a new order command. It returns the order
// ID callers use to cancel later.
func (s *BookService) Place(side book.Side, price, qty int64) (uint64, error) {
	if qty <= 0 {
		return 0, ErrInvalidQty
	}
	if price < 0 {
		return 0, ErrInvalidPrice
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.seq.Next()
	cmd := entrywal.PlaceCommand{OrderID: id, Side: uint8(side), Price: price, Qty: qty}
	if err := s.entryWAL.Append(entrywal.NewRecord(entrywal.RecordPlace, id, cmd.Encode())); err != nil {
		return 0, err
	}

	o := book.NewOrder(side, price, qty)
	s.register(id, o)
	s.book.Place(o)

	// an incoming order that never rests leaves the registry now;
	// resting orders are unregistered by their lifecycle events
	if o.IsFullFilled() {
		s.unregister(o)
	}
	return id, nil
}

// Cancel logs and executes a cancel for a resting order.
func (s *BookService) Cancel(id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return ErrOrderNotFound
	}

	cmd := entrywal.CancelCommand{OrderID: id}
	seq := s.seq.Next()
	if err := s.entryWAL.Append(entrywal.NewRecord(entrywal.RecordCancel, seq, cmd.Encode())); err != nil {
		return err
	}

	s.book.Cancel(o)
	return nil
}

// Shutdown drains the book, cancelling every resting order.
func (s *BookService) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.book.Close()
}

func (s *BookService) Symbol() string { return s.book.Symbol() }

func (s *BookService) MarketPrice() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.MarketPrice()
}

func (s *BookService) Spread() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.Spread()
}

// PriceLevelView is one aggregated depth row for market data feeds.
type PriceLevelView struct {
	Price  int64 `json:"price"`
	Qty    int64 `json:"qty"`
	Orders int64 `json:"orders"`
}

// MarketDepth is a point-in-time copy of both sides of the book.
type MarketDepth struct {
	Symbol string           `json:"symbol"`
	Time   time.Time        `json:"time"`
	Bids   []PriceLevelView `json:"bids"`
	Asks   []PriceLevelView `json:"asks"`
}

// Depth copies up to maxLevels rows per side in priority order.
func (s *BookService) Depth(maxLevels int) MarketDepth {
	if maxLevels <= 0 {
		maxLevels = book.DefaultMaxLevel
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	collect := func(d *book.Depth) []PriceLevelView {
		out := make([]PriceLevelView, 0, maxLevels)
		d.Levels(func(lvl *book.DepthLevel) bool {
			out = append(out, PriceLevelView{
				Price:  lvl.Price,
				Qty:    lvl.TotalQty,
				Orders: lvl.OrderCount,
			})
			return len(out) < maxLevels
		})
		return out
	}

	return MarketDepth{
		Symbol: s.book.Symbol(),
		Time:   time.Now().UTC(),
		Bids:   collect(s.book.BidsDepth()),
		Asks:   collect(s.book.AsksDepth()),
	}
}

// LastCommandSeq returns the highest logged command sequence.
func (s *BookService) LastCommandSeq() uint64 {
	return s.seq.Current()
}

func (s *BookService) register(id uint64, o *book.Order) {
	s.orders[id] = o
	s.ids[o] = id
}

func (s *BookService) unregister(o *book.Order) {
	if id, ok := s.ids[o]; ok {
		delete(s.orders, id)
		delete(s.ids, o)
	}
}

// buildSnapshot captures every resting order. Caller holds the mutex.
func (s *BookService) buildSnapshot() *snapshot.Snapshot {
	snap := &snapshot.Snapshot{
		Seq:     s.seq.Current(),
		Created: time.Now().UTC(),
		Symbol:  s.book.Symbol(),
		Orders:  make([]snapshot.OrderEntry, 0, len(s.orders)),
	}

	add := func(o *book.Order) bool {
		snap.Orders = append(snap.Orders, snapshot.OrderEntry{
			ID:    s.ids[o],
			Side:  uint8(o.Side()),
			Price: o.Price(),
			Qty:   o.OpenQty(),
		})
		return true
	}
	s.book.WalkBids(add)
	s.book.WalkAsks(add)
	return snap
}

// engineListener bridges book events into the outbox and registry.
type engineListener struct {
	book.NopListener
	svc *BookService
}

func (l *engineListener) OnAccepted(o *book.Order) {
	l.svc.log.Debug("order accepted",
		"id", l.svc.ids[o], "side", o.Side().String(), "price", o.Price(), "qty", o.OpenQty())
}

func (l *engineListener) OnRejected(o *book.Order, reason string) {
	l.svc.log.Warn("order rejected", "id", l.svc.ids[o], "reason", reason)
	l.svc.unregister(o)
}

func (l *engineListener) OnCanceled(o *book.Order) {
	l.svc.log.Debug("order canceled", "id", l.svc.ids[o], "open_qty", o.OpenQty())
	l.svc.unregister(o)
}

func (l *engineListener) OnCancelRejected(o *book.Order, reason string) {
	l.svc.log.Warn("cancel rejected", "id", l.svc.ids[o], "reason", reason)
}

func (l *engineListener) OnMatched(incoming, resting *book.Order, price, qty int64) {
	svc := l.svc
	if svc.restoring {
		return
	}

	ev := svc.eventPool.Get()
	ev.fill(svc.eventSeq.Next(), svc.book.Symbol(), price, qty, svc.ids[incoming], svc.ids[resting])
	payload, err := ev.encode()
	seq := ev.Seq
	svc.eventPool.Put(ev)
	if err != nil {
		svc.log.Error("trade event encode failed", "err", err)
		return
	}

	if err := svc.exitWAL.PutNew(seq, payload); err != nil {
		svc.log.Error("outbox write failed", "seq", seq, "err", err)
	}
}

func (l *engineListener) OnFullFilled(o *book.Order) {
	l.svc.unregister(o)
}

func (l *engineListener) OnLastPriceChanged(price int64) {
	l.svc.log.Debug("last price", "price", price)
}
