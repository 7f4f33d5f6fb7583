package service

import (
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"fenrir/domain/book"
	entrywal "fenrir/infra/wal/entry"
	exitwal "fenrir/infra/wal/exit"
	"fenrir/snapshot"
)

type testEnv struct {
	svc      *BookService
	entryWAL *entrywal.WAL
	exitWAL  *exitwal.WAL
	walDir   string
	exitDir  string
	snapDir  string
	closed   bool
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	walDir := t.TempDir()
	exitDir := t.TempDir()
	snapDir := t.TempDir()
	return openEnv(t, walDir, exitDir, snapDir)
}

func openEnv(t *testing.T, walDir, exitDir, snapDir string) *testEnv {
	t.Helper()
	ew, err := entrywal.Open(entrywal.Config{Dir: walDir, SegmentSize: 1 << 20, SegmentDuration: time.Hour})
	if err != nil {
		t.Fatalf("entry wal: %v", err)
	}
	xw, err := exitwal.Open(exitDir)
	if err != nil {
		t.Fatalf("exit wal: %v", err)
	}
	log := slog.New(slog.DiscardHandler)
	env := &testEnv{
		svc:      New(log, "BTC-USD", ew, xw),
		entryWAL: ew,
		exitWAL:  xw,
		walDir:   walDir,
		exitDir:  exitDir,
		snapDir:  snapDir,
	}
	t.Cleanup(env.close)
	return env
}

func (e *testEnv) close() {
	if e.closed {
		return
	}
	e.closed = true
	_ = e.entryWAL.Close()
	_ = e.exitWAL.Close()
}

func TestPlaceAndMatch(t *testing.T) {
	env := newTestEnv(t)
	svc := env.svc

	sellID, err := svc.Place(book.Sell, 100, 10)
	if err != nil {
		t.Fatalf("place sell: %v", err)
	}
	buyID, err := svc.Place(book.Buy, 100, 10)
	if err != nil {
		t.Fatalf("place buy: %v", err)
	}
	if sellID == buyID {
		t.Fatal("order IDs must be unique")
	}

	if got := svc.MarketPrice(); got != 100 {
		t.Errorf("market price = %d, want 100", got)
	}

	// both orders are done, cancels must miss
	if err := svc.Cancel(sellID); err != ErrOrderNotFound {
		t.Errorf("cancel filled sell = %v, want ErrOrderNotFound", err)
	}
	if err := svc.Cancel(buyID); err != ErrOrderNotFound {
		t.Errorf("cancel filled buy = %v, want ErrOrderNotFound", err)
	}
}

func TestPlaceValidation(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.svc.Place(book.Buy, 10, 0); err != ErrInvalidQty {
		t.Errorf("zero qty = %v, want ErrInvalidQty", err)
	}
	if _, err := env.svc.Place(book.Buy, -1, 10); err != ErrInvalidPrice {
		t.Errorf("negative price = %v, want ErrInvalidPrice", err)
	}
}

func TestCancelRestingOrder(t *testing.T) {
	env := newTestEnv(t)
	svc := env.svc

	id, err := svc.Place(book.Buy, 10, 5)
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if err := svc.Cancel(id); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := svc.Cancel(id); err != ErrOrderNotFound {
		t.Errorf("second cancel = %v, want ErrOrderNotFound", err)
	}
	if d := svc.Depth(10); len(d.Bids) != 0 {
		t.Errorf("bids after cancel = %v, want empty", d.Bids)
	}
}

func TestTradeEventsReachOutbox(t *testing.T) {
	env := newTestEnv(t)
	svc := env.svc

	if _, err := svc.Place(book.Sell, 50, 10); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Place(book.Buy, 50, 4); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Place(book.Buy, 50, 6); err != nil {
		t.Fatal(err)
	}

	var events []TradeEvent
	err := env.exitWAL.ScanPending(func(rec *exitwal.Record) error {
		var ev TradeEvent
		if err := json.Unmarshal(rec.Payload, &ev); err != nil {
			return err
		}
		events = append(events, ev)
		return nil
	})
	if err != nil {
		t.Fatalf("scan outbox: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("outbox events = %d, want 2", len(events))
	}
	var qty int64
	for _, ev := range events {
		if ev.Symbol != "BTC-USD" || ev.Price != 50 || ev.EventID == "" {
			t.Errorf("event = %+v", ev)
		}
		qty += ev.Qty
	}
	if qty != 10 {
		t.Errorf("total traded qty = %d, want 10", qty)
	}
}

func TestDepthView(t *testing.T) {
	env := newTestEnv(t)
	svc := env.svc

	for _, o := range []struct {
		side       book.Side
		price, qty int64
	}{
		{book.Buy, 10, 100},
		{book.Buy, 10, 50},
		{book.Buy, 9, 30},
		{book.Sell, 12, 40},
	} {
		if _, err := svc.Place(o.side, o.price, o.qty); err != nil {
			t.Fatal(err)
		}
	}

	d := svc.Depth(1)
	if len(d.Bids) != 1 || len(d.Asks) != 1 {
		t.Fatalf("depth rows = %d/%d, want 1/1", len(d.Bids), len(d.Asks))
	}
	if d.Bids[0] != (PriceLevelView{Price: 10, Qty: 150, Orders: 2}) {
		t.Errorf("best bid = %+v", d.Bids[0])
	}
	if d.Asks[0] != (PriceLevelView{Price: 12, Qty: 40, Orders: 1}) {
		t.Errorf("best ask = %+v", d.Asks[0])
	}

	d = svc.Depth(10)
	if len(d.Bids) != 2 {
		t.Errorf("bid rows = %d, want 2", len(d.Bids))
	}
}

func TestRecoverFromLog(t *testing.T) {
	walDir := t.TempDir()
	exitDir := t.TempDir()
	snapDir := t.TempDir()

	env := openEnv(t, walDir, exitDir, snapDir)
	if _, err := env.svc.Place(book.Buy, 10, 100); err != nil {
		t.Fatal(err)
	}
	if _, err := env.svc.Place(book.Sell, 12, 40); err != nil {
		t.Fatal(err)
	}
	cancelID, err := env.svc.Place(book.Buy, 9, 5)
	if err != nil {
		t.Fatal(err)
	}
	if err := env.svc.Cancel(cancelID); err != nil {
		t.Fatal(err)
	}
	lastSeq := env.svc.LastCommandSeq()
	env.close()

	env2 := openEnv(t, walDir, t.TempDir(), snapDir)
	if err := env2.svc.Recover(walDir, snapDir); err != nil {
		t.Fatalf("recover: %v", err)
	}
	if env2.svc.LastCommandSeq() != lastSeq {
		t.Errorf("recovered seq = %d, want %d", env2.svc.LastCommandSeq(), lastSeq)
	}

	d := env2.svc.Depth(10)
	if len(d.Bids) != 1 || d.Bids[0].Price != 10 || d.Bids[0].Qty != 100 {
		t.Errorf("recovered bids = %v", d.Bids)
	}
	if len(d.Asks) != 1 || d.Asks[0].Price != 12 || d.Asks[0].Qty != 40 {
		t.Errorf("recovered asks = %v", d.Asks)
	}
}

func TestRecoverFromSnapshotAndTail(t *testing.T) {
	walDir := t.TempDir()
	exitDir := t.TempDir()
	snapDir := t.TempDir()

	env := openEnv(t, walDir, exitDir, snapDir)
	if _, err := env.svc.Place(book.Buy, 10, 100); err != nil {
		t.Fatal(err)
	}
	env.svc.snapshotOnce(&snapshot.Writer{Dir: snapDir})

	// commands after the snapshot watermark live only in the log
	if _, err := env.svc.Place(book.Sell, 15, 20); err != nil {
		t.Fatal(err)
	}
	env.close()

	env2 := openEnv(t, walDir, t.TempDir(), snapDir)
	if err := env2.svc.Recover(walDir, snapDir); err != nil {
		t.Fatalf("recover: %v", err)
	}

	d := env2.svc.Depth(10)
	if len(d.Bids) != 1 || d.Bids[0].Qty != 100 {
		t.Errorf("recovered bids = %v", d.Bids)
	}
	if len(d.Asks) != 1 || d.Asks[0].Price != 15 {
		t.Errorf("recovered asks = %v", d.Asks)
	}

	// replayed trades must not re-enter the outbox
	count := 0
	_ = env2.exitWAL.ScanPending(func(*exitwal.Record) error {
		count++
		return nil
	})
	if count != 0 {
		t.Errorf("outbox events after recovery = %d, want 0", count)
	}
}

func TestRecoveredCancelStillWorks(t *testing.T) {
	walDir := t.TempDir()
	snapDir := t.TempDir()

	env := openEnv(t, walDir, t.TempDir(), snapDir)
	id, err := env.svc.Place(book.Buy, 10, 100)
	if err != nil {
		t.Fatal(err)
	}
	env.close()

	env2 := openEnv(t, walDir, t.TempDir(), snapDir)
	if err := env2.svc.Recover(walDir, snapDir); err != nil {
		t.Fatalf("recover: %v", err)
	}
	if err := env2.svc.Cancel(id); err != nil {
		t.Errorf("cancel recovered order: %v", err)
	}
}

func TestShutdownDrainsBook(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.svc.Place(book.Buy, 10, 100); err != nil {
		t.Fatal(err)
	}
	if _, err := env.svc.Place(book.Sell, 20, 100); err != nil {
		t.Fatal(err)
	}
	env.svc.Shutdown()

	d := env.svc.Depth(10)
	if len(d.Bids) != 0 || len(d.Asks) != 0 {
		t.Errorf("depth after shutdown = %+v", d)
	}
}
