package service

import (
	"fmt"

	"fenrir/domain/book"
	entrywal "fenrir/infra/wal/entry"
	"fenrir/snapshot"
)

// Recover rebuilds in-memory state before the engine accepts traffic:
// the latest snapshot first, then every logged command after its
// watermark. The exit WAL is not replayed here; the broadcaster picks
// up whatever it left pending.
func (s *BookService) Recover(walDir, snapshotDir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.restoring = true
	defer func() { s.restoring = false }()

	var watermark uint64
	snap, err := snapshot.LoadLatest(snapshotDir)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	if snap != nil {
		if snap.Symbol != s.book.Symbol() {
			return fmt.Errorf("snapshot symbol %q does not match book %q", snap.Symbol, s.book.Symbol())
		}
		for _, e := range snap.Orders {
			o := book.NewOrder(book.Side(e.Side), e.Price, e.Qty)
			s.register(e.ID, o)
			s.book.Place(o)
		}
		watermark = snap.Seq
		s.log.Info("snapshot restored", "seq", snap.Seq, "orders", len(snap.Orders))
	}

	lastSeq, err := entrywal.Replay(walDir, func(rec *entrywal.Record) error {
		if rec.Seq <= watermark {
			return nil
		}
		return s.apply(rec)
	})
	if err != nil {
		return fmt.Errorf("wal replay: %w", err)
	}

	if lastSeq < watermark {
		lastSeq = watermark
	}
	s.seq.Reset(lastSeq)
	s.log.Info("recovery complete", "last_seq", lastSeq)
	return nil
}

func (s *BookService) apply(rec *entrywal.Record) error {
	switch rec.Type {
	case entrywal.RecordPlace:
		cmd, err := entrywal.DecodePlace(rec.Data)
		if err != nil {
			return err
		}
		o := book.NewOrder(book.Side(cmd.Side), cmd.Price, cmd.Qty)
		s.register(cmd.OrderID, o)
		s.book.Place(o)
		if o.IsFullFilled() {
			s.unregister(o)
		}
		return nil

	case entrywal.RecordCancel:
		cmd, err := entrywal.DecodeCancel(rec.Data)
		if err != nil {
			return err
		}
		// cancels for unknown orders are skipped, not fatal
		if o, ok := s.orders[cmd.OrderID]; ok {
			s.book.Cancel(o)
		}
		return nil

	default:
		return fmt.Errorf("unknown record type %d", rec.Type)
	}
}
