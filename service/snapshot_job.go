package service

import (
	"context"
	"time"

	"fenrir/snapshot"
)

// StartSnapshotJob periodically persists the book and garbage
// collects both logs behind the snapshot watermark.
func (s *BookService) StartSnapshotJob(ctx context.Context, dir string, interval time.Duration) {
	w := &snapshot.Writer{Dir: dir}

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.snapshotOnce(w)
			}
		}
	}()
}

func (s *BookService) snapshotOnce(w *snapshot.Writer) {
	s.mu.Lock()
	snap := s.buildSnapshot()
	s.mu.Unlock()

	if err := w.Write(snap); err != nil {
		s.log.Error("snapshot write failed", "err", err)
		return
	}
	s.log.Info("snapshot written", "seq", snap.Seq, "orders", len(snap.Orders))

	if err := s.entryWAL.TruncateBefore(snap.Seq); err != nil {
		s.log.Warn("entry wal truncate failed", "err", err)
	}
	if err := s.exitWAL.TruncateAckedUpTo(s.eventSeq.Current()); err != nil {
		s.log.Warn("exit wal gc failed", "err", err)
	}
}
