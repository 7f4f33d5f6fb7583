package exit

import (
	"bytes"
	"testing"
)

func openTestWAL(t *testing.T) *WAL {
	t.Helper()
	w, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func TestOutboxLifecycle(t *testing.T) {
	w := openTestWAL(t)

	if err := w.PutNew(1, []byte("hello")); err != nil {
		t.Fatalf("put: %v", err)
	}

	rec, err := w.Get(1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.State != StateNew || !bytes.Equal(rec.Payload, []byte("hello")) {
		t.Fatalf("record = %+v, want NEW with payload", rec)
	}

	if err := w.MarkSent(1); err != nil {
		t.Fatalf("mark sent: %v", err)
	}
	rec, _ = w.Get(1)
	if rec.State != StateSent || rec.Retries != 1 || rec.LastAttempt == 0 {
		t.Fatalf("after sent: %+v", rec)
	}

	if err := w.MarkAcked(1); err != nil {
		t.Fatalf("mark acked: %v", err)
	}
	rec, _ = w.Get(1)
	if rec.State != StateAcked {
		t.Fatalf("after ack: %+v", rec)
	}
}

func TestScanPendingSkipsAcked(t *testing.T) {
	w := openTestWAL(t)

	for seq := uint64(1); seq <= 4; seq++ {
		if err := w.PutNew(seq, []byte{byte(seq)}); err != nil {
			t.Fatalf("put %d: %v", seq, err)
		}
	}
	_ = w.MarkSent(2)
	_ = w.MarkSent(3)
	_ = w.MarkAcked(3)

	var seen []uint64
	err := w.ScanPending(func(rec *Record) error {
		seen = append(seen, rec.Seq)
		return nil
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	// 3 is acked; 2 is SENT and must be retried
	want := []uint64{1, 2, 4}
	if len(seen) != len(want) {
		t.Fatalf("pending = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("pending = %v, want %v", seen, want)
		}
	}
}

func TestTruncateAcked(t *testing.T) {
	w := openTestWAL(t)

	for seq := uint64(1); seq <= 3; seq++ {
		_ = w.PutNew(seq, nil)
		_ = w.MarkSent(seq)
		_ = w.MarkAcked(seq)
	}
	_ = w.PutNew(4, nil)

	if err := w.TruncateAckedUpTo(2); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	if _, err := w.Get(1); err == nil {
		t.Error("seq 1 should be gone")
	}
	if _, err := w.Get(3); err != nil {
		t.Error("seq 3 is above the watermark and must survive")
	}
	if _, err := w.Get(4); err != nil {
		t.Error("seq 4 is not acked and must survive")
	}
}

func TestStateStrings(t *testing.T) {
	if StateNew.String() != "NEW" || StateSent.String() != "SENT" || StateAcked.String() != "ACKED" {
		t.Error("unexpected state strings")
	}
	if State(9).String() != "UNKNOWN" {
		t.Error("out-of-range state should print UNKNOWN")
	}
}
