package sequence

import "testing"

func TestSequencerMonotonic(t *testing.T) {
	s := New(0)
	for want := uint64(1); want <= 100; want++ {
		if got := s.Next(); got != want {
			t.Fatalf("Next() = %d, want %d", got, want)
		}
	}
	if s.Current() != 100 {
		t.Errorf("Current() = %d, want 100", s.Current())
	}
}

func TestSequencerResumesAfterReset(t *testing.T) {
	s := New(0)
	s.Reset(41)
	if got := s.Next(); got != 42 {
		t.Errorf("Next() after Reset(41) = %d, want 42", got)
	}
}
