package sequence

import "sync/atomic"

// Sequencer hands out strictly monotonic command sequence numbers.
// Sequence numbers are the replay identity of a command: replaying
// the same command stream yields the same numbers.
type Sequencer struct {
	last atomic.Uint64
}

// New creates a sequencer that will issue start+1 first.
func New(start uint64) *Sequencer {
	s := &Sequencer{}
	s.last.Store(start)
	return s
}

// Next returns the next sequence number.
func (s *Sequencer) Next() uint64 {
	return s.last.Add(1)
}

// Current returns the last issued sequence number.
func (s *Sequencer) Current() uint64 {
	return s.last.Load()
}

// Reset moves the sequencer to v. Only valid after log replay,
// before the engine accepts traffic.
func (s *Sequencer) Reset(v uint64) {
	s.last.Store(v)
}
