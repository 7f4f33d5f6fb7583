package exit

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
)

// The exit WAL is the durable outbox between the matching thread and
// the broadcaster. Events go in as NEW, get marked SENT around the
// publish attempt, and ACKED once the broker confirmed them. ACKED
// rows are garbage, removed by the snapshot job.

type State uint8

const (
	StateNew State = iota
	StateSent
	StateAcked
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateSent:
		return "SENT"
	case StateAcked:
		return "ACKED"
	default:
		return "UNKNOWN"
	}
}

type Record struct {
	Seq         uint64
	State       State
	Retries     uint32
	LastAttempt int64
	Payload     []byte
}

const recHeaderSize = 1 + 4 + 8

// value encoding: [state:1][retries:4][lastAttempt:8][payload]
func encodeRecord(r *Record) []byte {
	buf := make([]byte, recHeaderSize+len(r.Payload))
	buf[0] = byte(r.State)
	binary.BigEndian.PutUint32(buf[1:5], r.Retries)
	binary.BigEndian.PutUint64(buf[5:13], uint64(r.LastAttempt))
	copy(buf[recHeaderSize:], r.Payload)
	return buf
}

func decodeRecord(seq uint64, b []byte) (*Record, error) {
	if len(b) < recHeaderSize {
		return nil, errors.New("short exit record")
	}
	payload := make([]byte, len(b)-recHeaderSize)
	copy(payload, b[recHeaderSize:])
	return &Record{
		Seq:         seq,
		State:       State(b[0]),
		Retries:     binary.BigEndian.Uint32(b[1:5]),
		LastAttempt: int64(binary.BigEndian.Uint64(b[5:13])),
		Payload:     payload,
	}, nil
}

type WAL struct {
	db *pebble.DB
}

func Open(dir string) (*WAL, error) {
	db, err := pebble.Open(dir, &pebble.Options{
		DisableWAL: false,
	})
	if err != nil {
		return nil, err
	}
	return &WAL{db: db}, nil
}

func (w *WAL) Close() error {
	return w.db.Close()
}

// PutNew stores an outbound event before the matching result is
// visible anywhere else.
func (w *WAL) PutNew(seq uint64, payload []byte) error {
	rec := &Record{Seq: seq, State: StateNew, Payload: payload}
	return w.db.Set(keyFor(seq), encodeRecord(rec), pebble.Sync)
}

// MarkSent flags an event right before a publish attempt and bumps
// its retry counter. Idempotent.
func (w *WAL) MarkSent(seq uint64) error {
	return w.setState(seq, StateSent)
}

// MarkAcked flags an event the broker has confirmed.
func (w *WAL) MarkAcked(seq uint64) error {
	return w.setState(seq, StateAcked)
}

func (w *WAL) setState(seq uint64, state State) error {
	rec, err := w.Get(seq)
	if err != nil {
		return err
	}
	rec.State = state
	rec.LastAttempt = time.Now().UnixNano()
	if state == StateSent {
		rec.Retries++
	}
	return w.db.Set(keyFor(seq), encodeRecord(rec), pebble.Sync)
}

func (w *WAL) Delete(seq uint64) error {
	return w.db.Delete(keyFor(seq), pebble.Sync)
}

func (w *WAL) Get(seq uint64) (*Record, error) {
	val, closer, err := w.db.Get(keyFor(seq))
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return decodeRecord(seq, val)
}

// ScanPending visits every record not yet ACKED, in sequence order.
// SENT records are included: a SENT row after a restart means the
// publish outcome is unknown and must be retried.
func (w *WAL) ScanPending(fn func(*Record) error) error {
	return w.scan(func(rec *Record) error {
		if rec.State == StateAcked {
			return nil
		}
		return fn(rec)
	})
}

// TruncateAckedUpTo removes ACKED records with Seq <= seq.
func (w *WAL) TruncateAckedUpTo(seq uint64) error {
	return w.scan(func(rec *Record) error {
		if rec.State == StateAcked && rec.Seq <= seq {
			return w.Delete(rec.Seq)
		}
		return nil
	})
}

func (w *WAL) scan(fn func(*Record) error) error {
	iter, err := w.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte(keyPrefix + "~"),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		seq, err := parseKey(iter.Key())
		if err != nil {
			return err
		}
		rec, err := decodeRecord(seq, iter.Value())
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return iter.Error()
}

const keyPrefix = "event/"

func keyFor(seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", keyPrefix, seq))
}

func parseKey(b []byte) (uint64, error) {
	var seq uint64
	_, err := fmt.Sscanf(string(b), keyPrefix+"%d", &seq)
	return seq, err
}
