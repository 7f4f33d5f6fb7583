package snapshot

import "time"

// Snapshot is the durable image of every order resting in the book at
// a command sequence watermark. Replaying the entry log from Seq+1 on
// top of a restored snapshot reproduces the live book.
type Snapshot struct {
	Seq     uint64
	Created time.Time
	Symbol  string
	Orders  []OrderEntry
}

// OrderEntry persists the open remainder of one resting order. Filled
// quantity is history and does not survive a restart.
type OrderEntry struct {
	ID    uint64
	Side  uint8
	Price int64
	Qty   int64
}
