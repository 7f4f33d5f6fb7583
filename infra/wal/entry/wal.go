package entry

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"time"
)

const (
	headerSize      = 21 // [type:1][seq:8][time:8][len:4]
	trailerSize     = 4  // crc32 over header+payload
	defaultSegSize  = 2 << 20
	defaultRotateIn = time.Minute
)

type Config struct {
	Dir             string
	SegmentSize     int64
	SegmentDuration time.Duration
}

// WAL is the append-only command log. Every accepted command is
// framed, checksummed and written here before it touches the book.
type WAL struct {
	dir        string
	segSize    int64
	segMaxAge  time.Duration
	current    *segment
	segIndex   int
	lastRotate time.Time
}

// Open creates the log directory if needed and resumes appending to
// the highest existing segment.
func Open(cfg Config) (*WAL, error) {
	if cfg.SegmentSize <= 0 {
		cfg.SegmentSize = defaultSegSize
	}
	if cfg.SegmentDuration <= 0 {
		cfg.SegmentDuration = defaultRotateIn
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}

	index := 0
	files, err := filepath.Glob(filepath.Join(cfg.Dir, segmentPattern))
	if err != nil {
		return nil, err
	}
	for _, path := range files {
		if idx, ok := segmentIndex(path); ok && idx > index {
			index = idx
		}
	}

	seg, err := openSegment(cfg.Dir, index)
	if err != nil {
		return nil, err
	}

	return &WAL{
		dir:        cfg.Dir,
		segSize:    cfg.SegmentSize,
		segMaxAge:  cfg.SegmentDuration,
		current:    seg,
		segIndex:   index,
		lastRotate: time.Now(),
	}, nil
}

// Append frames, checksums and writes r, rotating the segment when it
// grows past the size limit or outlives the rotation interval.
func (w *WAL) Append(r *Record) error {
	payloadLen := uint32(len(r.Data))

	buf := make([]byte, headerSize+payloadLen+trailerSize)
	buf[0] = byte(r.Type)
	binary.BigEndian.PutUint64(buf[1:9], r.Seq)
	binary.BigEndian.PutUint64(buf[9:17], uint64(r.Time))
	binary.BigEndian.PutUint32(buf[17:21], payloadLen)
	copy(buf[headerSize:], r.Data)
	binary.BigEndian.PutUint32(buf[headerSize+payloadLen:], checksum(buf[:headerSize+payloadLen]))

	if err := w.current.append(buf); err != nil {
		return err
	}
	if err := w.current.sync(); err != nil {
		return err
	}

	if w.current.offset >= w.segSize || time.Since(w.lastRotate) >= w.segMaxAge {
		return w.rotate()
	}
	return nil
}

func (w *WAL) rotate() error {
	_ = w.current.close()
	w.segIndex++

	seg, err := openSegment(w.dir, w.segIndex)
	if err != nil {
		return err
	}

	w.current = seg
	w.lastRotate = time.Now()
	return nil
}

// TruncateBefore removes whole segments whose every record is covered
// by a snapshot at seq. The open segment is never removed.
func (w *WAL) TruncateBefore(seq uint64) error {
	files, err := filepath.Glob(filepath.Join(w.dir, segmentPattern))
	if err != nil {
		return err
	}

	for _, path := range files {
		if path == segmentPath(w.dir, w.segIndex) {
			continue
		}
		maxSeq, err := maxSeqInSegment(path)
		if err != nil {
			continue
		}
		if maxSeq <= seq {
			_ = os.Remove(path)
		}
	}
	return nil
}

func (w *WAL) Close() error {
	return w.current.close()
}
