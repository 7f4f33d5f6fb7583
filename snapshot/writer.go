package snapshot

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
)

type Writer struct {
	Dir string
}

// Write persists s under a sequence-stamped name and removes older
// snapshots. The temp-file rename keeps a crash mid-write from ever
// leaving a readable half snapshot behind.
func (w *Writer) Write(s *Snapshot) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return err
	}

	path := filepath.Join(w.Dir, fileName(s.Seq))
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	if err := gob.NewEncoder(f).Encode(s); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		return err
	}

	w.prune(s.Seq)
	return nil
}

func (w *Writer) prune(keep uint64) {
	files, err := filepath.Glob(filepath.Join(w.Dir, "snapshot-*.bin"))
	if err != nil {
		return
	}
	for _, path := range files {
		if seq, ok := fileSeq(path); ok && seq < keep {
			_ = os.Remove(path)
		}
	}
}

func fileName(seq uint64) string {
	return fmt.Sprintf("snapshot-%020d.bin", seq)
}

func fileSeq(path string) (uint64, bool) {
	var seq uint64
	n, err := fmt.Sscanf(filepath.Base(path), "snapshot-%d.bin", &seq)
	return seq, err == nil && n == 1
}
