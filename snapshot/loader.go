package snapshot

import (
	"encoding/gob"
	"os"
	"path/filepath"
)

// LoadLatest reads the newest snapshot in dir. A missing directory or
// an empty one is not an error: the engine simply starts cold.
func LoadLatest(dir string) (*Snapshot, error) {
	files, err := filepath.Glob(filepath.Join(dir, "snapshot-*.bin"))
	if err != nil || len(files) == 0 {
		return nil, nil
	}

	var latest string
	var latestSeq uint64
	found := false
	for _, path := range files {
		seq, ok := fileSeq(path)
		if !ok {
			continue
		}
		if !found || seq > latestSeq {
			latest, latestSeq, found = path, seq, true
		}
	}
	if !found {
		return nil, nil
	}

	f, err := os.Open(latest)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var s Snapshot
	if err := gob.NewDecoder(f).Decode(&s); err != nil {
		return nil, err
	}
	return &s, nil
}
