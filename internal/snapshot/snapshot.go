package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"salesstats/internal/state"
)

// FileName is the ledger dump written inside each snapshot directory.
const FileName = "dates.json"

type Snapshotter interface {
	WriteSnapshot(snapshotID string, st state.Store) (int, error)
}

type FilesystemSnapshotter struct {
	baseDir string
}

func NewFilesystemSnapshotter(baseDir string) *FilesystemSnapshotter {
	return &FilesystemSnapshotter{baseDir: baseDir}
}

// WriteSnapshot dumps every assignment in st to <base>/<id>/dates.json and
// returns the number of keys written.
func (f *FilesystemSnapshotter) WriteSnapshot(snapshotID string, st state.Store) (int, error) {
	if err := os.MkdirAll(filepath.Join(f.baseDir, snapshotID), 0o755); err != nil {
		return 0, fmt.Errorf("mkdir: %w", err)
	}
	file := filepath.Join(f.baseDir, snapshotID, FileName)
	out, err := os.Create(file)
	if err != nil {
		return 0, fmt.Errorf("create: %w", err)
	}
	defer out.Close()

	dump := make(map[string]state.Assignment)
	if err := st.Range(func(key string, a state.Assignment) error {
		dump[key] = a
		return nil
	}); err != nil {
		return 0, err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(dump); err != nil {
		return 0, fmt.Errorf("encode: %w", err)
	}
	return len(dump), nil
}
