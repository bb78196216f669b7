package snapshot

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"salesstats/internal/state"
)

func TestWriteSnapshot_WritesDatesJSON(t *testing.T) {
	dir := t.TempDir()
	s := state.NewInMemoryStore()
	_, _, _ = s.Assign("1", state.Assignment{DateUnixNano: 1500, AssignedAt: 3})
	_, _, _ = s.Assign("2", state.Assignment{DateUnixNano: 700, AssignedAt: 2})

	snap := NewFilesystemSnapshotter(dir)
	n, err := snap.WriteSnapshot("sid", s)
	if err != nil {
		t.Fatalf("WriteSnapshot error: %v", err)
	}
	if n != 2 {
		t.Fatalf("written=%d want=2", n)
	}

	b, err := os.ReadFile(filepath.Join(dir, "sid", FileName))
	if err != nil {
		t.Fatalf("dates.json missing: %v", err)
	}
	var m map[string]state.Assignment
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if len(m) != 2 || m["1"].DateUnixNano != 1500 {
		t.Fatalf("unexpected keys: %v", m)
	}
}
