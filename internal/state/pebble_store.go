package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/pebble"
)

// PebbleStore implements Store using PebbleDB.
type PebbleStore struct {
	mu sync.Mutex // serializes read-check-write in Assign
	db *pebble.DB
}

func NewPebbleStore(dir string) (*PebbleStore, error) {
	opts := &pebble.Options{
		// The ledger is small; keep memtables modest.
		MemTableSize:          16 << 20,
		L0CompactionThreshold: 4,
		L0StopWritesThreshold: 8,
	}
	d, err := pebble.Open(filepath.Clean(dir), opts)
	if err != nil {
		return nil, fmt.Errorf("pebble open: %w", err)
	}
	return &PebbleStore{db: d}, nil
}

func (p *PebbleStore) Close() error { return p.db.Close() }

func encodeAssignment(a Assignment) ([]byte, error) { return json.Marshal(a) }
func decodeAssignment(val []byte) (Assignment, error) {
	var a Assignment
	if err := json.Unmarshal(val, &a); err != nil {
		return Assignment{}, err
	}
	return a, nil
}

func (p *PebbleStore) Assign(key string, a Assignment) (bool, Assignment, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	k := []byte(key)
	v, closer, err := p.db.Get(k)
	if err == nil {
		cur, derr := decodeAssignment(v)
		_ = closer.Close()
		if derr != nil {
			return false, Assignment{}, derr
		}
		return false, cur, nil
	} else if !errors.Is(err, pebble.ErrNotFound) {
		return false, Assignment{}, err
	}
	b, err := encodeAssignment(a)
	if err != nil {
		return false, Assignment{}, err
	}
	if err := p.db.Set(k, b, pebble.Sync); err != nil {
		return false, Assignment{}, err
	}
	return true, a, nil
}

func (p *PebbleStore) Get(key string) (Assignment, bool) {
	v, closer, err := p.db.Get([]byte(key))
	if err != nil {
		return Assignment{}, false
	}
	defer closer.Close()
	a, e := decodeAssignment(v)
	if e != nil {
		return Assignment{}, false
	}
	return a, true
}

func (p *PebbleStore) Range(fn func(key string, a Assignment) error) error {
	it, err := p.db.NewIter(nil)
	if err != nil {
		return fmt.Errorf("pebble iter: %w", err)
	}
	defer it.Close()
	for it.First(); it.Valid(); it.Next() {
		k := append([]byte(nil), it.Key()...)
		a, err := decodeAssignment(it.Value())
		if err != nil {
			return err
		}
		if err := fn(string(k), a); err != nil {
			return err
		}
	}
	return nil
}

// LoadAll loads a full snapshot into Pebble by replacing all keys in one
// batch; on error the ledger is left as it was.
func (p *PebbleStore) LoadAll(all map[string]Assignment) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	// Collect existing keys first, then delete, then write snapshot.
	it, err := p.db.NewIter(nil)
	if err != nil {
		return fmt.Errorf("iter: %w", err)
	}
	var toDelete [][]byte
	for it.First(); it.Valid(); it.Next() {
		toDelete = append(toDelete, append([]byte(nil), it.Key()...))
	}
	if err := it.Close(); err != nil {
		return fmt.Errorf("iter: %w", err)
	}

	wb := p.db.NewBatch()
	defer wb.Close()
	for _, k := range toDelete {
		if err := wb.Delete(k, nil); err != nil {
			return fmt.Errorf("delete %s: %w", k, err)
		}
	}
	for k, a := range all {
		b, err := encodeAssignment(a)
		if err != nil {
			return fmt.Errorf("encode %s: %w", k, err)
		}
		if err := wb.Set([]byte(k), b, nil); err != nil {
			return fmt.Errorf("set %s: %w", k, err)
		}
	}
	if err := wb.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
