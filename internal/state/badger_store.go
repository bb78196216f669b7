package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	badger "github.com/dgraph-io/badger/v4"
)

// BadgerStore implements Store using BadgerDB.
type BadgerStore struct {
	db *badger.DB
}

func NewBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(filepath.Clean(dir)).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger open: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func (b *BadgerStore) Close() error { return b.db.Close() }

func (b *BadgerStore) Assign(key string, a Assignment) (bool, Assignment, error) {
	var applied bool
	var out Assignment
	err := b.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err == nil {
			return item.Value(func(val []byte) error {
				return json.Unmarshal(val, &out)
			})
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		val, err := json.Marshal(a)
		if err != nil {
			return err
		}
		if err := txn.Set([]byte(key), val); err != nil {
			return err
		}
		applied, out = true, a
		return nil
	})
	if err != nil {
		return false, Assignment{}, err
	}
	return applied, out, nil
}

func (b *BadgerStore) Get(key string) (Assignment, bool) {
	var out Assignment
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &out)
		})
	})
	if err != nil {
		return Assignment{}, false
	}
	return out, true
}

func (b *BadgerStore) Range(fn func(key string, a Assignment) error) error {
	return b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			k := item.KeyCopy(nil)
			var a Assignment
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &a)
			}); err != nil {
				return err
			}
			if err := fn(string(k), a); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadAll replaces the whole keyspace with the snapshot contents.
func (b *BadgerStore) LoadAll(all map[string]Assignment) error {
	if err := b.db.DropAll(); err != nil {
		return fmt.Errorf("drop all: %w", err)
	}
	wb := b.db.NewWriteBatch()
	for k, a := range all {
		val, err := json.Marshal(a)
		if err != nil {
			wb.Cancel()
			return fmt.Errorf("encode %s: %w", k, err)
		}
		if err := wb.Set([]byte(k), val); err != nil {
			wb.Cancel()
			return fmt.Errorf("set %s: %w", k, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}
