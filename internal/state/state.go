package state

import (
	"fmt"
	"sync"
	"time"
)

// Assignment is the synthesized date recorded for one order id.
type Assignment struct {
	DateUnixNano int64 `json:"date"`
	AssignedAt   int64 `json:"assignedAt"`
}

// Date returns the assigned instant in UTC.
func (a Assignment) Date() time.Time { return time.Unix(0, a.DateUnixNano).UTC() }

// Store abstracts the date ledger backend.
// The first assignment for a key wins; later ones are reported as not applied
// together with the value already held.
type Store interface {
	Assign(key string, a Assignment) (applied bool, cur Assignment, err error)
	Get(key string) (Assignment, bool)
	Range(fn func(key string, a Assignment) error) error
	LoadAll(all map[string]Assignment) error
}

// InMemoryStore is a simple thread-safe map store.
type InMemoryStore struct {
	mu   sync.RWMutex
	data map[string]Assignment
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{data: make(map[string]Assignment)}
}

// LoadAll replaces the store contents with the provided snapshot.
func (s *InMemoryStore) LoadAll(all map[string]Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]Assignment, len(all))
	for k, v := range all {
		s.data[k] = v
	}
	return nil
}

func (s *InMemoryStore) Assign(key string, a Assignment) (bool, Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.data[key]; ok {
		return false, cur, nil
	}
	s.data[key] = a
	return true, a, nil
}

func (s *InMemoryStore) Get(key string) (Assignment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.data[key]
	return a, ok
}

func (s *InMemoryStore) Range(fn func(key string, a Assignment) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for k, v := range s.data {
		if err := fn(k, v); err != nil {
			return fmt.Errorf("range callback failed: %w", err)
		}
	}
	return nil
}

// Len reports the number of assigned keys.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
