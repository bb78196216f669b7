package model

import (
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"salesstats/internal/changelog"
	"salesstats/internal/state"
)

// SyntheticWindowDays bounds synthesized dates to whole-day offsets 0..29 before now.
const SyntheticWindowDays = 30

// DayEdgeSkew keeps a day-k date just past k*24h so it never sits on the
// cutoff of a k-day window.
const DayEdgeSkew = time.Minute

// Now returns the current time. Split for testability.
var Now = func() time.Time { return time.Now().UTC() }

// Synthesizer hands out a stable date per order id. The first request for an
// id draws a day offset from rng and records it in the ledger; every later
// request returns the recorded date.
type Synthesizer struct {
	mu          sync.Mutex
	rng         *rand.Rand
	store       state.Store
	clog        changelog.Writer
	synthesized int64
}

// NewSynthesizer builds a Synthesizer. clog may be nil.
func NewSynthesizer(rng *rand.Rand, store state.Store, clog changelog.Writer) *Synthesizer {
	return &Synthesizer{rng: rng, store: store, clog: clog}
}

// NewSeededSynthesizer uses an in-memory ledger and a source seeded with seed.
func NewSeededSynthesizer(seed int64) *Synthesizer {
	return NewSynthesizer(rand.New(rand.NewSource(seed)), state.NewInMemoryStore(), nil)
}

// DateFor returns the date recorded for id, drawing one relative to now the
// first time id is seen.
func (s *Synthesizer) DateFor(id int64, now time.Time) (time.Time, error) {
	key := strconv.FormatInt(id, 10)
	if a, ok := s.store.Get(key); ok {
		return a.Date(), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	offset := s.rng.Intn(SyntheticWindowDays)
	date := now.Add(-time.Duration(offset)*24*time.Hour - DayEdgeSkew)
	applied, cur, err := s.store.Assign(key, state.Assignment{DateUnixNano: date.UnixNano(), AssignedAt: now.Unix()})
	if err != nil {
		return time.Time{}, fmt.Errorf("assign date for order %d: %w", id, err)
	}
	if !applied {
		return cur.Date(), nil
	}
	s.synthesized++
	if s.clog != nil {
		if err := s.clog.Append(changelog.Delta{Key: key, Date: cur.DateUnixNano, TS: now.Unix()}); err != nil {
			return time.Time{}, fmt.Errorf("append changelog: %w", err)
		}
	}
	return cur.Date(), nil
}

// Synthesized reports how many dates this synthesizer has drawn.
func (s *Synthesizer) Synthesized() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.synthesized
}
