// Package service owns the fetched orders and turns them into chart views.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"salesstats/internal/analytics"
	"salesstats/internal/metrics"
	"salesstats/internal/model"
	"salesstats/internal/source"
)

// Status is the outcome of the one fetch.
type Status string

const (
	StatusPending     Status = "pending"
	StatusReady       Status = "ready"
	StatusUnavailable Status = "unavailable"
)

// ErrNotLoaded is returned by Compute before Load has finished.
var ErrNotLoaded = errors.New("orders not loaded yet")

// View is one computed chart plus the dataset summary.
type View struct {
	RunID          string                    `json:"runId"`
	ComputedAt     time.Time                 `json:"computedAt"`
	Title          string                    `json:"title"`
	ChartKind      analytics.ChartKind       `json:"chartKind"`
	Options        analytics.Options         `json:"options"`
	Series         analytics.Series          `json:"series"`
	Datasets       []analytics.Dataset       `json:"datasets"`
	Summary        analytics.Summary         `json:"summary"`
	Skipped        int                       `json:"skipped"`
	SkippedRecords []analytics.SkippedRecord `json:"skippedRecords"`
}

type synthCounter interface {
	Synthesized() int64
}

// Stats fetches the orders once and computes views over them on demand.
type Stats struct {
	fetcher source.Fetcher
	dates   analytics.DateSource
	metrics *metrics.Registry
	log     logrus.FieldLogger

	loadOnce sync.Once
	mu       sync.RWMutex
	status   Status
	loadErr  error
	orders   []model.RawOrder

	computeMu sync.Mutex
	lastSynth int64
}

func New(f source.Fetcher, dates analytics.DateSource, reg *metrics.Registry, log logrus.FieldLogger) *Stats {
	return &Stats{fetcher: f, dates: dates, metrics: reg, log: log, status: StatusPending}
}

// Load performs the single fetch. Later calls return the first outcome; a
// failed fetch is never retried.
func (s *Stats) Load(ctx context.Context) error {
	s.loadOnce.Do(func() {
		page, err := s.fetcher.Fetch(ctx)
		s.mu.Lock()
		defer s.mu.Unlock()
		if err != nil {
			s.status = StatusUnavailable
			if !errors.Is(err, source.ErrDataUnavailable) {
				err = fmt.Errorf("%w: %v", source.ErrDataUnavailable, err)
			}
			s.loadErr = err
			s.metrics.FetchFailures.Inc()
			s.log.WithError(err).Error("fetch orders failed")
			return
		}
		s.orders = page.Carts
		s.status = StatusReady
		s.log.WithField("orders", len(page.Carts)).Info("orders loaded")
	})
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadErr
}

func (s *Stats) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Stats) loaded() ([]model.RawOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch s.status {
	case StatusReady:
		return s.orders, nil
	case StatusUnavailable:
		return nil, s.loadErr
	}
	return nil, ErrNotLoaded
}

// Compute builds a fresh view for opts from the loaded orders. Before a
// successful Load it returns ErrNotLoaded or the fetch error.
func (s *Stats) Compute(opts analytics.Options, kind analytics.ChartKind) (View, error) {
	orders, err := s.loaded()
	if err != nil {
		return View{}, err
	}
	if kind == "" {
		kind = analytics.ChartBar
	}

	s.computeMu.Lock()
	defer s.computeMu.Unlock()

	start := time.Now()
	now := model.Now()
	v, err := analytics.Compute(orders, s.dates, opts, now)
	if err != nil {
		return View{}, err
	}
	s.observe(v, len(orders), time.Since(start))

	view := View{
		RunID:          uuid.NewString(),
		ComputedAt:     now,
		Title:          analytics.ChartTitle,
		ChartKind:      kind,
		Options:        opts,
		Series:         v.Series,
		Datasets:       v.Series.Datasets(),
		Summary:        v.Summary,
		Skipped:        len(v.Skipped),
		SkippedRecords: v.Skipped,
	}
	entry := s.log.WithFields(logrus.Fields{
		"run_id":  view.RunID,
		"kept":    v.Series.Len(),
		"skipped": view.Skipped,
	})
	if view.Skipped > 0 {
		entry.Warn("view computed with skipped records")
	} else {
		entry.Debug("view computed")
	}
	return view, nil
}

// Summary returns the dataset summary; it does not depend on any option.
func (s *Stats) Summary() (analytics.Summary, error) {
	orders, err := s.loaded()
	if err != nil {
		return analytics.Summary{}, err
	}
	return analytics.Summarize(orders), nil
}

func (s *Stats) observe(v analytics.View, orders int, took time.Duration) {
	s.metrics.ComputeSec.Observe(took.Seconds())
	s.metrics.Normalized.Add(float64(orders - len(v.Skipped)))
	s.metrics.Skipped.Add(float64(len(v.Skipped)))
	s.metrics.ViewRecords.Set(float64(v.Series.Len()))
	if c, ok := s.dates.(synthCounter); ok {
		n := c.Synthesized()
		s.metrics.DatesSynthesized.Add(float64(n - s.lastSynth))
		s.lastSynth = n
	}
}
