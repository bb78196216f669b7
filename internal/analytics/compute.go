package analytics

import (
	"fmt"
	"time"

	"salesstats/internal/model"
)

// DateSource assigns the date used for an order id. now is the compute's
// clock; a source may ignore it for ids it already knows.
type DateSource interface {
	DateFor(id int64, now time.Time) (time.Time, error)
}

// SkippedRecord names a raw order left out of the batch.
type SkippedRecord struct {
	ID     int64  `json:"id"`
	Reason string `json:"reason"`
}

// Batch is the normalizer output for one compute cycle.
type Batch struct {
	Records []*model.AnalyticRecord
	Skipped []SkippedRecord
}

// NormalizeAll normalizes every valid order and skips the rest. Only a
// failing DateSource aborts the batch.
func NormalizeAll(orders []model.RawOrder, dates DateSource, now time.Time) (Batch, error) {
	b := Batch{
		Records: make([]*model.AnalyticRecord, 0, len(orders)),
		Skipped: []SkippedRecord{},
	}
	for _, o := range orders {
		if err := model.Validate(o); err != nil {
			b.Skipped = append(b.Skipped, SkippedRecord{ID: o.ID, Reason: err.Error()})
			continue
		}
		date, err := dates.DateFor(o.ID, now)
		if err != nil {
			return Batch{}, fmt.Errorf("date for order %d: %w", o.ID, err)
		}
		rec, err := model.Normalize(o, date)
		if err != nil {
			b.Skipped = append(b.Skipped, SkippedRecord{ID: o.ID, Reason: err.Error()})
			continue
		}
		b.Records = append(b.Records, rec)
	}
	return b, nil
}

// View is the chart-ready result of one compute cycle plus the dataset summary.
type View struct {
	Records []*model.AnalyticRecord `json:"-"`
	Series  Series                  `json:"series"`
	Summary Summary                 `json:"summary"`
	Skipped []SkippedRecord         `json:"skipped"`
}

// Compute runs normalize, filter, sort and series building over orders. The
// summary always reads the raw orders, not the filtered records.
func Compute(orders []model.RawOrder, dates DateSource, opts Options, now time.Time) (View, error) {
	if err := opts.Validate(); err != nil {
		return View{}, err
	}
	batch, err := NormalizeAll(orders, dates, now)
	if err != nil {
		return View{}, err
	}
	records := Process(batch.Records, opts, now)
	return View{
		Records: records,
		Series:  BuildSeries(records),
		Summary: Summarize(orders),
		Skipped: batch.Skipped,
	}, nil
}
