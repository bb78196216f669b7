package analytics

import (
	"time"

	"salesstats/internal/model"
)

// keep returns a new slice holding the records that satisfy pred, in order.
// The input is never modified.
func keep(records []*model.AnalyticRecord, pred func(*model.AnalyticRecord) bool) []*model.AnalyticRecord {
	out := make([]*model.AnalyticRecord, 0, len(records))
	for _, r := range records {
		if pred(r) {
			out = append(out, r)
		}
	}
	return out
}

// FilterByAmount keeps records whose total strictly exceeds t.
func FilterByAmount(records []*model.AnalyticRecord, t AmountThreshold) []*model.AnalyticRecord {
	limit := float64(t)
	return keep(records, func(r *model.AnalyticRecord) bool {
		return t == ThresholdNone || r.Total > limit
	})
}

// FilterByRange keeps records dated within r, both ends inclusive.
func FilterByRange(records []*model.AnalyticRecord, r DateRange) []*model.AnalyticRecord {
	return keep(records, func(rec *model.AnalyticRecord) bool { return r.Contains(rec.Date) })
}

// FilterSince keeps records dated at or after cutoff.
func FilterSince(records []*model.AnalyticRecord, cutoff time.Time) []*model.AnalyticRecord {
	return keep(records, func(r *model.AnalyticRecord) bool { return !r.Date.Before(cutoff) })
}

// Filter applies the amount threshold and then the date window.
//
// In custom-range mode processing stops after the range predicate and done is
// true: callers must not sort that result.
func Filter(records []*model.AnalyticRecord, opts Options, now time.Time) (out []*model.AnalyticRecord, done bool) {
	out = FilterByAmount(records, opts.Amount)
	if opts.DateMode == DateCustomRange {
		return FilterByRange(out, opts.Range), true
	}
	if back, ok := opts.DateMode.lookback(); ok {
		out = FilterSince(out, now.Add(-back))
	}
	return out, false
}

// Process runs the filter pipeline followed by the sorter.
func Process(records []*model.AnalyticRecord, opts Options, now time.Time) []*model.AnalyticRecord {
	out, done := Filter(records, opts, now)
	if done {
		return out
	}
	return Sort(out, opts.Sort)
}
