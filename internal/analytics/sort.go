package analytics

import (
	"cmp"
	"slices"

	"salesstats/internal/model"
)

// Sort returns the records ordered by total. Equal totals keep their relative
// order. SortNone returns an unchanged copy.
func Sort(records []*model.AnalyticRecord, order SortOrder) []*model.AnalyticRecord {
	out := slices.Clone(records)
	if out == nil {
		out = []*model.AnalyticRecord{}
	}
	switch order {
	case SortAscending:
		slices.SortStableFunc(out, func(a, b *model.AnalyticRecord) int { return cmp.Compare(a.Total, b.Total) })
	case SortDescending:
		slices.SortStableFunc(out, func(a, b *model.AnalyticRecord) int { return cmp.Compare(b.Total, a.Total) })
	}
	return out
}
