package analytics

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesstats/internal/model"
)

var now = time.Date(2024, 6, 30, 15, 0, 0, 0, time.UTC)

const day = 24 * time.Hour

type fixedDates map[int64]time.Time

func (f fixedDates) DateFor(id int64, _ time.Time) (time.Time, error) {
	d, ok := f[id]
	if !ok {
		return time.Time{}, fmt.Errorf("no date for %d", id)
	}
	return d, nil
}

func rec(id int64, total float64, ageDays int) *model.AnalyticRecord {
	return &model.AnalyticRecord{ID: id, Total: total, ProductCount: int(id % 5), Date: now.Add(-time.Duration(ageDays) * day)}
}

func ids(records []*model.AnalyticRecord) []int64 {
	out := make([]int64, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

// subset reports whether every record of sub appears in super (by identity).
func subset(sub, super []*model.AnalyticRecord) bool {
	in := make(map[*model.AnalyticRecord]bool, len(super))
	for _, r := range super {
		in[r] = true
	}
	for _, r := range sub {
		if !in[r] {
			return false
		}
	}
	return true
}

func randomRecords(seed int64, n int) []*model.AnalyticRecord {
	rng := rand.New(rand.NewSource(seed))
	out := make([]*model.AnalyticRecord, n)
	for i := range out {
		out[i] = &model.AnalyticRecord{
			ID:           int64(i + 1),
			Total:        float64(rng.Intn(1500)),
			ProductCount: rng.Intn(6),
			Date:         now.Add(-time.Duration(rng.Intn(45*24)) * time.Hour),
		}
	}
	return out
}

func TestScenario_AmountAndLast30Days(t *testing.T) {
	orders := []model.RawOrder{
		{ID: 1, Total: model.Float64(50), Products: []model.LineItem{{}}},
		{ID: 2, Total: model.Float64(150), Products: []model.LineItem{{}, {}}},
		{ID: 3, Total: model.Float64(900), Products: []model.LineItem{{}}},
	}
	dates := fixedDates{1: now, 2: now.Add(-10 * day), 3: now.Add(-40 * day)}
	opts := Options{Amount: Threshold100, DateMode: DateLast30d, Sort: SortNone}

	v, err := Compute(orders, dates, opts, now)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids(v.Records))
	assert.Equal(t, Series{Labels: []string{"Order 2"}, Totals: []float64{150}, ProductCounts: []int{2}}, v.Series)
}

func TestScenario_EmptyDataset(t *testing.T) {
	v, err := Compute(nil, fixedDates{}, DefaultOptions(), now)
	require.NoError(t, err)
	assert.Equal(t, Series{Labels: []string{}, Totals: []float64{}, ProductCounts: []int{}}, v.Series)
	assert.Equal(t, 0, v.Summary.TotalOrders)
	_, ok := v.Summary.Average()
	assert.False(t, ok)

	b, err := json.Marshal(v.Summary)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Nil(t, m["averageOrderValue"])
	assert.Contains(t, m, "averageOrderValue")
}

func TestSummary_JSONEncoding(t *testing.T) {
	orders := []model.RawOrder{
		{ID: 1, Total: model.Float64(1200.25), Products: []model.LineItem{{}}, TotalProducts: 2},
		{ID: 2, Total: model.Float64(680.25), Products: []model.LineItem{{}}, TotalProducts: 1},
	}
	b, err := json.Marshal(Summarize(orders))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"totalSales": "1880.5",
		"totalOrders": 2,
		"averageOrderValue": "940.25",
		"averageOrderValueRounded": "940.25",
		"totalProductsSold": 3
	}`, string(b))
}

func TestScenario_CustomRangeTodayIsUnsorted(t *testing.T) {
	records := []*model.AnalyticRecord{rec(1, 10, 0), rec(2, 500, 3), rec(3, 700, 0), rec(4, 20, 0)}
	opts := Options{DateMode: DateCustomRange, Range: DateRange{Start: now, End: now}, Sort: SortDescending}

	got := Process(records, opts, now)
	assert.Equal(t, []int64{1, 3, 4}, ids(got))
}

func TestFilterByAmount_Strict(t *testing.T) {
	records := []*model.AnalyticRecord{rec(1, 100, 0), rec(2, 100.01, 0), rec(3, 1000, 0), rec(4, 1001, 0)}
	assert.Equal(t, []int64{2, 3, 4}, ids(FilterByAmount(records, Threshold100)))
	assert.Equal(t, []int64{4}, ids(FilterByAmount(records, Threshold1000)))
	assert.Equal(t, []int64{1, 2, 3, 4}, ids(FilterByAmount(records, ThresholdNone)))
}

func TestFilter_ThresholdsAreNested(t *testing.T) {
	records := randomRecords(1, 300)
	order := []AmountThreshold{ThresholdNone, Threshold100, Threshold500, Threshold1000}
	for i := 1; i < len(order); i++ {
		looser := FilterByAmount(records, order[i-1])
		stricter := FilterByAmount(records, order[i])
		assert.True(t, subset(stricter, looser), "%s should be a subset of %s", order[i], order[i-1])
	}
}

func TestFilter_DateWindowsAreNested(t *testing.T) {
	records := randomRecords(2, 300)
	modes := []DateMode{DateLast24h, DateLast7d, DateLast30d, DateAll}
	var prev []*model.AnalyticRecord
	for _, m := range modes {
		got, done := Filter(records, Options{DateMode: m}, now)
		require.False(t, done)
		if prev != nil {
			assert.True(t, subset(prev, got), "window before %s should nest inside it", m)
		}
		prev = got
	}
	assert.Len(t, prev, len(records))
}

func TestFilter_RelativeCutoffInclusive(t *testing.T) {
	edge := &model.AnalyticRecord{ID: 1, Date: now.Add(-7 * day)}
	older := &model.AnalyticRecord{ID: 2, Date: now.Add(-7*day - time.Nanosecond)}
	got, _ := Filter([]*model.AnalyticRecord{edge, older}, Options{DateMode: DateLast7d}, now)
	assert.Equal(t, []int64{1}, ids(got))
}

func TestFilter_CustomRangeInclusiveBothEnds(t *testing.T) {
	start, end := now.Add(-5*day), now.Add(-2*day)
	records := []*model.AnalyticRecord{
		{ID: 1, Date: start},
		{ID: 2, Date: end},
		{ID: 3, Date: start.Add(-time.Nanosecond)},
		{ID: 4, Date: end.Add(time.Nanosecond)},
		{ID: 5, Date: start.Add(day)},
	}
	got, done := Filter(records, Options{DateMode: DateCustomRange, Range: DateRange{Start: start, End: end}}, now)
	assert.True(t, done)
	assert.Equal(t, []int64{1, 2, 5}, ids(got))
}

func TestFilter_CustomRangeStartAfterEndIsEmpty(t *testing.T) {
	records := randomRecords(3, 50)
	got, done := Filter(records, Options{DateMode: DateCustomRange, Range: DateRange{Start: now, End: now.Add(-30 * day)}}, now)
	assert.True(t, done)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFilter_AmountAppliesBeforeCustomRange(t *testing.T) {
	records := []*model.AnalyticRecord{rec(1, 50, 1), rec(2, 600, 1)}
	opts := Options{Amount: Threshold500, DateMode: DateCustomRange, Range: DateRange{Start: now.Add(-2 * day), End: now}}
	got, _ := Filter(records, opts, now)
	assert.Equal(t, []int64{2}, ids(got))
}

func TestProcess_CustomRangeNeverSorts(t *testing.T) {
	records := randomRecords(4, 100)
	opts := Options{DateMode: DateCustomRange, Range: DateRange{Start: now.Add(-60 * day), End: now}}
	for _, order := range []SortOrder{SortNone, SortAscending, SortDescending} {
		opts.Sort = order
		assert.Equal(t, ids(records), ids(Process(records, opts, now)), "sort %s", order)
	}
}

func TestSort(t *testing.T) {
	records := []*model.AnalyticRecord{rec(1, 30, 0), rec(2, 10, 0), rec(3, 20, 0)}
	assert.Equal(t, []int64{2, 3, 1}, ids(Sort(records, SortAscending)))
	assert.Equal(t, []int64{1, 3, 2}, ids(Sort(records, SortDescending)))
	assert.Equal(t, []int64{1, 2, 3}, ids(Sort(records, SortNone)))
	assert.Equal(t, []int64{1, 2, 3}, ids(records), "input must not be reordered")
}

func TestSort_Stable(t *testing.T) {
	records := []*model.AnalyticRecord{rec(1, 5, 0), rec(2, 1, 0), rec(3, 5, 0), rec(4, 1, 0), rec(5, 5, 0)}
	assert.Equal(t, []int64{2, 4, 1, 3, 5}, ids(Sort(records, SortAscending)))
	assert.Equal(t, []int64{1, 3, 5, 2, 4}, ids(Sort(records, SortDescending)))
}

func TestProcess_DoesNotMutateInputAndKeepsIdentity(t *testing.T) {
	records := randomRecords(5, 40)
	before := append([]*model.AnalyticRecord(nil), records...)
	snapshot := make([]model.AnalyticRecord, len(records))
	for i, r := range records {
		snapshot[i] = *r
	}

	got := Process(records, Options{Amount: Threshold100, DateMode: DateLast30d, Sort: SortDescending}, now)
	assert.Equal(t, before, records)
	for i, r := range records {
		assert.Equal(t, snapshot[i], *r)
	}
	assert.True(t, subset(got, records))
}

func TestBuildSeries(t *testing.T) {
	s := BuildSeries([]*model.AnalyticRecord{
		{ID: 7, Total: 12.5, ProductCount: 3},
		{ID: 11, Total: 99, ProductCount: 1},
	})
	assert.Equal(t, []string{"Order 7", "Order 11"}, s.Labels)
	assert.Equal(t, []float64{12.5, 99}, s.Totals)
	assert.Equal(t, []int{3, 1}, s.ProductCounts)
	assert.Equal(t, 2, s.Len())

	ds := s.Datasets()
	require.Len(t, ds, 2)
	assert.Equal(t, TotalSalesLabel, ds[0].Label)
	assert.Equal(t, []float64{3, 1}, ds[1].Data)
}

func TestSummarize(t *testing.T) {
	orders := []model.RawOrder{
		{ID: 1, Total: model.Float64(10.10), TotalProducts: 2},
		{ID: 2, Total: model.Float64(20.20), TotalProducts: 3},
		{ID: 3, Total: model.Float64(0.01), TotalProducts: 1},
		{ID: 4, TotalProducts: 4},
	}
	s := Summarize(orders)
	assert.True(t, s.TotalSales.Equal(decimal.RequireFromString("30.31")), s.TotalSales.String())
	assert.Equal(t, 4, s.TotalOrders)
	assert.Equal(t, int64(10), s.TotalProductsSold)
	avg, ok := s.Average()
	require.True(t, ok)
	assert.True(t, avg.Equal(decimal.RequireFromString("7.5775")), avg.String())
	assert.Equal(t, "7.58", s.AverageOrderValueRounded.Decimal.String())
}

func TestCompute_SummaryIgnoresOptions(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	var orders []model.RawOrder
	dates := fixedDates{}
	for i := int64(1); i <= 60; i++ {
		orders = append(orders, model.RawOrder{ID: i, Total: model.Float64(float64(rng.Intn(2000))), Products: []model.LineItem{{}}, TotalProducts: int64(rng.Intn(5))})
		dates[i] = now.Add(-time.Duration(rng.Intn(40)) * day)
	}
	base, err := Compute(orders, dates, DefaultOptions(), now)
	require.NoError(t, err)

	variants := []Options{
		{Amount: Threshold1000, DateMode: DateLast24h, Sort: SortAscending},
		{Amount: Threshold500, DateMode: DateCustomRange, Range: DateRange{Start: now, End: now.Add(-day)}, Sort: SortDescending},
		{Amount: Threshold100, DateMode: DateLast7d, Sort: SortNone},
	}
	for _, o := range variants {
		v, err := Compute(orders, dates, o, now)
		require.NoError(t, err)
		assert.Equal(t, base.Summary, v.Summary)
	}
}

func TestCompute_SkipsInvalidRecords(t *testing.T) {
	orders := []model.RawOrder{
		{ID: 1, Total: model.Float64(120), Products: []model.LineItem{{}}},
		{ID: 2, Products: []model.LineItem{{}}},
		{ID: 3, Total: model.Float64(-4), Products: []model.LineItem{{}}},
		{ID: 4, Total: model.Float64(80)},
	}
	v, err := Compute(orders, fixedDates{1: now}, DefaultOptions(), now)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids(v.Records))
	require.Len(t, v.Skipped, 3)
	assert.Equal(t, int64(2), v.Skipped[0].ID)
	assert.Equal(t, 4, v.Summary.TotalOrders)
}

func TestCompute_DateSourceFailureAborts(t *testing.T) {
	orders := []model.RawOrder{{ID: 9, Total: model.Float64(1), Products: []model.LineItem{}}}
	_, err := Compute(orders, fixedDates{}, DefaultOptions(), now)
	require.Error(t, err)
}

func TestCompute_RejectsUnknownOptions(t *testing.T) {
	_, err := Compute(nil, fixedDates{}, Options{Amount: 250, DateMode: DateAll, Sort: SortNone}, now)
	assert.True(t, errors.Is(err, ErrUnknownOption))
}

func TestCompute_SynthesizedDatesStableAcrossRuns(t *testing.T) {
	orders := make([]model.RawOrder, 0, 30)
	for i := int64(1); i <= 30; i++ {
		orders = append(orders, model.RawOrder{ID: i, Total: model.Float64(float64(i * 50)), Products: []model.LineItem{{}}})
	}
	src := model.NewSeededSynthesizer(11)
	for _, mode := range []DateMode{DateLast24h, DateLast7d, DateLast30d} {
		opts := Options{DateMode: mode, Sort: SortNone}
		first, err := Compute(orders, src, opts, now)
		require.NoError(t, err)
		// A recompute a few seconds later sees the same records.
		second, err := Compute(orders, src, opts, now.Add(3*time.Second))
		require.NoError(t, err)
		assert.Equal(t, first.Series, second.Series, mode)
	}
}
