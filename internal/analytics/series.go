package analytics

import (
	"fmt"
	"strconv"

	"salesstats/internal/model"
)

// Series holds index-aligned chart data.
type Series struct {
	Labels        []string  `json:"labels"`
	Totals        []float64 `json:"totals"`
	ProductCounts []int     `json:"productCounts"`
}

// Dataset is one labelled data row as the chart layer draws it.
type Dataset struct {
	Label string    `json:"label"`
	Data  []float64 `json:"data"`
}

const (
	ChartTitle       = "Sales Statistics"
	TotalSalesLabel  = "Total Sales"
	ProductsLabel    = "Number of Products"
	orderLabelPrefix = "Order "
)

// BuildSeries converts records into parallel series. Empty input yields empty,
// non-nil slices.
func BuildSeries(records []*model.AnalyticRecord) Series {
	s := Series{
		Labels:        make([]string, 0, len(records)),
		Totals:        make([]float64, 0, len(records)),
		ProductCounts: make([]int, 0, len(records)),
	}
	for _, r := range records {
		s.Labels = append(s.Labels, orderLabelPrefix+strconv.FormatInt(r.ID, 10))
		s.Totals = append(s.Totals, r.Total)
		s.ProductCounts = append(s.ProductCounts, r.ProductCount)
	}
	return s
}

func (s Series) Len() int { return len(s.Labels) }

// Datasets returns the two rows drawn for the series.
func (s Series) Datasets() []Dataset {
	counts := make([]float64, len(s.ProductCounts))
	for i, c := range s.ProductCounts {
		counts[i] = float64(c)
	}
	return []Dataset{
		{Label: TotalSalesLabel, Data: s.Totals},
		{Label: ProductsLabel, Data: counts},
	}
}

// ChartKind is a rendering hint; it never changes the series.
type ChartKind string

const (
	ChartBar  ChartKind = "bar"
	ChartPie  ChartKind = "pie"
	ChartLine ChartKind = "line"
)

// ParseChartKind defaults to bar.
func ParseChartKind(s string) (ChartKind, error) {
	switch ChartKind(s) {
	case "":
		return ChartBar, nil
	case ChartBar, ChartPie, ChartLine:
		return ChartKind(s), nil
	}
	return ChartBar, fmt.Errorf("%w: chart type %q", ErrUnknownOption, s)
}
