package analytics

import (
	"github.com/shopspring/decimal"

	"salesstats/internal/model"
)

// Summary describes the whole raw dataset, whatever the active options.
// AverageOrderValue is null when there are no orders. Money fields encode as
// JSON strings ("1880.5") so no precision is lost; counts are numbers.
type Summary struct {
	TotalSales               decimal.Decimal     `json:"totalSales"`
	TotalOrders              int                 `json:"totalOrders"`
	AverageOrderValue        decimal.NullDecimal `json:"averageOrderValue"`
	AverageOrderValueRounded decimal.NullDecimal `json:"averageOrderValueRounded"`
	TotalProductsSold        int64               `json:"totalProductsSold"`
}

// Summarize computes the headline metrics over the raw, unfiltered orders.
// A missing total counts as zero; the order still counts toward TotalOrders.
func Summarize(orders []model.RawOrder) Summary {
	sales := decimal.Zero
	var units int64
	for _, o := range orders {
		if o.Total != nil {
			sales = sales.Add(decimal.NewFromFloat(*o.Total))
		}
		units += o.TotalProducts
	}
	s := Summary{
		TotalSales:        sales,
		TotalOrders:       len(orders),
		TotalProductsSold: units,
	}
	if len(orders) > 0 {
		avg := sales.Div(decimal.NewFromInt(int64(len(orders))))
		s.AverageOrderValue = decimal.NewNullDecimal(avg)
		s.AverageOrderValueRounded = decimal.NewNullDecimal(avg.Round(2))
	}
	return s
}

// Average returns the average order value and whether it is defined.
func (s Summary) Average() (decimal.Decimal, bool) {
	return s.AverageOrderValue.Decimal, s.AverageOrderValue.Valid
}
