package analytics

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnknownOption is returned when an option value is outside its closed set.
var ErrUnknownOption = errors.New("unknown option")

// AmountThreshold keeps records whose total strictly exceeds it. Zero keeps everything.
type AmountThreshold int

const (
	ThresholdNone AmountThreshold = 0
	Threshold100  AmountThreshold = 100
	Threshold500  AmountThreshold = 500
	Threshold1000 AmountThreshold = 1000
)

// ParseAmountThreshold accepts "none", "all", "" or the bare amounts, optionally prefixed with ">".
func ParseAmountThreshold(s string) (AmountThreshold, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ">") {
	case "", "none", "all":
		return ThresholdNone, nil
	case "100":
		return Threshold100, nil
	case "500":
		return Threshold500, nil
	case "1000":
		return Threshold1000, nil
	}
	return ThresholdNone, fmt.Errorf("%w: amount threshold %q", ErrUnknownOption, s)
}

func (t AmountThreshold) String() string {
	if t == ThresholdNone {
		return "none"
	}
	return fmt.Sprintf(">%d", int(t))
}

// DateMode selects the date window applied after the amount filter.
type DateMode string

const (
	DateAll         DateMode = "all"
	DateLast24h     DateMode = "last-24h"
	DateLast7d      DateMode = "last-7d"
	DateLast30d     DateMode = "last-30d"
	DateCustomRange DateMode = "custom-range"
)

// ParseDateMode accepts the canonical names and the short forms day, week, month and range.
func ParseDateMode(s string) (DateMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return DateAll, nil
	case "last-24h", "day":
		return DateLast24h, nil
	case "last-7d", "week":
		return DateLast7d, nil
	case "last-30d", "month":
		return DateLast30d, nil
	case "custom-range", "range":
		return DateCustomRange, nil
	}
	return DateAll, fmt.Errorf("%w: date mode %q", ErrUnknownOption, s)
}

// lookback returns how far before now a relative window reaches.
func (m DateMode) lookback() (time.Duration, bool) {
	switch m {
	case DateLast24h:
		return 24 * time.Hour, true
	case DateLast7d:
		return 7 * 24 * time.Hour, true
	case DateLast30d:
		return 30 * 24 * time.Hour, true
	}
	return 0, false
}

// SortOrder orders records by total.
type SortOrder string

const (
	SortNone       SortOrder = "none"
	SortAscending  SortOrder = "ascending"
	SortDescending SortOrder = "descending"
)

func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return SortNone, nil
	case "asc", "ascending":
		return SortAscending, nil
	case "desc", "descending":
		return SortDescending, nil
	}
	return SortNone, fmt.Errorf("%w: sort order %q", ErrUnknownOption, s)
}

// DateRange is an inclusive window. Start after End matches nothing.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Options is one combination of the view controls.
type Options struct {
	Amount   AmountThreshold `json:"amountThreshold"`
	DateMode DateMode        `json:"dateMode"`
	Range    DateRange       `json:"customRange"`
	Sort     SortOrder       `json:"sortOrder"`
}

// DefaultOptions matches the controls' initial state: everything, unsorted.
func DefaultOptions() Options {
	return Options{Amount: ThresholdNone, DateMode: DateAll, Sort: SortNone}
}

// Validate reports options built by hand that fall outside the closed sets.
func (o Options) Validate() error {
	switch o.Amount {
	case ThresholdNone, Threshold100, Threshold500, Threshold1000:
	default:
		return fmt.Errorf("%w: amount threshold %d", ErrUnknownOption, int(o.Amount))
	}
	switch o.DateMode {
	case DateAll, DateLast24h, DateLast7d, DateLast30d, DateCustomRange:
	default:
		return fmt.Errorf("%w: date mode %q", ErrUnknownOption, o.DateMode)
	}
	switch o.Sort {
	case SortNone, SortAscending, SortDescending:
	default:
		return fmt.Errorf("%w: sort order %q", ErrUnknownOption, o.Sort)
	}
	return nil
}
