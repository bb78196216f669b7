package analytics

import (
	"fmt"
	"time"
)

const dayLayout = "2006-01-02"

// ParseQuery turns the raw control values into Options and a chart kind.
// Unknown values wrap ErrUnknownOption. start and end are read only in
// custom-range mode, where both are required.
func ParseQuery(amount, sort, date, start, end, chart string) (Options, ChartKind, error) {
	opts := DefaultOptions()
	var err error
	if opts.Amount, err = ParseAmountThreshold(amount); err != nil {
		return opts, "", err
	}
	if opts.Sort, err = ParseSortOrder(sort); err != nil {
		return opts, "", err
	}
	if opts.DateMode, err = ParseDateMode(date); err != nil {
		return opts, "", err
	}
	kind, err := ParseChartKind(chart)
	if err != nil {
		return opts, "", err
	}

	if opts.DateMode == DateCustomRange {
		if start == "" || end == "" {
			return opts, "", fmt.Errorf("%w: custom range needs start and end", ErrUnknownOption)
		}
		if opts.Range.Start, err = ParseBound(start, false); err != nil {
			return opts, "", err
		}
		if opts.Range.End, err = ParseBound(end, true); err != nil {
			return opts, "", err
		}
	}
	return opts, kind, nil
}

// ParseBound accepts RFC3339 or a bare UTC day. A bare end day covers the
// whole day.
func ParseBound(s string, end bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", ErrUnknownOption, s)
	}
	if end {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
