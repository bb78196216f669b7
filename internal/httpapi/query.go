package httpapi

import (
	"net/url"

	"salesstats/internal/analytics"
)

func parseOptions(q url.Values) (analytics.Options, analytics.ChartKind, error) {
	return analytics.ParseQuery(q.Get("amount"), q.Get("sort"), q.Get("date"), q.Get("start"), q.Get("end"), q.Get("chart"))
}
