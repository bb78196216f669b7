package model

import (
	"errors"
	"fmt"
	"time"
)

// LineItem is one product line inside a cart.
type LineItem struct {
	ID                 int64   `json:"id"`
	Title              string  `json:"title"`
	Price              float64 `json:"price"`
	Quantity           int64   `json:"quantity"`
	Total              float64 `json:"total"`
	DiscountPercentage float64 `json:"discountPercentage"`
	DiscountedTotal    float64 `json:"discountedTotal"`
}

// RawOrder is a cart as returned by the order listing service.
// Total is a pointer so a missing field can be told apart from zero.
type RawOrder struct {
	ID              int64      `json:"id"`
	Products        []LineItem `json:"products"`
	Total           *float64   `json:"total"`
	DiscountedTotal float64    `json:"discountedTotal"`
	UserID          int64      `json:"userId"`
	TotalProducts   int64      `json:"totalProducts"` // units counted by the summary
	TotalQuantity   int64      `json:"totalQuantity"`
}

// CartsPage is one page of the carts listing.
type CartsPage struct {
	Carts []RawOrder `json:"carts"`
	Total int        `json:"total"`
	Skip  int        `json:"skip"`
	Limit int        `json:"limit"`
}

// AnalyticRecord is the normalized shape the statistics pipeline works on.
type AnalyticRecord struct {
	ID           int64     `json:"id"`
	Total        float64   `json:"total"`
	ProductCount int       `json:"productCount"`
	Date         time.Time `json:"date"`
}

// ErrInvalidRecord matches every *InvalidRecordError.
var ErrInvalidRecord = errors.New("invalid record")

// InvalidRecordError reports a raw order that cannot be normalized.
type InvalidRecordError struct {
	ID     int64
	Field  string
	Reason string
}

func (e *InvalidRecordError) Error() string {
	return fmt.Sprintf("order %d: %s %s", e.ID, e.Field, e.Reason)
}

func (e *InvalidRecordError) Unwrap() error { return ErrInvalidRecord }

// Validate checks the fields normalization depends on.
func Validate(o RawOrder) error {
	switch {
	case o.Total == nil:
		return &InvalidRecordError{ID: o.ID, Field: "total", Reason: "missing"}
	case *o.Total < 0:
		return &InvalidRecordError{ID: o.ID, Field: "total", Reason: "negative"}
	case o.Products == nil:
		return &InvalidRecordError{ID: o.ID, Field: "products", Reason: "missing"}
	}
	return nil
}

// Normalize converts a RawOrder into an AnalyticRecord carrying the given date.
func Normalize(o RawOrder, date time.Time) (*AnalyticRecord, error) {
	if err := Validate(o); err != nil {
		return nil, err
	}
	return &AnalyticRecord{
		ID:           o.ID,
		Total:        *o.Total,
		ProductCount: len(o.Products),
		Date:         date,
	}, nil
}

// Float64 returns a pointer to v; handy for building RawOrder literals.
func Float64(v float64) *float64 { return &v }
