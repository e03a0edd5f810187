// Package aggregate folds per-storm results into calendar summaries.
package aggregate

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// MonthRange is an inclusive span of calendar months within one year.
type MonthRange struct {
	Start time.Month
	End   time.Month
}

// DefaultMonthRange covers the April-October storm season.
func DefaultMonthRange() MonthRange {
	return MonthRange{Start: time.April, End: time.October}
}

// Validate rejects ranges outside January-December or running backwards.
func (r MonthRange) Validate() error {
	if r.Start < time.January || r.End > time.December || r.Start > r.End {
		return fmt.Errorf("invalid month range %d-%d", r.Start, r.End)
	}
	return nil
}

// Contains reports whether m falls inside the range.
func (r MonthRange) Contains(m time.Month) bool {
	return m >= r.Start && m <= r.End
}

// Months lists the months of the range in ascending order.
func (r MonthRange) Months() []time.Month {
	if r.Start > r.End {
		return nil
	}
	out := make([]time.Month, 0, r.End-r.Start+1)
	for m := r.Start; m <= r.End; m++ {
		out = append(out, m)
	}
	return out
}

// Denominator selects how a monthly average counts years.
type Denominator string

const (
	// DatasetYears divides by every distinct year seen in the results, so
	// a year without storms in a month contributes a zero.
	DatasetYears Denominator = "dataset"

	// MonthYears divides only by the years that had at least one storm in
	// the month being averaged.
	MonthYears Denominator = "month"
)

// ParseDenominator accepts "dataset" or "month" (case-insensitive).
func ParseDenominator(s string) (Denominator, error) {
	switch d := Denominator(strings.ToLower(strings.TrimSpace(s))); d {
	case DatasetYears, MonthYears:
		return d, nil
	case "":
		return DatasetYears, nil
	default:
		return "", errors.New("unknown average denominator " + s)
	}
}
