package aggregate

import (
	"slices"
	"strconv"
	"time"

	"github.com/couchcryptid/storm-runoff/internal/domain"
)

// MonthlyTable is a row-per-key, column-per-month grid.
type MonthlyTable struct {
	Label  string       `json:"label"`
	Months []time.Month `json:"months"`
	Rows   []TableRow   `json:"rows"`
}

// TableRow is one line of a MonthlyTable; Values align with Months.
type TableRow struct {
	Key    string    `json:"key"`
	Values []float64 `json:"values"`
}

type yearMonth struct {
	year  int
	month time.Month
}

// MonthlyRainfall totals storm rainfall (inches) by year and month.
func MonthlyRainfall(events []domain.StormEvent, r MonthRange) MonthlyTable {
	return stormTable(events, r, func(e domain.StormEvent) float64 { return e.TotalRain })
}

// MonthlyEventCount counts storms by year and month.
func MonthlyEventCount(events []domain.StormEvent, r MonthRange) MonthlyTable {
	return stormTable(events, r, func(domain.StormEvent) float64 { return 1 })
}

// MonthlyDuration totals storm duration (hours) by year and month.
func MonthlyDuration(events []domain.StormEvent, r MonthRange) MonthlyTable {
	return stormTable(events, r, func(e domain.StormEvent) float64 { return e.DurationHours() })
}

// stormTable buckets events by the year and month of their start. Every
// year with any storm gets a row, zero-filled for months without one.
func stormTable(events []domain.StormEvent, r MonthRange, value func(domain.StormEvent) float64) MonthlyTable {
	totals := make(map[yearMonth]float64)
	seen := make(map[int]bool)
	for _, e := range events {
		y := e.Start.Year()
		seen[y] = true
		totals[yearMonth{y, e.Start.Month()}] += value(e)
	}

	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	slices.Sort(years)

	months := r.Months()
	t := MonthlyTable{Label: "Year", Months: months, Rows: make([]TableRow, 0, len(years))}
	for _, y := range years {
		row := TableRow{Key: strconv.Itoa(y), Values: make([]float64, len(months))}
		for i, m := range months {
			row.Values[i] = totals[yearMonth{y, m}]
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}
