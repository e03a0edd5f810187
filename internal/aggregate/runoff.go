package aggregate

import (
	"slices"
	"time"

	"github.com/couchcryptid/storm-runoff/internal/domain"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Options controls the runoff aggregation.
type Options struct {
	Months      MonthRange
	Denominator Denominator
}

// DefaultOptions returns the April-October season averaged over dataset years.
func DefaultOptions() Options {
	return Options{Months: DefaultMonthRange(), Denominator: DatasetYears}
}

type cellKey struct {
	subcatchment string
	month        time.Month
	year         int
}

// Cell collects the storms that fell on one subcatchment in one month of
// one year.
type Cell struct {
	Subcatchment string     `json:"subcatchment"`
	Month        time.Month `json:"month"`
	Year         int        `json:"year"`
	Values       []float64  `json:"values"`
	Total        float64    `json:"total"`
	Mean         float64    `json:"mean"`
}

// YearTotal is one year's runoff for a subcatchment and month.
type YearTotal struct {
	Year   int     `json:"year"`
	Total  float64 `json:"total"`
	Storms int     `json:"storms"`
}

// MonthSummary is the per-year breakdown and average for one month.
type MonthSummary struct {
	Month        time.Month  `json:"month"`
	Years        []YearTotal `json:"years"`
	YearsCounted int         `json:"years_counted"`
	Average      float64     `json:"average"`
}

// SubcatchmentSummary holds every configured month for one subcatchment.
type SubcatchmentSummary struct {
	Name   string         `json:"name"`
	Months []MonthSummary `json:"months"`
}

// RunoffSummary is the subcatchment -> month -> year view of a run.
type RunoffSummary struct {
	Months        []time.Month          `json:"months"`
	Years         []int                 `json:"years"`
	Denominator   Denominator           `json:"denominator"`
	Subcatchments []SubcatchmentSummary `json:"subcatchments"`

	// Excluded counts results whose storm month falls outside Months.
	Excluded int `json:"excluded"`

	cells map[cellKey]*Cell
}

// Runoff groups results by subcatchment, storm-start month and year.
//
// Every subcatchment x month x year cell is created up front, so months
// with no storms in some year hold an empty cell with a zero total. Years
// are taken from all results, including those outside the month range.
func Runoff(results []domain.RunoffResult, opts Options) (*RunoffSummary, error) {
	if err := opts.Months.Validate(); err != nil {
		return nil, err
	}
	denom, err := ParseDenominator(string(opts.Denominator))
	if err != nil {
		return nil, err
	}

	var names []string
	seenName := make(map[string]bool)
	seenYear := make(map[int]bool)
	for _, r := range results {
		if name := r.Subcatchment.Name; !seenName[name] {
			seenName[name] = true
			names = append(names, name)
		}
		seenYear[r.Storm.Start.Year()] = true
	}
	years := make([]int, 0, len(seenYear))
	for y := range seenYear {
		years = append(years, y)
	}
	slices.Sort(years)

	months := opts.Months.Months()
	s := &RunoffSummary{
		Months:      months,
		Years:       years,
		Denominator: denom,
		cells:       make(map[cellKey]*Cell, len(names)*len(months)*len(years)),
	}
	for _, name := range names {
		for _, m := range months {
			for _, y := range years {
				s.cells[cellKey{name, m, y}] = &Cell{Subcatchment: name, Month: m, Year: y}
			}
		}
	}

	for _, r := range results {
		month := r.Storm.Start.Month()
		if !opts.Months.Contains(month) {
			s.Excluded++
			continue
		}
		c := s.cells[cellKey{r.Subcatchment.Name, month, r.Storm.Start.Year()}]
		c.Values = append(c.Values, r.Runoff)
	}

	for _, c := range s.cells {
		c.Total = floats.Sum(c.Values)
		if len(c.Values) > 0 {
			c.Mean = stat.Mean(c.Values, nil)
		}
	}

	s.Subcatchments = make([]SubcatchmentSummary, 0, len(names))
	for _, name := range names {
		sub := SubcatchmentSummary{Name: name, Months: make([]MonthSummary, 0, len(months))}
		for _, m := range months {
			sub.Months = append(sub.Months, s.summarizeMonth(name, m))
		}
		s.Subcatchments = append(s.Subcatchments, sub)
	}
	return s, nil
}

func (s *RunoffSummary) summarizeMonth(name string, m time.Month) MonthSummary {
	ms := MonthSummary{Month: m, Years: make([]YearTotal, 0, len(s.Years))}
	totals := make([]float64, 0, len(s.Years))
	withStorms := 0
	for _, y := range s.Years {
		c := s.cells[cellKey{name, m, y}]
		ms.Years = append(ms.Years, YearTotal{Year: y, Total: c.Total, Storms: len(c.Values)})
		totals = append(totals, c.Total)
		if len(c.Values) > 0 {
			withStorms++
		}
	}

	ms.YearsCounted = len(s.Years)
	if s.Denominator == MonthYears {
		ms.YearsCounted = withStorms
	}
	if ms.YearsCounted > 0 {
		ms.Average = floats.Sum(totals) / float64(ms.YearsCounted)
	}
	return ms
}

// Cell returns the cell for a subcatchment, month and year.
func (s *RunoffSummary) Cell(subcatchment string, month time.Month, year int) (Cell, bool) {
	c, ok := s.cells[cellKey{subcatchment, month, year}]
	if !ok {
		return Cell{}, false
	}
	return *c, true
}

// Subcatchment returns the summary for one subcatchment.
func (s *RunoffSummary) Subcatchment(name string) (SubcatchmentSummary, bool) {
	for _, sub := range s.Subcatchments {
		if sub.Name == name {
			return sub, true
		}
	}
	return SubcatchmentSummary{}, false
}

// AverageTable lays the monthly averages out one row per subcatchment.
func (s *RunoffSummary) AverageTable() MonthlyTable {
	t := MonthlyTable{Label: "Subcatchment", Months: s.Months, Rows: make([]TableRow, 0, len(s.Subcatchments))}
	for _, sub := range s.Subcatchments {
		row := TableRow{Key: sub.Name, Values: make([]float64, len(sub.Months))}
		for i, m := range sub.Months {
			row.Values[i] = m.Average
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}
