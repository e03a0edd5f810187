package domain

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

// Rain log column layout. The basic format carries date, time and the
// incremental depth; the extended format adds cumulative minutes and
// inches since the storm started.
const (
	colDate           = 0
	colTime           = 1
	colIncrement      = 3
	colCumulativeMin  = 14
	colCumulativeRain = 15

	minRainColumns      = colIncrement + 1
	extendedRainColumns = colCumulativeRain + 1

	// HeaderToken is the first field of a rain log header row.
	HeaderToken = "Date"

	// TimestampLayout parses the joined date and time columns.
	TimestampLayout = "1/2/2006 15:04:05"
)

// RainRow is one raw line of a rain log, split on commas. Line is 1-based.
type RainRow struct {
	Line   int
	Fields []string
}

// IsGap reports whether the row marks a storm boundary.
func (r RainRow) IsGap() bool {
	return len(r.Fields) == 0 || strings.TrimSpace(r.Fields[0]) == ""
}

// IsHeader reports whether the row is a column header.
func (r RainRow) IsHeader() bool {
	return len(r.Fields) > 0 && strings.TrimSpace(r.Fields[0]) == HeaderToken
}

// RainReading is a single timestamped gauge observation.
type RainReading struct {
	Line      int
	Time      time.Time
	Increment float64 // inches

	// Cumulative fields are only populated by the extended format.
	HasCumulative     bool
	CumulativeMinutes float64
	CumulativeRain    float64 // inches
}

// ParseRainReading converts a data row into a RainReading.
func ParseRainReading(row RainRow) (RainReading, error) {
	if len(row.Fields) < minRainColumns {
		return RainReading{}, rowErrorf("rain", row.Line, ErrMalformedRow,
			"expected at least %d columns, got %d", minRainColumns, len(row.Fields))
	}

	stamp := strings.TrimSpace(row.Fields[colDate]) + " " + strings.TrimSpace(row.Fields[colTime])
	ts, err := time.ParseInLocation(TimestampLayout, stamp, time.UTC)
	if err != nil {
		return RainReading{}, rowErrorf("rain", row.Line, ErrMalformedRow, "timestamp %q", stamp)
	}

	inc, err := parseFloatField(row.Fields[colIncrement])
	if err != nil {
		return RainReading{}, rowErrorf("rain", row.Line, ErrMalformedRow, "incremental rain %q", row.Fields[colIncrement])
	}
	if inc < 0 {
		return RainReading{}, rowErrorf("rain", row.Line, ErrMalformedRow, "negative incremental rain %g", inc)
	}

	reading := RainReading{Line: row.Line, Time: ts, Increment: inc}

	if len(row.Fields) < extendedRainColumns {
		return reading, nil
	}
	minutesField := strings.TrimSpace(row.Fields[colCumulativeMin])
	rainField := strings.TrimSpace(row.Fields[colCumulativeRain])
	if minutesField == "" && rainField == "" {
		return reading, nil
	}

	minutes, err := parseFloatField(minutesField)
	if err != nil {
		return RainReading{}, rowErrorf("rain", row.Line, ErrMalformedRow, "cumulative minutes %q", minutesField)
	}
	cum, err := parseFloatField(rainField)
	if err != nil {
		return RainReading{}, rowErrorf("rain", row.Line, ErrMalformedRow, "cumulative rain %q", rainField)
	}

	if minutes < 0 || cum < 0 {
		return RainReading{}, rowErrorf("rain", row.Line, ErrMalformedRow,
			"negative cumulative field (%g min, %g in)", minutes, cum)
	}

	reading.HasCumulative = true
	reading.CumulativeMinutes = minutes
	reading.CumulativeRain = cum
	return reading, nil
}

var errNotFinite = errors.New("not a finite number")

// parseFloatField parses a numeric column. NaN and infinities are rejected.
func parseFloatField(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errNotFinite
	}
	return v, nil
}
