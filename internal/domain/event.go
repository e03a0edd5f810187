package domain

import (
	"math"
	"slices"
	"time"
)

const (
	// DefaultStormDuration is assigned to storms that cannot be timed from
	// their readings, most commonly single-reading storms.
	DefaultStormDuration = 300.0 // seconds

	// TotalTolerance bounds the disagreement between summed increments and
	// a cumulative total.
	TotalTolerance = 0.001 // inches

	stormIDLayout = "1/2/2006-15:04:05"
)

// Sample is one point of a storm's cumulative rainfall curve.
type Sample struct {
	ElapsedMinutes float64 `json:"elapsed_min"`
	Cumulative     float64 `json:"cumulative_in"`
}

// StormEvent is a contiguous burst of rain bounded by gaps in the gauge log.
type StormEvent struct {
	ID        string    `json:"id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	TotalRain float64   `json:"total_rain"` // inches
	Duration  float64   `json:"duration"`   // seconds
	Readings  int       `json:"readings"`
	Samples   []Sample  `json:"samples,omitempty"`
}

// DurationHours returns the storm length in hours.
func (e StormEvent) DurationHours() float64 {
	return e.Duration / 3600
}

// NewStormEvent builds a storm from one run of readings. Readings are
// ordered by timestamp first, so the order they appeared in the log does
// not matter.
func NewStormEvent(readings []RainReading) (StormEvent, error) {
	if len(readings) == 0 {
		return StormEvent{}, ErrMalformedRow
	}

	sorted := slices.Clone(readings)
	slices.SortStableFunc(sorted, func(a, b RainReading) int {
		return a.Time.Compare(b.Time)
	})

	first, last := sorted[0], sorted[len(sorted)-1]
	event := StormEvent{
		ID:       first.Time.Format(stormIDLayout),
		Start:    first.Time,
		End:      last.Time,
		Readings: len(sorted),
		Samples:  buildSamples(sorted),
	}

	var summed float64
	for _, r := range sorted {
		summed += r.Increment
	}

	if len(sorted) == 1 {
		event.TotalRain = first.Increment
		event.Duration = DefaultStormDuration
		return event, nil
	}

	event.TotalRain = summed
	event.Duration = last.Time.Sub(first.Time).Seconds()

	if auth, ok := authoritative(sorted); ok {
		if math.Abs(auth.CumulativeRain-summed) > TotalTolerance {
			return StormEvent{}, rowErrorf("rain", auth.Line, ErrInconsistentTotal,
				"cumulative %g in, summed %g in", auth.CumulativeRain, summed)
		}
		event.TotalRain = auth.CumulativeRain
		if auth.CumulativeMinutes > 0 {
			event.Duration = auth.CumulativeMinutes * 60
		}
	}

	if event.Duration <= 0 {
		event.Duration = DefaultStormDuration
	}
	return event, nil
}

// authoritative returns the chronologically latest reading that carries
// cumulative fields. readings must be sorted by time.
func authoritative(sorted []RainReading) (RainReading, bool) {
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i].HasCumulative {
			return sorted[i], true
		}
	}
	return RainReading{}, false
}

func buildSamples(sorted []RainReading) []Sample {
	samples := make([]Sample, 0, len(sorted))
	start := sorted[0].Time
	var cum float64
	for _, r := range sorted {
		cum += r.Increment
		samples = append(samples, Sample{
			ElapsedMinutes: r.Time.Sub(start).Minutes(),
			Cumulative:     cum,
		})
	}
	return samples
}
