package domain

import (
	"fmt"
	"math"
)

const (
	acresPerSquareMile = 640.0
	inchesPerFoot      = 12.0
	secondsPerHour     = 3600.0
)

// RunoffResult is the runoff produced by one storm over one subcatchment.
// Areas are in acres, volumes in acre-feet and infiltration in inches.
type RunoffResult struct {
	Subcatchment     Subcatchment `json:"subcatchment"`
	Storm            StormEvent   `json:"storm"`
	AreaAcres        float64      `json:"area_acre"`
	ImperviousArea   float64      `json:"imp_area"`
	PerviousArea     float64      `json:"perv_area"`
	ImperviousVolume float64      `json:"imp_vol"`
	Infiltration     float64      `json:"infil"`
	PerviousVolume   float64      `json:"per_vol"`
	Runoff           float64      `json:"runoff"`
	Adjustment       float64      `json:"adjustment"`
}

// Compute runs one storm through the subcatchment's volume model.
//
// Each component volume is floored at zero on its own before the two are
// summed, so a pervious deficit never cancels impervious runoff.
func Compute(event StormEvent, sc Subcatchment) RunoffResult {
	area := sc.Area * acresPerSquareMile
	impArea := area * sc.Imperviousness / 100
	pervArea := area - impArea

	infil := HortonInfiltration(sc.HortonInitial, sc.HortonDecay, sc.HortonFinal, event.Duration)
	impVol := math.Max(impArea*(event.TotalRain-sc.DepressStorImperv)/inchesPerFoot, 0)
	pervVol := math.Max(pervArea*(event.TotalRain-sc.DepressStorPerv-infil)/inchesPerFoot, 0)

	return RunoffResult{
		Subcatchment:     sc,
		Storm:            event,
		AreaAcres:        area,
		ImperviousArea:   impArea,
		PerviousArea:     pervArea,
		ImperviousVolume: impVol,
		Infiltration:     infil,
		PerviousVolume:   pervVol,
		Runoff:           impVol + pervVol,
		Adjustment:       1,
	}
}

// HortonInfiltration integrates Horton's infiltration-rate curve over a
// storm. f0 and fc are in in/hr, k in 1/sec and duration in seconds; the
// result is in inches. With k == 0 the rate never decays and the integral
// reduces to f0 * t.
func HortonInfiltration(f0, k, fc, duration float64) float64 {
	tHr := duration / secondsPerHour
	if k == 0 {
		return f0 * tHr
	}
	kHr := k * secondsPerHour
	return fc*tHr - ((f0-fc)/kHr)*math.Expm1(-kHr*tHr)
}

// ComputeAll evaluates every storm against every subcatchment, grouped by
// subcatchment in registry order.
func ComputeAll(events []StormEvent, registry *Registry) []RunoffResult {
	results := make([]RunoffResult, 0, len(events)*registry.Len())
	for _, sc := range registry.All() {
		for _, event := range events {
			results = append(results, Compute(event, sc))
		}
	}
	return results
}

// ApplyAdjustments scales each result's runoff by its subcatchment's
// factor. The input slice is left untouched. Every subcatchment present in
// results must have a factor.
func ApplyAdjustments(results []RunoffResult, factors map[string]float64) ([]RunoffResult, error) {
	out := make([]RunoffResult, len(results))
	for i, r := range results {
		factor, ok := factors[r.Subcatchment.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingAdjustment, r.Subcatchment.Name)
		}
		r.Runoff *= factor
		r.Adjustment = factor
		out[i] = r
	}
	return out, nil
}
