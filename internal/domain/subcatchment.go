package domain

import (
	"fmt"
	"math"
	"strings"
)

// Parameter table column layout (CUHP order, no header).
const (
	colName          = 0
	colArea          = 3
	colImperv        = 7
	colDepressPerv   = 8
	colDepressImperv = 9
	colHortonInit    = 10
	colHortonDecay   = 11
	colHortonFinal   = 12

	minParamColumns = colHortonFinal + 1
)

// Subcatchment holds the static hydrological parameters of one drainage area.
type Subcatchment struct {
	Name              string  `json:"name"`
	Area              float64 `json:"area"`                // square miles
	Imperviousness    float64 `json:"imperviousness"`      // percent, 0-100
	DepressStorPerv   float64 `json:"depress_stor_perv"`   // inches
	DepressStorImperv float64 `json:"depress_stor_imperv"` // inches
	HortonInitial     float64 `json:"horton_initial"`      // in/hr
	HortonDecay       float64 `json:"horton_decay"`        // 1/sec
	HortonFinal       float64 `json:"horton_final"`        // in/hr
}

// NewSubcatchment validates p and returns it unchanged when every
// parameter is in range. A zero Horton decay is accepted; see
// HortonInfiltration.
func NewSubcatchment(p Subcatchment) (Subcatchment, error) {
	p.Name = strings.TrimSpace(p.Name)
	switch {
	case p.Name == "":
		return Subcatchment{}, fmt.Errorf("%w: empty name", ErrInvalidSubcatchment)
	case !(p.Area > 0 && !math.IsInf(p.Area, 1)):
		return Subcatchment{}, fmt.Errorf("%w: %s: area %g must be positive and finite", ErrInvalidSubcatchment, p.Name, p.Area)
	case !(p.Imperviousness >= 0 && p.Imperviousness <= 100):
		return Subcatchment{}, fmt.Errorf("%w: %s: imperviousness %g outside [0,100]", ErrInvalidSubcatchment, p.Name, p.Imperviousness)
	case !nonNegative(p.DepressStorPerv) || !nonNegative(p.DepressStorImperv):
		return Subcatchment{}, fmt.Errorf("%w: %s: depression storage must be non-negative", ErrInvalidSubcatchment, p.Name)
	case !nonNegative(p.HortonInitial) || !nonNegative(p.HortonFinal):
		return Subcatchment{}, fmt.Errorf("%w: %s: infiltration rate must be non-negative", ErrInvalidSubcatchment, p.Name)
	case !nonNegative(p.HortonDecay):
		return Subcatchment{}, fmt.Errorf("%w: %s: horton decay %g must be non-negative", ErrInvalidSubcatchment, p.Name, p.HortonDecay)
	}
	return p, nil
}

// nonNegative is false for negatives, NaN and +Inf.
func nonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 1)
}

// ParseSubcatchment reads one parameter table row. line is used for error
// reporting only.
func ParseSubcatchment(fields []string, line int) (Subcatchment, error) {
	if len(fields) < minParamColumns {
		return Subcatchment{}, rowErrorf("subcatchment", line, ErrMalformedRow,
			"expected at least %d columns, got %d", minParamColumns, len(fields))
	}

	p := Subcatchment{Name: fields[colName]}
	columns := []struct {
		idx int
		dst *float64
	}{
		{colArea, &p.Area},
		{colImperv, &p.Imperviousness},
		{colDepressPerv, &p.DepressStorPerv},
		{colDepressImperv, &p.DepressStorImperv},
		{colHortonInit, &p.HortonInitial},
		{colHortonDecay, &p.HortonDecay},
		{colHortonFinal, &p.HortonFinal},
	}
	for _, c := range columns {
		v, err := parseFloatField(fields[c.idx])
		if err != nil {
			return Subcatchment{}, rowErrorf("subcatchment", line, ErrMalformedRow, "column %d %q", c.idx, fields[c.idx])
		}
		*c.dst = v
	}

	sc, err := NewSubcatchment(p)
	if err != nil {
		return Subcatchment{}, &RowError{Source: "subcatchment", Line: line, Err: err}
	}
	return sc, nil
}
