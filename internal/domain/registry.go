package domain

import (
	"fmt"
	"strings"
)

// Registry is the ordered set of subcatchments for one run.
type Registry struct {
	items []Subcatchment
	index map[string]int
}

// NewRegistry validates every subcatchment and rejects duplicate names.
func NewRegistry(subcatchments []Subcatchment) (*Registry, error) {
	r := &Registry{
		items: make([]Subcatchment, 0, len(subcatchments)),
		index: make(map[string]int, len(subcatchments)),
	}
	for _, sc := range subcatchments {
		valid, err := NewSubcatchment(sc)
		if err != nil {
			return nil, err
		}
		if _, ok := r.index[valid.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSubcatchment, valid.Name)
		}
		r.index[valid.Name] = len(r.items)
		r.items = append(r.items, valid)
	}
	return r, nil
}

// Get returns the subcatchment with the given name.
func (r *Registry) Get(name string) (Subcatchment, bool) {
	i, ok := r.index[name]
	if !ok {
		return Subcatchment{}, false
	}
	return r.items[i], true
}

// All returns the subcatchments in table order.
func (r *Registry) All() []Subcatchment {
	out := make([]Subcatchment, len(r.items))
	copy(out, r.items)
	return out
}

// Len returns the number of subcatchments.
func (r *Registry) Len() int { return len(r.items) }

// ParseAdjustment reads one "name,factor" row of an adjustment table.
func ParseAdjustment(fields []string, line int) (string, float64, error) {
	if len(fields) < 2 {
		return "", 0, rowErrorf("adjustment", line, ErrMalformedRow, "expected 2 columns, got %d", len(fields))
	}
	factor, err := parseFloatField(fields[1])
	if err != nil {
		return "", 0, rowErrorf("adjustment", line, ErrMalformedRow, "factor %q", fields[1])
	}
	if factor < 0 {
		return "", 0, rowErrorf("adjustment", line, ErrMalformedRow, "negative factor %g", factor)
	}
	return strings.TrimSpace(fields[0]), factor, nil
}
