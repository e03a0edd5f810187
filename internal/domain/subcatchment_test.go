package domain

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testParamRow = "HLC-1,Basin,x,0.1,0.5,1.2,0.01,50,0.2,0.1,4.5,0.0007,0.5,extra"

func TestParseSubcatchment(t *testing.T) {
	sc, err := ParseSubcatchment(strings.Split(testParamRow, ","), 1)
	require.NoError(t, err)

	assert.Equal(t, Subcatchment{
		Name:              "HLC-1",
		Area:              0.1,
		Imperviousness:    50,
		DepressStorPerv:   0.2,
		DepressStorImperv: 0.1,
		HortonInitial:     4.5,
		HortonDecay:       0.0007,
		HortonFinal:       0.5,
	}, sc)
}

func TestParseSubcatchment_Errors(t *testing.T) {
	tests := []struct {
		name     string
		row      string
		sentinel error
	}{
		{"short row", "HLC-1,Basin,x,0.1", ErrMalformedRow},
		{"bad area", "HLC-1,Basin,x,big,0.5,1.2,0.01,50,0.2,0.1,4.5,0.0007,0.5", ErrMalformedRow},
		{"bad decay", "HLC-1,Basin,x,0.1,0.5,1.2,0.01,50,0.2,0.1,4.5,fast,0.5", ErrMalformedRow},
		{"zero area", "HLC-1,Basin,x,0,0.5,1.2,0.01,50,0.2,0.1,4.5,0.0007,0.5", ErrInvalidSubcatchment},
		{"imperviousness over 100", "HLC-1,Basin,x,0.1,0.5,1.2,0.01,150,0.2,0.1,4.5,0.0007,0.5", ErrInvalidSubcatchment},
		{"negative decay", "HLC-1,Basin,x,0.1,0.5,1.2,0.01,50,0.2,0.1,4.5,-0.1,0.5", ErrInvalidSubcatchment},
		{"empty name", " ,Basin,x,0.1,0.5,1.2,0.01,50,0.2,0.1,4.5,0.0007,0.5", ErrInvalidSubcatchment},
		{"NaN imperviousness", "HLC-1,Basin,x,0.1,0.5,1.2,0.01,NaN,0.2,0.1,4.5,0.0007,0.5", ErrMalformedRow},
		{"infinite area", "HLC-1,Basin,x,Inf,0.5,1.2,0.01,50,0.2,0.1,4.5,0.0007,0.5", ErrMalformedRow},
		{"NaN decay", "HLC-1,Basin,x,0.1,0.5,1.2,0.01,50,0.2,0.1,4.5,nan,0.5", ErrMalformedRow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSubcatchment(strings.Split(tt.row, ","), 7)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel), "got %v", err)

			var rowErr *RowError
			require.ErrorAs(t, err, &rowErr)
			assert.Equal(t, 7, rowErr.Line)
			assert.Equal(t, "subcatchment", rowErr.Source)
		})
	}
}

func TestNewSubcatchment_RejectsNonFinite(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Subcatchment)
	}{
		{"NaN area", func(p *Subcatchment) { p.Area = math.NaN() }},
		{"infinite area", func(p *Subcatchment) { p.Area = math.Inf(1) }},
		{"NaN imperviousness", func(p *Subcatchment) { p.Imperviousness = math.NaN() }},
		{"NaN depression storage", func(p *Subcatchment) { p.DepressStorPerv = math.NaN() }},
		{"infinite initial rate", func(p *Subcatchment) { p.HortonInitial = math.Inf(1) }},
		{"NaN final rate", func(p *Subcatchment) { p.HortonFinal = math.NaN() }},
		{"NaN decay", func(p *Subcatchment) { p.HortonDecay = math.NaN() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testSubcatchment()
			tt.mutate(&p)
			_, err := NewSubcatchment(p)
			assert.ErrorIs(t, err, ErrInvalidSubcatchment)
		})
	}
}

func TestNewSubcatchment_ZeroDecayAccepted(t *testing.T) {
	p := testSubcatchment()
	p.HortonDecay = 0
	sc, err := NewSubcatchment(p)
	require.NoError(t, err)
	assert.Equal(t, 0.0, sc.HortonDecay)
}

func TestNewSubcatchment_TrimsName(t *testing.T) {
	p := testSubcatchment()
	p.Name = "  A  "
	sc, err := NewSubcatchment(p)
	require.NoError(t, err)
	assert.Equal(t, "A", sc.Name)
}

func TestRegistry(t *testing.T) {
	a := testSubcatchment()
	b := testSubcatchment()
	b.Name = "B"

	t.Run("lookup and order", func(t *testing.T) {
		r, err := NewRegistry([]Subcatchment{b, a})
		require.NoError(t, err)
		assert.Equal(t, 2, r.Len())

		got, ok := r.Get("A")
		require.True(t, ok)
		assert.Equal(t, a, got)

		_, ok = r.Get("C")
		assert.False(t, ok)

		all := r.All()
		assert.Equal(t, "B", all[0].Name)
		assert.Equal(t, "A", all[1].Name)
	})

	t.Run("duplicate name", func(t *testing.T) {
		_, err := NewRegistry([]Subcatchment{a, b, a})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrDuplicateSubcatchment))
	})

	t.Run("invalid entry", func(t *testing.T) {
		bad := testSubcatchment()
		bad.Area = -1
		_, err := NewRegistry([]Subcatchment{bad})
		assert.ErrorIs(t, err, ErrInvalidSubcatchment)
	})
}

func TestParseAdjustment(t *testing.T) {
	name, factor, err := ParseAdjustment([]string{" HLC-1 ", "0.85"}, 1)
	require.NoError(t, err)
	assert.Equal(t, "HLC-1", name)
	assert.Equal(t, 0.85, factor)

	_, _, err = ParseAdjustment([]string{"HLC-1"}, 2)
	assert.ErrorIs(t, err, ErrMalformedRow)

	_, _, err = ParseAdjustment([]string{"HLC-1", "lots"}, 3)
	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, 3, rowErr.Line)

	for _, bad := range []string{"NaN", "Inf", "-0.5"} {
		_, _, err = ParseAdjustment([]string{"HLC-1", bad}, 4)
		assert.ErrorIs(t, err, ErrMalformedRow, bad)
	}
}
