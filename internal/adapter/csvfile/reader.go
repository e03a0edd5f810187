// Package csvfile reads the batch inputs from, and writes its reports to,
// flat comma-separated files.
package csvfile

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/couchcryptid/storm-runoff/internal/domain"
)

// maxLineBytes bounds a single rain log line.
const maxLineBytes = 1 << 20

// RainLog reads a rain gauge log. It implements pipeline.RainSource.
type RainLog struct {
	path string
}

// NewRainLog returns a reader for the log at path.
func NewRainLog(path string) *RainLog {
	return &RainLog{path: path}
}

// ReadRain returns every line of the log, blank lines included, since they
// delimit storms.
func (l *RainLog) ReadRain(_ context.Context) ([]domain.RainRow, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseRainLog(f)
}

// ParseRainLog splits r into rain rows.
func ParseRainLog(r io.Reader) ([]domain.RainRow, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var rows []domain.RainRow
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		rows = append(rows, domain.RainRow{Line: line, Fields: strings.Split(text, ",")})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan rain log: %w", err)
	}
	return rows, nil
}

// ParameterTable reads subcatchment parameters. It implements
// pipeline.SubcatchmentSource.
type ParameterTable struct {
	path string
}

// NewParameterTable returns a reader for the table at path.
func NewParameterTable(path string) *ParameterTable {
	return &ParameterTable{path: path}
}

// ReadSubcatchments parses every row of the table.
func (t *ParameterTable) ReadSubcatchments(_ context.Context) ([]domain.Subcatchment, error) {
	f, err := os.Open(t.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseParameterTable(f)
}

// ParseParameterTable parses CUHP-ordered parameter rows from r.
func ParseParameterTable(r io.Reader) ([]domain.Subcatchment, error) {
	var out []domain.Subcatchment
	err := eachRecord(r, "subcatchment", func(fields []string, line int) error {
		sc, err := domain.ParseSubcatchment(fields, line)
		if err != nil {
			return err
		}
		out = append(out, sc)
		return nil
	})
	return out, err
}

// AdjustmentTable reads "name,factor" rows. It implements
// pipeline.AdjustmentSource.
type AdjustmentTable struct {
	path string
}

// NewAdjustmentTable returns a reader for the table at path.
func NewAdjustmentTable(path string) *AdjustmentTable {
	return &AdjustmentTable{path: path}
}

// ReadAdjustments parses the table into a name -> factor map. A later row
// for the same name replaces an earlier one.
func (t *AdjustmentTable) ReadAdjustments(_ context.Context) (map[string]float64, error) {
	f, err := os.Open(t.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseAdjustmentTable(f)
}

// ParseAdjustmentTable parses adjustment rows from r.
func ParseAdjustmentTable(r io.Reader) (map[string]float64, error) {
	factors := make(map[string]float64)
	err := eachRecord(r, "adjustment", func(fields []string, line int) error {
		name, factor, err := domain.ParseAdjustment(fields, line)
		if err != nil {
			return err
		}
		factors[name] = factor
		return nil
	})
	return factors, err
}

// eachRecord feeds every CSV record of r to fn with its 1-based line.
func eachRecord(r io.Reader, source string, fn func(fields []string, line int) error) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return &domain.RowError{Source: source, Line: pe.Line, Err: fmt.Errorf("%w: %v", domain.ErrMalformedRow, pe.Err)}
			}
			return err
		}
		line, _ := cr.FieldPos(0)
		if err := fn(fields, line); err != nil {
			return err
		}
	}
}
