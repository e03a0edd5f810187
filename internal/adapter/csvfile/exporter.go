package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/storm-runoff/internal/aggregate"
	"github.com/couchcryptid/storm-runoff/internal/domain"
	"github.com/couchcryptid/storm-runoff/internal/pipeline"
)

// Export file names, relative to the exporter directory.
const (
	ResultsFile       = "results.csv"
	StormsFile        = "storms.csv"
	SamplesFile       = "storm_samples.csv"
	RainfallFile      = "monthly_rainfall.csv"
	EventCountFile    = "monthly_events.csv"
	DurationFile      = "monthly_duration.csv"
	AverageRunoffFile = "average_runoff.csv"
)

const (
	stormTimeLayout = time.RFC3339
	stagingPrefix   = ".runoff-"
)

// ResultHeader is the column header of the results file.
var ResultHeader = []string{
	"subcatch_id", "area", "imperv_percent", "depress_stor_perv", "depress_stor_imperv",
	"hrtn_init", "hrtn_decay", "hrtn_final",
	"storm_id", "total_rain", "time",
	"area_acre", "imp_area", "perv_area", "imp_vol", "infil", "per_vol", "runoff",
	"adjustment",
}

// Exporter writes a report as a set of CSV files. It implements
// pipeline.ReportLoader.
type Exporter struct {
	dir    string
	logger *slog.Logger
}

// NewExporter returns an exporter writing into dir.
func NewExporter(dir string, logger *slog.Logger) *Exporter {
	return &Exporter{dir: dir, logger: logger}
}

// LoadReport writes every export file. Files are staged in a temporary
// directory and moved into place only after all of them were written.
func (e *Exporter) LoadReport(_ context.Context, report *pipeline.Report) error {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	staging, err := os.MkdirTemp(e.dir, stagingPrefix)
	if err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{ResultsFile, func(w io.Writer) error { return WriteResults(w, report.Results) }},
		{StormsFile, func(w io.Writer) error { return WriteStorms(w, report.Storms) }},
		{SamplesFile, func(w io.Writer) error { return WriteSamples(w, report.Storms) }},
		{RainfallFile, func(w io.Writer) error { return WriteMonthlyTable(w, report.Rainfall) }},
		{EventCountFile, func(w io.Writer) error { return WriteMonthlyTable(w, report.EventCount) }},
		{DurationFile, func(w io.Writer) error { return WriteMonthlyTable(w, report.Duration) }},
		{AverageRunoffFile, func(w io.Writer) error { return WriteMonthlyTable(w, report.Summary.AverageTable()) }},
	}

	for _, f := range files {
		if err := writeFile(filepath.Join(staging, f.name), f.write); err != nil {
			return fmt.Errorf("write %s: %w", f.name, err)
		}
	}
	for _, f := range files {
		if err := os.Rename(filepath.Join(staging, f.name), filepath.Join(e.dir, f.name)); err != nil {
			return fmt.Errorf("publish %s: %w", f.name, err)
		}
	}

	e.logger.Info("report exported", "dir", e.dir, "files", len(files), "results", len(report.Results))
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteResults writes one row per runoff result with ResultHeader first.
func WriteResults(w io.Writer, results []domain.RunoffResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ResultHeader); err != nil {
		return err
	}
	for _, r := range results {
		if err := cw.Write(resultRecord(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func resultRecord(r domain.RunoffResult) []string {
	sc := r.Subcatchment
	return []string{
		sc.Name,
		formatFloat(sc.Area),
		formatFloat(sc.Imperviousness),
		formatFloat(sc.DepressStorPerv),
		formatFloat(sc.DepressStorImperv),
		formatFloat(sc.HortonInitial),
		formatFloat(sc.HortonDecay),
		formatFloat(sc.HortonFinal),
		r.Storm.ID,
		formatFloat(r.Storm.TotalRain),
		formatFloat(r.Storm.Duration),
		formatFloat(r.AreaAcres),
		formatFloat(r.ImperviousArea),
		formatFloat(r.PerviousArea),
		formatFloat(r.ImperviousVolume),
		formatFloat(r.Infiltration),
		formatFloat(r.PerviousVolume),
		formatFloat(r.Runoff),
		formatFloat(r.Adjustment),
	}
}

// WriteStorms writes one row per storm.
func WriteStorms(w io.Writer, storms []domain.StormEvent) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"storm_id", "start", "end", "total_rain", "duration", "readings"}); err != nil {
		return err
	}
	for _, s := range storms {
		rec := []string{
			s.ID,
			s.Start.Format(stormTimeLayout),
			s.End.Format(stormTimeLayout),
			formatFloat(s.TotalRain),
			formatFloat(s.Duration),
			strconv.Itoa(s.Readings),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSamples writes each storm's cumulative rainfall curve.
func WriteSamples(w io.Writer, storms []domain.StormEvent) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"storm_id", "elapsed_min", "cumulative_in"}); err != nil {
		return err
	}
	for _, s := range storms {
		for _, p := range s.Samples {
			if err := cw.Write([]string{s.ID, formatFloat(p.ElapsedMinutes), formatFloat(p.Cumulative)}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteMonthlyTable writes a table with its label and month names as the header.
func WriteMonthlyTable(w io.Writer, t aggregate.MonthlyTable) error {
	cw := csv.NewWriter(w)
	header := make([]string, 0, len(t.Months)+1)
	header = append(header, t.Label)
	for _, m := range t.Months {
		header = append(header, m.String())
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range t.Rows {
		rec := make([]string, 0, len(row.Values)+1)
		rec = append(rec, row.Key)
		for _, v := range row.Values {
			rec = append(rec, formatFloat(v))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
