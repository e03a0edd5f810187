// Command validate re-derives an exported results table and reports rows
// that disagree with the runoff model. Every row is recomputed from its own
// parameter and storm columns; when the original inputs are given, the
// table is also checked for completeness against them.
//
// Usage:
//
//	go run ./cmd/validate \
//	  --results out/results.csv \
//	  --rain data/rain.csv \
//	  --params data/subcatchments.csv
package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	flag "github.com/spf13/pflag"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/couchcryptid/storm-runoff/internal/adapter/csvfile"
	"github.com/couchcryptid/storm-runoff/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// resultRow is one parsed line of results.csv.
type resultRow struct {
	line   int
	result domain.RunoffResult
}

func main() {
	resultsPath := flag.String("results", "", "path to an exported results.csv")
	rainPath := flag.String("rain", "", "rain log the results were computed from (optional)")
	paramsPath := flag.String("params", "", "parameter table the results were computed from (optional)")
	tolerance := flag.Float64("tolerance", 1e-9, "maximum relative runoff difference")
	flag.Parse()

	if *resultsPath == "" || (*rainPath == "") != (*paramsPath == "") {
		flag.Usage()
		os.Exit(1)
	}
	os.Exit(run(os.Stdout, *resultsPath, *rainPath, *paramsPath, *tolerance))
}

func run(out io.Writer, resultsPath, rainPath, paramsPath string, tolerance float64) int {
	fmt.Fprintln(out, "=== Runoff Results Validation ===")

	rows, err := loadResults(resultsPath)
	if err != nil {
		fmt.Fprintf(out, "FATAL: load results: %v\n", err)
		return 1
	}

	recompute, relErrs := validateRecompute(rows, tolerance)
	phases := []*phase{recompute}

	if rainPath != "" {
		storms, subs, err := loadInputs(rainPath, paramsPath)
		if err != nil {
			fmt.Fprintf(out, "FATAL: load inputs: %v\n", err)
			return 1
		}
		phases = append(phases, validateCoverage(rows, storms, subs))
	}

	fmt.Fprintln(out)
	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = fmt.Sprintf("FAIL (%d errors)", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Rows: %d\n", len(rows))
	if len(relErrs) > 0 {
		fmt.Fprintf(out, "Relative error: mean %.3g, max %.3g\n", stat.Mean(relErrs, nil), floats.Max(relErrs))
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

// ── Data loading ──

func loadResults(path string) ([]resultRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseResults(f)
}

func parseResults(r io.Reader) ([]resultRow, error) {
	all, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(all) < 1 {
		return nil, fmt.Errorf("missing header")
	}
	if len(all[0]) != len(csvfile.ResultHeader) {
		return nil, fmt.Errorf("header has %d columns, want %d", len(all[0]), len(csvfile.ResultHeader))
	}

	rows := make([]resultRow, 0, len(all)-1)
	for i, rec := range all[1:] {
		line := i + 2
		nums := make([]float64, len(rec))
		for j, v := range rec {
			if j == 0 || j == 8 {
				continue
			}
			n, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %s: %w", line, csvfile.ResultHeader[j], err)
			}
			nums[j] = n
		}
		rows = append(rows, resultRow{line: line, result: domain.RunoffResult{
			Subcatchment: domain.Subcatchment{
				Name:              rec[0],
				Area:              nums[1],
				Imperviousness:    nums[2],
				DepressStorPerv:   nums[3],
				DepressStorImperv: nums[4],
				HortonInitial:     nums[5],
				HortonDecay:       nums[6],
				HortonFinal:       nums[7],
			},
			Storm:      domain.StormEvent{ID: rec[8], TotalRain: nums[9], Duration: nums[10]},
			Runoff:     nums[17],
			Adjustment: nums[18],
		}})
	}
	return rows, nil
}

func loadInputs(rainPath, paramsPath string) ([]domain.StormEvent, []domain.Subcatchment, error) {
	rainFile, err := os.Open(rainPath)
	if err != nil {
		return nil, nil, err
	}
	defer rainFile.Close()
	rain, err := csvfile.ParseRainLog(rainFile)
	if err != nil {
		return nil, nil, err
	}
	storms, err := domain.Segment(rain)
	if err != nil {
		return nil, nil, err
	}

	paramFile, err := os.Open(paramsPath)
	if err != nil {
		return nil, nil, err
	}
	defer paramFile.Close()
	subs, err := csvfile.ParseParameterTable(paramFile)
	if err != nil {
		return nil, nil, err
	}
	return storms, subs, nil
}

// ── Phase 1: Recompute ──
// Runs every row back through the model using only its own columns.

func validateRecompute(rows []resultRow, tolerance float64) (*phase, []float64) {
	p := &phase{name: "Phase 1: Recompute runoff"}
	relErrs := make([]float64, 0, len(rows))
	for _, row := range rows {
		want := domain.Compute(row.result.Storm, row.result.Subcatchment).Runoff * row.result.Adjustment
		got := row.result.Runoff
		rel := relativeDiff(got, want)
		relErrs = append(relErrs, rel)
		if rel > tolerance {
			p.errorf("line %d %s/%s: runoff %g, recomputed %g", row.line,
				row.result.Subcatchment.Name, row.result.Storm.ID, got, want)
		}
	}
	return p, relErrs
}

func relativeDiff(got, want float64) float64 {
	d := math.Abs(got - want)
	if d == 0 {
		return 0
	}
	return d / math.Max(math.Abs(got), math.Abs(want))
}

// ── Phase 2: Coverage ──
// Checks the table holds exactly one row per subcatchment and storm, with
// the storm totals the rain log yields.

func validateCoverage(rows []resultRow, storms []domain.StormEvent, subs []domain.Subcatchment) *phase {
	p := &phase{name: "Phase 2: Coverage against inputs"}

	byID := make(map[string]domain.StormEvent, len(storms))
	for _, ev := range storms {
		if _, dup := byID[ev.ID]; dup {
			p.errorf("rain log: more than one storm starts at %s; their results cannot be told apart", ev.ID)
			continue
		}
		byID[ev.ID] = ev
	}
	known := make(map[string]bool, len(subs))
	for _, sc := range subs {
		known[sc.Name] = true
	}

	type pair struct{ sub, storm string }
	seen := make(map[pair]bool, len(rows))
	for _, row := range rows {
		r := row.result
		k := pair{r.Subcatchment.Name, r.Storm.ID}
		if seen[k] {
			p.errorf("line %d: duplicate row for %s/%s", row.line, k.sub, k.storm)
		}
		seen[k] = true

		if !known[k.sub] {
			p.errorf("line %d: unknown subcatchment %s", row.line, k.sub)
		}
		ev, ok := byID[k.storm]
		if !ok {
			p.errorf("line %d: unknown storm %s", row.line, k.storm)
			continue
		}
		if relativeDiff(r.Storm.TotalRain, ev.TotalRain) > 1e-9 {
			p.errorf("line %d: storm %s total %g, rain log gives %g", row.line, k.storm, r.Storm.TotalRain, ev.TotalRain)
		}
		if relativeDiff(r.Storm.Duration, ev.Duration) > 1e-9 {
			p.errorf("line %d: storm %s duration %g, rain log gives %g", row.line, k.storm, r.Storm.Duration, ev.Duration)
		}
	}

	if want := len(byID) * len(subs); len(seen) != want {
		p.errorf("%d distinct rows, want %d (%d storms x %d subcatchments)", len(seen), want, len(byID), len(subs))
	}
	return p
}
