// Command genmock writes a reproducible synthetic rain log (extended
// format) and a matching subcatchment parameter table. The same seed always
// produces byte-identical files, so the output can back demos and fixtures.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  --rain-out data/mock/rain.csv \
//	  --params-out data/mock/subcatchments.csv \
//	  --seed 7 --years 3 --storms 40 --subcatchments 5
package main

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/couchcryptid/storm-runoff/internal/domain"
)

// readingInterval is the gauge reporting step.
const readingInterval = 5 * time.Minute

// rainColumns is the width of an extended-format rain row.
const rainColumns = 16

type options struct {
	seed          uint64
	firstYear     int
	years         int
	storms        int
	subcatchments int
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	rainOut := flag.String("rain-out", "", "output path for the synthetic rain log")
	paramsOut := flag.String("params-out", "", "output path for the subcatchment parameter table")
	seed := flag.Uint64("seed", 1, "random seed")
	firstYear := flag.Int("first-year", 2014, "first storm year")
	years := flag.Int("years", 3, "number of years to spread storms over")
	storms := flag.Int("storms", 40, "number of storms")
	subcatchments := flag.Int("subcatchments", 5, "number of subcatchments")
	flag.Parse()

	if *rainOut == "" || *paramsOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: --rain-out, --params-out")
	}
	opts := options{
		seed:          *seed,
		firstYear:     *firstYear,
		years:         *years,
		storms:        *storms,
		subcatchments: *subcatchments,
	}
	if opts.years < 1 || opts.storms < 0 || opts.subcatchments < 1 {
		return fmt.Errorf("years and subcatchments must be positive, storms non-negative")
	}

	if err := writeFile(*rainOut, func(w io.Writer) error { return writeRainLog(w, opts) }); err != nil {
		return fmt.Errorf("write rain log: %w", err)
	}
	if err := writeFile(*paramsOut, func(w io.Writer) error { return writeParameters(w, opts) }); err != nil {
		return fmt.Errorf("write parameter table: %w", err)
	}
	log.Printf("wrote %d storms to %s, %d subcatchments to %s", opts.storms, *rainOut, opts.subcatchments, *paramsOut)
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

// stormStarts spreads n storm start times across April-October of each
// year, in chronological order and on distinct days.
func stormStarts(rng *rand.Rand, opts options) []time.Time {
	starts := make([]time.Time, 0, opts.storms)
	perYear := (opts.storms + opts.years - 1) / opts.years
	for y := 0; y < opts.years && len(starts) < opts.storms; y++ {
		t := time.Date(opts.firstYear+y, time.April, 1, 0, 0, 0, 0, time.UTC)
		for i := 0; i < perYear && len(starts) < opts.storms; i++ {
			t = t.Add(time.Duration(24+rng.IntN(96)) * time.Hour)
			t = time.Date(t.Year(), t.Month(), t.Day(), rng.IntN(24), 5*rng.IntN(12), 0, 0, time.UTC)
			starts = append(starts, t)
		}
	}
	return starts
}

func writeRainLog(w io.Writer, opts options) error {
	rng := rand.New(rand.NewPCG(opts.seed, opts.seed^0x9e3779b97f4a7c15))
	bw := bufio.NewWriter(w)

	header := make([]string, rainColumns)
	header[0], header[1], header[2], header[3] = domain.HeaderToken, "Time", "Gauge", "Rain"
	header[14], header[15] = "CumMin", "CumRain"
	if _, err := fmt.Fprintln(bw, strings.Join(header, ",")); err != nil {
		return err
	}

	for i, start := range stormStarts(rng, opts) {
		if i > 0 {
			if _, err := fmt.Fprintln(bw); err != nil {
				return err
			}
		}
		readings := 1 + rng.IntN(12)
		cumulative := 0 // hundredths of an inch
		for r := 0; r < readings; r++ {
			inc := 1 + rng.IntN(25)
			cumulative += inc
			ts := start.Add(time.Duration(r) * readingInterval)

			row := make([]string, rainColumns)
			row[0] = ts.Format("1/2/2006")
			row[1] = ts.Format("15:04:05")
			row[2] = "G1"
			row[3] = hundredths(inc)
			row[14] = strconv.Itoa(r * int(readingInterval/time.Minute))
			row[15] = hundredths(cumulative)
			if _, err := fmt.Fprintln(bw, strings.Join(row, ",")); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

func hundredths(n int) string {
	return fmt.Sprintf("%d.%02d", n/100, n%100)
}

func writeParameters(w io.Writer, opts options) error {
	rng := rand.New(rand.NewPCG(opts.seed+1, opts.seed^0x2545f4914f6cdd1d))
	cw := csv.NewWriter(w)
	for i := 0; i < opts.subcatchments; i++ {
		row := make([]string, 13)
		row[0] = fmt.Sprintf("SUB-%03d", i+1)
		row[1] = "J" + strconv.Itoa(i+1)
		row[3] = strconv.FormatFloat(0.05+0.45*rng.Float64(), 'f', 3, 64)
		row[7] = strconv.Itoa(10 + rng.IntN(81))
		row[8] = "0.35"
		row[9] = "0.1"
		row[10] = strconv.FormatFloat(3+2*rng.Float64(), 'f', 2, 64)
		row[11] = "0.0018"
		row[12] = strconv.FormatFloat(0.5+0.5*rng.Float64(), 'f', 2, 64)
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
