package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/storm-runoff/internal/aggregate"
	"github.com/couchcryptid/storm-runoff/internal/domain"
	"github.com/couchcryptid/storm-runoff/internal/observability"
)

// RainSource supplies the raw rain log, one row per line.
type RainSource interface {
	ReadRain(ctx context.Context) ([]domain.RainRow, error)
}

// SubcatchmentSource supplies the parameter table.
type SubcatchmentSource interface {
	ReadSubcatchments(ctx context.Context) ([]domain.Subcatchment, error)
}

// AdjustmentSource supplies per-subcatchment runoff scale factors.
type AdjustmentSource interface {
	ReadAdjustments(ctx context.Context) (map[string]float64, error)
}

// ReportLoader writes a finished report somewhere.
type ReportLoader interface {
	LoadReport(ctx context.Context, report *Report) error
}

// Sources groups the batch inputs. Adjustments is optional.
type Sources struct {
	Rain          RainSource
	Subcatchments SubcatchmentSource
	Adjustments   AdjustmentSource
}

// Report is everything one run produced.
type Report struct {
	RunID         uuid.UUID                `json:"run_id"`
	GeneratedAt   time.Time                `json:"generated_at"`
	Storms        []domain.StormEvent      `json:"storms"`
	Subcatchments []domain.Subcatchment    `json:"subcatchments"`
	Results       []domain.RunoffResult    `json:"results"`
	Summary       *aggregate.RunoffSummary `json:"summary"`
	Rainfall      aggregate.MonthlyTable   `json:"rainfall"`
	EventCount    aggregate.MonthlyTable   `json:"event_count"`
	Duration      aggregate.MonthlyTable   `json:"duration"`
	Adjusted      bool                     `json:"adjusted"`
}

// Pipeline runs the read-segment-compute-aggregate-load batch.
type Pipeline struct {
	sources Sources
	loaders []ReportLoader
	opts    aggregate.Options
	logger  *slog.Logger
	metrics *observability.Metrics
	ready   atomic.Bool
	report  atomic.Pointer[Report]
}

// New creates a Pipeline with the given inputs, outputs and observability.
func New(sources Sources, opts aggregate.Options, logger *slog.Logger, metrics *observability.Metrics, loaders ...ReportLoader) *Pipeline {
	return &Pipeline{
		sources: sources,
		loaders: loaders,
		opts:    opts,
		logger:  logger,
		metrics: metrics,
	}
}

// CheckReadiness returns nil once a run has completed successfully.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no runoff report has been produced yet")
	}
	return nil
}

// LastReport returns the most recent successful report, or nil.
func (p *Pipeline) LastReport() *Report {
	return p.report.Load()
}

// Run executes one batch. Any failure aborts the run before any loader is
// called for it, except failures inside the loaders themselves.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	start := clock.Now()
	runID := uuid.New()
	logger := p.logger.With("run_id", runID.String())
	logger.Info("batch started",
		"months", fmt.Sprintf("%d-%d", p.opts.Months.Start, p.opts.Months.End),
		"denominator", p.opts.Denominator,
	)

	report, err := p.build(ctx, logger)
	if err != nil {
		return nil, err
	}
	report.RunID = runID
	report.GeneratedAt = start

	for _, l := range p.loaders {
		if err := l.LoadReport(ctx, report); err != nil {
			return nil, p.fail(logger, "load", err)
		}
	}

	elapsed := clock.Since(start)
	p.metrics.BatchDuration.Observe(elapsed.Seconds())
	p.metrics.LastSuccess.Set(float64(clock.Now().Unix()))
	p.report.Store(report)
	p.ready.Store(true)

	logger.Info("batch complete",
		"storms", len(report.Storms),
		"subcatchments", len(report.Subcatchments),
		"results", len(report.Results),
		"excluded", report.Summary.Excluded,
		"duration", elapsed,
	)
	return report, nil
}

// build runs every pure stage and returns an unstamped report.
func (p *Pipeline) build(ctx context.Context, logger *slog.Logger) (*Report, error) {
	rows, err := p.sources.Rain.ReadRain(ctx)
	if err != nil {
		return nil, p.fail(logger, "read", fmt.Errorf("read rain log: %w", err))
	}
	storms, err := domain.Segment(rows)
	if err != nil {
		return nil, p.fail(logger, "segment", fmt.Errorf("segment rain log: %w", err))
	}
	p.metrics.StormsSegmented.Add(float64(len(storms)))
	logger.Debug("rain log segmented", "rows", len(rows), "storms", len(storms))

	if err := ctx.Err(); err != nil {
		return nil, p.fail(logger, "cancelled", err)
	}

	params, err := p.sources.Subcatchments.ReadSubcatchments(ctx)
	if err != nil {
		return nil, p.fail(logger, "read", fmt.Errorf("read subcatchments: %w", err))
	}
	registry, err := domain.NewRegistry(params)
	if err != nil {
		return nil, p.fail(logger, "registry", fmt.Errorf("load subcatchments: %w", err))
	}
	p.metrics.Subcatchments.Set(float64(registry.Len()))

	results := domain.ComputeAll(storms, registry)
	p.metrics.ResultsComputed.Add(float64(len(results)))

	adjusted := false
	if p.sources.Adjustments != nil {
		factors, err := p.sources.Adjustments.ReadAdjustments(ctx)
		if err != nil {
			return nil, p.fail(logger, "read", fmt.Errorf("read adjustments: %w", err))
		}
		results, err = domain.ApplyAdjustments(results, factors)
		if err != nil {
			return nil, p.fail(logger, "adjust", fmt.Errorf("adjust runoff: %w", err))
		}
		adjusted = true
	}

	summary, err := aggregate.Runoff(results, p.opts)
	if err != nil {
		return nil, p.fail(logger, "aggregate", fmt.Errorf("aggregate runoff: %w", err))
	}
	p.metrics.ResultsExcluded.Add(float64(summary.Excluded))
	p.recordTotals(results)

	return &Report{
		Storms:        storms,
		Subcatchments: registry.All(),
		Results:       results,
		Summary:       summary,
		Rainfall:      aggregate.MonthlyRainfall(storms, p.opts.Months),
		EventCount:    aggregate.MonthlyEventCount(storms, p.opts.Months),
		Duration:      aggregate.MonthlyDuration(storms, p.opts.Months),
		Adjusted:      adjusted,
	}, nil
}

func (p *Pipeline) recordTotals(results []domain.RunoffResult) {
	totals := make(map[string]float64)
	for _, r := range results {
		totals[r.Subcatchment.Name] += r.Runoff
	}
	for name, total := range totals {
		p.metrics.RunoffTotal.WithLabelValues(name).Set(total)
	}
}

func (p *Pipeline) fail(logger *slog.Logger, stage string, err error) error {
	p.metrics.BatchFailures.WithLabelValues(stage).Inc()
	logger.Error("batch aborted", "stage", stage, "error", err)
	return err
}
