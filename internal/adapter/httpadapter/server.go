package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/storm-runoff/internal/aggregate"
	"github.com/couchcryptid/storm-runoff/internal/domain"
	"github.com/couchcryptid/storm-runoff/internal/pipeline"
)

// ReportProvider returns the latest finished report, or nil before the
// first run completes.
type ReportProvider interface {
	LastReport() *pipeline.Report
}

// Server exposes health, readiness, metrics and read-only report endpoints.
type Server struct {
	httpServer *http.Server
	reports    ReportProvider
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and the
// /v1 report routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, reports ReportProvider, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		reports: reports,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /v1/summary", s.withReport(s.handleSummary))
	mux.HandleFunc("GET /v1/storms", s.withReport(s.handleStorms))
	mux.HandleFunc("GET /v1/results", s.withReport(s.handleResults))
	mux.HandleFunc("GET /v1/tables/{name}", s.withReport(s.handleTable))

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type reportHandler func(w http.ResponseWriter, r *http.Request, report *pipeline.Report)

func (s *Server) withReport(h reportHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := s.reports.LastReport()
		if report == nil {
			writeError(w, http.StatusServiceUnavailable, "no report available")
			return
		}
		h(w, r, report)
	}
}

type summaryResponse struct {
	RunID         string                   `json:"run_id"`
	GeneratedAt   time.Time                `json:"generated_at"`
	Storms        int                      `json:"storms"`
	Subcatchments int                      `json:"subcatchments"`
	Results       int                      `json:"results"`
	Adjusted      bool                     `json:"adjusted"`
	Summary       *aggregate.RunoffSummary `json:"summary"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request, report *pipeline.Report) {
	if name := r.URL.Query().Get("subcatchment"); name != "" {
		sub, ok := report.Summary.Subcatchment(name)
		if !ok {
			writeError(w, http.StatusNotFound, "unknown subcatchment "+name)
			return
		}
		writeJSON(w, http.StatusOK, sub)
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{
		RunID:         report.RunID.String(),
		GeneratedAt:   report.GeneratedAt,
		Storms:        len(report.Storms),
		Subcatchments: len(report.Subcatchments),
		Results:       len(report.Results),
		Adjusted:      report.Adjusted,
		Summary:       report.Summary,
	})
}

func (s *Server) handleStorms(w http.ResponseWriter, _ *http.Request, report *pipeline.Report) {
	storms := make([]domain.StormEvent, len(report.Storms))
	for i, ev := range report.Storms {
		ev.Samples = nil
		storms[i] = ev
	}
	writeJSON(w, http.StatusOK, storms)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request, report *pipeline.Report) {
	name := r.URL.Query().Get("subcatchment")
	results := make([]domain.RunoffResult, 0, len(report.Results))
	for _, res := range report.Results {
		if name != "" && res.Subcatchment.Name != name {
			continue
		}
		res.Storm.Samples = nil
		results = append(results, res)
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request, report *pipeline.Report) {
	switch r.PathValue("name") {
	case "rainfall":
		writeJSON(w, http.StatusOK, report.Rainfall)
	case "events":
		writeJSON(w, http.StatusOK, report.EventCount)
	case "duration":
		writeJSON(w, http.StatusOK, report.Duration)
	case "average-runoff":
		writeJSON(w, http.StatusOK, report.Summary.AverageTable())
	default:
		writeError(w, http.StatusNotFound, "unknown table "+r.PathValue("name"))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
