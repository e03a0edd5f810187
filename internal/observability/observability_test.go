package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "info", "json")

	logger.Debug("hidden")
	logger.Info("batch complete", "storms", 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "batch complete", entry["msg"])
	assert.Equal(t, 3.0, entry["storms"])
}

func TestNewLogger_TextDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "debug", "text")

	logger.Debug("segmenting", "rows", 10)
	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "rows=10")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}

func TestNewMetricsForTesting_IsolatedRegistries(t *testing.T) {
	m1, _ := NewMetricsForTesting()
	m2, _ := NewMetricsForTesting()

	m1.StormsSegmented.Add(4)
	m1.BatchFailures.WithLabelValues("segment").Inc()

	assert.Equal(t, 4.0, testutil.ToFloat64(m1.StormsSegmented))
	assert.Equal(t, 0.0, testutil.ToFloat64(m2.StormsSegmented))
	assert.Equal(t, 1.0, testutil.ToFloat64(m1.BatchFailures.WithLabelValues("segment")))
}

func TestPush(t *testing.T) {
	var (
		method string
		path   string
		body   []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m, reg := NewMetricsForTesting()
	m.ResultsComputed.Add(12)

	require.NoError(t, Push(context.Background(), srv.URL, reg))
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/metrics/job/"+PushJob, path)
	assert.NotEmpty(t, body)
}

func TestPush_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, reg := NewMetricsForTesting()
	err := Push(context.Background(), srv.URL, reg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "push metrics")
}
