package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-runoff/internal/aggregate"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/rain.csv", cfg.RainLogPath)
	assert.Equal(t, "data/subcatchments.csv", cfg.SubcatchmentPath)
	assert.Empty(t, cfg.AdjustmentPath)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.Equal(t, aggregate.DefaultMonthRange(), cfg.Months)
	assert.Equal(t, aggregate.DatasetYears, cfg.Denominator)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.False(t, cfg.Serve)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.PublishEnabled())
	assert.Equal(t, "runoff-results", cfg.KafkaSinkTopic)
	assert.Empty(t, cfg.PushgatewayURL)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("RAIN_LOG_PATH", "/data/gage.csv")
	t.Setenv("SUBCATCHMENT_PATH", "/data/params.csv")
	t.Setenv("ADJUSTMENT_PATH", "/data/adjust.csv")
	t.Setenv("OUTPUT_DIR", "/tmp/out")
	t.Setenv("MONTH_START", "5")
	t.Setenv("MONTH_END", "9")
	t.Setenv("AVERAGE_DENOMINATOR", "month")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SERVE", "true")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("PUSHGATEWAY_URL", "http://pushgateway:9091")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/data/gage.csv", cfg.RainLogPath)
	assert.Equal(t, "/data/params.csv", cfg.SubcatchmentPath)
	assert.Equal(t, "/data/adjust.csv", cfg.AdjustmentPath)
	assert.Equal(t, "/tmp/out", cfg.OutputDir)
	assert.Equal(t, aggregate.MonthRange{Start: time.May, End: time.September}, cfg.Months)
	assert.Equal(t, aggregate.MonthYears, cfg.Denominator)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.True(t, cfg.Serve)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.PublishEnabled())
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, "http://pushgateway:9091", cfg.PushgatewayURL)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidMonth(t *testing.T) {
	t.Setenv("MONTH_START", "13")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MONTH_START")
}

func TestLoad_BackwardsMonthRange(t *testing.T) {
	t.Setenv("MONTH_START", "10")
	t.Setenv("MONTH_END", "4")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MONTH_START/MONTH_END")
}

func TestLoad_InvalidDenominator(t *testing.T) {
	t.Setenv("AVERAGE_DENOMINATOR", "median")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AVERAGE_DENOMINATOR")
}

func TestLoad_InvalidServe(t *testing.T) {
	t.Setenv("SERVE", "sometimes")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SERVE")
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{RainLogPath: "rain.csv", SubcatchmentPath: "sc.csv", OutputDir: "out"}
	}

	require.NoError(t, base().Validate())

	c := base()
	c.RainLogPath = ""
	assert.ErrorContains(t, c.Validate(), "RAIN_LOG_PATH")

	c = base()
	c.OutputDir = ""
	assert.ErrorContains(t, c.Validate(), "OUTPUT_DIR")
	c.Serve = true
	assert.NoError(t, c.Validate())

	c = base()
	c.KafkaBrokers = []string{"localhost:9092"}
	assert.ErrorContains(t, c.Validate(), "KAFKA_SINK_TOPIC")
}
