package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/storm-runoff/internal/aggregate"
)

// Config holds all batch settings, populated from environment variables.
type Config struct {
	RainLogPath      string
	SubcatchmentPath string
	AdjustmentPath   string
	OutputDir        string

	Months      aggregate.MonthRange
	Denominator aggregate.Denominator

	LogLevel  string
	LogFormat string

	// Serve keeps the process alive after the batch, exposing the report
	// over HTTP until interrupted.
	Serve           bool
	HTTPAddr        string
	ShutdownTimeout time.Duration

	// Optional result publishing; disabled when KafkaBrokers is empty.
	KafkaBrokers   []string
	KafkaSinkTopic string

	// Optional Prometheus Pushgateway; disabled when empty.
	PushgatewayURL string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	start, err := parseMonth("MONTH_START", int(time.April))
	if err != nil {
		return nil, err
	}
	end, err := parseMonth("MONTH_END", int(time.October))
	if err != nil {
		return nil, err
	}
	months := aggregate.MonthRange{Start: start, End: end}
	if err := months.Validate(); err != nil {
		return nil, fmt.Errorf("MONTH_START/MONTH_END: %w", err)
	}

	denom, err := aggregate.ParseDenominator(sharedcfg.EnvOrDefault("AVERAGE_DENOMINATOR", string(aggregate.DatasetYears)))
	if err != nil {
		return nil, fmt.Errorf("AVERAGE_DENOMINATOR: %w", err)
	}

	serve, err := parseBool("SERVE")
	if err != nil {
		return nil, err
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		RainLogPath:      sharedcfg.EnvOrDefault("RAIN_LOG_PATH", "data/rain.csv"),
		SubcatchmentPath: sharedcfg.EnvOrDefault("SUBCATCHMENT_PATH", "data/subcatchments.csv"),
		AdjustmentPath:   os.Getenv("ADJUSTMENT_PATH"),
		OutputDir:        sharedcfg.EnvOrDefault("OUTPUT_DIR", "out"),
		Months:           months,
		Denominator:      denom,
		LogLevel:         sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:        sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		Serve:            serve,
		HTTPAddr:         sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		ShutdownTimeout:  shutdownTimeout,
		KafkaBrokers:     brokers,
		KafkaSinkTopic:   sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "runoff-results"),
		PushgatewayURL:   os.Getenv("PUSHGATEWAY_URL"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that flags may have overridden after Load.
func (c *Config) Validate() error {
	if c.RainLogPath == "" {
		return errors.New("RAIN_LOG_PATH is required")
	}
	if c.SubcatchmentPath == "" {
		return errors.New("SUBCATCHMENT_PATH is required")
	}
	if c.OutputDir == "" && !c.Serve {
		return errors.New("OUTPUT_DIR is required unless SERVE is set")
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaSinkTopic == "" {
		return errors.New("KAFKA_SINK_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}

// PublishEnabled reports whether results should be sent to Kafka.
func (c *Config) PublishEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func parseMonth(key string, def int) (time.Month, error) {
	s := os.Getenv(key)
	if s == "" {
		return time.Month(def), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 12 {
		return 0, fmt.Errorf("invalid %s %q", key, s)
	}
	return time.Month(n), nil
}

func parseBool(key string) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q", key, s)
	}
	return v, nil
}
