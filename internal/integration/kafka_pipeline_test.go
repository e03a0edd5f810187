//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/storm-runoff/internal/adapter/csvfile"
	"github.com/couchcryptid/storm-runoff/internal/adapter/kafka"
	"github.com/couchcryptid/storm-runoff/internal/aggregate"
	"github.com/couchcryptid/storm-runoff/internal/config"
	"github.com/couchcryptid/storm-runoff/internal/domain"
	"github.com/couchcryptid/storm-runoff/internal/observability"
	"github.com/couchcryptid/storm-runoff/internal/pipeline"
)

const testSinkTopic = "test-runoff-results"

const rainLog = `Date,Time,Gauge,Rain
5/4/2014,10:00:00,G1,0.25
5/4/2014,10:30:00,G1,0.5

6/1/2015,08:00:00,G1,1.0
`

const paramTable = `A,,,0.1,,,,50,0.35,0.1,3.0,0.0018,0.5
B,,,0.2,,,,20,0.35,0.1,4.0,0.0018,0.7
`

// publishedMessage holds a deserialized message read from the sink topic.
type publishedMessage struct {
	Key     string
	Headers map[string]string
	Payload struct {
		RunID  string              `json:"run_id"`
		Result domain.RunoffResult `json:"result"`
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("runoff-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func readPublished(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	out := publishedMessage{Key: string(msg.Key), Headers: make(map[string]string, len(msg.Headers))}
	for _, h := range msg.Headers {
		out.Headers[h.Key] = string(h.Value)
	}
	require.NoError(t, json.Unmarshal(msg.Value, &out.Payload), "unmarshal sink message")
	return out
}

// TestPipelinePublishesResults runs a full batch from flat files into a
// real broker and reads every result back.
func TestPipelinePublishesResults(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	dir := t.TempDir()
	rainPath := filepath.Join(dir, "rain.csv")
	paramPath := filepath.Join(dir, "subcatchments.csv")
	outDir := filepath.Join(dir, "out")
	require.NoError(t, os.WriteFile(rainPath, []byte(rainLog), 0o644))
	require.NoError(t, os.WriteFile(paramPath, []byte(paramTable), 0o644))

	cfg := &config.Config{
		KafkaBrokers:   []string{broker},
		KafkaSinkTopic: testSinkTopic,
	}
	metrics, _ := observability.NewMetricsForTesting()
	writer := kafka.NewWriter(cfg, discardLogger(), metrics)
	t.Cleanup(func() { _ = writer.Close() })

	p := pipeline.New(
		pipeline.Sources{
			Rain:          csvfile.NewRainLog(rainPath),
			Subcatchments: csvfile.NewParameterTable(paramPath),
		},
		aggregate.DefaultOptions(),
		discardLogger(),
		metrics,
		csvfile.NewExporter(outDir, discardLogger()),
		writer,
	)

	report, err := p.Run(ctx)
	require.NoError(t, err)
	require.Len(t, report.Results, 4)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	got := make(map[string]float64)
	for range report.Results {
		msg := readPublished(ctx, t, consumer)
		assert.Equal(t, report.RunID.String(), msg.Headers["run_id"])
		assert.Equal(t, report.RunID.String(), msg.Payload.RunID)
		assert.Equal(t, msg.Payload.Result.Storm.ID, msg.Headers["storm_id"])
		assert.Equal(t, msg.Payload.Result.Subcatchment.Name, msg.Key)
		got[msg.Key+"|"+msg.Payload.Result.Storm.ID] = msg.Payload.Result.Runoff
	}

	for _, r := range report.Results {
		key := r.Subcatchment.Name + "|" + r.Storm.ID
		require.Contains(t, got, key)
		assert.InDelta(t, r.Runoff, got[key], 1e-12)
	}

	results, err := os.ReadFile(filepath.Join(outDir, csvfile.ResultsFile))
	require.NoError(t, err)
	assert.Equal(t, 5, strings.Count(string(results), "\n"))
}
