package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/storm-runoff/internal/config"
	"github.com/couchcryptid/storm-runoff/internal/domain"
	"github.com/couchcryptid/storm-runoff/internal/observability"
	"github.com/couchcryptid/storm-runoff/internal/pipeline"
)

// maxMessagesPerWrite caps a single WriteMessages call.
const maxMessagesPerWrite = 500

// messageWriter is the subset of *kafkago.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes runoff results to a Kafka topic.
// It implements pipeline.ReportLoader.
type Writer struct {
	writer  messageWriter
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger, metrics: metrics}
}

// LoadReport publishes one message per result. Messages are keyed by
// subcatchment so a subcatchment's results share a partition.
func (w *Writer) LoadReport(ctx context.Context, report *pipeline.Report) error {
	if len(report.Results) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, 0, len(report.Results))
	for i := range report.Results {
		msg, err := serializeToMessage(report.RunID.String(), report.GeneratedAt, report.Results[i])
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}

	for start := 0; start < len(msgs); start += maxMessagesPerWrite {
		end := min(start+maxMessagesPerWrite, len(msgs))
		if err := w.writer.WriteMessages(ctx, msgs[start:end]...); err != nil {
			return fmt.Errorf("publish results: %w", err)
		}
		w.metrics.ResultsPublished.Add(float64(end - start))
	}

	w.logger.Info("results published", "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// resultMessage is the JSON payload of a published result.
type resultMessage struct {
	RunID      string              `json:"run_id"`
	ComputedAt time.Time           `json:"computed_at"`
	Result     domain.RunoffResult `json:"result"`
}

// serializeToMessage marshals a RunoffResult into a Kafka message.
func serializeToMessage(runID string, computedAt time.Time, r domain.RunoffResult) (kafkago.Message, error) {
	// Samples are an export-only curve; the result carries the totals.
	r.Storm.Samples = nil
	data, err := json.Marshal(resultMessage{RunID: runID, ComputedAt: computedAt, Result: r})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize runoff result: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(r.Subcatchment.Name),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "run_id", Value: []byte(runID)},
			{Key: "storm_id", Value: []byte(r.Storm.ID)},
			{Key: "computed_at", Value: []byte(computedAt.Format(time.RFC3339))},
		},
	}, nil
}
