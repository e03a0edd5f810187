package observability

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// PushJob is the Pushgateway job name for batch runs.
const PushJob = "storm_runoff"

// Push replaces the job's metric group on a Prometheus Pushgateway with
// everything gathered from g.
func Push(ctx context.Context, url string, g prometheus.Gatherer) error {
	if err := push.New(url, PushJob).Gatherer(g).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
