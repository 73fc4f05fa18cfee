package actor

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/relaykit/relaykit/metrics"
	"github.com/relaykit/relaykit/queuepool"
)

// statSuffixes names the per-queue values sampled on every tick, matching
// the fields of queue.Stats.
var statSuffixes = [...]string{"size", "capacity", "total_in", "total_out"}

// metricEmitterLoop re-expresses compysition's __metric_emitter: on every
// tick, walk every plain outbound queue, sample its Stats, and submit one
// metric.Record per stat onto the reserved "metrics" queue — optionally
// also mirroring each sample into a Prometheus gauge via the Actor's
// metrics.Registry.
func (a *Actor) metricEmitterLoop(ctx context.Context) error {
	select {
	case <-a.started:
	case <-ctx.Done():
		return nil
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	ticker := time.NewTicker(a.frequency)
	defer ticker.Stop()

	for a.isLooping() {
		a.emitMetrics(hostname)

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil
		}
	}
	return nil
}

func (a *Actor) emitMetrics(hostname string) {
	metricsQueue := a.pool.Reserved(queuepool.ReservedMetrics)

	for _, q := range a.pool.Outbounds() {
		stats := q.Stats()
		values := [...]float64{
			float64(stats.Size),
			float64(stats.Capacity),
			float64(stats.TotalIn),
			float64(stats.TotalOut),
		}

		for i, suffix := range statSuffixes {
			name := fmt.Sprintf("queue.%s.%s.%s", a.name, stats.Name, suffix)
			rec := metrics.NewRecord(hostname, name, values[i])

			if a.metricsRegistry != nil {
				a.metricsRegistry.Observe(rec)
			}

			if metricsQueue == nil {
				continue
			}
			metricEvent := a.createEvent("metric", rec, nil)
			if err := a.submit(metricEvent, metricsQueue); err != nil {
				a.logError("metric-emitter", err)
			}
		}
	}
}
