// Package sink provides the Director's default reserved-queue terminals:
// minimal Actors that consume whatever lands on a producer's logs, metrics,
// or failed queue and do nothing more elaborate than record it. Every
// producer's reserved queue connects to the same inbound "inbox" name on a
// sink, so a sink has exactly one consume worker regardless of how many
// Actors feed it; the producing Actor's identity travels in the Event's
// payload rather than in the inbound queue name.
//
// Grounded on original_source/compysition/director.py's Null actor default
// (a consumer with no outbound wiring of its own) — not the out-of-scope
// HTTP/jsonschema/log-formatter collaborators.
package sink

import (
	"go.uber.org/zap"

	"github.com/relaykit/relaykit/actor"
	"github.com/relaykit/relaykit/event"
	"github.com/relaykit/relaykit/queue"
)

// NewLog builds a log sink Actor: every Event it receives is written to
// logger at info level. The producing Actor's name, where present, is read
// back out of the payload actor.logError attaches it under.
func NewLog(name string, logger *zap.SugaredLogger) *actor.Actor {
	return actor.New(name, actor.WithLogger(logger), actor.WithConsume(
		func(e *event.Event, origin string, q *queue.Queue) error {
			var body map[string]string
			_ = e.Data(&body)
			logger.Infow("actor log", "actor", body["actor"], "event_id", e.ID(), "payload", string(e.RawData()))
			return nil
		},
	))
}

// NewMetric builds a metric sink Actor: every metric.Record Event it
// receives is logged at debug level. Supplying a Director with
// WithMetricsRegisterer-configured producer Actors already mirrors samples
// into Prometheus directly; this sink is the wire-format consumer of last
// resort for anything without its own metrics backend.
func NewMetric(name string, logger *zap.SugaredLogger) *actor.Actor {
	return actor.New(name, actor.WithLogger(logger), actor.WithConsume(
		func(e *event.Event, origin string, q *queue.Queue) error {
			logger.Debugw("metric", "origin", origin, "payload", string(e.RawData()))
			return nil
		},
	))
}

// NewFailed builds a failed-event sink Actor: every Event routed to it is
// logged at warn level and otherwise dropped.
func NewFailed(name string, logger *zap.SugaredLogger) *actor.Actor {
	return actor.New(name, actor.WithLogger(logger), actor.WithConsume(
		func(e *event.Event, origin string, q *queue.Queue) error {
			logger.Warnw("failed event", "origin", origin, "event_id", e.ID())
			return nil
		},
	))
}
