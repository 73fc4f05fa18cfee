package actor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/relaykit/relaykit/event"
	"github.com/relaykit/relaykit/metrics"
	"github.com/relaykit/relaykit/queue"
	"github.com/relaykit/relaykit/queuepool"
)

// ConsumeFunc is the user-supplied surface: invoked once per Event with the
// queue name and Queue it arrived on.
type ConsumeFunc func(e *event.Event, origin string, originQueue *queue.Queue) error

// HookFunc is an optional PreHook/PostHook implementation.
type HookFunc func() error

// CreateEventFunc lets a concrete Actor override how it mints Events.
type CreateEventFunc func(service string, data interface{}, headers map[string]string) *event.Event

// Option configures an Actor at construction time.
type Option func(*Actor)

// WithCapacity sets the default bounded capacity for queues this Actor
// creates (0 = unbounded). Default: queuepool.DefaultCapacity.
func WithCapacity(capacity int) Option {
	return func(a *Actor) { a.pool = queuepool.New(capacity) }
}

// WithConsume sets the user consume function.
func WithConsume(fn ConsumeFunc) Option {
	return func(a *Actor) { a.consume = fn }
}

// WithPreHook sets a hook run synchronously at Start, before consume
// workers unblock.
func WithPreHook(fn HookFunc) Option {
	return func(a *Actor) { a.preHook = fn }
}

// WithPostHook sets a hook run after Join during Stop.
func WithPostHook(fn HookFunc) Option {
	return func(a *Actor) { a.postHook = fn }
}

// WithCreateEvent overrides the Actor's Event constructor.
func WithCreateEvent(fn CreateEventFunc) Option {
	return func(a *Actor) { a.createEvent = fn }
}

// WithBlockingConsume selects strict-order (true) vs concurrent (false,
// the default) consumption.
func WithBlockingConsume(blocking bool) Option {
	return func(a *Actor) { a.blockingConsume = blocking }
}

// WithGenerateMetrics enables the metric emitter. Default: false.
func WithGenerateMetrics(enabled bool) Option {
	return func(a *Actor) { a.generateMetrics = enabled }
}

// WithFrequency sets the metric emitter's sampling interval. Default: 1s.
func WithFrequency(d time.Duration) Option {
	return func(a *Actor) { a.frequency = d }
}

// WithLogger overrides the Actor's logger (default: a no-op logger).
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(a *Actor) { a.logger = logger }
}

// WithMetricsRegisterer additionally mirrors emitted metrics into
// Prometheus gauges via the given registerer.
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(a *Actor) { a.metricsRegistry = metrics.NewRegistry(reg) }
}
