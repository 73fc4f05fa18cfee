// Package actor implements the Actor runtime unit: a named QueuePool, a
// SupervisedPool of consume workers, a lifecycle state machine, fan-out
// send, and an optional metric emitter.
//
// Grounded end to end on original_source/compysition/actor.py — the
// __consumer/__do_consume/__submit/__metric_emitter methods there map
// directly onto consumerLoop/handleConsume/submit/metricEmitterLoop here,
// re-expressed with goroutines/channels in place of gevent greenlets. Hook
// methods are plain function-valued fields, re-architected here as
// composition rather than the original's capability-probed methods.
package actor

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/relaykit/relaykit/event"
	"github.com/relaykit/relaykit/logging"
	"github.com/relaykit/relaykit/metrics"
	"github.com/relaykit/relaykit/queue"
	"github.com/relaykit/relaykit/queuepool"
	"github.com/relaykit/relaykit/supervisor"
)

// Actor is a named runtime unit that exclusively owns a QueuePool and a
// SupervisedPool. Construct with New; the zero value is not usable.
type Actor struct {
	name string

	pool    *queuepool.Pool
	workers *supervisor.Pool
	logger  *zap.SugaredLogger

	blockingConsume bool
	generateMetrics bool
	frequency       time.Duration

	consume     ConsumeFunc
	preHook     HookFunc
	postHook    HookFunc
	createEvent CreateEventFunc

	metricsRegistry *metrics.Registry

	looping atomic.Bool

	mu        sync.Mutex
	isStarted bool

	started chan struct{}

	blockOnce sync.Once
	block     chan struct{}
}

// New constructs an Actor named name, applying opts in order. Defaults:
// queuepool.DefaultCapacity bounded queues, concurrent (non-blocking)
// consume, no metrics, a no-op logger, event.New as the event constructor.
func New(name string, opts ...Option) *Actor {
	a := &Actor{
		name:        name,
		pool:        queuepool.New(queuepool.DefaultCapacity),
		logger:      logging.Nop(),
		frequency:   time.Second,
		createEvent: event.New,
		started:     make(chan struct{}),
		block:       make(chan struct{}),
	}
	a.looping.Store(true)

	for _, opt := range opts {
		opt(a)
	}

	a.workers = supervisor.New(a.logger)
	return a
}

// Name returns the Actor's name.
func (a *Actor) Name() string { return a.name }

// Pool returns the Actor's QueuePool, satisfying queuepool.Consumer.
func (a *Actor) Pool() *queuepool.Pool { return a.pool }

func (a *Actor) isLooping() bool { return a.looping.Load() }

// RegisterConsumer installs q as the inbound queue named name and spawns a
// supervised worker bound to it (compysition's register_consumer). Calling
// this after Start has run returns ErrAlreadyStarted: wiring is frozen once
// an Actor is started.
func (a *Actor) RegisterConsumer(name string, q *queue.Queue) error {
	a.mu.Lock()
	started := a.isStarted
	a.mu.Unlock()
	if started {
		return ErrAlreadyStarted
	}

	a.pool.AddInbound(name, q)
	a.workers.Spawn("consume:"+name, func(ctx context.Context) error {
		return a.consumerLoop(ctx, name, q)
	}, true)
	return nil
}

// ConnectQueue wires this Actor's outbound (or error) queue srcName to
// dst's inbound queue dstName, per the four-case resolution in
// queuepool.Pool.ConnectQueue. Returns ErrAlreadyStarted if this Actor has
// already started.
func (a *Actor) ConnectQueue(srcName string, dst queuepool.Consumer, dstName string, errorQueue, checkExisting bool) error {
	a.mu.Lock()
	started := a.isStarted
	a.mu.Unlock()
	if started {
		return ErrAlreadyStarted
	}
	err := a.pool.ConnectQueue(srcName, errorQueue, dst, dstName, checkExisting)
	if err == nil {
		a.logger.Debugw("connected queue", "src_queue", srcName, "dst_actor", dst, "dst_queue", dstName)
	}
	return err
}

// Start runs the Actor's start sequence: spawn the metric emitter if
// enabled, run PreHook synchronously, then release every consume worker
// waiting on the started gate.
func (a *Actor) Start() error {
	a.mu.Lock()
	if a.isStarted {
		a.mu.Unlock()
		return ErrAlreadyStarted
	}
	a.isStarted = true
	a.mu.Unlock()

	if a.generateMetrics {
		a.workers.Spawn("metric-emitter", a.metricEmitterLoop, true)
	}

	if a.preHook != nil {
		if err := a.preHook(); err != nil {
			return err
		}
	}

	close(a.started)
	return nil
}

// Stop runs the Actor's stop sequence: clear the loop flag, release Block
// callers, terminate this Actor's inbound queues (so any worker blocked on
// one of them wakes and proceeds to drain), join the SupervisedPool, then
// run PostHook.
func (a *Actor) Stop() error {
	a.looping.Store(false)
	a.blockOnce.Do(func() { close(a.block) })

	for _, q := range a.pool.Inbounds() {
		q.Terminate()
	}

	a.workers.Stop()
	a.workers.Join()

	if a.postHook != nil {
		return a.postHook()
	}
	return nil
}

// Block suspends the caller until Stop has been called.
func (a *Actor) Block() { <-a.block }

// logError writes an uncaught consume failure to stderr AND the Actor's
// structured logger AND the reserved "logs" queue, so a failure is visible
// both locally and to whatever the Director has wired as the log sink.
func (a *Actor) logError(origin string, err error) {
	fmt.Fprintln(os.Stderr, err)
	a.logger.Errorw("consume failed", "actor", a.name, "origin", origin, "error", err)

	logsQueue := a.pool.Reserved(queuepool.ReservedLogs)
	if logsQueue == nil {
		return
	}
	logEvent := a.createEvent("log", map[string]string{
		"actor":  a.name,
		"origin": origin,
		"level":  "error",
		"error":  err.Error(),
	}, nil)
	_ = logsQueue.Put(logEvent) // best effort; a full logs queue must never block consume
}
