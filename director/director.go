// Package director implements the Director graph-assembly and orchestration
// unit: a named registry of Actors, the three reserved sink Actors every
// Actor's logs/metrics/failed queues fan into by default, and the
// coordinated Start/Stop sequence.
//
// Grounded on original_source/compysition/director.py: RegisterActor's
// construction-failure wrapping, the default queue-name inference in
// connect_queue, and the reserved-queue-to-sink auto-wiring performed before
// any Actor starts.
package director

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/relaykit/relaykit/actor"
	"github.com/relaykit/relaykit/logging"
	"github.com/relaykit/relaykit/queuepool"
)

// Director owns a named set of Actors, the three reserved sink Actors, and
// an overall block gate released by Stop. The zero value is not usable;
// construct with New.
type Director struct {
	logger *zap.SugaredLogger

	mu     sync.Mutex
	actors map[string]*actor.Actor
	order  []string

	logSink, metricSink, failedSink *actor.Actor

	isStarted bool

	blockOnce sync.Once
	block     chan struct{}
}

// New constructs an empty Director. logger may be nil, in which case a
// no-op logger is used.
func New(logger *zap.SugaredLogger) *Director {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Director{
		logger: logger,
		actors: make(map[string]*actor.Actor),
		block:  make(chan struct{}),
	}
}

// RegisterActor constructs an Actor by calling ctor(name) and registers it
// under name. A panic raised by ctor is recovered and, like a nil Actor
// returned by ctor, reported as ErrModuleInitFailure (director.py's
// try/except around actor construction).
func (d *Director) RegisterActor(name string, ctor func(name string) *actor.Actor) (a *actor.Actor, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.isStarted {
		return nil, ErrAlreadyStarted
	}
	if _, exists := d.actors[name]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateModule, name)
	}

	defer func() {
		if r := recover(); r != nil {
			a, err = nil, fmt.Errorf("%w: %s: %v", ErrModuleInitFailure, name, r)
		}
	}()

	a = ctor(name)
	if a == nil {
		return nil, fmt.Errorf("%w: %s: constructor returned nil", ErrModuleInitFailure, name)
	}

	d.actors[name] = a
	d.order = append(d.order, name)
	return a, nil
}

// RegisterLogActor installs a as the Director's log sink: every registered
// Actor's reserved "logs" queue fans into it at Start. A later call replaces
// any log sink installed earlier.
func (d *Director) RegisterLogActor(a *actor.Actor) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.isStarted {
		return ErrAlreadyStarted
	}
	d.logSink = a
	return nil
}

// RegisterMetricActor installs a as the Director's metric sink.
func (d *Director) RegisterMetricActor(a *actor.Actor) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.isStarted {
		return ErrAlreadyStarted
	}
	d.metricSink = a
	return nil
}

// RegisterFailedActor installs a as the Director's failed-event sink.
func (d *Director) RegisterFailedActor(a *actor.Actor) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.isStarted {
		return ErrAlreadyStarted
	}
	d.failedSink = a
	return nil
}

// Lookup returns a registered Actor by name, or ErrNoSuchModule.
func (d *Director) Lookup(name string) (*actor.Actor, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	a, ok := d.actors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchModule, name)
	}
	return a, nil
}

// ConnectQueue wires src's outbound queue to dst's inbound queue, inferring
// whichever queue name is left unnamed from the other endpoint's actor name
// (director.py's connect_queue default-naming rule).
func (d *Director) ConnectQueue(src, dst endpoint) error {
	return d.connect(src, dst, false)
}

// ConnectErrorQueue is ConnectQueue against the error-queue namespace
// instead of the plain outbound one (director.py's connect_error_queue).
func (d *Director) ConnectErrorQueue(src, dst endpoint) error {
	return d.connect(src, dst, true)
}

func (d *Director) connect(src, dst endpoint, errorQueue bool) error {
	d.mu.Lock()
	started := d.isStarted
	d.mu.Unlock()
	if started {
		return ErrAlreadyStarted
	}

	srcName := src.queue
	if srcName == "" {
		srcName = dst.actor.Name()
	}
	dstName := dst.queue
	if dstName == "" {
		dstName = src.actor.Name()
	}
	return src.actor.ConnectQueue(srcName, dst.actor, dstName, errorQueue, false)
}

// Start wires every registered Actor's reserved logs/metrics/failed queues
// into the Director's sinks (if installed), then starts every sink and every
// registered Actor. If block is true, Start blocks until Stop is called.
func (d *Director) Start(block bool) error {
	d.mu.Lock()
	if d.isStarted {
		d.mu.Unlock()
		return ErrAlreadyStarted
	}
	d.isStarted = true

	failedSink := d.failedSink
	if failedSink == nil {
		failedSink = d.logSink
	}

	var wireErrs error
	for _, name := range d.order {
		a := d.actors[name]
		if d.logSink != nil {
			if err := a.ConnectQueue(queuepool.ReservedLogs, d.logSink, queuepool.ReservedInbox, false, false); err != nil {
				wireErrs = multierr.Append(wireErrs, err)
			}
		}
		if d.metricSink != nil {
			if err := a.ConnectQueue(queuepool.ReservedMetrics, d.metricSink, queuepool.ReservedInbox, false, false); err != nil {
				wireErrs = multierr.Append(wireErrs, err)
			}
		}
		if failedSink != nil {
			if err := a.ConnectQueue(queuepool.ReservedFailed, failedSink, queuepool.ReservedInbox, false, false); err != nil {
				wireErrs = multierr.Append(wireErrs, err)
			}
		}
	}
	d.mu.Unlock()

	if wireErrs != nil {
		return wireErrs
	}

	var startErrs error
	for _, sink := range []*actor.Actor{d.logSink, d.metricSink, failedSink} {
		if sink == nil {
			continue
		}
		if err := sink.Start(); err != nil {
			startErrs = multierr.Append(startErrs, err)
		}
	}
	for _, name := range d.order {
		if err := d.actors[name].Start(); err != nil {
			startErrs = multierr.Append(startErrs, err)
		}
	}
	if startErrs != nil {
		return startErrs
	}

	d.logger.Infow("director started", "actors", len(d.order))

	if block {
		d.Block()
	}
	return nil
}

// Stop releases Block, then stops every registered Actor (in registration
// order), then the metric, failed, and log sinks, aggregating every error
// encountered via go.uber.org/multierr rather than returning only the first.
func (d *Director) Stop() error {
	d.blockOnce.Do(func() { close(d.block) })

	var errs error
	for _, name := range d.order {
		if err := d.actors[name].Stop(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	failedSink := d.failedSink
	if failedSink == nil {
		failedSink = d.logSink
	}

	// Stop metric and failed sinks, then the log sink last so it can still
	// observe any log Event emitted by the other sinks' own shutdown.
	stopped := make(map[*actor.Actor]bool)
	for _, sink := range []*actor.Actor{d.metricSink, failedSink} {
		if sink == nil || stopped[sink] {
			continue
		}
		if err := sink.Stop(); err != nil {
			errs = multierr.Append(errs, err)
		}
		stopped[sink] = true
	}
	if d.logSink != nil && !stopped[d.logSink] {
		if err := d.logSink.Stop(); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	d.logger.Infow("director stopped")
	return errs
}

// Block suspends the caller until Stop has been called.
func (d *Director) Block() { <-d.block }

// IsRunning reports whether Start has been called and Stop has not.
func (d *Director) IsRunning() bool {
	d.mu.Lock()
	started := d.isStarted
	d.mu.Unlock()
	select {
	case <-d.block:
		return false
	default:
		return started
	}
}

// InstallSignalHandler stops d when SIGINT or SIGTERM is received, returning
// a function that cancels the installed handler.
func (d *Director) InstallSignalHandler() (cancel func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		select {
		case <-sigCh:
			d.logger.Infow("signal received, stopping director")
			if err := d.Stop(); err != nil {
				d.logger.Errorw("error stopping director", "error", err)
			}
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigCh)
		close(done)
	}
}
