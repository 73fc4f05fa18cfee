// Package supervisor implements a pool of cooperatively restarted worker
// goroutines. Each spawned worker has a stable name so a restart invokes the
// same function and arguments again; transient per-event workers are
// spawned with restart disabled.
//
// The drain-before-exit discipline on shutdown is adapted from
// zoobzio-capitan's worker.go (done-channel plus global-shutdown channel,
// draining before return); restart-on-failure is re-expressed from
// compysition's gevent-based RestartPool as a goroutine relaunch loop.
package supervisor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultRestartInterval is the sleep between a failed worker's exit and
// its respawn.
const DefaultRestartInterval = time.Second

// Func is the body of a supervised worker. It should return when ctx is
// cancelled; a non-nil return value is treated as a failure worth
// restarting (when restart is enabled).
type Func func(ctx context.Context) error

// Pool is a named registry of worker goroutines with restart-on-failure.
type Pool struct {
	logger          *zap.SugaredLogger
	restartInterval time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	wg sync.WaitGroup

	mu      sync.Mutex
	workers map[string]struct{}
	seq     int
}

// New constructs a Pool. logger may be nil, in which case a no-op logger is
// used.
func New(logger *zap.SugaredLogger) *Pool {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		logger:          logger,
		restartInterval: DefaultRestartInterval,
		ctx:             ctx,
		cancel:          cancel,
		workers:         make(map[string]struct{}),
	}
}

// SetRestartInterval overrides the default 1s restart backoff.
func (p *Pool) SetRestartInterval(d time.Duration) { p.restartInterval = d }

// Spawn begins a worker goroutine running fn under name. If fn returns a
// non-nil error and restart is true, the error is logged and fn is
// relaunched after the restart interval; otherwise the worker exits for
// good. Transient per-event consume workers pass restart=false.
func (p *Pool) Spawn(name string, fn Func, restart bool) {
	p.mu.Lock()
	if name == "" {
		p.seq++
		name = fmt.Sprintf("worker-%d", p.seq)
	}
	p.workers[name] = struct{}{}
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() {
			p.mu.Lock()
			delete(p.workers, name)
			p.mu.Unlock()
		}()

		for {
			err := p.runOnce(fn)
			if p.ctx.Err() != nil {
				return
			}
			if err == nil || !restart {
				return
			}
			p.logger.Errorw("supervised worker exited, restarting", "worker", name, "error", err)

			select {
			case <-time.After(p.restartInterval):
			case <-p.ctx.Done():
				return
			}
		}
	}()
}

// runOnce recovers a panic from fn and turns it into an error, so a bug in
// user consume code restarts the worker rather than crashing the process.
func (p *Pool) runOnce(fn Func) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(p.ctx)
}

// Context returns the pool's lifetime context, cancelled by Stop. Worker
// bodies select on it to exit any blocking wait that is not itself queue-
// terminated (e.g. the metric emitter's sleep interval).
func (p *Pool) Context() context.Context { return p.ctx }

// Stop cancels the pool's context, signalling every worker to exit (after
// whatever draining its own loop performs).
func (p *Pool) Stop() { p.cancel() }

// Join blocks until every spawned worker has exited.
func (p *Pool) Join() { p.wg.Wait() }

// Len returns the number of currently running workers, for tests/metrics.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.workers)
}
