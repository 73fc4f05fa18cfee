package actor

import (
	"context"
	"errors"
	"time"

	"github.com/relaykit/relaykit/event"
	"github.com/relaykit/relaykit/queue"
)

// getTimeout is the blocking Get timeout used by the main consume loop,
// matching compysition's __consumer pseudocode ("try e = queue.get(timeout=10)").
const getTimeout = 10 * time.Second

// consumerLoop is one inbound queue's dedicated worker, re-expressing
// compysition's __consumer with a goroutine in place of a greenlet.
func (a *Actor) consumerLoop(ctx context.Context, origin string, q *queue.Queue) error {
	select {
	case <-a.started:
	case <-ctx.Done():
		return nil
	}

	for a.isLooping() {
		if q.Size() > 0 {
			e, err := q.Get(getTimeout)
			if err != nil {
				var emptyErr *queue.EmptyError
				if errors.As(err, &emptyErr) {
					emptyErr.WaitUntilContent()
					continue
				}
				return err
			}
			snapshot := e.Copy(true)
			if a.blockingConsume {
				a.handleConsume(e, snapshot, origin, q)
			} else {
				a.workers.Spawn("", func(context.Context) error {
					a.handleConsume(e, snapshot, origin, q)
					return nil
				}, false)
			}
		} else {
			q.WaitUntilContent()
		}
	}

	// Drain phase: consume everything still enqueued before this worker
	// exits, so a Stop never silently discards queued work.
	for q.Size() > 0 {
		e, err := q.Get(0)
		if err != nil {
			break
		}
		snapshot := e.Copy(true)
		a.workers.Spawn("", func(context.Context) error {
			a.handleConsume(e, snapshot, origin, q)
			return nil
		}, false)
	}
	return nil
}

// handleConsume invokes the user consume function and handles its two
// recognized outcomes: success, or downstream congestion (a queue.FullError
// from a send made inside consume), which restores the pre-consume
// snapshot and rescues the Event back to origin for retry. Any other error
// is logged and the Event is dropped. This re-expresses compysition's
// __do_consume.
func (a *Actor) handleConsume(e, snapshot *event.Event, origin string, originQueue *queue.Queue) {
	if a.consume == nil {
		a.logError(origin, ErrSetupMissing)
		return
	}

	err := a.consume(e, origin, originQueue)
	if err == nil {
		return
	}

	var fullErr *queue.FullError
	if errors.As(err, &fullErr) {
		if restoreErr := e.RestoreData(snapshot); restoreErr != nil {
			a.logError(origin, restoreErr)
		}
		originQueue.Rescue(e)
		fullErr.WaitUntilFree()
		return
	}

	a.logError(origin, err)
}
