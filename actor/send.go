package actor

import (
	"errors"

	"github.com/relaykit/relaykit/event"
	"github.com/relaykit/relaykit/queue"
)

// SendEvent delivers e to target if given, else to targets (or, if targets
// is also nil, every plain outbound queue). The first recipient gets e
// itself; every subsequent recipient gets a deep copy with the identifier
// preserved, so N fan-out targets end up with N distinct objects — all but
// one independent copies, all sharing the same logical identity.
//
// SendEvent uses submit, which retries internally on a full downstream
// until space frees or the Actor stops — it never returns a queue.FullError
// to the caller. A consume implementation that instead calls a Queue's Put
// directly (bypassing SendEvent) can observe a queue.FullError itself;
// handleConsume treats that as the distinguished "downstream congestion"
// outcome and rescues the Event for retry.
func (a *Actor) SendEvent(e *event.Event, target *queue.Queue, targets []*queue.Queue) error {
	if target != nil {
		return a.submit(e, target)
	}

	qs := targets
	if qs == nil {
		qs = a.pool.Outbounds()
	}
	if len(qs) == 0 {
		return ErrNoConnectedQueues
	}

	for i, q := range qs {
		toSend := e
		if i > 0 {
			toSend = e.Copy(true)
		}
		if err := a.submit(toSend, q); err != nil {
			return err
		}
	}
	return nil
}

// SendError delivers e to target/targets against the error queues instead
// of the outbound ones. When neither target nor targets is given and no
// error queues are registered, SendError silently drops the Event —
// preserving compysition's send_error behavior rather than surfacing
// ErrNoConnectedQueues.
func (a *Actor) SendError(e *event.Event, target *queue.Queue, targets []*queue.Queue) error {
	if target == nil && targets == nil {
		targets = a.pool.Errors()
		if len(targets) == 0 {
			return nil
		}
	}
	return a.SendEvent(e, target, targets)
}

// submit re-expresses compysition's __submit: loop putting e onto q until
// it succeeds or the Actor stops looping; on "full", block until the
// downstream fully drains, then retry.
func (a *Actor) submit(e *event.Event, q *queue.Queue) error {
	for a.isLooping() {
		err := q.Put(e)
		if err == nil {
			return nil
		}
		var fullErr *queue.FullError
		if errors.As(err, &fullErr) {
			fullErr.WaitUntilEmpty()
			continue
		}
		return err
	}
	return nil
}
