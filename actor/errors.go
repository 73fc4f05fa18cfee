package actor

import "errors"

// ErrSetupMissing is reported through the Actor's error logging (stderr,
// logger, and the reserved "logs" queue) each time an Event is dispatched
// and no Consume function has been configured. The Event is dropped; the
// error is not returned to any caller and does not stop the Actor, whose
// consume worker keeps running.
var ErrSetupMissing = errors.New("actor: no consume function configured")

// ErrNoConnectedQueues is returned by SendEvent when no explicit queue is
// given and no outbound queues are wired.
var ErrNoConnectedQueues = errors.New("actor: no connected queues")

// ErrAlreadyStarted is returned by RegisterConsumer and ConnectQueue
// attempted after Start has already run, and by a second call to Start.
// The Pool's own Add* helpers do not check it. The metric emitter assumes wiring is frozen by Start, so
// this is enforced explicitly rather than left as an assumption.
var ErrAlreadyStarted = errors.New("actor: already started")
