package director_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaykit/relaykit/actor"
	"github.com/relaykit/relaykit/director"
	"github.com/relaykit/relaykit/event"
	"github.com/relaykit/relaykit/queue"
	"github.com/relaykit/relaykit/queuepool"
	"github.com/relaykit/relaykit/sink"
)

func TestRegisterActorWrapsPanic(t *testing.T) {
	d := director.New(nil)
	_, err := d.RegisterActor("boom", func(name string) *actor.Actor {
		panic("constructor exploded")
	})
	require.ErrorIs(t, err, director.ErrModuleInitFailure)
}

func TestRegisterActorRejectsDuplicateName(t *testing.T) {
	d := director.New(nil)
	_, err := d.RegisterActor("dup", func(name string) *actor.Actor { return actor.New(name) })
	require.NoError(t, err)
	_, err = d.RegisterActor("dup", func(name string) *actor.Actor { return actor.New(name) })
	require.ErrorIs(t, err, director.ErrDuplicateModule)
}

func TestLookupMissingActor(t *testing.T) {
	d := director.New(nil)
	_, err := d.Lookup("nope")
	require.ErrorIs(t, err, director.ErrNoSuchModule)
}

func TestStartTwiceRejected(t *testing.T) {
	d := director.New(nil)
	require.NoError(t, d.Start(false))
	require.ErrorIs(t, d.Start(false), director.ErrAlreadyStarted)
	require.NoError(t, d.Stop())
}

func TestRegisterActorAfterStartRejected(t *testing.T) {
	d := director.New(nil)
	require.NoError(t, d.Start(false))
	_, err := d.RegisterActor("late", func(name string) *actor.Actor { return actor.New(name) })
	require.ErrorIs(t, err, director.ErrAlreadyStarted)
	require.NoError(t, d.Stop())
}

func TestReservedQueuesFanIntoSharedInbox(t *testing.T) {
	d := director.New(nil)
	logSink := sink.NewLog("log-sink", nil)
	require.NoError(t, d.RegisterLogActor(logSink))

	a, err := d.RegisterActor("producer-a", func(name string) *actor.Actor { return actor.New(name) })
	require.NoError(t, err)
	b, err := d.RegisterActor("producer-b", func(name string) *actor.Actor { return actor.New(name) })
	require.NoError(t, err)

	require.NoError(t, d.Start(false))

	// Both producers' reserved "logs" queues must have wired into the same
	// Queue object on the sink's single "inbox" — not two separate queues
	// named after each producer.
	aLogs := a.Pool().Reserved(queuepool.ReservedLogs)
	bLogs := b.Pool().Reserved(queuepool.ReservedLogs)
	sinkInbox := logSink.Pool().Inbound(queuepool.ReservedInbox)

	require.NotNil(t, sinkInbox)
	assert.Same(t, sinkInbox, aLogs)
	assert.Same(t, sinkInbox, bLogs)

	require.NoError(t, d.Stop())
}

func TestConnectQueueInfersDefaultNames(t *testing.T) {
	d := director.New(nil)
	src, err := d.RegisterActor("producer", func(name string) *actor.Actor { return actor.New(name) })
	require.NoError(t, err)

	var mu sync.Mutex
	var received *event.Event
	dst, err := d.RegisterActor("consumer", func(name string) *actor.Actor {
		return actor.New(name, actor.WithConsume(func(e *event.Event, origin string, q *queue.Queue) error {
			mu.Lock()
			received = e
			mu.Unlock()
			return nil
		}))
	})
	require.NoError(t, err)

	require.NoError(t, d.ConnectQueue(director.Endpoint(src), director.Endpoint(dst)))
	require.NoError(t, d.Start(false))

	require.NoError(t, src.SendEvent(event.New("svc", nil, nil), nil, nil))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return received != nil
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, d.Stop())
}
