package actor_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaykit/relaykit/actor"
	"github.com/relaykit/relaykit/event"
	"github.com/relaykit/relaykit/queue"
	"github.com/relaykit/relaykit/queuepool"
)

func TestLifecycleStartStop(t *testing.T) {
	a := actor.New("echo")
	a.RegisterConsumer("in", queue.New("in", 0))
	require.NoError(t, a.Start())
	require.ErrorIs(t, a.Start(), actor.ErrAlreadyStarted)
	require.NoError(t, a.Stop())
}

func TestRegisterConsumerAfterStartRejected(t *testing.T) {
	a := actor.New("echo")
	require.NoError(t, a.Start())
	err := a.RegisterConsumer("late", queue.New("late", 0))
	require.ErrorIs(t, err, actor.ErrAlreadyStarted)
	require.NoError(t, a.Stop())
}

func TestFanOutCopiesAllButFirst(t *testing.T) {
	a := actor.New("source")
	q1 := a.Pool().AddOutbound("q1", nil)
	q2 := a.Pool().AddOutbound("q2", nil)
	require.NoError(t, a.Start())

	original := event.New("svc", map[string]string{"k": "v"}, nil)
	require.NoError(t, a.SendEvent(original, nil, nil))

	got1, err := q1.Get(0)
	require.NoError(t, err)
	got2, err := q2.Get(0)
	require.NoError(t, err)

	assert.Equal(t, got1.ID(), got2.ID(), "fan-out copies preserve the logical identity")
	assert.True(t, got1.Equal(got2))
	assert.NotSame(t, got1, got2, "each recipient holds a distinct object")
	assert.True(t, got1 == original || got2 == original, "exactly one recipient holds the original")

	require.NoError(t, a.Stop())
}

func TestSendEventNoTargetsErrors(t *testing.T) {
	a := actor.New("lonely")
	require.NoError(t, a.Start())
	err := a.SendEvent(event.New("svc", nil, nil), nil, nil)
	require.ErrorIs(t, err, actor.ErrNoConnectedQueues)
	require.NoError(t, a.Stop())
}

func TestSendErrorSilentlyDropsWithNoTargets(t *testing.T) {
	a := actor.New("lonely")
	require.NoError(t, a.Start())
	err := a.SendError(event.New("svc", nil, nil), nil, nil)
	require.NoError(t, err)
	require.NoError(t, a.Stop())
}

func TestBlockingConsumeDeliversInOrder(t *testing.T) {
	var mu sync.Mutex
	var order []int

	a := actor.New("ordered", actor.WithBlockingConsume(true), actor.WithConsume(
		func(e *event.Event, origin string, q *queue.Queue) error {
			var n int
			_ = e.Data(&n)
			mu.Lock()
			order = append(order, n)
			mu.Unlock()
			return nil
		},
	))

	in := a.Pool().AddInbound("in", nil)
	a.RegisterConsumer("in", in)
	require.NoError(t, a.Start())

	for i := 0; i < 20; i++ {
		require.NoError(t, in.Put(event.New("svc", i, nil)))
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 20
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, a.Stop())

	mu.Lock()
	defer mu.Unlock()
	for i, n := range order {
		assert.Equal(t, i, n, "blocking consume must preserve inbound order")
	}
}

func TestStopDrainsPendingEvents(t *testing.T) {
	var processed sync.WaitGroup
	processed.Add(5)

	a := actor.New("drainer", actor.WithConsume(
		func(e *event.Event, origin string, q *queue.Queue) error {
			processed.Done()
			return nil
		},
	))
	in := a.Pool().AddInbound("in", nil)
	a.RegisterConsumer("in", in)
	require.NoError(t, a.Start())

	for i := 0; i < 5; i++ {
		require.NoError(t, in.Put(event.New("svc", i, nil)))
	}

	require.NoError(t, a.Stop())

	done := make(chan struct{})
	go func() {
		processed.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not drain pending events before returning")
	}
}

func TestRescueOnFullDownstream(t *testing.T) {
	downstream := queue.New("downstream", 1)
	require.NoError(t, downstream.Put(event.New("svc", nil, nil))) // pre-fill to force Full

	var attempts int
	var mu sync.Mutex

	a := actor.New("congested", actor.WithConsume(
		func(e *event.Event, origin string, q *queue.Queue) error {
			mu.Lock()
			attempts++
			first := attempts == 1
			mu.Unlock()
			if first {
				return downstream.Put(e)
			}
			return nil
		},
	))
	in := a.Pool().AddInbound("in", nil)
	a.RegisterConsumer("in", in)
	require.NoError(t, a.Start())

	require.NoError(t, in.Put(event.New("svc", map[string]int{"n": 1}, nil)))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return attempts >= 1
	}, time.Second, 5*time.Millisecond)

	_, err := downstream.Get(0)
	require.NoError(t, err) // drain the pre-fill; frees space and releases the handler blocked in WaitUntilFree

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return attempts >= 2
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, a.Stop())
}

func TestSendErrorUsesErrorQueues(t *testing.T) {
	a := actor.New("faulty")
	errQ := a.Pool().AddError("failed", nil)
	require.NoError(t, a.Start())

	e := event.New("svc", nil, nil)
	require.NoError(t, a.SendError(e, nil, nil))

	got, err := errQ.Get(0)
	require.NoError(t, err)
	assert.Equal(t, e.ID(), got.ID())

	require.NoError(t, a.Stop())
}

func TestConnectQueueRejectsAfterStart(t *testing.T) {
	src := actor.New("src")
	dst := actor.New("dst")
	require.NoError(t, src.Start())
	err := src.ConnectQueue("out", dst, "in", false, false)
	require.ErrorIs(t, err, actor.ErrAlreadyStarted)
	require.NoError(t, src.Stop())
	require.NoError(t, dst.Stop())
}

func TestQueuePoolReservedDefaults(t *testing.T) {
	a := actor.New("any")
	assert.NotNil(t, a.Pool().Reserved(queuepool.ReservedLogs))
	assert.NotNil(t, a.Pool().Reserved(queuepool.ReservedMetrics))
	assert.NotNil(t, a.Pool().Reserved(queuepool.ReservedFailed))
}
