package queue_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaykit/relaykit/event"
	"github.com/relaykit/relaykit/queue"
)

func TestPutGetFIFO(t *testing.T) {
	q := queue.New("q", 0)
	for i := 0; i < 5; i++ {
		require.NoError(t, q.Put(event.New("svc", map[string]int{"n": i}, nil)))
	}
	for i := 0; i < 5; i++ {
		e, err := q.Get(0)
		require.NoError(t, err)
		var payload map[string]int
		require.NoError(t, e.Data(&payload))
		assert.Equal(t, i, payload["n"])
	}
}

func TestPutFullCarriesWaitHandle(t *testing.T) {
	q := queue.New("bounded", 2)
	require.NoError(t, q.Put(event.New("svc", nil, nil)))
	require.NoError(t, q.Put(event.New("svc", nil, nil)))

	err := q.Put(event.New("svc", nil, nil))
	require.Error(t, err)
	assert.True(t, errors.Is(err, queue.ErrFull))

	var fullErr *queue.FullError
	require.ErrorAs(t, err, &fullErr)

	released := make(chan struct{})
	go func() {
		fullErr.WaitUntilFree()
		close(released)
	}()

	select {
	case <-released:
		t.Fatal("WaitUntilFree returned before any space freed")
	case <-time.After(20 * time.Millisecond):
	}

	_, getErr := q.Get(0)
	require.NoError(t, getErr)

	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatal("WaitUntilFree did not unblock after a slot freed")
	}
}

func TestGetEmptyTimesOut(t *testing.T) {
	q := queue.New("q", 0)
	start := time.Now()
	_, err := q.Get(20 * time.Millisecond)
	require.Error(t, err)
	assert.True(t, errors.Is(err, queue.ErrEmpty))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestGetEmptyUnblocksOnContent(t *testing.T) {
	q := queue.New("q", 0)
	_, err := q.Get(0)
	require.Error(t, err)
	var emptyErr *queue.EmptyError
	require.ErrorAs(t, err, &emptyErr)

	arrived := make(chan struct{})
	go func() {
		emptyErr.WaitUntilContent()
		close(arrived)
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, q.Put(event.New("svc", nil, nil)))

	select {
	case <-arrived:
	case <-time.After(time.Second):
		t.Fatal("WaitUntilContent did not unblock after a Put")
	}
}

func TestRescuePutsBackAtHead(t *testing.T) {
	q := queue.New("q", 0)
	first := event.New("svc", map[string]int{"n": 1}, nil)
	second := event.New("svc", map[string]int{"n": 2}, nil)
	require.NoError(t, q.Put(first))
	require.NoError(t, q.Put(second))

	got, err := q.Get(0)
	require.NoError(t, err)
	q.Rescue(got)

	front, err := q.Get(0)
	require.NoError(t, err)
	assert.Equal(t, got.ID(), front.ID())
}

func TestWaitUntilEmpty(t *testing.T) {
	q := queue.New("q", 0)
	require.NoError(t, q.Put(event.New("svc", nil, nil)))
	require.NoError(t, q.Put(event.New("svc", nil, nil)))

	drained := make(chan struct{})
	go func() {
		q.WaitUntilEmpty()
		close(drained)
	}()

	_, _ = q.Get(0)
	select {
	case <-drained:
		t.Fatal("WaitUntilEmpty returned with one item still queued")
	case <-time.After(20 * time.Millisecond):
	}

	_, _ = q.Get(0)
	select {
	case <-drained:
	case <-time.After(time.Second):
		t.Fatal("WaitUntilEmpty did not unblock once queue fully drained")
	}
}

func TestStats(t *testing.T) {
	q := queue.New("stats", 3)
	require.NoError(t, q.Put(event.New("svc", nil, nil)))
	require.NoError(t, q.Put(event.New("svc", nil, nil)))
	_, err := q.Get(0)
	require.NoError(t, err)

	st := q.Stats()
	assert.Equal(t, "stats", st.Name)
	assert.Equal(t, 3, st.Capacity)
	assert.Equal(t, 1, st.Size)
	assert.EqualValues(t, 2, st.TotalIn)
	assert.EqualValues(t, 1, st.TotalOut)
}

// TestNeverExceedsCapacity asserts the core bounded-queue invariant: size
// never exceeds capacity, even under concurrent producers.
func TestNeverExceedsCapacity(t *testing.T) {
	q := queue.New("bounded", 4)
	var wg sync.WaitGroup
	var maxSeen int
	var mu sync.Mutex

	// A single consumer frees slots so every retrying producer eventually
	// gets its Event in.
	go func() {
		for got := 0; got < 20; {
			if _, err := q.Get(10 * time.Millisecond); err == nil {
				got++
			}
		}
	}()

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if err := q.Put(event.New("svc", nil, nil)); err == nil {
					mu.Lock()
					if s := q.Size(); s > maxSeen {
						maxSeen = s
					}
					mu.Unlock()
					return
				}
				time.Sleep(time.Millisecond)
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, maxSeen, 4)
	assert.LessOrEqual(t, q.Size(), 4)
}
