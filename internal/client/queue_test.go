package client

import (
	"context"
	"errors"
	stdsync "sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	batch "github.com/katachi/katachi/internal/sync"
)

type fakeTransport struct {
	mu      stdsync.Mutex
	batches [][]batch.Operation
	err     error
	result  *batch.Result
	block   chan struct{} // when non-nil, SyncBatch waits on it
	entered chan struct{} // when non-nil, signaled as SyncBatch starts
}

func (f *fakeTransport) SyncBatch(_ context.Context, ops []batch.Operation) (*batch.Result, error) {
	if f.entered != nil {
		select {
		case f.entered <- struct{}{}:
		default:
		}
	}
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	f.batches = append(f.batches, ops)
	err := f.err
	res := f.result
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if res != nil {
		return res, nil
	}
	synced := make([]string, len(ops))
	for i, op := range ops {
		synced[i] = op.ID.String()
	}
	return &batch.Result{Synced: synced, Conflicts: []batch.Conflict{}, Errors: []batch.OpError{}}, nil
}

func (f *fakeTransport) calls() [][]batch.Operation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]batch.Operation(nil), f.batches...)
}

func (f *fakeTransport) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func authed() bool { return true }
func anon() bool   { return false }

func op(kind batch.OpKind) batch.Operation {
	return batch.Operation{Type: batch.EntityCard, Operation: kind, ID: uuid.New()}
}

func TestQueue_DebounceBatchesBurstIntoOneCall(t *testing.T) {
	t.Parallel()

	transport := &fakeTransport{}
	q := NewQueue(transport, authed, QueueOptions{Debounce: 20 * time.Millisecond})
	defer q.Close()

	first := op(batch.OpCreate)
	second := op(batch.OpUpdate)
	third := op(batch.OpUpdate)
	q.Enqueue(first)
	q.Enqueue(second)
	q.Enqueue(third)

	require.Eventually(t, func() bool {
		return len(transport.calls()) == 1
	}, time.Second, 5*time.Millisecond)

	calls := transport.calls()
	require.Len(t, calls[0], 3)
	assert.Equal(t, []uuid.UUID{first.ID, second.ID, third.ID},
		[]uuid.UUID{calls[0][0].ID, calls[0][1].ID, calls[0][2].ID})
}

func TestQueue_AtMostOneBatchInFlight(t *testing.T) {
	t.Parallel()

	transport := &fakeTransport{block: make(chan struct{}), entered: make(chan struct{}, 1)}
	q := NewQueue(transport, authed, QueueOptions{Debounce: time.Millisecond})
	defer q.Close()

	q.Enqueue(op(batch.OpCreate))
	<-transport.entered // first batch is now stuck in flight

	// These land while the first batch is stuck in flight.
	late1 := op(batch.OpUpdate)
	late2 := op(batch.OpUpdate)
	q.Enqueue(late1)
	q.Enqueue(late2)

	close(transport.block)

	require.Eventually(t, func() bool {
		return len(transport.calls()) == 2
	}, time.Second, 5*time.Millisecond)

	calls := transport.calls()
	assert.Len(t, calls[0], 1, "first batch ships alone")
	require.Len(t, calls[1], 2, "late operations ride the next batch")
	assert.Equal(t, late1.ID, calls[1][0].ID)
	assert.Equal(t, late2.ID, calls[1][1].ID)
}

func TestQueue_TransportFailureRequeuesFullBatch(t *testing.T) {
	t.Parallel()

	transport := &fakeTransport{}
	transport.setErr(errors.New("connection refused"))
	q := NewQueue(transport, authed, QueueOptions{
		Debounce:   time.Millisecond,
		RetryAfter: 10 * time.Millisecond,
	})
	defer q.Close()

	first := op(batch.OpCreate)
	second := op(batch.OpUpdate)
	q.Enqueue(first)
	q.Enqueue(second)

	require.Eventually(t, func() bool {
		return len(transport.calls()) >= 1 && q.Status() == StatusOffline
	}, time.Second, 5*time.Millisecond)

	// Server comes back; the retry ships the identical batch.
	transport.setErr(nil)

	require.Eventually(t, func() bool {
		return len(transport.calls()) >= 2
	}, time.Second, 5*time.Millisecond)

	calls := transport.calls()
	require.Len(t, calls[1], 2)
	assert.Equal(t, first.ID, calls[1][0].ID)
	assert.Equal(t, second.ID, calls[1][1].ID)

	require.Eventually(t, func() bool {
		return q.Pending() == 0
	}, time.Second, 5*time.Millisecond)
}

func TestQueue_UnauthenticatedEnqueueIsNoOp(t *testing.T) {
	t.Parallel()

	transport := &fakeTransport{}
	q := NewQueue(transport, anon, QueueOptions{Debounce: time.Millisecond})
	defer q.Close()

	q.Enqueue(op(batch.OpCreate))

	assert.Equal(t, 0, q.Pending())
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, transport.calls())
}

func TestQueue_OfflineDivertsToStoreAndDrainsOnReconnect(t *testing.T) {
	t.Parallel()

	transport := &fakeTransport{}
	offline := NewMemoryOfflineStore()
	q := NewQueue(transport, authed, QueueOptions{
		Debounce: time.Millisecond,
		Offline:  offline,
	})
	defer q.Close()

	q.SetOnline(false)
	saved := op(batch.OpCreate)
	q.Enqueue(saved)

	assert.Equal(t, StatusOffline, q.Status())
	assert.Empty(t, transport.calls(), "offline edits must not hit the network")

	q.SetOnline(true)

	require.Eventually(t, func() bool {
		return len(transport.calls()) == 1
	}, time.Second, 5*time.Millisecond)

	calls := transport.calls()
	require.Len(t, calls[0], 1)
	assert.Equal(t, saved.ID, calls[0][0].ID)

	drained, err := offline.Drain()
	require.NoError(t, err)
	assert.Empty(t, drained, "store must be empty after the drain")
}

func TestQueue_StatusSettlesToIdleAfterSync(t *testing.T) {
	t.Parallel()

	transport := &fakeTransport{}

	var mu stdsync.Mutex
	var seen []Status
	q := NewQueue(transport, authed, QueueOptions{
		Debounce:   time.Millisecond,
		SyncedHold: 10 * time.Millisecond,
		OnStatus: func(s Status) {
			mu.Lock()
			seen = append(seen, s)
			mu.Unlock()
		},
	})
	defer q.Close()

	q.Enqueue(op(batch.OpCreate))

	require.Eventually(t, func() bool {
		return q.Status() == StatusIdle && len(transport.calls()) == 1
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Status{StatusSyncing, StatusSynced, StatusIdle}, seen)
}

func TestQueue_BatchWithOpErrorsReportsErrorStatus(t *testing.T) {
	t.Parallel()

	failed := op(batch.OpCreate)
	transport := &fakeTransport{result: &batch.Result{
		Synced:    []string{},
		Conflicts: []batch.Conflict{},
		Errors:    []batch.OpError{{ID: failed.ID, Type: batch.EntityCard, Message: "Insufficient permissions"}},
	}}

	var mu stdsync.Mutex
	var reported []batch.OpError
	q := NewQueue(transport, authed, QueueOptions{
		Debounce: time.Millisecond,
		OnOpError: func(errs []batch.OpError) {
			mu.Lock()
			reported = errs
			mu.Unlock()
		},
	})
	defer q.Close()

	q.Enqueue(failed)

	require.Eventually(t, func() bool {
		return q.Status() == StatusError
	}, time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(reported) == 1
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Equal(t, failed.ID, reported[0].ID)
	mu.Unlock()

	assert.Equal(t, 0, q.Pending(), "terminally failed operations are not retried")
}
