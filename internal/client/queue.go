package client

import (
	"context"
	"errors"
	stdsync "sync"
	"time"

	"github.com/rs/zerolog/log"

	batch "github.com/katachi/katachi/internal/sync"
)

// Status is the queue's externally visible sync state.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusSyncing Status = "syncing"
	StatusSynced  Status = "synced"
	StatusError   Status = "error"
	StatusOffline Status = "offline"
)

// Transport submits batches. *HTTPClient satisfies it.
type Transport interface {
	SyncBatch(ctx context.Context, ops []batch.Operation) (*batch.Result, error)
}

// OfflineStore holds operations written while the client is offline so
// they survive until connectivity returns.
type OfflineStore interface {
	Save(ops []batch.Operation) error
	// Drain returns everything saved, in save order, and empties the store.
	Drain() ([]batch.Operation, error)
}

const (
	defaultDebounce   = 500 * time.Millisecond
	defaultSyncedHold = 2 * time.Second
	defaultRetryAfter = 5 * time.Second
	sendTimeout       = 30 * time.Second
)

// QueueOptions tunes the queue; zero values pick the defaults above.
type QueueOptions struct {
	Debounce   time.Duration
	SyncedHold time.Duration
	RetryAfter time.Duration
	Offline    OfflineStore

	// OnStatus fires on every status transition.
	OnStatus func(Status)
	// OnConflict fires when a batch came back with rejected operations;
	// the owner is expected to refetch the affected boards.
	OnConflict func([]batch.Conflict)
	// OnOpError fires when operations failed terminally.
	OnOpError func([]batch.OpError)
}

// Queue collects operations and ships them in debounced batches, at
// most one batch in flight at a time. Operations enqueued while a batch
// is in flight ride the next one.
type Queue struct {
	transport     Transport
	authenticated func() bool
	opts          QueueOptions

	mu            stdsync.Mutex
	pending       []batch.Operation
	inFlight      bool
	online        bool
	status        Status
	debounceTimer *time.Timer
	syncedTimer   *time.Timer
	retryTimer    *time.Timer
}

func NewQueue(transport Transport, authenticated func() bool, opts QueueOptions) *Queue {
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}
	if opts.SyncedHold <= 0 {
		opts.SyncedHold = defaultSyncedHold
	}
	if opts.RetryAfter <= 0 {
		opts.RetryAfter = defaultRetryAfter
	}
	return &Queue{
		transport:     transport,
		authenticated: authenticated,
		opts:          opts,
		online:        true,
		status:        StatusIdle,
	}
}

// Enqueue records one operation. Unauthenticated clients drop the
// operation silently; offline clients divert it to the offline store.
// Otherwise the debounce window restarts, so a burst of edits ships as
// one batch.
func (q *Queue) Enqueue(op batch.Operation) {
	if !q.authenticated() {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.online {
		if q.opts.Offline != nil {
			if err := q.opts.Offline.Save([]batch.Operation{op}); err != nil {
				log.Warn().Err(err).Msg("offline save")
			}
		}
		q.setStatusLocked(StatusOffline)
		return
	}

	q.pending = append(q.pending, op)
	q.restartDebounceLocked()
}

// Flush sends the pending batch immediately, skipping the debounce.
// No-op while a batch is already in flight; the leftover operations go
// out when that batch completes.
func (q *Queue) Flush() {
	q.mu.Lock()
	if q.inFlight || len(q.pending) == 0 || !q.online || !q.authenticated() {
		q.mu.Unlock()
		return
	}

	ops := q.pending
	q.pending = nil
	q.inFlight = true
	q.setStatusLocked(StatusSyncing)
	q.mu.Unlock()

	go q.send(ops)
}

func (q *Queue) send(ops []batch.Operation) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	res, err := q.transport.SyncBatch(ctx, ops)

	q.mu.Lock()
	q.inFlight = false

	if err != nil {
		// The batch never reached the server; put it back in front of
		// anything enqueued meanwhile so order is preserved.
		q.pending = append(ops, q.pending...)
		if errors.Is(err, ErrUnauthenticated) {
			q.setStatusLocked(StatusError)
		} else {
			q.setStatusLocked(StatusOffline)
			q.scheduleRetryLocked()
		}
		q.mu.Unlock()
		log.Warn().Err(err).Int("ops", len(ops)).Msg("sync batch failed")
		return
	}

	if len(res.Errors) > 0 {
		q.setStatusLocked(StatusError)
	} else {
		q.setStatusLocked(StatusSynced)
		q.holdSyncedLocked()
	}
	more := len(q.pending) > 0
	q.mu.Unlock()

	if len(res.Conflicts) > 0 && q.opts.OnConflict != nil {
		q.opts.OnConflict(res.Conflicts)
	}
	if len(res.Errors) > 0 && q.opts.OnOpError != nil {
		q.opts.OnOpError(res.Errors)
	}
	if more {
		q.Flush()
	}
}

// SetOnline flips connectivity. Coming back online drains the offline
// store into the pending queue and flushes.
func (q *Queue) SetOnline(online bool) {
	q.mu.Lock()
	was := q.online
	q.online = online

	if !online {
		q.setStatusLocked(StatusOffline)
		q.mu.Unlock()
		return
	}
	if !was && q.opts.Offline != nil {
		saved, err := q.opts.Offline.Drain()
		if err != nil {
			log.Warn().Err(err).Msg("offline drain")
		} else {
			q.pending = append(saved, q.pending...)
		}
	}
	if q.status == StatusOffline {
		q.setStatusLocked(StatusIdle)
	}
	q.mu.Unlock()

	q.Flush()
}

// Pending reports how many operations are queued or in flight. The
// reconciliation poller defers while this is non-zero.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.pending)
	if q.inFlight {
		n++
	}
	return n
}

func (q *Queue) Status() Status {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.status
}

// Close stops the queue's timers. Pending operations are not flushed.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, t := range []*time.Timer{q.debounceTimer, q.syncedTimer, q.retryTimer} {
		if t != nil {
			t.Stop()
		}
	}
}

func (q *Queue) restartDebounceLocked() {
	if q.debounceTimer != nil {
		q.debounceTimer.Stop()
	}
	q.debounceTimer = time.AfterFunc(q.opts.Debounce, q.Flush)
}

func (q *Queue) scheduleRetryLocked() {
	if q.retryTimer != nil {
		q.retryTimer.Stop()
	}
	q.retryTimer = time.AfterFunc(q.opts.RetryAfter, q.Flush)
}

// holdSyncedLocked shows "synced" briefly, then settles back to idle
// unless something else moved the status meanwhile.
func (q *Queue) holdSyncedLocked() {
	if q.syncedTimer != nil {
		q.syncedTimer.Stop()
	}
	q.syncedTimer = time.AfterFunc(q.opts.SyncedHold, func() {
		q.mu.Lock()
		if q.status == StatusSynced {
			q.setStatusLocked(StatusIdle)
		}
		q.mu.Unlock()
	})
}

func (q *Queue) setStatusLocked(s Status) {
	if q.status == s {
		return
	}
	q.status = s
	if q.opts.OnStatus != nil {
		go q.opts.OnStatus(s)
	}
}
