package client

import (
	"context"
	stdsync "sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/katachi/katachi/internal/domain"
)

const defaultPollInterval = 5 * time.Second

// BoardCache is the client's local copy of every visible board, keyed
// by id. The poller reconciles it against the server; the UI reads it.
type BoardCache struct {
	mu     stdsync.RWMutex
	boards map[uuid.UUID]*domain.Board
}

func NewBoardCache() *BoardCache {
	return &BoardCache{boards: make(map[uuid.UUID]*domain.Board)}
}

func (c *BoardCache) Get(id uuid.UUID) (*domain.Board, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.boards[id]
	return b, ok
}

func (c *BoardCache) Put(b *domain.Board) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.boards[b.ID] = b
}

func (c *BoardCache) Remove(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.boards, id)
}

func (c *BoardCache) All() []*domain.Board {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*domain.Board, 0, len(c.boards))
	for _, b := range c.boards {
		out = append(out, b)
	}
	return out
}

// replaceAll swaps the full board set, keeping only server-known ids.
func (c *BoardCache) replaceAll(boards map[uuid.UUID]*domain.Board) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.boards = boards
}

// ConnectionState reports whether realtime delivery is up.
// *Connector satisfies it.
type ConnectionState interface {
	Connected() bool
}

// PendingCounter reports how many local operations have not shipped.
// *Queue satisfies it.
type PendingCounter interface {
	Pending() int
}

// Poller reconciles the local cache against the server on a fixed tick.
// It is the fallback path: while the websocket is connected, realtime
// events keep the cache fresh and polling would only cause churn, so
// ticks are skipped. Ticks are also deferred while local operations are
// queued, so a poll never clobbers an edit that has not shipped yet.
type Poller struct {
	api      API
	cache    *BoardCache
	queue    PendingCounter
	conn     ConnectionState
	selfID   uuid.UUID
	viewedID func() uuid.UUID
	interval time.Duration
}

// NewPoller builds a poller. viewedID reports which board the user is
// looking at right now (uuid.Nil for none); conn may be nil when the
// client runs without a websocket.
func NewPoller(api API, cache *BoardCache, queue PendingCounter, conn ConnectionState, selfID uuid.UUID, viewedID func() uuid.UUID, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Poller{
		api:      api,
		cache:    cache,
		queue:    queue,
		conn:     conn,
		selfID:   selfID,
		viewedID: viewedID,
		interval: interval,
	}
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	if p.conn != nil && p.conn.Connected() {
		return
	}
	if p.queue.Pending() > 0 {
		return
	}

	boards, err := p.api.ListBoards(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("reconciliation poll failed")
		return
	}

	p.merge(boards)
}

// merge folds the server's board set into the cache. The board being
// viewed gets careful treatment: an owned board keeps whichever copy
// was modified last, a shared board always takes the server copy since
// someone else is the authority on it. Boards not on screen are simply
// replaced, and boards the server no longer returns are dropped.
func (p *Poller) merge(server []*domain.Board) {
	viewed := p.viewedID()
	next := make(map[uuid.UUID]*domain.Board, len(server))

	for _, sb := range server {
		if sb.ID != viewed {
			next[sb.ID] = sb
			continue
		}

		local, ok := p.cache.Get(sb.ID)
		if !ok {
			next[sb.ID] = sb
			continue
		}

		owned := sb.UserID == p.selfID
		if owned && local.UpdatedAt.After(sb.UpdatedAt) {
			next[sb.ID] = local
		} else {
			next[sb.ID] = sb
		}
	}

	p.cache.replaceAll(next)
}
