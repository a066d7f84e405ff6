package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	stdsync "sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	initialBackoff    = time.Second
	maxBackoff        = 30 * time.Second
	heartbeatInterval = 30 * time.Second
	outboundBuffer    = 64
)

// Handler receives one decoded inbound frame of a registered type.
type Handler func(raw json.RawMessage)

// Connector maintains one websocket connection to the server, redialing
// with doubling backoff when it drops. Inbound frames are dispatched to
// handlers registered per message type; outbound frames are queued and
// dropped when no connection is up.
type Connector struct {
	url   string
	token string

	mu       stdsync.Mutex
	handlers map[string]Handler
	boardID  uuid.UUID // rejoined after reconnect; Nil while unjoined

	out       chan []byte
	connected atomic.Bool

	// OnConnected fires after each successful (re)dial, OnDisconnected
	// after each drop. The queue's SetOnline hangs off these.
	OnConnected    func()
	OnDisconnected func()

	// redialWait overrides the delay between dial attempts in tests.
	// nil means time.After.
	redialWait func(d time.Duration) <-chan time.Time
}

func NewConnector(url, token string) *Connector {
	return &Connector{
		url:      url,
		token:    token,
		handlers: make(map[string]Handler),
		out:      make(chan []byte, outboundBuffer),
	}
}

// Connected reports whether a connection is currently up. The
// reconciliation poller skips its tick while this is true.
func (c *Connector) Connected() bool {
	return c.connected.Load()
}

// Handle registers a handler for one inbound message type. Frames of
// unregistered types are dropped with a debug log.
func (c *Connector) Handle(msgType string, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[msgType] = h
}

// Run dials and re-dials until ctx is cancelled. Backoff starts at one
// second, doubles per failed attempt and caps at thirty; a successful
// connection resets it.
func (c *Connector) Run(ctx context.Context) {
	backoff := initialBackoff
	for {
		established, err := c.runOnce(ctx)
		if established {
			// The dial went through, so the doubling starts over at the
			// base: a drop after a healthy connection redials promptly.
			backoff = initialBackoff
		}
		if err != nil {
			log.Warn().Err(err).Dur("retry_in", backoff).Msg("websocket connection lost")
		}
		if ctx.Err() != nil {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-c.wait(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

func (c *Connector) wait(d time.Duration) <-chan time.Time {
	if c.redialWait != nil {
		return c.redialWait(d)
	}
	return time.After(d)
}

// runOnce reports whether a connection was actually established so Run
// can tell a failed dial apart from a drop after a healthy connection.
func (c *Connector) runOnce(ctx context.Context) (bool, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	conn, _, err := websocket.Dial(dialCtx, c.url, &websocket.DialOptions{
		HTTPHeader: http.Header{"Authorization": []string{"Bearer " + c.token}},
	})
	cancel()
	if err != nil {
		return false, fmt.Errorf("dial: %w", err)
	}
	defer conn.CloseNow()

	c.connected.Store(true)
	defer func() {
		c.connected.Store(false)
		if c.OnDisconnected != nil {
			c.OnDisconnected()
		}
	}()
	if c.OnConnected != nil {
		c.OnConnected()
	}

	// Rejoin the board we were on before the drop.
	c.mu.Lock()
	board := c.boardID
	c.mu.Unlock()
	if board != uuid.Nil {
		c.enqueue(map[string]any{"type": "join_board", "boardId": board})
	}

	connCtx, cancelConn := context.WithCancel(ctx)
	defer cancelConn()

	// Writer: outbound queue plus periodic heartbeat.
	go func() {
		ticker := time.NewTicker(heartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-connCtx.Done():
				return
			case frame := <-c.out:
				if err := conn.Write(connCtx, websocket.MessageText, frame); err != nil {
					cancelConn()
					return
				}
			case <-ticker.C:
				if err := conn.Write(connCtx, websocket.MessageText, []byte(`{"type":"ping"}`)); err != nil {
					cancelConn()
					return
				}
			}
		}
	}()

	for {
		_, raw, err := conn.Read(connCtx)
		if err != nil {
			return true, fmt.Errorf("read: %w", err)
		}
		c.dispatch(raw)
	}
}

// JoinBoard subscribes to a board's realtime events. The subscription
// is re-established automatically after a reconnect.
func (c *Connector) JoinBoard(boardID uuid.UUID) {
	c.mu.Lock()
	c.boardID = boardID
	c.mu.Unlock()
	c.enqueue(map[string]any{"type": "join_board", "boardId": boardID})
}

// LeaveBoard unsubscribes from the current board.
func (c *Connector) LeaveBoard() {
	c.mu.Lock()
	c.boardID = uuid.Nil
	c.mu.Unlock()
	c.enqueue(map[string]any{"type": "leave_board"})
}

// SendPresence reports the local cursor position to everyone else on
// the board.
func (c *Connector) SendPresence(boardID uuid.UUID, cursorX, cursorY int) {
	c.enqueue(map[string]any{
		"type":    "presence_update",
		"boardId": boardID,
		"cursorX": cursorX,
		"cursorY": cursorY,
	})
}

func (c *Connector) enqueue(v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("encode outbound frame")
		return
	}
	select {
	case c.out <- raw:
	default:
		// Queue full; the connection is stalled or down. Drop rather
		// than block the caller.
		log.Debug().Msg("outbound frame dropped")
	}
}

func (c *Connector) dispatch(raw []byte) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		log.Debug().Err(err).Msg("malformed inbound frame")
		return
	}

	c.mu.Lock()
	h := c.handlers[envelope.Type]
	c.mu.Unlock()

	if h == nil {
		log.Debug().Str("type", envelope.Type).Msg("unhandled inbound frame")
		return
	}
	h(raw)
}
