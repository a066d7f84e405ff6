package ws

import (
	"context"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/katachi/katachi/internal/realtime"
	redisstore "github.com/katachi/katachi/internal/store/redis"
)

// Session is one client connection. It joins at most one board's
// fan-out channel at a time: unjoined -> joined(boardID), and joining
// another board tears the previous subscription down first.
type Session struct {
	conn       *websocket.Conn
	subscriber Subscriber
	presence   *realtime.PresenceService

	peerID   uuid.UUID
	userID   uuid.UUID
	userName string

	boardID   uuid.UUID // uuid.Nil while unjoined
	subCancel context.CancelFunc

	out chan []byte
}

func newSession(conn *websocket.Conn, subscriber Subscriber, presence *realtime.PresenceService, peerID, userID uuid.UUID, userName string) *Session {
	return &Session{
		conn:       conn,
		subscriber: subscriber,
		presence:   presence,
		peerID:     peerID,
		userID:     userID,
		userName:   userName,
		out:        make(chan []byte, 64),
	}
}

// run drives the session: one writer goroutine draining s.out, the
// calling goroutine reading frames. Returns when the connection drops
// or ctx is cancelled; cleanup of subscription and presence happens on
// the way out.
func (s *Session) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer s.teardown()

	go s.writeLoop(ctx)

	s.send(encodeServerMessage(ServerMessage{Type: MsgConnected, PeerID: s.peerID.String()}))

	for {
		_, raw, err := s.conn.Read(ctx)
		if err != nil {
			log.Debug().Err(err).Str("peer_id", s.peerID.String()).Msg("websocket read")
			return
		}

		msg, err := ParseClientMessage(raw)
		if err != nil {
			s.send(encodeServerMessage(ServerMessage{Type: MsgError, Message: err.Error()}))
			continue
		}

		switch msg.Type {
		case MsgJoinBoard:
			s.handleJoin(ctx, msg)
		case MsgLeaveBoard:
			s.handleLeave(ctx)
		case MsgPing:
			s.send(encodeServerMessage(ServerMessage{Type: MsgPong, Timestamp: time.Now().UnixMilli()}))
		case MsgPresenceUpdate:
			s.handlePresence(ctx, msg)
		}
	}
}

func (s *Session) writeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-s.out:
			if !ok {
				return
			}
			if err := s.conn.Write(ctx, websocket.MessageText, raw); err != nil {
				log.Debug().Err(err).Str("peer_id", s.peerID.String()).Msg("websocket write")
				return
			}
		}
	}
}

// send enqueues a frame, dropping it when the writer is backed up. A
// slow consumer loses notification hints, never durable state.
func (s *Session) send(raw []byte) {
	select {
	case s.out <- raw:
	default:
		log.Warn().Str("peer_id", s.peerID.String()).Msg("websocket send buffer full, dropping frame")
	}
}

func (s *Session) handleJoin(ctx context.Context, msg *ClientMessage) {
	// One board per session: leaving the old one is part of joining.
	if s.subCancel != nil {
		s.leaveBoard(ctx)
	}

	subCtx, cancel := context.WithCancel(ctx)
	messages, cleanup, err := s.subscriber.Subscribe(subCtx, redisstore.BoardChannel(msg.BoardID))
	if err != nil {
		cancel()
		log.Error().Err(err).Str("board_id", msg.BoardID.String()).Msg("websocket subscribe")
		s.send(encodeServerMessage(ServerMessage{Type: MsgError, Message: "failed to join board"}))
		return
	}

	s.boardID = msg.BoardID
	s.subCancel = func() {
		cancel()
		cleanup()
	}

	go s.forwardEvents(messages)

	boardID := msg.BoardID
	s.send(encodeServerMessage(ServerMessage{Type: MsgBoardJoined, BoardID: &boardID}))
}

// forwardEvents pumps board-channel events to the client, suppressing
// the client's own: the originator already holds the authoritative
// local copy.
func (s *Session) forwardEvents(messages <-chan []byte) {
	for raw := range messages {
		event, err := realtime.DecodeEvent(raw)
		if err != nil {
			log.Warn().Err(err).Msg("websocket: undecodable fan-out event")
			continue
		}
		if event.UserID == s.userID {
			continue
		}
		s.send(raw)
	}
}

func (s *Session) handleLeave(ctx context.Context) {
	s.leaveBoard(ctx)
	s.send(encodeServerMessage(ServerMessage{Type: MsgBoardLeft}))
}

func (s *Session) handlePresence(ctx context.Context, msg *ClientMessage) {
	if err := s.presence.Update(ctx, s.userID, s.userName, msg.BoardID, msg.CursorX, msg.CursorY); err != nil {
		log.Warn().Err(err).Str("board_id", msg.BoardID.String()).Msg("websocket presence update")
	}
}

// leaveBoard cancels the subscription and removes the presence record
// for the currently joined board, if any.
func (s *Session) leaveBoard(ctx context.Context) {
	if s.subCancel != nil {
		s.subCancel()
		s.subCancel = nil
	}
	if s.boardID != uuid.Nil {
		if err := s.presence.Remove(ctx, s.userID, s.boardID); err != nil {
			log.Warn().Err(err).Str("board_id", s.boardID.String()).Msg("websocket presence remove")
		}
		s.boardID = uuid.Nil
	}
}

// teardown runs on disconnect. Uses a fresh context because the
// session's own context is already cancelled by then.
func (s *Session) teardown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.leaveBoard(ctx)
}
