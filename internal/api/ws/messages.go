package ws

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Client-to-server message kinds. The envelope is closed: anything
// outside this set is rejected with an error frame, never silently
// dropped.
const (
	MsgJoinBoard      = "join_board"
	MsgLeaveBoard     = "leave_board"
	MsgPing           = "ping"
	MsgPresenceUpdate = "presence_update"
)

// Server-to-client message kinds.
const (
	MsgConnected   = "connected"
	MsgBoardJoined = "board_joined"
	MsgBoardLeft   = "board_left"
	MsgPong        = "pong"
	MsgError       = "error"
)

// ClientMessage is the inbound frame envelope, discriminated by Type.
type ClientMessage struct {
	Type     string    `json:"type"`
	BoardID  uuid.UUID `json:"boardId,omitempty"`
	UserID   uuid.UUID `json:"userId,omitempty"`
	UserName string    `json:"userName,omitempty"`
	CursorX  int       `json:"cursorX,omitempty"`
	CursorY  int       `json:"cursorY,omitempty"`
}

// ParseClientMessage decodes and validates an inbound frame. Unknown
// kinds and kind-specific missing fields are errors.
func ParseClientMessage(raw []byte) (*ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("malformed message: %w", err)
	}

	switch msg.Type {
	case MsgJoinBoard, MsgPresenceUpdate:
		if msg.BoardID == uuid.Nil {
			return nil, fmt.Errorf("%s: boardId required", msg.Type)
		}
	case MsgLeaveBoard, MsgPing:
		// No required fields.
	default:
		return nil, fmt.Errorf("unknown message type %q", msg.Type)
	}

	return &msg, nil
}

// ServerMessage is the outbound control-frame envelope. Fan-out events
// (card_created and friends) bypass it: they are forwarded verbatim from
// the board channel.
type ServerMessage struct {
	Type      string     `json:"type"`
	PeerID    string     `json:"peerId,omitempty"`
	BoardID   *uuid.UUID `json:"boardId,omitempty"`
	Timestamp int64      `json:"timestamp,omitempty"`
	Message   string     `json:"message,omitempty"`
}

func encodeServerMessage(msg ServerMessage) []byte {
	raw, err := json.Marshal(msg)
	if err != nil {
		// Envelope fields are all marshalable; this cannot fail at runtime.
		panic(fmt.Sprintf("ws: encode server message: %v", err))
	}
	return raw
}
