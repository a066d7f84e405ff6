// Package realtime defines the fan-out event envelope shared by the
// sync engine (publisher side) and the websocket sessions (subscriber
// side), plus coarse presence tracking.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Event kinds fanned out on a board channel.
const (
	EventCardCreated  = "card_created"
	EventCardUpdated  = "card_updated"
	EventCardDeleted  = "card_deleted"
	EventBoardUpdated = "board_updated"
	EventPresence     = "presence"
	EventPresenceLeft = "presence_left"
)

// Event is the closed fan-out envelope published to a board channel.
// UserID is the originator; sessions use it to suppress self-echo.
// Fan-out is a notification hint, never the source of truth: the store
// decides final state regardless of delivery order.
type Event struct {
	Type    string          `json:"type"`
	BoardID uuid.UUID       `json:"boardId"`
	CardID  *uuid.UUID      `json:"cardId,omitempty"`
	UserID  uuid.UUID       `json:"userId"`
	Data    json.RawMessage `json:"data,omitempty"`

	// Presence fields, set only on presence events.
	UserName string `json:"userName,omitempty"`
	CursorX  int    `json:"cursorX,omitempty"`
	CursorY  int    `json:"cursorY,omitempty"`
	Color    string `json:"color,omitempty"`
}

// Publisher is the transport half of fan-out. *redis.PubSub satisfies it.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Encode marshals an event for the wire.
func (e *Event) Encode() ([]byte, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("realtime.Event.Encode: %w", err)
	}
	return raw, nil
}

// DecodeEvent parses a fan-out payload back into an Event.
func DecodeEvent(raw []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("realtime.DecodeEvent: %w", err)
	}
	return &e, nil
}
