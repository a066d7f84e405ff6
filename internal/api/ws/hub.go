package ws

import (
	"context"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/katachi/katachi/internal/realtime"
	"github.com/katachi/katachi/internal/server/middleware"
)

// Subscriber is the fan-out subscription half of the transport.
// *redis.PubSub satisfies it.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error)
}

// Hub accepts websocket connections and hands each one a Session bound
// to the authenticated user. There is no process-wide connection
// registry: all per-connection state lives on the Session and dies with
// its context.
type Hub struct {
	subscriber Subscriber
	presence   *realtime.PresenceService
}

func NewHub(subscriber Subscriber, presence *realtime.PresenceService) *Hub {
	return &Hub{subscriber: subscriber, presence: presence}
}

// ServeCanvas upgrades the request and runs the session until the client
// goes away.
func (h *Hub) ServeCanvas(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing user", http.StatusUnauthorized)
		return
	}
	userName, _ := middleware.UserNameFromContext(r.Context())

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	session := newSession(conn, h.subscriber, h.presence, uuid.New(), userID, userName)
	session.run(r.Context())
}
