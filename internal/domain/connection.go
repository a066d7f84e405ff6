package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Connection is a line between two cards on the same board. Connections
// are append-only server-side: the sync protocol supports create, never
// update or delete.
type Connection struct {
	ID         uuid.UUID  `json:"id"`
	BoardID    uuid.UUID  `json:"boardId"`
	FromCardID uuid.UUID  `json:"fromCardId"`
	ToCardID   uuid.UUID  `json:"toCardId"`
	Color      string     `json:"color"`
	Width      int        `json:"width"`
	Style      string     `json:"style"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	DeletedAt  *time.Time `json:"deletedAt,omitempty"`
}

type ConnectionRepository interface {
	Create(ctx context.Context, c *Connection) error
	ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*Connection, error)
}
