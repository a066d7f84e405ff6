package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Presence is a coarse per-user cursor record on a board. Rows are
// ephemeral: removed on leave/disconnect and swept when stale.
type Presence struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"userId"`
	BoardID    uuid.UUID `json:"boardId"`
	CursorX    int       `json:"cursorX"`
	CursorY    int       `json:"cursorY"`
	Color      string    `json:"color"`
	LastSeenAt time.Time `json:"lastSeenAt"`
}

type PresenceRepository interface {
	// Upsert inserts or refreshes the (userID, boardID) row, preserving
	// the color assigned on first insert. Returns the stored record.
	Upsert(ctx context.Context, p *Presence) (*Presence, error)
	Remove(ctx context.Context, userID, boardID uuid.UUID) error
	ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*Presence, error)
	// DeleteStale removes rows not seen since the cutoff.
	DeleteStale(ctx context.Context, cutoff time.Time) (int64, error)
}
