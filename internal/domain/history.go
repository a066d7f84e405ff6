package domain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// HistoryOp is the mutation kind recorded with a snapshot.
type HistoryOp string

const (
	HistoryOpCreate HistoryOp = "create"
	HistoryOpUpdate HistoryOp = "update"
	HistoryOpDelete HistoryOp = "delete"
)

// CardHistory is one append-only snapshot of a card mutation, keyed by
// card id + version. Rows are never mutated.
type CardHistory struct {
	ID        uuid.UUID       `json:"id"`
	CardID    uuid.UUID       `json:"cardId"`
	BoardID   uuid.UUID       `json:"boardId"`
	UserID    uuid.UUID       `json:"userId"`
	Version   int             `json:"version"`
	Snapshot  json.RawMessage `json:"snapshot"`
	Operation HistoryOp       `json:"operation"`
	CreatedAt time.Time       `json:"createdAt"`
}

// BoardHistory is the board-level counterpart of CardHistory.
type BoardHistory struct {
	ID        uuid.UUID       `json:"id"`
	BoardID   uuid.UUID       `json:"boardId"`
	UserID    uuid.UUID       `json:"userId"`
	Version   int             `json:"version"`
	Snapshot  json.RawMessage `json:"snapshot"`
	Operation HistoryOp       `json:"operation"`
	CreatedAt time.Time       `json:"createdAt"`
}

type HistoryRepository interface {
	AppendCard(ctx context.Context, h *CardHistory) error
	AppendBoard(ctx context.Context, h *BoardHistory) error
	ListByBoard(ctx context.Context, boardID uuid.UUID, limit int) ([]*BoardHistory, error)
	ListByCard(ctx context.Context, cardID uuid.UUID, limit int) ([]*CardHistory, error)
}
