package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Shape is standalone geometry on a board (rectangle, circle, ...).
// Append-only server-side, like connections.
type Shape struct {
	ID          uuid.UUID  `json:"id"`
	BoardID     uuid.UUID  `json:"boardId"`
	Type        string     `json:"type"`
	Position    Point      `json:"position"`
	Size        Dimensions `json:"size"`
	Color       string     `json:"color"`
	StrokeWidth int        `json:"width"`
	Fill        bool       `json:"fill"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	DeletedAt   *time.Time `json:"deletedAt,omitempty"`
}

type ShapeRepository interface {
	Create(ctx context.Context, s *Shape) error
	ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*Shape, error)
}
