package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Board is a shared canvas document. Cards, Connections and Shapes are
// populated only on denormalized reads (full board fetch); they are nil
// on row-level reads.
type Board struct {
	ID              uuid.UUID     `json:"id"`
	UserID          uuid.UUID     `json:"userId"`
	Name            string        `json:"name"`
	BackgroundColor string        `json:"backgroundColor"`
	Version         int           `json:"version"`
	Cards           []*Card       `json:"cards,omitempty"`
	Connections     []*Connection `json:"connections,omitempty"`
	Shapes          []*Shape      `json:"shapes,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
	DeletedAt       *time.Time    `json:"deletedAt,omitempty"`
}

type BoardRepository interface {
	Create(ctx context.Context, b *Board) error
	// GetByID returns the board row, excluding soft-deleted boards.
	GetByID(ctx context.Context, id uuid.UUID) (*Board, error)
	// Exists reports whether a row with this id was ever created,
	// including soft-deleted ones. Used for create-conflict detection.
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	// Update applies name/background changes with a compare-and-swap on
	// expectedVersion, bumping version and updated_at. Returns
	// ErrConflict when the stored version moved, ErrNotFound when the
	// board is absent.
	Update(ctx context.Context, b *Board, expectedVersion int) error
	// SoftDelete marks the board deleted and bumps its version.
	SoftDelete(ctx context.Context, id uuid.UUID) error
	// Touch advances updated_at without changing the version, so pollers
	// see the board as freshly modified after card-level edits.
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error
	ListByOwner(ctx context.Context, userID uuid.UUID) ([]*Board, error)
}
