package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Permission is a caller's access level on a board, resolved from
// ownership plus board_shares.
type Permission string

const (
	PermissionOwner Permission = "owner"
	PermissionAdmin Permission = "admin"
	PermissionEdit  Permission = "edit"
	PermissionView  Permission = "view"
	PermissionNone  Permission = "none"
)

// CanEdit reports whether this permission level allows mutations.
// Viewers and non-members may not mutate.
func (p Permission) CanEdit() bool {
	switch p {
	case PermissionOwner, PermissionAdmin, PermissionEdit:
		return true
	default:
		return false
	}
}

// ValidSharePermission reports whether p can be granted through a share.
// Ownership is never granted, only implied by the board row.
func ValidSharePermission(p Permission) bool {
	return p == PermissionAdmin || p == PermissionEdit || p == PermissionView
}

// BoardShare grants a non-owner user a permission level on a board.
// Absence of a share plus non-ownership implies no access.
type BoardShare struct {
	ID         uuid.UUID  `json:"id"`
	BoardID    uuid.UUID  `json:"boardId"`
	UserID     uuid.UUID  `json:"userId"`
	Permission Permission `json:"permission"`
	InvitedBy  uuid.UUID  `json:"invitedBy"`
	CreatedAt  time.Time  `json:"createdAt"`
}

type ShareRepository interface {
	// Get returns the share for (boardID, userID), ErrNotFound when none.
	Get(ctx context.Context, boardID, userID uuid.UUID) (*BoardShare, error)
	// Upsert creates the share or updates the permission of an existing one.
	Upsert(ctx context.Context, s *BoardShare) error
	Delete(ctx context.Context, boardID, userID uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*BoardShare, error)
}
