// Package sharing resolves a caller's permission on a board and manages
// board shares. Owners come from the board row itself; everyone else's
// access is a board_shares record or nothing.
package sharing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/katachi/katachi/internal/domain"
)

type Service struct {
	boards domain.BoardRepository
	shares domain.ShareRepository
	users  domain.UserRepository
}

func NewService(boards domain.BoardRepository, shares domain.ShareRepository, users domain.UserRepository) *Service {
	return &Service{boards: boards, shares: shares, users: users}
}

// Resolve returns the caller's permission on a board. A missing board
// resolves to PermissionNone rather than an error so callers get one
// uniform "may not touch this" answer.
func (s *Service) Resolve(ctx context.Context, userID, boardID uuid.UUID) (domain.Permission, error) {
	board, err := s.boards.GetByID(ctx, boardID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.PermissionNone, nil
		}
		return domain.PermissionNone, fmt.Errorf("sharing.Resolve: %w", err)
	}

	if board.UserID == userID {
		return domain.PermissionOwner, nil
	}

	share, err := s.shares.Get(ctx, boardID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.PermissionNone, nil
		}
		return domain.PermissionNone, fmt.Errorf("sharing.Resolve: %w", err)
	}

	return share.Permission, nil
}

// Share grants targetEmail's user a permission level on the board. Only
// the board owner may share. Sharing twice updates the permission.
func (s *Service) Share(ctx context.Context, boardID, ownerID uuid.UUID, targetEmail string, perm domain.Permission) (*domain.BoardShare, error) {
	if !domain.ValidSharePermission(perm) {
		return nil, fmt.Errorf("sharing.Share: invalid permission %q: %w", perm, domain.ErrForbidden)
	}

	board, err := s.boards.GetByID(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("sharing.Share: %w", err)
	}
	if board.UserID != ownerID {
		return nil, fmt.Errorf("sharing.Share: not the board owner: %w", domain.ErrForbidden)
	}

	target, err := s.users.GetByEmail(ctx, targetEmail)
	if err != nil {
		return nil, fmt.Errorf("sharing.Share: target user: %w", err)
	}

	share := &domain.BoardShare{
		ID:         uuid.New(),
		BoardID:    boardID,
		UserID:     target.ID,
		Permission: perm,
		InvitedBy:  ownerID,
		CreatedAt:  time.Now(),
	}
	if err := s.shares.Upsert(ctx, share); err != nil {
		return nil, fmt.Errorf("sharing.Share: %w", err)
	}

	return share, nil
}

// Revoke removes a user's share. Owner-gated like Share.
func (s *Service) Revoke(ctx context.Context, boardID, ownerID, userID uuid.UUID) error {
	board, err := s.boards.GetByID(ctx, boardID)
	if err != nil {
		return fmt.Errorf("sharing.Revoke: %w", err)
	}
	if board.UserID != ownerID {
		return fmt.Errorf("sharing.Revoke: not the board owner: %w", domain.ErrForbidden)
	}

	if err := s.shares.Delete(ctx, boardID, userID); err != nil {
		return fmt.Errorf("sharing.Revoke: %w", err)
	}

	return nil
}

// SharedWith lists the shares granting userID access to other owners'
// boards.
func (s *Service) SharedWith(ctx context.Context, userID uuid.UUID) ([]*domain.BoardShare, error) {
	shares, err := s.shares.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("sharing.SharedWith: %w", err)
	}

	return shares, nil
}
