package v1

import (
	"context"

	"github.com/google/uuid"

	"github.com/katachi/katachi/internal/domain"
	"github.com/katachi/katachi/internal/sync"
)

// DataStore abstracts the repository accessor pattern for handler testing.
// *postgres.Store satisfies this interface.
type DataStore interface {
	Boards() domain.BoardRepository
	Cards() domain.CardRepository
	Connections() domain.ConnectionRepository
	Shapes() domain.ShapeRepository
	Shares() domain.ShareRepository
	History() domain.HistoryRepository
	Users() domain.UserRepository
}

// SyncService abstracts batch processing for handler testing.
// *sync.Service satisfies this interface.
type SyncService interface {
	ProcessBatch(ctx context.Context, userID uuid.UUID, ops []sync.Operation) (*sync.Result, error)
}

// SharingService abstracts permission resolution and share management
// for handler testing. *sharing.Service satisfies this interface.
type SharingService interface {
	Resolve(ctx context.Context, userID, boardID uuid.UUID) (domain.Permission, error)
	Share(ctx context.Context, boardID, ownerID uuid.UUID, targetEmail string, perm domain.Permission) (*domain.BoardShare, error)
	Revoke(ctx context.Context, boardID, ownerID, userID uuid.UUID) error
	SharedWith(ctx context.Context, userID uuid.UUID) ([]*domain.BoardShare, error)
}
