package v1_test

import (
	"context"

	"github.com/google/uuid"

	"github.com/katachi/katachi/internal/domain"
	"github.com/katachi/katachi/internal/server/middleware"
	"github.com/katachi/katachi/internal/sync"
)

// ---------------------------------------------------------------------------
// Context helpers — inject the authenticated user for DoCtx
// ---------------------------------------------------------------------------

func userCtx(userID uuid.UUID) context.Context {
	ctx := context.Background()
	ctx = context.WithValue(ctx, middleware.ContextKeyUserID, userID)
	ctx = context.WithValue(ctx, middleware.ContextKeyUserName, "tester")
	return ctx
}

// ---------------------------------------------------------------------------
// Mock DataStore
// ---------------------------------------------------------------------------

type mockDataStore struct {
	boards      domain.BoardRepository
	cards       domain.CardRepository
	connections domain.ConnectionRepository
	shapes      domain.ShapeRepository
	shares      domain.ShareRepository
	history     domain.HistoryRepository
	users       domain.UserRepository
}

func (m *mockDataStore) Boards() domain.BoardRepository           { return m.boards }
func (m *mockDataStore) Cards() domain.CardRepository             { return m.cards }
func (m *mockDataStore) Connections() domain.ConnectionRepository { return m.connections }
func (m *mockDataStore) Shapes() domain.ShapeRepository           { return m.shapes }
func (m *mockDataStore) Shares() domain.ShareRepository           { return m.shares }
func (m *mockDataStore) History() domain.HistoryRepository        { return m.history }
func (m *mockDataStore) Users() domain.UserRepository             { return m.users }

// ---------------------------------------------------------------------------
// Mock repositories — interface embedding keeps the unused surface quiet
// ---------------------------------------------------------------------------

type mockBoardRepo struct {
	domain.BoardRepository
	getByIDFunc     func(ctx context.Context, id uuid.UUID) (*domain.Board, error)
	listByOwnerFunc func(ctx context.Context, userID uuid.UUID) ([]*domain.Board, error)
}

func (m *mockBoardRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Board, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockBoardRepo) ListByOwner(ctx context.Context, userID uuid.UUID) ([]*domain.Board, error) {
	return m.listByOwnerFunc(ctx, userID)
}

type mockCardRepo struct {
	domain.CardRepository
	getByIDFunc     func(ctx context.Context, id uuid.UUID) (*domain.Card, error)
	listByBoardFunc func(ctx context.Context, boardID uuid.UUID) ([]*domain.Card, error)
}

func (m *mockCardRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockCardRepo) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*domain.Card, error) {
	return m.listByBoardFunc(ctx, boardID)
}

type mockConnectionRepo struct {
	domain.ConnectionRepository
	listByBoardFunc func(ctx context.Context, boardID uuid.UUID) ([]*domain.Connection, error)
}

func (m *mockConnectionRepo) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*domain.Connection, error) {
	return m.listByBoardFunc(ctx, boardID)
}

type mockShapeRepo struct {
	domain.ShapeRepository
	listByBoardFunc func(ctx context.Context, boardID uuid.UUID) ([]*domain.Shape, error)
}

func (m *mockShapeRepo) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*domain.Shape, error) {
	return m.listByBoardFunc(ctx, boardID)
}

type mockHistoryRepo struct {
	domain.HistoryRepository
	listByBoardFunc func(ctx context.Context, boardID uuid.UUID, limit int) ([]*domain.BoardHistory, error)
	listByCardFunc  func(ctx context.Context, cardID uuid.UUID, limit int) ([]*domain.CardHistory, error)
}

func (m *mockHistoryRepo) ListByBoard(ctx context.Context, boardID uuid.UUID, limit int) ([]*domain.BoardHistory, error) {
	return m.listByBoardFunc(ctx, boardID, limit)
}

func (m *mockHistoryRepo) ListByCard(ctx context.Context, cardID uuid.UUID, limit int) ([]*domain.CardHistory, error) {
	return m.listByCardFunc(ctx, cardID, limit)
}

// ---------------------------------------------------------------------------
// Mock services
// ---------------------------------------------------------------------------

type mockSyncService struct {
	processBatchFunc func(ctx context.Context, userID uuid.UUID, ops []sync.Operation) (*sync.Result, error)
}

func (m *mockSyncService) ProcessBatch(ctx context.Context, userID uuid.UUID, ops []sync.Operation) (*sync.Result, error) {
	return m.processBatchFunc(ctx, userID, ops)
}

type mockSharingService struct {
	resolveFunc    func(ctx context.Context, userID, boardID uuid.UUID) (domain.Permission, error)
	shareFunc      func(ctx context.Context, boardID, ownerID uuid.UUID, targetEmail string, perm domain.Permission) (*domain.BoardShare, error)
	revokeFunc     func(ctx context.Context, boardID, ownerID, userID uuid.UUID) error
	sharedWithFunc func(ctx context.Context, userID uuid.UUID) ([]*domain.BoardShare, error)
}

func (m *mockSharingService) Resolve(ctx context.Context, userID, boardID uuid.UUID) (domain.Permission, error) {
	return m.resolveFunc(ctx, userID, boardID)
}

func (m *mockSharingService) Share(ctx context.Context, boardID, ownerID uuid.UUID, targetEmail string, perm domain.Permission) (*domain.BoardShare, error) {
	return m.shareFunc(ctx, boardID, ownerID, targetEmail, perm)
}

func (m *mockSharingService) Revoke(ctx context.Context, boardID, ownerID, userID uuid.UUID) error {
	return m.revokeFunc(ctx, boardID, ownerID, userID)
}

func (m *mockSharingService) SharedWith(ctx context.Context, userID uuid.UUID) ([]*domain.BoardShare, error) {
	return m.sharedWithFunc(ctx, userID)
}

// emptyContents wires list funcs that return no cards, connections or
// shapes, for tests that only care about the board rows.
func emptyContents(store *mockDataStore) {
	store.cards = &mockCardRepo{listByBoardFunc: func(context.Context, uuid.UUID) ([]*domain.Card, error) {
		return nil, nil
	}}
	store.connections = &mockConnectionRepo{listByBoardFunc: func(context.Context, uuid.UUID) ([]*domain.Connection, error) {
		return nil, nil
	}}
	store.shapes = &mockShapeRepo{listByBoardFunc: func(context.Context, uuid.UUID) ([]*domain.Shape, error) {
		return nil, nil
	}}
}
