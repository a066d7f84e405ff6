package v1_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/katachi/katachi/internal/api/v1"
	"github.com/katachi/katachi/internal/domain"
)

func TestListBoards(t *testing.T) {
	t.Parallel()

	t.Run("merges_owned_and_shared_with_contents", func(t *testing.T) {
		t.Parallel()

		userID := uuid.New()
		ownedID := uuid.New()
		sharedID := uuid.New()
		now := time.Now().Truncate(time.Second)

		owned := &domain.Board{ID: ownedID, UserID: userID, Name: "mine", Version: 1, CreatedAt: now, UpdatedAt: now}
		shared := &domain.Board{ID: sharedID, UserID: uuid.New(), Name: "theirs", Version: 2, CreatedAt: now, UpdatedAt: now}

		store := &mockDataStore{
			boards: &mockBoardRepo{
				listByOwnerFunc: func(_ context.Context, gotUser uuid.UUID) ([]*domain.Board, error) {
					assert.Equal(t, userID, gotUser)
					return []*domain.Board{owned}, nil
				},
				getByIDFunc: func(_ context.Context, id uuid.UUID) (*domain.Board, error) {
					require.Equal(t, sharedID, id)
					return shared, nil
				},
			},
		}
		store.cards = &mockCardRepo{listByBoardFunc: func(_ context.Context, boardID uuid.UUID) ([]*domain.Card, error) {
			if boardID == ownedID {
				return []*domain.Card{{ID: uuid.New(), BoardID: ownedID, Type: domain.CardTypeText, Version: 1}}, nil
			}
			return nil, nil
		}}
		store.connections = &mockConnectionRepo{listByBoardFunc: func(context.Context, uuid.UUID) ([]*domain.Connection, error) {
			return nil, nil
		}}
		store.shapes = &mockShapeRepo{listByBoardFunc: func(context.Context, uuid.UUID) ([]*domain.Shape, error) {
			return nil, nil
		}}

		sharing := &mockSharingService{
			sharedWithFunc: func(context.Context, uuid.UUID) ([]*domain.BoardShare, error) {
				return []*domain.BoardShare{{BoardID: sharedID, UserID: userID, Permission: domain.PermissionView}}, nil
			},
		}

		_, api := humatest.New(t)
		v1.RegisterBoardRoutes(api, store, sharing)

		resp := api.GetCtx(userCtx(userID), "/boards")
		require.Equal(t, http.StatusOK, resp.Code)

		var boards []domain.Board
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &boards))
		require.Len(t, boards, 2)
		assert.Equal(t, ownedID, boards[0].ID)
		assert.Len(t, boards[0].Cards, 1)
		assert.Equal(t, sharedID, boards[1].ID)
	})

	t.Run("deleted_shared_board_is_skipped", func(t *testing.T) {
		t.Parallel()

		userID := uuid.New()
		store := &mockDataStore{
			boards: &mockBoardRepo{
				listByOwnerFunc: func(context.Context, uuid.UUID) ([]*domain.Board, error) { return nil, nil },
				getByIDFunc: func(context.Context, uuid.UUID) (*domain.Board, error) {
					return nil, domain.ErrNotFound
				},
			},
		}
		emptyContents(store)

		sharing := &mockSharingService{
			sharedWithFunc: func(context.Context, uuid.UUID) ([]*domain.BoardShare, error) {
				return []*domain.BoardShare{{BoardID: uuid.New(), UserID: userID}}, nil
			},
		}

		_, api := humatest.New(t)
		v1.RegisterBoardRoutes(api, store, sharing)

		resp := api.GetCtx(userCtx(userID), "/boards")
		require.Equal(t, http.StatusOK, resp.Code)

		var boards []domain.Board
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &boards))
		assert.Empty(t, boards)
	})
}

func TestGetBoard(t *testing.T) {
	t.Parallel()

	t.Run("no_access_reads_as_404", func(t *testing.T) {
		t.Parallel()

		store := &mockDataStore{boards: &mockBoardRepo{}}
		sharing := &mockSharingService{
			resolveFunc: func(context.Context, uuid.UUID, uuid.UUID) (domain.Permission, error) {
				return domain.PermissionNone, nil
			},
		}

		_, api := humatest.New(t)
		v1.RegisterBoardRoutes(api, store, sharing)

		resp := api.GetCtx(userCtx(uuid.New()), "/boards/"+uuid.New().String())
		require.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("viewer_gets_full_board", func(t *testing.T) {
		t.Parallel()

		boardID := uuid.New()
		board := &domain.Board{ID: boardID, UserID: uuid.New(), Name: "b", Version: 3}

		store := &mockDataStore{
			boards: &mockBoardRepo{getByIDFunc: func(context.Context, uuid.UUID) (*domain.Board, error) {
				return board, nil
			}},
		}
		emptyContents(store)

		sharing := &mockSharingService{
			resolveFunc: func(context.Context, uuid.UUID, uuid.UUID) (domain.Permission, error) {
				return domain.PermissionView, nil
			},
		}

		_, api := humatest.New(t)
		v1.RegisterBoardRoutes(api, store, sharing)

		resp := api.GetCtx(userCtx(uuid.New()), "/boards/"+boardID.String())
		require.Equal(t, http.StatusOK, resp.Code)

		var got domain.Board
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
		assert.Equal(t, boardID, got.ID)
		assert.Equal(t, 3, got.Version)
	})
}
