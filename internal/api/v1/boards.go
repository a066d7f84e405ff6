package v1

import (
	"context"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/katachi/katachi/internal/domain"
	"github.com/katachi/katachi/internal/server/middleware"
)

type ListBoardsInput struct{}

type ListBoardsOutput struct {
	Body []*domain.Board
}

type GetBoardInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
}

type GetBoardOutput struct {
	Body *domain.Board
}

func RegisterBoardRoutes(api huma.API, store DataStore, sharing SharingService) {
	huma.Register(api, huma.Operation{
		OperationID: "list-boards",
		Method:      http.MethodGet,
		Path:        "/boards",
		Summary:     "List boards owned by or shared with the caller, with full contents",
		Tags:        []string{"Boards"},
	}, func(ctx context.Context, _ *ListBoardsInput) (*ListBoardsOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("missing user context")
		}

		owned, err := store.Boards().ListByOwner(ctx, userID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list boards", err)
		}

		shares, err := sharing.SharedWith(ctx, userID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list shared boards", err)
		}

		boards := owned
		for _, sh := range shares {
			b, getErr := store.Boards().GetByID(ctx, sh.BoardID)
			if getErr != nil {
				// Shared board may have been deleted since the share
				// was granted; skip it rather than failing the list.
				continue
			}
			boards = append(boards, b)
		}

		for _, b := range boards {
			if loadErr := loadBoardContents(ctx, store, b); loadErr != nil {
				return nil, huma.Error500InternalServerError("failed to load board contents", loadErr)
			}
		}

		return &ListBoardsOutput{Body: boards}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-board",
		Method:      http.MethodGet,
		Path:        "/boards/{boardID}",
		Summary:     "Get a single board with full contents",
		Tags:        []string{"Boards"},
	}, func(ctx context.Context, input *GetBoardInput) (*GetBoardOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("missing user context")
		}

		perm, err := sharing.Resolve(ctx, userID, input.BoardID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to resolve permission", err)
		}
		if perm == domain.PermissionNone {
			// Missing board and no-access board answer the same way.
			return nil, huma.Error404NotFound("board not found")
		}

		b, err := store.Boards().GetByID(ctx, input.BoardID)
		if err != nil {
			return nil, huma.Error404NotFound("board not found")
		}

		if loadErr := loadBoardContents(ctx, store, b); loadErr != nil {
			return nil, huma.Error500InternalServerError("failed to load board contents", loadErr)
		}

		return &GetBoardOutput{Body: b}, nil
	})
}

// loadBoardContents populates the denormalized Cards, Connections and
// Shapes slices on a board row.
func loadBoardContents(ctx context.Context, store DataStore, b *domain.Board) error {
	cards, err := store.Cards().ListByBoard(ctx, b.ID)
	if err != nil {
		return fmt.Errorf("list cards: %w", err)
	}
	conns, err := store.Connections().ListByBoard(ctx, b.ID)
	if err != nil {
		return fmt.Errorf("list connections: %w", err)
	}
	shapes, err := store.Shapes().ListByBoard(ctx, b.ID)
	if err != nil {
		return fmt.Errorf("list shapes: %w", err)
	}

	b.Cards = cards
	b.Connections = conns
	b.Shapes = shapes
	return nil
}
