package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/katachi/katachi/internal/domain"
	"github.com/katachi/katachi/internal/server/middleware"
)

type ListBoardHistoryInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
	Limit   int       `query:"limit" default:"50" minimum:"1" maximum:"500" doc:"Maximum entries to return"`
}

type ListBoardHistoryOutput struct {
	Body []*domain.BoardHistory
}

type ListCardHistoryInput struct {
	CardID uuid.UUID `path:"cardID" doc:"Card ID"`
	Limit  int       `query:"limit" default:"50" minimum:"1" maximum:"500" doc:"Maximum entries to return"`
}

type ListCardHistoryOutput struct {
	Body []*domain.CardHistory
}

func RegisterHistoryRoutes(api huma.API, store DataStore, sharing SharingService) {
	huma.Register(api, huma.Operation{
		OperationID: "list-board-history",
		Method:      http.MethodGet,
		Path:        "/boards/{boardID}/history",
		Summary:     "List recent board-level history entries, newest first",
		Tags:        []string{"History"},
	}, func(ctx context.Context, input *ListBoardHistoryInput) (*ListBoardHistoryOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("missing user context")
		}

		perm, err := sharing.Resolve(ctx, userID, input.BoardID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to resolve permission", err)
		}
		if perm == domain.PermissionNone {
			return nil, huma.Error404NotFound("board not found")
		}

		entries, err := store.History().ListByBoard(ctx, input.BoardID, input.Limit)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list board history", err)
		}

		return &ListBoardHistoryOutput{Body: entries}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-card-history",
		Method:      http.MethodGet,
		Path:        "/cards/{cardID}/history",
		Summary:     "List recent history entries for a card, newest first",
		Tags:        []string{"History"},
	}, func(ctx context.Context, input *ListCardHistoryInput) (*ListCardHistoryOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("missing user context")
		}

		card, err := store.Cards().GetByID(ctx, input.CardID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("card not found")
			}
			return nil, huma.Error500InternalServerError("failed to load card", err)
		}

		perm, err := sharing.Resolve(ctx, userID, card.BoardID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to resolve permission", err)
		}
		if perm == domain.PermissionNone {
			return nil, huma.Error404NotFound("card not found")
		}

		entries, err := store.History().ListByCard(ctx, input.CardID, input.Limit)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list card history", err)
		}

		return &ListCardHistoryOutput{Body: entries}, nil
	})
}
