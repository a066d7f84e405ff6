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

type ShareBoardInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
	Body    struct {
		Email      string            `json:"email" minLength:"1" doc:"Email of the user to share with"`
		Permission domain.Permission `json:"permission" enum:"admin,edit,view" doc:"Granted permission level"`
	}
}

type ShareBoardOutput struct {
	Body *domain.BoardShare
}

type RevokeShareInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
	UserID  uuid.UUID `path:"userID" doc:"User whose share to revoke"`
}

func RegisterShareRoutes(api huma.API, sharing SharingService) {
	huma.Register(api, huma.Operation{
		OperationID: "share-board",
		Method:      http.MethodPost,
		Path:        "/boards/{boardID}/shares",
		Summary:     "Grant a user access to a board",
		Tags:        []string{"Sharing"},
	}, func(ctx context.Context, input *ShareBoardInput) (*ShareBoardOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("missing user context")
		}

		share, err := sharing.Share(ctx, input.BoardID, userID, input.Body.Email, input.Body.Permission)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrForbidden):
				return nil, huma.Error403Forbidden("only the board owner can share it")
			case errors.Is(err, domain.ErrNotFound):
				return nil, huma.Error404NotFound("board or user not found")
			default:
				return nil, huma.Error500InternalServerError("failed to share board", err)
			}
		}

		return &ShareBoardOutput{Body: share}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "revoke-share",
		Method:      http.MethodDelete,
		Path:        "/boards/{boardID}/shares/{userID}",
		Summary:     "Revoke a user's access to a board",
		Tags:        []string{"Sharing"},
	}, func(ctx context.Context, input *RevokeShareInput) (*struct{}, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("missing user context")
		}

		if err := sharing.Revoke(ctx, input.BoardID, userID, input.UserID); err != nil {
			switch {
			case errors.Is(err, domain.ErrForbidden):
				return nil, huma.Error403Forbidden("only the board owner can revoke shares")
			case errors.Is(err, domain.ErrNotFound):
				return nil, huma.Error404NotFound("board not found")
			default:
				return nil, huma.Error500InternalServerError("failed to revoke share", err)
			}
		}

		return nil, nil
	})
}
