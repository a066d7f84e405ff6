package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/katachi/katachi/internal/server/middleware"
	"github.com/katachi/katachi/internal/sync"
)

type SyncBoardsInput struct {
	Body struct {
		Operations []sync.Operation `json:"operations" doc:"Ordered batch of mutation intents"`
	}
}

type SyncBoardsOutput struct {
	Body *sync.Result
}

func RegisterSyncRoutes(api huma.API, svc SyncService) {
	huma.Register(api, huma.Operation{
		OperationID: "sync-boards",
		Method:      http.MethodPost,
		Path:        "/boards/sync",
		Summary:     "Apply a batch of board, card, connection and shape operations",
		Tags:        []string{"Sync"},
	}, func(ctx context.Context, input *SyncBoardsInput) (*SyncBoardsOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("missing user context")
		}

		res, err := svc.ProcessBatch(ctx, userID, input.Body.Operations)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to process sync batch", err)
		}

		return &SyncBoardsOutput{Body: res}, nil
	})
}
