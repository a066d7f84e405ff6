package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/katachi/katachi/internal/api/v1"
	"github.com/katachi/katachi/internal/api/ws"
	"github.com/katachi/katachi/internal/sharing"
	"github.com/katachi/katachi/internal/store/postgres"
	"github.com/katachi/katachi/internal/sync"
)

func registerAPIRoutes(api huma.API, store *postgres.Store, syncSvc *sync.Service, sharingSvc *sharing.Service) {
	v1.RegisterSyncRoutes(api, syncSvc)
	v1.RegisterBoardRoutes(api, store, sharingSvc)
	v1.RegisterShareRoutes(api, sharingSvc)
	v1.RegisterHistoryRoutes(api, store, sharingSvc)
}

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/canvas", hub.ServeCanvas)
}
