package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/buzzboard/buzzboard-backend/internal/engine"
	"github.com/buzzboard/buzzboard-backend/internal/hub"
	"github.com/buzzboard/buzzboard-backend/internal/ws"
)

type Options struct {
	Board     []engine.Category
	PublicURL string
}

func SetupRoutes(h *hub.Hub, opts Options, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Post("/games", CreateGame(h, opts.Board, log))
	r.Get("/games/{code}", GetGame(h))
	r.Get("/games/{code}/qr", JoinQR(h, opts.PublicURL))
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h, log))
	return r
}
