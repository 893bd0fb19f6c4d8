package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/hub/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hub/internal/httpserver/handlers"
)

func init() { Register(registerDrag) }

func registerDrag(r chi.Router, d deps.Deps) {
	api := r.With(apiMiddlewares(d)...)
	api.Post("/api/drag/begin", handlers.DragBegin(d))
	api.Post("/api/drag/drop/shortcut", handlers.DragDropShortcut(d))
	api.Post("/api/drag/drop/collection", handlers.DragDropCollection(d))
	api.Post("/api/drag/cancel", handlers.DragCancel(d))
}
