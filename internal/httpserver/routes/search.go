package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/hub/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hub/internal/httpserver/handlers"
)

func init() { Register(registerSearch) }

func registerSearch(r chi.Router, d deps.Deps) {
	api := r.With(apiMiddlewares(d)...)
	api.Get("/api/search", handlers.Search(d))
	api.Get("/api/assist", handlers.Assist(d))
}
