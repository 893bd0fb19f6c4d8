package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/hub/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hub/internal/httpserver/handlers"
)

func init() { Register(registerWorkspace) }

func registerWorkspace(r chi.Router, d deps.Deps) {
	api := r.With(apiMiddlewares(d)...)

	api.Get("/api/workspace", handlers.Workspace(d))

	api.Post("/api/bookmarks/{docID}/toggle", handlers.ToggleBookmark(d))

	api.Post("/api/shortcuts", handlers.AddShortcut(d))
	api.Post("/api/shortcuts/reorder", handlers.ReorderShortcuts(d))
	api.Delete("/api/shortcuts/{docID}", handlers.RemoveShortcut(d))

	api.Post("/api/collections", handlers.CreateCollection(d))
	api.Patch("/api/collections/{id}", handlers.RenameCollection(d))
	api.Delete("/api/collections/{id}", handlers.DeleteCollection(d))
	api.Post("/api/collections/{id}/items", handlers.AddCollectionItem(d))
	api.Delete("/api/collections/{id}/items", handlers.RemoveCollectionItem(d))
}
