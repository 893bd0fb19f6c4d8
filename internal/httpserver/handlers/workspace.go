package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/hub/internal/domain"
	"github.com/MrSnakeDoc/hub/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hub/internal/session"
)

// Workspace renders the session's shortcuts for the role, its collections
// and bookmarks.
func Workspace(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		apply(w, r, d, http.StatusOK, "", nil)
	}
}

// ─────────────────────────────
// Bookmarks & shortcuts
// ─────────────────────────────

func ToggleBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docID := chi.URLParam(r, "docID")
		role := role(r, d)
		apply(w, r, d, http.StatusOK, "toggle_bookmark", func(h session.Handle) {
			h.Workspace.ToggleBookmark(docID, role)
		})
	}
}

type addShortcutRequest struct {
	Label string `json:"label"`
	Href  string `json:"href"`
	DocID string `json:"docId"`
}

func AddShortcut(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addShortcutRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if strings.TrimSpace(req.Label) == "" {
			writeError(w, http.StatusBadRequest, "label is required")
			return
		}

		role := role(r, d)
		apply(w, r, d, http.StatusOK, "add_shortcut", func(h session.Handle) {
			h.Workspace.AddCustomShortcut(role, domain.Shortcut{
				Label: req.Label,
				Href:  req.Href,
				DocID: req.DocID,
			})
		})
	}
}

func RemoveShortcut(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docID := chi.URLParam(r, "docID")
		role := role(r, d)
		apply(w, r, d, http.StatusOK, "remove_shortcut", func(h session.Handle) {
			h.Workspace.RemoveCustomShortcut(role, docID)
		})
	}
}

type reorderRequest struct {
	From *int `json:"from"`
	To   *int `json:"to"`
}

func ReorderShortcuts(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req reorderRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.From == nil || req.To == nil {
			writeError(w, http.StatusBadRequest, "from and to are required")
			return
		}

		role := role(r, d)
		apply(w, r, d, http.StatusOK, "reorder_shortcuts", func(h session.Handle) {
			h.Workspace.ReorderShortcuts(role, *req.From, *req.To)
		})
	}
}

// ─────────────────────────────
// Collections
// ─────────────────────────────

func CreateCollection(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var id string
		view, err := d.Sessions.Apply(r.Context(), sessionID(r, d), role(r, d), "create_collection", func(h session.Handle) {
			id = h.Workspace.CreateCollection()
		})
		if err != nil {
			writeSessionError(w, r, d, err)
			return
		}
		w.Header().Set("Location", "/api/collections/"+id)
		writeJSON(w, http.StatusCreated, view)
	}
}

type renameRequest struct {
	Name string `json:"name"`
}

func RenameCollection(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req renameRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		name := strings.TrimSpace(req.Name)
		if name == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}

		id := chi.URLParam(r, "id")
		apply(w, r, d, http.StatusOK, "rename_collection", func(h session.Handle) {
			h.Workspace.RenameCollection(id, name)
		})
	}
}

func DeleteCollection(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		apply(w, r, d, http.StatusOK, "delete_collection", func(h session.Handle) {
			h.Workspace.DeleteCollection(id)
		})
	}
}

type addItemRequest struct {
	Label string `json:"label"`
}

func AddCollectionItem(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addItemRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Label == "" {
			writeError(w, http.StatusBadRequest, "label is required")
			return
		}

		id := chi.URLParam(r, "id")
		apply(w, r, d, http.StatusOK, "add_item", func(h session.Handle) {
			h.Workspace.AddItemToCollection(id, req.Label)
		})
	}
}

type removeItemRequest struct {
	Item *domain.ItemRef `json:"item"`
}

func RemoveCollectionItem(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req removeItemRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Item == nil {
			writeError(w, http.StatusBadRequest, "item is required")
			return
		}

		id := chi.URLParam(r, "id")
		item := *req.Item
		apply(w, r, d, http.StatusOK, "remove_item", func(h session.Handle) {
			h.Workspace.RemoveItemFromCollection(id, item)
		})
	}
}
