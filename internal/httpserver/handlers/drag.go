package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/hub/internal/domain"
	"github.com/MrSnakeDoc/hub/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hub/internal/session"
)

type dragBeginRequest struct {
	Index   *int            `json:"index"`
	Payload *domain.ItemRef `json:"payload"`
}

// DragBegin starts dragging the shortcut at index of the request's role.
func DragBegin(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dragBeginRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Index == nil || req.Payload == nil {
			writeError(w, http.StatusBadRequest, "index and payload are required")
			return
		}

		role := role(r, d)
		apply(w, r, d, http.StatusOK, "drag_begin", func(h session.Handle) {
			h.Drag.BeginDrag(role, *req.Index, *req.Payload)
		})
	}
}

type dropShortcutRequest struct {
	Target *int `json:"target"`
}

func DragDropShortcut(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dropShortcutRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Target == nil {
			writeError(w, http.StatusBadRequest, "target is required")
			return
		}

		apply(w, r, d, http.StatusOK, "drag_drop_shortcut", func(h session.Handle) {
			h.Drag.DropOnShortcutSlot(*req.Target)
		})
	}
}

type dropCollectionRequest struct {
	CollectionID string `json:"collectionId"`
}

func DragDropCollection(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dropCollectionRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.CollectionID == "" {
			writeError(w, http.StatusBadRequest, "collectionId is required")
			return
		}

		apply(w, r, d, http.StatusOK, "drag_drop_collection", func(h session.Handle) {
			h.Drag.DropOnCollection(req.CollectionID)
		})
	}
}

func DragCancel(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		apply(w, r, d, http.StatusOK, "drag_cancel", func(h session.Handle) {
			h.Drag.Cancel()
		})
	}
}
