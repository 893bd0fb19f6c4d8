package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/hub/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hub/internal/logger"
	"github.com/MrSnakeDoc/hub/internal/session"
)

// SessionHeader carries the session id on every workspace request.
const SessionHeader = "X-Hub-Session"

const maxBodyBytes = 64 << 10

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func sessionID(r *http.Request, d deps.Deps) string {
	if id := strings.TrimSpace(r.Header.Get(SessionHeader)); id != "" {
		return id
	}
	return d.DefaultSession
}

func role(r *http.Request, d deps.Deps) string {
	if v := strings.TrimSpace(r.URL.Query().Get("role")); v != "" {
		return v
	}
	return d.DefaultRole
}

// apply runs one workspace intent for the request's session and answers with
// the resulting view.
func apply(w http.ResponseWriter, r *http.Request, d deps.Deps, status int, op string, fn func(h session.Handle)) {
	view, err := d.Sessions.Apply(r.Context(), sessionID(r, d), role(r, d), op, fn)
	if err != nil {
		writeSessionError(w, r, d, err)
		return
	}
	writeJSON(w, status, view)
}

func writeSessionError(w http.ResponseWriter, r *http.Request, d deps.Deps, err error) {
	if errors.Is(err, session.ErrInvalidID) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	d.Logger.Error("workspace unavailable",
		logger.String("path", r.URL.Path),
		logger.Error(err))
	writeError(w, http.StatusServiceUnavailable, "workspace storage unavailable")
}
