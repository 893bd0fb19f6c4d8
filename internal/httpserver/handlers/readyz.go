package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/hub/internal/httpserver/deps"
)

const pingTimeout = 2 * time.Second

type readyzResponse struct {
	Ready   bool     `json:"ready"`
	Reasons []string `json:"reasons,omitempty"`
}

// Readyz reports ready once a corpus is loaded and the snapshot store answers.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var reasons []string
		if d.Index.Count() == 0 {
			reasons = append(reasons, "corpus not loaded")
		}
		if err := pingStore(r.Context(), d); err != nil {
			reasons = append(reasons, "snapshot store unreachable")
		}

		status := http.StatusOK
		if len(reasons) > 0 {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, readyzResponse{Ready: len(reasons) == 0, Reasons: reasons})
	}
}

func pingStore(ctx context.Context, d deps.Deps) error {
	if d.Store == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return d.Store.Ping(ctx)
}
