package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/hub/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hub/internal/logger"
)

type reloadResponse struct {
	Status string `json:"status"`
	// Generation is the corpus generation at trigger time; /healthz reports a
	// higher one once the reload lands.
	Generation uint64 `json:"corpus_generation"`
}

// Reload asks the corpus reloader for an immediate reload. It never blocks:
// while one is pending, further requests get 429.
func Reload(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gen := d.Index.Generation()

		select {
		case d.ReloadTrigger <- struct{}{}:
			d.Logger.Info("manual corpus reload triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, http.StatusAccepted, reloadResponse{Status: "triggered", Generation: gen})
		default:
			d.Logger.Warn("corpus reload already pending",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, http.StatusTooManyRequests, reloadResponse{Status: "pending", Generation: gen})
		}
	}
}
