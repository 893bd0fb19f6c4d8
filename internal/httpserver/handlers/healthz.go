package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/hub/internal/httpserver/deps"
)

type healthzResponse struct {
	Status        string  `json:"status"`
	Documents     int     `json:"documents"`
	Generation    uint64  `json:"corpus_generation"`
	Sessions      int     `json:"sessions"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Version       string  `json:"version,omitempty"`
	Commit        string  `json:"commit,omitempty"`
	BuildDate     string  `json:"build_date,omitempty"`
	GoVersion     string  `json:"go_version,omitempty"`
}

// Healthz reports liveness. It answers 200 as long as the process serves
// HTTP, even before the first corpus load; /readyz covers the rest.
func Healthz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthzResponse{
			Status:        "ok",
			Documents:     d.Index.Count(),
			Generation:    d.Index.Generation(),
			UptimeSeconds: d.Now().Sub(d.StartTime).Seconds(),
			Version:       d.Version,
			Commit:        d.Commit,
			BuildDate:     d.BuildDate,
			GoVersion:     d.GoVersion,
		}
		if d.Sessions != nil {
			resp.Sessions = d.Sessions.Len()
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
